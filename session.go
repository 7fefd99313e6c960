package paperlens

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/paperlens/mindmap"
	"github.com/brunobiangulo/paperlens/parser"
)

// UnsupportedFileMessage is shown on the mind-map panel when a non-PDF file
// is selected.
const UnsupportedFileMessage = "Please upload a PDF file"

// File is the paper selected for a session. Data is held in memory only.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Info        *parser.Info
}

// Session holds the state of one user's analysis: the selected file, the four
// per-kind results and the validated mind map. Each analysis task writes only
// its own result slot.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	file     *File
	results  map[Kind]Result
	mindMap  *mindmap.MindMap
	loggedIn bool

	// gen increments on every file selection and analysis start; writes
	// from an older analysis are dropped.
	gen    int
	done   chan struct{}
	cancel context.CancelFunc

	// lastActive is a UnixNano timestamp, written under read locks too.
	lastActive atomic.Int64
}

// NewSession returns a session with all four kinds idle.
func NewSession() *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		results:   idleResults(),
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// LastActive returns when the session was last read or changed.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func idleResults() map[Kind]Result {
	m := make(map[Kind]Result, len(Kinds))
	for _, k := range Kinds {
		m[k] = Result{Kind: k, Status: StatusIdle}
	}
	return m
}

// SelectFile replaces the session's file and resets every result to idle.
// A non-PDF clears the file, leaves three kinds idle and puts the mind-map
// kind straight into error; it returns ErrUnsupportedFileType and makes no
// network call. Any analysis still running is cancelled.
func (s *Session) SelectFile(name, contentType string, data []byte) error {
	var info *parser.Info
	pdf := parser.IsPDF(contentType)
	if pdf {
		var err error
		info, err = parser.InspectBytes(data)
		if err != nil {
			slog.Warn("session: could not inspect PDF", "session", s.ID, "file", name, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Touch()
	s.stopLocked()
	s.gen++
	s.results = idleResults()
	s.mindMap = nil

	if !pdf {
		s.file = nil
		s.results[KindMindMap] = Result{Kind: KindMindMap, Status: StatusError, Error: UnsupportedFileMessage}
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}

	s.file = &File{Name: name, ContentType: contentType, Data: data, Info: info}
	return nil
}

// stopLocked cancels the running analysis, if any.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// begin moves all four kinds to loading and records the analysis. It fails
// when no file is selected or an analysis is already loading.
func (s *Session) begin(cancel context.CancelFunc) (gen int, file *File, done chan struct{}, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, nil, nil, ErrNoFile
	}
	for _, r := range s.results {
		if r.Status == StatusLoading {
			return 0, nil, nil, ErrAnalysisInProgress
		}
	}

	s.Touch()
	s.gen++
	for _, k := range Kinds {
		s.results[k] = Result{Kind: k, Status: StatusLoading}
	}
	s.mindMap = nil
	s.done = make(chan struct{})
	s.cancel = cancel
	return s.gen, s.file, s.done, nil
}

// finish marks the analysis gen as settled.
func (s *Session) finish(gen int, done chan struct{}) {
	s.mu.Lock()
	if s.gen == gen {
		s.cancel = nil
		s.Touch()
	}
	s.mu.Unlock()
	close(done)
}

// complete stores a successful result, and the mind map for that kind.
func (s *Session) complete(gen int, r Result, m *mindmap.MindMap) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.results[r.Kind] = r
	if r.Kind == KindMindMap {
		s.mindMap = m
	}
	return true
}

// fail moves kind k to error with err's message.
func (s *Session) fail(gen int, k Kind, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.results[k] = Result{Kind: k, Status: StatusError, Error: err.Error()}
	return true
}

// failAll moves every kind to error with the same message.
func (s *Session) failAll(gen int, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	for _, k := range Kinds {
		s.results[k] = Result{Kind: k, Status: StatusError, Error: err.Error()}
	}
	return true
}

// Result returns the current result for k.
func (s *Session) Result(k Kind) Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[k]
}

// Results returns the four results in display order.
func (s *Session) Results() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, s.results[k])
	}
	return out
}

// MindMap returns the validated mind map, or ErrNoMindMap when the mind-map
// kind has not completed.
func (s *Session) MindMap() (*mindmap.MindMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mindMap == nil || s.results[KindMindMap].Status != StatusComplete {
		return nil, ErrNoMindMap
	}
	return s.mindMap, nil
}

// File returns the selected file, or nil.
func (s *Session) File() *File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

// Busy reports whether any kind is loading.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.Status == StatusLoading {
			return true
		}
	}
	return false
}

// Done returns a channel closed once the latest analysis has settled. It is
// already closed when no analysis was started.
func (s *Session) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return s.done
}

// Close cancels any running analysis.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Login marks the session as signed in. No credentials are checked.
func (s *Session) Login() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = true
	s.Touch()
}

// Logout marks the session as signed out.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.Touch()
}

// LoggedIn reports the sign-in flag.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Snapshot is a point-in-time copy of a session, safe to serialize.
type Snapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	LoggedIn  bool             `json:"logged_in"`
	Filename  string           `json:"filename,omitempty"`
	PDF       *parser.Info     `json:"pdf,omitempty"`
	Results   []Result         `json:"results"`
	MindMap   *mindmap.MindMap `json:"mind_map,omitempty"`
}

// Result returns the snapshot's result for k.
func (sn Snapshot) Result(k Kind) Result {
	for _, r := range sn.Results {
		if r.Kind == k {
			return r
		}
	}
	return Result{Kind: k, Status: StatusIdle}
}

// Snapshot copies the session state. Taking a snapshot counts as activity.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.Touch()

	sn := Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LoggedIn:  s.loggedIn,
		Results:   make([]Result, 0, len(Kinds)),
	}
	if s.file != nil {
		sn.Filename = s.file.Name
		sn.PDF = s.file.Info
	}
	for _, k := range Kinds {
		sn.Results = append(sn.Results, s.results[k])
	}
	if s.results[KindMindMap].Status == StatusComplete {
		sn.MindMap = s.mindMap
	}
	return sn
}
