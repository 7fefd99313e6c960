// Package assistanttest provides an in-memory Assistants API server for
// tests.
package assistanttest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/brunobiangulo/paperlens/assistant"
)

// Script scripts the behavior of one assistant id.
type Script struct {
	// Statuses are returned by successive run retrievals; the last one
	// repeats. Empty means completed on the first check.
	Statuses []assistant.RunStatus

	// Reply holds the text segments of the assistant message. Nil means the
	// thread gets no assistant message at all.
	Reply []string

	// Parts overrides Reply with raw content parts.
	Parts []assistant.ContentPart
}

type thread struct {
	id          string
	prompt      string
	fileID      string
	assistantID string
}

type run struct {
	id          string
	threadID    string
	assistantID string
	polls       int
}

// Server is a fake Assistants API. Unknown assistant ids complete with an
// empty reply.
type Server struct {
	*httptest.Server

	APIKey string

	mu           sync.Mutex
	scripts      map[string]Script
	uploadStatus int
	hold         chan struct{}
	nextID       int
	files        map[string][]byte
	threads      map[string]*thread
	runs         map[string]*run
}

// NewServer starts a fake server closed at test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		APIKey:  "sk-test",
		scripts: make(map[string]Script),
		files:   make(map[string][]byte),
		threads: make(map[string]*thread),
		runs:    make(map[string]*run),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/files", s.handleUpload)
	mux.HandleFunc("POST /v1/threads", s.handleCreateThread)
	mux.HandleFunc("POST /v1/threads/{tid}/messages", s.handleCreateMessage)
	mux.HandleFunc("GET /v1/threads/{tid}/messages", s.handleListMessages)
	mux.HandleFunc("POST /v1/threads/{tid}/runs", s.handleCreateRun)
	mux.HandleFunc("GET /v1/threads/{tid}/runs/{rid}", s.handleRetrieveRun)

	s.Server = httptest.NewServer(s.auth(mux))
	t.Cleanup(func() {
		s.Release()
		s.Close()
	})
	return s
}

// Config returns a client config pointing at the server.
func (s *Server) Config() assistant.Config {
	return assistant.Config{BaseURL: s.URL, APIKey: s.APIKey}
}

// Script sets the behavior for an assistant id.
func (s *Server) Script(assistantID string, sc Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[assistantID] = sc
}

// FailUploads makes every file upload answer with the given status code.
func (s *Server) FailUploads(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadStatus = code
}

// Hold blocks run retrievals until Release is called.
func (s *Server) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hold == nil {
		s.hold = make(chan struct{})
	}
}

// Release unblocks held run retrievals.
func (s *Server) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hold != nil {
		close(s.hold)
		s.hold = nil
	}
}

// Prompt returns the prompt posted on the thread that ran assistantID.
func (s *Server) Prompt(assistantID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, th := range s.threads {
		if th.assistantID == assistantID {
			return th.prompt
		}
	}
	return ""
}

// Uploaded returns the bytes of an uploaded file.
func (s *Server) Uploaded(fileID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[fileID]
}

func (s *Server) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s_%d", prefix, s.nextID)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey != "" && r.Header.Get("Authorization") != "Bearer "+s.APIKey {
			writeError(w, http.StatusUnauthorized, "Incorrect API key provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.uploadStatus
	s.mu.Unlock()
	if status != 0 {
		writeError(w, status, "upload rejected")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.FormValue("purpose") != "assistants" {
		writeError(w, http.StatusBadRequest, "purpose must be assistants")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	s.mu.Lock()
	id := s.id("file")
	s.files[id] = data
	s.mu.Unlock()

	writeJSON(w, assistant.File{ID: id, Filename: header.Filename, Bytes: int64(len(data)), Purpose: "assistants"})
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	th := &thread{id: s.id("thread")}
	s.threads[th.id] = th
	s.mu.Unlock()
	writeJSON(w, assistant.Thread{ID: th.id})
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req assistant.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "no such thread")
		return
	}
	th.prompt = req.Content
	if len(req.Attachments) > 0 {
		th.fileID = req.Attachments[0].FileID
	}
	writeJSON(w, assistant.Message{ID: s.id("msg"), Role: req.Role})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantID string `json:"assistant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "no such thread")
		return
	}
	th.assistantID = req.AssistantID
	rn := &run{id: s.id("run"), threadID: th.id, assistantID: req.AssistantID}
	s.runs[rn.id] = rn
	writeJSON(w, assistant.Run{ID: rn.id, ThreadID: th.id, AssistantID: rn.assistantID, Status: assistant.RunQueued})
}

func (s *Server) handleRetrieveRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hold := s.hold
	s.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rn, ok := s.runs[r.PathValue("rid")]
	if !ok || rn.threadID != r.PathValue("tid") {
		writeError(w, http.StatusNotFound, "no such run")
		return
	}

	status := assistant.RunCompleted
	if sc := s.scripts[rn.assistantID]; len(sc.Statuses) > 0 {
		i := rn.polls
		if i >= len(sc.Statuses) {
			i = len(sc.Statuses) - 1
		}
		status = sc.Statuses[i]
	}
	rn.polls++

	out := assistant.Run{ID: rn.id, ThreadID: rn.threadID, AssistantID: rn.assistantID, Status: status}
	if status == assistant.RunFailed {
		out.LastError = &assistant.RunError{Code: "server_error", Message: "scripted failure"}
	}
	writeJSON(w, out)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[r.PathValue("tid")]
	if !ok {
		writeError(w, http.StatusNotFound, "no such thread")
		return
	}

	var data []assistant.Message
	sc := s.scripts[th.assistantID]
	parts := sc.Parts
	if parts == nil && sc.Reply != nil {
		for _, text := range sc.Reply {
			parts = append(parts, assistant.ContentPart{Type: "text", Text: &assistant.TextContent{Value: text}})
		}
	}
	if parts != nil {
		data = append(data, assistant.Message{ID: s.id("msg"), Role: "assistant", Content: parts})
	}
	data = append(data, assistant.Message{
		ID:      s.id("msg"),
		Role:    "user",
		Content: []assistant.ContentPart{{Type: "text", Text: &assistant.TextContent{Value: th.prompt}}},
	})

	writeJSON(w, map[string]interface{}{"object": "list", "data": data})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"message": msg},
	})
}
