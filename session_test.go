package paperlens

import (
	"errors"
	"testing"
	"time"
)

func TestNewSessionIsIdle(t *testing.T) {
	s := NewSession()
	if s.ID == "" {
		t.Fatal("expected a session id")
	}
	results := s.Results()
	if len(results) != len(Kinds) {
		t.Fatalf("got %d results, want %d", len(results), len(Kinds))
	}
	for i, r := range results {
		if r.Kind != Kinds[i] {
			t.Errorf("result %d kind = %s, want %s", i, r.Kind, Kinds[i])
		}
		if r.Status != StatusIdle {
			t.Errorf("%s: status = %s, want idle", r.Kind, r.Status)
		}
	}
	if s.Busy() {
		t.Error("new session should not be busy")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done should be closed when no analysis was started")
	}
}

func TestSelectFileRejectsNonPDF(t *testing.T) {
	s := NewSession()
	err := s.SelectFile("notes.txt", "text/plain", []byte("hello"))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("SelectFile error = %v, want ErrUnsupportedFileType", err)
	}
	if s.File() != nil {
		t.Error("non-PDF should not be kept as the session file")
	}

	mm := s.Result(KindMindMap)
	if mm.Status != StatusError || mm.Error != UnsupportedFileMessage {
		t.Errorf("mind map result = %+v", mm)
	}
	for _, k := range []Kind{KindInsights, KindAchievements, KindResearchIdeas} {
		if got := s.Result(k).Status; got != StatusIdle {
			t.Errorf("%s: status = %s, want idle", k, got)
		}
	}
}

func TestSelectFileResetsResults(t *testing.T) {
	s := NewSession()
	_ = s.SelectFile("notes.txt", "text/plain", nil)

	if err := s.SelectFile("paper.pdf", "application/pdf; charset=binary", []byte("%PDF-1.7")); err != nil {
		t.Fatalf("SelectFile returned error: %v", err)
	}
	for _, r := range s.Results() {
		if r.Status != StatusIdle {
			t.Errorf("%s: status = %s, want idle", r.Kind, r.Status)
		}
	}
	f := s.File()
	if f == nil || f.Name != "paper.pdf" {
		t.Fatalf("file = %+v", f)
	}
}

func TestSessionStateWrites(t *testing.T) {
	s := NewSession()
	_ = s.SelectFile("paper.pdf", "application/pdf", []byte("%PDF-1.4"))

	gen, _, done, err := s.begin(func() {})
	if err != nil {
		t.Fatalf("begin returned error: %v", err)
	}

	r, m, err := HandleResponse(KindMindMap, testMindMap)
	if err != nil {
		t.Fatalf("HandleResponse returned error: %v", err)
	}
	if !s.complete(gen, r, m) {
		t.Fatal("complete for the current analysis was dropped")
	}
	if !s.fail(gen, KindInsights, errors.New("boom")) {
		t.Fatal("fail for the current analysis was dropped")
	}
	if s.complete(gen-1, Result{Kind: KindAchievements, Status: StatusComplete}, nil) {
		t.Error("write from a stale analysis was accepted")
	}
	s.finish(gen, done)

	sn := s.Snapshot()
	if sn.Filename != "paper.pdf" {
		t.Errorf("snapshot filename = %q", sn.Filename)
	}
	if sn.MindMap == nil {
		t.Error("snapshot should carry the completed mind map")
	}
	if got := sn.Result(KindInsights); got.Status != StatusError || got.Error != "boom" {
		t.Errorf("insights = %+v", got)
	}
	if got := sn.Result(KindAchievements).Status; got != StatusLoading {
		t.Errorf("achievements status = %s, want loading", got)
	}
}

func TestSessionLoginToggle(t *testing.T) {
	s := NewSession()
	if s.LoggedIn() {
		t.Fatal("new session should be signed out")
	}
	s.Login()
	if !s.LoggedIn() || !s.Snapshot().LoggedIn {
		t.Error("expected signed in")
	}
	s.Logout()
	if s.LoggedIn() {
		t.Error("expected signed out")
	}
}

func TestSessionsRegistry(t *testing.T) {
	reg := NewSessions()
	a := reg.Create()
	b := reg.Create()
	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}

	got, err := reg.Get(a.ID)
	if err != nil || got != a {
		t.Fatalf("Get(%s) = %v, %v", a.ID, got, err)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}

	if err := reg.Delete(b.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := reg.Delete(b.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete error = %v, want ErrSessionNotFound", err)
	}

	if n := reg.Prune(time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("Prune removed %d fresh sessions", n)
	}
	if n := reg.Prune(time.Now().Add(time.Minute)); n != 1 {
		t.Errorf("Prune removed %d sessions, want 1", n)
	}
	if reg.Len() != 0 {
		t.Errorf("Len after prune = %d", reg.Len())
	}

	reg.Create()
	reg.CloseAll()
	if reg.Len() != 0 {
		t.Errorf("Len after CloseAll = %d", reg.Len())
	}
}

func TestPruneUsesLastActivity(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	cutoff := time.Now().Add(-time.Hour)

	tests := []struct {
		name     string
		activity func(reg *Sessions, s *Session)
		want     int
	}{
		{name: "untouched", activity: func(*Sessions, *Session) {}, want: 1},
		{name: "snapshot", activity: func(_ *Sessions, s *Session) { s.Snapshot() }, want: 0},
		{name: "registry get", activity: func(reg *Sessions, s *Session) { reg.Get(s.ID) }, want: 0},
		{name: "select file", activity: func(_ *Sessions, s *Session) {
			s.SelectFile("notes.txt", "text/plain", nil)
		}, want: 0},
		{name: "login", activity: func(_ *Sessions, s *Session) { s.Login() }, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewSessions()
			s := reg.Create()
			s.CreatedAt = old
			s.lastActive.Store(old.UnixNano())

			tt.activity(reg, s)

			if n := reg.Prune(cutoff); n != tt.want {
				t.Errorf("Prune removed %d, want %d (last active %v)", n, tt.want, s.LastActive())
			}
		})
	}
}
