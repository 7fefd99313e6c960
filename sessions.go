package paperlens

import (
	"sync"
	"time"
)

// Sessions is an in-memory registry of sessions keyed by ID.
type Sessions struct {
	mu    sync.RWMutex
	items map[string]*Session
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{items: make(map[string]*Session)}
}

// Create registers and returns a new session.
func (r *Sessions) Create() *Session {
	s := NewSession()
	r.mu.Lock()
	r.items[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given ID and marks it active.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Delete removes a session and cancels its analysis.
func (r *Sessions) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Prune deletes sessions with no activity since the cutoff. Sessions with
// an analysis in flight are kept. It returns the number removed.
func (r *Sessions) Prune(before time.Time) int {
	r.mu.Lock()
	var stale []*Session
	for id, s := range r.items {
		if s.LastActive().Before(before) && !s.Busy() {
			stale = append(stale, s)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// CloseAll cancels every session's analysis and empties the registry.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range items {
		s.Close()
	}
}
