package inmemory

import (
	"context"
	"sync"

	"github.com/pagetrail/pagetrail/internal/capture"
)

// Store keeps the session list in process memory. Suitable for tests and
// single-run capture sessions; nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions []capture.Session
}

func NewStore() *Store { return &Store{} }

func (s *Store) Sessions(ctx context.Context) ([]capture.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.sessions), nil
}

func (s *Store) Replace(ctx context.Context, sessions []capture.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = clone(sessions)
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	return nil
}

func clone(sessions []capture.Session) []capture.Session {
	out := make([]capture.Session, len(sessions))
	for i, sess := range sessions {
		out[i] = sess
		out[i].Pages = append([]capture.Visit(nil), sess.Pages...)
	}
	return out
}
