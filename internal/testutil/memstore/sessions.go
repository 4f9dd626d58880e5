package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/khoahotran/talent-forge/internal/domain/session"
)

type pendingEntry struct {
	p         session.Pending
	expiresAt time.Time
}

// Pending is an expiring session.PendingStore. Now may be replaced to move time.
type Pending struct {
	mu    sync.Mutex
	items map[string]pendingEntry
	Now   func() time.Time
}

var _ session.PendingStore = (*Pending)(nil)

func NewPending() *Pending {
	return &Pending{items: map[string]pendingEntry{}, Now: time.Now}
}

func (s *Pending) Put(_ context.Context, p session.Pending, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.Token] = pendingEntry{p: p, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *Pending) Get(_ context.Context, token string) (*session.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[token]
	if !ok || !s.Now().Before(e.expiresAt) {
		return nil, session.ErrPendingNotFound
	}
	p := e.p
	return &p, nil
}

func (s *Pending) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[token]; !ok {
		return session.ErrPendingNotFound
	}
	delete(s.items, token)
	return nil
}

func (s *Pending) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type Sessions struct {
	mu    sync.Mutex
	items map[string]session.Session
	Now   func() time.Time
}

var _ session.Store = (*Sessions)(nil)

func NewSessions() *Sessions {
	return &Sessions{items: map[string]session.Session{}, Now: time.Now}
}

func (s *Sessions) Create(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = sess
	return nil
}

func (s *Sessions) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	return ok && s.Now().Before(sess.ExpiresAt), nil
}

func (s *Sessions) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return session.ErrSessionNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
