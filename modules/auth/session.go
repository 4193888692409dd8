package auth

import (
	"context"
	"sync"
	"time"
)

// Session is a signed-in browser session.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions.
type SessionStore interface {
	Store(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	// Cleanup removes expired sessions and returns how many it removed.
	Cleanup(ctx context.Context) (int, error)
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Store(_ context.Context, session *Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) Cleanup(_ context.Context) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if session.expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
