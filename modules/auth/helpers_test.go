package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[int]User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{nextID: 1, users: make(map[int]User)}
}

func (s *memoryUsers) GetUser(_ context.Context, id int) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *memoryUsers) GetUserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memoryUsers) CreateUser(_ context.Context, u User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return nil, ErrUserAlreadyExists
		}
	}
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = u
	return &u, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Store:           "memory",
			KeyPrefix:       "test:session:",
			CookieName:      "folio.sid",
			MaxAge:          24 * time.Hour,
			SameSite:        "lax",
			Path:            "/",
			CleanupSchedule: "@daily",
		},
		Password:     PasswordConfig{Algorithm: "scrypt", MinLength: 8, BcryptCost: 4},
		MaxBodyBytes: 1 << 16,
	}
}

// newTestService returns a service with one user "admin" / "correct horse".
func newTestService(t *testing.T) (*Service, *memoryUsers) {
	t.Helper()
	users := newMemoryUsers()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	_, err = users.CreateUser(context.Background(), User{Username: "admin", Password: hash})
	require.NoError(t, err)

	svc, err := NewService(testConfig(), users, NewMemorySessionStore(), testLogger())
	require.NoError(t, err)
	return svc, users
}
