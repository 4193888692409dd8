package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GoCodeAlone/folio"
)

// Strategy authenticates a username and password pair.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

// LocalStrategy checks credentials against a UserStore.
type LocalStrategy struct {
	Users UserStore
}

func (LocalStrategy) Name() string {
	return "local"
}

func (l LocalStrategy) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := l.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := ComparePasswords(user.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SessionMeta records where a session was opened from.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// Service implements the session login flow.
type Service struct {
	config   *Config
	users    UserStore
	sessions SessionStore
	hasher   PasswordHasher
	strategy Strategy
	logger   folio.Logger
	subject  folio.Subject
	now      func() time.Time
}

func NewService(config *Config, users UserStore, sessions SessionStore, logger folio.Logger) (*Service, error) {
	hasher, err := NewHasher(config.Password)
	if err != nil {
		return nil, err
	}
	return &Service{
		config:   config,
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		strategy: LocalStrategy{Users: users},
		logger:   logger,
		now:      time.Now,
	}, nil
}

// SetStrategy replaces the credential strategy.
func (s *Service) SetStrategy(strategy Strategy) {
	s.strategy = strategy
}

func (s *Service) SetSubject(subject folio.Subject) {
	s.subject = subject
}

func (s *Service) Config() *Config {
	return s.config
}

func (s *Service) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if s.subject == nil {
		return
	}
	event := folio.NewCloudEvent(eventType, "auth-service", data, nil)
	if err := s.subject.NotifyObservers(ctx, event); err != nil {
		s.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}

// HashPassword hashes password with the configured algorithm.
func (s *Service) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}

// Login authenticates the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string, meta SessionMeta) (*User, *Session, error) {
	user, err := s.strategy.Authenticate(ctx, username, password)
	if err != nil {
		s.emitEvent(ctx, EventTypeLoginFailed, map[string]any{
			"username": username,
			"strategy": s.strategy.Name(),
			"ip":       meta.IPAddress,
		})
		return nil, nil, err
	}

	session, err := s.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("User logged in", "userID", user.ID, "username", user.Username)
	s.emitEvent(ctx, EventTypeLoginSucceeded, map[string]any{"userID": user.ID, "username": user.Username})
	return user, session, nil
}

// Register creates a user when registration is enabled and opens a session
// for it.
func (s *Service) Register(ctx context.Context, username, password string, meta SessionMeta) (*User, *Session, error) {
	if !s.config.AllowRegistration {
		return nil, nil, ErrRegistrationDisabled
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	}
	if len(password) < s.config.Password.MinLength {
		return nil, nil, fmt.Errorf("%w: at least %d characters", ErrPasswordTooWeak, s.config.Password.MinLength)
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.CreateUser(ctx, User{Username: username, Password: hash})
	if err != nil {
		return nil, nil, err
	}
	s.emitEvent(ctx, EventTypeUserRegistered, map[string]any{"userID": user.ID, "username": user.Username})

	session, err := s.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *Service) CreateSession(ctx context.Context, userID int, meta SessionMeta) (*Session, error) {
	id, err := generateRandomID(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.Session.MaxAge),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.sessions.Store(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.emitEvent(ctx, EventTypeSessionCreated, map[string]any{
		"userID":    userID,
		"expiresAt": session.ExpiresAt,
	})
	return session, nil
}

// GetSession returns a live session. Expired sessions are deleted and
// reported as ErrSessionExpired.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.expired(s.now()) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to delete expired session", "error", err)
		}
		s.emitEvent(ctx, EventTypeSessionExpired, map[string]any{"userID": session.UserID})
		return nil, ErrSessionExpired
	}
	return session, nil
}

// DeleteSession removes a session. Deleting an unknown session succeeds.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	var userID int
	if session, err := s.sessions.Get(ctx, sessionID); err == nil {
		userID = session.UserID
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	s.emitEvent(ctx, EventTypeSessionDestroyed, map[string]any{"userID": userID})
	return nil
}

// CurrentUser resolves the user owning a live session.
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*User, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("session user %d: %w", session.UserID, err)
	}
	return user, nil
}

// CleanupSessions sweeps expired sessions from the store.
func (s *Service) CleanupSessions(ctx context.Context) error {
	removed, err := s.sessions.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	if removed > 0 {
		s.logger.Info("Removed expired sessions", "count", removed)
	}
	s.emitEvent(ctx, EventTypeSessionsSwept, map[string]any{"removed": removed})
	return nil
}

func generateRandomID(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
