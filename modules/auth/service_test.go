package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "redis without url", mutate: func(c *Config) { c.Session.Store = "redis" }, wantErr: ErrInvalidConfig},
		{name: "unknown store", mutate: func(c *Config) { c.Session.Store = "etcd" }, wantErr: ErrUnsupportedStore},
		{name: "zero max age", mutate: func(c *Config) { c.Session.MaxAge = 0 }, wantErr: ErrInvalidConfig},
		{name: "unknown algorithm", mutate: func(c *Config) { c.Password.Algorithm = "argon2" }, wantErr: ErrUnsupportedAlgorithm},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Password.BcryptCost = 40 }, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Login(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, session, err := svc.Login(ctx, "admin", "correct horse", SessionMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Len(t, session.ID, 64)
	assert.Equal(t, "10.0.0.1", session.IPAddress)

	current, err := svc.CurrentUser(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	_, _, err = svc.Login(ctx, "admin", "wrong", SessionMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "correct horse", SessionMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_SessionExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, session, err := svc.Login(ctx, "admin", "correct horse", SessionMeta{})
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }
	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "expired sessions are deleted on access")
}

type failingDeleteStore struct {
	*MemorySessionStore
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

type warnRecorder struct {
	*slog.Logger
	warnings []string
}

func (r *warnRecorder) Warn(msg string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprint(append([]any{msg}, args...)...))
}

func TestService_SessionExpiryDeleteFailureIsLogged(t *testing.T) {
	users := newMemoryUsers()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	_, err = users.CreateUser(context.Background(), User{Username: "admin", Password: hash})
	require.NoError(t, err)

	logger := &warnRecorder{Logger: testLogger()}
	svc, err := NewService(testConfig(), users, failingDeleteStore{NewMemorySessionStore()}, logger)
	require.NoError(t, err)
	ctx := context.Background()

	_, session, err := svc.Login(ctx, "admin", "correct horse", SessionMeta{})
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }
	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "Failed to delete expired session")
	assert.Contains(t, logger.warnings[0], "store unavailable")
}

func TestService_DeleteSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, session, err := svc.Login(ctx, "admin", "correct horse", SessionMeta{})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSession(ctx, session.ID))
	require.NoError(t, svc.DeleteSession(ctx, "unknown"))

	_, err = svc.CurrentUser(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_Register(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "editor", "long enough", SessionMeta{})
	assert.ErrorIs(t, err, ErrRegistrationDisabled)

	svc.config.AllowRegistration = true

	_, _, err = svc.Register(ctx, "editor", "short", SessionMeta{})
	assert.ErrorIs(t, err, ErrPasswordTooWeak)

	_, _, err = svc.Register(ctx, "admin", "long enough", SessionMeta{})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	user, session, err := svc.Register(ctx, "editor", "long enough", SessionMeta{})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, session.ID)

	stored, err := users.GetUserByUsername(ctx, "editor")
	require.NoError(t, err)
	assert.NotEqual(t, "long enough", stored.Password)
	ok, err := ComparePasswords(stored.Password, "long enough")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_CleanupSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, session, err := svc.Login(ctx, "admin", "correct horse", SessionMeta{})
	require.NoError(t, err)

	store := svc.sessions.(*MemorySessionStore)
	store.now = func() time.Time { return session.ExpiresAt.Add(time.Minute) }
	require.NoError(t, svc.CleanupSessions(ctx))

	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

type fixedStrategy struct{ user *User }

func (fixedStrategy) Name() string { return "fixed" }
func (f fixedStrategy) Authenticate(context.Context, string, string) (*User, error) {
	return f.user, nil
}

func TestService_SetStrategy(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetStrategy(fixedStrategy{user: &User{ID: 99, Username: "sso"}})

	user, _, err := svc.Login(context.Background(), "anything", "anything", SessionMeta{})
	require.NoError(t, err)
	assert.Equal(t, 99, user.ID)
}
