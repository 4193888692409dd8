package database

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/folio"
)

type eventSink struct {
	mu    sync.Mutex
	types []string
}

func (s *eventSink) RegisterObserver(folio.Observer, ...string) error { return nil }
func (s *eventSink) UnregisterObserver(folio.Observer) error          { return nil }
func (s *eventSink) GetObservers() []folio.ObserverInfo               { return nil }
func (s *eventSink) NotifyObservers(_ context.Context, e cloudevents.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, e.Type())
	return nil
}

func newTestApp(t *testing.T, m *Module, conns map[string]ConnectionConfig) *folio.StdApplication {
	t.Helper()
	app := folio.NewStdApplication(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.RegisterModule(m)
	require.NoError(t, m.RegisterConfig(app))
	cp, err := app.GetConfigSection(Name)
	require.NoError(t, err)
	cfg := cp.GetConfig().(*Config)
	cfg.Default = "default"
	cfg.Connections = conns
	require.NoError(t, cfg.Validate())
	return app
}

func TestModule_InitConnectsAndMigrates(t *testing.T) {
	sink := &eventSink{}
	m := NewModule()
	require.NoError(t, m.RegisterObservers(sink))

	dsn := filepath.Join(t.TempDir(), "folio.db")
	app := newTestApp(t, m, map[string]ConnectionConfig{"default": {DSN: dsn}})
	require.NoError(t, m.Init(app))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	svc := m.DefaultService()
	require.NotNil(t, svc)
	assert.Equal(t, "default", svc.Name())
	require.NoError(t, m.Start(context.Background()))

	migrations := []Migration{
		{ID: "001_notes", SQL: `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL)`},
		{ID: "002_notes_title", SQL: `ALTER TABLE notes ADD COLUMN title TEXT`},
	}
	ran, err := svc.Migrate(context.Background(), migrations)
	require.NoError(t, err)
	assert.Equal(t, 2, ran)

	ran, err = svc.Migrate(context.Background(), migrations)
	require.NoError(t, err)
	assert.Zero(t, ran)

	applied, err := svc.AppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"001_notes", "002_notes_title"}, applied)

	_, err = svc.DB().Exec(`INSERT INTO notes (body, title) VALUES ('b', 't')`)
	require.NoError(t, err)

	assert.Contains(t, sink.types, EventTypeConnected)
	assert.Contains(t, sink.types, EventTypeMigrationCompleted)
}

func TestModule_FailedMigrationRollsBack(t *testing.T) {
	m := NewModule()
	app := newTestApp(t, m, map[string]ConnectionConfig{"default": {DSN: filepath.Join(t.TempDir(), "x.db")}})
	require.NoError(t, m.Init(app))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	svc := m.DefaultService()
	_, err := svc.Migrate(context.Background(), []Migration{
		{ID: "001_bad", SQL: `CREATE TABLE t (id INTEGER); THIS IS NOT SQL`},
	})
	require.Error(t, err)

	applied, err := svc.AppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestModule_NoConnections(t *testing.T) {
	m := NewModule()
	app := newTestApp(t, m, map[string]ConnectionConfig{})
	require.NoError(t, m.Init(app))
	assert.Nil(t, m.DefaultService())

	_, ok := m.Service("default")
	assert.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Connections: map[string]ConnectionConfig{"main": {}}}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDSN)

	cfg = &Config{Connections: map[string]ConnectionConfig{"main": {DSN: "file.db"}}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Connections["main"].Driver)
	assert.Contains(t, cfg.Connections["main"].Pragmas, "journal_mode=WAL")
}

func TestService_PingBeforeConnect(t *testing.T) {
	svc := newService("x", ConnectionConfig{Driver: "sqlite", DSN: "x"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, svc.Ping(context.Background()), ErrDatabaseNotConnected)
	assert.NoError(t, svc.Close())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "folio.db", sqliteDSN("folio.db", nil))
	assert.Equal(t,
		"file:folio.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%28ON%29",
		sqliteDSN("file:folio.db", []string{"busy_timeout=5000", " foreign_keys = ON "}))
	assert.Equal(t,
		"file:folio.db?mode=rwc&_pragma=wal_checkpoint",
		sqliteDSN("file:folio.db?mode=rwc", []string{"wal_checkpoint", ""}))
}

func TestService_PragmasApplyToEveryConnection(t *testing.T) {
	ctx := context.Background()
	svc, err := Open(ctx, "pool", ConnectionConfig{
		DSN:                filepath.Join(t.TempDir(), "pool.db"),
		MaxOpenConnections: 3,
		Pragmas:            []string{"journal_mode=WAL", "busy_timeout=4321", "foreign_keys=ON"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	// Holding the connections open forces the pool to dial a new one each time.
	var conns []*sql.Conn
	for range 3 {
		conn, err := svc.DB().Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	for i, conn := range conns {
		var timeout, foreignKeys int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 4321, timeout, "connection %d", i)
		assert.Equal(t, 1, foreignKeys, "connection %d", i)
		require.NoError(t, conn.Close())
	}
}

func TestService_ConnectRejectsBadPragma(t *testing.T) {
	_, err := Open(context.Background(), "bad", ConnectionConfig{
		DSN:     filepath.Join(t.TempDir(), "bad.db"),
		Pragmas: []string{"journal_mode=(("},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
