package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	// sqlite driver, registered as "sqlite"
	_ "modernc.org/sqlite"

	"github.com/GoCodeAlone/folio"
)

// Service is one named database connection.
type Service struct {
	name   string
	config ConnectionConfig
	db     *sql.DB
	logger folio.Logger
	emit   func(ctx context.Context, eventType string, data map[string]any)
}

func newService(name string, config ConnectionConfig, logger folio.Logger) *Service {
	return &Service{name: name, config: config, logger: logger}
}

// Open connects a standalone Service outside the module, for tools and
// tests.
func Open(ctx context.Context, name string, config ConnectionConfig, logger folio.Logger) (*Service, error) {
	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	svc := newService(name, config, logger)
	if err := svc.Connect(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// Connect opens the pool. Sqlite pragmas travel in the DSN so every
// pooled connection gets them, not only the first.
func (s *Service) Connect(ctx context.Context) error {
	dsn := s.config.DSN
	if s.config.Driver == "sqlite" {
		dsn = sqliteDSN(dsn, s.config.Pragmas)
	}
	db, err := sql.Open(s.config.Driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.name, err)
	}

	if s.config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(s.config.MaxOpenConnections)
	}
	if s.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(s.config.MaxIdleConnections)
	}
	if s.config.ConnectionMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.config.ConnectionMaxLifetime)
	}
	if s.config.ConnectionMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(s.config.ConnectionMaxIdleTime)
	}

	// The pool is lazy; ping so a bad path or pragma fails here.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("connect %s: %w", s.name, err)
	}

	s.db = db
	s.logger.Info("Database connected", "connection", s.name, "driver", s.config.Driver)
	s.emitEvent(ctx, EventTypeConnected, map[string]any{"connection": s.name, "driver": s.config.Driver})
	return nil
}

// sqliteDSN appends pragmas as _pragma query parameters, which the driver
// runs on each new connection. "name=value" becomes "name(value)".
func sqliteDSN(dsn string, pragmas []string) string {
	if len(pragmas) == 0 {
		return dsn
	}
	params := make([]string, 0, len(pragmas))
	for _, pragma := range pragmas {
		pragma = strings.TrimSpace(pragma)
		if pragma == "" {
			continue
		}
		if name, value, ok := strings.Cut(pragma, "="); ok {
			pragma = strings.TrimSpace(name) + "(" + strings.TrimSpace(value) + ")"
		}
		params = append(params, "_pragma="+url.QueryEscape(pragma))
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func (s *Service) Name() string {
	return s.name
}

// DB returns the pool, or nil before Connect.
func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDatabaseNotConnected
	}
	return s.db.PingContext(ctx)
}

func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	if s.config.Driver == "sqlite" && strings.Contains(strings.Join(s.config.Pragmas, " "), "journal_mode=WAL") {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Service) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if s.emit != nil {
		s.emit(ctx, eventType, data)
	}
}
