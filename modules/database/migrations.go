package database

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"
)

const migrationsTable = "schema_migrations"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Migration is one schema change. IDs are applied once, in the order given.
type Migration struct {
	ID  string
	SQL string
}

func (s *Service) createMigrationsTable(ctx context.Context) error {
	if !tableNamePattern.MatchString(migrationsTable) {
		return ErrInvalidTableName
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, migrationsTable))
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// AppliedMigrations lists applied migration IDs in application order.
func (s *Service) AppliedMigrations(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrDatabaseNotConnected
	}
	if err := s.createMigrationsTable(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY applied_at, rowid", migrationsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Migrate applies every migration not yet recorded, each in its own
// transaction, and returns how many ran.
func (s *Service) Migrate(ctx context.Context, migrations []Migration) (int, error) {
	applied, err := s.AppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, m := range migrations {
		if slices.Contains(applied, m.ID) {
			continue
		}
		if err := s.runMigration(ctx, m); err != nil {
			return ran, err
		}
		ran++
	}
	return ran, nil
}

func (s *Service) runMigration(ctx context.Context, m Migration) (err error) {
	start := time.Now()
	s.emitEvent(ctx, EventTypeMigrationStarted, map[string]any{"migration_id": m.ID})
	defer func() {
		if err != nil {
			s.emitEvent(ctx, EventTypeMigrationFailed, map[string]any{
				"migration_id": m.ID,
				"error":        err.Error(),
				"duration_ms":  time.Since(start).Milliseconds(),
			})
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.ID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.ID, err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (id) VALUES (?)", migrationsTable), m.ID); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.ID, err)
	}

	s.logger.Info("Applied migration", "connection", s.name, "migration", m.ID)
	s.emitEvent(ctx, EventTypeMigrationCompleted, map[string]any{
		"migration_id": m.ID,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}
