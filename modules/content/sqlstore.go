package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/database"
)

// Migrations create the sqlite schema. id_sequence holds the shared id
// counter and the project order counter.
var Migrations = []database.Migration{
	{
		ID: "0001_content_schema",
		SQL: `
CREATE TABLE id_sequence (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
INSERT INTO id_sequence (name, value) VALUES ('id', 0), ('project_order', 0);

CREATE TABLE users (
	id       INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
);

CREATE TABLE sections (
	id        INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	content   TEXT NOT NULL,
	is_public INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE projects (
	id          INTEGER PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	image_url   TEXT NOT NULL,
	link        TEXT,
	sort_order  INTEGER NOT NULL
);
CREATE INDEX projects_sort_order ON projects (sort_order, id);`,
	},
}

// SQLStore persists content in a database/sql connection managed by the
// database module.
type SQLStore struct {
	db  *database.Service
	sql *sql.DB
}

var _ Storage = (*SQLStore)(nil)

// NewSQLStore migrates the schema and returns the store.
func NewSQLStore(ctx context.Context, db *database.Service) (*SQLStore, error) {
	if _, err := db.Migrate(ctx, Migrations); err != nil {
		return nil, fmt.Errorf("content migrations: %w", err)
	}
	return &SQLStore{db: db, sql: db.DB()}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nextValue(ctx context.Context, tx *sql.Tx, sequence string) (int, error) {
	var v int
	err := tx.QueryRowContext(ctx, `UPDATE id_sequence SET value = value + 1 WHERE name = ? RETURNING value`, sequence).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", sequence, err)
	}
	return v, nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int) (*auth.User, error) {
	u, err := scanUser(s.sql.QueryRowContext(ctx, `SELECT id, username, password FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, userNotFound())
	}
	return u, err
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	u, err := scanUser(s.sql.QueryRowContext(ctx, `SELECT id, username, password FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, userNotFound())
	}
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, user auth.User) (*auth.User, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`, user.Username).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %q", auth.ErrUserAlreadyExists, user.Username)
		}
		id, err := nextValue(ctx, tx, "id")
		if err != nil {
			return err
		}
		user.ID = id
		_, err = tx.ExecContext(ctx, `INSERT INTO users (id, username, password) VALUES (?, ?, ?)`, user.ID, user.Username, user.Password)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func scanSection(row rowScanner) (*Section, error) {
	var sec Section
	var content string
	if err := row.Scan(&sec.ID, &sec.Name, &content, &sec.IsPublic); err != nil {
		return nil, err
	}
	sec.Content = []byte(content)
	return &sec, nil
}

func (s *SQLStore) GetSections(ctx context.Context) ([]Section, error) {
	rows, err := s.sql.QueryContext(ctx, `SELECT id, name, content, is_public FROM sections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	out := []Section{}
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, *sec)
	}
	return out, rows.Err()
}

func (s *SQLStore) getSection(ctx context.Context, q queryRower, id int) (*Section, error) {
	sec, err := scanSection(q.QueryRowContext(ctx, `SELECT id, name, content, is_public FROM sections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("section %d: %w", id, ErrNotFound)
	}
	return sec, err
}

func (s *SQLStore) GetSection(ctx context.Context, id int) (*Section, error) {
	return s.getSection(ctx, s.sql, id)
}

func (s *SQLStore) CreateSection(ctx context.Context, in SectionInsert) (*Section, error) {
	sec := Section{Name: in.Name, Content: cloneRaw(in.Content), IsPublic: isPublic(in)}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextValue(ctx, tx, "id")
		if err != nil {
			return err
		}
		sec.ID = id
		_, err = tx.ExecContext(ctx, `INSERT INTO sections (id, name, content, is_public) VALUES (?, ?, ?, ?)`,
			sec.ID, sec.Name, string(sec.Content), sec.IsPublic)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	return &sec, nil
}

func (s *SQLStore) UpdateSection(ctx context.Context, id int, patch SectionPatch, check SectionCheck) (*Section, error) {
	var updated Section
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getSection(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = existing.apply(patch)
		if check != nil {
			if err := check(updated); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `UPDATE sections SET name = ?, content = ?, is_public = ? WHERE id = ?`,
			updated.Name, string(updated.Content), updated.IsPublic, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *SQLStore) DeleteSection(ctx context.Context, id int) error {
	if _, err := s.sql.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete section %d: %w", id, err)
	}
	return nil
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var link sql.NullString
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &link, &p.Order); err != nil {
		return nil, err
	}
	if link.Valid {
		p.Link = &link.String
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

const projectColumns = `id, title, description, image_url, link, sort_order`

func (s *SQLStore) GetProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.sql.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *SQLStore) getProject(ctx context.Context, q queryRower, id int) (*Project, error) {
	p, err := scanProject(q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *SQLStore) GetProject(ctx context.Context, id int) (*Project, error) {
	return s.getProject(ctx, s.sql, id)
}

func (s *SQLStore) CreateProject(ctx context.Context, in ProjectInsert) (*Project, error) {
	p := Project{Title: in.Title, Description: in.Description, ImageURL: in.ImageURL, Link: cloneString(in.Link)}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextValue(ctx, tx, "id")
		if err != nil {
			return err
		}
		p.ID = id
		if in.Order != nil {
			p.Order = *in.Order
		} else if p.Order, err = nextValue(ctx, tx, "project_order"); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Description, p.ImageURL, nullString(p.Link), p.Order)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *SQLStore) UpdateProject(ctx context.Context, id int, patch ProjectPatch, check ProjectCheck) (*Project, error) {
	var updated Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getProject(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = existing.apply(patch)
		if check != nil {
			if err := check(updated); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `UPDATE projects SET title = ?, description = ?, image_url = ?, link = ?, sort_order = ? WHERE id = ?`,
			updated.Title, updated.Description, updated.ImageURL, nullString(updated.Link), updated.Order, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *SQLStore) DeleteProject(ctx context.Context, id int) error {
	if _, err := s.sql.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return nil
}
