package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "test", database.ConnectionConfig{
		DSN:     filepath.Join(t.TempDir(), "folio.db"),
		Pragmas: []string{"journal_mode=WAL", "busy_timeout=5000"},
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLStore(ctx, db)
	require.NoError(t, err)
	return store
}

// forEachStore runs fn against every Storage implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store Storage)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

func ptr[T any](v T) *T { return &v }

func TestStorage_SharedIDSequence(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Storage) {
		ctx := context.Background()

		u, err := store.CreateUser(ctx, auth.User{Username: "admin", Password: "hash"})
		require.NoError(t, err)
		sec, err := store.CreateSection(ctx, SectionInsert{Name: "hero", Content: json.RawMessage(`{"title":"x"}`)})
		require.NoError(t, err)
		p, err := store.CreateProject(ctx, ProjectInsert{Title: "A", Description: "B", ImageURL: "https://img"})
		require.NoError(t, err)

		assert.Equal(t, 1, u.ID)
		assert.Equal(t, 2, sec.ID)
		assert.Equal(t, 3, p.ID)
	})
}

func TestStorage_Users(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Storage) {
		ctx := context.Background()

		created, err := store.CreateUser(ctx, auth.User{Username: "admin", Password: "hash"})
		require.NoError(t, err)

		byID, err := store.GetUser(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin", byID.Username)
		assert.Equal(t, "hash", byID.Password)

		byName, err := store.GetUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byName.ID)

		_, err = store.CreateUser(ctx, auth.User{Username: "admin", Password: "other"})
		assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)

		_, err = store.GetUser(ctx, 999)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestStorage_Sections(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Storage) {
		ctx := context.Background()

		hero, err := store.CreateSection(ctx, SectionInsert{Name: "hero", Content: json.RawMessage(`{"title":"Hi"}`)})
		require.NoError(t, err)
		assert.True(t, hero.IsPublic, "isPublic defaults to true")

		draft, err := store.CreateSection(ctx, SectionInsert{Name: "draft", Content: json.RawMessage(`[]`), IsPublic: ptr(false)})
		require.NoError(t, err)
		assert.False(t, draft.IsPublic)

		all, err := store.GetSections(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, []int{hero.ID, draft.ID}, []int{all[0].ID, all[1].ID})

		updated, err := store.UpdateSection(ctx, hero.ID, SectionPatch{Content: Some(json.RawMessage(`{"title":"Hello"}`))}, nil)
		require.NoError(t, err)
		assert.Equal(t, "hero", updated.Name, "absent fields are unchanged")
		assert.JSONEq(t, `{"title":"Hello"}`, string(updated.Content))
		assert.True(t, updated.IsPublic)

		got, err := store.GetSection(ctx, hero.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"Hello"}`, string(got.Content))

		_, err = store.UpdateSection(ctx, 999, SectionPatch{Name: Some("x")}, nil)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.DeleteSection(ctx, hero.ID))
		require.NoError(t, store.DeleteSection(ctx, hero.ID), "deleting twice succeeds")
		_, err = store.GetSection(ctx, hero.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_UpdateCheckAborts(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Storage) {
		ctx := context.Background()
		rejected := errors.New("rejected")

		sec, err := store.CreateSection(ctx, SectionInsert{Name: "about", Content: json.RawMessage(`{"text":"v1"}`)})
		require.NoError(t, err)

		var seen Section
		_, err = store.UpdateSection(ctx, sec.ID, SectionPatch{Name: Some("hero")}, func(merged Section) error {
			seen = merged
			return rejected
		})
		assert.ErrorIs(t, err, rejected)
		assert.Equal(t, "hero", seen.Name, "the check sees the merged section")
		assert.JSONEq(t, `{"text":"v1"}`, string(seen.Content))

		got, err := store.GetSection(ctx, sec.ID)
		require.NoError(t, err)
		assert.Equal(t, "about", got.Name, "a rejected update is not stored")

		p, err := store.CreateProject(ctx, ProjectInsert{Title: "First", Description: "d", ImageURL: "https://a"})
		require.NoError(t, err)
		_, err = store.UpdateProject(ctx, p.ID, ProjectPatch{Title: Some("Renamed")}, func(merged Project) error {
			assert.Equal(t, "Renamed", merged.Title)
			return rejected
		})
		assert.ErrorIs(t, err, rejected)

		gotProject, err := store.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "First", gotProject.Title)
	})
}

func TestStorage_Projects(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Storage) {
		ctx := context.Background()

		first, err := store.CreateProject(ctx, ProjectInsert{Title: "First", Description: "d", ImageURL: "https://a", Link: ptr("https://a.dev")})
		require.NoError(t, err)
		second, err := store.CreateProject(ctx, ProjectInsert{Title: "Second", Description: "d", ImageURL: "https://b"})
		require.NoError(t, err)
		pinned, err := store.CreateProject(ctx, ProjectInsert{Title: "Pinned", Description: "d", ImageURL: "https://c", Order: ptr(0)})
		require.NoError(t, err)

		assert.Equal(t, 1, first.Order)
		assert.Equal(t, 2, second.Order)
		assert.Nil(t, second.Link)

		list, err := store.GetProjects(ctx)
		require.NoError(t, err)
		titles := make([]string, 0, len(list))
		for _, p := range list {
			titles = append(titles, p.Title)
		}
		assert.Equal(t, []string{"Pinned", "First", "Second"}, titles)

		updated, err := store.UpdateProject(ctx, first.ID, ProjectPatch{Link: Null[string](), Title: Some("Renamed")}, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.Link, "explicit null clears the link")
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "https://a", updated.ImageURL)
		assert.Equal(t, first.ID, updated.ID)

		_, err = store.UpdateProject(ctx, 999, ProjectPatch{Title: Some("x")}, nil)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.DeleteProject(ctx, pinned.ID))
		require.NoError(t, store.DeleteProject(ctx, 999))
		list, err = store.GetProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	p, err := store.CreateProject(ctx, ProjectInsert{Title: "T", Description: "d", ImageURL: "https://a", Link: ptr("https://x")})
	require.NoError(t, err)

	*p.Link = "mutated"
	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://x", *got.Link)
}

func TestSQLStore_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, "test", database.ConnectionConfig{DSN: filepath.Join(t.TempDir(), "folio.db")}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = NewSQLStore(ctx, db)
	require.NoError(t, err)
	_, err = NewSQLStore(ctx, db)
	require.NoError(t, err)

	applied, err := db.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_content_schema"}, applied)
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var patch ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"New","link":null}`), &patch))

	assert.True(t, patch.Title.Set)
	assert.Equal(t, "New", *patch.Title.Value)
	assert.True(t, patch.Link.Set)
	assert.Nil(t, patch.Link.Value)
	assert.False(t, patch.Description.Set)
}
