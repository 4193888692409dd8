package site

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/content"
	"github.com/GoCodeAlone/folio/modules/jsonschema"
)

const (
	adminUser     = "admin"
	adminPassword = "correct horse"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testSite struct {
	basePath string
	handler  http.Handler
	content  *content.Service
	auth     *auth.Service
}

// newTestSite wires a site over an in-memory store holding one admin
// account and, when seed is set, the default sections.
func newTestSite(t *testing.T, seed bool) *testSite {
	t.Helper()
	return newTestSiteAt(t, seed, "")
}

// newTestSiteAt serves the site under basePath the way chimux does, by
// stripping the prefix before routing.
func newTestSiteAt(t *testing.T, seed bool, basePath string) *testSite {
	t.Helper()
	ctx := context.Background()
	store := content.NewMemoryStore()

	var sections []content.SectionInsert
	if seed {
		var err error
		sections, err = content.DefaultSections()
		require.NoError(t, err)
	}
	seeder := &content.Seeder{
		Store:    store,
		Admin:    content.AdminConfig{Username: adminUser, Password: adminPassword},
		Sections: sections,
		Logger:   testLogger(),
	}
	_, err := seeder.Seed(ctx)
	require.NoError(t, err)

	validator, err := content.NewValidator(jsonschema.NewJSONSchemaService())
	require.NoError(t, err)
	contentSvc := content.NewService(store, validator, testLogger())

	authCfg := &auth.Config{
		Session: auth.SessionConfig{
			Store:      "memory",
			CookieName: "folio.sid",
			MaxAge:     time.Hour,
			SameSite:   "lax",
			Path:       "/",
		},
		Password: auth.PasswordConfig{Algorithm: "scrypt", MinLength: 8, BcryptCost: 4},
	}
	authSvc, err := auth.NewService(authCfg, store, auth.NewMemorySessionStore(), testLogger())
	require.NoError(t, err)

	renderer, err := NewRenderer(embeddedFS())
	require.NoError(t, err)

	cfg := &Config{Title: "Test Portfolio", Background: "https://img.example/bg.png", MaxFormBytes: 1 << 20}
	r := chi.NewRouter()
	r.Use(authSvc.LoadSession)
	NewHandler(cfg, contentSvc, authSvc, renderer, testLogger()).WithBasePath(basePath).RegisterRoutes(r)

	var handler http.Handler = r
	if basePath != "" {
		handler = http.StripPrefix(basePath, r)
	}
	return &testSite{basePath: basePath, handler: handler, content: contentSvc, auth: authSvc}
}

func (s *testSite) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testSite) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// login signs in through the form and returns the session cookie.
func (s *testSite) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := s.post(s.basePath+"/auth", url.Values{"username": {adminUser}, "password": {adminPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "folio.sid" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}
