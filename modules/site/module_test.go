package site

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/chimux"
	"github.com/GoCodeAlone/folio/modules/content"
)

func TestModule_ServesPages(t *testing.T) {
	app := folio.NewStdApplication(nil, testLogger())
	router := chimux.NewChiMuxModule()
	app.RegisterModule(router)
	app.RegisterModule(content.NewModule())
	app.RegisterModule(auth.NewModule())
	app.RegisterModule(NewModule())

	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Stop() })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Graphic Era Hill University")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestConfig_Validate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "layout.html")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	cfg := &Config{TemplatesDir: file}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &Config{TemplatesDir: filepath.Join(t.TempDir(), "missing")}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &Config{TemplatesDir: t.TempDir()}
	require.NoError(t, cfg.Validate())
	assert.EqualValues(t, 1<<20, cfg.MaxFormBytes)
}
