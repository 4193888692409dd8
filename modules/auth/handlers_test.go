package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Service, http.Handler) {
	t.Helper()
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	r.Use(svc.LoadSession)
	svc.RegisterRoutes(r)
	r.With(RequireUser).Get("/private", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return svc, r
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "folio.sid" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHandlers_LoginFlow(t *testing.T) {
	_, h := newTestRouter(t)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"admin","password":"correct horse"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = do(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "admin", user["username"])
	assert.NotContains(t, user, "password")

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookie)
	rec = do(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusOK, do(h, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusNoContent, do(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, do(h, req).Code)
}

func TestHandlers_LoginForm(t *testing.T) {
	_, h := newTestRouter(t)

	form := url.Values{"username": {"admin"}, "password": {"correct horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	sessionCookie(t, rec)
}

func TestHandlers_LoginErrors(t *testing.T) {
	_, h := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrong password", body: `{"username":"admin","password":"nope"}`, want: http.StatusUnauthorized},
		{name: "missing fields", body: `{"username":"admin"}`, want: http.StatusBadRequest},
		{name: "invalid json", body: `{`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			assert.Equal(t, tt.want, do(h, req).Code)
		})
	}
}

func TestHandlers_UnknownSessionCookieIsCleared(t *testing.T) {
	_, h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(&http.Cookie{Name: "folio.sid", Value: "forged"})
	rec := do(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
}

func TestHandlers_Register(t *testing.T) {
	svc, h := newTestRouter(t)

	body := `{"username":"editor","password":"long enough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	assert.Equal(t, http.StatusForbidden, do(h, req).Code)

	svc.config.AllowRegistration = true
	req = httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rec := do(h, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	sessionCookie(t, rec)

	req = httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, do(h, req).Code)
}
