package auth

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/folio/internal/httpx"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRoutes mounts the login endpoints under /api.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)
	r.Get("/api/user", s.handleUser)
	r.Post("/api/register", s.handleRegister)
}

func (s *Service) readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return c, err
		}
		c.Username = r.PostFormValue("username")
		c.Password = r.PostFormValue("password")
		return c, nil
	}
	err := httpx.DecodeJSON(w, r, s.config.MaxBodyBytes, &c)
	return c, err
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := s.readCredentials(w, r)
	if err != nil || c.Username == "" || c.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "username and password are required")
		return
	}

	user, session, err := s.Login(r.Context(), c.Username, c.Password, MetaFromRequest(r))
	if errors.Is(err, ErrInvalidCredentials) {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		s.logger.Error("Login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "login failed")
		return
	}

	s.SetSessionCookie(w, session)
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.SessionID(r); id != "" {
		if err := s.DeleteSession(r.Context(), id); err != nil {
			s.logger.Error("Logout failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "logout failed")
			return
		}
	}
	s.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleUser(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.config.AllowRegistration {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeSignupDisabled, "registration is disabled")
		return
	}
	c, err := s.readCredentials(w, r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid request body")
		return
	}

	user, session, err := s.Register(r.Context(), c.Username, c.Password, MetaFromRequest(r))
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeConflict, "Username already exists")
		return
	case errors.Is(err, ErrPasswordTooWeak), errors.Is(err, ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("Registration failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "registration failed")
		return
	}

	s.SetSessionCookie(w, session)
	httpx.WriteJSON(w, http.StatusCreated, user)
}
