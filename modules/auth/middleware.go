package auth

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// LoadSession attaches the session's user to the request context when the
// request carries a live session cookie. It never rejects a request.
func (s *Service) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.Session.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.CurrentUser(r.Context(), cookie.Value)
		switch {
		case err == nil:
			r = r.WithContext(WithUser(r.Context(), user))
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrUserNotFound):
			s.ClearSessionCookie(w)
		default:
			s.logger.Error("Failed to load session", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie writes the session cookie for session.
func (s *Service) SetSessionCookie(w http.ResponseWriter, session *Session) {
	cfg := s.config.Session
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    session.ID,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  session.ExpiresAt,
		MaxAge:   int(cfg.MaxAge / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.sameSite(),
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func (s *Service) ClearSessionCookie(w http.ResponseWriter) {
	cfg := s.config.Session
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.sameSite(),
	})
}

// SessionID returns the session cookie value of r.
func (s *Service) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.config.Session.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// MetaFromRequest captures the client address and agent of r.
func MetaFromRequest(r *http.Request) SessionMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return SessionMeta{IPAddress: ip, UserAgent: r.UserAgent()}
}
