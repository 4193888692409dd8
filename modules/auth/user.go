package auth

import (
	"context"
	"net/http"

	"github.com/GoCodeAlone/folio/internal/httpx"
)

// User is an account that may sign in. Password holds the hash and is never
// serialized.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// UserStore is the persistence the auth service needs for accounts.
type UserStore interface {
	GetUser(ctx context.Context, id int) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// CreateUser stores a user whose Password is already hashed and returns
	// it with its assigned ID.
	CreateUser(ctx context.Context, user User) (*User, error)
}

type userKey struct{}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the signed-in user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey{}).(*User)
	return u, ok && u != nil
}

// RequireUser answers 401 unless the request carries a signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
