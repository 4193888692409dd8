package auth

import "errors"

var (
	ErrInvalidConfig         = errors.New("invalid auth configuration")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrPasswordTooWeak       = errors.New("password does not meet requirements")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionExpired        = errors.New("session has expired")
	ErrRegistrationDisabled  = errors.New("registration is disabled")
	ErrMalformedHash         = errors.New("malformed password hash")
	ErrUserStoreNotInterface = errors.New("content.storage service does not implement UserStore")
	ErrRouterNotChi          = errors.New("chi.router service does not implement chi.Router")
	ErrUnsupportedStore      = errors.New("unsupported session store")
	ErrUnsupportedAlgorithm  = errors.New("unsupported password algorithm")
)
