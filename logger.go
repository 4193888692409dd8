package folio

// Logger is the structured logger used throughout the application. Arguments
// are alternating key/value pairs. *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}
