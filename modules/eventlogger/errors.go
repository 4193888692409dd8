package eventlogger

import "errors"

var (
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidFormat     = errors.New("invalid log format")
	ErrInvalidOutputType = errors.New("invalid output type")
	ErrMissingFilePath   = errors.New("missing file path for file output")

	ErrLoggerNotStarted = errors.New("event logger not started")
	ErrEventBufferFull  = errors.New("event buffer is full")
	ErrFileNotOpen      = errors.New("file not open")
)
