package database

import "errors"

var (
	ErrInvalidConfigType    = errors.New("invalid config type for database module")
	ErrMissingDSN           = errors.New("database connection missing DSN")
	ErrDatabaseNotConnected = errors.New("database not connected")
	ErrInvalidTableName     = errors.New("invalid table name")
)
