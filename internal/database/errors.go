// Package database connects to relational databases, discovers their
// schemas, and executes validated read-only queries. The connection string
// is treated as opaque: it is normalized just enough to pick a driver and
// otherwise handed to database/sql unparsed.
package database

import (
	"errors"
	"fmt"
)

// ErrEmptyConnection is returned when the connection string is missing.
var ErrEmptyConnection = errors.New("connection string cannot be empty")

// ConnectionError reports that the database could not be reached or its
// metadata could not be read. The wrapped error never includes the
// connection string itself, so credentials cannot leak into responses.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExecutionError reports that a syntactically valid generated query failed
// at the database (unknown column, type mismatch, and so on). The underlying
// database message is preserved for the caller.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
