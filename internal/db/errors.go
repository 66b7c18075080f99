package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrConflict means a concurrent writer kept changing the key and the
	// optimistic transaction gave up.
	ErrConflict = errors.New("db: concurrent modification")
)

// Op names used for error context.
const (
	OpSet     = "SET"
	OpAdd     = "ADD"
	OpGet     = "GET"
	OpUpdate  = "UPDATE"
	OpDelete  = "DELETE"
	OpQuery   = "QUERY"
	OpDel     = "DEL"
	OpExists  = "EXISTS"
	OpScan    = "SCAN"
	OpJSONSet = "JSON.SET"
	OpJSONGet = "JSON.GET"
	OpWatch   = "WATCH"
	OpExec    = "EXEC"
	OpPing    = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
