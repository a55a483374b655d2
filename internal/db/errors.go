package db

import "fmt"

// ConnectionError indicates the database catalog could not be reached.
// Connection failures are fatal; callers abort immediately rather than retry.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError indicates a specific catalog query failed. Query names the
// failing query so an operator can tell which part of the catalog was
// unreadable. A failed sub-query aborts the whole introspection; a partial
// snapshot is never returned.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("catalog query %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
