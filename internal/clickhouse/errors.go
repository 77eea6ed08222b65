package clickhouse

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id lookup matches no record.
var ErrNotFound = errors.New("query log not found")

// ValidationError marks caller-supplied input that failed validation. It is
// raised before any store call is issued.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps a failure from the ClickHouse store: connectivity, timeout
// or query execution. Op names the operation, never the query text, so bound
// filter values cannot leak into logs.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("clickhouse %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// SchemaDriftError means a result value's runtime shape disagrees with the
// column registry's declared kind. It indicates the registry is stale
// relative to the live store schema and is never silently coerced.
type SchemaDriftError struct {
	Column string
	Want   string
}

func (e *SchemaDriftError) Error() string {
	return fmt.Sprintf("column %s: store value does not decode as %s (registry out of date with store schema)", e.Column, e.Want)
}
