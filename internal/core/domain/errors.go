// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when a get, delete or create follow-up
	// read matches no rows.
	ErrRecordNotFound = errors.New("record not found")

	// ErrPoolExhausted is returned when no connection became available
	// within the configured acquire timeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPoolClosed is returned by acquire after the pool has been closed.
	ErrPoolClosed = errors.New("connection pool closed")

	// ErrInvalidInput marks request payloads rejected before reaching storage.
	ErrInvalidInput = errors.New("invalid input")
)

// ConnectError reports a failure to dial, handshake or authenticate a new
// database connection.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("connect: %v", e.Err)
	}
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// MissingRequiredFieldError is returned when a required column is absent
// from a row or holds NULL.
type MissingRequiredFieldError struct {
	Column string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required column %q is missing or null", e.Column)
}

// ConversionError is returned when a column value cannot be converted to the
// requested Go type.
type ConversionError struct {
	Column string
	From   string
	To     string
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("column %q: cannot convert %s to %s", e.Column, e.From, e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// StatementError wraps a failure reported by the database while preparing or
// executing a statement.
type StatementError struct {
	Op  string
	Err error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, ErrRecordNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// IsMappingError reports whether err came from row extraction.
func IsMappingError(err error) bool {
	var missing *MissingRequiredFieldError
	var conv *ConversionError
	return errors.As(err, &missing) || errors.As(err, &conv)
}
