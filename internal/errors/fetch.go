package errors

import (
	"errors"
	"fmt"
)

// NotFoundError means the export endpoint has no such table for the requested build.
type NotFoundError struct {
	Table   string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("table [%s] not found", e.Table)
	}
	return fmt.Sprintf("table [%s] not found in build %s", e.Table, e.Version)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(table, version string) *NotFoundError {
	return &NotFoundError{Table: table, Version: version}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// TransportError is any download failure other than a missing table.
// StatusCode is zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("download %s failed (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("download %s failed (HTTP %d)", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("download %s failed: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("download %s failed", e.URL)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError. err may be nil when only the status is known.
func NewTransportError(url string, statusCode int, err error) *TransportError {
	return &TransportError{URL: url, StatusCode: statusCode, Err: err}
}

// IsTransportError reports whether err is a TransportError (even when wrapped).
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
