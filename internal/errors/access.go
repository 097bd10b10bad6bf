package errors

import (
	"errors"
	"fmt"
)

// AccessError represents misuse of a storage handle: opening it twice,
// reopening it after close, or using it while it is not open.
type AccessError struct {
	Storage string
	Reason  string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Storage)
}

// NewAccessError creates an AccessError for the described storage.
func NewAccessError(storage, reason string) *AccessError {
	return &AccessError{Storage: storage, Reason: reason}
}

// IsAccessError reports whether err is an AccessError (even when wrapped).
func IsAccessError(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr)
}
