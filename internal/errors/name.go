package errors

import "errors"

// InvalidNameError is returned when a table or view name is not a plain identifier.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return "invalid table name: " + e.Name
}

// NewInvalidNameError creates an InvalidNameError for name.
func NewInvalidNameError(name string) *InvalidNameError {
	return &InvalidNameError{Name: name}
}

// IsInvalidNameError reports whether err is an InvalidNameError (even when wrapped).
func IsInvalidNameError(err error) bool {
	var nameErr *InvalidNameError
	return errors.As(err, &nameErr)
}
