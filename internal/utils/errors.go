// Package utils holds helpers shared by the service and transport layers.
package utils

import (
	"errors"
	"fmt"
)

// ValidationError is a caller mistake, such as an unknown asset or an
// out-of-range k. Transports map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewFieldError creates a ValidationError for one request field.
func NewFieldError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidationError unwraps err to a ValidationError when there is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
