package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a series is too short for the requested
	// computation.
	ErrEmptyInput = errors.New("analysis: not enough input")
	// ErrDivisionByZero is returned when a percentage change would divide by a
	// zero previous price.
	ErrDivisionByZero = errors.New("analysis: division by zero")
)

// EmptyInputError reports how many values an operation needed and received.
type EmptyInputError struct {
	Op   string
	Need int
	Got  int
}

// Error returns the error message string.
func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("analysis: %s needs at least %d prices, got %d", e.Op, e.Need, e.Got)
}

// Unwrap lets errors.Is match ErrEmptyInput.
func (e *EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}

// DivisionByZeroError identifies the transition whose previous price is zero.
type DivisionByZeroError struct {
	// Index is the position in the change series, i.e. the transition from
	// prices[Index] to prices[Index+1].
	Index int
}

// Error returns the error message string.
func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("analysis: previous price is zero at transition %d", e.Index)
}

// Unwrap lets errors.Is match ErrDivisionByZero.
func (e *DivisionByZeroError) Unwrap() error {
	return ErrDivisionByZero
}

func emptyInput(op string, need, got int) error {
	return &EmptyInputError{Op: op, Need: need, Got: got}
}
