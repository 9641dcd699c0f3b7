package model

import "fmt"

// ValidationError is returned for user input that is rejected before any
// store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FormatError is returned when a stored value cannot be interpreted, such as
// a due date that does not parse while sorting.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
