package models

import "fmt"

// ValidationError reports a structured payload from an untrusted source
// (typically a model tool call) that failed schema validation. The offending
// item is dropped by the caller; a ValidationError never aborts a batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
