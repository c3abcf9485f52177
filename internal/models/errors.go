package models

import "fmt"

// ValidationError reports a malformed or missing request field.
// Handlers map it to a 400 response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError reports a failed completion call. Handlers map it to a 502 response.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
