package models

import (
	"fmt"
	"strings"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	// Field is the name of the invalid field.
	Field string `json:"field"`

	// Message describes why the field is invalid.
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors accumulates validation failures so callers can report
// every problem at once instead of stopping at the first.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Add appends a validation error.
func (v *ValidationErrors) Add(err ValidationError) {
	v.Errors = append(v.Errors, err)
}

// AddMessage appends a validation error for a field.
func (v *ValidationErrors) AddMessage(field, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any validation errors were recorded.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Messages returns the error messages in recorded order.
func (v *ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v.Errors))
	for _, err := range v.Errors {
		out = append(out, err.Error())
	}
	return out
}

// Err returns the accumulator as an error, or nil if nothing was recorded.
func (v *ValidationErrors) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	return strings.Join(v.Messages(), "; ")
}
