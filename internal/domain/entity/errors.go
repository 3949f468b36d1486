package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the layers. Infra and handler code matches
// them with errors.Is to map failures onto HTTP statuses and skip decisions.
var (
	// ErrNotFound reports that the CMS has no entity with the requested ID.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput reports request input outside the accepted vocabulary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed is the class every ValidationError belongs to.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNoAssignments reports a pipeline run handed an empty batch.
	ErrNoAssignments = errors.New("no assignments to process")
)

// ValidationError reports which field failed validation and why. Handlers
// return its message to the client verbatim, so the message must name the
// rule, never echo request values that could carry secrets.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidationFailed, so callers can
// class-check a wrapped chain without caring which field failed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
