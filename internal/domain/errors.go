package domain

import (
	"errors"
	"fmt"
)

// ValidationKind classifies a rejected load request.
type ValidationKind string

const (
	KindMissingDetails   ValidationKind = "missing-details"
	KindDuplicate        ValidationKind = "duplicate"
	KindCapacityExceeded ValidationKind = "capacity-exceeded"
	// KindBusy is returned when a load is requested while another one is running.
	KindBusy ValidationKind = "busy"
)

// ValidationError is raised before any fetch starts. It never implies a
// state change.
type ValidationError struct {
	Kind    ValidationKind
	Repo    RepositoryIdentifier
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewValidationError builds a ValidationError for the given repository.
func NewValidationError(kind ValidationKind, repo RepositoryIdentifier, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Repo:    repo,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationKind reports whether err is a ValidationError of the given kind.
func IsValidationKind(err error, kind ValidationKind) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr) && vErr.Kind == kind
}
