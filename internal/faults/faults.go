// Package faults holds the pipeline error taxonomy.
//
// ServiceError covers unreachable, timed-out, or malformed external services
// and is recovered per item (skip, log, continue). IntegrityError covers
// broken foreign links or missing required fields and aborts the stage.
// ValidationError covers outputs that fail schema or length constraints.
package faults

import (
	"errors"
	"fmt"
)

// ServiceError wraps a failed external service interaction.
type ServiceError struct {
	Service string // "research", "writer", "directory"
	Op      string
	Status  int // HTTP status when available, zero otherwise
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IntegrityError reports a broken cross-file invariant, such as a downstream
// record referencing an upstream row that does not exist.
type IntegrityError struct {
	Artifact string
	Detail   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: %s: %s", e.Artifact, e.Detail)
}

// ValidationError reports an output that violates its declared constraints.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Detail)
}

// Service wraps err as a ServiceError.
func Service(service, op string, status int, err error) error {
	return &ServiceError{Service: service, Op: op, Status: status, Err: err}
}

// Integrity builds an IntegrityError for the named artifact.
func Integrity(artifact, format string, args ...any) error {
	return &IntegrityError{Artifact: artifact, Detail: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError for the named field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Detail: fmt.Sprintf(format, args...)}
}

// IsService reports whether err is (or wraps) a ServiceError.
func IsService(err error) bool {
	var target *ServiceError
	return errors.As(err, &target)
}

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
