package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrTransientBackend indicates a timeout, network or 5xx-class failure
// that survived every retry.
type ErrTransientBackend struct {
	Service string
	Status  int
	Err     error
}

func (e *ErrTransientBackend) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend unavailable [%s] status=%d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("backend unavailable [%s]: %v", e.Service, e.Err)
}

func (e *ErrTransientBackend) Unwrap() error {
	return e.Err
}

// ErrBackend indicates a non-transient rejection from the backend
// (malformed query, schema mismatch, constraint violation).
type ErrBackend struct {
	Service string
	Status  int
	Body    string
}

func (e *ErrBackend) Error() string {
	return fmt.Sprintf("backend rejected request [%s] status=%d: %s", e.Service, e.Status, e.Body)
}

// ErrPermission indicates an authorization or row-level-security rejection.
type ErrPermission struct {
	Action string
}

func (e *ErrPermission) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Action)
}

// ErrUnauthorized indicates a missing, invalid or expired session.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrValidationList aggregates field-level validation errors.
type ErrValidationList struct {
	Errors []*ErrValidation
}

func (e *ErrValidationList) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// Fields maps field name to message, for API responses.
func (e *ErrValidationList) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, v := range e.Errors {
		out[v.Field] = v.Message
	}
	return out
}

// ErrNothingToExport indicates the export selection produced no rows.
type ErrNothingToExport struct{}

func (e *ErrNothingToExport) Error() string {
	return "Nenhum registro para exportar"
}

// ErrExport indicates a renderer failure.
type ErrExport struct {
	Format ExportFormat
	Err    error
}

func (e *ErrExport) Error() string {
	return fmt.Sprintf("export %s failed: %v", e.Format, e.Err)
}

func (e *ErrExport) Unwrap() error {
	return e.Err
}
