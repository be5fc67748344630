// Package domain defines the core types, ports, and errors shared by the
// schema dispatcher and its supporting infrastructure.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates insufficient permissions.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// The dispatcher's error taxonomy (spec §7). Each is a distinct type so
// callers can use errors.As instead of string matching, and each carries
// the identifier it failed on so logs can report {op, ident, phase, cause}
// without the caller having to thread it through separately.

// NoSuchCatalogError is returned when a name identifier's catalog cannot
// be resolved by the router.
type NoSuchCatalogError struct {
	Ident string
}

func (e *NoSuchCatalogError) Error() string {
	return fmt.Sprintf("no such catalog for identifier %q", e.Ident)
}

// NoSuchSchemaError is returned when a backend reports a schema as absent.
type NoSuchSchemaError struct {
	Ident string
}

func (e *NoSuchSchemaError) Error() string {
	return fmt.Sprintf("no such schema %q", e.Ident)
}

// SchemaAlreadyExistsError is returned when a backend refuses to create a
// schema that already exists.
type SchemaAlreadyExistsError struct {
	Ident string
}

func (e *SchemaAlreadyExistsError) Error() string {
	return fmt.Sprintf("schema %q already exists", e.Ident)
}

// NonEmptySchemaError is returned when a non-cascading drop targets a
// schema that still holds tables.
type NonEmptySchemaError struct {
	Ident string
}

func (e *NonEmptySchemaError) Error() string {
	return fmt.Sprintf("schema %q is not empty", e.Ident)
}

// IllegalArgumentError is returned for validation failures that are the
// caller's fault: unknown properties, unsupported schema changes.
type IllegalArgumentError struct {
	Message string
}

func (e *IllegalArgumentError) Error() string { return e.Message }

// ErrIllegalArgument creates an IllegalArgumentError with a formatted message.
func ErrIllegalArgument(format string, args ...interface{}) *IllegalArgumentError {
	return &IllegalArgumentError{Message: fmt.Sprintf(format, args...)}
}

// MultipleCatalogsManageSchemaError is raised when the import protocol
// discovers that two distinct catalogs' backends both claim the same
// internal identity, which the store cannot represent as one row.
type MultipleCatalogsManageSchemaError struct {
	Ident string
	ID    uint64
}

func (e *MultipleCatalogsManageSchemaError) Error() string {
	return fmt.Sprintf(
		"schema %q: identity %d is already managed by another catalog; "+
			"remove all catalogs managing this schema and recreate one to "+
			"restore single-catalog ownership", e.Ident, e.ID)
}

// RuntimeError wraps an infrastructure failure (store or backend) that
// does not fit a more specific category.
type RuntimeError struct {
	Op    string
	Ident string
	Cause error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Ident, e.Cause)
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// ErrRuntime wraps cause as a RuntimeError tagged with the failing
// operation and identifier, for the {op, ident, phase, cause} log shape
// described in the dispatcher's design notes.
func ErrRuntime(op, ident string, cause error) *RuntimeError {
	return &RuntimeError{Op: op, Ident: ident, Cause: cause}
}
