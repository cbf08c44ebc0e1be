package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents missing or malformed caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents a lookup that matched nothing
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeGraph represents graph database and algorithm engine errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeProjection represents projection lifecycle errors
	ErrorTypeProjection ErrorType = "projection"
	// ErrorTypeExport represents edge export errors
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ValidationError is returned when a required identifying parameter is missing or malformed
type ValidationError struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("%s %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Not Found Errors

// NotFoundError is returned when no node matches a named lookup
type NotFoundError struct {
	*BaseError
	Kind string
	Key  string
}

func NewNotFound(kind, key string) *NotFoundError {
	return &NotFoundError{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", kind, key), nil),
		Kind:      kind,
		Key:       key,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// QueryError wraps a driver or engine failure with the operation that issued it.
// The engine's own message is kept verbatim in the wrapped error.
type QueryError struct {
	*BaseError
	Operation string
}

func NewQueryError(operation string, err error) *QueryError {
	return &QueryError{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("%s failed", operation), err),
		Operation: operation,
	}
}

// Projection Errors

// ProjectionError is returned when a projection cannot be checked, created or dropped
type ProjectionError struct {
	*BaseError
	Name   string
	Action string
}

func NewProjectionError(name, action string, err error) *ProjectionError {
	return &ProjectionError{
		BaseError: NewBaseError(ErrorTypeProjection, fmt.Sprintf("projection %s: %s", action, name), err),
		Name:      name,
		Action:    action,
	}
}

// Export Errors

// ExportError is returned when the edge export cannot be written
type ExportError struct {
	*BaseError
	Path string
}

func NewExportError(path string, err error) *ExportError {
	return &ExportError{
		BaseError: NewBaseError(ErrorTypeExport, fmt.Sprintf("failed to export edges to %s", path), err),
		Path:      path,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigInvalid is returned when a config value cannot be used
type ErrConfigInvalid struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigInvalid(field, reason string, err error) *ErrConfigInvalid {
	return &ErrConfigInvalid{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid config %s: %s", field, reason), err),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ errorType() ErrorType }); ok && typed.errorType() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

func (e *BaseError) errorType() ErrorType {
	return e.Type
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	var v *ValidationError
	return stderrors.As(err, &v)
}

// IsNotFound reports whether err is a not-found condition
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsAlreadyExists reports whether the engine refused a create because the target exists
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// FriendlyMessage maps well-known engine failures to an operator-facing hint.
// Unknown errors return an empty string.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Graph does not exist"), strings.Contains(msg, "does not exist in the graph catalog"):
		return "Analytics projection is missing; rebuild it and retry"
	case strings.Contains(msg, "There is no procedure with the name"), strings.Contains(msg, "no procedure with the name"):
		return "Graph Data Science library is not installed on the database"
	case strings.Contains(msg, "embedding") && strings.Contains(msg, "not found"):
		return "Embeddings have not been computed yet"
	}
	return ""
}
