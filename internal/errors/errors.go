package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/standardbeagle/medcat/internal/types"
)

// Error types for the content catalog
type ErrorType string

const (
	// Load-time errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeLoad       ErrorType = "load"

	// Query-time errors
	ErrorTypeNotFound ErrorType = "not_found"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeDecode       ErrorType = "decode"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrNotFound is matched by every NotFoundError via errors.Is
var ErrNotFound = errors.New("content not found")

// ValidationError reports a schema violation found while loading a record
// or a category grouping. It is fatal to the load attempt that produced it.
type ValidationError struct {
	Type     ErrorType
	RecordID types.RecordID
	Field    string
	Reason   string
}

// NewValidationError creates a validation error for one field of one record
func NewValidationError(id types.RecordID, field, reason string) *ValidationError {
	return &ValidationError{
		Type:     ErrorTypeValidation,
		RecordID: id,
		Field:    field,
		Reason:   reason,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	switch {
	case e.RecordID != "" && e.Field != "":
		return fmt.Sprintf("record %s: %s: %s", e.RecordID, e.Field, e.Reason)
	case e.RecordID != "":
		return fmt.Sprintf("record %s: %s", e.RecordID, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return e.Reason
}

// ValidationErrors aggregates every violation found during one load
type ValidationErrors struct {
	Errors    []*ValidationError
	Timestamp time.Time
}

// NewValidationErrors wraps errs; it returns nil when errs is empty so callers
// can return the result directly.
func NewValidationErrors(errs []*ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationErrors{Errors: errs, Timestamp: time.Now()}
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns all errors
func (e *ValidationErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// NotFoundError is returned when a query names an id absent from the
// current snapshot. It is an expected outcome, not a fault.
type NotFoundError struct {
	Type ErrorType
	ID   types.RecordID
}

// NewNotFoundError creates a not-found error for id
func NewNotFoundError(id types.RecordID) *NotFoundError {
	return &NotFoundError{Type: ErrorTypeNotFound, ID: id}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found", string(e.ID))
}

// Unwrap lets errors.Is(err, ErrNotFound) succeed
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsNotFound checks whether err carries a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// FileError represents a file-related error raised by the content loader
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewRejectedFileError creates a decode-class file error for content
// rejected before parsing
func NewRejectedFileError(path string, err error) *FileError {
	return &FileError{
		Type:       ErrorTypeDecode,
		Path:       path,
		Operation:  "validate",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewDecodeError creates a file error for content that could not be parsed
func NewDecodeError(path string, err error) *FileError {
	return &FileError{
		Type:       ErrorTypeDecode,
		Path:       path,
		Operation:  "decode",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "access denied")
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// LoadError wraps a failed snapshot build. The previous snapshot, if any,
// remains active.
type LoadError struct {
	Type       ErrorType
	Source     string
	Underlying error
	Timestamp  time.Time
}

// NewLoadError creates a load error for source (a directory or "memory")
func NewLoadError(source string, err error) *LoadError {
	return &LoadError{
		Type:       ErrorTypeLoad,
		Source:     source,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("load of %s failed: %v", e.Source, e.Underlying)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
