// Package errors defines the structured error type shared by the build,
// watch and render layers.
//
// Every failure that should stop a build is reported as a *SiteError carrying
// a type, a stable code and the offending path, so the command layer can log
// it with fields and tests can match it with errors.Is.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeMissingSource ErrorType = "missing_source"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeTemplate      ErrorType = "template"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeValidation    ErrorType = "validation"
)

// Common error codes.
const (
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeRootNotFound      = "ERR_ROOT_NOT_FOUND"
	ErrCodeReadFailed        = "ERR_READ_FAILED"
	ErrCodeWriteFailed       = "ERR_WRITE_FAILED"
	ErrCodeRemoveFailed      = "ERR_REMOVE_FAILED"
	ErrCodePermissionDenied  = "ERR_PERMISSION_DENIED"
	ErrCodeTemplateParse     = "ERR_TEMPLATE_PARSE"
	ErrCodeTemplateExecute   = "ERR_TEMPLATE_EXECUTE"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodePathOutsideRoot   = "ERR_PATH_OUTSIDE_ROOT"
	ErrCodeTaskIndexOutRange = "ERR_TASK_INDEX_OUT_OF_RANGE"
)

// SiteError is a structured error type with context.
type SiteError struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *SiteError) Is(target error) bool {
	var t *SiteError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath records the path the error refers to.
func (e *SiteError) WithPath(path string) *SiteError {
	e.Path = path

	return e
}

// NewMissingSourceError creates an error for a referenced file that does not exist.
func NewMissingSourceError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:    ErrorTypeMissingSource,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTemplateError creates a template parse or execution error.
func NewTemplateError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:    ErrorTypeTemplate,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// IsMissingSource checks if an error reports a missing source file.
func IsMissingSource(err error) bool {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeMissingSource
	}

	return false
}

// IsIOError checks if an error is an I/O failure.
func IsIOError(err error) bool {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeIO
	}

	return false
}
