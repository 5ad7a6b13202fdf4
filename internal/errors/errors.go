package errors

import (
	"fmt"
)

// AppError is the structured error type for the retrieval engine.
// It provides rich context for error handling, logging, and user presentation.
type AppError struct {
	// Code is the unique error code (e.g., "ERR_201_PARSE_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Parse, Provider, Validation, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an AppError from an existing error.
// The error's message becomes the AppError message.
func Wrap(code string, err error) *AppError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ParseError creates a markup parsing error.
func ParseError(message string, cause error) *AppError {
	return New(ErrCodeParseFailed, message, cause)
}

// ChunkingError creates a chunking error (zero chunks from non-empty input).
func ChunkingError(message string) *AppError {
	return New(ErrCodeChunkingFailed, message, nil)
}

// EmbeddingError creates a generic embedding error.
// Use the specific codes (batch, dimension, provider) where the failure
// class is known.
func EmbeddingError(message string, cause error) *AppError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// SearchError creates a search-related error.
func SearchError(message string, cause error) *AppError {
	return New(ErrCodeSearchFailed, message, cause)
}

// RerankError creates a rerank-related error.
func RerankError(message string, cause error) *AppError {
	return New(ErrCodeRerankFailed, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an AppError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ae, ok := err.(*AppError); ok {
		return ae.Retryable
	}
	return false
}

// GetCode extracts the error code from an AppError.
// Returns empty string if not an AppError.
func GetCode(err error) string {
	if ae, ok := err.(*AppError); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AppError.
// Returns empty string if not an AppError.
func GetCategory(err error) Category {
	if ae, ok := err.(*AppError); ok {
		return ae.Category
	}
	return ""
}
