// Package errors provides structured error handling for the retrieval engine.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Document parsing errors
//   - 3XX: Embedding provider errors (network, auth, limits)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryParse indicates source markup parsing errors.
	CategoryParse Category = "PARSE"
	// CategoryProvider indicates embedding/reranker provider errors.
	CategoryProvider Category = "PROVIDER"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Parse errors (200-299)
	ErrCodeParseFailed   = "ERR_201_PARSE_FAILED"
	ErrCodeEmptyDocument = "ERR_202_EMPTY_DOCUMENT"

	// Provider errors (300-399)
	ErrCodeProviderTimeout     = "ERR_301_PROVIDER_TIMEOUT"
	ErrCodeProviderUnavailable = "ERR_302_PROVIDER_UNAVAILABLE"
	ErrCodeRateLimited         = "ERR_303_RATE_LIMITED"
	ErrCodeAuthFailed          = "ERR_304_AUTH_FAILED"
	ErrCodeContextTooLong      = "ERR_305_CONTEXT_TOO_LONG"

	// Validation errors (400-499)
	ErrCodeBatchTooLarge     = "ERR_401_BATCH_TOO_LARGE"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeCountMismatch     = "ERR_403_COUNT_MISMATCH"
	ErrCodeUnknownDomain     = "ERR_404_UNKNOWN_DOMAIN"
	ErrCodeInvalidQuery      = "ERR_405_INVALID_QUERY"

	// Internal errors (500-599)
	ErrCodeChunkingFailed  = "ERR_501_CHUNKING_FAILED"
	ErrCodeSearchFailed    = "ERR_502_SEARCH_FAILED"
	ErrCodeRerankFailed    = "ERR_503_RERANK_FAILED"
	ErrCodeEmbeddingFailed = "ERR_504_EMBEDDING_FAILED"
	ErrCodeStoreFailed     = "ERR_505_STORE_FAILED"
	ErrCodeInternal        = "ERR_506_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion starts at index 4 (e.g., "201" in "ERR_201_PARSE_FAILED")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryParse
	case '3':
		return CategoryProvider
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a transient failure.
// Only connection and timeout classes are retryable; auth, rate-limit and
// context-too-long fail immediately so callers can decide how to react.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeProviderTimeout, ErrCodeProviderUnavailable:
		return true
	default:
		return false
	}
}
