package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeParseFailed, CategoryParse},
		{ErrCodeProviderTimeout, CategoryProvider},
		{ErrCodeDimensionMismatch, CategoryValidation},
		{ErrCodeChunkingFailed, CategoryInternal},
		{ErrCodeRerankFailed, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_RetryableOnlyForTransientCodes(t *testing.T) {
	assert.True(t, New(ErrCodeProviderTimeout, "timeout", nil).Retryable)
	assert.True(t, New(ErrCodeProviderUnavailable, "conn refused", nil).Retryable)

	// Auth, rate limit, and context-too-long are distinct but never retried.
	assert.False(t, New(ErrCodeAuthFailed, "bad key", nil).Retryable)
	assert.False(t, New(ErrCodeRateLimited, "429", nil).Retryable)
	assert.False(t, New(ErrCodeContextTooLong, "too long", nil).Retryable)
	assert.False(t, New(ErrCodeBatchTooLarge, "101 > 100", nil).Retryable)
}

func TestAppError_ErrorFormat(t *testing.T) {
	err := New(ErrCodeParseFailed, "malformed markup", nil)
	assert.Equal(t, "[ERR_201_PARSE_FAILED] malformed markup", err.Error())
}

func TestAppError_UnwrapChain(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := Wrap(ErrCodeProviderUnavailable, fmt.Errorf("embed call: %w", cause))

	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, cause))
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := New(ErrCodeDimensionMismatch, "expected 1536, got 768", nil)
	target := New(ErrCodeDimensionMismatch, "", nil)

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, New(ErrCodeBatchTooLarge, "", nil)))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeBatchTooLarge, "batch too large", nil).
		WithDetail("batch_size", "101").
		WithDetail("max", "100")

	assert.Equal(t, "101", err.Details["batch_size"])
	assert.Equal(t, "100", err.Details["max"])
}

func TestIsRetryable_NonAppError(t *testing.T) {
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeSearchFailed, GetCode(SearchError("boom", nil)))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
}
