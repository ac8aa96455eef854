package embedder

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// === EmbeddingError Tests ===

func TestEmbeddingError_Error(t *testing.T) {
	t.Run("with suggestion", func(t *testing.T) {
		err := &EmbeddingError{
			Code:       "TEST_ERROR",
			Message:    "Test error message",
			Suggestion: "Try again",
		}
		assert.Equal(t, "Test error message. Try again", err.Error())
	})

	t.Run("without suggestion", func(t *testing.T) {
		err := &EmbeddingError{Code: "TEST_ERROR", Message: "Test error message"}
		assert.Equal(t, "Test error message", err.Error())
	})
}

func TestEmbeddingError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &EmbeddingError{Code: "TEST", Message: "wrapped", Cause: cause}

	assert.Same(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
}

func TestEmbeddingError_Is(t *testing.T) {
	wrapped := ErrInputTooLong.WithCause(errors.New("600 tokens"))

	assert.ErrorIs(t, wrapped, ErrInputTooLong)
	assert.NotErrorIs(t, wrapped, ErrInvalidRequest)
	assert.ErrorIs(t, fmt.Errorf("embed: %w", wrapped), ErrInputTooLong)
}

func TestEmbeddingError_WithCause(t *testing.T) {
	cause := errors.New("boom")
	err := ErrUnknownDimensions.WithCause(cause)

	assert.Equal(t, ErrUnknownDimensions.Code, err.Code)
	assert.Equal(t, ErrUnknownDimensions.Message, err.Message)
	assert.Same(t, cause, err.Cause)
	assert.Nil(t, ErrUnknownDimensions.Cause, "predefined error must not be mutated")
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *EmbeddingError
		code string
	}{
		{ErrInputTooLong, "INPUT_TOO_LONG"},
		{ErrProviderNotConfigured, "PROVIDER_NOT_CONFIGURED"},
		{ErrUnknownDimensions, "UNKNOWN_DIMENSIONS"},
		{ErrInvalidRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}
