package embedder

// EmbeddingError represents an error from embedding operations with helpful context.
type EmbeddingError struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	if e.Suggestion == "" {
		return e.Message
	}
	return e.Message + ". " + e.Suggestion
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// Is matches predefined errors by code, so wrapped copies created with
// WithCause still satisfy errors.Is(err, ErrInputTooLong).
func (e *EmbeddingError) Is(target error) bool {
	t, ok := target.(*EmbeddingError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *EmbeddingError) WithCause(cause error) *EmbeddingError {
	return &EmbeddingError{
		Code:       e.Code,
		Message:    e.Message,
		Suggestion: e.Suggestion,
		Cause:      cause,
	}
}

// Predefined embedding errors
var (
	// ErrInputTooLong is returned under the reject overflow policy
	ErrInputTooLong = &EmbeddingError{
		Code:       "INPUT_TOO_LONG",
		Message:    "Input exceeds the embedding model's token limit",
		Suggestion: "Shorten the text or set embedding.overflow to truncate or chunk",
	}

	// ErrProviderNotConfigured indicates no embedding provider is configured
	ErrProviderNotConfigured = &EmbeddingError{
		Code:       "PROVIDER_NOT_CONFIGURED",
		Message:    "No embedding provider configured",
		Suggestion: "Set embedding.provider to ollama or mock in .parley/config.yaml",
	}

	// ErrUnknownDimensions indicates the vector size could not be determined
	ErrUnknownDimensions = &EmbeddingError{
		Code:       "UNKNOWN_DIMENSIONS",
		Message:    "Embedding dimensions are unknown for this model",
		Suggestion: "Set embedding.dimensions to the model's output size",
	}

	// ErrInvalidRequest indicates the request was malformed
	ErrInvalidRequest = &EmbeddingError{
		Code:    "INVALID_REQUEST",
		Message: "Invalid embedding request",
	}
)
