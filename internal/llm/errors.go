package llm

import (
	"errors"
	"fmt"
)

// Kind classifies an inference failure.
type Kind string

const (
	// KindTransport means the server could not be reached
	KindTransport Kind = "transport"
	// KindStatus means the server answered with a non-200 status
	KindStatus Kind = "status"
	// KindInvalidResponse means a 200 body could not be used
	KindInvalidResponse Kind = "invalid_response"
)

// Error is a failed chat-completions call.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       string
	Cause      error
}

// Error renders the message shown to the user in place of an answer.
func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("Error Ollama API: %d. Response:%s", e.StatusCode, e.Body)
	case KindTransport:
		return fmt.Sprintf("Error connecting to Ollama API: %v", e.Cause)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("Invalid response from Ollama API: %v", e.Cause)
		}
		return "Invalid response from Ollama API"
	}
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrNoChoices is the cause reported when a response carries no choices.
var ErrNoChoices = errors.New("response contained no choices")

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
