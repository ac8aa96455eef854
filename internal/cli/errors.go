package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/parley-dev/parley/internal/api"
)

// CLIError represents a user-friendly error with context and suggestions.
type CLIError struct {
	Message    string
	Suggestion string
	Cause      error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Cause != nil && IsVerbose() {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	if e.Suggestion != "" {
		sb.WriteString("\n\nSuggestion: ")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLIError with a message and suggestion.
func NewCLIError(message, suggestion string) *CLIError {
	return &CLIError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapError wraps an existing error with additional context.
func WrapError(cause error, message, suggestion string) *CLIError {
	return &CLIError{
		Message:    message,
		Suggestion: suggestion,
		Cause:      cause,
	}
}

// =============================================================================
// Common CLI Errors
// =============================================================================

// ErrNotInitialized returns an error for directories without a config.
func ErrNotInitialized() *CLIError {
	return &CLIError{
		Message:    "Parley has not been initialized in this directory",
		Suggestion: "Run 'parley init' to write .parley/config.yaml",
	}
}

// ErrDaemonNotRunning returns an error when the daemon is not running.
func ErrDaemonNotRunning() *CLIError {
	return &CLIError{
		Message:    "Parley daemon is not running",
		Suggestion: "Start the daemon with 'parley start'",
	}
}

// ErrDaemonAlreadyRunning returns an error when daemon is already running.
func ErrDaemonAlreadyRunning(pid int) *CLIError {
	return &CLIError{
		Message:    fmt.Sprintf("Parley daemon is already running (PID %d)", pid),
		Suggestion: "Use 'parley status' to check the daemon, or 'parley stop' to stop it first",
	}
}

// ErrDaemonStartFailed returns an error when daemon fails to start.
func ErrDaemonStartFailed(cause error) *CLIError {
	return &CLIError{
		Message:    "Failed to start Parley daemon",
		Suggestion: "Check that parleyd is installed and in your PATH. You may need to run 'go install ./cmd/parleyd'",
		Cause:      cause,
	}
}

// ErrDaemonHealthTimeout returns an error when daemon doesn't respond.
func ErrDaemonHealthTimeout(logPath string) *CLIError {
	return &CLIError{
		Message:    "Daemon failed to respond to health check within timeout",
		Suggestion: fmt.Sprintf("The daemon may have exited during startup. Check %s, or run 'parley start -f' to see errors", logPath),
	}
}

// ErrDaemonConnectionFailed returns an error when connection to daemon fails.
func ErrDaemonConnectionFailed(cause error) *CLIError {
	return &CLIError{
		Message:    "Cannot connect to Parley daemon",
		Suggestion: "Is the daemon running? Check with 'parley status' or start it with 'parley start'",
		Cause:      cause,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(cause error) *CLIError {
	return &CLIError{
		Message:    "Configuration is invalid",
		Suggestion: "Check .parley/config.yaml and PARLEY_* environment variables, or delete the file and run 'parley init'",
		Cause:      cause,
	}
}

// ErrInvalidRootDir returns an error for a missing or non-directory root.
func ErrInvalidRootDir(path string) *CLIError {
	return &CLIError{
		Message:    fmt.Sprintf("Invalid directory: %s", path),
		Suggestion: "Ensure the path exists and is a directory. Use --dir to specify a different path",
	}
}

// ErrEmptyQuestion returns an error for blank questions.
func ErrEmptyQuestion() *CLIError {
	return &CLIError{
		Message:    "Question cannot be empty",
		Suggestion: "Provide a question, e.g., 'parley ask \"What is 2+2?\"'",
	}
}

// ErrEmptyQuery returns an error for blank search queries.
func ErrEmptyQuery() *CLIError {
	return &CLIError{
		Message:    "Search query cannot be empty",
		Suggestion: "Provide a search query, e.g., 'parley search \"arithmetic\"'",
	}
}

// fromAPIError converts an error returned by the daemon into a CLIError.
func fromAPIError(err error) error {
	var apiErr api.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case api.ErrQueryEmpty.Code:
		return ErrEmptyQuery()
	default:
		return &CLIError{
			Message:    apiErr.Message,
			Suggestion: apiErr.Suggestion,
			Cause:      err,
		}
	}
}
