package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the Parley API.
// It provides clear information about what went wrong, why it might have happened,
// and how to fix it.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

// Error implements the error interface for APIError.
func (e APIError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error with additional details.
func (e APIError) WithDetails(details string) APIError {
	e.Details = details
	return e
}

// =============================================================================
// Request Errors
// =============================================================================

var (
	// ErrQueryEmpty is returned when a question or search query is empty or whitespace-only.
	ErrQueryEmpty = APIError{
		Code:       "QUERY_EMPTY",
		Message:    "Question or search query cannot be empty",
		Suggestion: "Type something to ask or search for, e.g., 'What is 2+2?'",
	}

	// ErrInvalidJSON is returned when the request body contains invalid JSON.
	ErrInvalidJSON = APIError{
		Code:       "INVALID_JSON",
		Message:    "Request body contains invalid JSON",
		Suggestion: "Check your JSON syntax and ensure all strings are properly quoted",
	}

	// ErrInvalidParameter is returned when a query parameter cannot be parsed.
	ErrInvalidParameter = APIError{
		Code:       "INVALID_PARAMETER",
		Message:    "Request parameter is invalid",
		Suggestion: "Numeric parameters such as limit and preview must be positive integers",
	}

	// ErrRequestTimeout is returned when an action does not finish in time.
	ErrRequestTimeout = APIError{
		Code:       "REQUEST_TIMEOUT",
		Message:    "Request timed out",
		Suggestion: "The model may still be loading. Try again, or raise daemon.request_timeout",
	}
)

// =============================================================================
// Daemon Errors
// =============================================================================

var (
	// ErrDaemonNotRunning is returned when the daemon is not running.
	ErrDaemonNotRunning = APIError{
		Code:       "DAEMON_NOT_RUNNING",
		Message:    "Parley daemon is not running",
		Suggestion: "Start the daemon with 'parley start' or check if it crashed. You can view logs in .parley/logs/",
	}

	// ErrDaemonAlreadyRunning is returned when trying to start a daemon that's already running.
	ErrDaemonAlreadyRunning = APIError{
		Code:       "DAEMON_ALREADY_RUNNING",
		Message:    "Parley daemon is already running",
		Suggestion: "Use 'parley status' to check the daemon status, or 'parley stop' to stop it first",
	}

	// ErrDaemonHealthCheckTimeout is returned when the daemon doesn't respond to health checks.
	ErrDaemonHealthCheckTimeout = APIError{
		Code:       "DAEMON_HEALTH_TIMEOUT",
		Message:    "Daemon failed to respond to health check within timeout",
		Suggestion: "The daemon may have crashed during startup. Check .parley/logs/ for error messages",
	}
)

// =============================================================================
// Store Errors
// =============================================================================

var (
	// ErrStoreUnavailable is returned when the vector store cannot be accessed.
	ErrStoreUnavailable = APIError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "Cannot access the vector store",
		Suggestion: "Check store.dsn in .parley/config.yaml and that the database is reachable",
	}

	// ErrInternal is returned for failures that have no more specific code.
	ErrInternal = APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "The request could not be completed",
		Suggestion: "Check the daemon logs for details",
	}
)

// =============================================================================
// HTTP Response Helpers
// =============================================================================

// WriteError writes an APIError as a JSON response with the appropriate status code.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(err)
}

// WriteBadRequest writes a 400 Bad Request response with the given error.
func WriteBadRequest(w http.ResponseWriter, err APIError) {
	WriteError(w, http.StatusBadRequest, err)
}

// WriteInternalError writes a 500 Internal Server Error response with the given error.
func WriteInternalError(w http.ResponseWriter, err APIError) {
	WriteError(w, http.StatusInternalServerError, err)
}

// WriteServiceUnavailable writes a 503 Service Unavailable response with the given error.
func WriteServiceUnavailable(w http.ResponseWriter, err APIError) {
	WriteError(w, http.StatusServiceUnavailable, err)
}

// NewError creates a custom APIError with the given code, message, and suggestion.
func NewError(code, message, suggestion string) APIError {
	return APIError{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}
