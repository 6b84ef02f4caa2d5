package errors

import "fmt"

// UnavailableError indicates the completion collaborator cannot be reached
// at all: missing binary, missing credential, bad configuration.
type UnavailableError struct {
	Service string
	Message string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s unavailable: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("collaborator unavailable: %s", e.Message)
}

// JSONParseError indicates failure to parse JSON from collaborator output.
type JSONParseError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *JSONParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Message)
}

// ValidationError indicates a structural invariant violation in a produced
// artifact (intent, plan, or graph).
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TimeoutError indicates an operation exceeded its deadline.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}

// HTTPError represents an HTTP error with status code, for HTTP-backed
// collaborator transports.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
