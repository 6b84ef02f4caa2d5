// Package llm abstracts the text-completion collaborator behind a small
// client interface with synchronous and streaming entry points.
package llm

import (
	"context"
	"fmt"
)

// Client is the completion collaborator every pipeline stage talks to.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete performs a single completion call and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Stream performs a completion call, delivering partial output on the
	// returned channel. The channel is closed after the final chunk, which
	// has Done set and may carry usage accounting.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}

// Error wraps a client failure with the operation that produced it.
type Error struct {
	// Op is the operation that failed ("complete", "stream").
	Op string
	// Err is the underlying error.
	Err error
	// Retryable reports whether the failure looked transient.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a client error.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}
