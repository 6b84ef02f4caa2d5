// Package history provides persistent storage of completed pipeline runs:
// the request, the produced graph, cost accounting, and outcome.
package history

import (
	"encoding/json"
	"errors"
	"time"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is one persisted pipeline run.
type Record struct {
	// RunID is the unique run identifier.
	RunID string `json:"run_id"`

	// Request is the original free-text automation request.
	Request string `json:"request"`

	// Status is StatusCompleted or StatusFailed.
	Status string `json:"status"`

	// Workflow is the produced graph as JSON. Empty on failure.
	Workflow json.RawMessage `json:"workflow,omitempty"`

	// Error is the terminal error message on failure.
	Error string `json:"error,omitempty"`

	// Cost accounting for the whole run.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// DurationMs is the total run time in milliseconds.
	DurationMs float64 `json:"duration_ms"`

	// CreatedAt is when the run finished.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists run records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record. Overwrites any record with the same RunID.
	Save(rec *Record) error

	// Get retrieves a record by run id.
	// Returns ErrNotFound if no record exists.
	Get(runID string) (*Record, error)

	// List returns the most recent records, newest first, up to limit.
	// A limit <= 0 returns all records.
	List(limit int) ([]*Record, error)

	// Delete removes a record. Returns nil if the record doesn't exist.
	Delete(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("run record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")
)
