package graphsmith

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline construction and input.
var (
	// ErrNoClient indicates the completion client was not configured.
	ErrNoClient = errors.New("completion client not configured")

	// ErrNoCatalog indicates the capability catalogue was not configured.
	ErrNoCatalog = errors.New("capability catalogue not configured")

	// ErrEmptyRequest indicates the request text was empty.
	ErrEmptyRequest = errors.New("request text is empty")
)

// PipelineError is the terminal error of a failed run, carrying the stage
// that failed.
type PipelineError struct {
	// Stage is the name of the failed stage.
	Stage string
	// StepNumber is the stage's 1-based position.
	StepNumber int
	// Err is the underlying stage error.
	Err error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s (step %d/%d): %v",
		e.Stage, e.StepNumber, TotalSteps, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PipelineError) Unwrap() error {
	return e.Err
}
