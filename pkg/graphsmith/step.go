package graphsmith

import "github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"

// Stage names and their 1-based positions in the pipeline.
const (
	StageIntent        = "intent_extraction"
	StageMatching      = "capability_matching"
	StageSynthesis     = "structure_synthesis"
	StageConfiguration = "field_configuration"
	StageCustom        = "custom_synthesis"
	StageValidation    = "validation"

	// TotalSteps is the number of pipeline stages.
	TotalSteps = 6
)

// StepResult is the uniform contract every stage returns.
type StepResult[T any] struct {
	// Success reports whether the stage produced usable output.
	Success bool

	// Data is the stage's typed output when Success is true.
	Data T

	// Err is the stage failure when Success is false.
	Err error

	// Usage is the stage's cost-accounting pair, nil for zero-cost stages.
	Usage *llm.TokenUsage

	// Skipped marks a stage that had nothing to do. Skipped implies
	// Success with zero cost.
	Skipped bool
}

// stepOK builds a successful result.
func stepOK[T any](data T, usage *llm.TokenUsage) StepResult[T] {
	return StepResult[T]{Success: true, Data: data, Usage: usage}
}

// stepSkip builds a skipped no-op result carrying the unchanged data.
func stepSkip[T any](data T) StepResult[T] {
	return StepResult[T]{Success: true, Data: data, Skipped: true}
}

// stepFail builds a failed result, keeping any usage already consumed.
func stepFail[T any](err error, usage *llm.TokenUsage) StepResult[T] {
	return StepResult[T]{Err: err, Usage: usage}
}

// StepMetadata records one executed stage for the end-of-run summary.
// It is coordinator-internal and not persisted.
type StepMetadata struct {
	StepName        string
	StepNumber      int
	ExecutionTimeMs float64
	Usage           *llm.TokenUsage
	Success         bool
	Err             error
	Skipped         bool
}
