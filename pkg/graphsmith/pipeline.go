package graphsmith

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/catalog"
	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/history"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/observability"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// DefaultStageTimeout bounds each stage's wall-clock time.
const DefaultStageTimeout = 2 * time.Minute

// Pipeline turns a free-text automation request into a validated
// workflow graph by running six stages in fixed order. A Pipeline is
// safe for concurrent use; per-run state lives in the PipelineContext.
type Pipeline struct {
	client       llm.Client
	catalog      catalog.Lookup
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	history      history.Store
	stageTimeout time.Duration
	retry        gserrors.RetryConfig
	refine       bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithHistory persists finished runs to the given store.
func WithHistory(s history.Store) Option {
	return func(p *Pipeline) { p.history = s }
}

// WithStageTimeout overrides the per-stage timeout.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.stageTimeout = d
		}
	}
}

// WithRetryConfig overrides the retry policy used for collaborator calls.
func WithRetryConfig(rc gserrors.RetryConfig) Option {
	return func(p *Pipeline) { p.retry = rc }
}

// WithRefinement enables the advisory text-polish pass during validation.
func WithRefinement(enabled bool) Option {
	return func(p *Pipeline) { p.refine = enabled }
}

// New creates a Pipeline with the given completion client and capability
// catalogue.
func New(client llm.Client, cat catalog.Lookup, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if cat == nil {
		return nil, ErrNoCatalog
	}
	p := &Pipeline{
		client:       client,
		catalog:      cat,
		metrics:      observability.NoopMetrics{},
		stageTimeout: DefaultStageTimeout,
		retry:        gserrors.DefaultRetry,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Request is one generation request.
type Request struct {
	// Text is the free-text automation request.
	Text string

	// Existing is the prior graph when modifying a workflow.
	Existing *workflow.Graph

	// Progress, when non-nil, receives stage-entry and synthesis-chunk
	// events. The caller owns the channel; the pipeline never closes it.
	Progress chan<- Event
}

// Result is a completed run.
type Result struct {
	// Workflow is the validated graph.
	Workflow *workflow.Graph

	// RunID identifies the run, for history lookup and log correlation.
	RunID string

	// Usage is the aggregate token cost across all stages.
	Usage llm.TokenUsage

	// Steps records per-stage execution metadata.
	Steps []StepMetadata

	// Duration is the total wall-clock run time.
	Duration time.Duration
}

// runState accumulates per-run bookkeeping across stages.
type runState struct {
	pc       *PipelineContext
	progress chan<- Event
	steps    []StepMetadata
	usage    llm.TokenUsage
}

// Run executes the full pipeline. The first stage failure is terminal:
// its error is returned wrapped in a *PipelineError and no later stage
// runs.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyRequest
	}

	runID := uuid.NewString()
	logger := observability.EnrichLogger(p.logger, runID, "pipeline")
	observability.LogRunStart(logger, runID, req.Text)

	ctx, span := observability.StartRunSpan(ctx, runID)
	elapsed := observability.TimedOperation()

	st := &runState{
		pc: &PipelineContext{
			RunID:    runID,
			Request:  req.Text,
			Catalog:  p.catalog,
			Existing: req.Existing,
			Logger:   logger,
		},
		progress: req.Progress,
	}

	err := p.runStages(ctx, st)

	durationMs := elapsed()
	duration := time.Duration(durationMs * float64(time.Millisecond))
	observability.EndSpanWithError(span, err)
	p.metrics.RecordRun(ctx, err == nil, duration)
	p.logSummary(logger, st, durationMs, err)

	if err != nil {
		observability.LogRunError(logger, runID, err, durationMs, lastStage(st.steps))
		p.persist(st, durationMs, err)
		return nil, err
	}

	observability.LogRunComplete(logger, runID, durationMs, len(st.pc.Workflow.Nodes))
	p.persist(st, durationMs, nil)

	return &Result{
		Workflow: st.pc.Workflow,
		RunID:    runID,
		Usage:    st.usage,
		Steps:    st.steps,
		Duration: duration,
	}, nil
}

// runStages executes the six stages in order, attaching each output to
// the pipeline context.
func (p *Pipeline) runStages(ctx context.Context, st *runState) error {
	intent := &IntentStage{Client: p.client, Logger: st.pc.Logger, Retry: p.retry}
	intentOut, err := runStage(ctx, p, st, StageIntent, 1, func(c context.Context) StepResult[*IntentDescriptor] {
		return intent.Run(c, st.pc)
	})
	if err != nil {
		return err
	}
	st.pc.Intent = intentOut

	match := &MatchStage{Client: p.client, Logger: st.pc.Logger, Retry: p.retry}
	planOut, err := runStage(ctx, p, st, StageMatching, 2, func(c context.Context) StepResult[*CapabilityPlan] {
		return match.Run(c, st.pc)
	})
	if err != nil {
		return err
	}
	st.pc.Plan = planOut

	synth := &SynthesisStage{Client: p.client, Logger: st.pc.Logger, Retry: p.retry, Progress: st.progress}
	graph, err := runStage(ctx, p, st, StageSynthesis, 3, func(c context.Context) StepResult[*workflow.Graph] {
		return synth.Run(c, st.pc)
	})
	if err != nil {
		return err
	}
	st.pc.Workflow = graph

	configure := &ConfigureStage{Client: p.client, Logger: st.pc.Logger, Retry: p.retry}
	if _, err := runStage(ctx, p, st, StageConfiguration, 4, func(c context.Context) StepResult[*workflow.Graph] {
		return configure.Run(c, st.pc)
	}); err != nil {
		return err
	}

	custom := &CustomStage{Client: p.client, Logger: st.pc.Logger, Retry: p.retry}
	if _, err := runStage(ctx, p, st, StageCustom, 5, func(c context.Context) StepResult[*workflow.Graph] {
		return custom.Run(c, st.pc)
	}); err != nil {
		return err
	}

	validate := &ValidateStage{Client: p.client, Logger: st.pc.Logger, Retry: p.retry, Refine: p.refine}
	if _, err := runStage(ctx, p, st, StageValidation, 6, func(c context.Context) StepResult[*workflow.Graph] {
		return validate.Run(c, st.pc)
	}); err != nil {
		return err
	}

	return nil
}

// runStage wraps one stage execution with progress notification, span,
// timeout, metrics, and metadata capture.
func runStage[T any](ctx context.Context, p *Pipeline, st *runState, name string, number int, fn func(context.Context) StepResult[T]) (T, error) {
	emit(ctx, st.progress, Event{
		Type:       EventProgress,
		StepName:   name,
		StepNumber: number,
		TotalSteps: TotalSteps,
	})
	observability.LogStageStart(st.pc.Logger, name, number)

	stageCtx, span := observability.StartStageSpan(ctx, name)
	stageCtx, cancel := context.WithTimeout(stageCtx, p.stageTimeout)
	defer cancel()

	elapsed := observability.TimedOperation()
	res := fn(stageCtx)
	durationMs := elapsed()

	if res.Err != nil && errors.Is(res.Err, context.DeadlineExceeded) && ctx.Err() == nil {
		res.Err = &gserrors.TimeoutError{Operation: name, Duration: p.stageTimeout.String()}
	}

	observability.EndSpanWithError(span, res.Err)
	p.metrics.RecordStage(ctx, name, time.Duration(durationMs*float64(time.Millisecond)), res.Err)
	if res.Usage != nil {
		p.metrics.RecordTokens(ctx, name, res.Usage.InputTokens, res.Usage.OutputTokens)
		st.usage.Add(*res.Usage)
	}

	md := StepMetadata{
		StepName:        name,
		StepNumber:      number,
		ExecutionTimeMs: durationMs,
		Usage:           res.Usage,
		Success:         res.Success,
		Err:             res.Err,
		Skipped:         res.Skipped,
	}
	st.steps = append(st.steps, md)

	switch {
	case res.Skipped:
		observability.LogStageSkipped(st.pc.Logger, name, "nothing to do")
	case res.Success:
		observability.LogStageComplete(st.pc.Logger, name, durationMs)
	default:
		observability.LogStageError(st.pc.Logger, name, res.Err)
	}

	if !res.Success {
		var zero T
		return zero, &PipelineError{Stage: name, StepNumber: number, Err: res.Err}
	}
	return res.Data, nil
}

// logSummary emits the end-of-run accounting: per-stage share of total
// time and the aggregate token cost.
func (p *Pipeline) logSummary(logger *slog.Logger, st *runState, totalMs float64, runErr error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.Float64("total_ms", totalMs),
		slog.Int("input_tokens", st.usage.InputTokens),
		slog.Int("output_tokens", st.usage.OutputTokens),
		slog.Bool("success", runErr == nil),
	}
	for _, step := range st.steps {
		share := 0.0
		if totalMs > 0 {
			share = step.ExecutionTimeMs / totalMs * 100
		}
		attrs = append(attrs, slog.Group(step.StepName,
			slog.Float64("ms", step.ExecutionTimeMs),
			slog.String("share", fmt.Sprintf("%.1f%%", share)),
			slog.Bool("skipped", step.Skipped),
		))
	}
	logger.Info("run summary", attrs...)
}

// persist writes the finished run to the history store, if configured.
// Persistence failures are logged, never surfaced.
func (p *Pipeline) persist(st *runState, durationMs float64, runErr error) {
	if p.history == nil {
		return
	}
	rec := &history.Record{
		RunID:        st.pc.RunID,
		Request:      st.pc.Request,
		Status:       history.StatusCompleted,
		InputTokens:  st.usage.InputTokens,
		OutputTokens: st.usage.OutputTokens,
		DurationMs:   durationMs,
		CreatedAt:    time.Now().UTC(),
	}
	if runErr != nil {
		rec.Status = history.StatusFailed
		rec.Error = runErr.Error()
	} else if st.pc.Workflow != nil {
		data, err := json.Marshal(st.pc.Workflow)
		if err == nil {
			rec.Workflow = data
		}
	}
	if err := p.history.Save(rec); err != nil && st.pc.Logger != nil {
		st.pc.Logger.Warn("failed to persist run history", slog.Any("error", err))
	}
}

func lastStage(steps []StepMetadata) string {
	if len(steps) == 0 {
		return ""
	}
	return steps[len(steps)-1].StepName
}
