package graphsmith

import (
	"log/slog"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/catalog"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// PipelineContext is the shared state of one run. The coordinator creates
// it, threads it through every stage, and discards it at run end. Stages
// attach their outputs; no stage reads process-wide mutable state.
type PipelineContext struct {
	// RunID uniquely identifies this run.
	RunID string

	// Request is the original free-text automation request.
	Request string

	// Catalog is the read-only capability library lookup.
	Catalog catalog.Lookup

	// Existing is the prior graph when the request modifies a workflow.
	Existing *workflow.Graph

	// Progressively attached stage outputs.
	Intent   *IntentDescriptor
	Plan     *CapabilityPlan
	Workflow *workflow.Graph

	// Logger is enriched with run_id by the coordinator.
	Logger *slog.Logger
}

// existingNodeIDs returns the node ids of the prior graph, or nil.
func (pc *PipelineContext) existingNodeIDs() []string {
	if pc.Existing == nil {
		return nil
	}
	return pc.Existing.NodeIDs()
}
