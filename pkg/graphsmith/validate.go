package graphsmith

import (
	"context"
	"log/slog"
	"sort"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// ValidateStage normalizes the assembled graph, enforces its structural
// rules, and optionally runs an advisory refinement pass over labels and
// descriptions. Refinement can improve text but never structure: a
// refined graph that adds, removes, or re-identifies anything is
// discarded, and a refinement error never fails the run.
type ValidateStage struct {
	Client llm.Client
	Logger *slog.Logger
	Retry  gserrors.RetryConfig

	// Refine enables the advisory text-polish pass.
	Refine bool
}

// Run validates the graph in the pipeline context.
func (s *ValidateStage) Run(ctx context.Context, pc *PipelineContext) StepResult[*workflow.Graph] {
	graph := pc.Workflow

	workflow.Normalize(graph)
	if err := workflow.Validate(graph); err != nil {
		return stepFail[*workflow.Graph](err, nil)
	}

	var usage *llm.TokenUsage
	if s.Refine {
		usage = s.refine(ctx, pc, graph)
	}

	return stepOK(pc.Workflow, usage)
}

// refine asks the collaborator to polish names and descriptions, keeping
// the result only when the graph's structure is untouched and still
// valid. All failure modes here downgrade to a log line.
func (s *ValidateStage) refine(ctx context.Context, pc *PipelineContext, graph *workflow.Graph) *llm.TokenUsage {
	user := refineUserPrompt(graph)
	if user == "" {
		return nil
	}

	resp, err := complete(ctx, s.Client, s.Retry, refineSystemPrompt, user)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("refinement pass failed, keeping unrefined graph", slog.Any("error", err))
		}
		return nil
	}
	usage := &resp.Usage

	refined, err := parseJSON[workflow.Graph](resp.Content)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("refinement response unparseable, keeping unrefined graph", slog.Any("error", err))
		}
		return usage
	}

	if !sameStructure(graph, &refined) {
		if s.Logger != nil {
			s.Logger.Warn("refinement altered graph structure, discarding")
		}
		return usage
	}

	workflow.Normalize(&refined)
	if err := workflow.Validate(&refined); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("refined graph failed validation, discarding", slog.Any("error", err))
		}
		return usage
	}

	adoptText(graph, &refined)
	return usage
}

// sameStructure reports whether two graphs have identical node and edge
// id sets and identical edge endpoints.
func sameStructure(a, b *workflow.Graph) bool {
	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		return false
	}
	if !sameIDSet(a.NodeIDs(), b.NodeIDs()) {
		return false
	}
	edgeKey := func(g *workflow.Graph) []string {
		keys := make([]string, 0, len(g.Edges))
		for _, e := range g.Edges {
			keys = append(keys, e.ID+"\x00"+e.Source+"\x00"+e.Target)
		}
		sort.Strings(keys)
		return keys
	}
	ak, bk := edgeKey(a), edgeKey(b)
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
	}
	return true
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// adoptText copies only the refinable text of the refined graph onto the
// original. Config, code, and schemas stay exactly as validated.
func adoptText(dst, src *workflow.Graph) {
	dst.Name = src.Name
	dst.Reasoning = src.Reasoning
	for i := range dst.Nodes {
		refined := src.Node(dst.Nodes[i].ID)
		if refined == nil {
			continue
		}
		if refined.Data.Label != "" {
			dst.Nodes[i].Data.Label = refined.Data.Label
		}
		if refined.Data.Description != "" {
			dst.Nodes[i].Data.Description = refined.Data.Description
		}
	}
}
