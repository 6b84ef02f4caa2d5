package graphsmith

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/template"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// SynthesisStage materializes a capability plan into concrete nodes and
// edges. When a progress channel is set, partial graph text is forwarded
// as it arrives; the full text is parsed exactly once, at completion.
type SynthesisStage struct {
	Client llm.Client
	Logger *slog.Logger
	Retry  gserrors.RetryConfig

	// Progress receives raw text chunks during synthesis. Nil disables
	// streaming and uses a single synchronous completion.
	Progress chan<- Event
}

// synthPayload is the wire shape of the collaborator's graph.
type synthPayload struct {
	WorkflowName string      `json:"workflowName"`
	Reasoning    string      `json:"reasoning"`
	Nodes        []synthNode `json:"nodes"`
	Edges        []synthEdge `json:"edges"`
}

type synthNode struct {
	ID           string         `json:"id"`
	CapabilityID string         `json:"capabilityId"`
	Label        string         `json:"label"`
	Description  string         `json:"description"`
	Config       map[string]any `json:"config"`
}

type synthEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Run synthesizes the graph for the plan in the pipeline context.
func (s *SynthesisStage) Run(ctx context.Context, pc *PipelineContext) StepResult[*workflow.Graph] {
	user := synthesisUserPrompt(pc.Plan)

	var content string
	var usage *llm.TokenUsage
	var err error

	if s.Progress != nil {
		content, usage, err = s.stream(ctx, user)
	} else {
		var resp *llm.CompletionResponse
		resp, err = complete(ctx, s.Client, s.Retry, synthesisSystemPrompt, user)
		if resp != nil {
			content = resp.Content
			usage = &resp.Usage
		}
	}
	if err != nil {
		return stepFail[*workflow.Graph](err, usage)
	}

	payload, err := parseJSON[synthPayload](content)
	if err != nil {
		return stepFail[*workflow.Graph](err, usage)
	}
	if len(payload.Nodes) == 0 {
		return stepFail[*workflow.Graph](
			&gserrors.ValidationError{Field: "nodes", Message: "synthesized graph is empty"}, usage)
	}

	graph := s.materialize(pc, &payload)
	workflow.Normalize(graph)

	return stepOK(graph, usage)
}

// stream consumes the collaborator's chunk sequence, forwarding each to
// the progress channel and accumulating for the final parse. Streams are
// not retried; a mid-stream failure fails the stage.
func (s *SynthesisStage) stream(ctx context.Context, user string) (string, *llm.TokenUsage, error) {
	req := llm.CompletionRequest{
		SystemPrompt: synthesisSystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: user}},
	}

	ch, err := s.Client.Stream(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var accumulated strings.Builder
	var usage *llm.TokenUsage

	for chunk := range ch {
		if chunk.Error != nil {
			return "", usage, chunk.Error
		}
		if chunk.Content != "" {
			accumulated.WriteString(chunk.Content)
			emit(ctx, s.Progress, Event{Type: EventChunk, Content: chunk.Content})
		}
		if chunk.Done {
			usage = chunk.Usage
			emit(ctx, s.Progress, Event{Type: EventChunk, Content: accumulated.String(), Done: true})
		}
	}

	return accumulated.String(), usage, nil
}

// materialize turns the parsed payload into a graph with fresh unique
// ids, wired edges, and data-flow placeholders.
func (s *SynthesisStage) materialize(pc *PipelineContext, payload *synthPayload) *workflow.Graph {
	graph := &workflow.Graph{
		Name:      payload.WorkflowName,
		Reasoning: payload.Reasoning,
	}

	// Fresh ids, remembering the plan key each node came from so edges,
	// data flow, and placeholders can be rewritten.
	idFor := make(map[string]string, len(payload.Nodes))
	for _, n := range payload.Nodes {
		id := freshID("node")
		if n.ID != "" {
			idFor[n.ID] = id
		}

		graph.Nodes = append(graph.Nodes, workflow.Node{
			ID:       id,
			Kind:     workflow.NodeKind,
			Position: workflow.Position{}, // layout is a downstream concern
			Data: workflow.NodeData{
				CapabilityID: n.CapabilityID,
				Label:        n.Label,
				Description:  n.Description,
				Config:       n.Config,
			},
		})
	}

	// Rewrite placeholders that reference plan keys to the fresh ids.
	for i := range graph.Nodes {
		rewriteRefs(graph.Nodes[i].Data.Config, idFor)
	}

	for _, e := range payload.Edges {
		source, okS := idFor[e.Source]
		target, okT := idFor[e.Target]
		if !okS || !okT {
			if s.Logger != nil {
				s.Logger.Warn("dropping edge with unresolvable endpoint",
					slog.String("source", e.Source),
					slog.String("target", e.Target),
				)
			}
			continue
		}
		graph.Edges = append(graph.Edges, workflow.Edge{
			ID:       freshID("edge"),
			Source:   source,
			Target:   target,
			Kind:     workflow.EdgeKind,
			Animated: true,
			Style:    workflow.DefaultEdgeStyle(),
		})
	}

	// Translate planned data flow into field-reference placeholders on
	// the receiving node, without clobbering values already present.
	for _, flow := range pc.Plan.DataFlow {
		sourceID, okS := idFor[flow.Source]
		targetID, okT := idFor[flow.Target]
		if !okS || !okT || flow.Field == "" {
			continue
		}
		target := graph.Node(targetID)
		if target == nil {
			continue
		}
		if target.Data.Config == nil {
			target.Data.Config = make(map[string]any)
		}
		if existing, ok := target.Data.Config[flow.Field]; ok && existing != "" {
			continue
		}
		target.Data.Config[flow.Field] = template.Ref(sourceID, flow.Field)
	}

	return graph
}

// rewriteRefs maps placeholder node keys onto fresh ids in every string
// config value, recursing through nested maps.
func rewriteRefs(config map[string]any, idFor map[string]string) {
	for k, v := range config {
		switch val := v.(type) {
		case string:
			config[k] = rewriteRefString(val, idFor)
		case map[string]any:
			rewriteRefs(val, idFor)
		}
	}
}

func rewriteRefString(s string, idFor map[string]string) string {
	for _, ref := range template.Refs(s) {
		if fresh, ok := idFor[ref.Node]; ok {
			s = strings.ReplaceAll(s, ref.String(), template.Ref(fresh, ref.Field))
		}
	}
	return s
}

// freshID returns a unique, prefixed node or edge id.
func freshID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
