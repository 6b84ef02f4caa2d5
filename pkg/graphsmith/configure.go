package graphsmith

import (
	"context"
	"log/slog"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/template"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// ConfigureStage fills node configuration fields from the request text.
// Only fillable fields are offered to the collaborator; connection and
// credential fields never cross the boundary in either direction.
type ConfigureStage struct {
	Client llm.Client
	Logger *slog.Logger
	Retry  gserrors.RetryConfig
}

// Run configures the graph in the pipeline context in place.
func (s *ConfigureStage) Run(ctx context.Context, pc *PipelineContext) StepResult[*workflow.Graph] {
	graph := pc.Workflow

	fields := s.collectFillable(pc, graph)
	if len(fields) == 0 {
		if s.Logger != nil {
			s.Logger.Debug("no fillable fields, skipping configuration call")
		}
		return stepOK(graph, nil)
	}

	resp, err := complete(ctx, s.Client, s.Retry,
		configureSystemPrompt, configureUserPrompt(pc.Request, pc.Intent, fields))
	if err != nil {
		return stepFail[*workflow.Graph](err, nil)
	}

	values, err := parseJSON[map[string]map[string]any](resp.Content)
	if err != nil {
		return stepFail[*workflow.Graph](err, &resp.Usage)
	}

	s.apply(pc, graph, fields, values)

	return stepOK(graph, &resp.Usage)
}

// collectFillable gathers every field the collaborator may set: fillable
// schema fields of library nodes, by schema from the catalog, and of
// custom nodes, by their embedded schema.
func (s *ConfigureStage) collectFillable(pc *PipelineContext, graph *workflow.Graph) []fillableField {
	var fields []fillableField
	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		schema := s.schemaFor(pc, node)
		for _, name := range schema.Fillable() {
			f := schema[name]
			fields = append(fields, fillableField{
				Node:        node.ID,
				Field:       name,
				Type:        f.Type,
				Description: f.Description,
			})
		}
	}
	return fields
}

func (s *ConfigureStage) schemaFor(pc *PipelineContext, node *workflow.Node) workflow.Schema {
	if node.IsCustom() {
		return node.Data.ConfigSchema
	}
	if cap, ok := pc.Catalog.Get(node.Data.CapabilityID); ok {
		return cap.ConfigSchema
	}
	return nil
}

// apply merges returned values into node configs. Only offered fields are
// honored; anything else in the response is discarded. Cron fields are
// normalized, webhook references flattened to one level.
func (s *ConfigureStage) apply(pc *PipelineContext, graph *workflow.Graph, fields []fillableField, values map[string]map[string]any) {
	offered := make(map[string]map[string]workflow.FieldType, len(graph.Nodes))
	for _, f := range fields {
		if offered[f.Node] == nil {
			offered[f.Node] = make(map[string]workflow.FieldType)
		}
		offered[f.Node][f.Field] = f.Type
	}

	for nodeID, nodeValues := range values {
		allowed := offered[nodeID]
		node := graph.Node(nodeID)
		if allowed == nil || node == nil {
			if s.Logger != nil {
				s.Logger.Warn("discarding values for unknown node", slog.String("node", nodeID))
			}
			continue
		}
		if node.Data.Config == nil {
			node.Data.Config = make(map[string]any)
		}
		for field, value := range nodeValues {
			ftype, ok := allowed[field]
			if !ok {
				if s.Logger != nil {
					s.Logger.Warn("discarding value for unoffered field",
						slog.String("node", nodeID), slog.String("field", field))
				}
				continue
			}
			if v, keep := s.normalizeValue(pc, graph, ftype, value); keep {
				node.Data.Config[field] = v
			}
		}
	}
}

// normalizeValue post-processes a single returned value. Invalid cron
// expressions are dropped rather than written into the graph.
func (s *ConfigureStage) normalizeValue(pc *PipelineContext, graph *workflow.Graph, ftype workflow.FieldType, value any) (any, bool) {
	str, isString := value.(string)
	if !isString {
		return value, true
	}

	if ftype == workflow.FieldCron {
		normalized, ok := NormalizeCron(str)
		if !ok {
			if s.Logger != nil {
				s.Logger.Warn("dropping invalid cron expression", slog.String("value", str))
			}
			return nil, false
		}
		return normalized, true
	}

	// Webhook payloads are opaque; references into them cannot be deeper
	// than one level.
	if template.Contains(str) {
		str = s.flattenWebhookRefs(pc, graph, str)
	}
	return str, true
}

func (s *ConfigureStage) flattenWebhookRefs(pc *PipelineContext, graph *workflow.Graph, str string) string {
	for _, ref := range template.Refs(str) {
		source := graph.Node(ref.Node)
		if source == nil {
			continue
		}
		if source.Data.CapabilityID == "webhook-trigger" {
			return template.Flatten(str)
		}
	}
	return str
}
