package graphsmith

import (
	"context"
	"log/slog"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/integration"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// CustomStage generates code, schemas, and output declarations for the
// graph's custom nodes. Nodes that already carry executable code are left
// alone; when no node needs code the stage is skipped outright.
type CustomStage struct {
	Client llm.Client
	Logger *slog.Logger
	Retry  gserrors.RetryConfig
}

// customPayload is the wire shape of one generated capability.
type customPayload struct {
	Code         string          `json:"code"`
	ConfigSchema workflow.Schema `json:"configSchema"`
	Outputs      []string        `json:"outputs"`
}

// Run generates custom capabilities for every node that needs one.
func (s *CustomStage) Run(ctx context.Context, pc *PipelineContext) StepResult[*workflow.Graph] {
	graph := pc.Workflow

	var pending []*workflow.Node
	for i := range graph.Nodes {
		if graph.Nodes[i].NeedsCode() {
			pending = append(pending, &graph.Nodes[i])
		}
	}
	if len(pending) == 0 {
		return stepSkip[*workflow.Graph](graph)
	}

	usage := &llm.TokenUsage{}
	for _, node := range pending {
		if err := s.generate(ctx, node, usage); err != nil {
			return stepFail[*workflow.Graph](err, usage)
		}
		s.integrate(node)
	}

	return stepOK(graph, usage)
}

// generate produces code and schema for one node. A first attempt with an
// empty schema earns exactly one retry with an amended prompt; the retry
// result is accepted only when it is strictly better.
func (s *CustomStage) generate(ctx context.Context, node *workflow.Node, usage *llm.TokenUsage) error {
	payload, err := s.attempt(ctx, node, customUserPrompt(node), usage)
	if err != nil {
		return err
	}

	if len(payload.ConfigSchema) == 0 {
		if s.Logger != nil {
			s.Logger.Info("custom node schema empty, retrying with amended prompt",
				slog.String("node", node.ID))
		}
		retried, retryErr := s.attempt(ctx, node, customUserPrompt(node)+customRetryNote, usage)
		if retryErr == nil && workflow.IsExecutableCode(retried.Code) {
			payload = retried
		}
	}

	if !workflow.IsExecutableCode(payload.Code) {
		return &gserrors.ValidationError{
			Field:   node.ID,
			Message: "generated custom code has no executable statements",
		}
	}

	node.Data.CustomCode = payload.Code
	node.Data.ConfigSchema = payload.ConfigSchema
	outputs := payload.Outputs
	if len(outputs) == 0 {
		outputs = []string{"result"}
	}
	if node.Data.Metadata == nil {
		node.Data.Metadata = &workflow.Metadata{}
	}
	node.Data.Metadata.Outputs = outputs
	return nil
}

func (s *CustomStage) attempt(ctx context.Context, node *workflow.Node, user string, usage *llm.TokenUsage) (*customPayload, error) {
	resp, err := complete(ctx, s.Client, s.Retry, customSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	usage.Add(resp.Usage)

	payload, err := parseJSON[customPayload](resp.Content)
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// integrate reconciles the node's schema with what its code actually
// does: detected third-party endpoints gain a connection field and lose
// raw credential fields, and config references the schema missed become
// plain string fields.
func (s *CustomStage) integrate(node *workflow.Node) {
	if node.Data.ConfigSchema == nil {
		node.Data.ConfigSchema = workflow.Schema{}
	}
	schema := node.Data.ConfigSchema

	service, detected := integration.Detect(node.Data.CustomCode)
	if detected {
		if node.Data.Metadata == nil {
			node.Data.Metadata = &workflow.Metadata{}
		}
		node.Data.Metadata.Integration = service
		schema[integration.ConnectionFieldName] = integration.ConnectionField(service)

		// Authorization flows through the connection, never raw fields.
		for name := range schema {
			if name != integration.ConnectionFieldName && integration.IsCredentialField(name) {
				if s.Logger != nil {
					s.Logger.Debug("replacing credential field with connection",
						slog.String("node", node.ID), slog.String("field", name))
				}
				delete(schema, name)
			}
		}
	}

	for _, ref := range integration.ExtractConfigRefs(node.Data.CustomCode) {
		if _, declared := schema[ref]; declared {
			continue
		}
		if detected && integration.IsCredentialField(ref) {
			continue
		}
		field := workflow.Field{
			Type:        workflow.FieldString,
			Label:       ref,
			Description: "Value read by the generated code as config." + ref,
			Required:    false,
		}
		if rule, ok := integration.ResourceFor(resourceService(service, detected), ref); ok {
			field.Integration = rule.Service
			field.Resource = rule.Resource
		}
		schema[ref] = field
	}
}

func resourceService(service string, detected bool) string {
	if detected {
		return service
	}
	return ""
}
