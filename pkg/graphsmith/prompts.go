package graphsmith

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/catalog"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// intentSystemPrompt constrains the collaborator to IntentDescriptor fields.
const intentSystemPrompt = `You analyze workflow automation requests.
Respond with a single JSON object and nothing else:
{
  "goal": "one-sentence summary of the automation",
  "triggers": ["kebab-case tokens naming the events that start the workflow"],
  "actions": ["kebab-case tokens naming the work to perform"],
  "transforms": ["kebab-case tokens for filtering or reshaping steps, if any"],
  "customRequirements": ["descriptions of functionality no common automation library provides"],
  "isModification": false
}
Use "triggers" for events that start the workflow and "actions" for work performed afterwards.
Only list a customRequirement when the functionality is genuinely unusual.`

func intentUserPrompt(request string, existingNodes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", request)
	if len(existingNodes) > 0 {
		fmt.Fprintf(&b, "\nThe user is modifying an existing workflow with these nodes: %s\n",
			strings.Join(existingNodes, ", "))
		b.WriteString(`Set "isModification" to true.` + "\n")
	}
	return b.String()
}

// matchSystemPrompt constrains the collaborator to CapabilityPlan fields.
const matchSystemPrompt = `You map automation intents onto a fixed capability library.
Respond with a single JSON object and nothing else:
{
  "libraryNodes": [{"id": "capability-id", "role": "trigger|action|transform", "reason": "why"}],
  "customNodes": [{"name": "short-name", "type": "trigger|action|transform", "requirements": "what the code must do", "reason": "why the library cannot cover it"}],
  "connections": [{"from": "id-or-name", "to": "id-or-name", "reason": "why"}],
  "dataFlow": [{"source": "id-or-name", "target": "id-or-name", "field": "field carrying the data"}]
}
Rules:
- Prefer library capabilities whenever one fits well enough. Only use customNodes when no entry can satisfy the requirement.
- Exactly one node has role "trigger".
- Trigger capabilities may only be used with role "trigger".
- Connections flow from the trigger through transforms to actions.`

func matchUserPrompt(intent *IntentDescriptor, caps []catalog.Capability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", intent.Goal)
	fmt.Fprintf(&b, "Triggers wanted: %s\n", strings.Join(intent.Triggers, ", "))
	fmt.Fprintf(&b, "Actions wanted: %s\n", strings.Join(intent.Actions, ", "))
	if len(intent.Transforms) > 0 {
		fmt.Fprintf(&b, "Transforms wanted: %s\n", strings.Join(intent.Transforms, ", "))
	}
	if len(intent.CustomRequirements) > 0 {
		fmt.Fprintf(&b, "Custom requirements: %s\n", strings.Join(intent.CustomRequirements, "; "))
	}

	b.WriteString("\nCapability library:\n")
	for _, c := range caps {
		fmt.Fprintf(&b, "- %s (%s): %s\n", c.ID, c.Category, c.Description)
	}
	return b.String()
}

// synthesisSystemPrompt constrains the collaborator to graph JSON.
const synthesisSystemPrompt = `You materialize a capability plan into a workflow graph.
Respond with a single JSON object and nothing else:
{
  "workflowName": "short name",
  "reasoning": "one paragraph explaining the structure",
  "nodes": [{"id": "plan id or name", "capabilityId": "library id or custom-code", "label": "human label", "description": "what this node does"}],
  "edges": [{"source": "node id", "target": "node id"}]
}
Rules:
- Every node needs a non-empty description.
- Use capabilityId "custom-code" for planned custom nodes.
- Reference upstream data inside configuration values as {{node_id.field}}.`

func synthesisUserPrompt(plan *CapabilityPlan) string {
	var b strings.Builder
	b.WriteString("Plan:\n")
	for _, n := range plan.LibraryNodes {
		fmt.Fprintf(&b, "- library node %s (role %s): %s\n", n.ID, n.Role, n.Reason)
	}
	for _, n := range plan.CustomNodes {
		fmt.Fprintf(&b, "- custom node %s (role %s): %s\n", n.Name, n.Role, n.Requirements)
	}
	for _, c := range plan.Connections {
		fmt.Fprintf(&b, "- connect %s -> %s\n", c.From, c.To)
	}
	for _, d := range plan.DataFlow {
		fmt.Fprintf(&b, "- data: %s.%s -> %s\n", d.Source, d.Field, d.Target)
	}
	return b.String()
}

// configureSystemPrompt constrains the collaborator to config values.
const configureSystemPrompt = `You fill configuration values for workflow nodes.
Respond with a single JSON object mapping node id to field values and nothing else:
{"node-id": {"field": "value"}}
Rules:
- Fill a field only when the request states its value or it is unambiguously inferable. Leave it out otherwise.
- Normalize natural-language schedules to a five-field cron expression (minute hour day-of-month month day-of-week).
- Reference upstream data as {{node_id.field}}. References into webhook payloads must be a single level deep.
- Never fill credentials, API keys, tokens, or passwords.`

// fillableField describes one field offered to the collaborator.
type fillableField struct {
	Node        string
	Field       string
	Type        workflow.FieldType
	Description string
}

func configureUserPrompt(request string, intent *IntentDescriptor, fields []fillableField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", request)
	fmt.Fprintf(&b, "Goal: %s\n\n", intent.Goal)
	b.WriteString("Fillable fields:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- node %s, field %s (%s): %s\n", f.Node, f.Field, f.Type, f.Description)
	}
	return b.String()
}

// customSystemPrompt constrains the collaborator to generated-capability JSON.
const customSystemPrompt = `You write JavaScript for a custom workflow node.
Respond with a single JSON object and nothing else:
{
  "code": "async function handler(config, input) { ... return output; }",
  "configSchema": {"fieldName": {"type": "string", "label": "Label", "description": "what it configures", "required": true}},
  "outputs": ["names of fields the node returns"]
}
Rules:
- Read user-supplied settings from the config parameter.
- Declare every config field the code reads in configSchema.
- Return a plain object; its keys are the node's outputs.`

func customUserPrompt(node *workflow.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node: %s\n", node.Data.Label)
	fmt.Fprintf(&b, "Purpose: %s\n", node.Data.Description)
	return b.String()
}

// customRetryNote amends the prompt when the first attempt's schema was empty.
const customRetryNote = `

The previous attempt declared no configuration fields. The node must be
parameterized: extract every user-tunable value (URLs, names, thresholds,
messages) into configSchema instead of hardcoding it.`

// refineSystemPrompt constrains the advisory pass to textual refinements.
const refineSystemPrompt = `You polish the text of a workflow graph.
You may improve node labels and descriptions and the workflow name.
You must not add, remove, or re-identify nodes or edges, and must not touch
config, code, or schemas.
Respond with the full graph JSON in the same shape you received.`

func refineUserPrompt(g *workflow.Graph) string {
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return string(data)
}
