package graphsmith

// Role classifies a planned node's position in the graph.
type Role string

// Planned node roles.
const (
	RoleTrigger   Role = "trigger"
	RoleAction    Role = "action"
	RoleTransform Role = "transform"
)

// IntentDescriptor is the structured interpretation of a request,
// produced once per run by intent extraction and immutable thereafter.
type IntentDescriptor struct {
	// Goal is a short natural-language summary of the automation.
	Goal string `json:"goal"`

	// Triggers, Actions and Transforms hold capability-identifier-like
	// tokens, in the order the request implies.
	Triggers   []string `json:"triggers"`
	Actions    []string `json:"actions"`
	Transforms []string `json:"transforms,omitempty"`

	// CustomRequirements describes functionality absent from the library.
	CustomRequirements []string `json:"customRequirements,omitempty"`

	// IsModification is set when the request edits an existing workflow.
	IsModification bool `json:"isModification,omitempty"`

	// ExistingNodes lists node ids of the prior graph, when modifying.
	ExistingNodes []string `json:"existingNodes,omitempty"`
}

// CapabilityPlan decides which library capabilities to use, which must be
// custom-synthesized, and how they connect.
type CapabilityPlan struct {
	LibraryNodes []LibraryNode `json:"libraryNodes"`
	CustomNodes  []CustomNode  `json:"customNodes,omitempty"`
	Connections  []Connection  `json:"connections,omitempty"`
	DataFlow     []DataFlow    `json:"dataFlow,omitempty"`
}

// LibraryNode plans one node backed by a catalogue capability.
type LibraryNode struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Reason string `json:"reason,omitempty"`
}

// CustomNode plans one node whose code must be synthesized.
type CustomNode struct {
	Name         string `json:"name"`
	Role         Role   `json:"type"`
	Requirements string `json:"requirements"`
	Reason       string `json:"reason,omitempty"`
}

// Connection plans one edge between two planned nodes, referenced by
// capability id (library) or name (custom).
type Connection struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// DataFlow plans one propagated field between two planned nodes.
type DataFlow struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Field  string `json:"field"`
}

// NodeKeys returns the identifiers of every planned node, library ids
// first, in plan order.
func (p *CapabilityPlan) NodeKeys() []string {
	keys := make([]string, 0, len(p.LibraryNodes)+len(p.CustomNodes))
	for _, n := range p.LibraryNodes {
		keys = append(keys, n.ID)
	}
	for _, n := range p.CustomNodes {
		keys = append(keys, n.Name)
	}
	return keys
}
