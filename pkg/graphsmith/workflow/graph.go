// Package workflow defines the generated-graph data model: the terminal
// artifact of the pipeline and the contract with the execution engine.
package workflow

import "strings"

// Fixed discriminators for serialized nodes and edges.
const (
	// NodeKind is the type discriminator every node carries.
	NodeKind = "workflowNode"

	// EdgeKind is the type discriminator every edge carries.
	EdgeKind = "workflowEdge"
)

// CustomCapabilityID is the sentinel capability identifier for nodes whose
// code is synthesized at generation time rather than drawn from the library.
const CustomCapabilityID = "custom-code"

// Graph is the produced workflow: typed processing nodes connected by
// data-flow edges.
type Graph struct {
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Reasoning string `json:"reasoning,omitempty"`
	Name      string `json:"workflowName,omitempty"`
}

// Node is a typed unit of work in the graph.
type Node struct {
	ID       string   `json:"id"`
	Kind     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NodeData carries the capability binding and configuration of a node.
type NodeData struct {
	// CapabilityID is a library identifier, or CustomCapabilityID for
	// generated nodes.
	CapabilityID string         `json:"capabilityId"`
	Label        string         `json:"label"`
	Description  string         `json:"description"`
	Config       map[string]any `json:"config"`

	// Set only on generated nodes.
	CustomCode   string    `json:"customCode,omitempty"`
	ConfigSchema Schema    `json:"configSchema,omitempty"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// Metadata holds generation-time annotations on a node.
type Metadata struct {
	// Outputs names the fields this node exposes to downstream nodes.
	Outputs []string `json:"outputs,omitempty"`

	// Integration identifies the detected third-party service, if any.
	Integration string `json:"integration,omitempty"`
}

// Edge connects two nodes. Both endpoints must resolve to node ids.
type Edge struct {
	ID       string     `json:"id"`
	Source   string     `json:"source"`
	Target   string     `json:"target"`
	Kind     string     `json:"type"`
	Animated bool       `json:"animated"`
	Style    *EdgeStyle `json:"style,omitempty"`
}

// Position is a node coordinate pair. The pipeline always emits (0,0);
// layout is a downstream concern.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgeStyle is the visual stroke configuration of an edge.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

// DefaultEdgeStyle returns the stroke applied to edges missing a style.
func DefaultEdgeStyle() *EdgeStyle {
	return &EdgeStyle{Stroke: "#6366f1", StrokeWidth: 2}
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	return g.Node(id) != nil
}

// NodeIDs returns the ids of all nodes, in graph order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// IsCustom reports whether the node's code is generated rather than drawn
// from the capability library.
func (n *Node) IsCustom() bool {
	return n.Data.CapabilityID == CustomCapabilityID
}

// NeedsCode reports whether a custom node still requires code synthesis:
// its code is absent or placeholder-only.
func (n *Node) NeedsCode() bool {
	if !n.IsCustom() {
		return false
	}
	return !IsExecutableCode(n.Data.CustomCode)
}

// IsExecutableCode reports whether code contains anything beyond comments
// and blank lines. Comment-only stubs are treated as absent.
func IsExecutableCode(code string) bool {
	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if inBlock {
			if idx := strings.Index(line, "*/"); idx >= 0 {
				inBlock = false
				line = strings.TrimSpace(line[idx+2:])
				if line == "" {
					continue
				}
			} else {
				continue
			}
		}
		if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "/*") {
			if !strings.Contains(line, "*/") {
				inBlock = true
			}
			continue
		}
		return true
	}
	return false
}
