package workflow

import "fmt"

// Normalize applies idempotent defaults to a graph in place. It never
// fails and never changes structure: node/edge counts and ids are
// preserved.
//
// Defaults applied:
//   - missing edge styles get DefaultEdgeStyle
//   - edge animation is forced on
//   - positions stay (0,0); layout is a downstream concern
//   - nil config maps become empty maps
//   - missing descriptions get a placeholder built from the label or
//     capability id
func Normalize(g *Graph) {
	if g == nil {
		return
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind == "" {
			n.Kind = NodeKind
		}
		if n.Data.Config == nil {
			n.Data.Config = make(map[string]any)
		}
		if n.Data.Description == "" {
			n.Data.Description = placeholderDescription(n)
		}
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Kind == "" {
			e.Kind = EdgeKind
		}
		e.Animated = true
		if e.Style == nil {
			e.Style = DefaultEdgeStyle()
		}
	}
}

// placeholderDescription synthesizes a description from the label or
// capability id.
func placeholderDescription(n *Node) string {
	switch {
	case n.Data.Label != "":
		return fmt.Sprintf("%s step", n.Data.Label)
	case n.Data.CapabilityID != "":
		return fmt.Sprintf("Runs the %s capability", n.Data.CapabilityID)
	default:
		return "Workflow step"
	}
}
