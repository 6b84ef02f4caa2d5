package workflow

import (
	"errors"
	"fmt"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
)

// Validate checks the structural invariants of a graph. It returns an
// error joining every violation found, or nil.
//
// Invariants:
//   - every node has a non-empty id, the fixed kind discriminator, a
//     non-empty capability id, and a non-empty description
//   - generated nodes carry non-empty code and a non-empty schema
//   - node ids are unique
//   - every edge has an id, the fixed kind discriminator, animated set,
//     and both endpoints resolving to existing node ids
func Validate(g *Graph) error {
	if g == nil {
		return &gserrors.ValidationError{Message: "graph is nil"}
	}

	var violations []error
	fail := func(field, format string, args ...any) {
		violations = append(violations, &gserrors.ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		where := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			fail(where+".id", "node id is empty")
		} else if seen[n.ID] {
			fail(where+".id", "duplicate node id %q", n.ID)
		} else {
			seen[n.ID] = true
		}

		if n.Kind != NodeKind {
			fail(where+".type", "expected %q, got %q", NodeKind, n.Kind)
		}
		if n.Data.CapabilityID == "" {
			fail(where+".data.capabilityId", "capability id is empty")
		}
		if n.Data.Description == "" {
			fail(where+".data.description", "description is empty")
		}

		if n.IsCustom() {
			if !IsExecutableCode(n.Data.CustomCode) {
				fail(where+".data.customCode", "generated node %q has no executable code", n.ID)
			}
			if len(n.Data.ConfigSchema) == 0 {
				fail(where+".data.configSchema", "generated node %q has an empty schema", n.ID)
			}
		}
	}

	for i, e := range g.Edges {
		where := fmt.Sprintf("edges[%d]", i)
		if e.ID == "" {
			fail(where+".id", "edge id is empty")
		}
		if e.Kind != EdgeKind {
			fail(where+".type", "expected %q, got %q", EdgeKind, e.Kind)
		}
		if !e.Animated {
			fail(where+".animated", "edges must be animated")
		}
		if e.Source == "" {
			fail(where+".source", "edge source is empty")
		} else if !seen[e.Source] {
			fail(where+".source", "source %q does not resolve to a node", e.Source)
		}
		if e.Target == "" {
			fail(where+".target", "edge target is empty")
		} else if !seen[e.Target] {
			fail(where+".target", "target %q does not resolve to a node", e.Target)
		}
	}

	return errors.Join(violations...)
}
