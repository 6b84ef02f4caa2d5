package graphsmith

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/catalog"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRetry makes tests fast: one attempt, no backoff.
var testRetry = gserrors.NoRetry

// testContext builds a PipelineContext against the builtin catalogue.
func testContext(request string) *PipelineContext {
	return &PipelineContext{
		RunID:   "test-run",
		Request: request,
		Catalog: catalog.Builtin(),
		Logger:  discardLogger(),
	}
}

// mustJSON marshals v for use as a canned collaborator response.
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal canned response: %v", err)
	}
	return string(data)
}

// sheetToEmailGraph is a small valid two-node graph used across tests.
func sheetToEmailGraph() *workflow.Graph {
	g := &workflow.Graph{
		Name: "Sheet to email",
		Nodes: []workflow.Node{
			{
				ID:   "node_sheet",
				Kind: workflow.NodeKind,
				Data: workflow.NodeData{
					CapabilityID: "new-row-in-sheet",
					Label:        "New row",
					Description:  "Fires when a row is appended",
					Config:       map[string]any{},
				},
			},
			{
				ID:   "node_email",
				Kind: workflow.NodeKind,
				Data: workflow.NodeData{
					CapabilityID: "send-email",
					Label:        "Send email",
					Description:  "Emails the new row",
					Config:       map[string]any{},
				},
			},
		},
		Edges: []workflow.Edge{
			{
				ID:       "edge_1",
				Source:   "node_sheet",
				Target:   "node_email",
				Kind:     workflow.EdgeKind,
				Animated: true,
				Style:    workflow.DefaultEdgeStyle(),
			},
		},
	}
	return g
}
