package graphsmith

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
)

func matchContext() *PipelineContext {
	pc := testContext("email ops when a row is added")
	pc.Intent = &IntentDescriptor{
		Goal:     "Email ops when a sheet row is added",
		Triggers: []string{"new-row-in-sheet"},
		Actions:  []string{"send-email"},
	}
	return pc
}

func TestMatchStage_PlansFromLibrary(t *testing.T) {
	mock := llm.NewMockClient(mustJSON(t, CapabilityPlan{
		LibraryNodes: []LibraryNode{
			{ID: "new-row-in-sheet", Role: RoleTrigger, Reason: "starts the workflow"},
			{ID: "send-email", Role: RoleAction, Reason: "delivers the notification"},
		},
		Connections: []Connection{{From: "new-row-in-sheet", To: "send-email"}},
		DataFlow:    []DataFlow{{Source: "new-row-in-sheet", Target: "send-email", Field: "rowData"}},
	}))
	stage := &MatchStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), matchContext())

	require.True(t, res.Success)
	assert.Len(t, res.Data.LibraryNodes, 2)
	assert.Empty(t, res.Data.CustomNodes)
	assert.Len(t, res.Data.Connections, 1)

	// The catalogue is in the prompt.
	require.NotNil(t, mock.LastCall())
	assert.Contains(t, mock.LastCall().Messages[0].Content, "new-row-in-sheet")
}

func TestMatchStage_EmptyPlanFails(t *testing.T) {
	mock := llm.NewMockClient(`{"libraryNodes": [], "customNodes": []}`)
	stage := &MatchStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), matchContext())

	require.False(t, res.Success)
	var valErr *gserrors.ValidationError
	require.ErrorAs(t, res.Err, &valErr)
}

func TestMatchStage_RemovesTriggerCapabilityWithActionRole(t *testing.T) {
	// webhook-trigger planned mid-flow with role "action" must go, along
	// with every connection and data flow touching it.
	mock := llm.NewMockClient(mustJSON(t, CapabilityPlan{
		LibraryNodes: []LibraryNode{
			{ID: "new-row-in-sheet", Role: RoleTrigger},
			{ID: "webhook-trigger", Role: RoleAction},
			{ID: "send-email", Role: RoleAction},
		},
		Connections: []Connection{
			{From: "new-row-in-sheet", To: "webhook-trigger"},
			{From: "webhook-trigger", To: "send-email"},
			{From: "new-row-in-sheet", To: "send-email"},
		},
		DataFlow: []DataFlow{
			{Source: "webhook-trigger", Target: "send-email", Field: "payload"},
			{Source: "new-row-in-sheet", Target: "send-email", Field: "rowData"},
		},
	}))
	stage := &MatchStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), matchContext())

	require.True(t, res.Success)
	require.Len(t, res.Data.LibraryNodes, 2)
	for _, n := range res.Data.LibraryNodes {
		assert.NotEqual(t, "webhook-trigger", n.ID)
	}
	require.Len(t, res.Data.Connections, 1)
	assert.Equal(t, "new-row-in-sheet", res.Data.Connections[0].From)
	require.Len(t, res.Data.DataFlow, 1)
	assert.Equal(t, "rowData", res.Data.DataFlow[0].Field)
}

func TestMatchStage_KeepsOnlyFirstTrigger(t *testing.T) {
	mock := llm.NewMockClient(mustJSON(t, CapabilityPlan{
		LibraryNodes: []LibraryNode{
			{ID: "new-row-in-sheet", Role: RoleTrigger},
			{ID: "new-email-received", Role: RoleTrigger},
			{ID: "send-email", Role: RoleAction},
		},
		CustomNodes: []CustomNode{
			{Name: "poll-status-page", Role: RoleTrigger, Requirements: "poll a status page"},
		},
	}))
	stage := &MatchStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), matchContext())

	require.True(t, res.Success)

	triggers := 0
	for _, n := range res.Data.LibraryNodes {
		if n.Role == RoleTrigger {
			triggers++
			assert.Equal(t, "new-row-in-sheet", n.ID)
		}
	}
	for _, n := range res.Data.CustomNodes {
		assert.NotEqual(t, RoleTrigger, n.Role)
	}
	assert.Equal(t, 1, triggers)
}

func TestMatchStage_CustomTriggerSurvivesWhenAlone(t *testing.T) {
	mock := llm.NewMockClient(mustJSON(t, CapabilityPlan{
		LibraryNodes: []LibraryNode{{ID: "send-email", Role: RoleAction}},
		CustomNodes: []CustomNode{
			{Name: "poll-status-page", Role: RoleTrigger, Requirements: "poll a status page"},
		},
	}))
	stage := &MatchStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), matchContext())

	require.True(t, res.Success)
	require.Len(t, res.Data.CustomNodes, 1)
	assert.Equal(t, RoleTrigger, res.Data.CustomNodes[0].Role)
}

func TestMatchStage_UnknownCapabilityIsPermitted(t *testing.T) {
	// The registry may lag the identifier list; unknown ids pass through.
	mock := llm.NewMockClient(mustJSON(t, CapabilityPlan{
		LibraryNodes: []LibraryNode{
			{ID: "new-row-in-sheet", Role: RoleTrigger},
			{ID: "brand-new-capability", Role: RoleAction},
		},
	}))
	stage := &MatchStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), matchContext())

	require.True(t, res.Success)
	assert.Len(t, res.Data.LibraryNodes, 2)
}
