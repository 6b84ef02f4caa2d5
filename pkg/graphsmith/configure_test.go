package graphsmith

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

func configureContext(g *workflow.Graph) *PipelineContext {
	pc := testContext("email ops when a row is added")
	pc.Intent = &IntentDescriptor{Goal: "Email ops when a sheet row is added"}
	pc.Workflow = g
	return pc
}

func TestConfigureStage_FillsOfferedFields(t *testing.T) {
	g := sheetToEmailGraph()
	mock := llm.NewMockClient(`{
		"node_email": {
			"to": "ops@example.com",
			"subject": "New row added"
		}
	}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	email := g.Node("node_email")
	assert.Equal(t, "ops@example.com", email.Data.Config["to"])
	assert.Equal(t, "New row added", email.Data.Config["subject"])

	// The prompt offered the fillable fields.
	require.NotNil(t, mock.LastCall())
	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "node_email")
	assert.Contains(t, prompt, "subject")
}

func TestConfigureStage_DiscardsUnofferedValues(t *testing.T) {
	g := sheetToEmailGraph()
	mock := llm.NewMockClient(`{
		"node_email": {"to": "ops@example.com", "madeUpField": "x"},
		"node_ghost": {"to": "elsewhere"}
	}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	email := g.Node("node_email")
	assert.Equal(t, "ops@example.com", email.Data.Config["to"])
	assert.NotContains(t, email.Data.Config, "madeUpField")
	assert.Nil(t, g.Node("node_ghost"))
}

func TestConfigureStage_NeverOffersCredentialFields(t *testing.T) {
	g := sheetToEmailGraph()
	mock := llm.NewMockClient(`{}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))
	require.True(t, res.Success)

	prompt := mock.LastCall().Messages[0].Content
	assert.NotContains(t, prompt, "connection")
}

func TestConfigureStage_NoFillableFieldsSkipsCall(t *testing.T) {
	g := &workflow.Graph{
		Nodes: []workflow.Node{{
			ID:   "node_x",
			Kind: workflow.NodeKind,
			Data: workflow.NodeData{
				CapabilityID: "unknown-capability",
				Description:  "d",
				Config:       map[string]any{},
			},
		}},
	}
	mock := llm.NewMockClient(`{}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	assert.Nil(t, res.Usage)
	assert.Equal(t, 0, mock.CallCount())
}

func TestConfigureStage_NormalizesCron(t *testing.T) {
	g := &workflow.Graph{
		Nodes: []workflow.Node{{
			ID:   "node_sched",
			Kind: workflow.NodeKind,
			Data: workflow.NodeData{
				CapabilityID: "schedule-trigger",
				Description:  "d",
				Config:       map[string]any{},
			},
		}},
	}
	mock := llm.NewMockClient(`{"node_sched": {"cron": "@daily"}}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	assert.Equal(t, "0 0 * * *", g.Node("node_sched").Data.Config["cron"])
}

func TestConfigureStage_DropsInvalidCron(t *testing.T) {
	g := &workflow.Graph{
		Nodes: []workflow.Node{{
			ID:   "node_sched",
			Kind: workflow.NodeKind,
			Data: workflow.NodeData{
				CapabilityID: "schedule-trigger",
				Description:  "d",
				Config:       map[string]any{},
			},
		}},
	}
	mock := llm.NewMockClient(`{"node_sched": {"cron": "every monday morning"}}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	assert.NotContains(t, g.Node("node_sched").Data.Config, "cron")
}

func TestConfigureStage_FlattensWebhookRefs(t *testing.T) {
	g := &workflow.Graph{
		Nodes: []workflow.Node{
			{
				ID:   "node_hook",
				Kind: workflow.NodeKind,
				Data: workflow.NodeData{
					CapabilityID: "webhook-trigger",
					Description:  "d",
					Config:       map[string]any{},
				},
			},
			{
				ID:   "node_email",
				Kind: workflow.NodeKind,
				Data: workflow.NodeData{
					CapabilityID: "send-email",
					Description:  "d",
					Config:       map[string]any{},
				},
			},
		},
	}
	mock := llm.NewMockClient(`{"node_email": {"body": "User: {{node_hook.payload.user.email}}"}}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	assert.Equal(t, "User: {{node_hook.payload}}", g.Node("node_email").Data.Config["body"])
}

func TestConfigureStage_CustomNodeUsesEmbeddedSchema(t *testing.T) {
	g := &workflow.Graph{
		Nodes: []workflow.Node{{
			ID:   "node_custom",
			Kind: workflow.NodeKind,
			Data: workflow.NodeData{
				CapabilityID: workflow.CustomCapabilityID,
				Description:  "d",
				CustomCode:   "return {result: config.threshold};",
				Config:       map[string]any{},
				ConfigSchema: workflow.Schema{
					"threshold":  {Type: workflow.FieldNumber, Label: "Threshold"},
					"connection": {Type: workflow.FieldConnection, Label: "Connect"},
				},
			},
		}},
	}
	mock := llm.NewMockClient(`{"node_custom": {"threshold": 10}}`)
	stage := &ConfigureStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), configureContext(g))

	require.True(t, res.Success)
	assert.Equal(t, float64(10), g.Node("node_custom").Data.Config["threshold"])

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "threshold")
	assert.NotContains(t, prompt, "connection")
}
