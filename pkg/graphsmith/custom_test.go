package graphsmith

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/integration"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

func customGraph() *workflow.Graph {
	return &workflow.Graph{
		Nodes: []workflow.Node{
			{
				ID:   "node_trigger",
				Kind: workflow.NodeKind,
				Data: workflow.NodeData{
					CapabilityID: "schedule-trigger",
					Description:  "d",
					Config:       map[string]any{},
				},
			},
			{
				ID:   "node_score",
				Kind: workflow.NodeKind,
				Data: workflow.NodeData{
					CapabilityID: workflow.CustomCapabilityID,
					Label:        "Score lead",
					Description:  "Scores each lead against the rubric",
					Config:       map[string]any{},
				},
			},
		},
	}
}

func customContext(g *workflow.Graph) *PipelineContext {
	pc := testContext("score leads nightly")
	pc.Workflow = g
	return pc
}

func TestCustomStage_SkipsWhenNothingToGenerate(t *testing.T) {
	g := sheetToEmailGraph()
	mock := llm.NewMockClient("unused")
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.True(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Nil(t, res.Usage)
	assert.Equal(t, 0, mock.CallCount())
}

func TestCustomStage_GeneratesCodeAndSchema(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient(`{
		"code": "async function handler(config, input) { return {score: input.value * config.weight}; }",
		"configSchema": {"weight": {"type": "number", "label": "Weight", "required": true}},
		"outputs": ["score"]
	}`)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.True(t, res.Success)
	node := g.Node("node_score")
	assert.Contains(t, node.Data.CustomCode, "async function handler")
	assert.Equal(t, workflow.FieldNumber, node.Data.ConfigSchema["weight"].Type)
	require.NotNil(t, node.Data.Metadata)
	assert.Equal(t, []string{"score"}, node.Data.Metadata.Outputs)
	assert.Equal(t, 1, mock.CallCount())
	require.NotNil(t, res.Usage)
	assert.Equal(t, 30, res.Usage.TotalTokens)
}

func TestCustomStage_DefaultsOutputs(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient(`{
		"code": "return {result: 1};",
		"configSchema": {"limit": {"type": "number"}}
	}`)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.True(t, res.Success)
	assert.Equal(t, []string{"result"}, g.Node("node_score").Data.Metadata.Outputs)
}

func TestCustomStage_RetriesOnceOnEmptySchema(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient("").WithResponses(
		`{"code": "return fetch(config.url);", "configSchema": {}}`,
		`{"code": "return fetch(config.url);", "configSchema": {"url": {"type": "string", "label": "URL"}}, "outputs": ["response"]}`,
	)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.True(t, res.Success)
	assert.Equal(t, 2, mock.CallCount())

	// The retried prompt carries the parameterization note.
	retryPrompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, retryPrompt, "previous attempt")

	node := g.Node("node_score")
	assert.Contains(t, node.Data.ConfigSchema, "url")
	// Both attempts are accounted.
	require.NotNil(t, res.Usage)
	assert.Equal(t, 60, res.Usage.TotalTokens)
}

func TestCustomStage_KeepsFirstAttemptWhenRetryWorse(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient("").WithResponses(
		`{"code": "return {result: compute()};", "configSchema": {}}`,
		`not json at all`,
	)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	// First attempt's code survives; its empty schema is then populated
	// by the reference post-pass (none here, so it stays empty but the
	// stage itself does not fail on schema emptiness after retry).
	require.True(t, res.Success)
	assert.Contains(t, g.Node("node_score").Data.CustomCode, "compute()")
	assert.Equal(t, 2, mock.CallCount())
}

func TestCustomStage_FailsOnCommentOnlyCode(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient(`{
		"code": "// TODO implement later",
		"configSchema": {"x": {"type": "string"}}
	}`)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.False(t, res.Success)
	var valErr *gserrors.ValidationError
	require.ErrorAs(t, res.Err, &valErr)
}

func TestCustomStage_IntegrationPostPass(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient(`{
		"code": "async function handler(config, input) { return fetch('https://hooks.slack.com/services/X', {headers: {Authorization: config.apiKey}, body: JSON.stringify({channel: config.channel, keyword: config.keyword})}); }",
		"configSchema": {"apiKey": {"type": "string", "label": "API Key"}},
		"outputs": ["posted"]
	}`)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.True(t, res.Success)
	node := g.Node("node_score")
	schema := node.Data.ConfigSchema

	// Integration detected and recorded.
	require.NotNil(t, node.Data.Metadata)
	assert.Equal(t, "slack", node.Data.Metadata.Integration)

	// A connection field is injected; the raw credential field is gone.
	conn, ok := schema[integration.ConnectionFieldName]
	require.True(t, ok)
	assert.Equal(t, workflow.FieldConnection, conn.Type)
	assert.Equal(t, "slack", conn.Integration)
	assert.NotContains(t, schema, "apiKey")

	// Referenced-but-undeclared fields become string fields; the channel
	// one picks up resource metadata.
	channel, ok := schema["channel"]
	require.True(t, ok)
	assert.Equal(t, "slack", channel.Integration)
	assert.Equal(t, "channel", channel.Resource)

	keyword, ok := schema["keyword"]
	require.True(t, ok)
	assert.Equal(t, workflow.FieldString, keyword.Type)
	assert.Empty(t, keyword.Resource)
}

func TestCustomStage_SkipsCredentialShapedRefs(t *testing.T) {
	g := customGraph()
	mock := llm.NewMockClient(`{
		"code": "return fetch('https://api.github.com/repos', {headers: {auth: config.accessToken}, body: config.repo});",
		"configSchema": {"repo": {"type": "string"}}
	}`)
	stage := &CustomStage{Client: mock, Logger: discardLogger(), Retry: testRetry}

	res := stage.Run(context.Background(), customContext(g))

	require.True(t, res.Success)
	schema := g.Node("node_score").Data.ConfigSchema
	assert.NotContains(t, schema, "accessToken")
	assert.Contains(t, schema, "repo")
	assert.Contains(t, schema, integration.ConnectionFieldName)
}
