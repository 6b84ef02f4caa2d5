package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
)

func TestMockClient_FixedResponse(t *testing.T) {
	mock := llm.NewMockClient(`{"ok": true}`)

	resp, err := mock.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, resp.Content)
	assert.Equal(t, 30, resp.Usage.TotalTokens)
}

func TestMockClient_SequentialResponses(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("first", "second")

	ctx := context.Background()
	req := llm.CompletionRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "x"}}}

	resp, err := mock.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = mock.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	// Cycles back to the start.
	resp, err = mock.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)
}

func TestMockClient_Error(t *testing.T) {
	wantErr := errors.New("collaborator down")
	mock := llm.NewMockClient("unused").WithError(wantErr)

	_, err := mock.Complete(context.Background(), llm.CompletionRequest{})
	require.ErrorIs(t, err, wantErr)
}

func TestMockClient_RecordsCalls(t *testing.T) {
	mock := llm.NewMockClient("ok")
	ctx := context.Background()

	_, err := mock.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "one"}},
	})
	require.NoError(t, err)
	_, err = mock.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "two"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.CallCount())
	require.NotNil(t, mock.LastCall())
	assert.Equal(t, "two", mock.LastCall().Messages[0].Content)

	mock.Reset()
	assert.Equal(t, 0, mock.CallCount())
	assert.Nil(t, mock.LastCall())
}

func TestMockClient_StreamAccumulates(t *testing.T) {
	content := `{"workflowName": "Test", "nodes": [{"id": "a"}], "edges": []}`
	mock := llm.NewMockClient(content)

	ch, err := mock.Stream(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)

	var accumulated string
	var usage *llm.TokenUsage
	for chunk := range ch {
		require.NoError(t, chunk.Error)
		accumulated += chunk.Content
		if chunk.Done {
			usage = chunk.Usage
		}
	}

	assert.Equal(t, content, accumulated)
	require.NotNil(t, usage)
	assert.Equal(t, 30, usage.TotalTokens)
}

func TestTokenUsage_Add(t *testing.T) {
	total := llm.TokenUsage{}
	total.Add(llm.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30})
	total.Add(llm.TokenUsage{InputTokens: 5, OutputTokens: 5, TotalTokens: 10})

	assert.Equal(t, 15, total.InputTokens)
	assert.Equal(t, 25, total.OutputTokens)
	assert.Equal(t, 40, total.TotalTokens)
}
