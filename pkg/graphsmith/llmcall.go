package graphsmith

import (
	"context"
	"errors"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
)

// complete performs one collaborator call with stage-local retry for
// transient failures.
func complete(ctx context.Context, client llm.Client, retry gserrors.RetryConfig, system, user string) (*llm.CompletionResponse, error) {
	req := llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: user}},
	}

	cfg := retry
	if cfg.RetryableFunc == nil {
		cfg.RetryableFunc = transientCollaboratorError
	}

	result := gserrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return client.Complete(ctx, req)
	})
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Value, nil
}

// transientCollaboratorError reports whether a collaborator failure is
// worth one more attempt.
func transientCollaboratorError(err error) bool {
	var clientErr *llm.Error
	if errors.As(err, &clientErr) {
		return clientErr.Retryable
	}
	return gserrors.IsRetryable(err)
}
