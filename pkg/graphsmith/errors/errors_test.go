package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryTransient, "transient"},
		{CategoryPermanent, "permanent"},
		{CategoryEscalatable, "escalatable"},
		{Category(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.category.String(); got != tt.expected {
				t.Errorf("Category(%d).String() = %s, want %s", tt.category, got, tt.expected)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil error", nil, CategoryPermanent},
		{"unavailable collaborator", &UnavailableError{Service: "claude"}, CategoryPermanent},
		{"HTTP 429", &HTTPError{StatusCode: 429}, CategoryTransient},
		{"HTTP 503", &HTTPError{StatusCode: 503}, CategoryTransient},
		{"HTTP 504", &HTTPError{StatusCode: 504}, CategoryTransient},
		{"HTTP 500", &HTTPError{StatusCode: 500}, CategoryTransient},
		{"HTTP 401", &HTTPError{StatusCode: 401}, CategoryPermanent},
		{"HTTP 400", &HTTPError{StatusCode: 400}, CategoryEscalatable},
		{"JSON parse error", &JSONParseError{Message: "unexpected token"}, CategoryEscalatable},
		{"validation error", &ValidationError{Field: "nodes", Message: "empty"}, CategoryPermanent},
		{"timeout error", &TimeoutError{Operation: "synthesis", Duration: "2m"}, CategoryTransient},
		{"deadline exceeded", context.DeadlineExceeded, CategoryTransient},
		{"cancelled", context.Canceled, CategoryPermanent},
		{"categorized error", &CategorizedError{Category: CategoryTransient}, CategoryTransient},
		{"unknown error", errors.New("unknown"), CategoryPermanent},
		{"wrapped validation error", fmt.Errorf("stage: %w", &ValidationError{Field: "x"}), CategoryPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.err); got != tt.expected {
				t.Errorf("Categorize() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&TimeoutError{Operation: "call"}) {
		t.Error("timeout should be retryable")
	}
	if IsRetryable(&ValidationError{Field: "x"}) {
		t.Error("validation error should not be retryable")
	}
	if IsRetryable(&JSONParseError{Message: "bad"}) {
		t.Error("parse error should escalate, not retry")
	}
}

func TestIsEscalatable(t *testing.T) {
	if !IsEscalatable(&JSONParseError{Message: "bad"}) {
		t.Error("parse error should be escalatable")
	}
	if IsEscalatable(&TimeoutError{Operation: "call"}) {
		t.Error("timeout should not be escalatable")
	}
}

func TestCategorizedErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Transient(inner, "calling collaborator")

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if err.Category != CategoryTransient {
		t.Errorf("Category = %s, want transient", err.Category)
	}
}

func TestWithRetryContext_SucceedsAfterTransient(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}

	attempts := 0
	result := WithRetryContext(context.Background(), cfg, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", &TimeoutError{Operation: "call", Duration: "1s"}
		}
		return "ok", nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value != "ok" {
		t.Errorf("Value = %q, want ok", result.Value)
	}
	if result.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", result.Attempts)
	}
}

func TestWithRetryContext_PermanentFailsImmediately(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}

	attempts := 0
	result := WithRetryContext(context.Background(), cfg, func(ctx context.Context) (int, error) {
		attempts++
		return 0, &ValidationError{Field: "graph", Message: "broken"}
	})

	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent)", attempts)
	}

	var valErr *ValidationError
	if !errors.As(result.Err, &valErr) {
		t.Error("expected the validation error to be preserved in the chain")
	}
}

func TestWithRetryContext_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}

	attempts := 0
	result := WithRetryContext(context.Background(), cfg, func(ctx context.Context) (string, error) {
		attempts++
		return "", &TimeoutError{Operation: "call", Duration: "1s"}
	})

	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryContext_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := WithRetryContext(ctx, DefaultRetry, func(ctx context.Context) (string, error) {
		t.Fatal("fn should not run with a cancelled context")
		return "", nil
	})

	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if result.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", result.Attempts)
	}
}

func TestNoRetrySingleAttempt(t *testing.T) {
	attempts := 0
	result := WithRetryContext(context.Background(), NoRetry, func(ctx context.Context) (string, error) {
		attempts++
		return "", &TimeoutError{Operation: "call"}
	})

	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
