package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
)

// ClaudeCLI implements Client by shelling out to the claude binary.
// Completions use the CLI's JSON output format so token usage is real,
// not estimated.
type ClaudeCLI struct {
	path    string
	model   string
	workdir string
	timeout time.Duration
}

// ClaudeOption configures ClaudeCLI.
type ClaudeOption func(*ClaudeCLI)

// NewClaudeCLI creates a CLI-backed client. The binary is resolved from
// PATH unless WithClaudePath overrides it.
func NewClaudeCLI(opts ...ClaudeOption) *ClaudeCLI {
	c := &ClaudeCLI{
		path:    "claude",
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithClaudePath sets the path to the claude binary.
func WithClaudePath(path string) ClaudeOption {
	return func(c *ClaudeCLI) { c.path = path }
}

// WithModel sets the default model.
func WithModel(model string) ClaudeOption {
	return func(c *ClaudeCLI) { c.model = model }
}

// WithWorkdir sets the working directory for claude commands.
func WithWorkdir(dir string) ClaudeOption {
	return func(c *ClaudeCLI) { c.workdir = dir }
}

// WithTimeout sets the default timeout for commands.
func WithTimeout(d time.Duration) ClaudeOption {
	return func(c *ClaudeCLI) { c.timeout = d }
}

// cliResult is the shape of `claude --print --output-format json`.
type cliResult struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete implements Client.
func (c *ClaudeCLI) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cmd := c.command(ctx, req, "--output-format", "json")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, c.runError("complete", err, stderr.String(), ctx)
	}

	resp := &CompletionResponse{
		Model:        c.model,
		FinishReason: "stop",
		Duration:     time.Since(start),
	}

	var result cliResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		// Older CLI versions print plain text regardless of the flag.
		resp.Content = strings.TrimSpace(stdout.String())
		return resp, nil
	}
	if result.IsError {
		return nil, NewError("complete", fmt.Errorf("claude reported an error: %s", result.Result), false)
	}

	resp.Content = strings.TrimSpace(result.Result)
	resp.Usage = TokenUsage{
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		TotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens,
	}
	return resp, nil
}

// Stream implements Client. Chunks are read line by line from the CLI's
// stream-json output and forwarded as they arrive; the final chunk
// carries usage when the CLI reports it.
func (c *ClaudeCLI) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	ctx, cancel := c.withTimeout(ctx)

	cmd := c.command(ctx, req, "--output-format", "stream-json", "--verbose")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, NewError("stream", fmt.Errorf("create stdout pipe: %w", err), false)
	}

	if err := cmd.Start(); err != nil {
		defer cancel()
		return nil, c.runError("stream", err, "", ctx)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer cancel()
		defer func() { _ = cmd.Wait() }()

		deliver := func(chunk StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				ch <- StreamChunk{Error: ctx.Err()}
				return false
			}
		}

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		finished := false
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			chunk, terminal, ok := parseStreamLine(line)
			if !ok {
				continue
			}
			if !deliver(chunk) {
				return
			}
			if terminal {
				finished = true
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: NewError("stream", fmt.Errorf("read output: %w", err), false)}
			return
		}

		// The CLI exited without a result event; close the stream cleanly.
		if !finished {
			deliver(StreamChunk{Done: true})
		}
	}()

	return ch, nil
}

// streamLine is one line of stream-json output. Only delta and result
// events matter here; everything else is protocol noise.
type streamLine struct {
	Type  string `json:"type"`
	Delta *struct {
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Result string `json:"result,omitempty"`
	Usage  *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// parseStreamLine maps a raw output line to a chunk. Unparseable lines
// are forwarded as raw text; unknown event types are dropped.
func parseStreamLine(line string) (chunk StreamChunk, terminal, ok bool) {
	var ev streamLine
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return StreamChunk{Content: line + "\n"}, false, true
	}

	switch ev.Type {
	case "content_block_delta":
		if ev.Delta == nil || ev.Delta.Text == "" {
			return StreamChunk{}, false, false
		}
		return StreamChunk{Content: ev.Delta.Text}, false, true
	case "result", "message_stop":
		chunk := StreamChunk{Done: true}
		if ev.Usage != nil {
			chunk.Usage = &TokenUsage{
				InputTokens:  ev.Usage.InputTokens,
				OutputTokens: ev.Usage.OutputTokens,
				TotalTokens:  ev.Usage.InputTokens + ev.Usage.OutputTokens,
			}
		}
		return chunk, true, true
	default:
		return StreamChunk{}, false, false
	}
}

// withTimeout applies the client default timeout when the caller did not
// set a deadline of its own.
func (c *ClaudeCLI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, has := ctx.Deadline(); has || c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// command assembles the exec.Cmd for one request.
func (c *ClaudeCLI) command(ctx context.Context, req CompletionRequest, extra ...string) *exec.Cmd {
	args := []string{"--print"}

	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}
	if model := firstNonEmpty(req.Model, c.model); model != "" {
		args = append(args, "--model", model)
	}
	if req.MaxTokens > 0 {
		args = append(args, "--max-tokens", strconv.Itoa(req.MaxTokens))
	}
	args = append(args, extra...)

	if prompt := flattenMessages(req.Messages); prompt != "" {
		args = append(args, "-p", prompt)
	}

	cmd := exec.CommandContext(ctx, c.path, args...)
	if c.workdir != "" {
		cmd.Dir = c.workdir
	}
	return cmd
}

// flattenMessages folds a conversation into the single prompt string the
// CLI accepts, labelling assistant turns so context survives.
func flattenMessages(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			if b.Len() > 0 {
				b.WriteString("\nUser: ")
			}
			b.WriteString(msg.Content)
			b.WriteString("\n")
		case RoleAssistant:
			b.WriteString("\nAssistant: ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// runError classifies a failed invocation: caller cancellation, a missing
// binary, or a CLI failure whose stderr decides retryability.
func (c *ClaudeCLI) runError(op string, err error, stderr string, ctx context.Context) error {
	if ctx.Err() != nil {
		return NewError(op, ctx.Err(), false)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &gserrors.UnavailableError{Service: "claude", Message: fmt.Sprintf("binary not found at %q", c.path)}
	}
	return NewError(op, fmt.Errorf("%w: %s", err, stderr), transientStderr(stderr))
}

// transientStderr reports whether stderr text looks like a transient
// service failure worth retrying.
func transientStderr(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range []string{"rate limit", "timeout", "overloaded", "503", "529"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
