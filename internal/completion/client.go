// Package completion wraps a chat model behind the two request shapes the
// secretary needs: a single system+user exchange and a full conversation,
// both optionally tool-enabled.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	// ErrEmptyResponse is returned when the model answers with no message at all.
	ErrEmptyResponse = errors.New("completion: empty response")
	// ErrPromptTooLarge is returned when a request would overflow the context window.
	ErrPromptTooLarge = errors.New("completion: prompt exceeds context window")
)

const (
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 60 * time.Second

	charsPerToken = 4
	// windowBudget is the share of the context window a prompt may fill.
	windowBudget = 0.9
)

// ToolCall is one model-selected invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// Usage is the token count a provider reported for one call.
type Usage struct {
	Input  int
	Output int
}

// Completion is the model's answer: free text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	Temperature float32
	// ContextWindow is the model's window in tokens; zero disables the size guard.
	ContextWindow int
	// OnUsage is called after every call that reported token usage.
	OnUsage func(ctx context.Context, u Usage)
}

// Client sends requests to a chat model with deterministic sampling and a
// bounded per-call timeout.
type Client struct {
	model       model.ToolCallingChatModel
	timeout     time.Duration
	temperature float32
	maxChars    int
	onUsage     func(context.Context, Usage)
}

// New creates a Client over a chat model.
func New(m model.ToolCallingChatModel, opts Options) *Client {
	c := &Client{
		model:       m,
		timeout:     opts.Timeout,
		temperature: opts.Temperature,
		onUsage:     opts.OnUsage,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if opts.ContextWindow > 0 {
		c.maxChars = int(float64(opts.ContextWindow*charsPerToken) * windowBudget)
	}
	return c
}

// Complete sends a system prompt and one user message.
func (c *Client) Complete(ctx context.Context, systemPrompt, userContent string, tools []ToolSpec) (*Completion, error) {
	return c.CompleteConversation(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userContent),
	}, tools)
}

// CompleteConversation sends a full message list.
func (c *Client) CompleteConversation(ctx context.Context, messages []*schema.Message, tools []ToolSpec) (*Completion, error) {
	if c.maxChars > 0 {
		if n := promptChars(messages); n > c.maxChars {
			return nil, fmt.Errorf("%w: %d chars, limit %d", ErrPromptTooLarge, n, c.maxChars)
		}
	}

	m := c.model
	if len(tools) > 0 {
		bound, err := c.model.WithTools(ToolInfos(tools))
		if err != nil {
			return nil, fmt.Errorf("bind tools: %w", err)
		}
		m = bound
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	msg, err := m.Generate(callCtx, messages, model.WithTemperature(c.temperature))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("completion timed out after %s: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("completion: %w", err)
	}
	if msg == nil {
		return nil, ErrEmptyResponse
	}

	out := &Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	if meta := msg.ResponseMeta; meta != nil && meta.Usage != nil {
		out.Usage = Usage{Input: meta.Usage.PromptTokens, Output: meta.Usage.CompletionTokens}
		if c.onUsage != nil {
			c.onUsage(ctx, out.Usage)
		}
	}

	slog.Debug("completion done",
		"messages", len(messages),
		"tools", len(tools),
		"tool_calls", len(out.ToolCalls),
		"tokens_in", out.Usage.Input,
		"tokens_out", out.Usage.Output,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return out, nil
}

func promptChars(messages []*schema.Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

// CleanResponseText strips the Markdown code-fence decoration models wrap
// around JSON. It must run before every JSON parse of model output.
func CleanResponseText(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
