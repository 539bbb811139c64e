// Package completiontest provides a scripted chat model for tests.
package completiontest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrScriptExhausted is returned when the model is called more times than scripted.
var ErrScriptExhausted = errors.New("completiontest: no scripted response left")

// Response is one scripted reply.
type Response struct {
	Message *schema.Message
	Err     error
}

// Request records what the model was asked.
type Request struct {
	Messages    []*schema.Message
	Tools       []*schema.ToolInfo
	Temperature *float32
}

type script struct {
	mu        sync.Mutex
	responses []Response
	requests  []Request
}

// Model is a model.ToolCallingChatModel that replays scripted responses in
// order and records every request. Models returned by WithTools share the
// script and the request log.
type Model struct {
	s     *script
	tools []*schema.ToolInfo
}

// New returns a model that answers with the given responses in order.
func New(responses ...Response) *Model {
	return &Model{s: &script{responses: responses}}
}

// Text scripts a plain text reply.
func Text(content string) Response {
	return Response{Message: schema.AssistantMessage(content, nil)}
}

// Calls scripts a reply carrying tool calls and optional text.
func Calls(content string, calls ...schema.ToolCall) Response {
	return Response{Message: schema.AssistantMessage(content, calls)}
}

// Call builds a tool call with raw JSON arguments.
func Call(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:       id,
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}
}

// WithUsage attaches reported token usage to a scripted reply.
func WithUsage(r Response, input, output int) Response {
	if r.Message != nil {
		r.Message.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		}}
	}
	return r
}

// Fail scripts an error.
func Fail(err error) Response {
	return Response{Err: err}
}

func (m *Model) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := model.GetCommonOptions(&model.Options{}, opts...)

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.requests = append(m.s.requests, Request{
		Messages:    messages,
		Tools:       m.tools,
		Temperature: options.Temperature,
	})
	if len(m.s.responses) == 0 {
		return nil, ErrScriptExhausted
	}
	r := m.s.responses[0]
	m.s.responses = m.s.responses[1:]
	return r.Message, r.Err
}

func (m *Model) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *Model) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return &Model{s: m.s, tools: tools}, nil
}

// Requests returns a copy of the recorded requests.
func (m *Model) Requests() []Request {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]Request(nil), m.s.requests...)
}

// Remaining reports how many scripted responses were not consumed.
func (m *Model) Remaining() int {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.responses)
}

var _ model.ToolCallingChatModel = (*Model)(nil)
