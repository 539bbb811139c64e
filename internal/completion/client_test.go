package completion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/secretary/internal/completion/completiontest"
)

func TestCleanResponseText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`[{"a":1}]`, `[{"a":1}]`},
		{"```json\n[]\n```", "[]"},
		{"```\n{}\n```", "{}"},
		{"  ```json[1]```  ", "[1]"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := CleanResponseText(tt.in); got != tt.want {
			t.Errorf("CleanResponseText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComplete_TextAndTemperature(t *testing.T) {
	fake := completiontest.New(completiontest.Text("hello"))
	c := New(fake, Options{})

	got, err := c.Complete(context.Background(), "sys", "user", nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "hello" || len(got.ToolCalls) != 0 {
		t.Fatalf("unexpected completion: %+v", got)
	}

	reqs := fake.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	msgs := reqs[0].Messages
	if len(msgs) != 2 || msgs[0].Role != schema.System || msgs[1].Role != schema.User {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if reqs[0].Temperature == nil || *reqs[0].Temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", reqs[0].Temperature)
	}
	if reqs[0].Tools != nil {
		t.Fatal("no tools should be bound")
	}
}

func TestCompleteConversation_ToolCalls(t *testing.T) {
	fake := completiontest.New(completiontest.Calls("",
		completiontest.Call("1", "mark_task_completed", `{"id":"c1"}`),
		completiontest.Call("2", "add_label_to_task", `{"id":"c1","label_names":["x"]}`),
	))
	c := New(fake, Options{})

	tools := []ToolSpec{{
		Name:        "mark_task_completed",
		Description: "Mark a task as completed.",
		Parameters:  []ParamSpec{{Name: "id", Type: "string", Description: "task id"}},
	}}
	got, err := c.CompleteConversation(context.Background(), []*schema.Message{schema.UserMessage("done")}, tools)
	if err != nil {
		t.Fatalf("CompleteConversation: %v", err)
	}
	if len(got.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(got.ToolCalls))
	}
	if got.ToolCalls[0].Name != "mark_task_completed" || got.ToolCalls[1].Name != "add_label_to_task" {
		t.Fatalf("tool call order lost: %+v", got.ToolCalls)
	}
	if tools := fake.Requests()[0].Tools; len(tools) != 1 || tools[0].Name != "mark_task_completed" {
		t.Fatalf("unexpected bound tools: %+v", tools)
	}
}

func TestComplete_ReportsUsage(t *testing.T) {
	fake := completiontest.New(
		completiontest.WithUsage(completiontest.Text("a"), 120, 7),
		completiontest.Text("b"),
	)
	var got []Usage
	c := New(fake, Options{OnUsage: func(_ context.Context, u Usage) { got = append(got, u) }})

	first, err := c.Complete(context.Background(), "sys", "user", nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if first.Usage != (Usage{Input: 120, Output: 7}) {
		t.Fatalf("usage = %+v", first.Usage)
	}
	if _, err := c.Complete(context.Background(), "sys", "user", nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(got) != 1 || got[0] != (Usage{Input: 120, Output: 7}) {
		t.Fatalf("OnUsage calls = %+v, want one with 120/7", got)
	}
}

func TestComplete_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	c := New(completiontest.New(completiontest.Fail(boom)), Options{})
	_, err := c.Complete(context.Background(), "sys", "user", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestComplete_EmptyResponse(t *testing.T) {
	c := New(completiontest.New(completiontest.Response{}), Options{})
	_, err := c.Complete(context.Background(), "sys", "user", nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestComplete_SizeGuard(t *testing.T) {
	fake := completiontest.New(completiontest.Text("unused"))
	c := New(fake, Options{ContextWindow: 10}) // 36 chars

	_, err := c.Complete(context.Background(), "sys", strings.Repeat("x", 40), nil)
	if !errors.Is(err, ErrPromptTooLarge) {
		t.Fatalf("expected ErrPromptTooLarge, got %v", err)
	}
	if len(fake.Requests()) != 0 {
		t.Fatal("model must not be called for oversized prompts")
	}
}

type slowModel struct{ completiontest.Model }

func (slowModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestComplete_Timeout(t *testing.T) {
	c := New(&slowModel{}, Options{Timeout: 10 * time.Millisecond})
	_, err := c.Complete(context.Background(), "sys", "user", nil)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestToolSpec_ToolInfo(t *testing.T) {
	ts := ToolSpec{
		Name:        "add_label_to_task",
		Description: "Add labels.",
		Parameters: []ParamSpec{
			{Name: "id", Type: "string", Description: "task id"},
			{Name: "label_names", Type: "array", Description: "labels", Items: &ParamSpec{Type: "string"}},
		},
	}
	info := ts.ToolInfo()
	js, err := info.ParamsOneOf.ToJSONSchema()
	if err != nil {
		t.Fatalf("ToJSONSchema: %v", err)
	}
	raw, err := json.Marshal(js)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Type  string `json:"type"`
			Items *struct {
				Type string `json:"type"`
			} `json:"items"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Required) != 2 {
		t.Fatalf("all parameters must be required, got %v", got.Required)
	}
	labels := got.Properties["label_names"]
	if labels.Type != "array" || labels.Items == nil || labels.Items.Type != "string" {
		t.Fatalf("array element type not declared: %s", raw)
	}
}
