package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
)

var (
	// ErrUnknownTool is returned for a tool call naming no registered tool.
	ErrUnknownTool = errors.New("dispatch: unknown tool")
	// ErrBadArguments is returned when tool arguments are not valid JSON for the tool.
	ErrBadArguments = errors.New("dispatch: invalid tool arguments")
)

// Bucket classifies what a tool did to the board.
type Bucket int

const (
	Updated Bucket = iota
	Created
	Completed
)

func (b Bucket) String() string {
	switch b {
	case Created:
		return "created"
	case Completed:
		return "completed"
	default:
		return "updated"
	}
}

// Invocation carries one tool call's arguments and the turn's local time.
type Invocation struct {
	Arguments json.RawMessage
	Now       time.Time
}

// Effect is what a tool changed. Cards may be set even when the tool also
// returns an error, for mutations that happened before the failure.
type Effect struct {
	Bucket Bucket
	Cards  []board.Card
}

// Tool is a capability the model may call.
type Tool interface {
	Spec() completion.ToolSpec
	Invoke(ctx context.Context, inv Invocation) (Effect, error)
}

// Registry maps tool names to tools, keeping registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry registers tools in order. Duplicate names panic.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Spec().Name
		if _, dup := r.tools[name]; dup {
			panic(fmt.Sprintf("dispatch: tool %q registered twice", name))
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns the tool declarations in registration order.
func (r *Registry) Specs() []completion.ToolSpec {
	specs := make([]completion.ToolSpec, len(r.order))
	for i, name := range r.order {
		specs[i] = r.tools[name].Spec()
	}
	return specs
}

// decodeArgs unmarshals tool arguments into v.
func decodeArgs(raw json.RawMessage, v any) error {
	cleaned := completion.CleanResponseText(string(raw))
	if cleaned == "" {
		cleaned = "{}"
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrBadArguments)
	}
	return nil
}
