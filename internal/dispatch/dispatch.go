// Package dispatch runs the tool-enabled exchange at the heart of each turn:
// one completion over the conversation and the current tasks, then every
// tool call the model selected, in order, against the board.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
	"github.com/dohr-michael/secretary/internal/extract"
	"github.com/dohr-michael/secretary/internal/prompts"
)

// Conversational is the completion capability the orchestrator needs.
type Conversational interface {
	CompleteConversation(ctx context.Context, messages []*schema.Message, tools []completion.ToolSpec) (*completion.Completion, error)
}

// Extractor finds task records in text.
type Extractor interface {
	Extract(ctx context.Context, text string, now time.Time, knownLabels []string) ([]extract.Record, error)
}

// ToolError reports the call that stopped a batch. Calls before Index took
// effect; calls after it were not run.
type ToolError struct {
	Tool  string
	Index int
	Err   error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s (call %d): %v", e.Tool, e.Index+1, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Result is the outcome of one exchange.
type Result struct {
	// Reply is the model's free text, possibly empty.
	Reply        string
	Created      []board.Card
	Updated      []board.Card
	Completed    []board.Card
	ToolsInvoked []string
	// Failure is set when a tool call failed; remaining calls were skipped.
	Failure *ToolError
	// Skipped lists the tool calls not run after a failure.
	Skipped []string
}

// Changed reports whether any card was touched.
func (r *Result) Changed() bool {
	return len(r.Created)+len(r.Updated)+len(r.Completed) > 0
}

// record files an effect's cards into their bucket. A card appears once per
// bucket with its latest state; cards created in this exchange stay in
// Created when later updated, and completed cards leave the other buckets.
func (r *Result) record(e Effect) {
	for _, c := range e.Cards {
		switch e.Bucket {
		case Created:
			r.Created = upsert(r.Created, c)
		case Completed:
			r.Created = remove(r.Created, c.ID)
			r.Updated = remove(r.Updated, c.ID)
			r.Completed = upsert(r.Completed, c)
		default:
			if contains(r.Created, c.ID) {
				r.Created = upsert(r.Created, c)
			} else {
				r.Updated = upsert(r.Updated, c)
			}
		}
	}
}

func contains(cards []board.Card, id string) bool {
	for _, c := range cards {
		if c.ID == id {
			return true
		}
	}
	return false
}

func upsert(cards []board.Card, card board.Card) []board.Card {
	for i, c := range cards {
		if c.ID == card.ID {
			cards[i] = card
			return cards
		}
	}
	return append(cards, card)
}

func remove(cards []board.Card, id string) []board.Card {
	out := cards[:0]
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Orchestrator decides, per turn, whether to answer, update, complete or
// create tasks.
type Orchestrator struct {
	client  Conversational
	store   board.Store
	catalog *prompts.Catalog
	tools   *Registry
}

// New creates an Orchestrator offering the standard tool set.
func New(client Conversational, store board.Store, catalog *prompts.Catalog, extractor Extractor) *Orchestrator {
	return NewWithTools(client, store, catalog, DefaultTools(store, extractor))
}

// NewWithTools creates an Orchestrator offering a custom tool set.
func NewWithTools(client Conversational, store board.Store, catalog *prompts.Catalog, tools *Registry) *Orchestrator {
	return &Orchestrator{client: client, store: store, catalog: catalog, tools: tools}
}

// DefaultTools returns the registry of board tools plus extraction.
func DefaultTools(store board.Store, extractor Extractor) *Registry {
	return NewRegistry(
		updateDescriptionTool{store: store},
		updateDueDateTool{store: store},
		markCompletedTool{store: store},
		addLabelTool{store: store},
		extractTasksTool{store: store, extractor: extractor},
	)
}

// Process runs one exchange over history. now is the current time in the
// user's location. An error means nothing was attempted or the completion
// failed; tool failures are reported in Result.Failure.
func (o *Orchestrator) Process(ctx context.Context, history []*schema.Message, now time.Time) (*Result, error) {
	tasks, err := o.store.Tasks(ctx, now.Location())
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasksJSON, err := board.ViewsJSON(tasks, now.Location())
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages,
		schema.SystemMessage(prompts.WithNow(o.catalog.Get(prompts.Secretary), board.FormatModelTime(now, now.Location()))),
		schema.UserMessage("Existing Tasks:\n"+tasksJSON),
	)
	messages = append(messages, history...)

	resp, err := o.client.CompleteConversation(ctx, messages, o.tools.Specs())
	if err != nil {
		return nil, err
	}

	res := &Result{Reply: resp.Text}
	for i, call := range resp.ToolCalls {
		effect, err := o.invoke(ctx, call, now)
		res.record(effect)
		if err != nil {
			slog.Warn("tool call failed", "tool", call.Name, "index", i, "error", err)
			res.Failure = &ToolError{Tool: call.Name, Index: i, Err: err}
			for _, rest := range resp.ToolCalls[i+1:] {
				res.Skipped = append(res.Skipped, rest.Name)
			}
			break
		}
		res.ToolsInvoked = append(res.ToolsInvoked, call.Name)
		slog.Info("tool call", "tool", call.Name, "bucket", effect.Bucket.String(), "cards", len(effect.Cards))
	}
	return res, nil
}

func (o *Orchestrator) invoke(ctx context.Context, call completion.ToolCall, now time.Time) (Effect, error) {
	tool, ok := o.tools.Lookup(call.Name)
	if !ok {
		return Effect{}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	return tool.Invoke(ctx, Invocation{Arguments: json.RawMessage(call.Arguments), Now: now})
}
