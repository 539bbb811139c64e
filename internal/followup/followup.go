// Package followup nudges the user for due dates on tasks that lack one.
package followup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
	"github.com/dohr-michael/secretary/internal/prompts"
)

// Completer is the completion capability the reconciler needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userContent string, tools []completion.ToolSpec) (*completion.Completion, error)
}

// Reconciler composes follow-up messages.
type Reconciler struct {
	client  Completer
	catalog *prompts.Catalog
}

// New creates a Reconciler.
func New(client Completer, catalog *prompts.Catalog) *Reconciler {
	return &Reconciler{client: client, catalog: catalog}
}

// NeedingDueDate returns the cards without a due date, in order.
func NeedingDueDate(cards []board.Card) []board.Card {
	var out []board.Card
	for _, c := range cards {
		if c.Due == nil {
			out = append(out, c)
		}
	}
	return out
}

// FollowUp asks the model for a nudge about the cards lacking a due date and
// returns it with the placeholder replaced by links to those cards. It
// returns "" when every card already has a due date or the model declines.
func (r *Reconciler) FollowUp(ctx context.Context, cards []board.Card, now time.Time) (string, error) {
	pending := NeedingDueDate(cards)
	if len(pending) == 0 {
		return "", nil
	}

	tasksJSON, err := board.ViewsJSON(pending, now.Location())
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	system := prompts.WithNow(r.catalog.Get(prompts.FollowUp), board.FormatModelTime(now, now.Location()))

	resp, err := r.client.Complete(ctx, system, "Tasks that need due dates:\n"+tasksJSON, nil)
	if err != nil {
		return "", fmt.Errorf("follow up: %w", err)
	}
	return Substitute(resp.Text, pending), nil
}

// Substitute replaces the task-list placeholder with one link line per card.
// A reply without the placeholder gets the list appended; an empty reply
// (including a quoted empty string) stays empty.
func Substitute(reply string, cards []board.Card) string {
	reply = strings.TrimSpace(reply)
	if reply == "" || reply == `""` || reply == "''" {
		return ""
	}
	list := LinkList(cards)
	if strings.Contains(reply, prompts.TaskListPlaceholder) {
		return strings.ReplaceAll(reply, prompts.TaskListPlaceholder, list)
	}
	return reply + "\n" + list
}

// LinkList renders cards as "- name: url" lines.
func LinkList(cards []board.Card) string {
	lines := make([]string, len(cards))
	for i, c := range cards {
		lines[i] = "- " + c.Name + ": " + c.URL
	}
	return strings.Join(lines, "\n")
}
