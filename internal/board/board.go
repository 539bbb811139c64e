// Package board is the Task Store: open tasks persisted as cards on a
// kanban-style board, with lists per task type and a lazily grown label
// vocabulary.
package board

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a card id does not exist on the board.
var ErrNotFound = errors.New("board: card not found")

// Task types, which double as list names.
const (
	TypeActionItems = "Action Items"
	TypeQuestions   = "Questions"
)

// Card is a persisted task.
type Card struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"desc,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Closed      bool       `json:"closed,omitempty"`
	URL         string     `json:"url"`
	Labels      []string   `json:"labels,omitempty"`
	List        string     `json:"list,omitempty"`
}

// NewTask is the input to CreateTask. Empty Requestor or Actor and a nil Due
// mean unknown.
type NewTask struct {
	Type      string
	Summary   string
	Notes     string
	Requestor string
	Actor     string
	Topics    []string
	Due       *time.Time
}

// Store is the board contract the secretary pipeline depends on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Tasks lists all open cards with due dates expressed in loc.
	Tasks(ctx context.Context, loc *time.Location) ([]Card, error)
	// Labels returns the label vocabulary as name → id.
	Labels(ctx context.Context) (map[string]string, error)
	CreateTask(ctx context.Context, task NewTask) (*Card, error)
	UpdateDescription(ctx context.Context, id, description string) (*Card, error)
	UpdateDueDate(ctx context.Context, id string, due time.Time) (*Card, error)
	// MarkCompleted deletes the card and returns its last state.
	MarkCompleted(ctx context.Context, id string) (*Card, error)
	// AddLabels attaches labels, creating missing ones. Already attached
	// labels are left alone.
	AddLabels(ctx context.Context, id string, names []string) (*Card, error)
}

// Describe builds a card description from the task's provenance and notes.
func Describe(requestor, actor, notes string) string {
	if requestor == "" {
		return notes
	}
	if actor == "" {
		actor = Unknown
	}
	return "Requestor: " + requestor + "\nActor: " + actor + "\n\n" + notes
}

// CardName turns a task summary into a card name.
func CardName(summary string) string {
	return strings.TrimRight(strings.TrimSpace(summary), ".")
}

// NormalizeLabel lower-cases a label name and reports whether it may be
// stored. Sentinel values are never turned into labels.
func NormalizeLabel(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "nan", "none", "null":
		return "", false
	}
	return n, true
}

// NormalizeLabels normalizes a list and drops duplicates and sentinels,
// preserving order.
func NormalizeLabels(names []string) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		n, ok := NormalizeLabel(name)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// InLocation returns copies of cards with due dates converted to loc.
func InLocation(cards []Card, loc *time.Location) []Card {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Card, len(cards))
	for i, c := range cards {
		if c.Due != nil {
			d := c.Due.In(loc)
			c.Due = &d
		}
		out[i] = c
	}
	return out
}
