// Package extract turns free-form message text into structured task records
// using the extraction prompt.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
	"github.com/dohr-michael/secretary/internal/prompts"
)

// ErrMalformedOutput is returned when the model's answer is not a JSON array
// of records.
var ErrMalformedOutput = errors.New("extract: malformed model output")

// Completer is the completion capability the extractor needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userContent string, tools []completion.ToolSpec) (*completion.Completion, error)
}

// Extractor finds task records in text.
type Extractor struct {
	client  Completer
	catalog *prompts.Catalog
}

// New creates an Extractor.
func New(client Completer, catalog *prompts.Catalog) *Extractor {
	return &Extractor{client: client, catalog: catalog}
}

// Extract asks the model for the tasks and questions in text. now carries the
// user's location and anchors relative dates; knownLabels is the current
// label vocabulary the model should reuse. It never writes to the board.
func (e *Extractor) Extract(ctx context.Context, text string, now time.Time, knownLabels []string) ([]Record, error) {
	system := prompts.WithNow(e.catalog.Get(prompts.ExtractTasks), board.FormatModelTime(now, now.Location()))
	user := text + "\n\nExisting Labels:\n" + labelList(knownLabels)

	resp, err := e.client.Complete(ctx, system, user, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	records, err := Parse(resp.Text)
	if err != nil {
		return nil, err
	}
	slog.Debug("records extracted", "count", len(records))
	return records, nil
}

// Parse decodes model output into records. Records missing a summary or notes
// are dropped; an unparseable due date only clears that field.
func Parse(output string) ([]Record, error) {
	cleaned := completion.CleanResponseText(output)

	var wire []wireRecord
	if strings.HasPrefix(cleaned, "{") {
		var single wireRecord
		if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		wire = []wireRecord{single}
	} else if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	records := make([]Record, 0, len(wire))
	for i, w := range wire {
		r := Record{
			Type:      normalizeType(w.Type),
			Requestor: known(w.Requestor),
			Actor:     known(w.Actor),
			Summary:   known(w.Summary),
			Notes:     strings.TrimSpace(strings.Join(w.Notes, "\n")),
		}
		if board.IsUnknown(r.Notes) {
			r.Notes = ""
		}
		if r.Summary == "" || r.Notes == "" {
			slog.Warn("dropping extracted record without summary or notes", "index", i)
			continue
		}

		topics := w.Topics
		if len(topics) == 0 {
			topics = w.Tags
		}
		for _, t := range topics {
			if !board.IsUnknown(t) {
				r.Topics = append(r.Topics, t)
			}
		}

		if due, err := board.ParseModelTime(string(w.DueDate)); err == nil {
			r.DueDate = &due
		} else if !errors.Is(err, board.ErrUnknownValue) {
			slog.Warn("ignoring unparseable due date", "index", i, "due_date", string(w.DueDate), "error", err)
		}

		r.ID = len(records) + 1
		records = append(records, r)
	}
	return records, nil
}

func labelList(labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
