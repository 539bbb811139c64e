package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
)

// Tool names offered to the model.
const (
	ToolUpdateDescription = "update_task_description"
	ToolUpdateDueDate     = "update_task_due_date"
	ToolMarkCompleted     = "mark_task_completed"
	ToolAddLabel          = "add_label_to_task"
	ToolExtractTasks      = "extract_tasks"
)

var idParam = completion.ParamSpec{Name: "id", Type: "string", Description: "The id of the task to update"}

type updateDescriptionTool struct{ store board.Store }

func (updateDescriptionTool) Spec() completion.ToolSpec {
	return completion.ToolSpec{
		Name:        ToolUpdateDescription,
		Description: "Update the description of a task.",
		Parameters: []completion.ParamSpec{
			idParam,
			{Name: "updated_description", Type: "string", Description: "A new description to replace the old one with."},
		},
	}
}

func (t updateDescriptionTool) Invoke(ctx context.Context, inv Invocation) (Effect, error) {
	var args struct {
		ID          string `json:"id"`
		Description string `json:"updated_description"`
	}
	if err := decodeArgs(inv.Arguments, &args); err != nil {
		return Effect{}, err
	}
	if err := requireID(args.ID); err != nil {
		return Effect{}, err
	}
	card, err := t.store.UpdateDescription(ctx, args.ID, args.Description)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Bucket: Updated, Cards: []board.Card{*card}}, nil
}

type updateDueDateTool struct{ store board.Store }

func (updateDueDateTool) Spec() completion.ToolSpec {
	return completion.ToolSpec{
		Name:        ToolUpdateDueDate,
		Description: "Set or update the due date of a task.",
		Parameters: []completion.ParamSpec{
			idParam,
			{Name: "updated_due_date", Type: "string", Description: `The new due date, formatted as "YYYY-MM-DD HH:MM:SS +<UTC offset>"`},
		},
	}
}

func (t updateDueDateTool) Invoke(ctx context.Context, inv Invocation) (Effect, error) {
	var args struct {
		ID  string `json:"id"`
		Due string `json:"updated_due_date"`
	}
	if err := decodeArgs(inv.Arguments, &args); err != nil {
		return Effect{}, err
	}
	if err := requireID(args.ID); err != nil {
		return Effect{}, err
	}
	due, err := board.ParseModelTime(args.Due)
	if err != nil {
		return Effect{}, fmt.Errorf("%w: updated_due_date: %v", ErrBadArguments, err)
	}
	card, err := t.store.UpdateDueDate(ctx, args.ID, due)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Bucket: Updated, Cards: []board.Card{*card}}, nil
}

type markCompletedTool struct{ store board.Store }

func (markCompletedTool) Spec() completion.ToolSpec {
	return completion.ToolSpec{
		Name:        ToolMarkCompleted,
		Description: "Mark a task as completed. Only call this when the conversation makes it very clear the task is done; otherwise ask the user to confirm.",
		Parameters: []completion.ParamSpec{
			{Name: "id", Type: "string", Description: "The id of the task that is completed"},
		},
	}
}

func (t markCompletedTool) Invoke(ctx context.Context, inv Invocation) (Effect, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(inv.Arguments, &args); err != nil {
		return Effect{}, err
	}
	if err := requireID(args.ID); err != nil {
		return Effect{}, err
	}
	card, err := t.store.MarkCompleted(ctx, args.ID)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Bucket: Completed, Cards: []board.Card{*card}}, nil
}

type addLabelTool struct{ store board.Store }

func (addLabelTool) Spec() completion.ToolSpec {
	return completion.ToolSpec{
		Name:        ToolAddLabel,
		Description: "Add one or more label(s) to a task.",
		Parameters: []completion.ParamSpec{
			idParam,
			{
				Name:        "label_names",
				Type:        "array",
				Description: "The names of the label(s) to add to the task",
				Items:       &completion.ParamSpec{Type: "string"},
			},
		},
	}
}

func (t addLabelTool) Invoke(ctx context.Context, inv Invocation) (Effect, error) {
	var args struct {
		ID     string   `json:"id"`
		Labels []string `json:"label_names"`
	}
	if err := decodeArgs(inv.Arguments, &args); err != nil {
		return Effect{}, err
	}
	if err := requireID(args.ID); err != nil {
		return Effect{}, err
	}
	card, err := t.store.AddLabels(ctx, args.ID, args.Labels)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Bucket: Updated, Cards: []board.Card{*card}}, nil
}

// extractTasksTool runs the extractor on a message and files every record
// as a new card.
type extractTasksTool struct {
	store     board.Store
	extractor Extractor
}

func (extractTasksTool) Spec() completion.ToolSpec {
	return completion.ToolSpec{
		Name: ToolExtractTasks,
		Description: "Given raw unformatted content from a user that mentions action items, tasks, or to-dos, " +
			"this function extracts individual tasks in a structured format and creates them.",
		Parameters: []completion.ParamSpec{
			{
				Name:        "message",
				Type:        "string",
				Description: "The verbatim user message content to extract tasks from. This should include all content and context relevant to the task(s).",
			},
		},
	}
}

func (t extractTasksTool) Invoke(ctx context.Context, inv Invocation) (Effect, error) {
	var args struct {
		Message string `json:"message"`
	}
	if err := decodeArgs(inv.Arguments, &args); err != nil {
		return Effect{}, err
	}

	labels, err := t.store.Labels(ctx)
	if err != nil {
		return Effect{}, fmt.Errorf("load labels: %w", err)
	}
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	records, err := t.extractor.Extract(ctx, args.Message, inv.Now, names)
	if err != nil {
		return Effect{}, err
	}

	effect := Effect{Bucket: Created}
	for _, r := range records {
		card, err := t.store.CreateTask(ctx, r.NewTask())
		if err != nil {
			return effect, fmt.Errorf("create task %q: %w", r.Summary, err)
		}
		slog.Info("task created", "id", card.ID, "name", card.Name)
		effect.Cards = append(effect.Cards, *card)
	}
	return effect, nil
}
