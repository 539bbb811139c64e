package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// runStoreContract exercises the Store contract against a fresh backend.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and list", func(t *testing.T) {
		s := newStore(t)
		due := time.Date(2022, 10, 3, 0, 0, 0, 0, time.UTC)
		card, err := s.CreateTask(ctx, NewTask{
			Type:      TypeActionItems,
			Summary:   "Buy eggs.",
			Notes:     "Silvia needs to buy eggs by 10/03/2022.",
			Requestor: "Jack",
			Actor:     "Silvia",
			Topics:    []string{"Groceries", "NaN"},
			Due:       &due,
		})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if card.Name != "Buy eggs" {
			t.Fatalf("name = %q", card.Name)
		}
		if card.Description != "Requestor: Jack\nActor: Silvia\n\nSilvia needs to buy eggs by 10/03/2022." {
			t.Fatalf("description = %q", card.Description)
		}
		if card.Due == nil || !card.Due.Equal(due) {
			t.Fatalf("due = %v", card.Due)
		}
		if diff := cmp.Diff([]string{"groceries"}, card.Labels); diff != "" {
			t.Fatalf("labels (-want +got):\n%s", diff)
		}
		if card.URL == "" {
			t.Fatal("card must carry a url")
		}

		loc := time.FixedZone("X", 2*3600)
		tasks, err := s.Tasks(ctx, loc)
		if err != nil {
			t.Fatalf("Tasks: %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != card.ID {
			t.Fatalf("unexpected tasks: %+v", tasks)
		}
		if tasks[0].Due.Location() != loc {
			t.Fatalf("due not normalized to requested zone: %v", tasks[0].Due)
		}

		labels, err := s.Labels(ctx)
		if err != nil {
			t.Fatalf("Labels: %v", err)
		}
		if _, ok := labels["groceries"]; !ok || len(labels) != 1 {
			t.Fatalf("labels = %v", labels)
		}
	})

	t.Run("updates", func(t *testing.T) {
		s := newStore(t)
		card, err := s.CreateTask(ctx, NewTask{Type: TypeQuestions, Summary: "Ask Bob", Notes: "ask bob"})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if card.Due != nil {
			t.Fatalf("expected no due date, got %v", card.Due)
		}

		updated, err := s.UpdateDescription(ctx, card.ID, "ask bob about the invoice")
		if err != nil {
			t.Fatalf("UpdateDescription: %v", err)
		}
		if updated.Description != "ask bob about the invoice" {
			t.Fatalf("description = %q", updated.Description)
		}

		due := time.Date(2024, 2, 14, 17, 0, 0, 0, time.UTC)
		updated, err = s.UpdateDueDate(ctx, card.ID, due)
		if err != nil {
			t.Fatalf("UpdateDueDate: %v", err)
		}
		if updated.Due == nil || !updated.Due.Equal(due) {
			t.Fatalf("due = %v", updated.Due)
		}
	})

	t.Run("add labels is idempotent", func(t *testing.T) {
		s := newStore(t)
		card, err := s.CreateTask(ctx, NewTask{Summary: "Call mom", Notes: "call mom"})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		for i := 0; i < 2; i++ {
			card, err = s.AddLabels(ctx, card.ID, []string{"Family", "family"})
			if err != nil {
				t.Fatalf("AddLabels #%d: %v", i, err)
			}
		}
		if diff := cmp.Diff([]string{"family"}, card.Labels); diff != "" {
			t.Fatalf("labels (-want +got):\n%s", diff)
		}
		labels, err := s.Labels(ctx)
		if err != nil {
			t.Fatalf("Labels: %v", err)
		}
		if len(labels) != 1 {
			t.Fatalf("label created twice: %v", labels)
		}
	})

	t.Run("completion deletes", func(t *testing.T) {
		s := newStore(t)
		card, err := s.CreateTask(ctx, NewTask{Summary: "Pay rent", Notes: "pay rent", Topics: []string{"home"}})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		snap, err := s.MarkCompleted(ctx, card.ID)
		if err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
		if diff := cmp.Diff(card, snap); diff != "" {
			t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
		}
		tasks, err := s.Tasks(ctx, time.UTC)
		if err != nil {
			t.Fatalf("Tasks: %v", err)
		}
		if len(tasks) != 0 {
			t.Fatalf("completed card still listed: %+v", tasks)
		}
		if _, err := s.MarkCompleted(ctx, card.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second MarkCompleted = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown card", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.UpdateDescription(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("UpdateDescription = %v, want ErrNotFound", err)
		}
		if _, err := s.AddLabels(ctx, "missing", []string{"x"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("AddLabels = %v, want ErrNotFound", err)
		}
	})
}
