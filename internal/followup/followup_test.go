package followup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
	"github.com/dohr-michael/secretary/internal/completion/completiontest"
	"github.com/dohr-michael/secretary/internal/prompts"
)

var now = time.Date(2024, 2, 11, 9, 0, 0, 0, time.UTC)

func newReconciler(responses ...completiontest.Response) (*Reconciler, *completiontest.Model) {
	fake := completiontest.New(responses...)
	return New(completion.New(fake, completion.Options{}), prompts.NewCatalog()), fake
}

func TestFollowUp_OnlyUndatedTasks(t *testing.T) {
	due := now.Add(48 * time.Hour)
	cards := []board.Card{
		{ID: "dated", Name: "Buy eggs", URL: "https://b/dated", Due: &due},
		{ID: "undated", Name: "Call plumber", URL: "https://b/undated"},
	}
	r, fake := newReconciler(completiontest.Text("Sorry, I could not figure out due dates for these tasks:\nLIST_OF_TASKS\nCould you suggest some?"))

	got, err := r.FollowUp(context.Background(), cards, now)
	if err != nil {
		t.Fatalf("FollowUp: %v", err)
	}
	want := "Sorry, I could not figure out due dates for these tasks:\n- Call plumber: https://b/undated\nCould you suggest some?"
	if got != want {
		t.Fatalf("FollowUp = %q, want %q", got, want)
	}
	if strings.Contains(got, "Buy eggs") {
		t.Fatal("dated task must not be mentioned")
	}

	req := fake.Requests()[0]
	if req.Tools != nil {
		t.Fatal("follow-up must not offer tools")
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "undated") || strings.Contains(user, `"dated"`) {
		t.Fatalf("model should only see undated tasks: %q", user)
	}
}

func TestFollowUp_AllDatedSkipsModel(t *testing.T) {
	due := now
	r, fake := newReconciler()
	got, err := r.FollowUp(context.Background(), []board.Card{{ID: "a", Due: &due}}, now)
	if err != nil || got != "" {
		t.Fatalf("FollowUp = %q, %v", got, err)
	}
	if len(fake.Requests()) != 0 {
		t.Fatal("model must not be called")
	}
}

func TestFollowUp_ModelDeclines(t *testing.T) {
	r, _ := newReconciler(completiontest.Text(`""`))
	got, err := r.FollowUp(context.Background(), []board.Card{{ID: "a", Name: "A"}}, now)
	if err != nil || got != "" {
		t.Fatalf("FollowUp = %q, %v", got, err)
	}
}

func TestFollowUp_Failure(t *testing.T) {
	boom := errors.New("down")
	r, _ := newReconciler(completiontest.Fail(boom))
	if _, err := r.FollowUp(context.Background(), []board.Card{{ID: "a"}}, now); !errors.Is(err, boom) {
		t.Fatalf("expected failure, got %v", err)
	}
}

func TestSubstitute(t *testing.T) {
	cards := []board.Card{{Name: "A", URL: "u1"}, {Name: "B", URL: "u2"}}
	tests := []struct {
		reply, want string
	}{
		{"Dates?\nLIST_OF_TASKS", "Dates?\n- A: u1\n- B: u2"},
		{"Could you give me due dates?", "Could you give me due dates?\n- A: u1\n- B: u2"},
		{"", ""},
		{"  ''  ", ""},
	}
	for _, tt := range tests {
		if got := Substitute(tt.reply, cards); got != tt.want {
			t.Errorf("Substitute(%q) = %q, want %q", tt.reply, got, tt.want)
		}
	}
}
