package secretary

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/dispatch"
)

func TestNarratePlurals(t *testing.T) {
	res := &dispatch.Result{
		Created: []board.Card{{ID: "1", URL: "u/1"}, {ID: "2", URL: "u/2"}},
		Updated: []board.Card{{ID: "3", URL: "u/3"}},
	}
	want := []string{
		"I created these tasks:\nu/1\nu/2",
		"I updated this task:\nu/3",
	}
	if diff := cmp.Diff(want, Narrate(res)); diff != "" {
		t.Errorf("Narrate mismatch (-want +got):\n%s", diff)
	}
}

func TestUserTurn(t *testing.T) {
	if got := UserTurn("Jack", "hi"); got != "From Jack:\nhi" {
		t.Errorf("UserTurn = %q", got)
	}
	if got := UserTurn("", "hi"); got != "hi" {
		t.Errorf("UserTurn without author = %q", got)
	}
}

func TestPartialFailure(t *testing.T) {
	tests := []struct {
		name string
		res  *dispatch.Result
		want string
	}{
		{"no failure", &dispatch.Result{}, ""},
		{
			"first call failed",
			&dispatch.Result{Failure: &dispatch.ToolError{Tool: dispatch.ToolExtractTasks}},
			"I could not finish creating the new tasks. Could you try that part again?",
		},
		{
			"after success with skipped",
			&dispatch.Result{
				ToolsInvoked: []string{dispatch.ToolAddLabel, dispatch.ToolAddLabel, dispatch.ToolUpdateDescription},
				Failure:      &dispatch.ToolError{Tool: dispatch.ToolUpdateDueDate, Index: 3},
				Skipped:      []string{"mystery"},
			},
			"I managed labelling a task and updating a task description, but I could not finish changing a due date, so I also skipped one of the steps. Could you try that part again?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartialFailure(tt.res); got != tt.want {
				t.Errorf("PartialFailure = %q, want %q", got, tt.want)
			}
		})
	}
}
