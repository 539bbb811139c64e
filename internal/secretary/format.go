package secretary

import (
	"fmt"
	"strings"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/dispatch"
)

const (
	// BlankSlate acknowledges a memory reset.
	BlankSlate = "(My mind is a blank slate)"
	// Apology replaces any pipeline error shown to the user.
	Apology = "Sorry, something went wrong on my side and I could not handle that. Could you try again in a moment?"
)

// UserTurn renders an inbound message the way it is remembered.
func UserTurn(author, text string) string {
	if author == "" {
		return text
	}
	return "From " + author + ":\n" + text
}

// Narrate turns the card buckets of a result into outbound messages, one per
// non-empty bucket.
func Narrate(res *dispatch.Result) []string {
	var out []string
	if len(res.Created) > 0 {
		out = append(out, plural(len(res.Created), "I created this task:", "I created these tasks:")+"\n"+urls(res.Created))
	}
	if len(res.Updated) > 0 {
		out = append(out, plural(len(res.Updated), "I updated this task:", "I updated these tasks:")+"\n"+urls(res.Updated))
	}
	if len(res.Completed) > 0 {
		// Completed cards are deleted, so their links are dead.
		out = append(out, plural(len(res.Completed), "I marked this task as done:", "I marked these tasks as done:")+"\n"+names(res.Completed))
	}
	return out
}

// PartialFailure tells the user which part of a batch did not happen.
func PartialFailure(res *dispatch.Result) string {
	if res.Failure == nil {
		return ""
	}
	var b strings.Builder
	if len(res.ToolsInvoked) > 0 {
		fmt.Fprintf(&b, "I managed %s, but I could not finish %s", describeAll(res.ToolsInvoked), describe(res.Failure.Tool))
	} else {
		fmt.Fprintf(&b, "I could not finish %s", describe(res.Failure.Tool))
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&b, ", so I also skipped %s", describeAll(res.Skipped))
	}
	b.WriteString(". Could you try that part again?")
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func urls(cards []board.Card) string {
	lines := make([]string, len(cards))
	for i, c := range cards {
		lines[i] = c.URL
	}
	return strings.Join(lines, "\n")
}

func names(cards []board.Card) string {
	lines := make([]string, len(cards))
	for i, c := range cards {
		lines[i] = "- " + c.Name
	}
	return strings.Join(lines, "\n")
}

var toolPhrases = map[string]string{
	dispatch.ToolUpdateDescription: "updating a task description",
	dispatch.ToolUpdateDueDate:     "changing a due date",
	dispatch.ToolMarkCompleted:     "marking a task as done",
	dispatch.ToolAddLabel:          "labelling a task",
	dispatch.ToolExtractTasks:      "creating the new tasks",
}

func describe(tool string) string {
	if p, ok := toolPhrases[tool]; ok {
		return p
	}
	return "one of the steps"
}

func describeAll(tools []string) string {
	seen := make(map[string]bool, len(tools))
	var parts []string
	for _, t := range tools {
		p := describe(t)
		if seen[p] {
			continue
		}
		seen[p] = true
		parts = append(parts, p)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
