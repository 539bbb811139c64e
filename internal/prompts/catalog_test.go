package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dohr-michael/secretary/internal/board"
)

func TestNewCatalog_Defaults(t *testing.T) {
	c := NewCatalog()
	for _, intent := range []Intent{Secretary, ExtractTasks, FollowUp} {
		if c.Get(intent) == "" {
			t.Fatalf("missing default prompt for %q", intent)
		}
	}
	if !strings.Contains(c.Get(FollowUp), TaskListPlaceholder) {
		t.Fatal("follow-up prompt must reference the task list placeholder")
	}
	if !strings.Contains(c.Get(ExtractTasks), `"`+board.Unknown+`"`) {
		t.Fatal("extraction prompt must name the unknown sentinel")
	}
	if !strings.Contains(c.Get(ExtractTasks), `"`+SelfActor+`"`) {
		t.Fatal("extraction prompt must name the self actor")
	}
}

func TestLoadCatalog_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	data := "secretary: |\n  Be brief.\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if got := c.Get(Secretary); got != "Be brief.\n" {
		t.Fatalf("secretary prompt = %q", got)
	}
	if c.Get(ExtractTasks) != DefaultExtractTasks {
		t.Fatal("non-overridden prompt should keep its default")
	}
}

func TestApply_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown intent", "summarize: hello\n"},
		{"empty prompt", "secretary: \"  \"\n"},
		{"follow-up without placeholder", "follow_up: ask for dates\n"},
		{"bad yaml", "secretary: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewCatalog().Apply([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadCatalog_EmptyPath(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Get(Secretary) != DefaultSecretary {
		t.Fatal("expected built-in secretary prompt")
	}
}

func TestWithNow(t *testing.T) {
	got := WithNow("base", "2024-02-11 09:00:00 +0000")
	want := "base\nThe current date and time is 2024-02-11 09:00:00 +0000."
	if got != want {
		t.Fatalf("WithNow = %q, want %q", got, want)
	}
}
