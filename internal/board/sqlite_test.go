package board

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "board.db"), "")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newTestSQLite(t) })
}

func TestSQLite_ListsPerType(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	q, err := s.CreateTask(ctx, NewTask{Type: TypeQuestions, Summary: "Why?", Notes: "why"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	a, err := s.CreateTask(ctx, NewTask{Summary: "Do it", Notes: "do it"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if q.List != TypeQuestions || a.List != TypeActionItems {
		t.Fatalf("lists = %q, %q", q.List, a.List)
	}
	if !strings.HasPrefix(a.URL, DefaultURLBase+"/") {
		t.Fatalf("url = %q", a.URL)
	}
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, "https://board.example/c")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := s.CreateTask(ctx, NewTask{Summary: "Persist", Notes: "persist"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(path, "https://board.example/c")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	tasks, err := s.Tasks(ctx, nil)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 1 || !strings.HasPrefix(tasks[0].URL, "https://board.example/c/") {
		t.Fatalf("unexpected tasks after reopen: %+v", tasks)
	}
}
