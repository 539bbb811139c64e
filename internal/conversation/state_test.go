package conversation

import (
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
)

func TestKeepLastBoundsWindow(t *testing.T) {
	const n = 6
	s := New()
	for i := 0; i < n+5; i++ {
		s.KeepLast(n)
		if err := s.Append(User, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatal(err)
		}
		s.KeepLast(n)
		if s.Len() > n {
			t.Fatalf("window grew to %d after turn %d", s.Len(), i)
		}
	}
	turns := s.Turns()
	if turns[0].Content != "turn 5" || turns[n-1].Content != "turn 10" {
		t.Fatalf("oldest turns must be dropped first: %+v", turns)
	}
}

func TestKeepLastZero(t *testing.T) {
	s := New(Turn{User, "a"})
	s.KeepLast(0)
	if s.Len() != 0 {
		t.Fatalf("expected empty, got %d", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := New(Turn{User, "a"}, Turn{Assistant, "b"})
	s.Clear()
	if s.Len() != 0 || len(s.Messages()) != 0 {
		t.Fatal("Clear must drop every turn")
	}
}

func TestAppendRejectsUnknownRole(t *testing.T) {
	if err := New().Append("system", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMessages(t *testing.T) {
	s := New()
	_ = s.Append(User, "From Jack:\nhi")
	_ = s.Append(Assistant, "hello")

	var got []schema.RoleType
	for _, m := range s.Messages() {
		got = append(got, m.Role)
	}
	if diff := cmp.Diff([]schema.RoleType{schema.User, schema.Assistant}, got); diff != "" {
		t.Fatalf("roles (-want +got):\n%s", diff)
	}
}

func TestTurnsIsCopy(t *testing.T) {
	s := New(Turn{User, "a"})
	turns := s.Turns()
	turns[0].Content = "changed"
	if s.Turns()[0].Content != "a" {
		t.Fatal("Turns must return a copy")
	}
}
