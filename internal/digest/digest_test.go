package digest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/config"
)

var now = time.Date(2024, 2, 12, 8, 0, 0, 0, time.UTC) // a Monday

func card(name string, due *time.Time) board.Card {
	return board.Card{ID: name, Name: name, URL: "u/" + name, Due: due}
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestComposeMorning(t *testing.T) {
	cards := []board.Card{
		card("later today", at(6*time.Hour)),
		card("yesterday", at(-20*time.Hour)),
		card("next week", at(7*24*time.Hour)),
		card("undated", nil),
	}

	got := Compose(Morning, cards, now)
	if !strings.Contains(got, "Overdue:\n- yesterday") {
		t.Errorf("missing overdue section:\n%s", got)
	}
	if !strings.Contains(got, "Due today:\n- later today") {
		t.Errorf("missing today section:\n%s", got)
	}
	for _, absent := range []string{"next week", "undated"} {
		if strings.Contains(got, absent) {
			t.Errorf("morning digest mentions %q:\n%s", absent, got)
		}
	}
}

func TestComposeEvening(t *testing.T) {
	evening := time.Date(2024, 2, 12, 18, 0, 0, 0, time.UTC)
	tomorrowNoon := time.Date(2024, 2, 13, 12, 0, 0, 0, time.UTC)
	dayAfter := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	cards := []board.Card{card("tomorrow", &tomorrowNoon), card("day after", &dayAfter)}

	got := Compose(Evening, cards, evening)
	if !strings.Contains(got, "Due tomorrow:\n- tomorrow (due Tue Feb 13 12:00): u/tomorrow") {
		t.Errorf("unexpected evening digest:\n%s", got)
	}
	if strings.Contains(got, "day after") {
		t.Errorf("evening digest mentions the day after:\n%s", got)
	}
}

func TestComposeNothingToReport(t *testing.T) {
	if got := Compose(Morning, []board.Card{card("undated", nil)}, now); got != "" {
		t.Errorf("Compose = %q, want empty", got)
	}
	if got := Compose(Evening, nil, now); got != "" {
		t.Errorf("Compose = %q, want empty", got)
	}
}

func TestSchedulerTickFiresOncePerMinute(t *testing.T) {
	store, err := board.OpenSQLite(filepath.Join(t.TempDir(), "board.db"), "")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	due := now.Add(2 * time.Hour)
	if _, err := store.CreateTask(context.Background(), board.NewTask{Summary: "Stand-up", Notes: "daily", Due: &due}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	var posted []string
	poster := PosterFunc(func(_ context.Context, text string) error {
		posted = append(posted, text)
		return nil
	})
	s, err := New(config.DigestConfig{Timezone: "UTC"}, store, poster)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	s.tick(ctx, now)
	s.tick(ctx, now.Add(10*time.Second))
	s.tick(ctx, now.Add(time.Hour))

	if len(posted) != 1 {
		t.Fatalf("posted %d digests, want 1", len(posted))
	}
	if !strings.Contains(posted[0], "Stand-up") {
		t.Errorf("digest = %q", posted[0])
	}
}

func TestNewRejectsBadCron(t *testing.T) {
	if _, err := New(config.DigestConfig{Morning: "every day"}, nil); err == nil {
		t.Fatal("expected error for invalid morning schedule")
	}
}
