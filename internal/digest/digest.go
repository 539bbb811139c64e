// Package digest posts the morning and evening task summaries. It only reads
// the board and never touches conversation state.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/config"
)

// Kind names a digest.
type Kind string

const (
	Morning Kind = "morning"
	Evening Kind = "evening"
)

// Default schedules.
const (
	DefaultMorning = "0 8 * * *"
	DefaultEvening = "0 18 * * *"
)

// Poster delivers a digest somewhere.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(ctx context.Context, text string) error

func (f PosterFunc) Post(ctx context.Context, text string) error { return f(ctx, text) }

// Compose renders the digest of kind for cards at now. It returns "" when
// there is nothing worth posting.
//
// Morning lists overdue tasks and tasks due today; evening lists tasks due
// tomorrow. Day boundaries follow now's location.
func Compose(kind Kind, cards []board.Card, now time.Time) string {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	var sections []string
	switch kind {
	case Morning:
		var overdue, dueToday []board.Card
		for _, c := range withDue(cards) {
			switch {
			case c.Due.Before(now):
				overdue = append(overdue, c)
			case c.Due.Before(tomorrow):
				dueToday = append(dueToday, c)
			}
		}
		sections = appendSection(sections, "Overdue:", overdue, loc)
		sections = appendSection(sections, "Due today:", dueToday, loc)
		if len(sections) == 0 {
			return ""
		}
		return "Good morning! Here is where things stand.\n\n" + strings.Join(sections, "\n\n")
	case Evening:
		var dueTomorrow []board.Card
		for _, c := range withDue(cards) {
			if !c.Due.Before(tomorrow) && c.Due.Before(dayAfter) {
				dueTomorrow = append(dueTomorrow, c)
			}
		}
		sections = appendSection(sections, "Due tomorrow:", dueTomorrow, loc)
		if len(sections) == 0 {
			return ""
		}
		return "Good evening! A heads-up for tomorrow.\n\n" + strings.Join(sections, "\n\n")
	}
	return ""
}

func withDue(cards []board.Card) []board.Card {
	var out []board.Card
	for _, c := range cards {
		if c.Due != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(*out[j].Due) })
	return out
}

func appendSection(sections []string, title string, cards []board.Card, loc *time.Location) []string {
	if len(cards) == 0 {
		return sections
	}
	lines := []string{title}
	for _, c := range cards {
		lines = append(lines, fmt.Sprintf("- %s (due %s): %s", c.Name, c.Due.In(loc).Format("Mon Jan 2 15:04"), c.URL))
	}
	return append(sections, strings.Join(lines, "\n"))
}

// Scheduler fires digests on their cron schedules.
type Scheduler struct {
	store   board.Store
	posters []Poster
	loc     *time.Location
	now     func() time.Time

	mu      sync.Mutex
	entries []*entry
}

// New builds a Scheduler from config. Empty schedules fall back to the
// defaults.
func New(cfg config.DigestConfig, store board.Store, posters ...Poster) (*Scheduler, error) {
	morning, evening := cfg.Morning, cfg.Evening
	if morning == "" {
		morning = DefaultMorning
	}
	if evening == "" {
		evening = DefaultEvening
	}

	s := &Scheduler{store: store, posters: posters, loc: board.LoadLocation(cfg.Timezone), now: time.Now}
	for _, e := range []struct {
		kind Kind
		expr string
	}{{Morning, morning}, {Evening, evening}} {
		en, err := newEntry(e.kind, e.expr)
		if err != nil {
			return nil, err
		}
		s.entries = append(s.entries, en)
	}
	return s, nil
}

// Run checks the schedules every minute until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for _, e := range s.entries {
		slog.Info("digest scheduled", "kind", e.kind, "cron", e.expr, "next", e.next(s.now().In(s.loc)))
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// tick fires every entry whose schedule matches now.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	now = now.In(s.loc)

	s.mu.Lock()
	var due []Kind
	for _, e := range s.entries {
		if e.claim(now) {
			due = append(due, e.kind)
		}
	}
	s.mu.Unlock()

	for _, kind := range due {
		if err := s.Fire(ctx, kind, now); err != nil {
			slog.Error("digest failed", "kind", kind, "error", err)
		}
	}
}

// Fire composes and posts one digest immediately.
func (s *Scheduler) Fire(ctx context.Context, kind Kind, now time.Time) error {
	now = now.In(s.loc)
	cards, err := s.store.Tasks(ctx, s.loc)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	text := Compose(kind, cards, now)
	if text == "" {
		slog.Debug("digest skipped, nothing to report", "kind", kind)
		return nil
	}

	var errs []error
	for _, p := range s.posters {
		if err := p.Post(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	slog.Info("digest posted", "kind", kind, "tasks", len(cards))
	return errors.Join(errs...)
}
