package digest

import (
	"fmt"
	"time"

	cron "github.com/netresearch/go-cron"
)

// cooldown stops an entry from firing twice within the same minute.
const cooldown = 60 * time.Second

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// entry is one digest kind bound to its 5-field cron schedule, evaluated in
// the scheduler's timezone.
type entry struct {
	kind     Kind
	expr     string
	schedule cron.Schedule
	lastRun  time.Time
}

func newEntry(kind Kind, expr string) (*entry, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%s digest: parse cron %q: %w", kind, expr, err)
	}
	return &entry{kind: kind, expr: expr, schedule: schedule}, nil
}

// next returns the first activation after now.
func (e *entry) next(now time.Time) time.Time {
	return e.schedule.Next(now)
}

// claim reports whether now falls in an activation minute the entry has not
// fired for yet, and records the run when it does.
func (e *entry) claim(now time.Time) bool {
	minute := now.Truncate(time.Minute)
	if !e.schedule.Next(minute.Add(-time.Minute)).Equal(minute) {
		return false
	}
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < cooldown {
		return false
	}
	e.lastRun = now
	return true
}
