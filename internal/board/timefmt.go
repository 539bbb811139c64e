package board

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ModelTimeLayout is the local timestamp with numeric UTC offset exchanged
// with the model, e.g. "2024-02-14 17:00:00 +0100".
const ModelTimeLayout = "2006-01-02 15:04:05 -0700"

// Unknown is the model-facing sentinel for an unknown value.
const Unknown = "NaN"

// ErrUnknownValue is returned when a timestamp field carries a sentinel.
var ErrUnknownValue = errors.New("value is unknown")

// IsUnknown reports whether s is one of the sentinels the model uses for an
// absent value.
func IsUnknown(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// ParseModelTime parses a model-facing timestamp. Sentinels yield
// ErrUnknownValue.
func ParseModelTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsUnknown(s) {
		return time.Time{}, ErrUnknownValue
	}
	for _, layout := range []string{ModelTimeLayout, "2006-01-02 15:04:05 -07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not in %q format", s, "YYYY-MM-DD HH:MM:SS +HHMM")
}

// FormatModelTime renders t in loc using the model-facing layout.
func FormatModelTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(ModelTimeLayout)
}

// FormatISO renders t as an ISO-8601 UTC instant.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseISO parses an ISO-8601 instant, with or without fractional seconds.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse iso timestamp: %w", err)
	}
	return t.UTC(), nil
}

// LoadLocation resolves an IANA timezone name, falling back to UTC for
// empty or unknown names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
