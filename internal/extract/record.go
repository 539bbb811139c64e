package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dohr-michael/secretary/internal/board"
)

// Record is one task or question found in a message.
type Record struct {
	// ID is sequential within one extraction batch only.
	ID        int        `json:"id"`
	Topics    []string   `json:"topics"`
	Type      string     `json:"type"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Requestor string     `json:"requestor,omitempty"`
	Actor     string     `json:"actor,omitempty"`
	Summary   string     `json:"summary"`
	Notes     string     `json:"notes"`
}

// NewTask converts the record into a board creation request.
func (r Record) NewTask() board.NewTask {
	return board.NewTask{
		Type:      r.Type,
		Summary:   r.Summary,
		Notes:     r.Notes,
		Requestor: r.Requestor,
		Actor:     r.Actor,
		Topics:    r.Topics,
		Due:       r.DueDate,
	}
}

// wireRecord is the JSON shape the model produces.
type wireRecord struct {
	Topics    flexStrings `json:"topics"`
	Tags      flexStrings `json:"tags"`
	Type      string      `json:"type"`
	DueDate   flexString  `json:"due_date"`
	Requestor flexString  `json:"requestor"`
	Actor     flexString  `json:"actor"`
	Summary   flexString  `json:"summary"`
	Notes     flexStrings `json:"notes"`
}

// flexStrings accepts a string, an array of scalars, or null.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s := strings.TrimSpace(string(it)); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var s flexString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v := strings.TrimSpace(string(s)); v != "" {
		*f = flexStrings{v}
	}
	return nil
}

// flexString accepts any JSON scalar, rendering numbers and booleans as text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = flexString(x)
	case float64, bool:
		*f = flexString(fmt.Sprint(x))
	default:
		return fmt.Errorf("expected a scalar, got %T", v)
	}
	return nil
}

// known returns the trimmed value, or "" for the unknown sentinels.
func known(s flexString) string {
	v := strings.TrimSpace(string(s))
	if board.IsUnknown(v) {
		return ""
	}
	return v
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "questions", "question":
		return board.TypeQuestions
	default:
		return board.TypeActionItems
	}
}
