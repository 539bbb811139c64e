// Package sessions persists chat-session transcripts so conversation memory
// survives restarts.
package sessions

import (
	"time"

	"github.com/dohr-michael/secretary/internal/conversation"
)

// Session holds metadata about one chat conversation.
type Session struct {
	ID string `json:"id"`
	// Key identifies the conversation on its transport, e.g. "slack:C0123".
	Key          string     `json:"key"`
	Timezone     string     `json:"timezone,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MessageCount int        `json:"message_count"`
	LastResetAt  time.Time  `json:"last_reset_at,omitzero"`
	TokenUsage   TokenUsage `json:"token_usage,omitzero"`
}

// TokenUsage accumulates the model tokens spent on a session.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// EntryKind distinguishes transcript lines.
type EntryKind string

const (
	EntryTurn  EntryKind = "turn"
	EntryReset EntryKind = "reset"
)

// Entry is one transcript line.
type Entry struct {
	Kind    EntryKind         `json:"kind"`
	Role    conversation.Role `json:"role,omitempty"`
	Content string            `json:"content,omitempty"`
	Ts      time.Time         `json:"ts"`
}

// Store defines transcript persistence.
type Store interface {
	// Open returns the session for a transport key, creating it on first use.
	Open(key string) (*Session, error)
	Get(id string) (*Session, error)
	List() ([]*Session, error)
	UpdateMeta(s *Session) error
	AppendTurn(id string, turn conversation.Turn) error
	// Reset records that memory was cleared; Window ignores earlier turns.
	Reset(id string) error
	// Window returns the last n turns since the most recent reset.
	Window(id string, n int) ([]conversation.Turn, error)
}
