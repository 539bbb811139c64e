// Package conversation keeps the bounded window of recent turns a session
// sends to the model.
package conversation

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// Role is the speaker of a turn.
type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
)

// Turn is one utterance.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is an ordered window of turns. It is not safe for concurrent use;
// the owning session serializes access.
type State struct {
	turns []Turn
}

// New returns an empty state, optionally seeded with turns.
func New(turns ...Turn) *State {
	return &State{turns: append([]Turn(nil), turns...)}
}

// Append adds a turn.
func (s *State) Append(role Role, content string) error {
	if role != User && role != Assistant {
		return fmt.Errorf("conversation: invalid role %q", role)
	}
	s.turns = append(s.turns, Turn{Role: role, Content: content})
	return nil
}

// KeepLast drops the oldest turns beyond n.
func (s *State) KeepLast(n int) {
	if n < 0 {
		n = 0
	}
	if len(s.turns) > n {
		s.turns = append([]Turn(nil), s.turns[len(s.turns)-n:]...)
	}
}

// Clear forgets every turn.
func (s *State) Clear() {
	s.turns = nil
}

// Len returns the number of turns held.
func (s *State) Len() int {
	return len(s.turns)
}

// Turns returns a copy of the turns, oldest first.
func (s *State) Turns() []Turn {
	return append([]Turn(nil), s.turns...)
}

// Messages renders the turns as chat messages.
func (s *State) Messages() []*schema.Message {
	msgs := make([]*schema.Message, len(s.turns))
	for i, t := range s.turns {
		if t.Role == Assistant {
			msgs[i] = schema.AssistantMessage(t.Content, nil)
		} else {
			msgs[i] = schema.UserMessage(t.Content)
		}
	}
	return msgs
}
