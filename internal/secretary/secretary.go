// Package secretary coordinates chat sessions: it keeps each session's
// conversation window, runs the dispatch pipeline for every inbound message
// and narrates the outcome back to the transport.
package secretary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/conversation"
	"github.com/dohr-michael/secretary/internal/dispatch"
	"github.com/dohr-michael/secretary/internal/sessions"
)

// Defaults applied when Options leave a field empty.
const (
	DefaultHistoryTurns = 6
	DefaultClearCommand = "clear"
)

// Inbound is one message received from a chat transport.
type Inbound struct {
	// SessionKey identifies the conversation, e.g. "slack:C0123".
	SessionKey string
	Author     string
	Text       string
	// Timezone is an IANA name; empty keeps the session's last known zone.
	Timezone string
	// Received defaults to the coordinator clock.
	Received time.Time
}

// Replier sends text back on the transport the message came from.
type Replier interface {
	Reply(ctx context.Context, text string) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, text string) error

func (f ReplierFunc) Reply(ctx context.Context, text string) error { return f(ctx, text) }

// Dispatcher runs one tool-enabled exchange.
type Dispatcher interface {
	Process(ctx context.Context, history []*schema.Message, now time.Time) (*dispatch.Result, error)
}

// FollowUpper composes the due-date nudge.
type FollowUpper interface {
	FollowUp(ctx context.Context, cards []board.Card, now time.Time) (string, error)
}

// Options tunes a Coordinator.
type Options struct {
	HistoryTurns    int
	ClearCommand    string
	DefaultTimezone string
	// Transcripts persists turns so windows survive restarts. Optional.
	Transcripts sessions.Store
	Now         func() time.Time
}

// Coordinator serializes message handling per session.
type Coordinator struct {
	dispatcher  Dispatcher
	followUps   FollowUpper
	transcripts sessions.Store
	turns       int
	clear       string
	defaultTZ   *time.Location
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	id       string
	state    *conversation.State
	location *time.Location
}

// New creates a Coordinator.
func New(d Dispatcher, f FollowUpper, opts Options) *Coordinator {
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = DefaultHistoryTurns
	}
	if opts.ClearCommand == "" {
		opts.ClearCommand = DefaultClearCommand
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		dispatcher:  d,
		followUps:   f,
		transcripts: opts.Transcripts,
		turns:       opts.HistoryTurns,
		clear:       opts.ClearCommand,
		defaultTZ:   board.LoadLocation(opts.DefaultTimezone),
		now:         opts.Now,
		sessions:    make(map[string]*session),
	}
}

// Handle processes one inbound message and sends every reply through r.
// Pipeline failures are answered with an apology and logged; the returned
// error only reports session or reply problems.
func (c *Coordinator) Handle(ctx context.Context, in Inbound, r Replier) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil
	}

	s, err := c.session(in.SessionKey)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx = sessions.ContextWithSessionID(ctx, s.id)

	if strings.EqualFold(text, c.clear) {
		s.state.Clear()
		if c.transcripts != nil {
			if err := c.transcripts.Reset(s.id); err != nil {
				slog.Warn("transcript reset failed", "session", s.id, "error", err)
			}
		}
		return r.Reply(ctx, BlankSlate)
	}

	c.updateLocation(s, in.Timezone)

	// The model sees the last N turns plus the new one; the stored window
	// goes back to N once the turn's replies are on record.
	s.state.KeepLast(c.turns)
	defer s.state.KeepLast(c.turns)
	c.remember(s, conversation.User, UserTurn(in.Author, text))

	now := in.Received
	if now.IsZero() {
		now = c.now()
	}
	now = now.In(s.location)

	res, err := c.dispatcher.Process(ctx, s.state.Messages(), now)
	if err != nil {
		slog.Error("dispatch failed", "session", s.id, "error", err)
		return r.Reply(ctx, Apology)
	}

	if err := c.sayOnRecord(ctx, s, r, res.Reply); err != nil {
		return err
	}
	for _, msg := range Narrate(res) {
		if err := c.sayOnRecord(ctx, s, r, msg); err != nil {
			return err
		}
	}
	if err := c.sayOnRecord(ctx, s, r, PartialFailure(res)); err != nil {
		return err
	}

	touched := append(append([]board.Card{}, res.Created...), res.Updated...)
	if len(touched) == 0 || c.followUps == nil {
		return nil
	}
	nudge, err := c.followUps.FollowUp(ctx, touched, now)
	if err != nil {
		slog.Warn("follow-up failed", "session", s.id, "error", err)
		return nil
	}
	return c.sayOnRecord(ctx, s, r, nudge)
}

// Reset clears the memory of a session without a chat message.
func (c *Coordinator) Reset(key string) error {
	s, err := c.session(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Clear()
	if c.transcripts != nil {
		return c.transcripts.Reset(s.id)
	}
	return nil
}

// History returns a copy of the session's current window.
func (c *Coordinator) History(key string) ([]conversation.Turn, error) {
	s, err := c.session(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Turns(), nil
}

// sayOnRecord sends a non-empty message and remembers it as an assistant turn.
func (c *Coordinator) sayOnRecord(ctx context.Context, s *session, r Replier, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := r.Reply(ctx, text); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	c.remember(s, conversation.Assistant, text)
	return nil
}

func (c *Coordinator) remember(s *session, role conversation.Role, content string) {
	if err := s.state.Append(role, content); err != nil {
		slog.Error("append turn", "session", s.id, "error", err)
		return
	}
	if c.transcripts == nil {
		return
	}
	if err := c.transcripts.AppendTurn(s.id, conversation.Turn{Role: role, Content: content}); err != nil {
		slog.Warn("transcript append failed", "session", s.id, "error", err)
	}
}

func (c *Coordinator) updateLocation(s *session, tz string) {
	if tz == "" {
		return
	}
	loc := board.LoadLocation(tz)
	if loc.String() == s.location.String() {
		return
	}
	s.location = loc
	if c.transcripts == nil {
		return
	}
	meta, err := c.transcripts.Get(s.id)
	if err != nil {
		slog.Warn("session meta", "session", s.id, "error", err)
		return
	}
	meta.Timezone = loc.String()
	if err := c.transcripts.UpdateMeta(meta); err != nil {
		slog.Warn("session meta update failed", "session", s.id, "error", err)
	}
}

// session returns the in-memory session for key, rebuilding its window from
// the transcript on first use.
func (c *Coordinator) session(key string) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[key]; ok {
		return s, nil
	}

	s := &session{id: sessions.SessionID(key), state: conversation.New(), location: c.defaultTZ}
	if c.transcripts != nil {
		meta, err := c.transcripts.Open(key)
		if err != nil {
			return nil, fmt.Errorf("open session %q: %w", key, err)
		}
		s.id = meta.ID
		if meta.Timezone != "" {
			s.location = board.LoadLocation(meta.Timezone)
		}
		turns, err := c.transcripts.Window(meta.ID, c.turns)
		if err != nil {
			return nil, fmt.Errorf("load transcript %q: %w", key, err)
		}
		s.state = conversation.New(turns...)
	}
	c.sessions[key] = s
	return s, nil
}
