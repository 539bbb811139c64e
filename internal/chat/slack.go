package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/dohr-michael/secretary/internal/secretary"
)

// slackAPI is the part of the Slack web API the transport uses.
type slackAPI interface {
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type identity struct {
	name     string
	timezone string
}

// Slack receives channel and DM messages over Socket Mode.
type Slack struct {
	api     slackAPI
	socket  *socketmode.Client
	handler Handler

	mu    sync.Mutex
	users map[string]identity
}

// NewSlack creates a Socket Mode transport. appToken is the xapp- token.
func NewSlack(botToken, appToken string, handler Handler) *Slack {
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	return &Slack{
		api:     api,
		socket:  socketmode.New(api),
		handler: handler,
		users:   make(map[string]identity),
	}
}

// Run connects and processes events until ctx is done.
func (s *Slack) Run(ctx context.Context) error {
	go s.consume(ctx)
	slog.Info("slack transport connecting")
	return s.socket.RunContext(ctx)
}

func (s *Slack) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.socket.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeConnected:
				slog.Info("slack transport connected")
			case socketmode.EventTypeEventsAPI:
				if evt.Request != nil {
					s.socket.Ack(*evt.Request)
				}
				api, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok || api.Type != slackevents.CallbackEvent {
					continue
				}
				if msg, ok := api.InnerEvent.Data.(*slackevents.MessageEvent); ok {
					s.handleMessage(ctx, msg)
				}
			}
		}
	}
}

// handleMessage forwards human-authored text messages to the handler.
func (s *Slack) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	if ev.BotID != "" || ev.SubType != "" || ev.Text == "" {
		return
	}

	who := s.identify(ctx, ev.User)
	in := secretary.Inbound{
		SessionKey: "slack:" + ev.Channel,
		Author:     who.name,
		Text:       ev.Text,
		Timezone:   who.timezone,
	}
	replier := secretary.ReplierFunc(func(ctx context.Context, text string) error {
		return s.Post(ctx, ev.Channel, text)
	})
	if err := s.handler.Handle(ctx, in, replier); err != nil {
		slog.Error("slack message handling failed", "channel", ev.Channel, "error", err)
	}
}

// Post sends text to a channel.
func (s *Slack) Post(ctx context.Context, channel, text string) error {
	if _, _, err := s.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// identify resolves a user's display name and timezone, caching the result.
// Lookup failures fall back to the raw user id and no timezone.
func (s *Slack) identify(ctx context.Context, userID string) identity {
	s.mu.Lock()
	who, ok := s.users[userID]
	s.mu.Unlock()
	if ok {
		return who
	}

	who = identity{name: userID}
	user, err := s.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		slog.Warn("slack user lookup failed", "user", userID, "error", err)
		return who
	}
	if user.Profile.RealNameNormalized != "" {
		who.name = user.Profile.RealNameNormalized
	} else if user.RealName != "" {
		who.name = user.RealName
	}
	who.timezone = user.TZ

	s.mu.Lock()
	s.users[userID] = who
	s.mu.Unlock()
	return who
}
