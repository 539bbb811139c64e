package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/dohr-michael/secretary/internal/secretary"
)

type echoHandler struct {
	got []secretary.Inbound
}

func (h *echoHandler) Handle(ctx context.Context, in secretary.Inbound, r secretary.Replier) error {
	h.got = append(h.got, in)
	return r.Reply(ctx, "echo: "+in.Text)
}

func TestConsoleRun(t *testing.T) {
	h := &echoHandler{}
	var out bytes.Buffer
	c := &Console{
		In:       strings.NewReader("buy milk\n\nexit\nnever read\n"),
		Out:      &out,
		Handler:  h,
		Author:   "Jack",
		Timezone: "Europe/Paris",
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(h.got) != 2 {
		t.Fatalf("handled %d messages, want 2 (empty lines are forwarded and ignored downstream)", len(h.got))
	}
	first := h.got[0]
	if first.SessionKey != ConsoleKey || first.Author != "Jack" || first.Timezone != "Europe/Paris" {
		t.Errorf("inbound = %+v", first)
	}
	if !strings.Contains(out.String(), "secretary: echo: buy milk") {
		t.Errorf("output missing reply:\n%s", out.String())
	}
	if strings.Contains(out.String(), "never read") {
		t.Error("console kept reading after exit")
	}
}

func TestConsoleRenderer(t *testing.T) {
	var out bytes.Buffer
	c := &Console{
		In:      strings.NewReader("hi\n"),
		Out:     &out,
		Handler: &echoHandler{},
		Render:  func(s string) string { return strings.ToUpper(s) },
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "ECHO: HI") {
		t.Errorf("renderer not applied:\n%s", out.String())
	}
}

func pressEnter(t *testing.T, m consoleModel, text string) (consoleModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return next.(consoleModel), cmd
}

func TestConsoleModelTurn(t *testing.T) {
	h := &echoHandler{}
	c := &Console{Handler: h, Author: "Jack", Timezone: "Europe/Paris"}
	m := newConsoleModel(context.Background(), c)

	m, _ = pressEnter(t, m, "  buy milk ")
	if !m.busy || m.pending == nil {
		t.Fatal("model not waiting on the turn")
	}
	if m.input.Value() != "" {
		t.Fatalf("input not cleared: %q", m.input.Value())
	}

	msg := waitFor(m.pending)()
	reply, ok := msg.(replyMsg)
	if !ok || string(reply) != "echo: buy milk" {
		t.Fatalf("first message = %#v", msg)
	}
	next, _ := m.Update(msg)
	m = next.(consoleModel)

	msg = waitFor(m.pending)()
	if done, ok := msg.(turnDoneMsg); !ok || done.err != nil {
		t.Fatalf("second message = %#v", msg)
	}
	next, _ = m.Update(msg)
	m = next.(consoleModel)
	if m.busy {
		t.Fatal("model still busy after the turn")
	}

	want := []secretary.Inbound{{SessionKey: ConsoleKey, Author: "Jack", Text: "buy milk", Timezone: "Europe/Paris"}}
	if diff := cmp.Diff(want, h.got); diff != "" {
		t.Fatalf("inbound (-want +got):\n%s", diff)
	}
}

func TestConsoleModelKeys(t *testing.T) {
	h := &echoHandler{}
	m := newConsoleModel(context.Background(), &Console{Handler: h})

	m, cmd := pressEnter(t, m, "   ")
	if cmd != nil || m.busy {
		t.Fatal("blank line started a turn")
	}

	for _, text := range []string{"exit", "quit"} {
		_, cmd = pressEnter(t, m, text)
		if cmd == nil {
			t.Fatalf("%q: no command", text)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%q did not quit", text)
		}
	}
	if len(h.got) != 0 {
		t.Fatalf("handler called %d times", len(h.got))
	}
}

type failingHandler struct{}

func (failingHandler) Handle(context.Context, secretary.Inbound, secretary.Replier) error {
	return errors.New("board offline")
}

func TestConsoleModelTurnError(t *testing.T) {
	m := newConsoleModel(context.Background(), &Console{Handler: failingHandler{}})
	m, _ = pressEnter(t, m, "hello")

	next, cmd := m.Update(waitFor(m.pending)())
	m = next.(consoleModel)
	if m.err == nil || m.err.Error() != "board offline" {
		t.Fatalf("err = %v", m.err)
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("turn error did not quit")
	}
}
