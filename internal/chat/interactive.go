package chat

import (
	"context"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/dohr-michael/secretary/internal/secretary"
)

type (
	replyMsg    string
	turnDoneMsg struct{ err error }
)

// consoleModel is the terminal UI: finished exchanges scroll above, the
// input line stays at the bottom.
type consoleModel struct {
	ctx     context.Context
	console *Console
	render  Renderer
	input   textinput.Model

	busy    bool
	pending <-chan tea.Msg
	err     error
}

func newConsoleModel(ctx context.Context, c *Console) consoleModel {
	ti := textinput.New()
	ti.Prompt = c.style(promptStyle, "> ")
	ti.Placeholder = "Ask your secretary..."
	ti.Focus()

	render := c.Render
	if render == nil {
		render = PlainRenderer
	}
	return consoleModel{ctx: ctx, console: c, render: render, input: ti}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Println(m.console.style(hintStyle, "Type a message. \"clear\" resets memory, \"exit\" quits."))
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.SetWidth(max(msg.Width-4, 10))
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit
		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			switch line {
			case "":
				return m, nil
			case "exit", "quit":
				return m, tea.Quit
			}
			m.busy = true
			m.pending = m.submit(line)
			return m, tea.Batch(
				tea.Println(m.console.style(promptStyle, "> ")+line),
				waitFor(m.pending),
			)
		}

	case replyMsg:
		return m, tea.Batch(
			tea.Println(m.console.style(assistantStyle, "secretary:")+" "+m.render(string(msg))),
			waitFor(m.pending),
		)

	case turnDoneMsg:
		m.busy = false
		m.pending = nil
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) View() tea.View {
	if m.busy {
		return tea.NewView(m.console.style(hintStyle, "thinking..."))
	}
	return tea.NewView(m.input.View())
}

// submit runs one turn in the background. Replies and the final turnDoneMsg
// arrive on the returned channel, which is closed afterwards.
func (m consoleModel) submit(line string) <-chan tea.Msg {
	ch := make(chan tea.Msg, 4)
	send := func(msg tea.Msg) bool {
		select {
		case ch <- msg:
			return true
		case <-m.ctx.Done():
			return false
		}
	}
	go func() {
		defer close(ch)
		replier := secretary.ReplierFunc(func(ctx context.Context, text string) error {
			if !send(replyMsg(text)) {
				return ctx.Err()
			}
			return nil
		})
		err := m.console.Handler.Handle(m.ctx, m.console.inbound(line), replier)
		send(turnDoneMsg{err: err})
	}()
	return ch
}

func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// RunInteractive runs the conversation as a terminal UI on In and Out until
// the user quits or ctx is cancelled.
func (c *Console) RunInteractive(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newConsoleModel(ctx, c),
		tea.WithContext(ctx),
		tea.WithInput(c.In),
		tea.WithOutput(c.Out),
	)
	final, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	if m, ok := final.(consoleModel); ok {
		return m.err
	}
	return nil
}
