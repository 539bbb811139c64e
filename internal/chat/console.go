package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dohr-michael/secretary/internal/secretary"
)

// ConsoleKey is the session key of the local console conversation.
const ConsoleKey = "console:local"

// Console runs one conversation over a reader and writer.
type Console struct {
	In       io.Reader
	Out      io.Writer
	Handler  Handler
	Author   string
	Timezone string
	// Render formats replies; nil prints them as-is.
	Render Renderer
	// Styled enables lipgloss decoration of the prompt and speaker tags.
	Styled bool
}

// Run reads lines until EOF, "exit" or ctx cancellation. It is the piped
// counterpart of RunInteractive.
func (c *Console) Run(ctx context.Context) error {
	render := c.Render
	if render == nil {
		render = PlainRenderer
	}
	replier := secretary.ReplierFunc(func(_ context.Context, text string) error {
		_, err := fmt.Fprintf(c.Out, "%s %s\n", c.style(assistantStyle, "secretary:"), render(text))
		return err
	})

	fmt.Fprintln(c.Out, c.style(hintStyle, "Type a message. \"clear\" resets memory, \"exit\" quits."))
	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, c.style(promptStyle, "> "))
		if !scanner.Scan() {
			fmt.Fprintln(c.Out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := c.Handler.Handle(ctx, c.inbound(line), replier); err != nil {
			return err
		}
	}
}

func (c *Console) inbound(text string) secretary.Inbound {
	return secretary.Inbound{SessionKey: ConsoleKey, Author: c.Author, Text: text, Timezone: c.Timezone}
}

func (c *Console) style(s interface{ Render(...string) string }, text string) string {
	if !c.Styled {
		return text
	}
	return s.Render(text)
}
