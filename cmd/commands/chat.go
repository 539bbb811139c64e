package commands

import (
	"context"
	"os"
	"os/user"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/secretary/internal/chat"
)

// NewChatCommand returns the chat subcommand.
func NewChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the secretary in this terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "as",
				Usage: "Name to sign messages with (default: OS user)",
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "Your IANA timezone (default: conversation.default_timezone)",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Disable colours and Markdown rendering",
			},
		},
		Action: runChat,
	}
}

func runChat(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	author := cmd.String("as")
	if author == "" {
		if u, err := user.Current(); err == nil {
			author = u.Username
		}
	}

	console := &chat.Console{
		In:       os.Stdin,
		Out:      os.Stdout,
		Handler:  a.coordinator,
		Author:   author,
		Timezone: cmd.String("tz"),
	}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) && !cmd.Bool("plain") {
		width, _, err := term.GetSize(fd)
		if err != nil || width <= 0 {
			width = 80
		}
		console.Styled = true
		console.Render = chat.MarkdownRenderer(width)
		return console.RunInteractive(ctx)
	}
	return console.Run(ctx)
}
