package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/secretary/clients/ws"
	"github.com/dohr-michael/secretary/internal/gateway/ws"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one message to a running secretary and print the replies",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "Gateway WebSocket URL",
				Value: "ws://127.0.0.1:18421/api/ws",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Gateway session id (conversations with the same id share memory)",
				Value:   ws.DefaultSession,
			},
			&cli.StringFlag{
				Name:  "as",
				Usage: "Name to sign the message with",
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "Your IANA timezone",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Response timeout in seconds",
				Value: 120,
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if message == "" {
		return fmt.Errorf("usage: secretary ask <message>")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cmd.Int("timeout"))*time.Second)
	defer cancel()

	client, err := wsclient.Dial(ctx, cmd.String("gateway"))
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}
	defer client.Close()

	replies, err := client.Ask(ws.SendMessageParams{
		SessionID: cmd.String("session"),
		Author:    cmd.String("as"),
		Text:      message,
		Timezone:  cmd.String("tz"),
	})
	for _, r := range replies {
		fmt.Fprintln(os.Stdout, r)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("timeout waiting for response")
		}
		return err
	}
	return nil
}
