package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/secretary"
)

// NewExtractCommand returns the extract subcommand.
func NewExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Print the task records found in a message without touching the board",
		ArgsUsage: "[message] (reads stdin when omitted)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "as",
				Usage: "Author the message is attributed to",
				Value: "me",
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "IANA timezone used to resolve relative dates",
			},
		},
		Action: runExtract,
	}
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	text := strings.Join(cmd.Args().Slice(), " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return fmt.Errorf("usage: secretary extract <message>")
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	labels, err := a.store.Labels(ctx)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}
	known := make([]string, 0, len(labels))
	for name := range labels {
		known = append(known, name)
	}
	slices.Sort(known)

	tz := cmd.String("tz")
	if tz == "" {
		tz = a.cfg.Conversation.DefaultTimezone
	}
	now := time.Now().In(board.LoadLocation(tz))

	records, err := a.extractor.Extract(ctx, secretary.UserTurn(cmd.String("as"), text), now, known)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
