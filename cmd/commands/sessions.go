package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/config"
	"github.com/dohr-michael/secretary/internal/sessions"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect conversation transcripts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all sessions",
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show the transcript of a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
		},
		DefaultCommand: "list",
	}
}

func newSessionStore() *sessions.FileStore {
	return sessions.NewFileStore(config.SessionsPath())
}

func runSessionsList(_ context.Context, _ *cli.Command) error {
	list, err := newSessionStore().List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEY\tMESSAGES\tTOKENS\tTIMEZONE\tUPDATED")
	for _, s := range list {
		tz := s.Timezone
		if tz == "" {
			tz = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%s\t%s\n",
			s.ID,
			s.Key,
			s.MessageCount,
			s.TokenUsage.Input,
			s.TokenUsage.Output,
			tz,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runSessionsShow(_ context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: secretary sessions show <session_id>")
	}

	entries, err := newSessionStore().Entries(sessionID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No messages in this session.")
		return nil
	}

	for _, e := range entries {
		if e.Kind == sessions.EntryReset {
			fmt.Printf("[%s] --- cleared ---\n", e.Ts.Format("15:04:05"))
			continue
		}
		fmt.Printf("[%s] %s: %s\n", e.Ts.Format("15:04:05"), e.Role, e.Content)
	}
	return nil
}
