package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/chat"
)

// NewTasksCommand returns the tasks subcommand.
func NewTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "List open tasks on the board",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "tz",
				Usage: "IANA timezone for due dates (default: conversation.default_timezone)",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print raw Markdown",
			},
		},
		Action: runTasks,
	}
}

func runTasks(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	a, err := openBoard(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tz := cmd.String("tz")
	if tz == "" {
		tz = a.cfg.Conversation.DefaultTimezone
	}
	loc := board.LoadLocation(tz)

	cards, err := a.store.Tasks(ctx, loc)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	render := chat.PlainRenderer
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) && !cmd.Bool("plain") {
		width, _, err := term.GetSize(fd)
		if err != nil || width <= 0 {
			width = 80
		}
		render = chat.MarkdownRenderer(width)
	}
	fmt.Print(render(tasksMarkdown(cards, loc)))
	return nil
}

// tasksMarkdown groups cards by list.
func tasksMarkdown(cards []board.Card, loc *time.Location) string {
	if len(cards) == 0 {
		return "No open tasks.\n"
	}

	var order []string
	byList := make(map[string][]board.Card)
	for _, c := range cards {
		list := c.List
		if list == "" {
			list = board.TypeActionItems
		}
		if _, ok := byList[list]; !ok {
			order = append(order, list)
		}
		byList[list] = append(byList[list], c)
	}

	var b strings.Builder
	for _, list := range order {
		fmt.Fprintf(&b, "## %s\n\n", list)
		for _, c := range byList[list] {
			fmt.Fprintf(&b, "- [%s](%s)", c.Name, c.URL)
			if c.Due != nil {
				fmt.Fprintf(&b, " due %s", board.FormatModelTime(*c.Due, loc))
			}
			if len(c.Labels) > 0 {
				fmt.Fprintf(&b, " `%s`", strings.Join(c.Labels, "` `"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
