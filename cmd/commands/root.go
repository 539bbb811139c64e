package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "secretary",
		Usage: "A chat secretary that keeps your task board in sync with the conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewInitCommand(),
			NewServeCommand(),
			NewChatCommand(),
			NewAskCommand(),
			NewTasksCommand(),
			NewExtractCommand(),
			NewStatusCommand(),
			NewSessionsCommand(),
			NewSecretCommand(),
		},
	}
}
