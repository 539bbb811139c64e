package commands

import (
	"context"
	"fmt"
	"regexp"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/config"
	"github.com/dohr-michael/secretary/internal/secrets"
)

var envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSecretCommand returns the secret subcommand.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage encrypted secrets in the .env file",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Encrypt a value with the local age key and store it in .env",
				ArgsUsage: "<NAME> <VALUE>",
				Action:    runSecretSet,
			},
			{
				Name:   "list",
				Usage:  "List the variables stored in .env",
				Action: runSecretList,
			},
			{
				Name:      "rm",
				Usage:     "Remove a variable from .env",
				ArgsUsage: "<NAME>",
				Action:    runSecretRemove,
			},
		},
	}
}

func runSecretSet(_ context.Context, cmd *cli.Command) error {
	name, value := cmd.Args().Get(0), cmd.Args().Get(1)
	if name == "" || value == "" {
		return fmt.Errorf("usage: secretary secret set <NAME> <VALUE>")
	}
	if !envNameRe.MatchString(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}

	keyPath := secrets.KeyPath()
	if err := secrets.GenerateIdentity(keyPath); err != nil {
		return err
	}
	identity, err := secrets.LoadIdentity(keyPath)
	if err != nil {
		return err
	}

	blob, err := secrets.Encrypt(value, identity.Recipient())
	if err != nil {
		return err
	}
	if err := secrets.SetEntry(config.DotenvPath(), name, blob); err != nil {
		return err
	}
	fmt.Printf("Stored %s in %s (encrypted)\n", name, config.DotenvPath())
	return nil
}

func runSecretList(_ context.Context, _ *cli.Command) error {
	entries, err := secrets.ListEntries(config.DotenvPath())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No variables in", config.DotenvPath())
		return nil
	}
	for _, e := range entries {
		state := "plain"
		if e.Encrypted {
			state = "encrypted"
		}
		fmt.Printf("%-32s %s\n", e.Key, state)
	}
	return nil
}

func runSecretRemove(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: secretary secret rm <NAME>")
	}
	removed, err := secrets.RemoveEntry(config.DotenvPath(), name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s is not set in %s", name, config.DotenvPath())
	}
	fmt.Printf("Removed %s\n", name)
	return nil
}
