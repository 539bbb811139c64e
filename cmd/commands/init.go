package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/config"
)

// NewInitCommand returns the onboarding subcommand.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Initialize the secretary home directory (~/.secretary)",
		Action: runInit,
	}
}

func runInit(_ context.Context, _ *cli.Command) error {
	root := config.SecretaryPath()
	created := false

	for _, d := range []string{root, config.SessionsPath()} {
		if _, err := os.Stat(d); err != nil {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", d, err)
			}
			fmt.Printf("  Created %s\n", d)
			created = true
		}
	}

	files := []struct {
		path    string
		content string
		perm    os.FileMode
	}{
		{config.ConfigPath(), defaultConfig, 0o644},
		{config.DotenvPath(), defaultDotenv, 0o600},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), f.perm); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		fmt.Printf("  Created %s\n", f.path)
		created = true
	}

	if !created {
		fmt.Printf("%s is already set up. Nothing to do.\n", root)
		return nil
	}

	fmt.Printf(`
  Home set up at %[1]s

  Next steps:
    1. Store your model key: secretary secret set ANTHROPIC_API_KEY sk-ant-...
    2. Pick a board in %[1]s/config.jsonc (a local SQLite board works out of the box)
    3. Try it: secretary chat
`, root)
	return nil
}

const defaultConfig = `{
	// Secretary configuration

	"gateway": {
		"host": "127.0.0.1",
		"port": 18421
	},

	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-20250514",
				"auth": {
					"api_key": "${ANTHROPIC_API_KEY}"
				},
				"max_tokens": 4096
			}

			// Local model via Ollama (no auth required)
			// "local": {
			// 	"driver": "ollama",
			// 	"model": "llama3.1:8b",
			// 	"base_url": "http://localhost:11434"
			// }
		}
	},

	"board": {
		"driver": "sqlite"

		// "driver": "trello",
		// "trello": {
		// 	"api_key": "${{ .Env.TRELLO_API_KEY }}",
		// 	"token": "${{ .Env.TRELLO_TOKEN }}",
		// 	"board_name": "Secretary"
		// }
	},

	"slack": {
		"bot_token": "${{ .Env.SLACK_BOT_TOKEN }}",
		"app_token": "${{ .Env.SLACK_APP_TOKEN }}",
		"digest_channel": ""
	},

	"conversation": {
		"history_turns": 6,
		"clear_command": "clear",
		"default_timezone": "UTC"
	},

	"digest": {
		"enabled": false,
		"morning": "0 8 * * *",
		"evening": "0 18 * * *"
	}
}
`

const defaultDotenv = `# Secretary environment variables
# This file is loaded automatically. Existing env vars are never overridden.
# Values may be ENC[age:...] blobs written by ` + "`secretary secret set`" + `.

# ANTHROPIC_API_KEY=sk-ant-...
# SLACK_BOT_TOKEN=xoxb-...
# SLACK_APP_TOKEN=xapp-...
`
