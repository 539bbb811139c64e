package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

const (
	DefaultHistoryTurns      = 6
	DefaultClearCommand      = "clear"
	DefaultTimezone          = "UTC"
	DefaultCompletionTimeout = 60 * time.Second
	DefaultTrelloBoard       = "Secretary"
)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// standardizes it to plain JSON, unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes JSONC config content and applies defaults.
func Parse(data []byte) (*Config, error) {
	// Templates live inside strings, so expand before standardizing.
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config holding only defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18421
	}
	if cfg.Board.Driver == "" {
		cfg.Board.Driver = "sqlite"
	}
	if cfg.Board.Trello.BoardName == "" {
		cfg.Board.Trello.BoardName = DefaultTrelloBoard
	}
	if cfg.Board.SQLite.Path == "" {
		cfg.Board.SQLite.Path = BoardDBPath()
	}
	if cfg.Conversation.HistoryTurns <= 0 {
		cfg.Conversation.HistoryTurns = DefaultHistoryTurns
	}
	if cfg.Conversation.ClearCommand == "" {
		cfg.Conversation.ClearCommand = DefaultClearCommand
	}
	if cfg.Conversation.DefaultTimezone == "" {
		cfg.Conversation.DefaultTimezone = DefaultTimezone
	}
	if cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout = Duration(DefaultCompletionTimeout)
	}
	if cfg.Digest.Morning == "" {
		cfg.Digest.Morning = "0 8 * * *"
	}
	if cfg.Digest.Evening == "" {
		cfg.Digest.Evening = "0 18 * * *"
	}
	if cfg.Digest.Timezone == "" {
		cfg.Digest.Timezone = cfg.Conversation.DefaultTimezone
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}
