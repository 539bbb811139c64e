package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
	// This is a JSONC comment
	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-6",
				"auth": {
					"api_key": "${{ .Env.ANTHROPIC_API_KEY }}"
				},
				"max_tokens": 4096,
			},
		},
	},
	"board": {
		"driver": "trello",
		"trello": {"api_key": "k", "token": "t"}
	},
	"conversation": {"history_turns": 4},
	"completion": {"timeout": "30s"},
}`)

	t.Setenv("ANTHROPIC_API_KEY", "test-key-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Models.Default != "claude" {
		t.Errorf("expected default claude, got %s", cfg.Models.Default)
	}
	p, ok := cfg.Models.Providers["claude"]
	if !ok {
		t.Fatal("expected claude provider")
	}
	if p.Auth.APIKey != "test-key-123" {
		t.Errorf("expected api_key test-key-123, got %s", p.Auth.APIKey)
	}
	if p.MaxTokens != 4096 {
		t.Errorf("expected max_tokens 4096, got %d", p.MaxTokens)
	}
	if cfg.Board.Driver != "trello" {
		t.Errorf("expected trello driver, got %q", cfg.Board.Driver)
	}
	if cfg.Board.Trello.BoardName != DefaultTrelloBoard {
		t.Errorf("expected default board name, got %q", cfg.Board.Trello.BoardName)
	}
	if cfg.Conversation.HistoryTurns != 4 {
		t.Errorf("expected history_turns 4, got %d", cfg.Conversation.HistoryTurns)
	}
	if cfg.Completion.Timeout.Duration() != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", cfg.Completion.Timeout.Duration())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRETARY_PATH", "/tmp/sec-defaults")
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" || cfg.Gateway.Port != 18421 {
		t.Errorf("unexpected gateway defaults: %s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	}
	if cfg.Board.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Board.Driver)
	}
	if cfg.Board.SQLite.Path != "/tmp/sec-defaults/board.db" {
		t.Errorf("unexpected sqlite path %q", cfg.Board.SQLite.Path)
	}
	if cfg.Conversation.HistoryTurns != DefaultHistoryTurns {
		t.Errorf("expected %d history turns, got %d", DefaultHistoryTurns, cfg.Conversation.HistoryTurns)
	}
	if cfg.Conversation.ClearCommand != "clear" {
		t.Errorf("expected clear command, got %q", cfg.Conversation.ClearCommand)
	}
	if cfg.Completion.Timeout.Duration() != DefaultCompletionTimeout {
		t.Errorf("expected default timeout, got %s", cfg.Completion.Timeout.Duration())
	}
	if cfg.Digest.Timezone != "UTC" {
		t.Errorf("digest timezone should follow conversation default, got %q", cfg.Digest.Timezone)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load(writeConfig(t, `{"models": `)); err == nil {
		t.Fatal("expected error for truncated config")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
