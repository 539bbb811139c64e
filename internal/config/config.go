package config

import "time"

// Config is the root configuration for the secretary.
type Config struct {
	Models       ModelsConfig       `json:"models"`
	Board        BoardConfig        `json:"board"`
	Slack        SlackConfig        `json:"slack"`
	Gateway      GatewayConfig      `json:"gateway"`
	Conversation ConversationConfig `json:"conversation"`
	Completion   CompletionConfig   `json:"completion"`
	Digest       DigestConfig       `json:"digest"`
	Prompts      PromptsConfig      `json:"prompts"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver        string         `json:"driver"` // "anthropic", "openai", "mistral", "ollama", "gemini"
	Model         string         `json:"model"`
	BaseURL       string         `json:"base_url,omitempty"`
	Auth          AuthConfig     `json:"auth"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	ContextWindow int            `json:"context_window,omitempty"`
	Timeout       Duration       `json:"timeout,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // direct key, ${VAR}, or ENC[age:...]
	Token  string `json:"token,omitempty"`   // OAuth/Bearer token
}

// BoardConfig selects and configures the task board backend.
type BoardConfig struct {
	Driver string       `json:"driver"` // "trello" or "sqlite"
	Trello TrelloConfig `json:"trello"`
	SQLite SQLiteConfig `json:"sqlite"`
}

// TrelloConfig configures the Trello REST backend.
type TrelloConfig struct {
	APIKey    string `json:"api_key"`
	Token     string `json:"token"`
	BoardName string `json:"board_name"`
	BaseURL   string `json:"base_url,omitempty"`
}

// SQLiteConfig configures the local board backend.
type SQLiteConfig struct {
	Path    string `json:"path"`
	URLBase string `json:"url_base,omitempty"` // prefix for card links
}

// SlackConfig configures the Slack Socket Mode transport.
type SlackConfig struct {
	BotToken      string `json:"bot_token"`
	AppToken      string `json:"app_token"`
	DigestChannel string `json:"digest_channel,omitempty"`
}

// Enabled reports whether both Slack tokens are present.
func (c SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.AppToken != ""
}

// GatewayConfig holds the HTTP/WebSocket gateway settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ConversationConfig controls per-session conversation memory.
type ConversationConfig struct {
	HistoryTurns    int    `json:"history_turns"`
	ClearCommand    string `json:"clear_command"`
	DefaultTimezone string `json:"default_timezone"`
}

// CompletionConfig controls completion requests.
type CompletionConfig struct {
	Timeout     Duration `json:"timeout"`
	Temperature float64  `json:"temperature"`
}

// DigestConfig schedules the morning and evening task digests.
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Morning  string `json:"morning"` // 5-field cron
	Evening  string `json:"evening"`
	Timezone string `json:"timezone"`
}

// PromptsConfig points at an optional YAML file overriding built-in prompts.
type PromptsConfig struct {
	File string `json:"file,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
