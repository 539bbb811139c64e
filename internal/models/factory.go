package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/secretary/internal/config"
)

// CreateModel creates a model.ToolCallingChatModel from a provider config.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "ollama" {
		return NewOllama(ctx, cfg)
	}

	var build func(context.Context, config.ProviderConfig, ResolvedAuth) (model.ToolCallingChatModel, error)
	switch driver {
	case "anthropic":
		build = NewAnthropic
	case "openai":
		build = NewOpenAI
	case "mistral":
		build = NewMistral
	case "gemini":
		build = NewGemini
	default:
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	auth, err := ResolveAuth(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}
	return build(ctx, cfg, auth)
}

// optionFloat reads a numeric provider option.
func optionFloat(cfg config.ProviderConfig, key string) (float32, bool) {
	v, ok := cfg.Options[key].(float64)
	return float32(v), ok
}

// optionInt reads a whole-number provider option; JSON numbers decode as float64.
func optionInt(cfg config.ProviderConfig, key string) (int, bool) {
	v, ok := cfg.Options[key].(float64)
	return int(v), ok
}
