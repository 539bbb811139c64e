package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/secretary/internal/config"
)

// openAIFlavor holds the defaults of one OpenAI-compatible API.
type openAIFlavor struct {
	name    string
	baseURL string
	model   string
	timeout time.Duration
}

var (
	openAIAPI  = openAIFlavor{name: "openai", model: "gpt-4o-mini", timeout: 60 * time.Second}
	mistralAPI = openAIFlavor{name: "mistral", baseURL: "https://api.mistral.ai/v1", model: "mistral-small-latest", timeout: 5 * time.Minute}
)

// NewOpenAI creates an OpenAI chat model.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	return newOpenAICompatible(ctx, openAIAPI, cfg, auth)
}

// NewMistral creates a Mistral chat model through its OpenAI-compatible API.
func NewMistral(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	return newOpenAICompatible(ctx, mistralAPI, cfg, auth)
}

func newOpenAICompatible(ctx context.Context, flavor openAIFlavor, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	mc := &einoopenai.ChatModelConfig{
		APIKey:  auth.Value,
		Model:   orDefault(cfg.Model, flavor.model),
		BaseURL: orDefault(cfg.BaseURL, flavor.baseURL),
		Timeout: timeoutOr(cfg, flavor.timeout),
	}
	mc.HTTPClient = guardedClient(flavor.name, mc.Timeout)

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxCompletionTokens = &maxTokens
	}
	// The completion client sets temperature per call; top_p is the only
	// sampling knob left to the config.
	if topP, ok := optionFloat(cfg, "top_p"); ok {
		mc.TopP = &topP
	}

	return einoopenai.NewChatModel(ctx, mc)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func timeoutOr(cfg config.ProviderConfig, def time.Duration) time.Duration {
	if d := cfg.Timeout.Duration(); d > 0 {
		return d
	}
	return def
}
