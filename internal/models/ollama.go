package models

import (
	"context"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/secretary/internal/config"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaTimeout = 300 * time.Second
)

// NewOllama creates a chat model served by a local Ollama. When the provider
// declares a context_window it is sent as num_ctx, so the server window and
// the completion client's prompt guard agree.
func NewOllama(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	mc := &einoollama.ChatModelConfig{
		BaseURL: orDefault(cfg.BaseURL, defaultOllamaBaseURL),
		Model:   cfg.Model,
		Timeout: timeoutOr(cfg, defaultOllamaTimeout),
	}
	mc.HTTPClient = guardedClient("ollama", mc.Timeout)

	opts := &einoollama.Options{}
	opts.NumCtx = cfg.ContextWindow
	if cfg.MaxTokens > 0 {
		opts.NumPredict = cfg.MaxTokens
	}
	if n, ok := optionInt(cfg, "num_ctx"); ok {
		opts.NumCtx = n
	}
	if topP, ok := optionFloat(cfg, "top_p"); ok {
		opts.TopP = topP
	}
	if topK, ok := optionInt(cfg, "top_k"); ok {
		opts.TopK = topK
	}
	mc.Options = opts

	return einoollama.NewChatModel(ctx, mc)
}
