package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// GeminiCompleter runs single-prompt completions through the eino Gemini chat
// model so chat model callbacks observe every call.
type GeminiCompleter struct {
	chat  *gemini.ChatModel
	model string
}

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}
	return &GeminiCompleter{chat: chat, model: cfg.Model}, nil
}

func (g *GeminiCompleter) Name() string { return "gemini" }

// Complete reuses the handlers of the calling graph node under a chat model
// run info, so model observers see the call.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx = einocb.ReuseHandlers(ctx, &einocb.RunInfo{
		Name:      g.model,
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	})
	out, err := g.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("gemini returned no message")
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		cost := model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(g.model))
		metrics.LLMCostUSD.WithLabelValues(g.Name(), g.model).Add(cost.Total())
		logx.Debug().
			Str("model", g.model).
			Int("prompt_tokens", cost.PromptTokens).
			Int("completion_tokens", cost.CompletionTokens).
			Float64("total_cost_usd", cost.Total()).
			Msg("LLM usage")
	}
	return out.Content, nil
}
