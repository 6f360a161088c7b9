package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// OpenAICompleter is the secondary provider.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAICompleter{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (c *OpenAICompleter) Name() string { return "openai" }

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from openai")
	}
	cost := model.ComputeTokenCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, model.ResolvePricing(c.model))
	metrics.LLMCostUSD.WithLabelValues(c.Name(), c.model).Add(cost.Total())
	logx.Debug().Str("model", c.model).Int("total_tokens", resp.Usage.TotalTokens).Msg("LLM usage")
	return resp.Choices[0].Message.Content, nil
}
