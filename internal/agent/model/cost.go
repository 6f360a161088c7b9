package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing is USD per 1M tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gpt-4o-mini":           {InputPerM: 0.15, OutputPerM: 0.60},
}

// ResolvePricing returns zero pricing for unknown models.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// UsageCost converts token usage into USD.
type UsageCost struct {
	PromptTokens     int
	CompletionTokens int
	InputCost        float64
	OutputCost       float64
}

func (u UsageCost) Total() float64 {
	return u.InputCost + u.OutputCost
}

func ComputeCost(usage *schema.TokenUsage, p Pricing) UsageCost {
	if usage == nil {
		return UsageCost{}
	}
	return ComputeTokenCost(usage.PromptTokens, usage.CompletionTokens, p)
}

func ComputeTokenCost(promptTokens, completionTokens int, p Pricing) UsageCost {
	return UsageCost{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		InputCost:        p.InputPerM * float64(promptTokens) / 1_000_000.0,
		OutputCost:       p.OutputPerM * float64(completionTokens) / 1_000_000.0,
	}
}
