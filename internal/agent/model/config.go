package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	PendingOrderTTL time.Duration `envconfig:"PENDING_ORDER_TTL" default:"10m"`
	MaxHistory      int           `envconfig:"CONVERSATION_MAX_HISTORY" default:"20"`
	ContextTurns    int           `envconfig:"CONVERSATION_CONTEXT_TURNS" default:"6"`
}

type LLMConfig struct {
	Timeout time.Duration `envconfig:"LLM_TIMEOUT" default:"8s"`
	Gemini  struct {
		APIKey      string  `envconfig:"GEMINI_API_KEY"`
		BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
		Model       string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-lite"`
		MaxTokens   int     `envconfig:"GEMINI_MAX_TOKENS" default:"512"`
		Temperature float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.1"`
	}
	OpenAI struct {
		APIKey      string  `envconfig:"OPENAI_API_KEY"`
		Model       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		MaxTokens   int     `envconfig:"OPENAI_MAX_TOKENS" default:"512"`
		Temperature float32 `envconfig:"OPENAI_TEMPERATURE" default:"0.1"`
	}
}

type SafetyConfig struct {
	MatchThreshold    float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	HighConfidence    float64       `envconfig:"MATCH_HIGH_CONFIDENCE" default:"0.75"`
	HistoryWindowDays int           `envconfig:"INTERACTION_HISTORY_DAYS" default:"90"`
	InteractionFuzzy  float64       `envconfig:"INTERACTION_FUZZY_THRESHOLD" default:"0.7"`
	MaxOrderQuantity  int           `envconfig:"MAX_ORDER_QUANTITY" default:"50"`
	NotifyTimeout     time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

type PharmacyConfig struct {
	Name     string `envconfig:"PHARMACY_NAME" default:"Sarthi Pharmacy"`
	Currency string `envconfig:"PHARMACY_CURRENCY" default:"₹"`
}
