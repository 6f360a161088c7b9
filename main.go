package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sarthi-rx/server/internal/agent/advice"
	"github.com/sarthi-rx/server/internal/agent/confirm"
	"github.com/sarthi-rx/server/internal/agent/execution"
	"github.com/sarthi-rx/server/internal/agent/extract"
	"github.com/sarthi-rx/server/internal/agent/graph"
	"github.com/sarthi-rx/server/internal/agent/graph/conversations"
	"github.com/sarthi-rx/server/internal/agent/graph/nodes"
	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/llm"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/repo"
	"github.com/sarthi-rx/server/internal/agent/resolver"
	"github.com/sarthi-rx/server/internal/agent/safety"
	"github.com/sarthi-rx/server/internal/api"
	"github.com/sarthi-rx/server/internal/core"
	"github.com/sarthi-rx/server/internal/notify"
	"github.com/sarthi-rx/server/internal/scheduler"
	"github.com/sarthi-rx/server/internal/store"
	logx "github.com/sarthi-rx/server/pkg/logger"
	pkgredis "github.com/sarthi-rx/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis          pkgredis.Config
	SessionBackend string `envconfig:"SESSION_BACKEND" default:"memory"`
	Store          store.Config

	// Agent configs
	LLM              model.LLMConfig
	Conversation     model.ConversationConfig
	Safety           model.SafetyConfig
	Pharmacy         model.PharmacyConfig
	InteractionRules string `envconfig:"INTERACTION_RULES_PATH"`
	RecommendLimit   int    `envconfig:"RECOMMEND_LIMIT" default:"3"`

	Notify    notify.Config
	Scheduler scheduler.Config
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env), Service: "sarthi"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLite(ctx, cfg.Store)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open store")
	}
	defer st.Close()

	checks := map[string]api.Pinger{"sqlite": st}
	sessions, memSessions := newSessionStore(cfg, checks)

	completer := newCompleter(ctx, cfg.LLM)
	rules, err := loadRules(cfg.InteractionRules)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to load interaction rules")
	}

	channels := cfg.Notify.Channels()
	dispatcher := notify.NewDispatcher(cfg.Notify.Timeout, channels...)
	var fulfiller model.Fulfiller = notify.LogFulfiller{}
	if cfg.Notify.Webhook.FulfillmentURL != "" {
		fulfiller = notify.NewWebhook("fulfillment", cfg.Notify.Webhook.FulfillmentURL, nil)
	}
	logx.Info().Int("channels", len(channels)).Msg("notification channels configured")

	window := time.Duration(cfg.Safety.HistoryWindowDays) * 24 * time.Hour
	checker := safety.NewInteractionChecker(st, rules, window, cfg.Safety.InteractionFuzzy)

	// ====================================================
	// Build the turn graph entirely from env
	deps := &nodes.Deps{
		Classifier:  intent.NewClassifier(completer, cfg.Pharmacy.Name),
		Advisor:     advice.NewAdvisor(completer),
		Recommender: advice.NewRecommender(st, cfg.RecommendLimit),
		Extractor:   extract.NewExtractor(completer, cfg.Safety.MaxOrderQuantity),
		Resolver:    resolver.NewResolver(st, resolver.NewMatcher(cfg.Safety.MatchThreshold, cfg.Safety.HighConfidence)),
		Gate:        safety.NewGate(st, st, checker),
		Handshake:   confirm.NewHandshake(completer),
		Engine: execution.NewEngine(st, st,
			execution.WithNotifier(dispatcher),
			execution.WithFulfiller(fulfiller),
			execution.WithPatients(st),
			execution.WithCurrency(cfg.Pharmacy.Currency),
		),
		Messages: conversations.NewMessagesManager(cfg.Conversation),
		Catalog:  st,
		Orders:   st,
		Patients: st,
		Refills:  st,
		LLM:      completer,
		Pharmacy: cfg.Pharmacy,
	}

	orch, err := graph.NewOrchestrator(ctx, graph.Config{
		Deps:          deps,
		Sessions:      sessions,
		Prescriptions: st,
		Conversation:  cfg.Conversation,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build orchestrator")
	}

	var sweeper scheduler.Sweeper
	if memSessions != nil {
		sweeper = memSessions
	}
	sched, err := scheduler.New(cfg.Scheduler, st, st, dispatcher, sweeper)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to configure scheduler")
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(orch, checks)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newSessionStore prefers Redis when configured and reachable. The in-memory
// store is returned a second time so the scheduler can sweep it.
func newSessionStore(cfg AppConfig, checks map[string]api.Pinger) (model.SessionStore, *repo.MemorySessionStore) {
	if strings.EqualFold(cfg.SessionBackend, "redis") {
		rdb, err := cfg.Redis.New()
		if err == nil {
			checks["redis"] = pkgredis.Pinger{Client: rdb}
			logx.Info().Msg("Connected to Redis successfully")
			return repo.NewRedisSessionStore(rdb, cfg.Conversation.SessionTTL), nil
		}
		logx.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory sessions")
	}
	mem := repo.NewMemorySessionStore(cfg.Conversation.SessionTTL)
	return mem, mem
}

// newCompleter chains the configured providers, Gemini first. It returns nil
// when no provider has credentials so every stage runs on its rules.
func newCompleter(ctx context.Context, cfg model.LLMConfig) model.TextCompleter {
	var providers []llm.Provider
	if cfg.Gemini.APIKey != "" {
		g, err := llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			Model:       cfg.Gemini.Model,
			MaxTokens:   cfg.Gemini.MaxTokens,
			Temperature: cfg.Gemini.Temperature,
		})
		if err != nil {
			logx.Warn().Err(err).Msg("Gemini provider disabled")
		} else {
			providers = append(providers, g)
		}
	}
	if cfg.OpenAI.APIKey != "" {
		o, err := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
		if err != nil {
			logx.Warn().Err(err).Msg("OpenAI provider disabled")
		} else {
			providers = append(providers, o)
		}
	}
	if len(providers) == 0 {
		logx.Warn().Msg("no language model configured, running rules only")
		return nil
	}
	return llm.NewChain(cfg.Timeout, providers...)
}

func loadRules(path string) (*safety.RuleSet, error) {
	if path == "" {
		return safety.DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return safety.LoadRules(data)
}
