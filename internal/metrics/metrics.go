package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_turns_total",
			Help: "Conversation turns processed, by intent and route source",
		},
		[]string{"intent", "source"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sarthi_stage_duration_seconds",
			Help:    "Duration of each turn pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	SafetyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_safety_decisions_total",
			Help: "Safety gate outcomes by reason code",
		},
		[]string{"reason"},
	)

	Orders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_orders_total",
			Help: "Order execution attempts by result",
		},
		[]string{"result"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_notifications_total",
			Help: "Notification deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_llm_requests_total",
			Help: "Text completion calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	LLMCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_llm_cost_usd_total",
			Help: "Estimated text completion spend in USD",
		},
		[]string{"provider", "model"},
	)

	ParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_llm_parse_failures_total",
			Help: "Language model replies rejected by the parsers",
		},
		[]string{"parser"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sarthi_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	ActiveTurns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sarthi_active_turns",
			Help: "Turns currently being processed",
		},
	)
)
