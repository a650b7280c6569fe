package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Coach turn outcomes: "text", "tool", "error"
	CoachTurns *prometheus.CounterVec

	// Coach turn latency (two LLM turns can take a while)
	CoachTurnLatency prometheus.Histogram

	// Tool executions by status: "ok", "error"
	ToolExecutions *prometheus.CounterVec

	// Voice segments by status: "ok", "synth_error", "store_error"
	VoiceSegments *prometheus.CounterVec

	// Insights written by source: "anomaly", "weekly", "advance_fallback"
	Insights *prometheus.CounterVec
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	return &Metrics{
		CoachTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fintack_coach_turns_total",
			Help: "Total number of coach turns by outcome",
		}, []string{"outcome"}),

		CoachTurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintack_coach_turn_duration_seconds",
			Help:    "Coach turn latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		ToolExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fintack_tool_executions_total",
			Help: "Total number of capability executions by status",
		}, []string{"tool", "status"}),

		VoiceSegments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fintack_voice_segments_total",
			Help: "Total number of synthesized voice segments by status",
		}, []string{"status"}),

		Insights: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fintack_insights_total",
			Help: "Total number of insights written by source",
		}, []string{"source"}),
	}
}
