// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_queries_processed_total",
			Help: "Total number of queries processed by the agent pipeline",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	FallbackActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_fallback_activations_total",
			Help: "Total number of fallback activations per pipeline stage",
		},
		[]string{"stage"},
	)

	WeatherAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_api_requests_total",
			Help: "Total number of weather provider requests",
		},
		[]string{"endpoint", "status"},
	)

	ActionsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_actions_executed_total",
			Help: "Total number of actions executed per action type and outcome",
		},
		[]string{"action", "outcome"},
	)
)
