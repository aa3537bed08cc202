package observability

import (
	"context"

	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	Runs         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_node_visits_total",
				Help: "Total number of node executions",
			},
			[]string{"node"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloop_node_duration_seconds",
				Help:    "Duration of node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_tool_calls_total",
				Help: "Total number of actions executed, by outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloop_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_runs_total",
				Help: "Total number of finished runs, by status",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeVisits, m.NodeDuration, m.ToolCalls, m.ToolDuration, m.Runs)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			outcome := "success"
			if e.IsError {
				outcome = "error"
				if e.Result != nil && e.Result.Cause != domain.CauseNone {
					outcome = string(e.Result.Cause)
				}
			}
			m.ToolCalls.WithLabelValues(e.Action.Name, outcome).Inc()
			m.ToolDuration.WithLabelValues(e.Action.Name).Observe(e.Duration.Seconds())
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues(string(e.Status)).Inc()
		},
	}
}
