package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	AgentQueriesTotal    *prometheus.CounterVec
	AgentQueryDuration   *prometheus.HistogramVec
	ChatTurnsTotal       prometheus.Counter
	SessionsCreatedTotal prometheus.Counter
	SessionsDeletedTotal prometheus.Counter
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		AgentQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentchat_agent_queries_total",
				Help: "Total number of agent gateway queries by outcome",
			},
			[]string{"mode", "outcome"},
		),
		AgentQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentchat_agent_query_duration_seconds",
				Help:    "Duration of agent gateway queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		ChatTurnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentchat_chat_turns_total",
			Help: "Total number of completed chat turns",
		}),
		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentchat_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentchat_sessions_deleted_total",
			Help: "Total number of sessions deleted",
		}),
	}

	m.registry.MustRegister(
		m.AgentQueriesTotal,
		m.AgentQueryDuration,
		m.ChatTurnsTotal,
		m.SessionsCreatedTotal,
		m.SessionsDeletedTotal,
	)

	return m
}

// RecordAgentQuery counts one gateway call. A nil receiver is a no-op.
func (m *Metrics) RecordAgentQuery(mode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AgentQueriesTotal.WithLabelValues(mode, outcome).Inc()
	m.AgentQueryDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordChatTurn counts one completed chat turn.
func (m *Metrics) RecordChatTurn() {
	if m == nil {
		return
	}
	m.ChatTurnsTotal.Inc()
}

// RecordSessionCreated counts one created session.
func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreatedTotal.Inc()
}

// RecordSessionDeleted counts one deleted session.
func (m *Metrics) RecordSessionDeleted() {
	if m == nil {
		return
	}
	m.SessionsDeletedTotal.Inc()
}

// Handler returns the HTTP handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
