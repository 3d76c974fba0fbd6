// Package metrics holds the Prometheus metrics of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LiveConnectionsActive  prometheus.Gauge
	LiveConnectionsTotal   *prometheus.CounterVec
	LiveConnectionDuration prometheus.Histogram
	ClientEventsTotal      *prometheus.CounterVec

	AgentCallDuration *prometheus.HistogramVec
	TokensTotal       *prometheus.CounterVec
	CostTotal         *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "conversation"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
		LiveConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections_active",
			Help:      "Number of open live conversation connections",
		}),
		LiveConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_connections_total",
			Help:      "Total number of live conversation connections by outcome",
		}, []string{"outcome"}),
		LiveConnectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "live_connection_duration_seconds",
			Help:      "Live conversation connection duration in seconds",
			Buckets:   []float64{1, 10, 30, 60, 300, 600, 1800, 3600},
		}),
		ClientEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_events_total",
			Help:      "Total number of client events received on live connections",
		}, []string{"type"}),
		AgentCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_call_duration_seconds",
			Help:      "Language model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"context", "status"}),
		TokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Total tokens consumed",
		}, []string{"model", "kind"}),
		CostTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cost_usd_total",
			Help:      "Total estimated cost in USD",
		}, []string{"model"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LiveConnectionsActive,
		m.LiveConnectionsTotal,
		m.LiveConnectionDuration,
		m.ClientEventsTotal,
		m.AgentCallDuration,
		m.TokensTotal,
		m.CostTotal,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// LiveConnectionOpened records a live connection passing authentication.
func (m *Metrics) LiveConnectionOpened() {
	if m == nil {
		return
	}
	m.LiveConnectionsActive.Inc()
}

// LiveConnectionClosed records the end of a live connection that was opened.
func (m *Metrics) LiveConnectionClosed(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LiveConnectionsActive.Dec()
	m.LiveConnectionsTotal.WithLabelValues(outcome).Inc()
	m.LiveConnectionDuration.Observe(duration.Seconds())
}

// LiveConnectionRejected records a connection refused before it was opened.
func (m *Metrics) LiveConnectionRejected(outcome string) {
	if m == nil {
		return
	}
	m.LiveConnectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordClientEvent counts one inbound client event.
func (m *Metrics) RecordClientEvent(eventType string) {
	if m == nil {
		return
	}
	m.ClientEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordAgentCall records the duration of a language model call.
func (m *Metrics) RecordAgentCall(usageContext string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AgentCallDuration.WithLabelValues(usageContext, status).Observe(duration.Seconds())
}

// RecordTokens records token usage of one model call.
func (m *Metrics) RecordTokens(model string, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	if promptTokens > 0 {
		m.TokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.TokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// RecordCost records the estimated cost of one model call.
func (m *Metrics) RecordCost(model string, cost float64) {
	if m == nil || cost <= 0 {
		return
	}
	m.CostTotal.WithLabelValues(model).Add(cost)
}
