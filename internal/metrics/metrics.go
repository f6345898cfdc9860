// Package metrics exposes pipeline counters and histograms to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tosguard"

// Metrics owns a registry and the pipeline collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	providerCalls    *prometheus.CounterVec
	failovers        *prometheus.CounterVec
	budgetWait       prometheus.Histogram
	analyses         *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	stages           *prometheus.CounterVec
	degradations     *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New creates Metrics with a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Model provider calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		failovers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_failovers_total",
				Help:      "Failovers from one provider to another",
			},
			[]string{"from", "to", "reason"},
		),

		budgetWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "budget_wait_seconds",
				Help:      "Time spent waiting for rate and token budget admission",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
			},
		),

		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Completed analyses by mode",
			},
			[]string{"mode"},
		),

		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "End-to-end analysis time by mode",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"mode"},
		),

		stages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_results_total",
				Help:      "Stage completions by stage, status, and extraction strategy",
			},
			[]string{"stage", "status", "strategy"},
		),

		degradations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tier_degradations_total",
				Help:      "Fallback tier failures by failed tier",
			},
			[]string{"tier"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern and status code",
			},
			[]string{"route", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerCalls,
		m.failovers,
		m.budgetWait,
		m.analyses,
		m.analysisDuration,
		m.stages,
		m.degradations,
		m.requests,
		m.requestDuration,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ProviderCall(provider, outcome string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Failover(from, to, reason string) {
	if m == nil {
		return
	}
	m.failovers.WithLabelValues(from, to, reason).Inc()
}

func (m *Metrics) ObserveBudgetWait(d time.Duration) {
	if m == nil {
		return
	}
	m.budgetWait.Observe(d.Seconds())
}

func (m *Metrics) Analysis(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(mode).Inc()
	m.analysisDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) Stage(stage, status, strategy string) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage, status, strategy).Inc()
}

func (m *Metrics) Degradation(tier string) {
	if m == nil {
		return
	}
	m.degradations.WithLabelValues(tier).Inc()
}

// ObserveRoute records one routed HTTP request. route is the registered
// pattern, not the request path, to keep label cardinality bounded.
func (m *Metrics) ObserveRoute(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
