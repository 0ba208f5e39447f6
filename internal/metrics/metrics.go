// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "controlepix"

// Operation outcome labels.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	transactions       *prometheus.CounterVec
	transactionAmount  *prometheus.HistogramVec
	rateLimited        prometheus.Counter
	suspiciousRequests prometheus.Counter
	skippedRows        prometheus.Gauge
	storedRows         prometheus.Gauge
}

// New builds the collectors on a private registry, so several servers can
// live in one process (tests) without duplicate registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Ledger writes by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		transactionAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_amount",
				Help:      "Amounts recorded, in reais",
				Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
			},
			[]string{"type"},
		),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
		suspiciousRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a known attack pattern",
		}),
		skippedRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "summary_skipped_rows",
			Help:      "Rows excluded from the last summary because the amount did not parse",
		}),
		storedRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_transactions",
			Help:      "Rows seen by the last dashboard load",
		}),
	}
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests that gather directly.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) TransactionWrite(op, status string) {
	m.transactions.WithLabelValues(op, status).Inc()
}

func (m *Metrics) TransactionAmount(kind string, amount float64) {
	m.transactionAmount.WithLabelValues(kind).Observe(amount)
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

func (m *Metrics) SuspiciousRequest() {
	m.suspiciousRequests.Inc()
}

// Snapshot records the size of the last loaded ledger.
func (m *Metrics) Snapshot(rows, skipped int) {
	m.storedRows.Set(float64(rows))
	m.skippedRows.Set(float64(skipped))
}
