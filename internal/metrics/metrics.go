// Package metrics exposes Prometheus counters for HTTP traffic and warehouse activity.
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

// Metrics holds every collector on its own registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LedgerDeltas  *prometheus.CounterVec
	Transactions  *prometheus.CounterVec
	LoansReturned prometheus.Counter
	Notifications *prometheus.CounterVec
	Logins        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors with the given name prefix.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LedgerDeltas: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_ledger_deltas_total",
				Help: "Stock ledger updates by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_transaction_lines_total",
				Help: "Transaction log lines by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		LoansReturned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_loans_returned_total",
				Help: "Total number of loans returned",
			},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_notifications_total",
				Help: "Notification emails by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		registry: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDelta records one ledger update.
func (m *Metrics) ObserveDelta(delta int, err error) {
	if m == nil {
		return
	}
	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	m.LedgerDeltas.WithLabelValues(direction, outcome(err)).Inc()
}

// ObserveLine records one transaction log line.
func (m *Metrics) ObserveLine(kind string, err error) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveLoanReturned counts a completed loan return.
func (m *Metrics) ObserveLoanReturned() {
	if m == nil {
		return
	}
	m.LoansReturned.Inc()
}

// ObserveNotification records one notification attempt.
func (m *Metrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveLogin records one login attempt.
func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests and observes their duration, labelled by the
// matched route pattern rather than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
