// Package telemetry exposes Prometheus instrumentation for the
// verification pipeline.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry holds the pipeline metrics. A nil *Telemetry is a no-op so
// callers never need to guard instrumentation sites.
type Telemetry struct {
	registry        *prometheus.Registry
	sessionsTotal   *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	filesAnalyzed   *prometheus.CounterVec
	ledgerFailures  prometheus.Counter
}

// New registers the pipeline metrics on a fresh registry.
func New() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		registry: reg,
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forensight_sessions_total",
			Help: "Verification sessions processed, by outcome.",
		}, []string{"outcome"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forensight_session_duration_seconds",
			Help:    "End-to-end session processing time.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		filesAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forensight_files_analyzed_total",
			Help: "Per-file analyses, by media category and outcome.",
		}, []string{"category", "outcome"}),
		ledgerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forensight_ledger_failures_total",
			Help: "Best-effort ledger logging failures.",
		}),
	}
	reg.MustRegister(t.sessionsTotal, t.sessionDuration, t.filesAnalyzed, t.ledgerFailures)
	return t
}

// Handler returns the /metrics HTTP handler for this registry.
func (t *Telemetry) Handler() http.Handler {
	if t == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// ObserveSession records one completed session.
func (t *Telemetry) ObserveSession(d time.Duration, success bool) {
	if t == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	t.sessionsTotal.WithLabelValues(outcome).Inc()
	t.sessionDuration.Observe(d.Seconds())
}

// FileAnalyzed records one per-file analysis outcome.
func (t *Telemetry) FileAnalyzed(category string, failed bool) {
	if t == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "error"
	}
	t.filesAnalyzed.WithLabelValues(category, outcome).Inc()
}

// LedgerFailure records one failed ledger logging attempt.
func (t *Telemetry) LedgerFailure() {
	if t == nil {
		return
	}
	t.ledgerFailures.Inc()
}
