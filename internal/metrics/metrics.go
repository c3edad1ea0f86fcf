// Package metrics exposes Prometheus instrumentation for the audit
// service: audit counts by verdict, per-check outcome counts, and
// audit latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors for one service instance.
type Recorder struct {
	// audits counts completed audits by overall status.
	audits *prometheus.CounterVec

	// checkResults counts per-check outcomes by check name and status.
	checkResults *prometheus.CounterVec

	// duration observes end-to-end audit latency.
	duration prometheus.Histogram

	// timeouts counts synthetic timeout results.
	timeouts prometheus.Counter
}

// NewRecorder creates a Recorder and registers its collectors with the
// given registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "siteaudit",
			Name:      "audits_total",
			Help:      "Completed audits by overall status.",
		}, []string{"status"}),
		checkResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "siteaudit",
			Name:      "check_results_total",
			Help:      "Individual check outcomes by check name and status.",
		}, []string{"check", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "siteaudit",
			Name:      "audit_duration_seconds",
			Help:      "End-to-end audit latency.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "siteaudit",
			Name:      "check_timeouts_total",
			Help:      "Checks that exceeded their deadline.",
		}),
	}
	reg.MustRegister(r.audits, r.checkResults, r.duration, r.timeouts)
	return r
}

// ObserveAudit records one completed audit.
func (r *Recorder) ObserveAudit(status string, elapsed time.Duration, timedOut bool) {
	r.audits.WithLabelValues(status).Inc()
	r.duration.Observe(elapsed.Seconds())
	if timedOut {
		r.timeouts.Inc()
	}
}

// ObserveCheck records one check outcome.
func (r *Recorder) ObserveCheck(check, status string) {
	r.checkResults.WithLabelValues(check, status).Inc()
}
