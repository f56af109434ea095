package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Task runner metrics
	TasksExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivectl_tasks_executed_total",
			Help: "Total number of tasks executed by outcome",
		},
		[]string{"outcome"},
	)

	TaskDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hivectl_task_duration_seconds",
			Help:    "Duration of individual task executions",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	// Readiness poller metrics
	PollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivectl_poll_attempts_total",
			Help: "Total poll attempts by entity kind",
		},
		[]string{"entity"},
	)

	PollTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivectl_poll_timeouts_total",
			Help: "Total poll timeouts by entity kind",
		},
		[]string{"entity"},
	)

	// Lease metrics
	LeaseAcquisitionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hivectl_lease_acquisitions_total",
			Help: "Total namespace lease acquisitions",
		},
	)

	LeaseReleasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hivectl_lease_releases_total",
			Help: "Total namespace lease releases",
		},
	)

	// Ledger metrics
	LedgerTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivectl_ledger_transactions_total",
			Help: "Total ledger transactions submitted by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		TasksExecutedTotal,
		TaskDuration,
		PollAttemptsTotal,
		PollTimeoutsTotal,
		LeaseAcquisitionsTotal,
		LeaseReleasesTotal,
		LedgerTransactionsTotal,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a debug metrics listener on addr. It blocks, so callers run
// it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}

// Timer measures operation duration for histogram observation
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time into the given histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}
