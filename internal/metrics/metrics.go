package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"productivity_agent/pkg"
)

// Model call results
const (
	ModelCallOK      = "ok"
	ModelCallError   = "error"
	ModelCallSkipped = "skipped"
)

// Tracker keeps the agent outcome counters and mirrors them into Prometheus.
// The plain counters are not synchronised; the agent mutates them under its own lock.
// The Prometheus collectors are safe for concurrent use.
type Tracker struct {
	counts pkg.AgentMetrics

	requests      prometheus.Counter
	tasks         *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	modelDuration prometheus.Histogram
	memoryEntries prometheus.Gauge
	httpRequests  *prometheus.CounterVec
}

// NewTracker creates a tracker whose collectors are registered on reg.
// A nil registerer leaves the collectors unregistered.
func NewTracker(reg prometheus.Registerer) *Tracker {
	factory := promauto.With(reg)

	return &Tracker{
		requests: factory.NewCounter(prometheus.CounterOpts{
			Name: "productivity_agent_requests_total",
			Help: "Total number of processed user requests",
		}),
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "productivity_agent_tasks_total",
			Help: "Processed requests by outcome",
		}, []string{"outcome"}),
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "productivity_agent_model_calls_total",
			Help: "Model calls by result",
		}, []string{"result"}),
		modelDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "productivity_agent_model_call_duration_seconds",
			Help:    "Model call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		memoryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "productivity_agent_memory_entries",
			Help: "Number of entries in the memory store",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "productivity_agent_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
	}
}

// RecordRequest counts an incoming request
func (t *Tracker) RecordRequest() {
	t.counts.TotalRequests++
	t.requests.Inc()
}

// RecordSuccess counts a request that completed normally
func (t *Tracker) RecordSuccess() {
	t.counts.SuccessfulTasks++
	t.tasks.WithLabelValues("success").Inc()
}

// RecordFailure counts a request aborted by an internal fault
func (t *Tracker) RecordFailure() {
	t.counts.FailedTasks++
	t.tasks.WithLabelValues("failure").Inc()
}

// ObserveModelCall records the result of a model call.
// Skipped calls carry no latency.
func (t *Tracker) ObserveModelCall(result string, duration time.Duration) {
	t.modelCalls.WithLabelValues(result).Inc()
	if result != ModelCallSkipped {
		t.modelDuration.Observe(duration.Seconds())
	}
}

// SetMemoryEntries publishes the current memory store size
func (t *Tracker) SetMemoryEntries(n int) {
	t.memoryEntries.Set(float64(n))
}

// ObserveHTTP counts a served HTTP request
func (t *Tracker) ObserveHTTP(method, route string, status int) {
	t.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Snapshot returns a copy of the outcome counters
func (t *Tracker) Snapshot() pkg.AgentMetrics {
	return t.counts
}
