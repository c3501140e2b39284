package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheOp identifies the coordinator method being instrumented.
type CacheOp string

const (
	// CacheOpGet records coordinator reads.
	CacheOpGet CacheOp = "get"
	// CacheOpSet records coordinator writes.
	CacheOpSet CacheOp = "set"
	// CacheOpDelete records single-key invalidations.
	CacheOpDelete CacheOp = "delete"
	// CacheOpClear records group clears.
	CacheOpClear CacheOp = "clear"
)

// CacheOutcome captures how a coordinator operation resolved.
type CacheOutcome string

const (
	// CacheHit indicates a read returned a fresh entry.
	CacheHit CacheOutcome = "hit"
	// CacheStale indicates a read found an entry past its ttl.
	CacheStale CacheOutcome = "stale"
	// CacheMiss indicates no entry was present.
	CacheMiss CacheOutcome = "miss"
	// CacheOK indicates a write or invalidation completed.
	CacheOK CacheOutcome = "ok"
	// CacheError indicates the tier reported a failure that was absorbed.
	CacheError CacheOutcome = "error"
)

// Recorder publishes Prometheus metrics for cache and backend activity.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	cacheOperations *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec

	sweepEvicted  *prometheus.CounterVec
	sweepScanned  *prometheus.CounterVec
	sweepLastRun  prometheus.Gauge
	sweepDuration prometheus.Histogram

	liveEntries *prometheus.GaugeVec

	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a
// dedicated registry is created so multiple recorders can coexist without
// conflicting with the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	cacheOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Coordinator operations by logical cache name and outcome.",
	}, []string{"cache", "op", "outcome"})

	cacheLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Latency of coordinator operations.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"op"})

	sweepEvicted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "sweep_evicted_total",
		Help:      "Entries removed by the periodic sweep.",
	}, []string{"tier"})

	sweepScanned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "sweep_scanned_total",
		Help:      "Entries examined by the periodic sweep.",
	}, []string{"tier"})

	sweepLastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "sweep_last_run_timestamp_seconds",
		Help:      "Unix time of the last completed sweep.",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "sweep_duration_seconds",
		Help:      "Wall time of a full sweep over both tiers.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	liveEntries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "goafyi",
		Subsystem: "cache",
		Name:      "live_entries",
		Help:      "Fresh entries per tier as of the last stats collection.",
	}, []string{"tier"})

	backendRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goafyi",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Remote backend calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	backendLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "goafyi",
		Subsystem: "backend",
		Name:      "request_seconds",
		Help:      "Latency of remote backend calls.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"operation"})

	reg.MustRegister(
		cacheOperations, cacheLatency,
		sweepEvicted, sweepScanned, sweepLastRun, sweepDuration,
		liveEntries,
		backendRequests, backendLatency,
	)

	return &Recorder{
		gatherer:        reg,
		handler:         promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		cacheOperations: cacheOperations,
		cacheLatency:    cacheLatency,
		sweepEvicted:    sweepEvicted,
		sweepScanned:    sweepScanned,
		sweepLastRun:    sweepLastRun,
		sweepDuration:   sweepDuration,
		liveEntries:     liveEntries,
		backendRequests: backendRequests,
		backendLatency:  backendLatency,
	}
}

// Handler exposes the recorder's registry for the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return r.handler
}

// Gatherer exposes the underlying registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return nil
	}
	return r.gatherer
}

// ObserveCacheOp records one coordinator operation.
func (r *Recorder) ObserveCacheOp(cacheName string, op CacheOp, outcome CacheOutcome, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.cacheOperations.WithLabelValues(cacheName, string(op), string(outcome)).Inc()
	r.cacheLatency.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// ObserveSweep records one completed sweep pass over a tier.
func (r *Recorder) ObserveSweep(tier string, scanned, evicted int) {
	if r == nil {
		return
	}
	r.sweepScanned.WithLabelValues(tier).Add(float64(scanned))
	r.sweepEvicted.WithLabelValues(tier).Add(float64(evicted))
}

// SweepCompleted stamps the end of a full sweep.
func (r *Recorder) SweepCompleted(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.sweepLastRun.SetToCurrentTime()
	r.sweepDuration.Observe(elapsed.Seconds())
}

// SetLiveEntries publishes the live-entry gauge for a tier.
func (r *Recorder) SetLiveEntries(tier string, count int) {
	if r == nil {
		return
	}
	r.liveEntries.WithLabelValues(tier).Set(float64(count))
}

// ObserveBackend records one remote backend call.
func (r *Recorder) ObserveBackend(operation string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.backendRequests.WithLabelValues(operation, outcome).Inc()
	r.backendLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
