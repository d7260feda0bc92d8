package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are nil-safe so
// collaborators can run without metrics in tests.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	readRoutes      *prometheus.CounterVec
	replicationRuns *prometheus.CounterVec
	replicationTime prometheus.Observer
	replicaSyncedAt prometheus.Gauge
	replicatedRows  *prometheus.GaugeVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_transitions_total",
		Help: "Report lifecycle transitions by outcome",
	}, []string{"transition", "outcome"})

	readRoutes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "read_routes_total",
		Help: "Read routing decisions by reader kind and selected source",
	}, []string{"kind", "source"})

	replicationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replication_runs_total",
		Help: "Replication job runs by result",
	}, []string{"result"})

	replicationTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "replication_duration_seconds",
		Help:    "Duration of replication job runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	replicaSyncedAt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replica_last_sync_timestamp_seconds",
		Help: "Unix time of the last successful replication",
	})

	replicatedRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "replica_rows",
		Help: "Rows copied to the replica by the last successful run",
	}, []string{"table"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups, transitions,
		readRoutes, replicationRuns, replicationTime, replicaSyncedAt, replicatedRows, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		transitions:     transitions,
		readRoutes:      readRoutes,
		replicationRuns: replicationRuns,
		replicationTime: replicationTime,
		replicaSyncedAt: replicaSyncedAt,
		replicatedRows:  replicatedRows,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts a lifecycle attempt. outcome is "ok" or the error code.
func (m *MetricsService) RecordTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, outcome).Inc()
}

// RecordRoute counts a consistency routing decision.
func (m *MetricsService) RecordRoute(kind, source string) {
	if m == nil {
		return
	}
	m.readRoutes.WithLabelValues(kind, source).Inc()
}

// RecordReplication captures the outcome of a replication run.
func (m *MetricsService) RecordReplication(err error, elapsed time.Duration, users, reports, events int, syncedAt time.Time) {
	if m == nil {
		return
	}
	m.replicationTime.Observe(elapsed.Seconds())
	if err != nil {
		m.replicationRuns.WithLabelValues("failure").Inc()
		return
	}
	m.replicationRuns.WithLabelValues("success").Inc()
	m.replicaSyncedAt.Set(float64(syncedAt.Unix()))
	m.replicatedRows.WithLabelValues("users").Set(float64(users))
	m.replicatedRows.WithLabelValues("reports").Set(float64(reports))
	m.replicatedRows.WithLabelValues("report_events").Set(float64(events))
}
