package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API
// and the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheHitRatio   prometheus.Gauge
	engineDuration  prometheus.Histogram
	engineIters     prometheus.Histogram
	enginePlaced    prometheus.Counter
	engineUnplaced  prometheus.Counter
	engineRuns      prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
	runCount       uint64
	unplacedTotal  uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	engineDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_run_duration_seconds",
		Help:    "Wall-clock duration of scheduling engine runs",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	engineIters := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_run_iterations",
		Help:    "Search iterations consumed per engine run",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	})

	enginePlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_units_placed_total",
		Help: "Total demand units placed across engine runs",
	})

	engineUnplaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_units_unplaced_total",
		Help: "Total demand units left unplaced across engine runs",
	})

	engineRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_runs_total",
		Help: "Total scheduling engine runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, cacheHitRatio,
		engineDuration, engineIters, enginePlaced, engineUnplaced, engineRuns, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheHitRatio:   cacheHitRatio,
		engineDuration:  engineDuration,
		engineIters:     engineIters,
		enginePlaced:    enginePlaced,
		engineUnplaced:  engineUnplaced,
		engineRuns:      engineRuns,
	}
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveEngineRun records engine run outcomes.
func (m *MetricsService) ObserveEngineRun(elapsed time.Duration, iterations, placed, unplaced int) {
	if m == nil {
		return
	}
	m.engineRuns.Inc()
	m.engineDuration.Observe(elapsed.Seconds())
	m.engineIters.Observe(float64(iterations))
	m.enginePlaced.Add(float64(placed))
	m.engineUnplaced.Add(float64(unplaced))
	atomic.AddUint64(&m.runCount, 1)
	atomic.AddUint64(&m.unplacedTotal, uint64(unplaced))
}

// EngineRunCount reports runs observed since start, for status endpoints.
func (m *MetricsService) EngineRunCount() uint64 {
	if m == nil {
		return 0
	}
	return atomic.LoadUint64(&m.runCount)
}
