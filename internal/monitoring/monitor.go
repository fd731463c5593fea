// Package monitoring collects request, error and system metrics. A Monitor
// owns a private prometheus registry so tests can construct as many as they
// like without duplicate-registration panics.
package monitoring

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CacheStats is what the monitor needs from the cache layer to derive the
// hit-rate gauge.
type CacheStats interface {
	Stats() (hits, misses int64)
	Len() int
}

type Monitor struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	memoryPercent   prometheus.Gauge
	cpuPercent      prometheus.Gauge
	cacheHitRate    prometheus.Gauge

	cache CacheStats

	requestCount atomic.Int64
	errorCount   atomic.Int64
	startedAt    time.Time
}

func New(cache CacheStats) *Monitor {
	m := &Monitor{
		registry:  prometheus.NewRegistry(),
		cache:     cache,
		startedAt: time.Now(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed, by method, route and status code.",
		}, []string{"method", "path", "status"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Request errors, by type and route.",
		}, []string{"type", "path"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		memoryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_percent",
			Help: "Host memory usage percent.",
		}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_cpu_percent",
			Help: "Host CPU usage percent.",
		}),
		cacheHitRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_rate",
			Help: "Fraction of cache lookups that hit, since process start.",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.requestDuration,
		m.memoryPercent,
		m.cpuPercent,
		m.cacheHitRate,
	)
	return m
}

// RecordRequest counts one completed request.
func (m *Monitor) RecordRequest(method, path string, status int, duration time.Duration) {
	m.requestCount.Add(1)
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if status >= 500 {
		m.RecordError("server_error", path)
	}
}

func (m *Monitor) RecordError(errType, path string) {
	m.errorCount.Add(1)
	m.errorsTotal.WithLabelValues(errType, path).Inc()
}

// SampleSystem takes a one-shot reading of host memory and CPU and updates
// the gauges. The CPU reading is instantaneous (no sampling interval) so it
// never blocks a request path.
func (m *Monitor) SampleSystem() (memPercent, cpuPercentVal float64) {
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
		m.memoryPercent.Set(memPercent)
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercentVal = percents[0]
		m.cpuPercent.Set(cpuPercentVal)
	}
	return memPercent, cpuPercentVal
}

// Snapshot is a point-in-time summary exposed on the admin stats endpoint.
type Snapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	RequestCount  int64   `json:"request_count"`
	ErrorCount    int64   `json:"error_count"`
	ErrorRate     float64 `json:"error_rate"`
	MemoryPercent float64 `json:"memory_percent"`
	CPUPercent    float64 `json:"cpu_percent"`
	CacheEntries  int     `json:"cache_entries"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
}

func (m *Monitor) Snapshot() Snapshot {
	memPercent, cpuPercentVal := m.SampleSystem()

	s := Snapshot{
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
		RequestCount:  m.requestCount.Load(),
		ErrorCount:    m.errorCount.Load(),
		MemoryPercent: memPercent,
		CPUPercent:    cpuPercentVal,
	}
	if s.RequestCount > 0 {
		s.ErrorRate = float64(s.ErrorCount) / float64(s.RequestCount)
	}
	if m.cache != nil {
		hits, misses := m.cache.Stats()
		s.CacheEntries = m.cache.Len()
		if total := hits + misses; total > 0 {
			s.CacheHitRate = float64(hits) / float64(total)
		}
		m.cacheHitRate.Set(s.CacheHitRate)
	}
	return s
}

// Handler serves this monitor's registry in the prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
