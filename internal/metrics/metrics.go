package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phistack/internal/capability"
)

// Namespace prefixes every metric name.
const Namespace = "phistack"

// Metrics owns a private registry with cache, host and HTTP instruments.
// It satisfies modelcache.Recorder and capability.ProfileObserver.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	fetchedBytes  prometheus.Counter
	fetchDuration prometheus.Histogram
	inflight      prometheus.Gauge

	memAvailable  prometheus.Gauge
	diskAvailable prometheus.Gauge
	cpuCores      prometheus.Gauge
	backend       *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the instruments and registers them, plus the process and Go
// collectors and the host CPU utilization collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Ensure calls satisfied from the local cache",
		}, []string{"variant"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "cache", Name: "fetches_total",
			Help: "Artifact fetches started",
		}, []string{"variant"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "cache", Name: "fetch_failures_total",
			Help: "Artifact fetches that failed, by failure kind",
		}, []string{"variant", "kind"}),
		fetchedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "cache", Name: "fetched_bytes_total",
			Help: "Bytes materialized into the cache",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: "cache", Name: "fetch_duration_seconds",
			Help:    "Duration of successful artifact fetches",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 14),
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "cache", Name: "inflight_fetches",
			Help: "Fetches currently in progress",
		}),
		memAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "host", Name: "memory_available_bytes",
			Help: "Available memory at the last snapshot",
		}),
		diskAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "host", Name: "disk_available_bytes",
			Help: "Free disk space on the cache filesystem at the last snapshot",
		}),
		cpuCores: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "host", Name: "cpu_cores",
			Help: "Logical CPU cores at the last snapshot",
		}),
		backend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "host", Name: "recommended_backend",
			Help: "Set to 1 for the currently recommended compute backend",
		}, []string{"backend"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
	}

	m.registry.MustRegister(
		m.cacheHits, m.fetches, m.fetchFailures, m.fetchedBytes, m.fetchDuration, m.inflight,
		m.memAvailable, m.diskAvailable, m.cpuCores, m.backend,
		m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewCPUCollector(),
	)
	return m
}

// Registry exposes the underlying registry for gathering in tests and tools.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CacheHit(variantID string) {
	m.cacheHits.WithLabelValues(variantID).Inc()
}

func (m *Metrics) FetchStarted(variantID string) {
	m.fetches.WithLabelValues(variantID).Inc()
	m.inflight.Inc()
}

func (m *Metrics) FetchCompleted(_ string, bytes int64, elapsed time.Duration) {
	m.inflight.Dec()
	if bytes > 0 {
		m.fetchedBytes.Add(float64(bytes))
	}
	m.fetchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) FetchFailed(variantID, kind string) {
	m.inflight.Dec()
	m.fetchFailures.WithLabelValues(variantID, kind).Inc()
}

// ObserveProfile records a host snapshot.
func (m *Metrics) ObserveProfile(p capability.SystemProfile) {
	m.memAvailable.Set(float64(p.MemAvailable))
	m.diskAvailable.Set(float64(p.DiskAvailable))
	m.cpuCores.Set(float64(p.CPUCores))

	current := capability.RecommendedBackend(p)
	for _, b := range []capability.Backend{capability.BackendCUDA, capability.BackendMetal, capability.BackendWGPU, capability.BackendCPU} {
		v := 0.0
		if b == current {
			v = 1
		}
		m.backend.WithLabelValues(string(b)).Set(v)
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, elapsed time.Duration) {
	code := statusLabel(status)
	m.httpRequests.WithLabelValues(path, method, code).Inc()
	m.httpDuration.WithLabelValues(path, method, code).Observe(elapsed.Seconds())
}

func statusLabel(n int) string {
	return strconv.Itoa(n)
}
