package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coderegistry"

// Metrics holds all Prometheus metrics. Each instance owns its own
// prometheus.Registry, so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Publish metrics
	PublishTotal    *prometheus.CounterVec
	PublishDuration *prometheus.HistogramVec
	AllowedDeps     prometheus.Histogram

	// Registry state
	Accounts         prometheus.Gauge
	Packages         prometheus.Gauge
	Modules          prometheus.Gauge
	PackagesByPolicy *prometheus.GaugeVec

	// Loader metrics
	LoaderCalls    *prometheus.CounterVec
	LoaderDuration *prometheus.HistogramVec

	// Ledger metrics
	Transactions *prometheus.CounterVec

	// Genesis metrics
	GenesisPackages *prometheus.CounterVec

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds running totals for the JSON stats API
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	Publishes       int64   `json:"publishes"`
	PublishFailures int64   `json:"publish_failures"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	UptimeSeconds   float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		PublishTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_total",
				Help:      "Package publishes by outcome and failure kind",
			},
			[]string{"outcome", "kind"},
		),
		PublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "publish_duration_seconds",
				Help:      "Publish duration including the loader hand-off",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"outcome"},
		),
		AllowedDeps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "publish_allowed_deps",
				Help:      "Size of the allow-list handed to the loader",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),

		Accounts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_accounts",
			Help:      "Accounts with at least one published package",
		}),
		Packages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_packages",
			Help:      "Published packages across all accounts",
		}),
		Modules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_modules",
			Help:      "Published modules across all accounts",
		}),
		PackagesByPolicy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_packages_by_policy",
				Help:      "Published packages by upgrade policy",
			},
			[]string{"policy"},
		),

		LoaderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_calls_total",
				Help:      "Loader hand-offs by backend and status",
			},
			[]string{"backend", "status"},
		),
		LoaderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "loader_duration_seconds",
				Help:      "Loader hand-off duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"backend"},
		),

		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_transactions_total",
				Help:      "Ledger transactions by result",
			},
			[]string{"result"},
		),

		GenesisPackages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "genesis_packages_total",
				Help:      "Packages seeded at startup by result",
			},
			[]string{"result"},
		),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Process uptime in seconds",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})

	return m
}

// Registry returns the underlying prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordPublish records one publish. kind is empty on success.
func (m *Metrics) RecordPublish(kind string, duration time.Duration, allowedDeps int) {
	outcome := "committed"
	if kind != "" {
		outcome = "aborted"
	}
	m.PublishTotal.WithLabelValues(outcome, kind).Inc()
	m.PublishDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if kind == "" {
		m.AllowedDeps.Observe(float64(allowedDeps))
	}

	m.mu.Lock()
	m.snapshot.Publishes++
	if kind != "" {
		m.snapshot.PublishFailures++
	}
	m.mu.Unlock()
}

// SetRegistryState updates the registry gauges
func (m *Metrics) SetRegistryState(accounts, packages, modules int, byPolicy map[string]int) {
	m.Accounts.Set(float64(accounts))
	m.Packages.Set(float64(packages))
	m.Modules.Set(float64(modules))
	for policy, n := range byPolicy {
		m.PackagesByPolicy.WithLabelValues(policy).Set(float64(n))
	}
}

// RecordLoaderCall records a loader hand-off
func (m *Metrics) RecordLoaderCall(backend, status string, duration time.Duration) {
	m.LoaderCalls.WithLabelValues(backend, status).Inc()
	m.LoaderDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordTransaction records a ledger transaction result
func (m *Metrics) RecordTransaction(committed bool) {
	result := "committed"
	if !committed {
		result = "aborted"
	}
	m.Transactions.WithLabelValues(result).Inc()
}

// RecordGenesisPackage records a package seeded at startup
func (m *Metrics) RecordGenesisPackage(result string) {
	m.GenesisPackages.WithLabelValues(result).Inc()
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMs = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
