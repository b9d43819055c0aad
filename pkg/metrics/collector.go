package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "pattern_atlas"

	ReloadSuccess = "success"
	ReloadFailure = "failure"
)

// Collector holds the metrics of the pattern atlas service. Each collector
// owns its registry so several servers can live in one process.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Render metrics
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	skippedEdges   prometheus.Counter

	// Catalog metrics
	catalogReloads  *prometheus.CounterVec
	catalogPatterns prometheus.Gauge
	catalogFileErrs prometheus.Counter

	// Live update metrics
	liveBroadcasts prometheus.Counter
}

// NewCollector creates a collector with Go runtime and process metrics registered
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "diagrams_total",
			Help:      "Total number of rendered diagrams by output format",
		}, []string{"format"}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time spent laying out and writing a diagram",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		skippedEdges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "skipped_edges_total",
			Help:      "Edges dropped because an endpoint is not a node",
		}),

		catalogReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "reloads_total",
			Help:      "Catalog reloads by result",
		}, []string{"result"}),
		catalogPatterns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "patterns",
			Help:      "Number of patterns currently served",
		}),
		catalogFileErrs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "file_errors_total",
			Help:      "Catalog files that failed to load",
		}),

		liveBroadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "broadcasts_total",
			Help:      "Messages queued for live update clients",
		}),
	}
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, mostly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRender records one diagram render
func (c *Collector) RecordRender(format string, skipped int, duration time.Duration) {
	c.renders.WithLabelValues(format).Inc()
	c.renderDuration.Observe(duration.Seconds())
	if skipped > 0 {
		c.skippedEdges.Add(float64(skipped))
	}
}

// RecordCatalogLoad records a load or reload. The pattern gauge only moves
// on success since a failed reload keeps serving the previous catalog.
func (c *Collector) RecordCatalogLoad(success bool, patterns int) {
	result := ReloadSuccess
	if !success {
		result = ReloadFailure
	}
	c.catalogReloads.WithLabelValues(result).Inc()
	if success {
		c.catalogPatterns.Set(float64(patterns))
	}
}

// RecordFileErrors counts catalog files that could not be loaded
func (c *Collector) RecordFileErrors(n int) {
	if n > 0 {
		c.catalogFileErrs.Add(float64(n))
	}
}

// RecordBroadcast counts a live update message
func (c *Collector) RecordBroadcast() {
	c.liveBroadcasts.Inc()
}
