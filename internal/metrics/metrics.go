package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the service on its own registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	thumbnails      *prometheus.CounterVec
	thumbnailCache  *prometheus.CounterVec
	breakerChanges  *prometheus.CounterVec
	linkChecks      *prometheus.CounterVec
	importedRecords *prometheus.CounterVec
}

// New creates a collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		thumbnails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "thumbnail_resolutions_total",
				Help:      "Thumbnail resolutions by winning strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		thumbnailCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "thumbnail_cache_total",
				Help:      "Thumbnail cache lookups by result",
			},
			[]string{"result"},
		),
		breakerChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_breaker_transitions_total",
				Help:      "Circuit breaker state transitions of outbound probes",
			},
			[]string{"host", "to"},
		),
		linkChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "link_checks_total",
				Help:      "Link health checks by result",
			},
			[]string{"result"},
		),
		importedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_bookmarks_total",
				Help:      "Bookmarks processed by the importer",
			},
			[]string{"format", "result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.thumbnails,
		c.thumbnailCache,
		c.breakerChanges,
		c.linkChecks,
		c.importedRecords,
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) ThumbnailResolved(strategy, outcome string) {
	if c == nil {
		return
	}
	c.thumbnails.WithLabelValues(strategy, outcome).Inc()
}

func (c *Collector) ThumbnailCache(result string) {
	if c == nil {
		return
	}
	c.thumbnailCache.WithLabelValues(result).Inc()
}

func (c *Collector) BreakerTransition(host, to string) {
	if c == nil {
		return
	}
	c.breakerChanges.WithLabelValues(host, to).Inc()
}

func (c *Collector) LinkChecked(alive bool) {
	if c == nil {
		return
	}
	result := "dead"
	if alive {
		result = "alive"
	}
	c.linkChecks.WithLabelValues(result).Inc()
}

func (c *Collector) Imported(format string, imported, failed int) {
	if c == nil {
		return
	}
	c.importedRecords.WithLabelValues(format, "imported").Add(float64(imported))
	c.importedRecords.WithLabelValues(format, "failed").Add(float64(failed))
}
