// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application's Prometheus instruments.
//
// It registers against its own registry rather than the global default one,
// so tests can construct collectors freely without duplicate-registration
// panics, and /metrics exposes only what this app deliberately exports.
type Collector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	requestLatency prometheus.Histogram
	postsCreated   prometheus.Counter
	likes          prometheus.Counter
	logins         *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planttoucher_http_requests_total",
			Help: "HTTP requests served, by method and status code.",
		}, []string{"method", "status"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planttoucher_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planttoucher_posts_created_total",
			Help: "Posts created since process start.",
		}),
		likes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planttoucher_likes_total",
			Help: "Likes recorded since process start.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planttoucher_logins_total",
			Help: "Successful logins, by strategy (local or google).",
		}, []string{"strategy"}),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.requestLatency,
		c.postsCreated,
		c.likes,
		c.logins,
	)
	return c
}

func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordPostCreated() { c.postsCreated.Inc() }

func (c *Collector) RecordLike() { c.likes.Inc() }

func (c *Collector) RecordLogin(strategy string) {
	c.logins.WithLabelValues(strategy).Inc()
}

// Handler returns the /metrics exposition endpoint for this collector's
// registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
