// Package metrics exposes Prometheus collectors for the dashboard API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sumails",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sumails",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	gmailFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sumails",
		Name:      "gmail_fetches_total",
		Help:      "Gmail fetches by outcome.",
	}, []string{"outcome"})

	gmailDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sumails",
		Name:      "gmail_fetch_duration_seconds",
		Help:      "Gmail list+get latency.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	directoryFailOpen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sumails",
		Name:      "directory_fail_open_total",
		Help:      "Page loads served an empty mailbox list because the directory lookup failed.",
	})
)

// ObserveGmailFetch records one gateway call.
func ObserveGmailFetch(outcome string, d time.Duration) {
	gmailFetches.WithLabelValues(outcome).Inc()
	gmailDuration.Observe(d.Seconds())
}

// IncDirectoryFailOpen records a fail-open substitution.
func IncDirectoryFailOpen() {
	directoryFailOpen.Inc()
}

// HTTPMetrics records request counts and latency per matched route.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
