package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdmx_http_requests_total",
		Help: "Total upstream HTTP requests by host and status",
	}, []string{"host", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sdmx_http_request_duration_seconds",
		Help:    "Upstream HTTP request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"host"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdmx_http_retries_total",
		Help: "Total upstream HTTP retries by host",
	}, []string{"host"})
)
