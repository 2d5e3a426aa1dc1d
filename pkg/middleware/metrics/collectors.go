package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors live on the default registry, which Handler serves.
var (
	responseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "response_time",
		Help:    "http response time in seconds by method and route.",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30},
	}, []string{"method", "route"})

	totalHttpRequestsFromRole = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "total_http_requests_from_role",
		Help: "http requests by caller role",
	}, []string{"role"})

	totalHttpRequestsToRoute = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "total_http_requests_to_route",
		Help: "http requests by code, route pattern and method",
	}, []string{"code", "route", "method"})

	totalHttpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "total_http_requests",
		Help: "http requests by code and method",
	}, []string{"code", "method"})

	hookRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_hook_phases_total",
		Help: "lifecycle hook phase runs by phase and outcome",
	}, []string{"phase", "outcome"})
)
