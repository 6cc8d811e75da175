// Package metrics exposes the prometheus collectors shared by the handlers
// and the upstream clients.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripplanner_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripplanner_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	itineraryGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripplanner_itinerary_generations_total",
		Help: "Itinerary generation calls by outcome.",
	}, []string{"provider", "outcome"})

	itineraryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripplanner_itinerary_generation_duration_seconds",
		Help:    "Time spent waiting for the text generation service.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"provider"})

	weatherLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripplanner_weather_lookups_total",
		Help: "Weather lookups by outcome.",
	}, []string{"outcome"})
)

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeUpstream   = "upstream_error"
	OutcomeMissingKey = "missing_key"
	OutcomeTransport  = "transport_error"
)

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func ObserveGeneration(provider, outcome string, d time.Duration) {
	itineraryGenerations.WithLabelValues(provider, outcome).Inc()
	itineraryDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func ObserveWeather(outcome string) {
	weatherLookups.WithLabelValues(outcome).Inc()
}
