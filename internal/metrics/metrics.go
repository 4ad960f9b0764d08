// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "menjava"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method"},
	)

	suggestCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "suggest_total",
			Help:      "Suggestion requests by outcome.",
		},
		[]string{"outcome"},
	)

	suggestResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "suggest_results",
			Help:      "Number of suggestions returned per call.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25},
		},
	)

	suggestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "suggest_duration_seconds",
			Help:      "Time spent computing suggestions.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "transitions_total",
			Help:      "Exchange request transitions by event and outcome.",
		},
		[]string{"event", "outcome"},
	)

	requestsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "requests_created_total",
			Help:      "Exchange request creations by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		suggestCalls,
		suggestResults,
		suggestDuration,
		transitions,
		requestsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records a finished HTTP request.
func ObserveHTTP(method string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveSuggest records one call to the matching engine.
func ObserveSuggest(d time.Duration, returned int, err error) {
	suggestCalls.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	suggestResults.Observe(float64(returned))
	suggestDuration.Observe(d.Seconds())
}

// ObserveTransition records one lifecycle transition attempt.
func ObserveTransition(event string, err error) {
	transitions.WithLabelValues(event, outcome(err)).Inc()
}

// ObserveCreate records one exchange request creation attempt.
func ObserveCreate(err error) {
	requestsCreated.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
