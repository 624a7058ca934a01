package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "holidaze"

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outbound Holidaze API requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Outbound Holidaze API latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_cache_lookups_total",
			Help:      "Redis GET cache lookups by result.",
		},
		[]string{"result"},
	)

	flowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_flow_transitions_total",
			Help:      "Booking flow state transitions.",
		},
		[]string{"from", "to"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Helper server requests by route.",
		},
		[]string{"route"},
	)

	eventDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_deliveries_total",
			Help:      "Forwarded events by outcome.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, apiDuration, cacheLookups, flowTransitions, httpRequests, eventDeliveries)
	})
}

// IncAPIRequest counts one outbound call. status is the HTTP code or "error".
func IncAPIRequest(endpoint, status string) {
	apiRequests.WithLabelValues(endpoint, status).Inc()
}

func ObserveAPIDuration(endpoint string, seconds float64) {
	apiDuration.WithLabelValues(endpoint).Observe(seconds)
}

func IncCacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

func IncFlowTransition(from, to string) {
	flowTransitions.WithLabelValues(from, to).Inc()
}

// IncHTTP increments the counter for a helper server route.
func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}

// IncEventDelivery counts forwarder outcomes: "sent", "retry" or "dead_letter".
func IncEventDelivery(result string) {
	eventDeliveries.WithLabelValues(result).Inc()
}
