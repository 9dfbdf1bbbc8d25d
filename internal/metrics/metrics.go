package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "service_booking",
			Name:      "operations_total",
			Help:      "Booking operations by name and outcome kind.",
		},
		[]string{"operation", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "service_booking",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "service_booking",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	eventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "service_booking",
			Name:      "catalog_events_total",
			Help:      "Catalog events consumed by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "service_booking",
			Name:      "events_published_total",
			Help:      "Booking events published by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingOperations, httpRequests, httpDuration, eventsConsumed, eventsPublished)
	})
}

// IncOperation counts a booking operation. outcome is "ok" or an error kind.
func IncOperation(operation, outcome string) {
	bookingOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncConsumed counts a consumed catalog event.
func IncConsumed(eventType, outcome string) {
	eventsConsumed.WithLabelValues(eventType, outcome).Inc()
}

// IncPublished counts a published booking event.
func IncPublished(eventType, outcome string) {
	eventsPublished.WithLabelValues(eventType, outcome).Inc()
}
