// Package metrics exposes Prometheus counters for the booking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glamora",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests per handler",
		},
		[]string{"handler"},
	)

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glamora",
			Name:      "booking_requests_total",
			Help:      "Booking intents by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	slotSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "glamora",
			Name:      "slot_search_duration_seconds",
			Help:      "Time spent enumerating available slots",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5},
		},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glamora",
			Name:      "active_reservation_sessions",
			Help:      "Current number of unexpired verification sessions",
		},
	)

	calendarErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "glamora",
			Name:      "calendar_errors_total",
			Help:      "Failed calls to the external calendar",
		},
	)
)

// Register registers all metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		httpRequests,
		bookingRequests,
		slotSearchDuration,
		activeSessions,
		calendarErrors,
	)
}

// IncHTTP increments the request counter for a handler.
func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

// IncBooking increments the booking counter for an action and outcome.
func IncBooking(action, outcome string) {
	bookingRequests.WithLabelValues(action, outcome).Inc()
}

// ObserveSlotSearch records the duration of one slot search.
func ObserveSlotSearch(seconds float64) {
	slotSearchDuration.Observe(seconds)
}

// SetActiveSessions sets the active session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// IncCalendarError increments the calendar failure counter.
func IncCalendarError() {
	calendarErrors.Inc()
}
