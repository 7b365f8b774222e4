package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ReservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_reservation_duration_seconds",
			Help:    "Time spent inside the reservation transaction, lock wait included",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Committed booking status transitions",
		},
		[]string{"from", "to"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_notifications_total",
			Help: "Notification intents handed to the deliverer",
		},
		[]string{"kind", "status"},
	)

	ScheduleCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_schedule_cache_total",
			Help: "Working schedule cache lookups",
		},
		[]string{"result"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Reservation outcomes.
const (
	OutcomeReserved    = "reserved"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
)

func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordReservation(outcome string, seconds float64) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
	ReservationDuration.Observe(seconds)
}

func RecordTransition(from, to string) {
	TransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordNotification(kind, status string) {
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

func RecordScheduleCache(result string) {
	ScheduleCacheTotal.WithLabelValues(result).Inc()
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
