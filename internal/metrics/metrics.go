package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Business metrics
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_ticket_attempts_total",
			Help: "Ticket booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_ticket_cancellations_total",
			Help: "Total number of canceled tickets",
		},
	)

	outboxPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_outbox_messages_total",
			Help: "Outbox deliveries by result (sent, retry, dead)",
		},
		[]string{"result"},
	)

	consumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_consumed_messages_total",
			Help: "Consumed domain events by routing key and result",
		},
		[]string{"routing_key", "result"},
	)
)

func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordBooking(outcome string) {
	bookingsTotal.WithLabelValues(outcome).Inc()
}

func RecordTicketCanceled() {
	ticketCancellationsTotal.Inc()
}

func RecordOutbox(result string) {
	outboxPublishedTotal.WithLabelValues(result).Inc()
}

func RecordConsumed(routingKey, result string) {
	consumedTotal.WithLabelValues(routingKey, result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
