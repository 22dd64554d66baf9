package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consultpay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_bookings_created_total",
			Help: "Booking creation attempts by outcome",
		},
		[]string{"result"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_booking_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	SettledAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_ledger_amount_minor_total",
			Help: "Absolute ledger amounts appended, in minor units",
		},
		[]string{"type", "source", "currency"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_withdrawals_total",
			Help: "Withdrawal requests by result",
		},
		[]string{"result"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_webhook_events_total",
			Help: "Payment webhook events by type and result",
		},
		[]string{"type", "result"},
	)

	LedgerConsistencyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consultpay_ledger_consistency_failures_total",
			Help: "Ledger snapshot mismatches detected before a balance mutation",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultpay_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "consultpay_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingCreated(result string) {
	BookingsCreatedTotal.WithLabelValues(result).Inc()
}

func RecordTransition(from, to string) {
	BookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordLedgerAmount adds |amount| so reversals are visible as their own series.
func RecordLedgerAmount(txType, source, currency string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	SettledAmountTotal.WithLabelValues(txType, source, currency).Add(float64(amount))
}

func RecordWithdrawal(result string) {
	WithdrawalsTotal.WithLabelValues(result).Inc()
}

func RecordWebhookEvent(eventType, result string) {
	WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
}

func RecordLedgerConsistencyFailure() {
	LedgerConsistencyFailuresTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
