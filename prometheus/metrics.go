package prometheus

import (
	"github.com/keycasey/Spirit-Beads-Service/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Checkout metrics
	CheckoutAttemptsCounter *prometheus.CounterVec

	// Webhook metrics
	WebhookEventsCounter *prometheus.CounterVec

	// Email metrics
	EmailsCounter *prometheus.CounterVec

	// Shipping tier metrics
	ShippingTierCounter *prometheus.CounterVec

	// Price sync metrics
	PriceSyncCounter *prometheus.CounterVec

	// Custom order metrics
	CustomOrderTransitionsCounter *prometheus.CounterVec

	// Fulfilment metrics
	OrdersShippedCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Checkout metrics
	CheckoutAttemptsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_checkout_attempts_total",
			Help: "Total number of checkout session attempts",
		},
		[]string{"outcome"},
	)

	// Webhook metrics
	WebhookEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_webhook_events_total",
			Help: "Total number of payment webhook events received",
		},
		[]string{"type", "outcome"},
	)

	// Email metrics
	EmailsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_emails_total",
			Help: "Total number of notification emails attempted",
		},
		[]string{"template", "outcome"},
	)

	// Shipping tier metrics
	ShippingTierCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_shipping_tier_total",
			Help: "Total number of shipping tier resolutions",
		},
		[]string{"tier"},
	)

	// Price sync metrics
	PriceSyncCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_price_sync_total",
			Help: "Total number of provider price sync operations",
		},
		[]string{"outcome"},
	)

	// Custom order metrics
	CustomOrderTransitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_custom_order_transitions_total",
			Help: "Total number of custom order status transitions",
		},
		[]string{"action", "outcome"},
	)

	// Fulfilment metrics
	OrdersShippedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_shipped_total",
			Help: "Total number of orders marked shipped",
		},
	)
}

// RecordCheckoutAttempt increments the counter for checkout attempts
func RecordCheckoutAttempt(outcome string) {
	if CheckoutAttemptsCounter != nil {
		CheckoutAttemptsCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordWebhookEvent increments the counter for webhook events
func RecordWebhookEvent(eventType string, outcome string) {
	if WebhookEventsCounter != nil {
		WebhookEventsCounter.WithLabelValues(eventType, outcome).Inc()
	}
}

// RecordEmail increments the counter for notification emails
func RecordEmail(template string, outcome string) {
	if EmailsCounter != nil {
		EmailsCounter.WithLabelValues(template, outcome).Inc()
	}
}

// RecordShippingTier increments the counter for shipping tier resolutions
func RecordShippingTier(tier string) {
	if ShippingTierCounter != nil {
		ShippingTierCounter.WithLabelValues(tier).Inc()
	}
}

// RecordPriceSync increments the counter for price sync operations
func RecordPriceSync(outcome string) {
	if PriceSyncCounter != nil {
		PriceSyncCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordCustomOrderTransition increments the counter for custom order transitions
func RecordCustomOrderTransition(action string, outcome string) {
	if CustomOrderTransitionsCounter != nil {
		CustomOrderTransitionsCounter.WithLabelValues(action, outcome).Inc()
	}
}

// RecordOrderShipped increments the counter for shipped orders
func RecordOrderShipped() {
	if OrdersShippedCounter != nil {
		OrdersShippedCounter.Inc()
	}
}
