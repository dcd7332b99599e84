package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the storefront client.
// A nil *BusinessMetrics is valid; every recording method is a no-op on it.
type BusinessMetrics struct {
	// Cart
	CartUpdated  *prometheus.CounterVec
	CartRejected *prometheus.CounterVec
	CartCleared  *prometheus.CounterVec

	// Checkout funnel
	CheckoutStarted *prometheus.CounterVec
	CheckoutBlocked *prometheus.CounterVec
	OrdersCreated   *prometheus.CounterVec
	OrderFailed     *prometheus.CounterVec
	OrderValue      *prometheus.HistogramVec
	OrderItemCount  prometheus.Histogram
	OrdersCancelled *prometheus.CounterVec

	// Payment polling
	PaymentPollAttempts prometheus.Counter
	PaymentPollOutcome  *prometheus.CounterVec

	// External API performance
	APILatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates all business metrics and registers them on reg.
// A nil reg falls back to the default registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "wicket"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	subsystem := "business"
	factory := promauto.With(reg)

	return &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updated_total",
				Help:      "Total cart mutations",
			},
			[]string{"action"}, // action: add, increase, decrease, remove, clear
		),
		CartRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_rejected_total",
				Help:      "Total cart mutations refused by the stock check",
			},
			[]string{"reason"}, // reason: out_of_stock, insufficient_stock, lookup_failed
		),
		CartCleared: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared (after purchase or manually)",
			},
			[]string{"reason"}, // reason: order_placed, payment_confirmed, manual
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout entries",
			},
			[]string{},
		),
		CheckoutBlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_blocked_total",
				Help:      "Total order placements stopped by a guard",
			},
			[]string{"guard"}, // guard: busy, empty_cart, no_addresses, no_selection, payment_method
		),
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders accepted by the backend",
			},
			[]string{"payment_method"},
		),
		OrderFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_failed_total",
				Help:      "Total order submissions rejected or failed",
			},
			[]string{"error_code"},
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total distribution in whole currency units",
				Buckets:   []float64{250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
			},
			[]string{"payment_method"},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of distinct lines per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),
		OrdersCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_cancelled_total",
				Help:      "Total orders cancelled by the customer",
			},
			[]string{"reason"},
		),

		// =======================================================================
		// Payment polling
		// =======================================================================
		PaymentPollAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_poll_attempts_total",
				Help:      "Total order-by-reference lookups issued while confirming payment",
			},
		),
		PaymentPollOutcome: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_poll_outcome_total",
				Help:      "Terminal outcomes of payment confirmation polling",
			},
			[]string{"outcome"}, // outcome: success, timeout
		),

		// =======================================================================
		// External API performance
		// =======================================================================
		APILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "api_request_seconds",
				Help:      "Store backend request latency",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
	}
}

// CartUpdate records a successful cart mutation.
func (m *BusinessMetrics) CartUpdate(action string) {
	if m == nil {
		return
	}
	m.CartUpdated.WithLabelValues(action).Inc()
}

// CartReject records a mutation refused before reaching the store.
func (m *BusinessMetrics) CartReject(reason string) {
	if m == nil {
		return
	}
	m.CartRejected.WithLabelValues(reason).Inc()
}

// CartClear records a wholesale clear.
func (m *BusinessMetrics) CartClear(reason string) {
	if m == nil {
		return
	}
	m.CartCleared.WithLabelValues(reason).Inc()
}

func (m *BusinessMetrics) CheckoutStart() {
	if m == nil {
		return
	}
	m.CheckoutStarted.WithLabelValues().Inc()
}

func (m *BusinessMetrics) CheckoutBlock(guard string) {
	if m == nil {
		return
	}
	m.CheckoutBlocked.WithLabelValues(guard).Inc()
}

// OrderCreate records an accepted order with its total and line count.
func (m *BusinessMetrics) OrderCreate(paymentMethod string, total int64, lines int) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(paymentMethod).Inc()
	m.OrderValue.WithLabelValues(paymentMethod).Observe(float64(total))
	m.OrderItemCount.Observe(float64(lines))
}

func (m *BusinessMetrics) OrderFail(code string) {
	if m == nil {
		return
	}
	m.OrderFailed.WithLabelValues(code).Inc()
}

func (m *BusinessMetrics) OrderCancel(reason string) {
	if m == nil {
		return
	}
	m.OrdersCancelled.WithLabelValues(reason).Inc()
}

func (m *BusinessMetrics) PaymentPollAttempt() {
	if m == nil {
		return
	}
	m.PaymentPollAttempts.Inc()
}

func (m *BusinessMetrics) PaymentPollDone(outcome string) {
	if m == nil {
		return
	}
	m.PaymentPollOutcome.WithLabelValues(outcome).Inc()
}

// ObserveAPI records the latency of one backend request.
func (m *BusinessMetrics) ObserveAPI(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.APILatency.WithLabelValues(method, route, status).Observe(seconds)
}
