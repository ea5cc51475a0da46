package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes gin handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// SequenceIssued counts numbers handed out per sequence name.
	SequenceIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sequence_issued_total",
			Help: "Numbers issued by the sequence generator",
		},
		[]string{"sequence"},
	)

	// SequenceContention counts lock/serialization failures while incrementing.
	SequenceContention = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sequence_contention_total",
			Help: "Sequence increments aborted by lock contention",
		},
		[]string{"outcome"}, // retried, exhausted
	)

	// InventoryDeductions counts deduction attempts by outcome.
	InventoryDeductions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_deductions_total",
			Help: "Inventory deductions by outcome",
		},
		[]string{"outcome"}, // deducted, already_deducted, empty, not_found, insufficient_stock, error
	)

	// StockNotificationsFailed counts best-effort notifications that could not be delivered.
	StockNotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_notifications_failed_total",
			Help: "Stock-changed notifications that failed",
		},
		[]string{"sink"},
	)

	// TaxPreviewCache counts preview cache lookups.
	TaxPreviewCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tax_preview_cache_total",
			Help: "Tax preview cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	// OrderConfirmations counts confirmation attempts by outcome.
	OrderConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_confirmations_total",
			Help: "Order confirmation attempts",
		},
		[]string{"outcome"},
	)
)
