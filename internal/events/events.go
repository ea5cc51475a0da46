// Package events carries the notifications emitted after order finalization
// commits: stock changes for realtime clients and order confirmations for the
// downstream mail/fulfilment consumers.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storecore/internal/metrics"
	"storecore/internal/model"

	"github.com/google/uuid"
)

const (
	EventStockChanged   = "stock.changed"
	EventOrderConfirmed = "order.confirmed"
)

// StockChanged is emitted once per affected product after a deduction commits.
type StockChanged struct {
	ProductID    uuid.UUID `json:"product_id"`
	StockQty     int       `json:"stock_qty"`
	VariantCount int       `json:"variant_count"`
	OrderID      uuid.UUID `json:"order_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewStockChanged builds the event from an aggregate snapshot.
func NewStockChanged(orderID uuid.UUID, snap model.StockSnapshot) StockChanged {
	return StockChanged{
		ProductID:    snap.ProductID,
		StockQty:     snap.StockQty,
		VariantCount: snap.VariantCount,
		OrderID:      orderID,
		OccurredAt:   time.Now().UTC(),
	}
}

// OrderConfirmed is emitted after an order leaves draft.
type OrderConfirmed struct {
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	PlacedAt   time.Time `json:"placed_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

//go:generate mockgen -source=events.go -destination=./mocks/notifier_mock.go -package=mocks StockNotifier,OrderNotifier

// StockNotifier receives stock-changed notifications.
type StockNotifier interface {
	StockChanged(ctx context.Context, ev StockChanged) error
}

// OrderNotifier receives order confirmation notifications.
type OrderNotifier interface {
	OrderConfirmed(ctx context.Context, ev OrderConfirmed) error
}

// Sink is a named notifier; either interface may be nil.
type Sink struct {
	Name  string
	Stock StockNotifier
	Order OrderNotifier
}

// Fanout delivers every notification to all sinks, collecting failures. A
// failing sink never prevents delivery to the others.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) StockChanged(ctx context.Context, ev StockChanged) error {
	var errs []error
	for _, s := range f.sinks {
		if s.Stock == nil {
			continue
		}
		if err := s.Stock.StockChanged(ctx, ev); err != nil {
			metrics.StockNotificationsFailed.WithLabelValues(s.Name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) OrderConfirmed(ctx context.Context, ev OrderConfirmed) error {
	var errs []error
	for _, s := range f.sinks {
		if s.Order == nil {
			continue
		}
		if err := s.Order.OrderConfirmed(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) StockChanged(context.Context, StockChanged) error     { return nil }
func (Nop) OrderConfirmed(context.Context, OrderConfirmed) error { return nil }
