package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storecore/internal/events"
	"storecore/internal/metrics"
	"storecore/internal/model"
	"storecore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderOptions struct {
	NumberSequence string
	NumberPrefix   string
	NumberInitial  int64
	NumberPadding  int
	MaxAttempts    int
	Backoff        time.Duration
}

// OrderPreview is a draft order with freshly computed totals.
type OrderPreview struct {
	Order *model.Order `json:"order"`
	Tax   TaxResult    `json:"tax"`
}

type OrderService interface {
	Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	// Confirm moves a draft order to confirmed. Repeating it on a confirmed
	// order returns the order unchanged.
	Confirm(ctx context.Context, orderID uuid.UUID, userID string) (*model.Order, error)
	Preview(ctx context.Context, orderID uuid.UUID) (*OrderPreview, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	sequences SequenceService
	inventory InventoryService
	tax       TaxService
	shipping  ShippingService
	notifier  events.OrderNotifier
	logger    *zap.Logger
	opts      OrderOptions
	now       func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	sequences SequenceService,
	inventory InventoryService,
	tax TaxService,
	shipping ShippingService,
	notifier events.OrderNotifier,
	logger *zap.Logger,
	opts OrderOptions,
) OrderService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	if opts.NumberPadding <= 0 {
		opts.NumberPadding = DefaultSequencePadding
	}
	return &orderService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		sequences: sequences,
		inventory: inventory,
		tax:       tax,
		shipping:  shipping,
		notifier:  notifier,
		logger:    logger.Named("order"),
		opts:      opts,
		now:       time.Now,
	}
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return order, nil
}

func (s *orderService) Confirm(ctx context.Context, orderID uuid.UUID, userID string) (order *model.Order, err error) {
	ctx, span := startSpan(ctx, "OrderService.Confirm")
	span.SetAttributes(attribute.String("order.id", orderID.String()))
	defer func() { endSpan(span, err) }()

	// 1. Lock the order and mint its number.
	var alreadyConfirmed bool
	err = retryOnContention(ctx, s.logger, "order number", s.opts.MaxAttempts, s.opts.Backoff, func() error {
		var mintErr error
		order, alreadyConfirmed, mintErr = s.mintNumber(ctx, orderID)
		return mintErr
	})
	if err != nil {
		metrics.OrderConfirmations.WithLabelValues("rejected").Inc()
		if repository.IsContention(err) {
			return nil, fmt.Errorf("%w: %w", ErrSequenceContention, err)
		}
		return nil, err
	}
	if alreadyConfirmed {
		metrics.OrderConfirmations.WithLabelValues("already_confirmed").Inc()
		return order, nil
	}

	// 2. Deduct stock. The order stays draft on any failure.
	deduction, err := s.inventory.DeductStockForOrder(ctx, orderID)
	if err != nil {
		metrics.OrderConfirmations.WithLabelValues("deduction_failed").Inc()
		return nil, err
	}

	// 3. Leave draft.
	var transitioned bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		order = locked
		if !locked.IsDraft() {
			return nil
		}

		placedAt := s.now().UTC()
		if err := s.orderRepo.MarkConfirmed(txCtx, orderID, placedAt); err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}
		order.Status = model.OrderStatusConfirmed
		order.PlacedAt = &placedAt

		entry, err := newAuditEntry(userID, model.ActionConfirmOrder, orderID.String(), orderLabel(order), map[string]interface{}{
			"number":             order.Number,
			"inventory_deducted": deduction.Deducted,
			"affected_products":  deduction.AffectedProductIDs,
		})
		if err != nil {
			return err
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		transitioned = true
		return nil
	})
	if err != nil {
		metrics.OrderConfirmations.WithLabelValues("error").Inc()
		return nil, err
	}
	if !transitioned {
		metrics.OrderConfirmations.WithLabelValues("already_confirmed").Inc()
		return order, nil
	}
	metrics.OrderConfirmations.WithLabelValues("confirmed").Inc()

	// 4. Best effort.
	if err := s.notifier.OrderConfirmed(ctx, orderConfirmedEvent(order)); err != nil {
		s.logger.Warn("order confirmation notification failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("order confirmed",
		zap.String("order_id", orderID.String()),
		zap.String("number", orderLabel(order)),
		zap.Int("affected_products", len(deduction.AffectedProductIDs)),
	)
	return order, nil
}

// mintNumber locks the order and assigns its number inside one transaction so
// a rollback never leaves a consumed value attached to nothing.
func (s *orderService) mintNumber(ctx context.Context, orderID uuid.UUID) (*model.Order, bool, error) {
	var (
		order            *model.Order
		alreadyConfirmed bool
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order", ID: orderID}
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		order = locked

		if locked.Status == model.OrderStatusConfirmed {
			alreadyConfirmed = true
			return nil
		}
		if !locked.IsDraft() {
			return fmt.Errorf("%w: %s is %s", ErrOrderNotDraft, orderID, locked.Status)
		}
		if locked.Number != nil && *locked.Number != "" {
			return nil
		}

		number, err := s.sequences.Next(txCtx, s.opts.NumberSequence, s.opts.NumberPrefix, s.opts.NumberInitial, s.opts.NumberPadding)
		if err != nil {
			return err
		}
		if err := s.orderRepo.AssignNumber(txCtx, orderID, number); err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}
		order.Number = &number
		return nil
	})
	return order, alreadyConfirmed, err
}

func (s *orderService) Preview(ctx context.Context, orderID uuid.UUID) (preview *OrderPreview, err error) {
	ctx, span := startSpan(ctx, "OrderService.Preview")
	span.SetAttributes(attribute.String("order.id", orderID.String()))
	defer func() { endSpan(span, err) }()

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsDraft() {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotDraft, orderID, order.Status)
	}

	subtotal := decimal.Zero
	for _, item := range order.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	addr := order.ShippingAddress()
	shipping := decimal.Zero
	if order.ShippingMethodID != nil {
		shipping, err = s.shipping.CalculatePrice(ctx, *order.ShippingMethodID, model.ShippingQuote{
			CartTotal:   subtotal,
			Weight:      order.TotalWeight(),
			CountryCode: addr.Country,
			PostalCode:  addr.PostalCode,
		})
		if err != nil {
			return nil, err
		}
	}

	tax, err := s.tax.Calculate(ctx, TaxCalculationRequest{
		Amount:         subtotal,
		ShippingAmount: shipping,
		Address:        addr,
		ShopID:         order.ShopID,
	})
	if err != nil {
		return nil, err
	}

	order.Subtotal = subtotal.Round(2)
	order.ShippingTotal = shipping.Round(2)
	order.TaxTotal = tax.TaxTotal
	order.Total = order.Subtotal.Add(order.ShippingTotal).Add(order.TaxTotal)

	if err := s.orderRepo.UpdateTotals(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to store order totals: %w", err)
	}
	return &OrderPreview{Order: order, Tax: tax}, nil
}

func orderConfirmedEvent(order *model.Order) events.OrderConfirmed {
	ev := events.OrderConfirmed{
		OrderID:    order.ID,
		Number:     orderLabel(order),
		Total:      order.Total.StringFixed(2),
		Currency:   order.Currency,
		OccurredAt: time.Now().UTC(),
	}
	if order.PlacedAt != nil {
		ev.PlacedAt = *order.PlacedAt
	}
	return ev
}
