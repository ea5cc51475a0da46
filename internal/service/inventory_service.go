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
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeductionResult reports what a deduction call did. AffectedProductIDs is
// empty when the order had already been deducted.
type DeductionResult struct {
	Deducted           bool        `json:"deducted"`
	AffectedProductIDs []uuid.UUID `json:"affected_product_ids"`
}

type InventoryService interface {
	// DeductStockForOrder decrements stock for every line of the order at
	// most once. Any missing target or shortfall aborts the whole deduction.
	DeductStockForOrder(ctx context.Context, orderID uuid.UUID) (DeductionResult, error)
	ListOrderTransactions(ctx context.Context, orderID uuid.UUID) ([]model.InventoryTransaction, error)
}

type inventoryService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	ledgerRepo  repository.InventoryTxRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    events.StockNotifier
	logger      *zap.Logger
	now         func() time.Time
}

func NewInventoryService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	ledgerRepo repository.InventoryTxRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier events.StockNotifier,
	logger *zap.Logger,
) InventoryService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &inventoryService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ledgerRepo:  ledgerRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
		logger:      logger.Named("inventory"),
		now:         time.Now,
	}
}

// stockPlan is the in-memory state of the locked rows while lines are applied.
type stockPlan struct {
	variants      map[uuid.UUID]*model.ProductVariant
	products      map[uuid.UUID]*model.Product
	dirtyVariants []uuid.UUID
	dirtyProducts []uuid.UUID
	affected      []uuid.UUID
	affectedSeen  map[uuid.UUID]bool
	ledger        []model.InventoryTransaction
}

func (s *inventoryService) DeductStockForOrder(ctx context.Context, orderID uuid.UUID) (result DeductionResult, err error) {
	ctx, span := startSpan(ctx, "InventoryService.DeductStockForOrder")
	span.SetAttributes(attribute.String("order.id", orderID.String()))
	defer func() { endSpan(span, err) }()

	outcome := "deducted"
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order", ID: orderID}
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		if order.InventoryDeducted() {
			outcome = "already_deducted"
			return nil
		}

		if len(order.Items) == 0 {
			outcome = "empty"
			result.Deducted = true
			return s.stamp(txCtx, order)
		}

		plan, err := s.lockTargets(txCtx, order.Items)
		if err != nil {
			return err
		}
		if err := plan.apply(order); err != nil {
			return err
		}
		if err := s.persist(txCtx, plan); err != nil {
			return err
		}
		if err := s.stamp(txCtx, order); err != nil {
			return err
		}

		entry, err := newAuditEntry("", model.ActionDeductStock, order.ID.String(), orderLabel(order), map[string]interface{}{
			"lines":    len(plan.ledger),
			"products": plan.affected,
		})
		if err != nil {
			return err
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		result.Deducted = true
		result.AffectedProductIDs = plan.affected
		return nil
	})
	if err != nil {
		metrics.InventoryDeductions.WithLabelValues(deductionFailure(err)).Inc()
		return DeductionResult{}, err
	}
	metrics.InventoryDeductions.WithLabelValues(outcome).Inc()

	s.notify(ctx, orderID, result.AffectedProductIDs)
	return result, nil
}

// lockTargets takes all variant locks before any product lock, each batch in
// id order.
func (s *inventoryService) lockTargets(ctx context.Context, items []model.OrderItem) (*stockPlan, error) {
	var variantIDs, productIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, item := range items {
		t := item.Target()
		if t.Kind == model.TargetNone || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		if t.Kind == model.TargetVariant {
			variantIDs = append(variantIDs, t.ID)
		} else {
			productIDs = append(productIDs, t.ID)
		}
	}

	variants, err := s.productRepo.LockVariants(ctx, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock variants: %w", err)
	}
	products, err := s.productRepo.LockProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	plan := &stockPlan{
		variants:     make(map[uuid.UUID]*model.ProductVariant, len(variants)),
		products:     make(map[uuid.UUID]*model.Product, len(products)),
		affectedSeen: make(map[uuid.UUID]bool),
	}
	for i := range variants {
		plan.variants[variants[i].ID] = &variants[i]
	}
	for i := range products {
		plan.products[products[i].ID] = &products[i]
	}
	return plan, nil
}

func (p *stockPlan) apply(order *model.Order) error {
	orderID := order.ID
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			continue
		}
		t := item.Target()
		switch t.Kind {
		case model.TargetVariant:
			v, ok := p.variants[t.ID]
			if !ok {
				return &NotFoundError{Entity: "variant", ID: t.ID}
			}
			if v.ManageStock {
				if v.StockQty < item.Quantity {
					return &InsufficientStockError{Entity: "variant", ID: v.ID, Available: v.StockQty, Requested: item.Quantity}
				}
				v.StockQty -= item.Quantity
				p.markDirty(&p.dirtyVariants, v.ID)
				variantID := v.ID
				p.ledger = append(p.ledger, ledgerRow(v.ProductID, &variantID, orderID, item.Quantity, v.StockQty))
			}
			p.markAffected(v.ProductID)
		case model.TargetProduct:
			prod, ok := p.products[t.ID]
			if !ok {
				return &NotFoundError{Entity: "product", ID: t.ID}
			}
			if prod.ManageStock {
				if prod.StockQty < item.Quantity {
					return &InsufficientStockError{Entity: "product", ID: prod.ID, Available: prod.StockQty, Requested: item.Quantity}
				}
				prod.StockQty -= item.Quantity
				p.markDirty(&p.dirtyProducts, prod.ID)
				p.ledger = append(p.ledger, ledgerRow(prod.ID, nil, orderID, item.Quantity, prod.StockQty))
			}
			p.markAffected(prod.ID)
		}
	}
	return nil
}

func (p *stockPlan) markDirty(dirty *[]uuid.UUID, id uuid.UUID) {
	for _, existing := range *dirty {
		if existing == id {
			return
		}
	}
	*dirty = append(*dirty, id)
}

func (p *stockPlan) markAffected(productID uuid.UUID) {
	if p.affectedSeen[productID] {
		return
	}
	p.affectedSeen[productID] = true
	p.affected = append(p.affected, productID)
}

func ledgerRow(productID uuid.UUID, variantID *uuid.UUID, orderID uuid.UUID, qty, after int) model.InventoryTransaction {
	oid := orderID
	return model.InventoryTransaction{
		ProductID:       productID,
		VariantID:       variantID,
		OrderID:         &oid,
		TransactionType: model.TxTypeOut,
		QuantityChanged: qty,
		StockAfter:      after,
		Reason:          model.DeductionReasonOrderConfirmation,
	}
}

func (s *inventoryService) persist(ctx context.Context, plan *stockPlan) error {
	for _, id := range plan.dirtyVariants {
		if err := s.productRepo.UpdateVariantStock(ctx, id, plan.variants[id].StockQty); err != nil {
			return fmt.Errorf("failed to update variant %s stock: %w", id, err)
		}
	}
	for _, id := range plan.dirtyProducts {
		if err := s.productRepo.UpdateProductStock(ctx, id, plan.products[id].StockQty); err != nil {
			return fmt.Errorf("failed to update product %s stock: %w", id, err)
		}
	}
	if err := s.ledgerRepo.CreateBatch(ctx, plan.ledger); err != nil {
		return fmt.Errorf("failed to write inventory ledger: %w", err)
	}
	return nil
}

func (s *inventoryService) stamp(ctx context.Context, order *model.Order) error {
	meta := model.Meta{}
	for k, v := range order.Meta {
		meta[k] = v
	}
	meta[model.MetaInventoryDeductedAt] = s.now().UTC().Format(time.RFC3339)
	meta[model.MetaInventoryDeductedReason] = model.DeductionReasonOrderConfirmation

	if err := s.orderRepo.UpdateMeta(ctx, order.ID, meta); err != nil {
		return fmt.Errorf("failed to stamp order: %w", err)
	}
	order.Meta = meta
	return nil
}

// notify runs after commit. Failures are logged and never undo the deduction.
func (s *inventoryService) notify(ctx context.Context, orderID uuid.UUID, productIDs []uuid.UUID) {
	for _, pid := range productIDs {
		snap, err := s.productRepo.StockSnapshot(ctx, pid)
		if err != nil {
			metrics.StockNotificationsFailed.WithLabelValues("snapshot").Inc()
			s.logger.Warn("failed to compute stock snapshot",
				zap.String("product_id", pid.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.notifier.StockChanged(ctx, events.NewStockChanged(orderID, snap)); err != nil {
			s.logger.Warn("stock notification failed",
				zap.String("product_id", pid.String()),
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *inventoryService) ListOrderTransactions(ctx context.Context, orderID uuid.UUID) ([]model.InventoryTransaction, error) {
	txs, err := s.ledgerRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory ledger: %w", err)
	}
	return txs, nil
}

func deductionFailure(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func orderLabel(order *model.Order) string {
	if order.Number != nil {
		return *order.Number
	}
	return order.ID.String()
}
