package repository

import (
	"context"
	"time"

	"storecore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdate locks the order row and loads its items.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateMeta(ctx context.Context, id uuid.UUID, meta model.Meta) error
	AssignNumber(ctx context.Context, id uuid.UUID, number string) error
	MarkConfirmed(ctx context.Context, id uuid.UUID, placedAt time.Time) error
	UpdateTotals(ctx context.Context, order *model.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Preload("Items").Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("order_id = ?", id).Order("id ASC").Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateMeta(ctx context.Context, id uuid.UUID, meta model.Meta) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("meta", meta).Error
}

func (r *orderRepository) AssignNumber(ctx context.Context, id uuid.UUID, number string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ? AND number IS NULL", id).
		Update("number", number).Error
}

func (r *orderRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, placedAt time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    model.OrderStatusConfirmed,
			"placed_at": placedAt,
		}).Error
}

func (r *orderRepository) UpdateTotals(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"subtotal":       order.Subtotal,
			"shipping_total": order.ShippingTotal,
			"tax_total":      order.TaxTotal,
			"total":          order.Total,
		}).Error
}
