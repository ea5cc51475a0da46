package repository

import (
	"context"

	"storecore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingMethodRepository interface {
	FindByIDWithRates(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error)
	ListActiveWithRates(ctx context.Context) ([]model.ShippingMethod, error)
}

type shippingMethodRepository struct {
	db *gorm.DB
}

func NewShippingMethodRepository(db *gorm.DB) ShippingMethodRepository {
	return &shippingMethodRepository{db: db}
}

func (r *shippingMethodRepository) FindByIDWithRates(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	if err := r.withRates(GetDB(ctx, r.db)).Where("id = ?", id).Take(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *shippingMethodRepository) ListActiveWithRates(ctx context.Context) ([]model.ShippingMethod, error) {
	var methods []model.ShippingMethod
	if err := r.withRates(GetDB(ctx, r.db)).
		Where("is_active = ?", true).
		Order("position ASC").Order("created_at ASC").
		Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// Zones keep creation order: the first matching zone wins.
func (r *shippingMethodRepository) withRates(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Zones", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Rates", func(db *gorm.DB) *gorm.DB {
			return db.Order("priority DESC").Order("created_at ASC")
		})
}
