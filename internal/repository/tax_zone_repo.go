package repository

import (
	"context"

	"storecore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxZoneRepository interface {
	// ListActiveByShop returns active zones by descending priority with their
	// active rates preloaded in ascending priority.
	ListActiveByShop(ctx context.Context, shopID uuid.UUID) ([]model.TaxZone, error)
}

type taxZoneRepository struct {
	db *gorm.DB
}

func NewTaxZoneRepository(db *gorm.DB) TaxZoneRepository {
	return &taxZoneRepository{db: db}
}

func (r *taxZoneRepository) ListActiveByShop(ctx context.Context, shopID uuid.UUID) ([]model.TaxZone, error) {
	var zones []model.TaxZone
	err := GetDB(ctx, r.db).
		Preload("Rates", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("priority ASC").Order("created_at ASC")
		}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Order("priority DESC").Order("created_at ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}
