package repository

import (
	"context"

	"storecore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShopRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	FindDefault(ctx context.Context) (*model.Shop, error)
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	var shop model.Shop
	if err := GetDB(ctx, r.db).Where("id = ?", id).Take(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindDefault returns the oldest shop, the implicit shop of single-shop installs.
func (r *shopRepository) FindDefault(ctx context.Context) (*model.Shop, error) {
	var shop model.Shop
	if err := GetDB(ctx, r.db).Order("created_at ASC").Take(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}
