package repository

import (
	"context"

	"storecore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryTxRepository interface {
	CreateBatch(ctx context.Context, txs []model.InventoryTransaction) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.InventoryTransaction, error)
}

type inventoryTxRepository struct {
	db *gorm.DB
}

func NewInventoryTxRepository(db *gorm.DB) InventoryTxRepository {
	return &inventoryTxRepository{db: db}
}

func (r *inventoryTxRepository) CreateBatch(ctx context.Context, txs []model.InventoryTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&txs).Error
}

func (r *inventoryTxRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.InventoryTransaction, error) {
	var txs []model.InventoryTransaction
	if err := GetDB(ctx, r.db).Where("order_id = ?", orderID).Order("created_at ASC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
