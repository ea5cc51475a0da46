package repository

import (
	"context"

	"storecore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	// LockVariants and LockProducts take exclusive row locks in id order so
	// that concurrent orders touching overlapping SKUs queue instead of
	// deadlocking.
	LockVariants(ctx context.Context, ids []uuid.UUID) ([]model.ProductVariant, error)
	LockProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	UpdateVariantStock(ctx context.Context, id uuid.UUID, stock int) error
	UpdateProductStock(ctx context.Context, id uuid.UUID, stock int) error
	StockSnapshot(ctx context.Context, productID uuid.UUID) (model.StockSnapshot, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) LockVariants(ctx context.Context, ids []uuid.UUID) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	if len(ids) == 0 {
		return variants, nil
	}
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id ASC").Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *productRepository) LockProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) UpdateVariantStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.ProductVariant{}).Where("id = ?", id).Update("stock_qty", stock).Error
}

func (r *productRepository) UpdateProductStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("stock_qty", stock).Error
}

// StockSnapshot aggregates own stock plus the stock of active variants.
func (r *productRepository) StockSnapshot(ctx context.Context, productID uuid.UUID) (model.StockSnapshot, error) {
	snap := model.StockSnapshot{ProductID: productID}

	var product model.Product
	if err := GetDB(ctx, r.db).Select("id", "stock_qty").Where("id = ?", productID).Take(&product).Error; err != nil {
		return snap, err
	}

	var agg struct {
		Total int
		Count int
	}
	if err := GetDB(ctx, r.db).Model(&model.ProductVariant{}).
		Select("COALESCE(SUM(stock_qty), 0) AS total, COUNT(*) AS count").
		Where("product_id = ? AND is_active = ?", productID, true).
		Scan(&agg).Error; err != nil {
		return snap, err
	}

	snap.StockQty = product.StockQty + agg.Total
	snap.VariantCount = agg.Count
	return snap, nil
}
