package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is consumed by inventory deduction only; its CRUD lives elsewhere.
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	ManageStock bool             `gorm:"default:true" json:"manage_stock"`
	StockQty    int              `gorm:"type:int;default:0;not null" json:"stock_qty"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant carries its own stock when ManageStock is set.
type ProductVariant struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	ManageStock bool      `gorm:"default:true" json:"manage_stock"`
	StockQty    int       `gorm:"type:int;default:0;not null" json:"stock_qty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockSnapshot is the aggregate stock view pushed to realtime clients after
// a deduction.
type StockSnapshot struct {
	ProductID    uuid.UUID `json:"product_id"`
	StockQty     int       `json:"stock_qty"`
	VariantCount int       `json:"variant_count"`
}

// TransactionType Enum Simulation
const (
	TxTypeIn  = "IN"
	TxTypeOut = "OUT"
)

// InventoryTransaction is the stock ledger; one row per decrement.
type InventoryTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID       *uuid.UUID `gorm:"type:uuid;index" json:"variant_id"`
	OrderID         *uuid.UUID `gorm:"type:uuid;index" json:"order_id"`                   // Nullable in case of manual adjustments
	TransactionType string     `gorm:"type:varchar(10);not null" json:"transaction_type"` // IN, OUT
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Reason          string     `gorm:"type:varchar(50)" json:"reason"`
	CreatedAt       time.Time  `json:"created_at"`
}
