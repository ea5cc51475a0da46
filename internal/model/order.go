package model

import (
	"time"

	"storecore/internal/geo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants. Draft is the only pre-confirmation state.
const (
	OrderStatusDraft      = "draft"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Idempotency marker keys stored in Order.Meta.
const (
	MetaInventoryDeductedAt     = "inventory_deducted_at"
	MetaInventoryDeductedReason = "inventory_deducted_reason"

	DeductionReasonOrderConfirmation = "order_confirmation"
)

// Order is the cart turned document. Number stays nil until confirmation.
type Order struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID             *uuid.UUID      `gorm:"type:uuid;index" json:"shop_id"`
	Number             *string         `gorm:"type:varchar(50);uniqueIndex" json:"number"`
	Status             string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Meta               Meta            `gorm:"type:jsonb;not null;default:'{}'" json:"meta"`
	Currency           string          `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	ShippingMethodID   *uuid.UUID      `gorm:"type:uuid" json:"shipping_method_id"`
	ShippingCountry    string          `gorm:"type:varchar(100)" json:"shipping_country"`
	ShippingState      string          `gorm:"type:varchar(100)" json:"shipping_state"`
	ShippingPostalCode string          `gorm:"type:varchar(20)" json:"shipping_postal_code"`
	ShippingCity       string          `gorm:"type:varchar(100)" json:"shipping_city"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	ShippingTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_total"`
	TaxTotal           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_total"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	PlacedAt           *time.Time      `json:"placed_at"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsDraft reports whether the order has not been confirmed yet.
func (o Order) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// InventoryDeducted reports whether the one-time stock deduction already ran.
// Any non-null marker counts, whatever its JSON type.
func (o Order) InventoryDeducted() bool {
	v, ok := o.Meta[MetaInventoryDeductedAt]
	return ok && v != nil
}

// ShippingAddress returns the destination used for tax and shipping.
func (o Order) ShippingAddress() geo.Address {
	return geo.Address{
		Country:    o.ShippingCountry,
		State:      o.ShippingState,
		PostalCode: o.ShippingPostalCode,
		City:       o.ShippingCity,
	}
}

// TotalWeight sums line weights; nil when no line carries a weight.
func (o Order) TotalWeight() *decimal.Decimal {
	var total decimal.Decimal
	found := false
	for _, item := range o.Items {
		if item.UnitWeight == nil {
			continue
		}
		found = true
		total = total.Add(item.UnitWeight.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !found {
		return nil
	}
	return &total
}

// OrderItem references either a variant or a plain product.
type OrderItem struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID  *uuid.UUID       `gorm:"type:uuid;index" json:"product_id"`
	VariantID  *uuid.UUID       `gorm:"type:uuid;index" json:"variant_id"`
	Name       string           `gorm:"type:varchar(255)" json:"name"`
	Quantity   int              `gorm:"type:int;not null" json:"quantity"`
	UnitPrice  decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	UnitWeight *decimal.Decimal `gorm:"type:decimal(10,3)" json:"unit_weight"`
}

// StockTargetKind tells which stock row a line item draws from.
type StockTargetKind int

const (
	TargetNone StockTargetKind = iota
	TargetVariant
	TargetProduct
)

func (k StockTargetKind) String() string {
	switch k {
	case TargetVariant:
		return "variant"
	case TargetProduct:
		return "product"
	default:
		return "none"
	}
}

// StockTarget is the resolved line-item reference.
type StockTarget struct {
	Kind StockTargetKind
	ID   uuid.UUID
}

// Target resolves the item once: a variant wins over a product reference.
func (i OrderItem) Target() StockTarget {
	if i.VariantID != nil {
		return StockTarget{Kind: TargetVariant, ID: *i.VariantID}
	}
	if i.ProductID != nil {
		return StockTarget{Kind: TargetProduct, ID: *i.ProductID}
	}
	return StockTarget{Kind: TargetNone}
}

// LineTotal is unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
