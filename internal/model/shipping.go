package model

import (
	"time"

	"storecore/internal/geo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingMethod is a carrier option with a flat base price and optional
// weight/zone tiered rate tables.
type ShippingMethod struct {
	ID                    uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                  string           `gorm:"type:varchar(255);not null" json:"name"`
	Code                  string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Price                 decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	UseWeightBasedPricing bool             `gorm:"default:false" json:"use_weight_based_pricing"`
	UseZoneBasedPricing   bool             `gorm:"default:false" json:"use_zone_based_pricing"`
	FreeShippingThreshold *decimal.Decimal `gorm:"type:decimal(12,2)" json:"free_shipping_threshold"`
	IsActive              bool             `gorm:"default:true;index" json:"is_active"`
	Position              int              `gorm:"type:int;not null;default:0" json:"position"`
	Zones                 []ShippingZone   `gorm:"foreignKey:ShippingMethodID" json:"zones,omitempty"`
	Rates                 []ShippingRate   `gorm:"foreignKey:ShippingMethodID" json:"rates,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ShippingZone matches a destination by country list and postal rules.
type ShippingZone struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShippingMethodID uuid.UUID  `gorm:"type:uuid;not null;index" json:"shipping_method_id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	Countries        StringList `gorm:"type:jsonb" json:"countries"`
	PostalCodes      StringList `gorm:"type:jsonb" json:"postal_codes"` // 75*, 75000-75999, 75001
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ShippingRate is one tier. A nil ShippingZoneID is the base (no zone) tier;
// nil weight bounds are unbounded on that side.
type ShippingRate struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShippingMethodID uuid.UUID        `gorm:"type:uuid;not null;index" json:"shipping_method_id"`
	ShippingZoneID   *uuid.UUID       `gorm:"type:uuid;index" json:"shipping_zone_id"`
	MinWeight        *decimal.Decimal `gorm:"type:decimal(10,3)" json:"min_weight"`
	MaxWeight        *decimal.Decimal `gorm:"type:decimal(10,3)" json:"max_weight"`
	Price            decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	Priority         int              `gorm:"type:int;not null;default:0" json:"priority"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ShippingQuote is the input of a shipping price computation.
type ShippingQuote struct {
	CartTotal   decimal.Decimal
	Weight      *decimal.Decimal
	CountryCode string
	PostalCode  string
}

// CalculatePrice resolves the charged price. It is pure: zones and rates must
// already be loaded on the method.
func (m ShippingMethod) CalculatePrice(q ShippingQuote) decimal.Decimal {
	if m.FreeShippingThreshold != nil && q.CartTotal.GreaterThanOrEqual(*m.FreeShippingThreshold) {
		return decimal.Zero
	}

	if !m.UseWeightBasedPricing && !m.UseZoneBasedPricing {
		return m.Price
	}

	var zoneID *uuid.UUID
	if m.UseZoneBasedPricing {
		addr := geo.Address{Country: q.CountryCode, PostalCode: q.PostalCode}
		if addr.HasSignal() {
			if zone := m.FindZone(addr); zone != nil {
				id := zone.ID
				zoneID = &id
			}
		}
	}

	if rate := m.FindRate(zoneID, q.Weight); rate != nil {
		return rate.Price
	}
	return m.Price
}

// FindZone returns the first active zone, in load order, accepting addr.
func (m ShippingMethod) FindZone(addr geo.Address) *ShippingZone {
	a := addr.Normalized()
	for i := range m.Zones {
		z := &m.Zones[i]
		if z.IsActive && z.Matches(a) {
			return z
		}
	}
	return nil
}

// FindRate picks the highest priority rate scoped to zoneID whose weight
// window accepts weight. Ties keep the first loaded rate.
func (m ShippingMethod) FindRate(zoneID *uuid.UUID, weight *decimal.Decimal) *ShippingRate {
	var best *ShippingRate
	for i := range m.Rates {
		r := &m.Rates[i]
		if !sameZone(r.ShippingZoneID, zoneID) || !r.AcceptsWeight(weight) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	return best
}

// Matches expects a normalised address.
func (z ShippingZone) Matches(a geo.Address) bool {
	if len(z.Countries) > 0 {
		if a.Country == "" {
			return false
		}
		found := false
		for _, c := range z.Countries {
			if geo.NormalizeCountry(c) == a.Country {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(z.PostalCodes) > 0 {
		for _, rule := range z.PostalCodes {
			if geo.MatchPostalRule(rule, a.PostalCode) {
				return true
			}
		}
		return false
	}
	return true
}

// AcceptsWeight checks the inclusive [min, max] window. Without a weight only
// a rate with both bounds open applies.
func (r ShippingRate) AcceptsWeight(weight *decimal.Decimal) bool {
	if weight == nil {
		return r.MinWeight == nil && r.MaxWeight == nil
	}
	if r.MinWeight != nil && weight.LessThan(*r.MinWeight) {
		return false
	}
	if r.MaxWeight != nil && weight.GreaterThan(*r.MaxWeight) {
		return false
	}
	return true
}

func sameZone(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
