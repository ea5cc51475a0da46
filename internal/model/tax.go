package model

import (
	"time"

	"storecore/internal/geo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRateType enum constants
const (
	TaxRateTypePercentage = "percentage"
	TaxRateTypeFixed      = "fixed"
)

// TaxZone is a geographic rule. Among the active zones of a shop the highest
// priority zone accepting an address is authoritative; rates are never summed
// across zones.
type TaxZone struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"shop_id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Code        string     `gorm:"type:varchar(50);not null" json:"code"`
	Countries   StringList `gorm:"type:jsonb" json:"countries"`    // nil = any country
	States      StateMap   `gorm:"type:jsonb" json:"states"`       // country -> state codes
	PostalCodes StringList `gorm:"type:jsonb" json:"postal_codes"` // '*' wildcard or literal
	Priority    int        `gorm:"type:int;not null;default:0;index" json:"priority"`
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
	Rates       []TaxRate  `gorm:"foreignKey:TaxZoneID" json:"rates,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MatchesAddress applies the country, state and postal predicates. Each
// predicate only constrains when the zone defines it.
func (z TaxZone) MatchesAddress(addr geo.Address) bool {
	a := addr.Normalized()

	if len(z.Countries) > 0 {
		if a.Country == "" || !geo.ContainsFold(z.Countries, a.Country) {
			return false
		}
	}

	if len(z.States) > 0 && a.Country != "" && a.State != "" {
		if states, ok := z.statesFor(a.Country); ok && len(states) > 0 && !geo.ContainsFold(states, a.State) {
			return false
		}
	}

	if len(z.PostalCodes) > 0 {
		if a.PostalCode == "" {
			return false
		}
		matched := false
		for _, pattern := range z.PostalCodes {
			if geo.MatchWildcard(pattern, a.PostalCode) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func (z TaxZone) statesFor(country string) ([]string, bool) {
	for k, v := range z.States {
		if geo.NormalizeCountry(k) == country {
			return v, true
		}
	}
	return nil, false
}

// TaxRate belongs to one zone and is applied in ascending priority.
type TaxRate struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxZoneID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tax_zone_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Type            string          `gorm:"type:varchar(20);not null;default:'percentage'" json:"type"` // percentage, fixed
	Rate            decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"rate"`                    // 20 = 20% or a flat amount
	Compound        bool            `gorm:"default:false" json:"compound"`
	ShippingTaxable bool            `gorm:"default:false" json:"shipping_taxable"`
	Priority        int             `gorm:"type:int;not null;default:0" json:"priority"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// CalculateTax returns the tax this rate levies on amount. previousTax is the
// tax already accumulated by earlier rates of the zone; it only widens the base
// of compound percentage rates. Fixed rates ignore the base entirely.
func (r TaxRate) CalculateTax(amount, previousTax decimal.Decimal) decimal.Decimal {
	if r.Type == TaxRateTypeFixed {
		return r.Rate
	}
	base := amount
	if r.Compound {
		base = base.Add(previousTax)
	}
	return base.Mul(r.Rate).Div(hundred)
}
