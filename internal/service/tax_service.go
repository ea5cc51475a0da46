package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"storecore/internal/geo"
	"storecore/internal/model"
	"storecore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// --- DTOs ---

type TaxCalculationRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	Address        geo.Address     `json:"address"`
	ShopID         *uuid.UUID      `json:"shop_id,omitempty"`
}

type IncludedTaxRequest struct {
	PriceIncludingTax decimal.Decimal `json:"price_including_tax"`
	Address           geo.Address     `json:"address"`
	ShopID            *uuid.UUID      `json:"shop_id,omitempty"`
}

type TaxZoneSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Priority int       `json:"priority"`
}

type TaxBreakdown struct {
	Name           string          `json:"name"`
	Rate           decimal.Decimal `json:"rate"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	ProductAmount  decimal.Decimal `json:"product_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
}

// TaxResult with a nil Zone means no zone matched: zero tax, not a failure.
type TaxResult struct {
	TaxTotal      decimal.Decimal `json:"tax_total"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	Zone          *TaxZoneSummary `json:"zone"`
	Breakdown     []TaxBreakdown  `json:"breakdown"`
}

type IncludedTaxResult struct {
	PriceIncludingTax decimal.Decimal `json:"price_including_tax"`
	PriceExcludingTax decimal.Decimal `json:"price_excluding_tax"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalRate         decimal.Decimal `json:"total_rate"`
	Zone              *TaxZoneSummary `json:"zone"`
}

// --- Interface ---

// TaxService is read-only and safe to call for every cart edit.
type TaxService interface {
	Calculate(ctx context.Context, req TaxCalculationRequest) (TaxResult, error)
	CalculateIncludedTax(ctx context.Context, req IncludedTaxRequest) (IncludedTaxResult, error)
}

type taxService struct {
	shopRepo repository.ShopRepository
	zoneRepo repository.TaxZoneRepository
}

func NewTaxService(shopRepo repository.ShopRepository, zoneRepo repository.TaxZoneRepository) TaxService {
	return &taxService{shopRepo: shopRepo, zoneRepo: zoneRepo}
}

var hundred = decimal.NewFromInt(100)

// --- Implementation ---

func (s *taxService) Calculate(ctx context.Context, req TaxCalculationRequest) (res TaxResult, err error) {
	ctx, span := startSpan(ctx, "TaxService.Calculate")
	defer func() { endSpan(span, err) }()

	zone, err := s.resolveZone(ctx, req.ShopID, req.Address)
	if err != nil {
		return TaxResult{}, err
	}
	if zone == nil {
		return zeroTaxResult(), nil
	}
	span.SetAttributes(attribute.String("tax.zone", zone.Code))

	return computeTax(*zone, req.Amount, req.ShippingAmount), nil
}

func (s *taxService) CalculateIncludedTax(ctx context.Context, req IncludedTaxRequest) (res IncludedTaxResult, err error) {
	ctx, span := startSpan(ctx, "TaxService.CalculateIncludedTax")
	defer func() { endSpan(span, err) }()

	zone, err := s.resolveZone(ctx, req.ShopID, req.Address)
	if err != nil {
		return IncludedTaxResult{}, err
	}
	return computeIncludedTax(zone, req.PriceIncludingTax), nil
}

// resolveZone returns nil when there is no shop or no zone accepts addr.
func (s *taxService) resolveZone(ctx context.Context, shopID *uuid.UUID, addr geo.Address) (*model.TaxZone, error) {
	var (
		shop *model.Shop
		err  error
	)
	if shopID != nil {
		shop, err = s.shopRepo.FindByID(ctx, *shopID)
	} else {
		shop, err = s.shopRepo.FindDefault(ctx)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve shop: %w", err)
	}

	zones, err := s.zoneRepo.ListActiveByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax zones: %w", err)
	}
	return matchZone(zones, addr), nil
}

// matchZone picks the highest-priority active zone accepting addr. Equal
// priorities keep their incoming order.
func matchZone(zones []model.TaxZone, addr geo.Address) *model.TaxZone {
	ordered := make([]model.TaxZone, 0, len(zones))
	for _, z := range zones {
		if z.IsActive {
			ordered = append(ordered, z)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	for i := range ordered {
		if ordered[i].MatchesAddress(addr) {
			return &ordered[i]
		}
	}
	return nil
}

func activeRates(zone model.TaxZone) []model.TaxRate {
	rates := make([]model.TaxRate, 0, len(zone.Rates))
	for _, r := range zone.Rates {
		if r.IsActive {
			rates = append(rates, r)
		}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Priority < rates[j].Priority
	})
	return rates
}

// computeTax applies the zone's rates in ascending priority. Every rate's
// product and shipping tax feeds the running total that compound rates use
// as part of their base.
func computeTax(zone model.TaxZone, amount, shipping decimal.Decimal) TaxResult {
	res := zeroTaxResult()
	res.Zone = summarizeZone(zone)

	running := decimal.Zero
	total := decimal.Zero
	for _, rate := range activeRates(zone) {
		productTax := rate.CalculateTax(amount, running)
		shippingTax := decimal.Zero
		if rate.ShippingTaxable && shipping.IsPositive() {
			shippingTax = rate.CalculateTax(shipping, running)
		}
		combined := productTax.Add(shippingTax)
		running = running.Add(combined)
		total = total.Add(combined)

		res.Breakdown = append(res.Breakdown, TaxBreakdown{
			Name:           rate.Name,
			Rate:           rate.Rate,
			Type:           rate.Type,
			Amount:         combined.Round(2),
			ProductAmount:  productTax.Round(2),
			ShippingAmount: shippingTax.Round(2),
		})
	}

	res.TaxTotal = total.Round(2)
	base := amount.Add(shipping)
	if !base.IsZero() {
		res.EffectiveRate = res.TaxTotal.Div(base).Mul(hundred).Round(2)
	}
	return res
}

// computeIncludedTax backs the tax out of a tax-inclusive price using the
// flat sum of the zone's active rates.
func computeIncludedTax(zone *model.TaxZone, incl decimal.Decimal) IncludedTaxResult {
	res := IncludedTaxResult{
		PriceIncludingTax: incl,
		PriceExcludingTax: incl,
		TaxAmount:         decimal.Zero,
		TotalRate:         decimal.Zero,
	}
	if zone == nil {
		return res
	}
	res.Zone = summarizeZone(*zone)

	for _, r := range activeRates(*zone) {
		res.TotalRate = res.TotalRate.Add(r.Rate)
	}
	if res.TotalRate.IsZero() {
		return res
	}

	divisor := decimal.NewFromInt(1).Add(res.TotalRate.Div(hundred))
	res.PriceExcludingTax = incl.Div(divisor).Round(2)
	res.TaxAmount = incl.Sub(res.PriceExcludingTax)
	return res
}

func zeroTaxResult() TaxResult {
	return TaxResult{
		TaxTotal:      decimal.Zero,
		EffectiveRate: decimal.Zero,
		Breakdown:     []TaxBreakdown{},
	}
}

func summarizeZone(z model.TaxZone) *TaxZoneSummary {
	return &TaxZoneSummary{ID: z.ID, Name: z.Name, Code: z.Code, Priority: z.Priority}
}
