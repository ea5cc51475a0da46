package service

import (
	"context"
	"testing"

	"storecore/internal/geo"
	"storecore/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func percentage(name, rate string, priority int, compound, shippingTaxable bool) model.TaxRate {
	return model.TaxRate{
		ID:              uuid.New(),
		Name:            name,
		Type:            model.TaxRateTypePercentage,
		Rate:            dec(rate),
		Compound:        compound,
		ShippingTaxable: shippingTaxable,
		Priority:        priority,
		IsActive:        true,
	}
}

func TestComputeTax_CompoundOrdering(t *testing.T) {
	zone := model.TaxZone{
		Name:     "Compound",
		IsActive: true,
		Rates: []model.TaxRate{
			percentage("compound 3%", "3", 2, true, false),
			percentage("base 5%", "5", 1, false, false),
		},
	}

	res := computeTax(zone, dec("100"), dec("0"))
	assert.Equal(t, "8.15", res.TaxTotal.StringFixed(2))
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "base 5%", res.Breakdown[0].Name)
	assert.Equal(t, "5.00", res.Breakdown[0].Amount.StringFixed(2))
	assert.Equal(t, "3.15", res.Breakdown[1].Amount.StringFixed(2))
}

func TestComputeTax_ShippingTaxable(t *testing.T) {
	zone := model.TaxZone{
		Name:     "EU",
		IsActive: true,
		Rates:    []model.TaxRate{percentage("VAT", "20", 1, false, true)},
	}

	res := computeTax(zone, dec("100.00"), dec("5.00"))
	assert.Equal(t, "21.00", res.TaxTotal.StringFixed(2))
	assert.Equal(t, "20.00", res.EffectiveRate.StringFixed(2))
	assert.Equal(t, "20.00", res.Breakdown[0].ProductAmount.StringFixed(2))
	assert.Equal(t, "1.00", res.Breakdown[0].ShippingAmount.StringFixed(2))
}

func TestComputeTax_ShippingNotTaxable(t *testing.T) {
	zone := model.TaxZone{IsActive: true, Rates: []model.TaxRate{percentage("VAT", "20", 1, false, false)}}

	res := computeTax(zone, dec("100"), dec("5"))
	assert.Equal(t, "20.00", res.TaxTotal.StringFixed(2))
	assert.Equal(t, "19.05", res.EffectiveRate.StringFixed(2))
}

func TestComputeTax_FixedIgnoresBase(t *testing.T) {
	zone := model.TaxZone{IsActive: true, Rates: []model.TaxRate{
		{Name: "eco fee", Type: model.TaxRateTypeFixed, Rate: dec("2.50"), Priority: 1, IsActive: true},
		percentage("inactive", "50", 0, false, false),
	}}
	zone.Rates[1].IsActive = false

	res := computeTax(zone, dec("1000"), dec("0"))
	assert.Equal(t, "2.50", res.TaxTotal.StringFixed(2))
	assert.Len(t, res.Breakdown, 1)
}

func TestComputeTax_ZeroBase(t *testing.T) {
	zone := model.TaxZone{IsActive: true, Rates: []model.TaxRate{percentage("VAT", "20", 1, false, true)}}

	res := computeTax(zone, dec("0"), dec("0"))
	assert.True(t, res.TaxTotal.IsZero())
	assert.True(t, res.EffectiveRate.IsZero())
}

func newTaxFixture() (*memStore, TaxService, model.Shop) {
	store := newMemStore()
	shop := model.Shop{ID: uuid.New(), Name: "main", Currency: "EUR"}
	store.shops = []model.Shop{shop}
	return store, NewTaxService(&fakeShopRepo{store: store}, &fakeTaxZoneRepo{store: store}), shop
}

func TestTaxService_ZoneExclusivity(t *testing.T) {
	store, svc, shop := newTaxFixture()
	store.zones = []model.TaxZone{
		{ID: uuid.New(), ShopID: shop.ID, Name: "EU", Code: "EU", Countries: model.StringList{"FR", "DE"}, Priority: 1, IsActive: true,
			Rates: []model.TaxRate{percentage("EU VAT", "5", 1, false, false)}},
		{ID: uuid.New(), ShopID: shop.ID, Name: "France", Code: "FR", Countries: model.StringList{"FR"}, Priority: 10, IsActive: true,
			Rates: []model.TaxRate{percentage("TVA", "20", 1, false, false)}},
	}

	res, err := svc.Calculate(context.Background(), TaxCalculationRequest{
		Amount:  dec("100"),
		Address: geo.Address{Country: "fr"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Zone)
	assert.Equal(t, "FR", res.Zone.Code)
	assert.Equal(t, "20.00", res.TaxTotal.StringFixed(2))

	res, err = svc.Calculate(context.Background(), TaxCalculationRequest{
		Amount:  dec("100"),
		Address: geo.Address{Country: "Germany"},
	})
	require.NoError(t, err)
	assert.Equal(t, "EU", res.Zone.Code)
	assert.Equal(t, "5.00", res.TaxTotal.StringFixed(2))
}

func TestTaxService_NoMatchIsZeroResult(t *testing.T) {
	store, svc, shop := newTaxFixture()
	store.zones = []model.TaxZone{
		{ID: uuid.New(), ShopID: shop.ID, Code: "FR", Countries: model.StringList{"FR"}, IsActive: true,
			Rates: []model.TaxRate{percentage("TVA", "20", 1, false, false)}},
	}

	res, err := svc.Calculate(context.Background(), TaxCalculationRequest{Amount: dec("100"), Address: geo.Address{Country: "US"}})
	require.NoError(t, err)
	assert.Nil(t, res.Zone)
	assert.True(t, res.TaxTotal.IsZero())
	assert.Empty(t, res.Breakdown)
}

func TestTaxService_NoShopIsZeroResult(t *testing.T) {
	_, svc, _ := newTaxFixture()
	missing := uuid.New()

	res, err := svc.Calculate(context.Background(), TaxCalculationRequest{Amount: dec("100"), ShopID: &missing})
	require.NoError(t, err)
	assert.Nil(t, res.Zone)
	assert.True(t, res.TaxTotal.IsZero())
}

func TestTaxService_CalculateIncludedTax(t *testing.T) {
	store, svc, shop := newTaxFixture()
	store.zones = []model.TaxZone{
		{ID: uuid.New(), ShopID: shop.ID, Code: "FR", Countries: model.StringList{"FR"}, IsActive: true,
			Rates: []model.TaxRate{percentage("TVA", "20", 1, false, false)}},
	}

	res, err := svc.CalculateIncludedTax(context.Background(), IncludedTaxRequest{
		PriceIncludingTax: dec("120"),
		Address:           geo.Address{Country: "FR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", res.PriceExcludingTax.StringFixed(2))
	assert.Equal(t, "20.00", res.TaxAmount.StringFixed(2))
	assert.Equal(t, "20.00", res.TotalRate.StringFixed(2))

	res, err = svc.CalculateIncludedTax(context.Background(), IncludedTaxRequest{
		PriceIncludingTax: dec("120"),
		Address:           geo.Address{Country: "US"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Zone)
	assert.Equal(t, "120.00", res.PriceExcludingTax.StringFixed(2))
	assert.True(t, res.TaxAmount.IsZero())
}
