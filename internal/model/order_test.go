package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderItem_Target_VariantWins(t *testing.T) {
	productID, variantID := uuid.New(), uuid.New()

	assert.Equal(t, StockTarget{Kind: TargetVariant, ID: variantID}, OrderItem{ProductID: &productID, VariantID: &variantID}.Target())
	assert.Equal(t, StockTarget{Kind: TargetProduct, ID: productID}, OrderItem{ProductID: &productID}.Target())
	assert.Equal(t, TargetNone, OrderItem{}.Target().Kind)
}

func TestOrder_TotalWeight(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Quantity: 2, UnitWeight: dp("1.25")},
		{Quantity: 3},
		{Quantity: 1, UnitWeight: dp("0.5")},
	}}
	require.NotNil(t, order.TotalWeight())
	assert.Equal(t, "3", order.TotalWeight().String())

	assert.Nil(t, Order{Items: []OrderItem{{Quantity: 1}}}.TotalWeight())
}

func TestOrder_InventoryDeducted(t *testing.T) {
	assert.False(t, Order{}.InventoryDeducted())
	assert.False(t, Order{Meta: Meta{MetaInventoryDeductedAt: nil}}.InventoryDeducted())
	assert.False(t, Order{Meta: Meta{"other": "x"}}.InventoryDeducted())
	assert.True(t, Order{Meta: Meta{MetaInventoryDeductedAt: "2026-10-17T09:00:00Z"}}.InventoryDeducted())
	assert.True(t, Order{Meta: Meta{MetaInventoryDeductedAt: ""}}.InventoryDeducted())
}

func TestOrder_InventoryDeducted_NonStringMarkers(t *testing.T) {
	var m Meta
	require.NoError(t, m.Scan([]byte(`{"inventory_deducted_at":1792227600}`)))
	assert.True(t, Order{Meta: m}.InventoryDeducted())

	require.NoError(t, m.Scan([]byte(`{"inventory_deducted_at":true}`)))
	assert.True(t, Order{Meta: m}.InventoryDeducted())

	require.NoError(t, m.Scan([]byte(`{"inventory_deducted_at":null}`)))
	assert.False(t, Order{Meta: m}.InventoryDeducted())
}

func TestMeta_ScanAndValue(t *testing.T) {
	var m Meta
	require.NoError(t, m.Scan([]byte(`{"inventory_deducted_at":"2026-10-17T09:00:00Z","n":1}`)))
	at, ok := m.String(MetaInventoryDeductedAt)
	assert.True(t, ok)
	assert.Equal(t, "2026-10-17T09:00:00Z", at)
	_, ok = m.String("n")
	assert.False(t, ok)

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)

	v, err := Meta(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	assert.Error(t, m.Scan(42))
}

func TestStringList_NilMeansUnrestricted(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	require.NoError(t, l.Scan(`["FR","BE"]`))
	assert.Equal(t, StringList{"FR", "BE"}, l)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
