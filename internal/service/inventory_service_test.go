package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storecore/internal/events"
	"storecore/internal/events/mocks"
	"storecore/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestInventoryService(store *memStore, notifier events.StockNotifier) InventoryService {
	return NewInventoryService(
		&fakeOrderRepo{store: store},
		&fakeProductRepo{store: store},
		&fakeLedgerRepo{store: store},
		&fakeAuditRepo{store: store},
		&fakeTxManager{store: store},
		notifier,
		zap.NewNop(),
	)
}

func variantLine(v model.ProductVariant, qty int) model.OrderItem {
	return model.OrderItem{VariantID: uuidPtr(v.ID), ProductID: uuidPtr(v.ProductID), Quantity: qty, UnitPrice: dec("10")}
}

func productLine(p model.Product, qty int) model.OrderItem {
	return model.OrderItem{ProductID: uuidPtr(p.ID), Quantity: qty, UnitPrice: dec("10")}
}

func TestInventoryService_DeductsVariantsAndProducts(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockStockNotifier(ctrl)
	store := newMemStore()

	parent := store.addProduct(0, false)
	variant := store.addVariant(parent.ID, 10, true)
	simple := store.addProduct(5, true)
	order := store.addOrder(model.Order{Items: []model.OrderItem{
		variantLine(variant, 3),
		productLine(simple, 2),
		variantLine(variant, 1),
	}})

	notifier.EXPECT().StockChanged(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ev events.StockChanged) error {
			assert.Equal(t, order.ID, ev.OrderID)
			switch ev.ProductID {
			case parent.ID:
				assert.Equal(t, 6, ev.StockQty)
				assert.Equal(t, 1, ev.VariantCount)
			case simple.ID:
				assert.Equal(t, 3, ev.StockQty)
				assert.Equal(t, 0, ev.VariantCount)
			default:
				t.Errorf("unexpected product %s", ev.ProductID)
			}
			return nil
		}).Times(2)

	svc := newTestInventoryService(store, notifier)
	res, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.True(t, res.Deducted)
	assert.Equal(t, []uuid.UUID{parent.ID, simple.ID}, res.AffectedProductIDs)
	assert.Equal(t, 6, store.variant(variant.ID).StockQty)
	assert.Equal(t, 3, store.product(simple.ID).StockQty)

	stored := store.order(order.ID)
	assert.True(t, stored.InventoryDeducted())
	reason, _ := stored.Meta.String(model.MetaInventoryDeductedReason)
	assert.Equal(t, model.DeductionReasonOrderConfirmation, reason)

	ledger, err := svc.ListOrderTransactions(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 3)
	assert.Equal(t, model.TxTypeOut, ledger[0].TransactionType)
	assert.Equal(t, 7, ledger[0].StockAfter)
	assert.Equal(t, 6, ledger[2].StockAfter)
}

func TestInventoryService_SecondCallIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockStockNotifier(ctrl)
	store := newMemStore()

	simple := store.addProduct(5, true)
	order := store.addOrder(model.Order{Items: []model.OrderItem{productLine(simple, 2)}})

	notifier.EXPECT().StockChanged(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	svc := newTestInventoryService(store, notifier)
	first, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, first.Deducted)

	second, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, second.Deducted)
	assert.Empty(t, second.AffectedProductIDs)
	assert.Equal(t, 3, store.product(simple.ID).StockQty)
}

func TestInventoryService_InsufficientStockRollsBackEverything(t *testing.T) {
	store := newMemStore()
	plenty := store.addProduct(10, true)
	scarce := store.addProduct(1, true)
	order := store.addOrder(model.Order{Items: []model.OrderItem{
		productLine(plenty, 2),
		productLine(scarce, 2),
	}})

	svc := newTestInventoryService(store, nil)
	_, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, scarce.ID, stockErr.ID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	assert.Equal(t, 10, store.product(plenty.ID).StockQty)
	assert.Equal(t, 1, store.product(scarce.ID).StockQty)
	assert.False(t, store.order(order.ID).InventoryDeducted())
	assert.Empty(t, store.ledger)
}

func TestInventoryService_MissingVariant(t *testing.T) {
	store := newMemStore()
	missing := uuid.New()
	order := store.addOrder(model.Order{Items: []model.OrderItem{
		{VariantID: &missing, Quantity: 1, UnitPrice: dec("1")},
	}})

	svc := newTestInventoryService(store, nil)
	_, err := svc.DeductStockForOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "variant", nf.Entity)
	assert.Equal(t, missing, nf.ID)
	assert.False(t, store.order(order.ID).InventoryDeducted())
}

func TestInventoryService_UnmanagedStockIsReportedButUntouched(t *testing.T) {
	store := newMemStore()
	parent := store.addProduct(0, false)
	variant := store.addVariant(parent.ID, 0, false)
	order := store.addOrder(model.Order{Items: []model.OrderItem{variantLine(variant, 4)}})

	svc := newTestInventoryService(store, nil)
	res, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{parent.ID}, res.AffectedProductIDs)
	assert.Equal(t, 0, store.variant(variant.ID).StockQty)
	assert.Empty(t, store.ledger)
}

func TestInventoryService_EmptyOrderIsStamped(t *testing.T) {
	store := newMemStore()
	order := store.addOrder(model.Order{})

	svc := newTestInventoryService(store, nil)
	res, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, res.Deducted)
	assert.Empty(t, res.AffectedProductIDs)
	assert.True(t, store.order(order.ID).InventoryDeducted())
}

func TestInventoryService_ZeroQuantityLinesAreSkipped(t *testing.T) {
	store := newMemStore()
	missing := uuid.New()
	order := store.addOrder(model.Order{Items: []model.OrderItem{
		{ProductID: &missing, Quantity: 0, UnitPrice: dec("1")},
	}})

	svc := newTestInventoryService(store, nil)
	res, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, res.AffectedProductIDs)
}

func TestInventoryService_NotificationFailureKeepsDeduction(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockStockNotifier(ctrl)
	store := newMemStore()
	simple := store.addProduct(5, true)
	order := store.addOrder(model.Order{Items: []model.OrderItem{productLine(simple, 5)}})

	notifier.EXPECT().StockChanged(gomock.Any(), gomock.Any()).Return(errors.New("hub down"))

	svc := newTestInventoryService(store, notifier)
	res, err := svc.DeductStockForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, res.Deducted)
	assert.Equal(t, 0, store.product(simple.ID).StockQty)
}

func TestInventoryService_UnknownOrder(t *testing.T) {
	svc := newTestInventoryService(newMemStore(), nil)
	_, err := svc.DeductStockForOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventoryService_ConcurrentSameOrderDeductsOnce(t *testing.T) {
	store := newMemStore()
	simple := store.addProduct(100, true)
	order := store.addOrder(model.Order{Items: []model.OrderItem{productLine(simple, 7)}})
	svc := newTestInventoryService(store, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		deducted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.DeductStockForOrder(context.Background(), order.ID)
			assert.NoError(t, err)
			if res.Deducted {
				mu.Lock()
				deducted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, deducted)
	assert.Equal(t, 93, store.product(simple.ID).StockQty)
}

func TestInventoryService_ConcurrentOrdersNeverOversell(t *testing.T) {
	store := newMemStore()
	parent := store.addProduct(0, false)
	variant := store.addVariant(parent.ID, 5, true)

	orders := make([]model.Order, 10)
	for i := range orders {
		orders[i] = store.addOrder(model.Order{Items: []model.OrderItem{variantLine(variant, 1)}})
	}
	svc := newTestInventoryService(store, nil)

	var (
		wg                sync.WaitGroup
		mu                sync.Mutex
		succeeded, failed int
	)
	for _, o := range orders {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.DeductStockForOrder(context.Background(), id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientStock)
				failed++
				return
			}
			succeeded++
		}(o.ID)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, failed)
	assert.Equal(t, 0, store.variant(variant.ID).StockQty)
}
