package service

import (
	"context"
	"testing"
	"time"

	"storecore/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestInvoiceService(store *memStore) InvoiceService {
	tx := &fakeTxManager{store: store}
	sequences := NewSequenceService(&fakeSequenceRepo{store: store}, tx, zap.NewNop(), SequenceOptions{MaxAttempts: 1})
	svc := NewInvoiceService(
		&fakeInvoiceRepo{store: store},
		&fakeOrderRepo{store: store},
		&fakeAuditRepo{store: store},
		tx,
		sequences,
		zap.NewNop(),
		InvoiceOptions{Padding: 4, MaxAttempts: 2},
	)
	svc.(*invoiceService).now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestInvoiceService_IssuesYearlyNumbers(t *testing.T) {
	store := newMemStore()
	svc := newTestInvoiceService(store)

	first := store.addOrder(model.Order{Status: model.OrderStatusConfirmed, Subtotal: dec("80"), TaxTotal: dec("16"), Total: dec("96")})
	second := store.addOrder(model.Order{Status: model.OrderStatusShipped})

	inv, err := svc.IssueForOrder(context.Background(), first.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", inv.InvoiceNo)
	assert.Equal(t, "96.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "16.00", inv.TaxAmount.StringFixed(2))

	inv, err = svc.IssueForOrder(context.Background(), second.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0002", inv.InvoiceNo)

	got, err := svc.GetByOrder(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", got.InvoiceNo)
}

func TestInvoiceService_OneInvoicePerOrder(t *testing.T) {
	store := newMemStore()
	svc := newTestInvoiceService(store)
	order := store.addOrder(model.Order{Status: model.OrderStatusConfirmed})

	_, err := svc.IssueForOrder(context.Background(), order.ID, "")
	require.NoError(t, err)

	_, err = svc.IssueForOrder(context.Background(), order.ID, "")
	assert.ErrorIs(t, err, ErrInvoiceExists)

	// the rejected attempt consumed no number
	next, err := NewSequenceService(&fakeSequenceRepo{store: store}, &fakeTxManager{store: store}, zap.NewNop(), SequenceOptions{}).
		Next(context.Background(), "invoice_number_2026", "INV-2026-", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0002", next)
}

func TestInvoiceService_RequiresConfirmedOrder(t *testing.T) {
	store := newMemStore()
	svc := newTestInvoiceService(store)
	draft := store.addOrder(model.Order{})

	_, err := svc.IssueForOrder(context.Background(), draft.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotConfirmed)

	_, err = svc.IssueForOrder(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByOrder(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoiceSequence(t *testing.T) {
	name, prefix := InvoiceSequence(2027)
	assert.Equal(t, "invoice_number_2027", name)
	assert.Equal(t, "INV-2027-", prefix)
}

func TestAuditService_RecordAndList(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(&fakeAuditRepo{store: store})
	userID := uuid.New()

	require.NoError(t, svc.Record(context.Background(), userID.String(), model.ActionResetSequence, "order_number", "order_number", map[string]int64{"value": 5}))
	require.NoError(t, svc.Record(context.Background(), "not-a-uuid", model.ActionResetSequence, "x", "x", nil))

	logs, total, err := svc.GetAuditLogs(context.Background(), model.AuditFilter{}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 1)
	assert.Equal(t, userID.String(), logs[0].UserID)
	assert.JSONEq(t, `{"value":5}`, logs[0].Details)
}

func TestAuditService_ListFiltersByActionAndEntity(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(&fakeAuditRepo{store: store})
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "", model.ActionConfirmOrder, "order-1", "ORD-00001001", nil))
	require.NoError(t, svc.Record(ctx, "", model.ActionDeductStock, "order-1", "ORD-00001001", nil))
	require.NoError(t, svc.Record(ctx, "", model.ActionConfirmOrder, "order-2", "ORD-00001002", nil))

	logs, total, err := svc.GetAuditLogs(ctx, model.AuditFilter{Action: " confirm_order "}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, l := range logs {
		assert.Equal(t, model.ActionConfirmOrder, l.Action)
	}

	logs, total, err = svc.GetAuditLogs(ctx, model.AuditFilter{EntityID: "order-1"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)

	logs, total, err = svc.GetAuditLogs(ctx, model.AuditFilter{Action: model.ActionDeductStock, EntityID: "order-2"}, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
}
