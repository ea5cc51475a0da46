package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"storecore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore stands in for Postgres: txMu serializes transactions the way the
// row locks do, and a failed transaction restores the snapshot taken at BEGIN.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	sequences map[string]model.Sequence
	orders    map[uuid.UUID]model.Order
	variants  map[uuid.UUID]model.ProductVariant
	products  map[uuid.UUID]model.Product
	ledger    []model.InventoryTransaction
	invoices  map[uuid.UUID]model.Invoice
	audits    []model.AuditLog
	shops     []model.Shop
	zones     []model.TaxZone
	methods   []model.ShippingMethod

	failIncrements int
}

func newMemStore() *memStore {
	return &memStore{
		sequences: make(map[string]model.Sequence),
		orders:    make(map[uuid.UUID]model.Order),
		variants:  make(map[uuid.UUID]model.ProductVariant),
		products:  make(map[uuid.UUID]model.Product),
		invoices:  make(map[uuid.UUID]model.Invoice),
	}
}

func (s *memStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequences := make(map[string]model.Sequence, len(s.sequences))
	for k, v := range s.sequences {
		sequences[k] = v
	}
	orders := make(map[uuid.UUID]model.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = copyOrder(v)
	}
	variants := make(map[uuid.UUID]model.ProductVariant, len(s.variants))
	for k, v := range s.variants {
		variants[k] = v
	}
	products := make(map[uuid.UUID]model.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	invoices := make(map[uuid.UUID]model.Invoice, len(s.invoices))
	for k, v := range s.invoices {
		invoices[k] = v
	}
	ledger := append([]model.InventoryTransaction(nil), s.ledger...)
	audits := append([]model.AuditLog(nil), s.audits...)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sequences, s.orders, s.variants, s.products = sequences, orders, variants, products
		s.invoices, s.ledger, s.audits = invoices, ledger, audits
	}
}

func copyOrder(o model.Order) model.Order {
	meta := model.Meta{}
	for k, v := range o.Meta {
		meta[k] = v
	}
	o.Meta = meta
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return o
}

func (s *memStore) order(id uuid.UUID) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrder(s.orders[id])
}

func (s *memStore) variant(id uuid.UUID) model.ProductVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variants[id]
}

func (s *memStore) product(id uuid.UUID) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) addOrder(o model.Order) model.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = model.OrderStatusDraft
	}
	if o.Currency == "" {
		o.Currency = "EUR"
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	s.mu.Lock()
	s.orders[o.ID] = copyOrder(o)
	s.mu.Unlock()
	return o
}

func (s *memStore) addProduct(stock int, manage bool) model.Product {
	p := model.Product{ID: uuid.New(), SKU: uuid.NewString(), Name: "product", ManageStock: manage, StockQty: stock}
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *memStore) addVariant(productID uuid.UUID, stock int, manage bool) model.ProductVariant {
	v := model.ProductVariant{ID: uuid.New(), ProductID: productID, SKU: uuid.NewString(), ManageStock: manage, StockQty: stock, IsActive: true}
	s.mu.Lock()
	s.variants[v.ID] = v
	s.mu.Unlock()
	return v
}

// --- transaction manager ---

type fakeTxKey struct{}

type fakeTxManager struct {
	store *memStore
}

func (t *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	restore := t.store.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		restore()
		return err
	}
	return nil
}

// --- sequences ---

type fakeSequenceRepo struct{ store *memStore }

func (r *fakeSequenceRepo) EnsureExists(_ context.Context, seq *model.Sequence) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sequences[seq.Name]; !ok {
		r.store.sequences[seq.Name] = *seq
	}
	return nil
}

func (r *fakeSequenceRepo) FindByNameForUpdate(ctx context.Context, name string) (*model.Sequence, error) {
	return r.FindByName(ctx, name)
}

func (r *fakeSequenceRepo) FindByName(_ context.Context, name string) (*model.Sequence, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seq, ok := r.store.sequences[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &seq, nil
}

func (r *fakeSequenceRepo) Increment(_ context.Context, name string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failIncrements > 0 {
		r.store.failIncrements--
		return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	}
	seq := r.store.sequences[name]
	seq.CurrentValue++
	r.store.sequences[name] = seq
	return nil
}

func (r *fakeSequenceRepo) SetValue(_ context.Context, name string, value int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seq := r.store.sequences[name]
	seq.CurrentValue = value
	r.store.sequences[name] = seq
	return nil
}

// --- orders ---

type fakeOrderRepo struct{ store *memStore }

func (r *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *fakeOrderRepo) update(id uuid.UUID, fn func(o *model.Order)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&o)
	r.store.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) UpdateMeta(_ context.Context, id uuid.UUID, meta model.Meta) error {
	return r.update(id, func(o *model.Order) { o.Meta = meta })
}

func (r *fakeOrderRepo) AssignNumber(_ context.Context, id uuid.UUID, number string) error {
	return r.update(id, func(o *model.Order) {
		if o.Number == nil {
			o.Number = &number
		}
	})
}

func (r *fakeOrderRepo) MarkConfirmed(_ context.Context, id uuid.UUID, placedAt time.Time) error {
	return r.update(id, func(o *model.Order) {
		o.Status = model.OrderStatusConfirmed
		o.PlacedAt = &placedAt
	})
}

func (r *fakeOrderRepo) UpdateTotals(_ context.Context, order *model.Order) error {
	return r.update(order.ID, func(o *model.Order) {
		o.Subtotal, o.ShippingTotal, o.TaxTotal, o.Total = order.Subtotal, order.ShippingTotal, order.TaxTotal, order.Total
	})
}

// --- products ---

type fakeProductRepo struct{ store *memStore }

func (r *fakeProductRepo) LockVariants(_ context.Context, ids []uuid.UUID) ([]model.ProductVariant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.ProductVariant
	for _, id := range ids {
		if v, ok := r.store.variants[id]; ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *fakeProductRepo) LockProducts(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *fakeProductRepo) UpdateVariantStock(_ context.Context, id uuid.UUID, stock int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v := r.store.variants[id]
	v.StockQty = stock
	r.store.variants[id] = v
	return nil
}

func (r *fakeProductRepo) UpdateProductStock(_ context.Context, id uuid.UUID, stock int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p := r.store.products[id]
	p.StockQty = stock
	r.store.products[id] = p
	return nil
}

func (r *fakeProductRepo) StockSnapshot(_ context.Context, productID uuid.UUID) (model.StockSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return model.StockSnapshot{ProductID: productID}, gorm.ErrRecordNotFound
	}
	snap := model.StockSnapshot{ProductID: productID, StockQty: p.StockQty}
	for _, v := range r.store.variants {
		if v.ProductID == productID && v.IsActive {
			snap.StockQty += v.StockQty
			snap.VariantCount++
		}
	}
	return snap, nil
}

// --- ledger, audit, invoices ---

type fakeLedgerRepo struct{ store *memStore }

func (r *fakeLedgerRepo) CreateBatch(_ context.Context, txs []model.InventoryTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.ledger = append(r.store.ledger, txs...)
	return nil
}

func (r *fakeLedgerRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]model.InventoryTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.InventoryTransaction
	for _, tx := range r.store.ledger {
		if tx.OrderID != nil && *tx.OrderID == orderID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeAuditRepo struct{ store *memStore }

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.store.audits = append(r.store.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, filter model.AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []model.AuditLog
	for _, a := range r.store.audits {
		if filter.Action != "" && a.Action != filter.Action {
			continue
		}
		if filter.EntityID != "" && a.EntityID != filter.EntityID {
			continue
		}
		matched = append(matched, a)
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeInvoiceRepo struct{ store *memStore }

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	invoice.ID = uuid.New()
	r.store.invoices[invoice.OrderID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inv, ok := r.store.invoices[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &inv, nil
}

// --- catalogue reads ---

type fakeShopRepo struct{ store *memStore }

func (r *fakeShopRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shop, error) {
	for _, s := range r.store.shops {
		if s.ID == id {
			shop := s
			return &shop, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeShopRepo) FindDefault(_ context.Context) (*model.Shop, error) {
	if len(r.store.shops) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	shop := r.store.shops[0]
	return &shop, nil
}

type fakeTaxZoneRepo struct{ store *memStore }

func (r *fakeTaxZoneRepo) ListActiveByShop(_ context.Context, shopID uuid.UUID) ([]model.TaxZone, error) {
	var out []model.TaxZone
	for _, z := range r.store.zones {
		if z.ShopID == shopID && z.IsActive {
			out = append(out, z)
		}
	}
	return out, nil
}

type fakeShippingRepo struct{ store *memStore }

func (r *fakeShippingRepo) FindByIDWithRates(_ context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	for _, m := range r.store.methods {
		if m.ID == id {
			method := m
			return &method, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeShippingRepo) ListActiveWithRates(_ context.Context) ([]model.ShippingMethod, error) {
	var out []model.ShippingMethod
	for _, m := range r.store.methods {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
