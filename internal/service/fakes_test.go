package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"crop-catch/internal/authz"
	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store down")

type fakeAdmin struct {
	admins map[string]bool
	calls  int
}

func (f *fakeAdmin) RequireAdmin(_ context.Context, id *session.Identity) error {
	f.calls++
	if id == nil {
		return authz.ErrNotAuthenticated
	}
	if !f.admins[id.ID] {
		return authz.ErrUnauthorized
	}
	return nil
}

type auditEntry struct {
	userID, entity, entityID, action string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
	recent  []models.AuditLog
}

func (f *fakeAudit) Record(_ context.Context, userID, entity, entityID, action, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{userID, entity, entityID, action})
}

func (f *fakeAudit) Recent(_ context.Context, limit int) ([]models.AuditLog, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

type fakeProducts struct {
	mu    sync.Mutex
	rows  map[string]models.Product
	lists int
}

func newFakeProducts(ps ...models.Product) *fakeProducts {
	f := &fakeProducts{rows: map[string]models.Product{}}
	for _, p := range ps {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, flt repository.ProductFilter) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []models.Product
	for _, p := range f.rows {
		if flt.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(flt.Search)) {
			continue
		}
		if flt.Category != "" && p.Category != flt.Category {
			continue
		}
		if flt.AvailableOnly && !p.Availability {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id string, updates map[string]any) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	if v, ok := updates["name"].(string); ok {
		p.Name = v
	}
	if v, ok := updates["price"].(decimal.Decimal); ok {
		p.Price = v
	}
	if v, ok := updates["availability"].(bool); ok {
		p.Availability = v
	}
	f.rows[id] = p
	return p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProducts) CountAvailable(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.rows {
		if p.Availability {
			n++
		}
	}
	return n, nil
}

// fakeRFQs stores RFQs and items in separate tables so that partial
// writes and delete ordering are observable.
type fakeRFQs struct {
	mu        sync.Mutex
	rfqs      map[string]models.RFQ
	items     map[string][]models.RFQItem
	failItems bool
	ops       []string
	rejected  int64
	// onCreate runs while an RFQ insert is in flight
	onCreate func()
}

func newFakeRFQs() *fakeRFQs {
	return &fakeRFQs{rfqs: map[string]models.RFQ{}, items: map[string][]models.RFQItem{}}
}

func (f *fakeRFQs) CreateWithItems(_ context.Context, rfq *models.RFQ, items []models.RFQItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rfq.ID == "" {
		rfq.ID = uuid.NewString()
	}
	if f.failItems {
		// rolled back: neither the parent nor any item is kept
		return errStoreDown
	}
	if f.onCreate != nil {
		f.onCreate()
	}
	rfq.CreatedAt = time.Now()
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].RFQID = rfq.ID
	}
	rfq.Items = items
	f.rfqs[rfq.ID] = *rfq
	f.items[rfq.ID] = append([]models.RFQItem(nil), items...)
	return nil
}

func (f *fakeRFQs) ListAll(context.Context) ([]models.RFQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RFQ
	for _, r := range f.rfqs {
		r.Items = f.items[r.ID]
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRFQs) ListByUser(ctx context.Context, userID string) ([]models.RFQ, error) {
	all, _ := f.ListAll(ctx)
	var out []models.RFQ
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRFQs) Get(_ context.Context, id string) (models.RFQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rfqs[id]
	if !ok {
		return models.RFQ{}, repository.ErrNotFound
	}
	r.Items = f.items[id]
	return r, nil
}

func (f *fakeRFQs) Update(_ context.Context, id string, updates map[string]any) (models.RFQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rfqs[id]
	if !ok {
		return models.RFQ{}, repository.ErrNotFound
	}
	if v, ok := updates["status"].(models.RFQStatus); ok {
		r.Status = v
	}
	if v, ok := updates["quoted_price"].(decimal.NullDecimal); ok {
		r.QuotedPrice = v
	}
	if v, ok := updates["shipping_cost"].(decimal.NullDecimal); ok {
		r.ShippingCost = v
	}
	if v, ok := updates["admin_notes"].(string); ok {
		r.AdminNotes = v
	}
	if v, ok := updates["quoted_at"].(time.Time); ok {
		r.QuotedAt = &v
	}
	if v, ok := updates["quote_responded_by"].(string); ok {
		r.QuoteRespondedBy = &v
	}
	if v, ok := updates["quote_valid_until"].(time.Time); ok {
		r.QuoteValidUntil = &v
	}
	f.rfqs[id] = r
	r.Items = f.items[id]
	return r, nil
}

func (f *fakeRFQs) DeleteWithItems(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete items")
	delete(f.items, id)
	if _, ok := f.rfqs[id]; !ok {
		return repository.ErrNotFound
	}
	f.ops = append(f.ops, "delete rfq")
	delete(f.rfqs, id)
	return nil
}

func (f *fakeRFQs) CountByStatus(_ context.Context, status models.RFQStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.rfqs {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeRFQs) CountByStatusSince(_ context.Context, status models.RFQStatus, _ time.Time) (int64, error) {
	if status == models.RFQRejected {
		return f.rejected, nil
	}
	return 0, nil
}

func (f *fakeRFQs) CountsByUser(context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, r := range f.rfqs {
		out[r.UserID]++
	}
	return out, nil
}

func (f *fakeRFQs) Recent(ctx context.Context, limit int) ([]models.RFQ, error) {
	all, _ := f.ListAll(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// seed stores r together with its items.
func (f *fakeRFQs) seed(r models.RFQ) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[r.ID] = r.Items
	r.Items = nil
	f.rfqs[r.ID] = r
}

type fakeOrders struct {
	mu        sync.Mutex
	rfqs      *fakeRFQs
	orders    map[string]models.Order
	highValue int64
	paid      decimal.Decimal
	active    int64
}

func newFakeOrders(rfqs *fakeRFQs) *fakeOrders {
	return &fakeOrders{rfqs: rfqs, orders: map[string]models.Order{}}
}

func (f *fakeOrders) CreateForAcceptedRFQ(_ context.Context, rfqID string, order *models.Order, items []models.OrderItem) error {
	f.rfqs.mu.Lock()
	r, ok := f.rfqs.rfqs[rfqID]
	if !ok || r.Status != models.RFQQuoted {
		f.rfqs.mu.Unlock()
		return repository.ErrConflict
	}
	r.Status = models.RFQAccepted
	f.rfqs.rfqs[rfqID] = r
	f.rfqs.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = uuid.NewString()
	order.RFQID = rfqID
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrders) ListAll(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	all, _ := f.ListAll(ctx)
	var out []models.Order
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) Update(_ context.Context, id string, updates map[string]any) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	if v, ok := updates["order_status"].(models.OrderStatus); ok {
		o.OrderStatus = v
	}
	if v, ok := updates["payment_status"].(models.PaymentStatus); ok {
		o.PaymentStatus = v
	}
	if v, ok := updates["paid_at"].(time.Time); ok {
		o.PaidAt = &v
	}
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrders) DeleteWithItems(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrders) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders)), nil
}

func (f *fakeOrders) CountSince(ctx context.Context, _ time.Time) (int64, error) {
	return f.Count(ctx)
}

func (f *fakeOrders) CountHighValueSince(context.Context, time.Time, decimal.Decimal) (int64, error) {
	return f.highValue, nil
}

func (f *fakeOrders) CountActiveUsersSince(context.Context, time.Time) (int64, error) {
	return f.active, nil
}

func (f *fakeOrders) SumPaid(context.Context) (decimal.Decimal, error) {
	return f.paid, nil
}

func (f *fakeOrders) CountsByUser(context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, o := range f.orders {
		out[o.UserID]++
	}
	return out, nil
}

func (f *fakeOrders) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	all, _ := f.ListAll(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type fakeProfiles struct {
	mu   sync.Mutex
	rows map[string]models.Profile
	err  error
}

func newFakeProfiles(ps ...models.Profile) *fakeProfiles {
	f := &fakeProfiles{rows: map[string]models.Profile{}}
	for _, p := range ps {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) Get(_ context.Context, id string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return models.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, id string, updates map[string]any) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return models.Profile{}, repository.ErrNotFound
	}
	if v, ok := updates["role"].(models.UserRole); ok {
		p.Role = v
	}
	p.UpdatedAt = time.Now()
	f.rows[id] = p
	return p, nil
}

func (f *fakeProfiles) List(context.Context) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Profile, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeProfiles) Recent(ctx context.Context, limit int) ([]models.Profile, error) {
	all, _ := f.List(ctx)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeProfiles) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.rows)), nil
}

func (f *fakeProfiles) CountByRole(_ context.Context, role models.UserRole) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.rows {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeProfiles) CountUpdatedSince(_ context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.rows {
		if !p.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
