package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"crop-catch/internal/authz"
	"crop-catch/internal/cache"
	"crop-catch/internal/kv"
	"crop-catch/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onlyAdmin() *fakeAdmin {
	return &fakeAdmin{admins: map[string]bool{staff.ID: true}}
}

func TestProducts_ListIsCachedUntilWrite(t *testing.T) {
	store := newFakeProducts(product("p1", "Tomatoes", "2.50"))
	svc := NewProductService(store, onlyAdmin(), &fakeAudit{}, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	_, err := svc.List(ctx, ProductFilter{})
	require.NoError(t, err)
	_, err = svc.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)

	_, err = svc.Create(ctx, staff, ProductInput{Name: "Onions", Price: decimal.NewFromInt(3), Availability: true})
	require.NoError(t, err)

	got, err := svc.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
	assert.Len(t, got, 2)
}

func TestProducts_Validation(t *testing.T) {
	svc := NewProductService(newFakeProducts(), onlyAdmin(), &fakeAudit{}, nil, 0)
	ctx := context.Background()

	cases := map[string]ProductInput{
		"short name":     {Name: " a "},
		"negative price": {Name: "Leeks", Price: decimal.NewFromInt(-1)},
		"negative stock": {Name: "Leeks", Stock: -3},
	}
	for name, in := range cases {
		_, err := svc.Create(ctx, staff, in)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestProducts_AdminOnlyWrites(t *testing.T) {
	audit := &fakeAudit{}
	svc := NewProductService(newFakeProducts(), onlyAdmin(), audit, nil, 0)
	ctx := context.Background()

	_, err := svc.Create(ctx, customer, ProductInput{Name: "Leeks"})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)

	err = svc.Delete(ctx, nil, "p1")
	assert.ErrorIs(t, err, authz.ErrNotAuthenticated)
	assert.Empty(t, audit.entries)
}

func TestOrders_PaymentPaidStampsTime(t *testing.T) {
	rfqs := newFakeRFQs()
	orders := newFakeOrders(rfqs)
	orders.orders["o1"] = models.Order{ID: "o1", UserID: customer.ID, OrderStatus: models.OrderPendingPayment, PaymentStatus: models.PaymentPending}
	audit := &fakeAudit{}
	svc := NewOrderService(orders, onlyAdmin(), audit, nil, 0)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	o, err := svc.UpdatePaymentStatus(context.Background(), staff, "o1", models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	require.NotNil(t, o.PaidAt)
	assert.True(t, fixed.Equal(*o.PaidAt))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "payment", audit.entries[0].action)
}

func TestOrders_StatusTransitions(t *testing.T) {
	orders := newFakeOrders(newFakeRFQs())
	orders.orders["o1"] = models.Order{ID: "o1", OrderStatus: models.OrderDelivered, PaymentStatus: models.PaymentPaid}
	svc := NewOrderService(orders, onlyAdmin(), &fakeAudit{}, nil, 0)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, staff, "o1", models.OrderCancelled)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateStatus(ctx, staff, "o1", "lost")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdatePaymentStatus(ctx, staff, "o1", models.PaymentRefunded)
	assert.NoError(t, err)
}

func TestUsers_ListEnrichedWithCounts(t *testing.T) {
	now := time.Now()
	profiles := newFakeProfiles(
		models.Profile{ID: customer.ID, FullName: "Ana", Role: models.RoleUser, UpdatedAt: now},
		models.Profile{ID: staff.ID, FullName: "Root", Role: models.RoleAdmin, UpdatedAt: now.Add(-time.Hour)},
	)
	rfqs := newFakeRFQs()
	rfqs.seed(models.RFQ{ID: "r1", UserID: customer.ID, Status: models.RFQPending})
	rfqs.seed(models.RFQ{ID: "r2", UserID: customer.ID, Status: models.RFQPending})
	orders := newFakeOrders(rfqs)
	orders.orders["o1"] = models.Order{ID: "o1", UserID: customer.ID}

	svc := NewUserService(profiles, orders, rfqs, onlyAdmin(), &fakeAudit{}, nil, 0)
	users, err := svc.List(context.Background(), staff)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, customer.ID, users[0].ID)
	assert.Equal(t, int64(1), users[0].OrderCount)
	assert.Equal(t, int64(2), users[0].RFQCount)
	assert.Equal(t, int64(0), users[1].OrderCount)
}

func TestUsers_ProfileChangedDropsCachedList(t *testing.T) {
	profiles := newFakeProfiles(models.Profile{ID: customer.ID, FullName: "Ana", Role: models.RoleUser})
	svc := NewUserService(profiles, newFakeOrders(newFakeRFQs()), newFakeRFQs(), onlyAdmin(), &fakeAudit{}, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	_, err := svc.List(ctx, staff)
	require.NoError(t, err)

	profiles.rows[customer.ID] = models.Profile{ID: customer.ID, FullName: "Ana Farmer", Role: models.RoleUser}
	users, err := svc.List(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Ana", users[0].FullName)

	svc.ProfileChanged(ctx)
	users, err = svc.List(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Ana Farmer", users[0].FullName)
}

func TestUsers_UpdateRole(t *testing.T) {
	profiles := newFakeProfiles(
		models.Profile{ID: customer.ID, Role: models.RoleUser},
		models.Profile{ID: staff.ID, Role: models.RoleAdmin},
	)
	audit := &fakeAudit{}
	svc := NewUserService(profiles, newFakeOrders(newFakeRFQs()), newFakeRFQs(), onlyAdmin(), audit, nil, 0)
	var changed []string
	svc.OnRoleChange(func(id string) { changed = append(changed, id) })
	ctx := context.Background()

	p, err := svc.UpdateRole(ctx, staff, customer.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, []string{customer.ID}, changed)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "role_change", audit.entries[0].action)

	_, err = svc.UpdateRole(ctx, staff, staff.ID, models.RoleUser)
	assert.ErrorIs(t, err, ErrValidation, "self demotion")

	_, err = svc.UpdateRole(ctx, staff, customer.ID, "root")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, changed, 1)
}

func TestUsers_Stats(t *testing.T) {
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	profiles := newFakeProfiles(
		models.Profile{ID: "a", Role: models.RoleAdmin, UpdatedAt: now.AddDate(0, -2, 0)},
		models.Profile{ID: "b", Role: models.RoleUser, UpdatedAt: now.AddDate(0, 0, -3)},
		models.Profile{ID: "c", Role: models.RoleUser, UpdatedAt: now.AddDate(0, 0, -1)},
	)
	orders := newFakeOrders(newFakeRFQs())
	orders.active = 2
	svc := NewUserService(profiles, orders, newFakeRFQs(), onlyAdmin(), &fakeAudit{}, nil, 0)
	svc.now = func() time.Time { return now }

	st, err := svc.Stats(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, UserStats{TotalUsers: 3, AdminUsers: 1, RegularUsers: 2, NewUsersThisMonth: 2, ActiveUsers: 2}, st)
}

func TestSettings_MergeOverDefaults(t *testing.T) {
	store := kv.NewMemory()
	audit := &fakeAudit{}
	svc := NewSettingsService(store, onlyAdmin(), audit)
	ctx := context.Background()

	got, err := svc.Get(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Crop Catch", got["general"]["siteName"])
	assert.Equal(t, 20, got["business"]["taxRate"])

	_, err = svc.Update(ctx, staff, Settings{"general": {"siteName": "Crop Catch EU"}})
	require.NoError(t, err)

	got, err = svc.Get(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Crop Catch EU", got["general"]["siteName"])
	assert.Equal(t, "EUR", got["general"]["currency"], "untouched keys keep defaults")
	assert.Equal(t, false, got["inventory"]["allowBackorders"])
	assert.Len(t, audit.entries, 1)

	got, err = svc.Reset(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Crop Catch", got["general"]["siteName"])
	_, err = store.Get(ctx, settingsKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestSettings_RejectsUnknownSection(t *testing.T) {
	svc := NewSettingsService(kv.NewMemory(), onlyAdmin(), &fakeAudit{})

	_, err := svc.Update(context.Background(), staff, Settings{"shipping": {"zones": 3}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(context.Background(), customer, Settings{"general": {}})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
}

func TestSettings_CorruptSnapshotFallsBackToDefaults(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Put(context.Background(), settingsKey, []byte("{not json")))
	svc := NewSettingsService(store, onlyAdmin(), &fakeAudit{})

	got, err := svc.Get(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), got)
}

func TestSettings_Export(t *testing.T) {
	store := kv.NewMemory()
	svc := NewSettingsService(store, onlyAdmin(), &fakeAudit{})
	svc.now = func() time.Time { return time.Date(2026, 7, 4, 23, 0, 0, 0, time.UTC) }

	name, body, err := svc.Export(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, "crop-catch-settings-2026-07-04.json", name)
	assert.Contains(t, string(body), "\n  \"business\"")

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "info@cropcatch.com", decoded["general"]["contactEmail"])
}

func TestStats_Dashboard(t *testing.T) {
	products := newFakeProducts(product("p1", "Tomatoes", "2.50"), product("p2", "Onions", "1"))
	rfqs := newFakeRFQs()
	rfqs.seed(models.RFQ{ID: "r1", Status: models.RFQPending})
	rfqs.seed(models.RFQ{ID: "r2", Status: models.RFQQuoted})
	orders := newFakeOrders(rfqs)
	orders.orders["o1"] = models.Order{ID: "o1"}
	orders.paid = decimal.RequireFromString("1234.5")

	svc := NewStatsService(products, rfqs, orders, onlyAdmin(), cache.NewMemory(), time.Minute)
	d, err := svc.Dashboard(context.Background(), staff)
	require.NoError(t, err)

	assert.Equal(t, int64(1), d.TotalOrders)
	assert.Equal(t, int64(1), d.PendingRFQs)
	assert.Equal(t, int64(2), d.ActiveProducts)
	assert.Equal(t, "€1234.50", d.RevenueLabel)

	_, err = svc.Dashboard(context.Background(), customer)
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
}

func TestSecurity_Alerts(t *testing.T) {
	var admins []models.Profile
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		admins = append(admins, models.Profile{ID: id, Role: models.RoleAdmin})
	}
	rfqs := newFakeRFQs()
	rfqs.rejected = 6
	orders := newFakeOrders(rfqs)
	orders.highValue = 2

	svc := NewSecurityService(newFakeProfiles(admins...), rfqs, orders, onlyAdmin(), &fakeAudit{})
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC) }

	alerts, err := svc.Alerts(context.Background(), staff)
	require.NoError(t, err)

	var ids []string
	for _, a := range alerts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"admin-count", "high-value-orders", "rejected-rfqs", "peak-hours"}, ids)
	assert.Equal(t, LevelMedium, alerts[0].Level)
	assert.Equal(t, "access_control", alerts[0].Type)
	assert.Equal(t, LevelLow, alerts[2].Level)
}

func TestSecurity_QuietOffHours(t *testing.T) {
	svc := NewSecurityService(newFakeProfiles(), newFakeRFQs(), newFakeOrders(newFakeRFQs()), onlyAdmin(), &fakeAudit{})
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC) }

	alerts, err := svc.Alerts(context.Background(), staff)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSecurity_ActivityMergedNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	rfqs := newFakeRFQs()
	orders := newFakeOrders(rfqs)
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		orders.orders[id] = models.Order{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), TotalAmount: decimal.NewFromInt(10)}
	}
	rfqs.seed(models.RFQ{ID: "r1", Status: models.RFQPending, CreatedAt: base.Add(30 * time.Minute)})
	profiles := newFakeProfiles(models.Profile{ID: "u1", FullName: "Ana", Role: models.RoleUser, UpdatedAt: base.Add(-time.Hour)})
	audit := &fakeAudit{recent: []models.AuditLog{
		{ID: 7, CreatedAt: base.Add(45 * time.Minute), UserID: staff.ID, Entity: "product", Action: "create"},
	}}

	svc := NewSecurityService(profiles, rfqs, orders, onlyAdmin(), audit)
	feed, err := svc.Activity(context.Background(), staff)
	require.NoError(t, err)

	// 5 orders + 1 rfq + 1 profile + 1 audit entry
	require.Len(t, feed, 8)
	assert.Equal(t, "audit-7", feed[0].ID)
	assert.Equal(t, "rfq-r1", feed[1].ID)
	assert.Equal(t, "profile-u1", feed[7].ID)
	assert.Equal(t, "Unknown User", feed[2].User)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].Timestamp.After(feed[i-1].Timestamp))
	}
}

func TestSecurity_StatsPropagatesStoreError(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.err = errStoreDown
	svc := NewSecurityService(profiles, newFakeRFQs(), newFakeOrders(newFakeRFQs()), onlyAdmin(), &fakeAudit{})

	_, err := svc.Stats(context.Background(), staff)
	assert.ErrorIs(t, err, errStoreDown)
}
