package service

import (
	"context"
	"testing"
	"time"

	"crop-catch/internal/authz"
	"crop-catch/internal/cache"
	"crop-catch/internal/cart"
	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	customer = &session.Identity{ID: "user-1", Email: "buyer@example.com"}
	staff    = &session.Identity{ID: "admin-1", Email: "admin@example.com"}
)

func product(id, name, price string) models.Product {
	return models.Product{ID: id, Name: name, Unit: "kg", Price: decimal.RequireFromString(price), Availability: true}
}

type rfqFixture struct {
	svc    *RFQService
	rfqs   *fakeRFQs
	orders *fakeOrders
	audit  *fakeAudit
}

func newRFQFixture() rfqFixture {
	rfqs := newFakeRFQs()
	orders := newFakeOrders(rfqs)
	audit := &fakeAudit{}
	admin := &fakeAdmin{admins: map[string]bool{staff.ID: true}}
	return rfqFixture{
		svc:    NewRFQService(rfqs, orders, admin, audit, cache.NewMemory(), time.Minute),
		rfqs:   rfqs,
		orders: orders,
		audit:  audit,
	}
}

func TestSubmit_CreatesRFQWithItemsAndClearsCart(t *testing.T) {
	f := newRFQFixture()
	c := cart.NewStore()
	c.AddItem(product("p1", "Tomatoes", "2.50"))
	c.AddItem(product("p1", "Tomatoes", "2.50"))
	c.AddItem(product("p2", "Onions", "4.20"))

	rfq, err := f.svc.Submit(context.Background(), customer, c, "  deliver Monday ")
	require.NoError(t, err)

	assert.Equal(t, models.RFQPending, rfq.Status)
	assert.Equal(t, "deliver Monday", rfq.Notes)
	assert.Len(t, f.rfqs.rfqs, 1)
	require.Len(t, f.rfqs.items[rfq.ID], 2)

	first := f.rfqs.items[rfq.ID][0]
	assert.Equal(t, "Tomatoes", first.ProductName)
	assert.Equal(t, 2, first.Quantity)
	assert.True(t, decimal.RequireFromString("2.50").Equal(first.UnitPriceAtRequest))
	assert.Equal(t, 0, c.TotalItems())
}

func TestSubmit_KeepsCartWhenStoreFails(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.failItems = true
	c := cart.NewStore()
	c.AddItem(product("p1", "Tomatoes", "2.50"))

	_, err := f.svc.Submit(context.Background(), customer, c, "")
	require.ErrorIs(t, err, errStoreDown)

	assert.Empty(t, f.rfqs.rfqs)
	assert.Equal(t, 1, c.TotalItems())
}

func TestSubmit_KeepsItemsAddedDuringInsert(t *testing.T) {
	f := newRFQFixture()
	c := cart.NewStore()
	c.AddItem(product("p1", "Tomatoes", "2.50"))
	f.rfqs.onCreate = func() {
		c.AddItem(product("p1", "Tomatoes", "2.50"))
		c.AddItem(product("p2", "Onions", "4.20"))
	}

	rfq, err := f.svc.Submit(context.Background(), customer, c, "")
	require.NoError(t, err)
	require.Len(t, f.rfqs.items[rfq.ID], 1)
	assert.Equal(t, 1, f.rfqs.items[rfq.ID][0].Quantity)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].Product.ID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "p2", lines[1].Product.ID)
}

func TestSubmit_RefreshesUserCounts(t *testing.T) {
	rfqs := newFakeRFQs()
	orders := newFakeOrders(rfqs)
	c := cache.NewMemory()
	users := NewUserService(newFakeProfiles(models.Profile{ID: customer.ID, Role: models.RoleUser}), orders, rfqs, onlyAdmin(), &fakeAudit{}, c, time.Minute)
	svc := NewRFQService(rfqs, orders, onlyAdmin(), &fakeAudit{}, c, time.Minute)
	ctx := context.Background()

	list, err := users.List(ctx, staff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(0), list[0].RFQCount)

	cartStore := cart.NewStore()
	cartStore.AddItem(product("p1", "Tomatoes", "2.50"))
	_, err = svc.Submit(ctx, customer, cartStore, "")
	require.NoError(t, err)

	list, err = users.List(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list[0].RFQCount)
}

func TestSubmit_EmptyCartOrAnonymous(t *testing.T) {
	f := newRFQFixture()

	_, err := f.svc.Submit(context.Background(), customer, cart.NewStore(), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Submit(context.Background(), nil, cart.NewStore(), "")
	assert.ErrorIs(t, err, authz.ErrNotAuthenticated)
}

func TestGetMine_HidesOtherUsersRFQs(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.seed(models.RFQ{ID: "rfq-1", UserID: "someone-else", Status: models.RFQPending})

	_, err := f.svc.GetMine(context.Background(), customer, "rfq-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func quotedRFQ() models.RFQ {
	pid := "p1"
	return models.RFQ{
		ID:           "rfq-1",
		UserID:       customer.ID,
		Status:       models.RFQQuoted,
		QuotedPrice:  decimal.NewNullDecimal(decimal.RequireFromString("100.00")),
		ShippingCost: decimal.NewNullDecimal(decimal.RequireFromString("9.50")),
		Items: []models.RFQItem{{
			ID: "item-1", RFQID: "rfq-1", ProductID: &pid, ProductName: "Tomatoes",
			ProductUnit: "kg", Quantity: 40, UnitPriceAtRequest: decimal.RequireFromString("2.50"),
		}},
	}
}

func TestRespondToQuote_AcceptCreatesOrder(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.seed(quotedRFQ())

	resp, err := f.svc.RespondToQuote(context.Background(), customer, "rfq-1", true)
	require.NoError(t, err)
	require.NotNil(t, resp.Order)

	assert.Equal(t, models.RFQAccepted, resp.RFQ.Status)
	assert.Equal(t, models.RFQAccepted, f.rfqs.rfqs["rfq-1"].Status)
	assert.Equal(t, "rfq-1", resp.Order.RFQID)
	assert.Equal(t, models.OrderPendingPayment, resp.Order.OrderStatus)
	assert.True(t, decimal.RequireFromString("109.50").Equal(resp.Order.TotalAmount))
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, 40, resp.Order.Items[0].Quantity)

	// a second answer is a conflict
	_, err = f.svc.RespondToQuote(context.Background(), customer, "rfq-1", true)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRespondToQuote_Reject(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.seed(quotedRFQ())

	resp, err := f.svc.RespondToQuote(context.Background(), customer, "rfq-1", false)
	require.NoError(t, err)
	assert.Nil(t, resp.Order)
	assert.Equal(t, models.RFQRejected, resp.RFQ.Status)
	assert.Empty(t, f.orders.orders)
}

func TestRespondToQuote_Expired(t *testing.T) {
	f := newRFQFixture()
	r := quotedRFQ()
	yesterday := time.Now().Add(-24 * time.Hour)
	r.QuoteValidUntil = &yesterday
	f.rfqs.seed(r)

	_, err := f.svc.RespondToQuote(context.Background(), customer, "rfq-1", true)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.orders.orders)
}

func TestQuote_SetsPriceAndAudits(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.seed(models.RFQ{ID: "rfq-1", UserID: customer.ID, Status: models.RFQPending})
	price := decimal.RequireFromString("250.00")
	notes := " fresh harvest "

	rfq, err := f.svc.Quote(context.Background(), staff, "rfq-1", QuoteInput{
		Status:      models.RFQQuoted,
		QuotedPrice: &price,
		AdminNotes:  &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RFQQuoted, rfq.Status)
	assert.True(t, price.Equal(rfq.QuotedPrice.Decimal))
	assert.Equal(t, "fresh harvest", rfq.AdminNotes)
	require.NotNil(t, rfq.QuotedAt)
	require.NotNil(t, rfq.QuoteRespondedBy)
	assert.Equal(t, staff.ID, *rfq.QuoteRespondedBy)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "rfq", f.audit.entries[0].entity)
}

func TestQuote_Rejections(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.seed(models.RFQ{ID: "rfq-1", UserID: customer.ID, Status: models.RFQPending})
	ctx := context.Background()
	negative := decimal.NewFromInt(-1)

	_, err := f.svc.Quote(ctx, customer, "rfq-1", QuoteInput{Status: models.RFQQuoted})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)

	_, err = f.svc.Quote(ctx, staff, "rfq-1", QuoteInput{Status: models.RFQAccepted})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Quote(ctx, staff, "rfq-1", QuoteInput{Status: models.RFQQuoted})
	assert.ErrorIs(t, err, ErrValidation, "quote without price")

	_, err = f.svc.Quote(ctx, staff, "rfq-1", QuoteInput{Status: models.RFQQuoted, QuotedPrice: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Quote(ctx, staff, "rfq-1", QuoteInput{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Quote(ctx, staff, "missing", QuoteInput{Status: models.RFQRejected})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	f.rfqs.seed(models.RFQ{ID: "rfq-2", UserID: customer.ID, Status: models.RFQRejected})
	_, err = f.svc.Quote(ctx, staff, "rfq-2", QuoteInput{Status: models.RFQPending})
	assert.ErrorIs(t, err, ErrValidation)
	var te *models.TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestDelete_RemovesItemsBeforeRFQ(t *testing.T) {
	f := newRFQFixture()
	f.rfqs.seed(quotedRFQ())

	require.NoError(t, f.svc.Delete(context.Background(), staff, "rfq-1"))

	assert.Equal(t, []string{"delete items", "delete rfq"}, f.rfqs.ops)
	assert.Empty(t, f.rfqs.rfqs)
	assert.Empty(t, f.rfqs.items)
}

func TestListMine_InvalidatedBySubmit(t *testing.T) {
	f := newRFQFixture()
	ctx := context.Background()

	mine, err := f.svc.ListMine(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, mine)

	c := cart.NewStore()
	c.AddItem(product("p1", "Tomatoes", "2.50"))
	_, err = f.svc.Submit(ctx, customer, c, "")
	require.NoError(t, err)

	mine, err = f.svc.ListMine(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
