package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crop-catch/internal/cache"
	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"github.com/shopspring/decimal"
)

type QuoteInput struct {
	Status            models.RFQStatus `json:"status"`
	QuotedPrice       *decimal.Decimal `json:"quoted_price"`
	ShippingCost      *decimal.Decimal `json:"shipping_cost"`
	AdminNotes        *string          `json:"admin_notes"`
	ValidUntil        *time.Time       `json:"quote_valid_until"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery"`
}

type QuoteResponse struct {
	RFQ   models.RFQ    `json:"rfq"`
	Order *models.Order `json:"order,omitempty"`
}

type RFQService struct {
	rfqs   RFQStore
	orders OrderStore
	admin  Admin
	audit  Audit
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewRFQService(rfqs RFQStore, orders OrderStore, admin Admin, audit Audit, c cache.Cache, ttl time.Duration) *RFQService {
	return &RFQService{rfqs: rfqs, orders: orders, admin: admin, audit: audit, cache: c, ttl: ttl, now: time.Now}
}

// Submit turns the cart into a pending RFQ. The submitted lines leave the
// cart only once the RFQ and all of its items are stored.
func (s *RFQService) Submit(ctx context.Context, id *session.Identity, c Cart, notes string) (models.RFQ, error) {
	if err := requireIdentity(id); err != nil {
		return models.RFQ{}, err
	}
	lines := c.Lines()
	if len(lines) == 0 {
		return models.RFQ{}, invalid("cart is empty")
	}

	rfq := models.RFQ{
		UserID: id.ID,
		Status: models.RFQPending,
		Notes:  strings.TrimSpace(notes),
	}
	items := make([]models.RFQItem, 0, len(lines))
	for _, l := range lines {
		productID := l.Product.ID
		items = append(items, models.RFQItem{
			ProductID:          &productID,
			ProductName:        l.Product.Name,
			ProductUnit:        l.Product.Unit,
			Quantity:           l.Quantity,
			UnitPriceAtRequest: l.Product.Price,
		})
	}

	if err := s.rfqs.CreateWithItems(ctx, &rfq, items); err != nil {
		return models.RFQ{}, fmt.Errorf("submit rfq: %w", err)
	}
	c.Discard(lines)

	cache.Invalidate(ctx, s.cache, keyRFQs, keyUsers, keyAdminStats)
	return rfq, nil
}

func (s *RFQService) ListMine(ctx context.Context, id *session.Identity) ([]models.RFQ, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.cache, cache.Key(keyRFQs, "user", id.ID), s.ttl,
		func(ctx context.Context) ([]models.RFQ, error) {
			return s.rfqs.ListByUser(ctx, id.ID)
		})
}

// GetMine returns one of the caller's RFQs. Other users' RFQs are reported
// as not found.
func (s *RFQService) GetMine(ctx context.Context, id *session.Identity, rfqID string) (models.RFQ, error) {
	if err := requireIdentity(id); err != nil {
		return models.RFQ{}, err
	}
	rfq, err := s.rfqs.Get(ctx, rfqID)
	if err != nil {
		return models.RFQ{}, err
	}
	if rfq.UserID != id.ID {
		return models.RFQ{}, repository.ErrNotFound
	}
	return rfq, nil
}

// RespondToQuote lets the customer accept or reject a quoted RFQ.
// Accepting creates the order in the same transaction.
func (s *RFQService) RespondToQuote(ctx context.Context, id *session.Identity, rfqID string, accept bool) (QuoteResponse, error) {
	rfq, err := s.GetMine(ctx, id, rfqID)
	if err != nil {
		return QuoteResponse{}, err
	}
	if rfq.Status != models.RFQQuoted {
		return QuoteResponse{}, fmt.Errorf("%w: rfq is %s, not quoted", ErrConflict, rfq.Status)
	}
	if rfq.QuoteValidUntil != nil && s.now().After(*rfq.QuoteValidUntil) {
		return QuoteResponse{}, fmt.Errorf("%w: quote expired on %s", ErrConflict, rfq.QuoteValidUntil.Format("2006-01-02"))
	}

	defer cache.Invalidate(ctx, s.cache, keyRFQs, keyOrders, keyUsers, keyAdminStats)

	if !accept {
		updated, err := s.rfqs.Update(ctx, rfqID, map[string]any{"status": models.RFQRejected})
		if err != nil {
			return QuoteResponse{}, fmt.Errorf("reject quote: %w", err)
		}
		return QuoteResponse{RFQ: updated}, nil
	}

	order := models.Order{
		UserID:        rfq.UserID,
		OrderStatus:   models.OrderPendingPayment,
		PaymentStatus: models.PaymentPending,
		TotalAmount:   rfq.Total(),
	}
	items := make([]models.OrderItem, 0, len(rfq.Items))
	for _, it := range rfq.Items {
		items = append(items, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductUnit: it.ProductUnit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPriceAtRequest,
		})
	}

	if err := s.orders.CreateForAcceptedRFQ(ctx, rfqID, &order, items); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return QuoteResponse{}, fmt.Errorf("%w: quote was already answered", ErrConflict)
		}
		return QuoteResponse{}, fmt.Errorf("accept quote: %w", err)
	}

	rfq.Status = models.RFQAccepted
	return QuoteResponse{RFQ: rfq, Order: &order}, nil
}

func (s *RFQService) ListAll(ctx context.Context, admin *session.Identity) ([]models.RFQ, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.cache, cache.Key(keyRFQs, "all"), s.ttl, s.rfqs.ListAll)
}

// Quote sets an RFQ's status and, when given, its price terms. Acceptance
// is left to the customer so that an order always follows it.
func (s *RFQService) Quote(ctx context.Context, admin *session.Identity, rfqID string, in QuoteInput) (models.RFQ, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return models.RFQ{}, err
	}
	if !in.Status.Valid() {
		return models.RFQ{}, invalid("unknown rfq status %q", in.Status)
	}
	if in.Status == models.RFQAccepted {
		return models.RFQ{}, invalid("only the customer can accept a quote")
	}
	for _, d := range []*decimal.Decimal{in.QuotedPrice, in.ShippingCost} {
		if d != nil && d.IsNegative() {
			return models.RFQ{}, invalid("amounts cannot be negative")
		}
	}

	current, err := s.rfqs.Get(ctx, rfqID)
	if err != nil {
		return models.RFQ{}, err
	}
	if err := current.Status.CanTransitionTo(in.Status); err != nil {
		return models.RFQ{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if in.Status == models.RFQQuoted && in.QuotedPrice == nil && !current.QuotedPrice.Valid {
		return models.RFQ{}, invalid("a quote needs a quoted price")
	}

	updates := map[string]any{"status": in.Status}
	if in.AdminNotes != nil {
		updates["admin_notes"] = strings.TrimSpace(*in.AdminNotes)
	}
	if in.QuotedPrice != nil {
		updates["quoted_price"] = decimal.NewNullDecimal(*in.QuotedPrice)
		updates["quoted_at"] = s.now().UTC()
		updates["quote_responded_by"] = admin.ID
	}
	if in.ShippingCost != nil {
		updates["shipping_cost"] = decimal.NewNullDecimal(*in.ShippingCost)
	}
	if in.ValidUntil != nil {
		updates["quote_valid_until"] = in.ValidUntil.UTC()
	}
	if in.EstimatedDelivery != nil {
		updates["estimated_delivery"] = in.EstimatedDelivery.UTC()
	}

	rfq, err := s.rfqs.Update(ctx, rfqID, updates)
	if err != nil {
		return models.RFQ{}, fmt.Errorf("quote rfq: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "rfq", rfqID, string(in.Status), quoteDetails(in))
	cache.Invalidate(ctx, s.cache, keyRFQs, keyUsers, keyAdminStats)
	return rfq, nil
}

func quoteDetails(in QuoteInput) string {
	if in.QuotedPrice == nil {
		return ""
	}
	return "quoted €" + in.QuotedPrice.StringFixed(2)
}

// Delete removes an RFQ and its items, items first.
func (s *RFQService) Delete(ctx context.Context, admin *session.Identity, rfqID string) error {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.rfqs.DeleteWithItems(ctx, rfqID); err != nil {
		return fmt.Errorf("delete rfq: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "rfq", rfqID, "delete", "")
	cache.Invalidate(ctx, s.cache, keyRFQs, keyUsers, keyAdminStats)
	return nil
}
