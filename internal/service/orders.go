package service

import (
	"context"
	"fmt"
	"time"

	"crop-catch/internal/cache"
	"crop-catch/internal/models"
	"crop-catch/internal/session"
)

type OrderService struct {
	orders OrderStore
	admin  Admin
	audit  Audit
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewOrderService(orders OrderStore, admin Admin, audit Audit, c cache.Cache, ttl time.Duration) *OrderService {
	return &OrderService{orders: orders, admin: admin, audit: audit, cache: c, ttl: ttl, now: time.Now}
}

func (s *OrderService) ListMine(ctx context.Context, id *session.Identity) ([]models.Order, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.cache, cache.Key(keyOrders, "user", id.ID), s.ttl,
		func(ctx context.Context) ([]models.Order, error) {
			return s.orders.ListByUser(ctx, id.ID)
		})
}

func (s *OrderService) ListAll(ctx context.Context, admin *session.Identity) ([]models.Order, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.cache, cache.Key(keyOrders, "all"), s.ttl, s.orders.ListAll)
}

func (s *OrderService) UpdateStatus(ctx context.Context, admin *session.Identity, orderID string, status models.OrderStatus) (models.Order, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return models.Order{}, err
	}
	if !status.Valid() {
		return models.Order{}, invalid("unknown order status %q", status)
	}

	current, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err := current.OrderStatus.CanTransitionTo(status); err != nil {
		return models.Order{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	o, err := s.orders.Update(ctx, orderID, map[string]any{"order_status": status})
	if err != nil {
		return models.Order{}, fmt.Errorf("update order status: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "order", orderID, "status", string(current.OrderStatus)+" -> "+string(status))
	cache.Invalidate(ctx, s.cache, keyOrders, keyUsers, keyAdminStats)
	return o, nil
}

// UpdatePaymentStatus records a payment state change; paid_at is stamped
// when the order becomes paid.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, admin *session.Identity, orderID string, status models.PaymentStatus) (models.Order, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return models.Order{}, err
	}
	if !status.Valid() {
		return models.Order{}, invalid("unknown payment status %q", status)
	}

	current, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err := current.PaymentStatus.CanTransitionTo(status); err != nil {
		return models.Order{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	updates := map[string]any{"payment_status": status}
	if status == models.PaymentPaid {
		updates["paid_at"] = s.now().UTC()
	}
	o, err := s.orders.Update(ctx, orderID, updates)
	if err != nil {
		return models.Order{}, fmt.Errorf("update payment status: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "order", orderID, "payment", string(current.PaymentStatus)+" -> "+string(status))
	cache.Invalidate(ctx, s.cache, keyOrders, keyUsers, keyAdminStats)
	return o, nil
}

// Delete removes an order and its items, items first.
func (s *OrderService) Delete(ctx context.Context, admin *session.Identity, orderID string) error {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.orders.DeleteWithItems(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "order", orderID, "delete", "")
	cache.Invalidate(ctx, s.cache, keyOrders, keyUsers, keyAdminStats)
	return nil
}
