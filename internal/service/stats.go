package service

import (
	"context"
	"fmt"
	"time"

	"crop-catch/internal/cache"
	"crop-catch/internal/models"
	"crop-catch/internal/session"

	"github.com/shopspring/decimal"
)

type Dashboard struct {
	TotalOrders    int64           `json:"total_orders"`
	PendingRFQs    int64           `json:"pending_rfqs"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	RevenueLabel   string          `json:"revenue_label"`
	ActiveProducts int64           `json:"active_products"`
}

type StatsService struct {
	products ProductStore
	rfqs     RFQStore
	orders   OrderStore
	admin    Admin
	cache    cache.Cache
	ttl      time.Duration
}

func NewStatsService(products ProductStore, rfqs RFQStore, orders OrderStore, admin Admin, c cache.Cache, ttl time.Duration) *StatsService {
	return &StatsService{products: products, rfqs: rfqs, orders: orders, admin: admin, cache: c, ttl: ttl}
}

// Dashboard counts are independent reads; they may disagree with each
// other by whatever changed between them.
func (s *StatsService) Dashboard(ctx context.Context, admin *session.Identity) (Dashboard, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return Dashboard{}, err
	}
	return cache.Remember(ctx, s.cache, cache.Key(keyAdminStats, "dashboard"), s.ttl, s.dashboard)
}

func (s *StatsService) dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("count orders: %w", err)
	}
	if d.PendingRFQs, err = s.rfqs.CountByStatus(ctx, models.RFQPending); err != nil {
		return Dashboard{}, fmt.Errorf("count pending rfqs: %w", err)
	}
	if d.TotalRevenue, err = s.orders.SumPaid(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("sum revenue: %w", err)
	}
	if d.ActiveProducts, err = s.products.CountAvailable(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("count products: %w", err)
	}
	d.RevenueLabel = "€" + d.TotalRevenue.StringFixed(2)
	return d, nil
}
