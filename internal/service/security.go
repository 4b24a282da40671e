package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"crop-catch/internal/models"
	"crop-catch/internal/session"

	"github.com/shopspring/decimal"
)

type AlertLevel string

const (
	LevelInfo   AlertLevel = "info"
	LevelLow    AlertLevel = "low"
	LevelMedium AlertLevel = "medium"
)

type Alert struct {
	ID        string     `json:"id"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Type      string     `json:"type"`
}

type Activity struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Details   string    `json:"details"`
	Type      string    `json:"type"`
}

type SecurityStats struct {
	TotalUsers       int64     `json:"total_users"`
	AdminUsers       int64     `json:"admin_users"`
	RecentOrders     int64     `json:"recent_orders"`
	PendingRFQs      int64     `json:"pending_rfqs"`
	LastSecurityScan time.Time `json:"last_security_scan"`
}

// thresholds for Alerts
const (
	maxAdmins          = 3
	maxRejectedPerDay  = 5
	peakHourStart      = 9
	peakHourEnd        = 17
	activityFeedLength = 10
)

var highValueOrder = decimal.NewFromInt(1000)

type SecurityService struct {
	profiles ProfileStore
	rfqs     RFQStore
	orders   OrderStore
	admin    Admin
	audit    Audit
	now      func() time.Time
}

func NewSecurityService(profiles ProfileStore, rfqs RFQStore, orders OrderStore, admin Admin, audit Audit) *SecurityService {
	return &SecurityService{profiles: profiles, rfqs: rfqs, orders: orders, admin: admin, audit: audit, now: time.Now}
}

func (s *SecurityService) Alerts(ctx context.Context, admin *session.Identity) ([]Alert, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}

	now := s.now()
	dayAgo := now.Add(-24 * time.Hour)
	var alerts []Alert

	admins, err := s.profiles.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if admins > maxAdmins {
		alerts = append(alerts, Alert{
			ID:        "admin-count",
			Level:     LevelMedium,
			Message:   fmt.Sprintf("%d admin users detected - consider reviewing admin access", admins),
			Timestamp: now,
			Type:      "access_control",
		})
	}

	highValue, err := s.orders.CountHighValueSince(ctx, dayAgo, highValueOrder)
	if err != nil {
		return nil, fmt.Errorf("count high-value orders: %w", err)
	}
	if highValue > 0 {
		alerts = append(alerts, Alert{
			ID:        "high-value-orders",
			Level:     LevelMedium,
			Message:   fmt.Sprintf("%d high-value orders (>€1000) in last 24 hours", highValue),
			Timestamp: now,
			Type:      "transaction",
		})
	}

	rejected, err := s.rfqs.CountByStatusSince(ctx, models.RFQRejected, dayAgo)
	if err != nil {
		return nil, fmt.Errorf("count rejected rfqs: %w", err)
	}
	if rejected > maxRejectedPerDay {
		alerts = append(alerts, Alert{
			ID:        "rejected-rfqs",
			Level:     LevelLow,
			Message:   fmt.Sprintf("%d RFQs rejected in last 24 hours", rejected),
			Timestamp: now,
			Type:      "content",
		})
	}

	if h := now.Hour(); h >= peakHourStart && h <= peakHourEnd {
		alerts = append(alerts, Alert{
			ID:        "peak-hours",
			Level:     LevelInfo,
			Message:   "Peak business hours - monitoring increased activity",
			Timestamp: now,
			Type:      "system",
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
	return alerts, nil
}

// Activity merges recent orders, RFQs, profile updates and audit entries
// into one feed, newest first.
func (s *SecurityService) Activity(ctx context.Context, admin *session.Identity) ([]Activity, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}

	orders, err := s.orders.Recent(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	rfqs, err := s.rfqs.Recent(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("recent rfqs: %w", err)
	}
	profiles, err := s.profiles.Recent(ctx, 3)
	if err != nil {
		return nil, fmt.Errorf("recent profiles: %w", err)
	}
	entries, err := s.audit.Recent(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("recent audit entries: %w", err)
	}

	feed := make([]Activity, 0, len(orders)+len(rfqs)+len(profiles)+len(entries))
	for _, o := range orders {
		feed = append(feed, Activity{
			ID:        "order-" + o.ID,
			Timestamp: o.CreatedAt,
			Action:    "Order Created",
			User:      displayName(o.Profile),
			Details:   "€" + o.TotalAmount.StringFixed(2),
			Type:      "order",
		})
	}
	for _, r := range rfqs {
		feed = append(feed, Activity{
			ID:        "rfq-" + r.ID,
			Timestamp: r.CreatedAt,
			Action:    "RFQ Submitted",
			User:      displayName(r.Profile),
			Details:   "Status: " + string(r.Status),
			Type:      "rfq",
		})
	}
	for i := range profiles {
		p := profiles[i]
		feed = append(feed, Activity{
			ID:        "profile-" + p.ID,
			Timestamp: p.UpdatedAt,
			Action:    "Profile Updated",
			User:      displayName(&p),
			Details:   "Role: " + string(p.Role),
			Type:      "profile",
		})
	}
	for _, e := range entries {
		feed = append(feed, Activity{
			ID:        fmt.Sprintf("audit-%d", e.ID),
			Timestamp: e.CreatedAt,
			Action:    e.Entity + " " + e.Action,
			User:      e.UserID,
			Details:   e.Details,
			Type:      "admin",
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	if len(feed) > activityFeedLength {
		feed = feed[:activityFeedLength]
	}
	return feed, nil
}

func (s *SecurityService) Stats(ctx context.Context, admin *session.Identity) (SecurityStats, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return SecurityStats{}, err
	}

	now := s.now()
	st := SecurityStats{LastSecurityScan: now.UTC()}
	var err error
	if st.TotalUsers, err = s.profiles.Count(ctx); err != nil {
		return SecurityStats{}, fmt.Errorf("count users: %w", err)
	}
	if st.AdminUsers, err = s.profiles.CountByRole(ctx, models.RoleAdmin); err != nil {
		return SecurityStats{}, fmt.Errorf("count admins: %w", err)
	}
	if st.RecentOrders, err = s.orders.CountSince(ctx, now.Add(-24*time.Hour)); err != nil {
		return SecurityStats{}, fmt.Errorf("count recent orders: %w", err)
	}
	if st.PendingRFQs, err = s.rfqs.CountByStatus(ctx, models.RFQPending); err != nil {
		return SecurityStats{}, fmt.Errorf("count pending rfqs: %w", err)
	}
	return st, nil
}

func displayName(p *models.Profile) string {
	if p == nil || p.FullName == "" {
		return "Unknown User"
	}
	return p.FullName
}
