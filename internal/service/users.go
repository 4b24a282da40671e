package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crop-catch/internal/cache"
	"crop-catch/internal/models"
	"crop-catch/internal/session"
)

type UserSummary struct {
	models.Profile
	OrderCount int64     `json:"order_count"`
	RFQCount   int64     `json:"rfq_count"`
	LastActive time.Time `json:"last_active"`
}

type UserStats struct {
	TotalUsers        int64 `json:"total_users"`
	AdminUsers        int64 `json:"admin_users"`
	RegularUsers      int64 `json:"regular_users"`
	NewUsersThisMonth int64 `json:"new_users_this_month"`
	ActiveUsers       int64 `json:"active_users"`
}

type UserService struct {
	profiles ProfileStore
	orders   OrderStore
	rfqs     RFQStore
	admin    Admin
	audit    Audit
	cache    cache.Cache
	ttl      time.Duration
	now      func() time.Time

	mu           sync.Mutex
	roleChangeFn []func(userID string)
}

func NewUserService(profiles ProfileStore, orders OrderStore, rfqs RFQStore, admin Admin, audit Audit, c cache.Cache, ttl time.Duration) *UserService {
	return &UserService{
		profiles: profiles,
		orders:   orders,
		rfqs:     rfqs,
		admin:    admin,
		audit:    audit,
		cache:    c,
		ttl:      ttl,
		now:      time.Now,
	}
}

// OnRoleChange registers fn to run after a role is changed.
func (s *UserService) OnRoleChange(fn func(userID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleChangeFn = append(s.roleChangeFn, fn)
}

// ProfileChanged drops cached user listings after a profile write made
// outside this service, such as the sign-in metadata upsert.
func (s *UserService) ProfileChanged(ctx context.Context) {
	cache.Invalidate(ctx, s.cache, keyUsers)
}

func (s *UserService) List(ctx context.Context, admin *session.Identity) ([]UserSummary, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.cache, cache.Key(keyUsers, "list"), s.ttl, s.list)
}

func (s *UserService) list(ctx context.Context) ([]UserSummary, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	orderCounts, err := s.orders.CountsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	rfqCounts, err := s.rfqs.CountsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("count rfqs: %w", err)
	}

	out := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, UserSummary{
			Profile:    p,
			OrderCount: orderCounts[p.ID],
			RFQCount:   rfqCounts[p.ID],
			LastActive: p.UpdatedAt,
		})
	}
	return out, nil
}

func (s *UserService) UpdateRole(ctx context.Context, admin *session.Identity, userID string, role models.UserRole) (models.Profile, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return models.Profile{}, err
	}
	if !role.Valid() {
		return models.Profile{}, invalid("unknown role %q", role)
	}
	if userID == admin.ID && role != models.RoleAdmin {
		return models.Profile{}, invalid("admins cannot remove their own admin role")
	}

	p, err := s.profiles.Update(ctx, userID, map[string]any{"role": role})
	if err != nil {
		return models.Profile{}, fmt.Errorf("update role: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "profile", userID, "role_change", "role set to "+string(role))
	cache.Invalidate(ctx, s.cache, keyUsers)

	s.mu.Lock()
	hooks := append([]func(string){}, s.roleChangeFn...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(userID)
	}
	return p, nil
}

func (s *UserService) Stats(ctx context.Context, admin *session.Identity) (UserStats, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return UserStats{}, err
	}

	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var st UserStats
	var err error
	if st.TotalUsers, err = s.profiles.Count(ctx); err != nil {
		return UserStats{}, fmt.Errorf("count users: %w", err)
	}
	if st.AdminUsers, err = s.profiles.CountByRole(ctx, models.RoleAdmin); err != nil {
		return UserStats{}, fmt.Errorf("count admins: %w", err)
	}
	if st.NewUsersThisMonth, err = s.profiles.CountUpdatedSince(ctx, startOfMonth); err != nil {
		return UserStats{}, fmt.Errorf("count new users: %w", err)
	}
	if st.ActiveUsers, err = s.orders.CountActiveUsersSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return UserStats{}, fmt.Errorf("count active users: %w", err)
	}
	st.RegularUsers = st.TotalUsers - st.AdminUsers
	return st, nil
}
