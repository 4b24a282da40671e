// Package service holds the resource operations behind the HTTP API.
//
// Every admin operation first passes the shared admin capability. Reads
// are served through the query cache; writes invalidate the affected key
// prefixes. Aggregates (dashboard, user and security stats) are built from
// independent snapshot reads and are eventually consistent, never
// transactional.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crop-catch/internal/authz"
	"crop-catch/internal/cart"
	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// cache key prefixes
const (
	keyProducts   = "products"
	keyRFQs       = "rfqs"
	keyOrders     = "orders"
	keyUsers      = "users"
	keyAdminStats = "admin-stats"
)

// Admin is the shared admin capability (authz.Capability).
type Admin interface {
	RequireAdmin(ctx context.Context, id *session.Identity) error
}

type Audit interface {
	Record(ctx context.Context, userID, entity, entityID, action, details string)
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// Cart is the part of a cart store an RFQ submission needs.
type Cart interface {
	Lines() []cart.Line
	Discard(lines []cart.Line)
}

type ProductStore interface {
	List(ctx context.Context, f repository.ProductFilter) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id string, updates map[string]any) (models.Product, error)
	Delete(ctx context.Context, id string) error
	CountAvailable(ctx context.Context) (int64, error)
}

type RFQStore interface {
	CreateWithItems(ctx context.Context, rfq *models.RFQ, items []models.RFQItem) error
	ListAll(ctx context.Context) ([]models.RFQ, error)
	ListByUser(ctx context.Context, userID string) ([]models.RFQ, error)
	Get(ctx context.Context, id string) (models.RFQ, error)
	Update(ctx context.Context, id string, updates map[string]any) (models.RFQ, error)
	DeleteWithItems(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status models.RFQStatus) (int64, error)
	CountByStatusSince(ctx context.Context, status models.RFQStatus, since time.Time) (int64, error)
	CountsByUser(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, limit int) ([]models.RFQ, error)
}

type OrderStore interface {
	CreateForAcceptedRFQ(ctx context.Context, rfqID string, order *models.Order, items []models.OrderItem) error
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	Get(ctx context.Context, id string) (models.Order, error)
	Update(ctx context.Context, id string, updates map[string]any) (models.Order, error)
	DeleteWithItems(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountHighValueSince(ctx context.Context, since time.Time, threshold decimal.Decimal) (int64, error)
	CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error)
	SumPaid(ctx context.Context) (decimal.Decimal, error)
	CountsByUser(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}

type ProfileStore interface {
	Get(ctx context.Context, id string) (models.Profile, error)
	Update(ctx context.Context, id string, updates map[string]any) (models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Recent(ctx context.Context, limit int) ([]models.Profile, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	CountUpdatedSince(ctx context.Context, since time.Time) (int64, error)
}

func requireIdentity(id *session.Identity) error {
	if id == nil {
		return authz.ErrNotAuthenticated
	}
	return nil
}
