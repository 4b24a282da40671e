package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crop-catch/internal/cache"
	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"github.com/shopspring/decimal"
)

type ProductFilter = repository.ProductFilter

type ProductInput struct {
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	CountryOfOrigin string          `json:"country_of_origin"`
	Price           decimal.Decimal `json:"price"`
	Unit            string          `json:"unit"`
	Stock           int             `json:"stock"`
	Availability    bool            `json:"availability"`
	ImageURL        string          `json:"image_url"`
	Description     string          `json:"description"`
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if len([]rune(in.Name)) < 2 {
		return invalid("product name must be at least 2 characters")
	}
	if in.Price.IsNegative() {
		return invalid("price must be positive")
	}
	if in.Stock < 0 {
		return invalid("stock cannot be negative")
	}
	return nil
}

type ProductService struct {
	store ProductStore
	admin Admin
	audit Audit
	cache cache.Cache
	ttl   time.Duration
}

func NewProductService(store ProductStore, admin Admin, audit Audit, c cache.Cache, ttl time.Duration) *ProductService {
	return &ProductService{store: store, admin: admin, audit: audit, cache: c, ttl: ttl}
}

func filterKey(f ProductFilter) string {
	return fmt.Sprintf("%s|%s|%s|%t", strings.ToLower(strings.TrimSpace(f.Search)), f.Category, f.Origin, f.AvailableOnly)
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	return cache.Remember(ctx, s.cache, cache.Key(keyProducts, "list", filterKey(f)), s.ttl,
		func(ctx context.Context) ([]models.Product, error) {
			return s.store.List(ctx, f)
		})
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	return cache.Remember(ctx, s.cache, cache.Key(keyProducts, "id", id), s.ttl,
		func(ctx context.Context) (models.Product, error) {
			return s.store.Get(ctx, id)
		})
}

func (s *ProductService) Create(ctx context.Context, admin *session.Identity, in ProductInput) (models.Product, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return models.Product{}, err
	}
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	p := models.Product{
		Name:            in.Name,
		Category:        in.Category,
		CountryOfOrigin: in.CountryOfOrigin,
		Price:           in.Price,
		Unit:            in.Unit,
		Stock:           in.Stock,
		Availability:    in.Availability,
		ImageURL:        in.ImageURL,
		Description:     in.Description,
	}
	if err := s.store.Create(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "product", p.ID, "create", p.Name)
	cache.Invalidate(ctx, s.cache, keyProducts, keyAdminStats)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, admin *session.Identity, id string, in ProductInput) (models.Product, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return models.Product{}, err
	}
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	p, err := s.store.Update(ctx, id, map[string]any{
		"name":              in.Name,
		"category":          in.Category,
		"country_of_origin": in.CountryOfOrigin,
		"price":             in.Price,
		"unit":              in.Unit,
		"stock":             in.Stock,
		"availability":      in.Availability,
		"image_url":         in.ImageURL,
		"description":       in.Description,
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "product", id, "update", p.Name)
	cache.Invalidate(ctx, s.cache, keyProducts, keyAdminStats)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, admin *session.Identity, id string) error {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "product", id, "delete", "")
	cache.Invalidate(ctx, s.cache, keyProducts, keyAdminStats)
	return nil
}
