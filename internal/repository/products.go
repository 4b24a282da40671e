package repository

import (
	"context"
	"strings"

	"crop-catch/internal/models"

	"gorm.io/gorm"
)

type ProductFilter struct {
	Search        string
	Category      string
	Origin        string
	AvailableOnly bool
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Order("name asc")

	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Origin != "" {
		q = q.Where("country_of_origin = ?", f.Origin)
	}
	if f.AvailableOnly {
		q = q.Where("availability = ?", true)
	}

	var products []models.Product
	err := q.Find(&products).Error
	return products, err
}

func (r *ProductRepository) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, translate(err)
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *ProductRepository) Update(ctx context.Context, id string, updates map[string]any) (models.Product, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.Product{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Product{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) CountAvailable(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("availability = ?", true).Count(&n).Error
	return n, err
}
