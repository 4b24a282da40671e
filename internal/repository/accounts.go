package repository

import (
	"context"
	"strings"

	"crop-catch/internal/models"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&a).Error
	return a, translate(err)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return a, translate(err)
}
