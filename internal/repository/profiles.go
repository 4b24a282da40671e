package repository

import (
	"context"
	"time"

	"crop-catch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, translate(err)
}

// InsertIfAbsent reports whether this call created the row. Racing callers
// both succeed and exactly one of them sees true.
func (r *ProfileRepository) InsertIfAbsent(ctx context.Context, p models.Profile) (bool, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&p)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpsertMetadata copies session metadata onto the profile, keeping its role.
func (r *ProfileRepository) UpsertMetadata(ctx context.Context, id, fullName, avatarURL string) error {
	p := models.Profile{
		ID:        id,
		FullName:  fullName,
		AvatarURL: avatarURL,
		Role:      models.RoleUser,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "avatar_url", "updated_at"}),
		}).
		Create(&p).Error
	return translate(err)
}

func (r *ProfileRepository) Update(ctx context.Context, id string, updates map[string]any) (models.Profile, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.Profile{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Profile{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).Order("updated_at desc").Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) Recent(ctx context.Context, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).Order("updated_at desc").Limit(limit).Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&n).Error
	return n, err
}

func (r *ProfileRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *ProfileRepository) CountUpdatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("updated_at >= ?", since).Count(&n).Error
	return n, err
}
