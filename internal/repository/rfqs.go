package repository

import (
	"context"
	"time"

	"crop-catch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// CreateWithItems inserts the RFQ first to obtain its id, then the items,
// in one transaction. On success rfq.Items holds the stored items.
func (r *RFQRepository) CreateWithItems(ctx context.Context, rfq *models.RFQ, items []models.RFQItem) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(rfq).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].RFQID = rfq.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		rfq.Items = items
		return nil
	}))
}

func (r *RFQRepository) ListAll(ctx context.Context) ([]models.RFQ, error) {
	var rfqs []models.RFQ
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Items").
		Order("created_at desc").
		Find(&rfqs).Error
	return rfqs, err
}

func (r *RFQRepository) ListByUser(ctx context.Context, userID string) ([]models.RFQ, error) {
	var rfqs []models.RFQ
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rfqs).Error
	return rfqs, err
}

func (r *RFQRepository) Get(ctx context.Context, id string) (models.RFQ, error) {
	var rfq models.RFQ
	err := r.db.WithContext(ctx).Preload("Items").First(&rfq, "id = ?", id).Error
	return rfq, translate(err)
}

func (r *RFQRepository) Update(ctx context.Context, id string, updates map[string]any) (models.RFQ, error) {
	res := r.db.WithContext(ctx).Model(&models.RFQ{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.RFQ{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.RFQ{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// DeleteWithItems removes the items before the RFQ itself.
func (r *RFQRepository) DeleteWithItems(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rfq_id = ?", id).Delete(&models.RFQItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.RFQ{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

func (r *RFQRepository) CountByStatus(ctx context.Context, status models.RFQStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RFQ{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *RFQRepository) CountByStatusSince(ctx context.Context, status models.RFQStatus, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RFQ{}).
		Where("status = ? AND created_at >= ?", status, since).
		Count(&n).Error
	return n, err
}

// CountsByUser returns the number of RFQs per user id.
func (r *RFQRepository) CountsByUser(ctx context.Context) (map[string]int64, error) {
	return countsByUser(ctx, r.db, &models.RFQ{})
}

func (r *RFQRepository) Recent(ctx context.Context, limit int) ([]models.RFQ, error) {
	var rfqs []models.RFQ
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Order("created_at desc").
		Limit(limit).
		Find(&rfqs).Error
	return rfqs, err
}

func countsByUser(ctx context.Context, db *gorm.DB, model any) (map[string]int64, error) {
	var rows []struct {
		UserID string
		N      int64
	}
	err := db.WithContext(ctx).Model(model).
		Select("user_id, COUNT(*) AS n").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.N
	}
	return out, nil
}
