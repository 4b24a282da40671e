package repository

import (
	"context"
	"time"

	"crop-catch/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateForAcceptedRFQ flips a quoted RFQ to accepted and inserts the order
// and its items in one transaction. ErrConflict when the RFQ is no longer
// quoted.
func (r *OrderRepository) CreateForAcceptedRFQ(ctx context.Context, rfqID string, order *models.Order, items []models.OrderItem) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RFQ{}).
			Where("id = ? AND status = ?", rfqID, models.RFQQuoted).
			Update("status", models.RFQAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		order.RFQID = rfqID
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	}))
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Items").
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) Get(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	return o, translate(err)
}

func (r *OrderRepository) Update(ctx context.Context, id string, updates map[string]any) (models.Order, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.Order{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Order{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// DeleteWithItems removes the items before the order itself.
func (r *OrderRepository) DeleteWithItems(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *OrderRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *OrderRepository) CountHighValueSince(ctx context.Context, since time.Time, threshold decimal.Decimal) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ? AND total_amount > ?", since, threshold).
		Count(&n).Error
	return n, err
}

func (r *OrderRepository) CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

func (r *OrderRepository) SumPaid(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("payment_status = ?", models.PaymentPaid).
		Row().
		Scan(&total)
	return total, err
}

// CountsByUser returns the number of orders per user id.
func (r *OrderRepository) CountsByUser(ctx context.Context) (map[string]int64, error) {
	return countsByUser(ctx, r.db, &models.Order{})
}

func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
