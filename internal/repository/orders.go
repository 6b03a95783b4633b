package repository

import (
	"context"

	"gorm.io/gorm"

	"go_domainbot/internal/model"
)

// OrderRepo persists crypto-paid domain orders
type OrderRepo struct {
	db *gorm.DB
}

// Create inserts an order
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	return translate(r.db.WithContext(ctx).Create(o).Error)
}

// Get returns an order by id
func (r *OrderRepo) Get(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// ListByUser returns a user's orders, newest first
func (r *OrderRepo) ListByUser(ctx context.Context, telegramID int64) ([]model.Order, error) {
	var out []model.Order
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Transition moves an order from one status to another. If the order is no
// longer in from, nothing changes and ErrOrderStateChanged is returned.
func (r *OrderRepo) Transition(ctx context.Context, id string, from, to model.OrderStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStateChanged
	}
	return nil
}
