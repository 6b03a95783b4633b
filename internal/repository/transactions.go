package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go_domainbot/internal/model"
)

// TransactionRepo persists wallet transactions
type TransactionRepo struct {
	db *gorm.DB
}

// Create inserts a transaction
func (r *TransactionRepo) Create(ctx context.Context, tx *model.WalletTransaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error)
}

// Get returns a transaction by id
func (r *TransactionRepo) Get(ctx context.Context, id int) (*model.WalletTransaction, error) {
	var t model.WalletTransaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// GetByReference returns a transaction by its gateway reference
func (r *TransactionRepo) GetByReference(ctx context.Context, ref string) (*model.WalletTransaction, error) {
	var t model.WalletTransaction
	if err := r.db.WithContext(ctx).Where("gateway_reference = ?", ref).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// ListByUser returns a user's transactions, newest first
func (r *TransactionRepo) ListByUser(ctx context.Context, telegramID int64, limit int) ([]model.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []model.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Finalize moves a pending transaction to a terminal status. It affects only
// rows still pending, so a second call fails with ErrTransactionFinalized.
func (r *TransactionRepo) Finalize(ctx context.Context, id int, status model.TransactionStatus, extra map[string]interface{}) error {
	if !status.Terminal() {
		return ErrTransactionFinalized
	}

	updates := map[string]interface{}{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if status == model.TransactionStatusCompleted {
		updates["completed_at"] = time.Now()
	}

	result := r.db.WithContext(ctx).Model(&model.WalletTransaction{}).
		Where("id = ? AND status = ?", id, model.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionFinalized
	}
	return nil
}
