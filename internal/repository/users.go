package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go_domainbot/internal/model"
)

// UserRepo persists bot users
type UserRepo struct {
	db *gorm.DB
}

// GetOrCreate returns the user, creating it on first contact.
// Username and first name are refreshed when they change.
func (r *UserRepo) GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*model.User, error) {
	user := model.User{TelegramID: telegramID}
	err := r.db.WithContext(ctx).
		Where(model.User{TelegramID: telegramID}).
		Attrs(model.User{Username: username, FirstName: firstName, Language: "en"}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, translate(err)
	}

	if (username != "" && user.Username != username) || (firstName != "" && user.FirstName != firstName) {
		updates := map[string]interface{}{}
		if username != "" {
			updates["username"] = username
			user.Username = username
		}
		if firstName != "" {
			updates["first_name"] = firstName
			user.FirstName = firstName
		}
		if err := r.db.WithContext(ctx).Model(&model.User{}).Where("telegram_id = ?", telegramID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// Get returns a user by Telegram id
func (r *UserRepo) Get(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// List returns users newest first
func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]model.User, int64, error) {
	var (
		users []model.User
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.User{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit, offset := paginate(page, pageSize)
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetLanguage updates the user's language preference
func (r *UserRepo) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	return r.update(ctx, telegramID, "language", lang)
}

// SetTechnicalEmail updates the contact email used for registrar handles
func (r *UserRepo) SetTechnicalEmail(ctx context.Context, telegramID int64, email string) error {
	return r.update(ctx, telegramID, "technical_email", email)
}

// SetAdmin toggles the administrative flag
func (r *UserRepo) SetAdmin(ctx context.Context, telegramID int64, admin bool) error {
	return r.update(ctx, telegramID, "is_admin", admin)
}

func (r *UserRepo) update(ctx context.Context, telegramID int64, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("telegram_id = ?", telegramID).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance adds delta (negative to debit) to the user's balance under a
// row lock and returns the new balance. A debit past zero fails with
// ErrInsufficientBalance and leaves the balance unchanged.
func (r *UserRepo) AdjustBalance(ctx context.Context, telegramID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "telegram_id = ?", telegramID).Error
	if err != nil {
		return decimal.Zero, translate(err)
	}

	balance := user.BalanceUSD.Add(delta)
	if balance.IsNegative() {
		return user.BalanceUSD, ErrInsufficientBalance
	}

	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("telegram_id = ?", telegramID).
		Update("balance_usd", balance).Error; err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
