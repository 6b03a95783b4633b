package repository

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go_domainbot/internal/model"
)

// ContactRepo persists registrar customer handles
type ContactRepo struct {
	db *gorm.DB
}

// GetByUser returns the handle created for a user
func (r *ContactRepo) GetByUser(ctx context.Context, telegramID int64) (*model.RegistrarContact, error) {
	var c model.RegistrarContact
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Save stores the user's handle, replacing any previous one
func (r *ContactRepo) Save(ctx context.Context, c *model.RegistrarContact) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle", "email", "updated_at"}),
	}).Create(c).Error
}

// UserStateRepo persists bot conversation state
type UserStateRepo struct {
	db *gorm.DB
}

// Get returns the state and its decoded data. A user with no state gets "".
func (r *UserStateRepo) Get(ctx context.Context, telegramID int64, data interface{}) (string, error) {
	var s model.UserState
	err := r.db.WithContext(ctx).First(&s, "telegram_id = ?", telegramID).Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	if data != nil && len(s.Data) > 0 {
		if err := json.Unmarshal(s.Data, data); err != nil {
			return "", err
		}
	}
	return s.State, nil
}

// Set stores the state with optional data
func (r *UserStateRepo) Set(ctx context.Context, telegramID int64, state string, data interface{}) error {
	raw := datatypes.JSON("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = b
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "data", "updated_at"}),
	}).Create(&model.UserState{TelegramID: telegramID, State: state, Data: raw}).Error
}

// Clear removes the user's state
func (r *UserStateRepo) Clear(ctx context.Context, telegramID int64) error {
	return r.db.WithContext(ctx).Delete(&model.UserState{}, "telegram_id = ?", telegramID).Error
}

// TranslationRepo persists localized bot messages
type TranslationRepo struct {
	db *gorm.DB
}

// Get returns the text for key in lang
func (r *TranslationRepo) Get(ctx context.Context, key, lang string) (string, error) {
	var t model.Translation
	if err := r.db.WithContext(ctx).Where(&model.Translation{Key: key, Language: lang}).First(&t).Error; err != nil {
		return "", translate(err)
	}
	return t.Text, nil
}

// Upsert stores the text for key in lang
func (r *TranslationRepo) Upsert(ctx context.Context, key, lang, text string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&model.Translation{Key: key, Language: lang, Text: text}).Error
}

// List returns all translations for a language
func (r *TranslationRepo) List(ctx context.Context, lang string) ([]model.Translation, error) {
	var out []model.Translation
	err := r.db.WithContext(ctx).
		Where("language = ?", lang).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Find(&out).Error
	return out, err
}

// NotificationRepo persists admin notifications
type NotificationRepo struct {
	db *gorm.DB
}

// Create inserts a notification
func (r *NotificationRepo) Create(ctx context.Context, n *model.AdminNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListUnresolved returns open notifications, oldest first
func (r *NotificationRepo) ListUnresolved(ctx context.Context) ([]model.AdminNotification, error) {
	var out []model.AdminNotification
	err := r.db.WithContext(ctx).Where("resolved = ?", false).Order("id").Find(&out).Error
	return out, err
}

// Resolve marks a notification handled
func (r *NotificationRepo) Resolve(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Model(&model.AdminNotification{}).Where("id = ?", id).Update("resolved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SettingRepo persists runtime key/value settings
type SettingRepo struct {
	db *gorm.DB
}

// Get returns the value for key, or def when unset
func (r *SettingRepo) Get(ctx context.Context, key, def string) (string, error) {
	var s model.SystemSetting
	err := r.db.WithContext(ctx).Where(&model.SystemSetting{Key: key}).First(&s).Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return def, nil
		}
		return "", err
	}
	return s.Value, nil
}

// Set stores the value for key
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.SystemSetting{Key: key, Value: value}).Error
}

// UsageRepo persists the upstream API usage log
type UsageRepo struct {
	db *gorm.DB
}

// RecordUsage inserts one usage entry
func (r *UsageRepo) RecordUsage(ctx context.Context, entry *model.APIUsageLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Recent returns the latest entries, optionally for one service
func (r *UsageRepo) Recent(ctx context.Context, service string, limit int) ([]model.APIUsageLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if service != "" {
		q = q.Where("service = ?", service)
	}
	var out []model.APIUsageLog
	return out, q.Find(&out).Error
}
