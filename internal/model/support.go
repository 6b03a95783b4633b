package model

import (
	"time"

	"gorm.io/datatypes"
)

// RegistrarContact is the registrar customer handle reused for a user's registrations
type RegistrarContact struct {
	BaseModel
	TelegramID int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Handle     string `gorm:"type:varchar(64);not null" json:"handle"`
	Email      string `gorm:"type:varchar(255)" json:"email"`
}

func (RegistrarContact) TableName() string {
	return "openprovider_contacts"
}

// UserState holds bot conversation state
type UserState struct {
	TelegramID int64          `gorm:"primaryKey;autoIncrement:false" json:"telegram_id"`
	State      string         `gorm:"type:varchar(64)" json:"state"`
	Data       datatypes.JSON `json:"data"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserState) TableName() string {
	return "user_states"
}

// Translation is a localized bot message
type Translation struct {
	BaseModel
	Key      string `gorm:"type:varchar(128);uniqueIndex:idx_translation_key_lang;not null" json:"key"`
	Language string `gorm:"type:varchar(8);uniqueIndex:idx_translation_key_lang;not null" json:"language"`
	Text     string `gorm:"type:text;not null" json:"text"`
}

func (Translation) TableName() string {
	return "translations"
}

// NotificationKind classifies admin notifications
type NotificationKind string

const (
	NotificationReconcile      NotificationKind = "reconcile"
	NotificationPaymentFailure NotificationKind = "payment_failure"
)

// AdminNotification records something an operator must look at
type AdminNotification struct {
	BaseModel
	Kind       NotificationKind `gorm:"type:varchar(32);index;not null" json:"kind"`
	Message    string           `gorm:"type:text;not null" json:"message"`
	DomainName string           `gorm:"type:varchar(255)" json:"domain_name,omitempty"`
	TelegramID int64            `json:"telegram_id,omitempty"`
	Resolved   bool             `gorm:"not null;default:false;index" json:"resolved"`
}

func (AdminNotification) TableName() string {
	return "admin_notifications"
}

// SystemSetting is a runtime key/value setting
type SystemSetting struct {
	Key       string    `gorm:"type:varchar(64);primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// APIUsageLog records one upstream provider call
type APIUsageLog struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Service    string    `gorm:"type:varchar(32);index;not null" json:"service"`
	Endpoint   string    `gorm:"type:varchar(255);not null" json:"endpoint"`
	Method     string    `gorm:"type:varchar(8);not null" json:"method"`
	StatusCode int       `json:"status_code"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `gorm:"type:varchar(255)" json:"error,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (APIUsageLog) TableName() string {
	return "api_usage_logs"
}
