package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a Telegram user of the bot, keyed by Telegram id
type User struct {
	TelegramID     int64           `gorm:"primaryKey;autoIncrement:false" json:"telegram_id"`
	Username       string          `gorm:"type:varchar(64)" json:"username"`
	FirstName      string          `gorm:"type:varchar(128)" json:"first_name"`
	Language       string          `gorm:"type:varchar(8);not null;default:'en'" json:"language"`
	BalanceUSD     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance_usd"`
	IsAdmin        bool            `gorm:"not null;default:false" json:"is_admin"`
	TechnicalEmail string          `gorm:"type:varchar(255)" json:"technical_email"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
