package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus represents a crypto-paid domain order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a domain purchase paid directly with crypto instead of wallet balance
type Order struct {
	ID                 string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TelegramID         int64           `gorm:"index;not null" json:"telegram_id"`
	DomainName         string          `gorm:"type:varchar(255);index;not null" json:"domain_name"`
	Nameservers        datatypes.JSON  `json:"nameservers"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	CryptoCurrency     string          `gorm:"type:varchar(16)" json:"crypto_currency"`
	CryptoAddress      string          `gorm:"type:varchar(128)" json:"crypto_address"`
	CryptoAmount       decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0" json:"crypto_amount"`
	Status             OrderStatus     `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	TxID               string          `gorm:"type:varchar(128)" json:"txid,omitempty"`
	RegisteredDomainID *int            `json:"registered_domain_id,omitempty"`
	FailureReason      string          `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
