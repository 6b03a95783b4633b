package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents wallet transaction type
type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
)

// TransactionStatus represents wallet transaction status
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether the status can no longer change
func (s TransactionStatus) Terminal() bool {
	return s != TransactionStatusPending
}

// WalletTransaction is a balance movement. Amount is always positive USD;
// Type gives the direction.
type WalletTransaction struct {
	BaseModel
	TelegramID       int64             `gorm:"index;not null" json:"telegram_id"`
	Type             TransactionType   `gorm:"type:varchar(16);not null" json:"type"`
	Amount           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency         string            `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"`
	Status           TransactionStatus `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	CryptoCurrency   string            `gorm:"type:varchar(16)" json:"crypto_currency,omitempty"`
	CryptoAddress    string            `gorm:"type:varchar(128);index" json:"crypto_address,omitempty"`
	CryptoAmount     decimal.Decimal   `gorm:"type:decimal(24,8);not null;default:0" json:"crypto_amount"`
	ExchangeRate     decimal.Decimal   `gorm:"type:decimal(24,8);not null;default:0" json:"exchange_rate"` // USD per coin
	GatewayReference string            `gorm:"type:varchar(64);uniqueIndex" json:"gateway_reference,omitempty"`
	TxID             string            `gorm:"type:varchar(128)" json:"txid,omitempty"`
	Description      string            `gorm:"type:varchar(255)" json:"description,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
