package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key already exists
	ErrDuplicate = errors.New("record already exists")
	// ErrInsufficientBalance is returned when a debit would make a balance negative
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransactionFinalized is returned when a wallet transaction already left pending
	ErrTransactionFinalized = errors.New("transaction already finalized")
	// ErrOrderStateChanged is returned when an order is no longer in the expected status
	ErrOrderStateChanged = errors.New("order status changed")
)

// Store groups the repositories over one database handle
type Store struct {
	db *gorm.DB

	Users         *UserRepo
	Domains       *DomainRepo
	DNSRecords    *DNSRecordRepo
	Transactions  *TransactionRepo
	Orders        *OrderRepo
	Contacts      *ContactRepo
	States        *UserStateRepo
	Translations  *TranslationRepo
	Notifications *NotificationRepo
	Settings      *SettingRepo
	Usage         *UsageRepo
}

// NewStore creates a Store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         &UserRepo{db: db},
		Domains:       &DomainRepo{db: db},
		DNSRecords:    &DNSRecordRepo{db: db},
		Transactions:  &TransactionRepo{db: db},
		Orders:        &OrderRepo{db: db},
		Contacts:      &ContactRepo{db: db},
		States:        &UserStateRepo{db: db},
		Translations:  &TranslationRepo{db: db},
		Notifications: &NotificationRepo{db: db},
		Settings:      &SettingRepo{db: db},
		Usage:         &UsageRepo{db: db},
	}
}

// DB returns the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tx runs fn inside a database transaction. The Store passed to fn is bound
// to the transaction; returning an error rolls it back.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func paginate(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}
