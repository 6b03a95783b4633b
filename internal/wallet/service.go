package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/logging"
	"go_domainbot/internal/metrics"
	"go_domainbot/internal/model"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/repository"
)

var (
	// ErrBelowMinimum is returned for deposits under the configured minimum
	ErrBelowMinimum = errors.New("deposit below minimum")
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUnknownReference is returned when a callback matches no deposit
	ErrUnknownReference = errors.New("unknown payment reference")
	// ErrInsufficientBalance is returned when a charge exceeds the balance
	ErrInsufficientBalance = repository.ErrInsufficientBalance
	// ErrAddressMismatch is returned for callbacks naming a foreign address
	ErrAddressMismatch = blockbee.ErrAddressMismatch
)

// Gateway creates deposit addresses and quotes
type Gateway interface {
	CreatePaymentAddress(ctx context.Context, currency, callbackURL string, amount *decimal.Decimal) (*blockbee.PaymentAddress, error)
	ConvertFiatToCrypto(ctx context.Context, amountUSD decimal.Decimal, currency string) (*blockbee.Quote, error)
}

// Claimer de-duplicates callback deliveries
type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Config holds wallet settings
type Config struct {
	MinDepositUSD   decimal.Decimal
	CallbackBaseURL string
	CallbackPath    string
}

// Service manages user balances and crypto deposits
type Service struct {
	store   *repository.Store
	gateway Gateway
	claimer Claimer
	metrics *metrics.Metrics
	cfg     Config
	logger  *logrus.Entry
}

// NewService creates a wallet service
func NewService(store *repository.Store, gateway Gateway, claimer Claimer, m *metrics.Metrics, cfg Config, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:   store,
		gateway: gateway,
		claimer: claimer,
		metrics: m,
		cfg:     cfg,
		logger:  logger.WithField("component", "wallet"),
	}
}

// CallbackURL returns the gateway callback URL for reference ref
func (s *Service) CallbackURL(ref string) string {
	return blockbee.CallbackURL(s.cfg.CallbackBaseURL, s.cfg.CallbackPath, ref)
}

// Balance returns the user's balance
func (s *Service) Balance(ctx context.Context, telegramID int64) (decimal.Decimal, error) {
	u, err := s.store.Users.Get(ctx, telegramID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.BalanceUSD, nil
}

// History returns the user's latest transactions
func (s *Service) History(ctx context.Context, telegramID int64, limit int) ([]model.WalletTransaction, error) {
	return s.store.Transactions.ListByUser(ctx, telegramID, limit)
}

// StartDeposit quotes amountUSD in currency, requests a deposit address and
// records a pending deposit bound to the address's callback reference.
func (s *Service) StartDeposit(ctx context.Context, telegramID int64, amountUSD decimal.Decimal, currency string) (*model.WalletTransaction, error) {
	if !amountUSD.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amountUSD.LessThan(s.cfg.MinDepositUSD) {
		return nil, fmt.Errorf("%w: minimum is $%s", ErrBelowMinimum, s.cfg.MinDepositUSD.StringFixed(2))
	}
	if _, err := s.store.Users.Get(ctx, telegramID); err != nil {
		return nil, err
	}

	quote, err := s.gateway.ConvertFiatToCrypto(ctx, amountUSD, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to quote deposit: %w", err)
	}

	ref := uuid.NewString()
	addr, err := s.gateway.CreatePaymentAddress(ctx, currency, s.CallbackURL(ref), &quote.CryptoDue)
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit address: %w", err)
	}

	tx := &model.WalletTransaction{
		TelegramID:       telegramID,
		Type:             model.TransactionTypeDeposit,
		Amount:           amountUSD.Round(2),
		Currency:         "USD",
		Status:           model.TransactionStatusPending,
		CryptoCurrency:   quote.Currency,
		CryptoAddress:    addr.AddressIn,
		CryptoAmount:     quote.CryptoDue,
		ExchangeRate:     quote.RateUSD,
		GatewayReference: ref,
		Description:      "Crypto deposit",
	}
	if err := s.store.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"telegram_id": telegramID,
		"amount_usd":  tx.Amount.String(),
		"currency":    tx.CryptoCurrency,
		"reference":   ref,
	}).Info("deposit started")
	return tx, nil
}

// HandleCallback completes the deposit a confirmed callback refers to and
// credits value_coin × rate. The callback must name the deposit's own
// address. Pending callbacks and repeated deliveries of a txid are no-ops. A deposit that already left pending is returned unchanged.
func (s *Service) HandleCallback(ctx context.Context, cb *blockbee.Callback) (*model.WalletTransaction, error) {
	tx, err := s.store.Transactions.GetByReference(ctx, cb.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownReference
		}
		return nil, err
	}
	if err := cb.CheckAddress(tx.CryptoAddress); err != nil {
		s.logger.WithField("reference", cb.Reference).WithError(err).Warn("callback rejected")
		return nil, err
	}
	if cb.Pending {
		s.logger.WithField("reference", cb.Reference).Debug("pending callback ignored")
		return tx, nil
	}
	if tx.Status.Terminal() {
		return tx, nil
	}

	key := "txid:" + cb.TxIDIn
	claimed, err := s.claimer.Claim(ctx, key)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.WithField("txid", cb.TxIDIn).Info("duplicate callback ignored")
		return tx, nil
	}

	credit := cb.ValueCoin.Mul(tx.ExchangeRate).Round(2)
	err = s.store.Tx(ctx, func(r *repository.Store) error {
		if err := r.Transactions.Finalize(ctx, tx.ID, model.TransactionStatusCompleted, map[string]interface{}{
			"tx_id":         cb.TxIDIn,
			"crypto_amount": cb.ValueCoin,
			"amount":        credit,
		}); err != nil {
			return err
		}
		_, err := r.Users.AdjustBalance(ctx, tx.TelegramID, credit)
		return err
	})
	if err != nil {
		if rerr := s.claimer.Release(ctx, key); rerr != nil {
			s.logger.WithError(rerr).Warn("failed to release callback claim")
		}
		if errors.Is(err, repository.ErrTransactionFinalized) {
			return s.store.Transactions.Get(ctx, tx.ID)
		}
		return nil, err
	}

	s.metrics.AddDeposit(credit.InexactFloat64())
	s.logger.WithFields(logrus.Fields{
		"telegram_id": tx.TelegramID,
		"credit_usd":  credit.String(),
		"txid":        cb.TxIDIn,
	}).Info("deposit completed")
	return s.store.Transactions.Get(ctx, tx.ID)
}

// CancelDeposit cancels the user's own pending deposit
func (s *Service) CancelDeposit(ctx context.Context, telegramID int64, txID int) error {
	tx, err := s.store.Transactions.Get(ctx, txID)
	if err != nil {
		return err
	}
	if tx.TelegramID != telegramID || tx.Type != model.TransactionTypeDeposit {
		return repository.ErrNotFound
	}
	return s.store.Transactions.Finalize(ctx, txID, model.TransactionStatusCancelled, nil)
}

// Charge debits amount and records a completed payment in one transaction
func (s *Service) Charge(ctx context.Context, telegramID int64, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	return s.move(ctx, telegramID, amount.Neg(), model.TransactionTypePayment, description)
}

// Refund credits amount back and records a completed refund
func (s *Service) Refund(ctx context.Context, telegramID int64, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	return s.move(ctx, telegramID, amount, model.TransactionTypeRefund, description)
}

// ChargeTx is Charge inside a caller's database transaction
func ChargeTx(ctx context.Context, r *repository.Store, telegramID int64, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	return moveTx(ctx, r, telegramID, amount.Neg(), model.TransactionTypePayment, description)
}

func (s *Service) move(ctx context.Context, telegramID int64, delta decimal.Decimal, typ model.TransactionType, description string) (*model.WalletTransaction, error) {
	var out *model.WalletTransaction
	err := s.store.Tx(ctx, func(r *repository.Store) error {
		tx, err := moveTx(ctx, r, telegramID, delta, typ, description)
		out = tx
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"telegram_id": telegramID,
		"type":        typ,
		"amount":      out.Amount.String(),
	}).Info("balance updated")
	return out, nil
}

func moveTx(ctx context.Context, r *repository.Store, telegramID int64, delta decimal.Decimal, typ model.TransactionType, description string) (*model.WalletTransaction, error) {
	if delta.IsZero() {
		return nil, ErrInvalidAmount
	}
	if (typ == model.TransactionTypePayment && delta.IsPositive()) || (typ == model.TransactionTypeRefund && delta.IsNegative()) {
		return nil, ErrInvalidAmount
	}
	if _, err := r.Users.AdjustBalance(ctx, telegramID, delta); err != nil {
		return nil, err
	}

	now := time.Now()
	tx := &model.WalletTransaction{
		TelegramID:       telegramID,
		Type:             typ,
		Amount:           delta.Abs().Round(2),
		Currency:         "USD",
		Status:           model.TransactionStatusCompleted,
		GatewayReference: uuid.NewString(),
		Description:      description,
		CompletedAt:      &now,
	}
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
