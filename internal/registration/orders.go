package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/model"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/repository"
)

// ErrUnknownOrder is returned when a payment callback matches no order
var ErrUnknownOrder = errors.New("unknown order")

// underpaidRatio is the share of the quoted crypto amount accepted as full
// payment; the remainder covers network fees.
var underpaidRatio = decimal.RequireFromString("0.99")

// StartOrder prices domain and opens a crypto-paid order with its own
// payment address. The address callback carries the order id.
func (s *Service) StartOrder(ctx context.Context, telegramID int64, domain string, nameservers []string, currency string) (*model.Order, error) {
	if _, err := s.Store.Users.Get(ctx, telegramID); err != nil {
		return nil, err
	}
	custom, err := customNameservers(nameservers)
	if err != nil {
		return nil, err
	}
	q, err := s.Prepare(ctx, domain)
	if err != nil {
		return nil, err
	}

	quote, err := s.Gateway.ConvertFiatToCrypto(ctx, q.Total, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to quote order: %w", err)
	}
	id := uuid.NewString()
	addr, err := s.Gateway.CreatePaymentAddress(ctx, currency, s.Wallet.CallbackURL(id), &quote.CryptoDue)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment address: %w", err)
	}

	order := &model.Order{
		ID:             id,
		TelegramID:     telegramID,
		DomainName:     q.Domain,
		Nameservers:    model.JSONStrings(custom),
		TotalPrice:     q.Total,
		CryptoCurrency: quote.Currency,
		CryptoAddress:  addr.AddressIn,
		CryptoAmount:   quote.CryptoDue,
		Status:         model.OrderStatusPending,
	}
	if err := s.Store.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"order_id": id,
		"domain":   q.Domain,
		"total":    q.Total.StringFixed(2),
		"currency": quote.Currency,
	}).Info("order started")
	return order, nil
}

// Orders lists the user's orders, newest first
func (s *Service) Orders(ctx context.Context, telegramID int64) ([]model.Order, error) {
	return s.Store.Orders.ListByUser(ctx, telegramID)
}

// CancelOrder cancels the user's own unpaid order
func (s *Service) CancelOrder(ctx context.Context, telegramID int64, id string) error {
	o, err := s.Store.Orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.TelegramID != telegramID {
		return repository.ErrNotFound
	}
	return s.Store.Orders.Transition(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled, nil)
}

// HandleOrderPayment settles the order a confirmed payment callback refers
// to. A full payment registers the domain without touching the wallet; an
// underpayment or a failed registration is refunded to the wallet balance.
// Callbacks for any address but the order's are rejected. Repeated
// deliveries of a txid are no-ops.
func (s *Service) HandleOrderPayment(ctx context.Context, cb *blockbee.Callback) (*model.Order, error) {
	order, err := s.Store.Orders.Get(ctx, cb.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownOrder
		}
		return nil, err
	}
	if err := cb.CheckAddress(order.CryptoAddress); err != nil {
		s.logger.WithField("order_id", order.ID).WithError(err).Warn("callback rejected")
		return nil, err
	}
	if cb.Pending || order.Status != model.OrderStatusPending {
		return order, nil
	}

	key := "txid:" + cb.TxIDIn
	claimed, err := s.Claimer.Claim(ctx, key)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return order, nil
	}
	log := s.logger.WithFields(logrus.Fields{"order_id": order.ID, "txid": cb.TxIDIn})

	if cb.ValueCoin.LessThan(order.CryptoAmount.Mul(underpaidRatio)) {
		return s.failUnderpaid(ctx, order, cb, key)
	}

	if err := s.Store.Orders.Transition(ctx, order.ID, model.OrderStatusPending, model.OrderStatusPaid,
		map[string]interface{}{"tx_id": cb.TxIDIn}); err != nil {
		s.release(ctx, key)
		if errors.Is(err, repository.ErrOrderStateChanged) {
			return s.Store.Orders.Get(ctx, order.ID)
		}
		return nil, err
	}
	log.Info("order paid")

	res, err := s.register(ctx, Request{
		TelegramID:  order.TelegramID,
		Domain:      order.DomainName,
		Nameservers: model.StringList(order.Nameservers),
	}, false)
	switch {
	case res != nil && res.Domain != nil:
		id := res.Domain.ID
		if terr := s.Store.Orders.Transition(ctx, order.ID, model.OrderStatusPaid, model.OrderStatusCompleted,
			map[string]interface{}{"registered_domain_id": id}); terr != nil {
			return nil, terr
		}
		log.WithField("outcome", res.Outcome).Info("order completed")
	case res != nil && res.Outcome == OutcomePartial:
		// registered at the registrar; the reconcile notification covers it
		if terr := s.Store.Orders.Transition(ctx, order.ID, model.OrderStatusPaid, model.OrderStatusFailed,
			map[string]interface{}{"failure_reason": truncate("registered, not recorded: "+errString(err), 255)}); terr != nil {
			return nil, terr
		}
	default:
		reason := truncate(errString(err), 255)
		if terr := s.Store.Orders.Transition(ctx, order.ID, model.OrderStatusPaid, model.OrderStatusFailed,
			map[string]interface{}{"failure_reason": reason}); terr != nil {
			return nil, terr
		}
		s.refund(ctx, order, order.TotalPrice, "Refund for failed order "+order.DomainName)
		s.notify(ctx, model.NotificationPaymentFailure, order.TelegramID, order.DomainName,
			fmt.Sprintf("order %s paid but registration failed, refunded $%s: %s",
				order.ID, order.TotalPrice.StringFixed(2), reason))
	}
	return s.Store.Orders.Get(ctx, order.ID)
}

func (s *Service) failUnderpaid(ctx context.Context, order *model.Order, cb *blockbee.Callback, key string) (*model.Order, error) {
	reason := fmt.Sprintf("underpaid: received %s of %s %s", cb.ValueCoin.String(), order.CryptoAmount.String(), order.CryptoCurrency)
	if err := s.Store.Orders.Transition(ctx, order.ID, model.OrderStatusPending, model.OrderStatusFailed,
		map[string]interface{}{"tx_id": cb.TxIDIn, "failure_reason": reason}); err != nil {
		s.release(ctx, key)
		if errors.Is(err, repository.ErrOrderStateChanged) {
			return s.Store.Orders.Get(ctx, order.ID)
		}
		return nil, err
	}

	if order.CryptoAmount.IsPositive() {
		received := cb.ValueCoin.Mul(order.TotalPrice).Div(order.CryptoAmount).Round(2)
		s.refund(ctx, order, received, "Underpaid order "+order.DomainName)
	}
	s.notify(ctx, model.NotificationPaymentFailure, order.TelegramID, order.DomainName,
		fmt.Sprintf("order %s %s", order.ID, reason))
	return s.Store.Orders.Get(ctx, order.ID)
}

func (s *Service) refund(ctx context.Context, order *model.Order, amount decimal.Decimal, desc string) {
	if !amount.IsPositive() {
		return
	}
	if _, err := s.Wallet.Refund(ctx, order.TelegramID, amount, desc); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to refund order")
	}
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.Claimer.Release(ctx, key); err != nil {
		s.logger.WithError(err).Warn("failed to release callback claim")
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
