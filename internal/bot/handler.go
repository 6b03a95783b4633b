package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/logging"
	"go_domainbot/internal/model"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
	"go_domainbot/internal/trustee"
	"go_domainbot/internal/wallet"
)

// Sender delivers bot messages; *tgbotapi.BotAPI satisfies it
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

const stateAwaitingDomain = "awaiting_domain"

// Handler routes Telegram updates to the services
type Handler struct {
	sender       Sender
	registration *registration.Service
	wallet       *wallet.Service
	store        *repository.Store
	texts        *Texts
	admins       []int64
	logger       *logrus.Entry
}

// NewHandler creates an update handler
func NewHandler(sender Sender, reg *registration.Service, w *wallet.Service, store *repository.Store, texts *Texts, admins []int64, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		sender:       sender,
		registration: reg,
		wallet:       w,
		store:        store,
		texts:        texts,
		admins:       admins,
		logger:       logger.WithField("component", "bot"),
	}
}

// HandleUpdate processes one update. Only text messages are handled.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	user, err := h.store.Users.GetOrCreate(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		h.logger.WithError(err).WithField("telegram_id", msg.From.ID).Error("failed to load user")
		h.reply(msg.Chat.ID, h.texts.Get(ctx, "", "err_generic"))
		return
	}
	c := &call{ctx: ctx, chatID: msg.Chat.ID, user: user}

	if !msg.IsCommand() {
		state, err := h.store.States.Get(ctx, user.TelegramID, nil)
		if err != nil {
			h.logger.WithError(err).Warn("failed to load user state")
		}
		if state == stateAwaitingDomain {
			h.clearState(ctx, user.TelegramID)
			h.handleRegister(c, strings.Fields(msg.Text))
			return
		}
		h.reply(c.chatID, h.text(c, "unknown_command"))
		return
	}

	h.clearState(ctx, user.TelegramID)
	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		name := user.FirstName
		if name == "" {
			name = user.Username
		}
		h.reply(c.chatID, h.text(c, "welcome", name))
	case "balance":
		h.handleBalance(c)
	case "search":
		h.handleSearch(c, args)
	case "register":
		if len(args) == 0 {
			if err := h.store.States.Set(ctx, user.TelegramID, stateAwaitingDomain, nil); err != nil {
				h.logger.WithError(err).Warn("failed to save user state")
			}
			h.reply(c.chatID, h.text(c, "usage_register"))
			return
		}
		h.handleRegister(c, args)
	case "domains":
		h.handleDomains(c)
	case "deposit":
		h.handleDeposit(c, args)
	case "ns":
		h.handleNameservers(c, args)
	case "lang":
		h.handleLanguage(c, args)
	default:
		h.reply(c.chatID, h.text(c, "unknown_command"))
	}
}

// AlertAdmins sends text to every configured admin chat
func (h *Handler) AlertAdmins(ctx context.Context, text string) {
	for _, id := range h.admins {
		h.reply(id, text)
	}
}

type call struct {
	ctx    context.Context
	chatID int64
	user   *model.User
}

func (h *Handler) handleBalance(c *call) {
	balance, err := h.wallet.Balance(c.ctx, c.user.TelegramID)
	if err != nil {
		h.fail(c, err)
		return
	}
	lines := []string{h.text(c, "balance", balance.StringFixed(2))}
	history, err := h.wallet.History(c.ctx, c.user.TelegramID, 5)
	if err != nil {
		h.logger.WithError(err).Warn("failed to load history")
	}
	for _, tx := range history {
		lines = append(lines, h.text(c, "history_line",
			tx.CreatedAt.Format("2006-01-02"), tx.Type, tx.Amount.StringFixed(2), tx.Status))
	}
	h.reply(c.chatID, strings.Join(lines, "\n"))
}

func (h *Handler) handleSearch(c *call, args []string) {
	if len(args) != 1 {
		h.reply(c.chatID, h.text(c, "usage_search"))
		return
	}
	q, err := h.registration.Prepare(c.ctx, args[0])
	if err != nil {
		h.fail(c, err)
		return
	}
	extra := ""
	if q.Breakdown.RequiresTrustee {
		extra = h.text(c, "quote_trustee", q.Breakdown.Summary)
	}
	h.reply(c.chatID, h.text(c, "quote", q.Domain, q.Total.StringFixed(2), extra, q.Domain))
}

func (h *Handler) handleRegister(c *call, args []string) {
	if len(args) == 0 {
		h.reply(c.chatID, h.text(c, "usage_register"))
		return
	}
	res, err := h.registration.Register(c.ctx, registration.Request{
		TelegramID:  c.user.TelegramID,
		Domain:      args[0],
		Nameservers: args[1:],
		Email:       c.user.TechnicalEmail,
	})
	switch {
	case res != nil && res.Outcome == registration.OutcomeDuplicate:
		h.reply(c.chatID, h.text(c, "duplicate", res.Quote.Domain))
	case res != nil && res.Outcome == registration.OutcomePartial:
		h.reply(c.chatID, h.text(c, "registered_partial", res.Quote.Domain))
	case err != nil:
		h.fail(c, err)
	default:
		h.reply(c.chatID, h.text(c, "registered", res.Domain.DomainName, strings.Join(res.Domain.NameserverList(), ", ")))
	}
}

func (h *Handler) handleDomains(c *call) {
	domains, err := h.registration.Domains(c.ctx, c.user.TelegramID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(domains) == 0 {
		h.reply(c.chatID, h.text(c, "no_domains"))
		return
	}
	lines := make([]string, 0, len(domains))
	for _, d := range domains {
		expires := "-"
		if d.ExpiresAt != nil {
			expires = d.ExpiresAt.Format("2006-01-02")
		}
		lines = append(lines, h.text(c, "domain_line", d.DomainName, d.NameserverMode, expires))
	}
	h.reply(c.chatID, strings.Join(lines, "\n"))
}

func (h *Handler) handleDeposit(c *call, args []string) {
	if len(args) != 2 {
		h.reply(c.chatID, h.text(c, "usage_deposit", strings.Join(blockbee.SupportedCurrencies(), ", ")))
		return
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(args[0], "$"))
	if err != nil {
		h.reply(c.chatID, h.text(c, "usage_deposit", strings.Join(blockbee.SupportedCurrencies(), ", ")))
		return
	}
	tx, err := h.wallet.StartDeposit(c.ctx, c.user.TelegramID, amount, strings.ToLower(args[1]))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reply(c.chatID, h.text(c, "deposit_started",
		tx.CryptoAmount.String(), strings.ToUpper(tx.CryptoCurrency), tx.CryptoAddress, tx.Amount.StringFixed(2)))
}

func (h *Handler) handleNameservers(c *call, args []string) {
	if len(args) < 2 {
		h.reply(c.chatID, h.text(c, "usage_ns"))
		return
	}
	var (
		d   *model.RegisteredDomain
		err error
	)
	if len(args) == 2 && strings.EqualFold(args[1], "managed") {
		d, err = h.registration.UseManagedNameservers(c.ctx, c.user.TelegramID, args[0])
	} else {
		d, err = h.registration.SetCustomNameservers(c.ctx, c.user.TelegramID, args[0], args[1:])
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reply(c.chatID, h.text(c, "ns_updated", d.DomainName, strings.Join(d.NameserverList(), ", ")))
}

func (h *Handler) handleLanguage(c *call, args []string) {
	if len(args) != 1 || len(args[0]) > 8 {
		h.reply(c.chatID, h.text(c, "usage_lang"))
		return
	}
	lang := strings.ToLower(args[0])
	if err := h.store.Users.SetLanguage(c.ctx, c.user.TelegramID, lang); err != nil {
		h.fail(c, err)
		return
	}
	c.user.Language = lang
	h.reply(c.chatID, h.text(c, "language_set", lang))
}

// fail answers with the user-facing text for err
func (h *Handler) fail(c *call, err error) {
	var blocked *trustee.BlockedError
	switch {
	case errors.As(err, &blocked):
		h.reply(c.chatID, h.text(c, "blocked", blocked.Error()))
	case errors.Is(err, registration.ErrInvalidDomain):
		h.reply(c.chatID, h.text(c, "err_invalid_domain"))
	case errors.Is(err, registration.ErrUnsupportedTLD):
		h.reply(c.chatID, h.text(c, "err_unsupported_tld", strings.Join(h.registration.SupportedTLDs(), ", ")))
	case errors.Is(err, registration.ErrNotAvailable):
		h.reply(c.chatID, h.text(c, "err_not_available"))
	case errors.Is(err, registration.ErrAlreadyRegistered):
		h.reply(c.chatID, h.text(c, "err_already_ours"))
	case errors.Is(err, registration.ErrRequirements):
		h.reply(c.chatID, h.text(c, "err_requirements", err.Error()))
	case errors.Is(err, registration.ErrInvalidNameservers):
		h.reply(c.chatID, h.text(c, "err_nameservers"))
	case errors.Is(err, registration.ErrNotOwner), errors.Is(err, repository.ErrNotFound):
		h.reply(c.chatID, h.text(c, "err_not_found"))
	case errors.Is(err, wallet.ErrInsufficientBalance):
		h.reply(c.chatID, h.text(c, "err_balance"))
	case errors.Is(err, wallet.ErrBelowMinimum):
		h.reply(c.chatID, h.text(c, "err_min_deposit", err.Error()))
	default:
		h.logger.WithError(err).WithField("telegram_id", c.user.TelegramID).Error("command failed")
		h.reply(c.chatID, h.text(c, "err_generic"))
	}
}

func (h *Handler) text(c *call, key string, args ...interface{}) string {
	return h.texts.Get(c.ctx, c.user.Language, key, args...)
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := h.sender.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
	}
}

func (h *Handler) clearState(ctx context.Context, telegramID int64) {
	if err := h.store.States.Clear(ctx, telegramID); err != nil {
		h.logger.WithError(err).Warn("failed to clear user state")
	}
}
