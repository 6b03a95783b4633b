package wallet

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go_domainbot/api/v1/common"
	"go_domainbot/api/v1/middleware"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/wallet"
)

// Handler serves the caller's wallet
type Handler struct {
	service *wallet.Service
}

// NewHandler creates a wallet handler
func NewHandler(service *wallet.Service) *Handler {
	return &Handler{service: service}
}

// DepositRequest starts a crypto deposit
type DepositRequest struct {
	AmountUSD decimal.Decimal `json:"amountUsd"`
	Currency  string          `json:"currency" binding:"required"`
}

// Summary returns balance and recent history
// GET /api/v1/app/wallet
func (h *Handler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.TelegramID(c)
	balance, err := h.service.Balance(ctx, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	history, err := h.service.History(ctx, id, 20)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, gin.H{
		"balance":    balance,
		"history":    history,
		"currencies": blockbee.SupportedCurrencies(),
	})
}

// Deposit starts a crypto deposit and returns the address to pay
// POST /api/v1/app/wallet/deposits
func (h *Handler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	tx, err := h.service.StartDeposit(c.Request.Context(), middleware.TelegramID(c), req.AmountUSD, req.Currency)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, tx)
}

// CancelDeposit cancels a pending deposit
// POST /api/v1/app/wallet/deposits/:id/cancel
func (h *Handler) CancelDeposit(c *gin.Context) {
	id, ok := common.IntParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.CancelDeposit(c.Request.Context(), middleware.TelegramID(c), id); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}
