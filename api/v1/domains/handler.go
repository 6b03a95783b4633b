package domains

import (
	"github.com/gin-gonic/gin"

	"go_domainbot/api/v1/common"
	"go_domainbot/api/v1/middleware"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/model"
	"go_domainbot/internal/registration"
)

// Handler serves Mini App domain routes
type Handler struct {
	service *registration.Service
}

// NewHandler creates a domains handler
func NewHandler(service *registration.Service) *Handler {
	return &Handler{service: service}
}

// QuoteRequest asks for a price
type QuoteRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// RegisterRequest asks for a wallet-paid registration
type RegisterRequest struct {
	Domain      string            `json:"domain" binding:"required"`
	Nameservers []string          `json:"nameservers"`
	UserData    map[string]string `json:"userData"`
	Email       string            `json:"email" binding:"omitempty,email"`
}

// NameserversRequest switches nameservers; Managed ignores Nameservers
type NameserversRequest struct {
	Managed     bool     `json:"managed"`
	Nameservers []string `json:"nameservers"`
}

// OrderRequest opens a crypto-paid order
type OrderRequest struct {
	Domain      string   `json:"domain" binding:"required"`
	Nameservers []string `json:"nameservers"`
	Currency    string   `json:"currency" binding:"required"`
}

// TLDs lists the TLDs on sale
// GET /api/v1/app/tlds
func (h *Handler) TLDs(c *gin.Context) {
	httpx.OK(c, gin.H{"tlds": h.service.SupportedTLDs()})
}

// Quote checks availability and prices a domain
// POST /api/v1/app/quote
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	q, err := h.service.Prepare(c.Request.Context(), req.Domain)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, q)
}

// Register registers a domain from the wallet balance
// POST /api/v1/app/domains
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	res, err := h.service.Register(c.Request.Context(), registration.Request{
		TelegramID:  middleware.TelegramID(c),
		Domain:      req.Domain,
		Nameservers: req.Nameservers,
		UserData:    req.UserData,
		Email:       req.Email,
	})
	if err != nil && (res == nil || res.Outcome != registration.OutcomePartial) {
		common.Fail(c, err)
		return
	}
	httpx.OKMsg(c, string(res.Outcome), res)
}

// List returns the caller's domains
// GET /api/v1/app/domains
func (h *Handler) List(c *gin.Context) {
	items, err := h.service.Domains(c.Request.Context(), middleware.TelegramID(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// SetNameservers switches a domain between managed and custom nameservers
// POST /api/v1/app/nameservers/:name
func (h *Handler) SetNameservers(c *gin.Context) {
	var req NameserversRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	ctx := c.Request.Context()
	id := middleware.TelegramID(c)

	var (
		d   *model.RegisteredDomain
		err error
	)
	if req.Managed {
		d, err = h.service.UseManagedNameservers(ctx, id, c.Param("name"))
	} else {
		d, err = h.service.SetCustomNameservers(ctx, id, c.Param("name"), req.Nameservers)
	}
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, d)
}

// StartOrder opens a crypto-paid order
// POST /api/v1/app/orders
func (h *Handler) StartOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	order, err := h.service.StartOrder(c.Request.Context(), middleware.TelegramID(c), req.Domain, req.Nameservers, req.Currency)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, order)
}

// ListOrders returns the caller's orders
// GET /api/v1/app/orders
func (h *Handler) ListOrders(c *gin.Context) {
	items, err := h.service.Orders(c.Request.Context(), middleware.TelegramID(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// CancelOrder cancels an unpaid order
// POST /api/v1/app/orders/:id/cancel
func (h *Handler) CancelOrder(c *gin.Context) {
	if err := h.service.CancelOrder(c.Request.Context(), middleware.TelegramID(c), c.Param("id")); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}
