package admin

import (
	"github.com/gin-gonic/gin"

	"go_domainbot/api/v1/common"
	"go_domainbot/internal/hosting/whm"
	"go_domainbot/internal/httpx"
)

// CreateAccountRequest creates a hosting account
type CreateAccountRequest struct {
	Domain   string `json:"domain" binding:"required"`
	Username string `json:"username" binding:"required,max=16"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"required,email"`
	Plan     string `json:"plan"`
}

// SuspendRequest carries the suspension reason
type SuspendRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) panelReady(c *gin.Context) bool {
	if h.hosting == nil || !h.hosting.Configured() {
		httpx.FailErr(c, httpx.ErrStateConflict("hosting panel is not configured"))
		return false
	}
	return true
}

// ListAccounts lists hosting accounts
// GET /api/v1/admin/hosting/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	if !h.panelReady(c) {
		return
	}
	items, err := h.hosting.ListAccounts(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// AccountInfo returns one hosting account
// GET /api/v1/admin/hosting/accounts/:user
func (h *Handler) AccountInfo(c *gin.Context) {
	if !h.panelReady(c) {
		return
	}
	acct, err := h.hosting.AccountInfo(c.Request.Context(), c.Param("user"))
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, acct)
}

// CreateAccount creates a hosting account
// POST /api/v1/admin/hosting/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	if !h.panelReady(c) {
		return
	}
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	err := h.hosting.CreateAccount(c.Request.Context(), whm.CreateAccountRequest{
		Domain:   req.Domain,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Plan:     req.Plan,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OKMsg(c, "created", gin.H{"user": req.Username, "domain": req.Domain})
}

// SuspendAccount suspends a hosting account
// POST /api/v1/admin/hosting/accounts/:user/suspend
func (h *Handler) SuspendAccount(c *gin.Context) {
	if !h.panelReady(c) {
		return
	}
	var req SuspendRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.hosting.SuspendAccount(c.Request.Context(), c.Param("user"), req.Reason); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}

// UnsuspendAccount lifts a suspension
// POST /api/v1/admin/hosting/accounts/:user/unsuspend
func (h *Handler) UnsuspendAccount(c *gin.Context) {
	if !h.panelReady(c) {
		return
	}
	if err := h.hosting.UnsuspendAccount(c.Request.Context(), c.Param("user")); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}

// TerminateAccount removes a hosting account
// DELETE /api/v1/admin/hosting/accounts/:user
func (h *Handler) TerminateAccount(c *gin.Context) {
	if !h.panelReady(c) {
		return
	}
	keepDNS := c.Query("keepDns") == "1" || c.Query("keepDns") == "true"
	if err := h.hosting.TerminateAccount(c.Request.Context(), c.Param("user"), keepDNS); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}
