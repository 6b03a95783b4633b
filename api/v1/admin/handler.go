package admin

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"go_domainbot/api/v1/common"
	"go_domainbot/internal/hosting/whm"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
)

// HostingPanel is the WHM surface exposed to operators
type HostingPanel interface {
	Configured() bool
	ListAccounts(ctx context.Context) ([]whm.Account, error)
	AccountInfo(ctx context.Context, user string) (*whm.Account, error)
	CreateAccount(ctx context.Context, req whm.CreateAccountRequest) error
	SuspendAccount(ctx context.Context, user, reason string) error
	UnsuspendAccount(ctx context.Context, user string) error
	TerminateAccount(ctx context.Context, user string, keepDNS bool) error
}

// SyncQueue accepts domains for a DNS pull
type SyncQueue interface {
	Enqueue(domainID int)
}

// Handler serves operator routes
type Handler struct {
	store        *repository.Store
	registration *registration.Service
	hosting      HostingPanel
	sync         SyncQueue
}

// NewHandler creates an admin handler; sync may be nil
func NewHandler(store *repository.Store, reg *registration.Service, hosting HostingPanel, sync SyncQueue) *Handler {
	return &Handler{store: store, registration: reg, hosting: hosting, sync: sync}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	return page, size
}

// ListUsers lists bot users
// GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	page, size := pageParams(c)
	items, total, err := h.store.Users.List(c.Request.Context(), page, size)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OKItems(c, items, total, page, size)
}

// SetAdminRequest toggles the admin flag
type SetAdminRequest struct {
	Admin bool `json:"admin"`
}

// SetAdmin toggles a user's admin flag
// POST /api/v1/admin/users/:id/admin
func (h *Handler) SetAdmin(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid id"))
		return
	}
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	if err := h.store.Users.SetAdmin(c.Request.Context(), id, req.Admin); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}

// ListDomains lists registered domains, filtered by keyword
// GET /api/v1/admin/domains
func (h *Handler) ListDomains(c *gin.Context) {
	page, size := pageParams(c)
	items, total, err := h.store.Domains.List(c.Request.Context(), page, size, c.Query("keyword"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OKItems(c, items, total, page, size)
}

// DeleteDomain hard deletes a domain record; the registrar is not touched
// DELETE /api/v1/admin/domains/:id
func (h *Handler) DeleteDomain(c *gin.Context) {
	id, ok := common.IntParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.Domains.Delete(c.Request.Context(), id); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}

// SyncDomain queues a DNS pull for a domain
// POST /api/v1/admin/domains/:id/sync
func (h *Handler) SyncDomain(c *gin.Context) {
	id, ok := common.IntParam(c, "id")
	if !ok {
		return
	}
	if h.sync == nil {
		httpx.FailErr(c, httpx.ErrStateConflict("dns sync is disabled"))
		return
	}
	if _, err := h.store.Domains.Get(c.Request.Context(), id); err != nil {
		common.Fail(c, err)
		return
	}
	h.sync.Enqueue(id)
	httpx.OKMsg(c, "queued", gin.H{"domainId": id})
}

// ListNotifications lists unresolved operator notifications
// GET /api/v1/admin/notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	items, err := h.registration.Notifications(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// ResolveNotification marks a notification handled
// POST /api/v1/admin/notifications/:id/resolve
func (h *Handler) ResolveNotification(c *gin.Context) {
	id, ok := common.IntParam(c, "id")
	if !ok {
		return
	}
	if err := h.registration.ResolveNotification(c.Request.Context(), id); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}

// Reconcile retries DNS setup for domains without a zone
// POST /api/v1/admin/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	res, err := h.registration.Reconcile(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

// Usage lists recent upstream provider calls
// GET /api/v1/admin/usage
func (h *Handler) Usage(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	items, err := h.store.Usage.Recent(c.Request.Context(), c.Query("service"), limit)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// TranslationRequest stores one bot message
type TranslationRequest struct {
	Key      string `json:"key" binding:"required,max=128"`
	Language string `json:"language" binding:"required,max=8"`
	Text     string `json:"text" binding:"required"`
}

// ListTranslations lists stored bot messages for a language
// GET /api/v1/admin/translations
func (h *Handler) ListTranslations(c *gin.Context) {
	items, err := h.store.Translations.List(c.Request.Context(), c.DefaultQuery("language", "en"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// UpsertTranslation stores a bot message. Cached copies expire on their TTL.
// POST /api/v1/admin/translations
func (h *Handler) UpsertTranslation(c *gin.Context) {
	var req TranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	if err := h.store.Translations.Upsert(c.Request.Context(), req.Key, req.Language, req.Text); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OK(c, nil)
}

// SettingRequest stores one runtime setting
type SettingRequest struct {
	Value string `json:"value"`
}

// GetSetting returns a runtime setting
// GET /api/v1/admin/settings/:key
func (h *Handler) GetSetting(c *gin.Context) {
	v, err := h.store.Settings.Get(c.Request.Context(), c.Param("key"), "")
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OK(c, gin.H{"key": c.Param("key"), "value": v})
}

// PutSetting stores a runtime setting
// PUT /api/v1/admin/settings/:key
func (h *Handler) PutSetting(c *gin.Context) {
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	if err := h.store.Settings.Set(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OK(c, nil)
}
