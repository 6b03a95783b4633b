package dns

import (
	"context"

	"github.com/gin-gonic/gin"

	"go_domainbot/api/v1/common"
	"go_domainbot/api/v1/middleware"
	"go_domainbot/internal/dns"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/model"
	"go_domainbot/internal/repository"
)

// Handler handles DNS record API requests for the caller's domains
type Handler struct {
	service *dns.Service
	store   *repository.Store
}

// NewHandler creates a new DNS handler
func NewHandler(service *dns.Service, store *repository.Store) *Handler {
	return &Handler{service: service, store: store}
}

// ListRecords lists the mirrored records of a domain
// GET /api/v1/app/domains/:id/records
func (h *Handler) ListRecords(c *gin.Context) {
	domainID, ok := h.ownedDomain(c)
	if !ok {
		return
	}
	items, err := h.service.ListRecords(c.Request.Context(), domainID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OKItems(c, items, int64(len(items)), 1, len(items))
}

// CreateRecord adds a record at the DNS provider and mirrors it
// POST /api/v1/app/domains/:id/records
func (h *Handler) CreateRecord(c *gin.Context) {
	domainID, ok := h.ownedDomain(c)
	if !ok {
		return
	}
	var req dns.RecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	rec, err := h.service.AddRecord(c.Request.Context(), domainID, req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, rec)
}

// UpdateRecord changes a record by its local id
// PUT /api/v1/app/records/:recordId
func (h *Handler) UpdateRecord(c *gin.Context) {
	rec, ok := h.ownedRecord(c)
	if !ok {
		return
	}
	var req dns.RecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	updated, err := h.service.UpdateRecord(c.Request.Context(), rec.ID, req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, updated)
}

// DeleteRecord removes a record at the provider and locally
// DELETE /api/v1/app/records/:recordId
func (h *Handler) DeleteRecord(c *gin.Context) {
	rec, ok := h.ownedRecord(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRecord(c.Request.Context(), rec.ID); err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, nil)
}

// PullRecords refreshes the local mirror from the provider
// POST /api/v1/app/domains/:id/records/pull
func (h *Handler) PullRecords(c *gin.Context) {
	domainID, ok := h.ownedDomain(c)
	if !ok {
		return
	}
	res, err := h.service.PullRecords(c.Request.Context(), domainID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	httpx.OK(c, res)
}

func (h *Handler) ownedDomain(c *gin.Context) (int, bool) {
	id, ok := common.IntParam(c, "id")
	if !ok {
		return 0, false
	}
	if err := h.checkOwner(c.Request.Context(), id, middleware.TelegramID(c)); err != nil {
		common.Fail(c, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) ownedRecord(c *gin.Context) (*model.DNSRecord, bool) {
	id, ok := common.IntParam(c, "recordId")
	if !ok {
		return nil, false
	}
	rec, err := h.store.DNSRecords.Get(c.Request.Context(), id)
	if err == nil {
		err = h.checkOwner(c.Request.Context(), rec.DomainID, middleware.TelegramID(c))
	}
	if err != nil {
		common.Fail(c, err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) checkOwner(ctx context.Context, domainID int, telegramID int64) error {
	d, err := h.store.Domains.Get(ctx, domainID)
	if err != nil {
		return err
	}
	if d.TelegramID != telegramID {
		return repository.ErrNotFound
	}
	return nil
}
