package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/qm/backend/internal/application/partner"
)

// PartnerHandler serves customers, vendors and their addresses
type PartnerHandler struct {
	BaseHandler
	partnerService *partnerapp.PartnerService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partnerService *partnerapp.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

// Create handles POST /partners
func (h *PartnerHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req partnerapp.CreatePartnerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.partnerService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /partners
func (h *PartnerHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.partnerService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, items, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /partners/:id
func (h *PartnerHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.partnerService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetInvoiceFields handles PUT /partners/:id/invoice-fields
func (h *PartnerHandler) SetInvoiceFields(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req partnerapp.SetInvoiceFieldsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.partnerService.SetInvoiceFields(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddBankAccount handles POST /partners/:id/bank-accounts
func (h *PartnerHandler) AddBankAccount(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req partnerapp.AddBankAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.partnerService.AddBankAccount(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
