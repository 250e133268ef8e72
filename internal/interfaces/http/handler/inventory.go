package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/qm/backend/internal/application/inventory"
)

// InventoryHandler serves pickings and the per-company warehouse setup
type InventoryHandler struct {
	BaseHandler
	pickingService *inventoryapp.PickingService
	setupService   *inventoryapp.CompanySetupService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(pickingService *inventoryapp.PickingService, setupService *inventoryapp.CompanySetupService) *InventoryHandler {
	return &InventoryHandler{pickingService: pickingService, setupService: setupService}
}

// GetPicking handles GET /pickings/:id
func (h *InventoryHandler) GetPicking(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.pickingService.GetByID)
}

// ListPickings handles GET /pickings
func (h *InventoryHandler) ListPickings(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var filter inventoryapp.PickingListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.pickingService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// SetExpressCode handles PUT /pickings/:id/express-code
func (h *InventoryHandler) SetExpressCode(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req inventoryapp.SetExpressCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.pickingService.SetExpressCode(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ValidatePicking handles POST /pickings/:id/validate
func (h *InventoryHandler) ValidatePicking(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.pickingService.Validate)
}

// CancelPicking handles POST /pickings/:id/cancel
func (h *InventoryHandler) CancelPicking(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.pickingService.Cancel)
}

// EnsureSetup handles POST /company/setup for the caller's company
func (h *InventoryHandler) EnsureSetup(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	resp, err := h.setupService.EnsureCompanySetup(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateMissingSetups handles POST /admin/company-setups
func (h *InventoryHandler) CreateMissingSetups(c *gin.Context) {
	resp, err := h.setupService.CreateMissing(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
