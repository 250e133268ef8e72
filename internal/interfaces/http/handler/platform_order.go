package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/qm/backend/internal/application/trade"
)

// PlatformOrderHandler serves orders imported from marketplace exports
type PlatformOrderHandler struct {
	BaseHandler
	orderService  *tradeapp.PlatformOrderService
	maxUploadSize int64
}

// NewPlatformOrderHandler creates a new PlatformOrderHandler
func NewPlatformOrderHandler(orderService *tradeapp.PlatformOrderService, maxUploadSize int64) *PlatformOrderHandler {
	return &PlatformOrderHandler{orderService: orderService, maxUploadSize: maxUploadSize}
}

// Import handles POST /platform-orders/import. JSON bodies carry parsed
// rows; multipart bodies carry the marketplace CSV export.
func (h *PlatformOrderHandler) Import(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.importCSV(c, tenantID)
		return
	}
	var req tradeapp.ImportPlatformOrdersRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orderService.Import(c.Request.Context(), tenantID, req.Rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *PlatformOrderHandler) importCSV(c *gin.Context, tenantID uuid.UUID) {
	file, opts, ok := h.uploadFile(c, h.maxUploadSize)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.orderService.ImportCSV(c.Request.Context(), tenantID, file, opts...)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID handles GET /platform-orders/:id
func (h *PlatformOrderHandler) GetByID(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.GetByID)
}

// List handles GET /platform-orders
func (h *PlatformOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, items, total, filter.Page, filter.PageSize)
}

// MarkWaiting handles POST /platform-orders/:id/waiting
func (h *PlatformOrderHandler) MarkWaiting(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.MarkWaiting)
}

// MarkDone handles POST /platform-orders/:id/done
func (h *PlatformOrderHandler) MarkDone(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.MarkDone)
}
