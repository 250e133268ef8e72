package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/qm/backend/internal/application/trade"
)

// SalesOrderHandler serves sales orders and their invoicing
type SalesOrderHandler struct {
	BaseHandler
	orderService *tradeapp.SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *tradeapp.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService}
}

// Create handles POST /sales-orders
func (h *SalesOrderHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req tradeapp.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.orderService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID handles GET /sales-orders/:id
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.orderService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /sales-orders
func (h *SalesOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var filter tradeapp.SalesOrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, items, total, filter.Page, filter.PageSize)
}

// Confirm handles POST /sales-orders/:id/confirm
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.Confirm)
}

// Cancel handles POST /sales-orders/:id/cancel
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.Cancel)
}

// ActionToInvoice handles POST /sales-orders/action-to-invoice
func (h *SalesOrderHandler) ActionToInvoice(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req tradeapp.ActionToInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.orderService.ActionToInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateInvoice handles POST /sales-orders/:id/invoice
func (h *SalesOrderHandler) CreateInvoice(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.orderService.CreateInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
