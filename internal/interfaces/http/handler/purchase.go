package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/qm/backend/internal/application/trade"
)

// PurchaseHandler serves purchase orders and the purchase requests that feed them
type PurchaseHandler struct {
	BaseHandler
	orderService   *tradeapp.PurchaseOrderService
	requestService *tradeapp.PurchaseRequestService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(orderService *tradeapp.PurchaseOrderService, requestService *tradeapp.PurchaseRequestService) *PurchaseHandler {
	return &PurchaseHandler{orderService: orderService, requestService: requestService}
}

// GetOrder handles GET /purchase-orders/:id
func (h *PurchaseHandler) GetOrder(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.GetByID)
}

// ListOrders handles GET /purchase-orders
func (h *PurchaseHandler) ListOrders(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var filter tradeapp.PurchaseOrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// ConfirmOrder handles POST /purchase-orders/:id/confirm. The body is optional.
func (h *PurchaseHandler) ConfirmOrder(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req tradeapp.ConfirmPurchaseOrderRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.orderService.Confirm(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApproveOrder handles POST /purchase-orders/:id/approve
func (h *PurchaseHandler) ApproveOrder(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.Approve)
}

// CancelOrder handles POST /purchase-orders/:id/cancel
func (h *PurchaseHandler) CancelOrder(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.Cancel)
}

// ResetOrder handles POST /purchase-orders/:id/draft
func (h *PurchaseHandler) ResetOrder(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.orderService.ResetToDraft)
}

// CreateBill handles POST /purchase-orders/:id/bill
func (h *PurchaseHandler) CreateBill(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.orderService.CreateBill(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetRequest handles GET /purchase-requests/:id
func (h *PurchaseHandler) GetRequest(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.requestService.GetByID)
}

// ListRequests handles GET /purchase-requests
func (h *PurchaseHandler) ListRequests(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var filter tradeapp.RequestListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.requestService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// SetRequestPartner handles PUT /purchase-requests/:id/partner
func (h *PurchaseHandler) SetRequestPartner(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req tradeapp.SetRequestPartnerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.requestService.SetPartner(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelRequest handles POST /purchase-requests/:id/cancel
func (h *PurchaseHandler) CancelRequest(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.requestService.Cancel)
}

// ReopenRequest handles POST /purchase-requests/:id/reopen
func (h *PurchaseHandler) ReopenRequest(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.requestService.Reopen)
}

// DoneRequest handles POST /purchase-requests/:id/done
func (h *PurchaseHandler) DoneRequest(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.requestService.MarkDone)
}

// OrderFromRequests handles POST /purchase-requests/purchase-order. An
// empty selection drafts nothing and answers 204.
func (h *PurchaseHandler) OrderFromRequests(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req tradeapp.CreatePurchaseOrderFromRequestsRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.requestService.CreatePurchaseOrder(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp == nil {
		h.NoContent(c)
		return
	}
	h.Created(c, resp)
}
