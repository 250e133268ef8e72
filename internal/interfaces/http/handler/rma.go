package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/qm/backend/internal/application/trade"
)

// RMAHandler serves returns and exchanges of sold goods
type RMAHandler struct {
	BaseHandler
	rmaService *tradeapp.RMAService
}

// NewRMAHandler creates a new RMAHandler
func NewRMAHandler(rmaService *tradeapp.RMAService) *RMAHandler {
	return &RMAHandler{rmaService: rmaService}
}

// Create handles POST /rmas
func (h *RMAHandler) Create(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req tradeapp.CreateRMARequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.rmaService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID handles GET /rmas/:id
func (h *RMAHandler) GetByID(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.rmaService.GetByID)
}

// List handles GET /rmas
func (h *RMAHandler) List(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.rmaService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, items, total, filter.Page, filter.PageSize)
}

// ListBySaleOrder handles GET /sales-orders/:id/rmas
func (h *RMAHandler) ListBySaleOrder(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.rmaService.ListBySaleOrder)
}

// AddReturnLine handles POST /rmas/:id/return-lines
func (h *RMAHandler) AddReturnLine(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req tradeapp.AddReturnLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.rmaService.AddReturnLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateReturnLine handles PUT /rmas/:id/return-lines/:line_id
func (h *RMAHandler) UpdateReturnLine(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	lineID, ok := h.ParamID(c, "line_id")
	if !ok {
		return
	}
	var req tradeapp.UpdateReturnLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.rmaService.UpdateReturnLine(c.Request.Context(), tenantID, id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddExchangeLine handles POST /rmas/:id/exchange-lines
func (h *RMAHandler) AddExchangeLine(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req tradeapp.AddExchangeLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.rmaService.AddExchangeLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveLine handles DELETE /rmas/:id/lines/:line_id
func (h *RMAHandler) RemoveLine(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	lineID, ok := h.ParamID(c, "line_id")
	if !ok {
		return
	}
	resp, err := h.rmaService.RemoveLine(c.Request.Context(), tenantID, id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Post handles POST /rmas/:id/post
func (h *RMAHandler) Post(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.rmaService.Post)
}

// Done handles POST /rmas/:id/done
func (h *RMAHandler) Done(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.rmaService.Done)
}

// Cancel handles POST /rmas/:id/cancel
func (h *RMAHandler) Cancel(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.rmaService.Cancel)
}

// ResetToDraft handles POST /rmas/:id/draft
func (h *RMAHandler) ResetToDraft(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.rmaService.ResetToDraft)
}
