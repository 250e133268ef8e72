package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/qm/backend/internal/application/finance"
)

// MovePrinter renders moves for printing
type MovePrinter interface {
	HTML(ctx context.Context, tenantID, id uuid.UUID) (string, error)
	PDF(ctx context.Context, tenantID, id uuid.UUID) (*financeapp.PrintedDocument, error)
	ArchivedURL(ctx context.Context, tenantID, id uuid.UUID) (*financeapp.ArchivedDocument, error)
}

// FinanceHandler serves invoices, payments and paper tax invoices
type FinanceHandler struct {
	BaseHandler
	moveService       *financeapp.MoveService
	paymentService    *financeapp.PaymentService
	taxInvoiceService *financeapp.TaxInvoiceService
	printer           MovePrinter
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(
	moveService *financeapp.MoveService,
	paymentService *financeapp.PaymentService,
	taxInvoiceService *financeapp.TaxInvoiceService,
	printer MovePrinter,
) *FinanceHandler {
	return &FinanceHandler{
		moveService:       moveService,
		paymentService:    paymentService,
		taxInvoiceService: taxInvoiceService,
		printer:           printer,
	}
}

// CreateMove handles POST /moves
func (h *FinanceHandler) CreateMove(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req financeapp.CreateMoveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.moveService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetMove handles GET /moves/:id
func (h *FinanceHandler) GetMove(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.moveService.GetByID)
}

// ListMoves handles GET /moves
func (h *FinanceHandler) ListMoves(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var filter financeapp.MoveListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.moveService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// PostMove handles POST /moves/:id/post
func (h *FinanceHandler) PostMove(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.moveService.Post)
}

// CancelMove handles POST /moves/:id/cancel
func (h *FinanceHandler) CancelMove(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.moveService.Cancel)
}

// ResetMove handles POST /moves/:id/draft
func (h *FinanceHandler) ResetMove(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.moveService.ResetToDraft)
}

// SetMoveState handles POST /moves/set-state
func (h *FinanceHandler) SetMoveState(c *gin.Context) {
	h.bulkState(c, false)
}

// SetMoveState2 handles POST /moves/set-state2, the second delivery track
func (h *FinanceHandler) SetMoveState2(c *gin.Context) {
	h.bulkState(c, true)
}

func (h *FinanceHandler) bulkState(c *gin.Context, second bool) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req financeapp.SetStateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	apply := h.moveService.SetState
	if second {
		apply = h.moveService.SetState2
	}
	resp, err := apply(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AttachTaxInvoices handles POST /moves/:id/tax-invoices
func (h *FinanceHandler) AttachTaxInvoices(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req financeapp.AttachTaxInvoicesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.moveService.AttachTaxInvoices(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ExportMoves handles POST /moves/export
func (h *FinanceHandler) ExportMoves(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req financeapp.ExportMovesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rows, err := h.moveService.Export(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// PrintMove handles GET /moves/:id/print. The PDF is the default; format=html
// returns the page the PDF is printed from.
func (h *FinanceHandler) PrintMove(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if c.Query("format") == "html" {
		page, err := h.printer.HTML(c.Request.Context(), tenantID, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}
	doc, err := h.printer.PDF(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.PDF)
}

// ArchivedMovePDF handles GET /moves/:id/print/archive
func (h *FinanceHandler) ArchivedMovePDF(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.printer.ArchivedURL)
}

// CreatePayment handles POST /payments
func (h *FinanceHandler) CreatePayment(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req financeapp.CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.paymentService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetPayment handles GET /payments/:id
func (h *FinanceHandler) GetPayment(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.paymentService.GetByID)
}

// ListPayments handles GET /payments
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.paymentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// PostPayment handles POST /payments/:id/post. An empty body uses the default
// allocation over every open invoice of the partner.
func (h *FinanceHandler) PostPayment(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req financeapp.PostPaymentRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.paymentService.Post(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReconcilePayment handles POST /payments/:id/bank-reconciled
func (h *FinanceHandler) ReconcilePayment(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.paymentService.MarkBankReconciled)
}

// CancelPayment handles POST /payments/:id/cancel
func (h *FinanceHandler) CancelPayment(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.paymentService.Cancel)
}

// CreateTaxInvoice handles POST /tax-invoices
func (h *FinanceHandler) CreateTaxInvoice(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req financeapp.CreateTaxInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.taxInvoiceService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetTaxInvoice handles GET /tax-invoices/:id
func (h *FinanceHandler) GetTaxInvoice(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.taxInvoiceService.GetByID)
}

// ListTaxInvoices handles GET /tax-invoices
func (h *FinanceHandler) ListTaxInvoices(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.taxInvoiceService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// SetTaxInvoiceShipping handles PUT /tax-invoices/:id/shipping
func (h *FinanceHandler) SetTaxInvoiceShipping(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req financeapp.SetShippingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.taxInvoiceService.SetShipping(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DoneTaxInvoice handles POST /tax-invoices/:id/done
func (h *FinanceHandler) DoneTaxInvoice(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.taxInvoiceService.Done)
}

// CancelTaxInvoice handles POST /tax-invoices/:id/cancel
func (h *FinanceHandler) CancelTaxInvoice(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.taxInvoiceService.Cancel)
}
