package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ===================== Account moves =====================

// CreateMoveLineInput is one invoice or entry line
type CreateMoveLineInput struct {
	ProductID  *uuid.UUID      `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	PriceUnit  decimal.Decimal `json:"price_unit"`
	TaxIDs     []uuid.UUID     `json:"tax_ids"`
	SaleLineID *uuid.UUID      `json:"sale_line_id"`
	// entries only
	AccountKind string          `json:"account_kind"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// CreateMoveRequest drafts an invoice, refund or journal entry
type CreateMoveRequest struct {
	MoveType        string                `json:"move_type" binding:"required,oneof=entry out_invoice out_refund in_invoice in_refund"`
	PartnerID       *uuid.UUID            `json:"partner_id"`
	InvoiceDate     *time.Time            `json:"invoice_date"`
	InvoiceDateDue  *time.Time            `json:"invoice_date_due"`
	InvoiceOrigin   string                `json:"invoice_origin"`
	Ref             string                `json:"ref"`
	SaleOrderID     *uuid.UUID            `json:"sale_order_id"`
	PurchaseOrderID *uuid.UUID            `json:"purchase_order_id"`
	Lines           []CreateMoveLineInput `json:"lines" binding:"required,min=1,dive"`
}

// MoveListFilter narrows move listings
type MoveListFilter struct {
	Page            int        `form:"page"`
	PageSize        int        `form:"page_size"`
	Search          string     `form:"search"`
	MoveType        string     `form:"move_type"`
	State           string     `form:"state"`
	PartnerID       *uuid.UUID `form:"partner_id"`
	SaleOrderID     *uuid.UUID `form:"sale_order_id"`
	PurchaseOrderID *uuid.UUID `form:"purchase_order_id"`
	DateFrom        *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo          *time.Time `form:"date_to" time_format:"2006-01-02"`
}

// SetStateRequest moves selected invoices along the delivery workflow
type SetStateRequest struct {
	MoveIDs []uuid.UUID `json:"move_ids" binding:"required,min=1"`
	State   string      `json:"state" binding:"required"`
}

// SetStateResponse reports per-move failures of a bulk state change
type SetStateResponse struct {
	Updated []uuid.UUID       `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// AttachTaxInvoicesRequest links paper invoices to a move
type AttachTaxInvoicesRequest struct {
	TaxInvoiceIDs []uuid.UUID `json:"tax_invoice_ids" binding:"required,min=1"`
}

// ExportMovesRequest selects the invoices to export for tax filing
type ExportMovesRequest struct {
	MoveIDs []uuid.UUID `json:"move_ids" binding:"required,min=1"`
}

// MoveLineResponse is one line of a move
type MoveLineResponse struct {
	ID                    uuid.UUID       `json:"id"`
	AccountKind           string          `json:"account_kind"`
	Name                  string          `json:"name"`
	ProductID             *uuid.UUID      `json:"product_id,omitempty"`
	Quantity              decimal.Decimal `json:"quantity"`
	PriceUnit             decimal.Decimal `json:"price_unit"`
	PriceTotal            decimal.Decimal `json:"price_total"`
	Debit                 decimal.Decimal `json:"debit"`
	Credit                decimal.Decimal `json:"credit"`
	Balance               decimal.Decimal `json:"balance"`
	AmountResidual        decimal.Decimal `json:"amount_residual"`
	ExcludeFromInvoiceTab bool            `json:"exclude_from_invoice_tab"`
	SaleLineID            *uuid.UUID      `json:"sale_line_id,omitempty"`
}

// MoveResponse is an account move with its lines
type MoveResponse struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	MoveType        string             `json:"move_type"`
	State           string             `json:"state"`
	State2          string             `json:"state2"`
	PartnerID       *uuid.UUID         `json:"partner_id,omitempty"`
	PartnerName     string             `json:"partner_name"`
	Currency        string             `json:"currency"`
	InvoiceDate     *time.Time         `json:"invoice_date,omitempty"`
	InvoiceDateDue  *time.Time         `json:"invoice_date_due,omitempty"`
	InvoiceOrigin   string             `json:"invoice_origin"`
	Ref             string             `json:"ref"`
	SaleOrderID     *uuid.UUID         `json:"sale_order_id,omitempty"`
	PurchaseOrderID *uuid.UUID         `json:"purchase_order_id,omitempty"`
	AmountUntaxed   decimal.Decimal    `json:"amount_untaxed"`
	AmountTax       decimal.Decimal    `json:"amount_tax"`
	AmountTotal     decimal.Decimal    `json:"amount_total"`
	AmountResidual  decimal.Decimal    `json:"amount_residual"`
	PaymentState    string             `json:"invoice_payment_state"`
	TaxInvoiceIDs   []uuid.UUID        `json:"tax_invoice_ids"`
	Lines           []MoveLineResponse `json:"lines"`
	Version         int                `json:"version"`
}

// ToMoveResponse converts a move to its response
func ToMoveResponse(m *finance.AccountMove) MoveResponse {
	lines := make([]MoveLineResponse, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = MoveLineResponse{
			ID:                    l.ID,
			AccountKind:           string(l.AccountKind),
			Name:                  l.Name,
			ProductID:             l.ProductID,
			Quantity:              l.Quantity,
			PriceUnit:             l.PriceUnit,
			PriceTotal:            l.PriceTotal,
			Debit:                 l.Debit,
			Credit:                l.Credit,
			Balance:               l.Balance,
			AmountResidual:        l.AmountResidual,
			ExcludeFromInvoiceTab: l.ExcludeFromInvoiceTab,
			SaleLineID:            l.SaleLineID,
		}
	}
	taxInvoices := make([]uuid.UUID, len(m.TaxInvoices))
	for i, ti := range m.TaxInvoices {
		taxInvoices[i] = ti.ID
	}
	return MoveResponse{
		ID:              m.ID,
		Name:            m.Name,
		MoveType:        string(m.MoveType),
		State:           string(m.State),
		State2:          string(m.State2),
		PartnerID:       m.PartnerID,
		PartnerName:     m.PartnerName,
		Currency:        string(m.Currency),
		InvoiceDate:     m.InvoiceDate,
		InvoiceDateDue:  m.InvoiceDateDue,
		InvoiceOrigin:   m.InvoiceOrigin,
		Ref:             m.Ref,
		SaleOrderID:     m.SaleOrderID,
		PurchaseOrderID: m.PurchaseOrderID,
		AmountUntaxed:   m.AmountUntaxed,
		AmountTax:       m.AmountTax,
		AmountTotal:     m.AmountTotal,
		AmountResidual:  m.AmountResidual,
		PaymentState:    string(m.PaymentState),
		TaxInvoiceIDs:   taxInvoices,
		Lines:           lines,
		Version:         m.Version,
	}
}

// ===================== Tax invoices =====================

// CreateTaxInvoiceRequest records a paper invoice
type CreateTaxInvoiceRequest struct {
	Name          string          `json:"name" binding:"required,max=64"`
	Code          string          `json:"code" binding:"required,max=64"`
	PartnerID     *uuid.UUID      `json:"partner_id"`
	AmountUntaxed decimal.Decimal `json:"amount_untaxed"`
	AmountTax     decimal.Decimal `json:"amount_tax"`
	ExpressCode   string          `json:"express_code"`
	InvoiceDate   *time.Time      `json:"invoice_date"`
	SentDate      *time.Time      `json:"sent_date"`
	MoveIDs       []uuid.UUID     `json:"move_ids"`
}

// SetShippingRequest records the courier tracking data of a paper invoice
type SetShippingRequest struct {
	ExpressCode string     `json:"express_code" binding:"required"`
	SentDate    *time.Time `json:"sent_date"`
}

// TaxInvoiceResponse is a paper invoice
type TaxInvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	PartnerID     *uuid.UUID      `json:"partner_id,omitempty"`
	Currency      string          `json:"currency"`
	AmountUntaxed decimal.Decimal `json:"amount_untaxed"`
	AmountTax     decimal.Decimal `json:"amount_tax"`
	AmountTotal   decimal.Decimal `json:"amount_total"`
	ExpressCode   string          `json:"express_code"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	SentDate      time.Time       `json:"sent_date"`
	State         string          `json:"state"`
}

// ToTaxInvoiceResponse converts a paper invoice to its response
func ToTaxInvoiceResponse(t *finance.TaxInvoice) TaxInvoiceResponse {
	return TaxInvoiceResponse{
		ID:            t.ID,
		Name:          t.Name,
		Code:          t.Code,
		PartnerID:     t.PartnerID,
		Currency:      string(t.Currency),
		AmountUntaxed: t.AmountUntaxed,
		AmountTax:     t.AmountTax,
		AmountTotal:   t.AmountTotal,
		ExpressCode:   t.ExpressCode,
		InvoiceDate:   t.InvoiceDate,
		SentDate:      t.SentDate,
		State:         string(t.State),
	}
}

// ===================== Payments =====================

// CreatePaymentRequest drafts a payment
type CreatePaymentRequest struct {
	PaymentType   string          `json:"payment_type" binding:"required,oneof=inbound outbound"`
	PartnerType   string          `json:"partner_type" binding:"required,oneof=customer supplier"`
	PartnerID     uuid.UUID       `json:"partner_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate   *time.Time      `json:"payment_date"`
	JournalKind   string          `json:"journal_kind" binding:"omitempty,oneof=bank cash"`
	PostAtBankRec bool            `json:"post_at_bank_rec"`
	Communication string          `json:"communication"`
}

// AllocationInput assigns part of a payment to one invoice
type AllocationInput struct {
	MoveID uuid.UUID       `json:"move_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// PostPaymentRequest books a payment against open invoices. Without MoveIDs
// every open invoice of the partner is a candidate.
type PostPaymentRequest struct {
	Strategy    string            `json:"strategy" binding:"omitempty,oneof=FIFO MANUAL"`
	MoveIDs     []uuid.UUID       `json:"move_ids"`
	Allocations []AllocationInput `json:"allocations" binding:"dive"`
}

// ReconcileResponse is one partial reconciliation of a payment
type ReconcileResponse struct {
	MoveID         uuid.UUID       `json:"move_id"`
	MoveName       string          `json:"move_name"`
	Amount         decimal.Decimal `json:"amount"`
	BankReconciled bool            `json:"bank_reconciled"`
}

// PaymentResponse is a payment with its reconciliations
type PaymentResponse struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	PaymentType       string              `json:"payment_type"`
	PartnerType       string              `json:"partner_type"`
	PartnerID         uuid.UUID           `json:"partner_id"`
	PartnerName       string              `json:"partner_name"`
	Amount            decimal.Decimal     `json:"amount"`
	Currency          string              `json:"currency"`
	PaymentDate       time.Time           `json:"payment_date"`
	JournalKind       string              `json:"journal_kind"`
	State             string              `json:"state"`
	PaymentDifference decimal.Decimal     `json:"payment_difference"`
	Reconciliations   []ReconcileResponse `json:"reconciliations"`
}

// ToPaymentResponse converts a payment to its response
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	recs := make([]ReconcileResponse, len(p.Reconciliations))
	for i, r := range p.Reconciliations {
		recs[i] = ReconcileResponse{
			MoveID:         r.MoveID,
			MoveName:       r.MoveName,
			Amount:         r.Amount,
			BankReconciled: r.BankReconciled,
		}
	}
	return PaymentResponse{
		ID:                p.ID,
		Name:              p.Name,
		PaymentType:       string(p.PaymentType),
		PartnerType:       string(p.PartnerType),
		PartnerID:         p.PartnerID,
		PartnerName:       p.PartnerName,
		Amount:            p.Amount,
		Currency:          string(p.Currency),
		PaymentDate:       p.PaymentDate,
		JournalKind:       string(p.JournalKind),
		State:             string(p.State),
		PaymentDifference: p.PaymentDifference(),
		Reconciliations:   recs,
	}
}
