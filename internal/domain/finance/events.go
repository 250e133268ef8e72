package finance

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeAccountMove = "AccountMove"
	AggregateTypeTaxInvoice  = "TaxInvoice"
	AggregateTypePayment     = "Payment"
)

const (
	EventTypeAccountMoveStateChanged = "AccountMoveStateChanged"
	EventTypeTaxInvoiceStateChanged  = "TaxInvoiceStateChanged"
	EventTypePaymentPosted           = "PaymentPosted"
	EventTypePaymentReconciled       = "PaymentReconciled"
)

// AccountMoveStateChangedEvent is raised whenever a move changes state or residual.
// Sales and purchase orders listen to it to refresh their invoicing and payment status.
type AccountMoveStateChangedEvent struct {
	shared.BaseDomainEvent
	MoveID          uuid.UUID        `json:"move_id"`
	MoveType        MoveType         `json:"move_type"`
	OldState        MoveState        `json:"old_state"`
	NewState        MoveState        `json:"new_state"`
	PaymentState    MovePaymentState `json:"payment_state"`
	AmountTotal     decimal.Decimal  `json:"amount_total"`
	AmountResidual  decimal.Decimal  `json:"amount_residual"`
	SaleOrderID     *uuid.UUID       `json:"sale_order_id,omitempty"`
	PurchaseOrderID *uuid.UUID       `json:"purchase_order_id,omitempty"`
}

// NewAccountMoveStateChangedEvent creates a new AccountMoveStateChangedEvent
func NewAccountMoveStateChangedEvent(m *AccountMove, oldState MoveState) *AccountMoveStateChangedEvent {
	return &AccountMoveStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountMoveStateChanged, AggregateTypeAccountMove, m.ID, m.TenantID),
		MoveID:          m.ID,
		MoveType:        m.MoveType,
		OldState:        oldState,
		NewState:        m.State,
		PaymentState:    m.PaymentState,
		AmountTotal:     m.AmountTotal,
		AmountResidual:  m.AmountResidual,
		SaleOrderID:     m.SaleOrderID,
		PurchaseOrderID: m.PurchaseOrderID,
	}
}

// TaxInvoiceStateChangedEvent is raised when a paper invoice is voided or restored
type TaxInvoiceStateChangedEvent struct {
	shared.BaseDomainEvent
	TaxInvoiceID uuid.UUID       `json:"tax_invoice_id"`
	Name         string          `json:"name"`
	State        TaxInvoiceState `json:"state"`
}

// NewTaxInvoiceStateChangedEvent creates a new TaxInvoiceStateChangedEvent
func NewTaxInvoiceStateChangedEvent(t *TaxInvoice) *TaxInvoiceStateChangedEvent {
	return &TaxInvoiceStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaxInvoiceStateChanged, AggregateTypeTaxInvoice, t.ID, t.TenantID),
		TaxInvoiceID:    t.ID,
		Name:            t.Name,
		State:           t.State,
	}
}

// PaymentPostedEvent is raised when a payment is booked and matched
type PaymentPostedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID       `json:"payment_id"`
	PaymentType PaymentType     `json:"payment_type"`
	PartnerType PartnerType     `json:"partner_type"`
	PartnerID   uuid.UUID       `json:"partner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Difference  decimal.Decimal `json:"difference"`
	MoveIDs     []uuid.UUID     `json:"move_ids"`
}

// NewPaymentPostedEvent creates a new PaymentPostedEvent
func NewPaymentPostedEvent(p *Payment) *PaymentPostedEvent {
	return &PaymentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentPosted, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		PaymentType:     p.PaymentType,
		PartnerType:     p.PartnerType,
		PartnerID:       p.PartnerID,
		Amount:          p.Amount,
		Difference:      p.PaymentDifference(),
		MoveIDs:         p.MoveIDs(),
	}
}

// PaymentReconciledEvent is raised when the bank statement line is matched
type PaymentReconciledEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID   `json:"payment_id"`
	MoveIDs   []uuid.UUID `json:"move_ids"`
}

// NewPaymentReconciledEvent creates a new PaymentReconciledEvent
func NewPaymentReconciledEvent(p *Payment) *PaymentReconciledEvent {
	return &PaymentReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReconciled, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		MoveIDs:         p.MoveIDs(),
	}
}
