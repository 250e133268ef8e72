package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PurchaseState represents the state of a purchase order
type PurchaseState string

const (
	PurchaseStateDraft     PurchaseState = "draft"
	PurchaseStateSent      PurchaseState = "sent"
	PurchaseStateToApprove PurchaseState = "to_approve"
	PurchaseStatePurchase  PurchaseState = "purchase"
	PurchaseStateDone      PurchaseState = "done"
	PurchaseStateCancel    PurchaseState = "cancel"
)

// IsValid checks if the state is known
func (s PurchaseState) IsValid() bool {
	switch s {
	case PurchaseStateDraft, PurchaseStateSent, PurchaseStateToApprove, PurchaseStatePurchase, PurchaseStateDone, PurchaseStateCancel:
		return true
	}
	return false
}

// CanTransitionTo checks if the state can transition to the target state
func (s PurchaseState) CanTransitionTo(target PurchaseState) bool {
	switch s {
	case PurchaseStateDraft:
		return target == PurchaseStateSent || target == PurchaseStateToApprove || target == PurchaseStatePurchase || target == PurchaseStateCancel
	case PurchaseStateSent:
		return target == PurchaseStateToApprove || target == PurchaseStatePurchase || target == PurchaseStateCancel
	case PurchaseStateToApprove:
		return target == PurchaseStatePurchase || target == PurchaseStateCancel
	case PurchaseStatePurchase:
		return target == PurchaseStateDone || target == PurchaseStateCancel
	case PurchaseStateCancel:
		return target == PurchaseStateDraft
	}
	return false
}

// PaymentState summarizes how much of a purchase order has been paid
type PaymentState string

const (
	PaymentStateNotPaid   PaymentState = "not_paid"
	PaymentStateInPayment PaymentState = "in_payment"
	PaymentStatePaid      PaymentState = "paid"
)

// paymentTolerance is the rounding below which paid and total compare equal
var paymentTolerance = decimal.NewFromFloat(0.01)

// PurchaseOrderLine is a line of a purchase order
type PurchaseOrderLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode   string          `gorm:"type:varchar(64)"`
	Name          string          `gorm:"type:text;not null"`
	Quantity      decimal.Decimal `gorm:"column:product_qty;type:decimal(18,4);not null"`
	UomID         uuid.UUID       `gorm:"type:uuid;not null"`
	UomName       string          `gorm:"type:varchar(50)"`
	PriceUnit     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PriceSubtotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PriceTax      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PriceTotal    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DatePlanned   time.Time       `gorm:"not null"`
	RequestID     *uuid.UUID      `gorm:"type:uuid;index"`
	SaleLineID    *uuid.UUID      `gorm:"type:uuid;index"`
	QtyReceived   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyInvoiced   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Taxes         []catalog.Tax   `gorm:"many2many:purchase_order_line_taxes"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}

func (l *PurchaseOrderLine) computeAmounts() {
	r := catalog.ComputeAll(l.PriceUnit, l.Quantity, l.Taxes)
	l.PriceSubtotal = r.Untaxed
	l.PriceTax = r.Tax
	l.PriceTotal = r.Total
	l.UpdatedAt = time.Now()
}

// PurchaseOrderSaleOrder links a purchase order to the sales orders it was drafted for
type PurchaseOrderSaleOrder struct {
	PurchaseOrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SaleOrderID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (PurchaseOrderSaleOrder) TableName() string {
	return "purchase_order_sale_orders"
}

// PurchaseOrder represents a purchase order aggregate root
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber    string               `gorm:"type:varchar(50);not null;index"`
	VendorID       uuid.UUID            `gorm:"column:partner_id;type:uuid;not null;index"`
	VendorName     string               `gorm:"type:varchar(200);not null"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'CNY'"`
	PickingTypeID  *uuid.UUID           `gorm:"type:uuid"`
	IsDropshipping bool                 `gorm:"not null;default:false"`
	DestAddressID  *uuid.UUID           `gorm:"type:uuid"`
	Origin         string               `gorm:"type:varchar(500)"`
	DateOrder      time.Time            `gorm:"not null"`
	State          PurchaseState        `gorm:"type:varchar(20);not null;default:'draft';index"`
	PaymentState   PaymentState         `gorm:"type:varchar(20);not null;default:'not_paid';index"`
	AmountUntaxed  decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax      decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal    decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ApprovedAt     *time.Time
	CancelledAt    *time.Time
	Lines          []PurchaseOrderLine      `gorm:"foreignKey:OrderID;references:ID"`
	SaleOrders     []PurchaseOrderSaleOrder `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a draft purchase order for a company vendor
func NewPurchaseOrder(tenantID uuid.UUID, orderNumber string, vendor *partner.Partner, currency valueobject.Currency) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if vendor == nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor cannot be empty")
	}
	if vendor.TenantID != tenantID {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor belongs to another company")
	}
	if err := vendor.RequireCompany(); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency "+string(currency))
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		VendorID:            vendor.ID,
		VendorName:          vendor.Name,
		Currency:            currency,
		DateOrder:           time.Now(),
		State:               PurchaseStateDraft,
		PaymentState:        PaymentStateNotPaid,
		Lines:               make([]PurchaseOrderLine, 0),
	}
	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))
	return order, nil
}

func (o *PurchaseOrder) isEditable() bool {
	return o.State == PurchaseStateDraft || o.State == PurchaseStateSent || o.State == PurchaseStateToApprove
}

// PurchaseLineInput describes a new purchase order line
type PurchaseLineInput struct {
	ProductID   uuid.UUID
	ProductCode string
	Name        string
	Quantity    decimal.Decimal
	UomID       uuid.UUID
	UomName     string
	PriceUnit   decimal.Decimal
	Taxes       []catalog.Tax
	DatePlanned time.Time
	RequestID   *uuid.UUID
	SaleLineID  *uuid.UUID
}

// AddLine appends a line to an editable order
func (o *PurchaseOrder) AddLine(in PurchaseLineInput) (*PurchaseOrderLine, error) {
	if !o.isEditable() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a confirmed purchase order")
	}
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.PriceUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.DatePlanned.IsZero() {
		in.DatePlanned = time.Now()
	}
	now := time.Now()
	line := PurchaseOrderLine{
		ID:          uuid.New(),
		TenantID:    o.TenantID,
		OrderID:     o.ID,
		ProductID:   in.ProductID,
		ProductCode: in.ProductCode,
		Name:        in.Name,
		Quantity:    in.Quantity,
		UomID:       in.UomID,
		UomName:     in.UomName,
		PriceUnit:   in.PriceUnit,
		Taxes:       in.Taxes,
		DatePlanned: in.DatePlanned,
		RequestID:   in.RequestID,
		SaleLineID:  in.SaleLineID,
		CreatedAt:   now,
	}
	line.computeAmounts()
	o.Lines = append(o.Lines, line)
	o.recalculateTotals()
	o.Touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// UpdateLineQuantity changes the quantity of a line
func (o *PurchaseOrder) UpdateLineQuantity(lineID uuid.UUID, quantity decimal.Decimal) error {
	if !o.isEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update lines of a confirmed purchase order")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			o.Lines[i].Quantity = quantity
			o.Lines[i].computeAmounts()
			o.recalculateTotals()
			o.Touch()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
}

func (o *PurchaseOrder) recalculateTotals() {
	o.AmountUntaxed = decimal.Zero
	o.AmountTax = decimal.Zero
	for _, l := range o.Lines {
		o.AmountUntaxed = o.AmountUntaxed.Add(l.PriceSubtotal)
		o.AmountTax = o.AmountTax.Add(l.PriceTax)
	}
	o.AmountTotal = o.AmountUntaxed.Add(o.AmountTax)
}

// AttachSaleOrders records the sales orders the purchase serves
func (o *PurchaseOrder) AttachSaleOrders(ids ...uuid.UUID) {
	for _, id := range ids {
		found := false
		for _, link := range o.SaleOrders {
			if link.SaleOrderID == id {
				found = true
				break
			}
		}
		if !found {
			o.SaleOrders = append(o.SaleOrders, PurchaseOrderSaleOrder{PurchaseOrderID: o.ID, SaleOrderID: id})
		}
	}
}

// SaleOrderIDs returns the linked sales order ids
func (o *PurchaseOrder) SaleOrderIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.SaleOrders))
	for i, link := range o.SaleOrders {
		ids[i] = link.SaleOrderID
	}
	return ids
}

// RequestIDs returns the purchase requests the lines were drafted from
func (o *PurchaseOrder) RequestIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, l := range o.Lines {
		if l.RequestID != nil && !seen[*l.RequestID] {
			seen[*l.RequestID] = true
			ids = append(ids, *l.RequestID)
		}
	}
	return ids
}

func (o *PurchaseOrder) transition(target PurchaseState) error {
	if !o.State.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move purchase order from %s to %s", o.State, target))
	}
	o.State = target
	o.Touch()
	return nil
}

// MarkSent records that the RFQ was sent to the vendor
func (o *PurchaseOrder) MarkSent() error {
	return o.transition(PurchaseStateSent)
}

// Confirm confirms the order, or parks it for approval when needsApproval is set
func (o *PurchaseOrder) Confirm(needsApproval bool) error {
	if len(o.Lines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm purchase order without lines")
	}
	if needsApproval && o.State != PurchaseStateToApprove {
		return o.transition(PurchaseStateToApprove)
	}
	return o.Approve()
}

// Approve confirms an order waiting for approval
func (o *PurchaseOrder) Approve() error {
	if err := o.transition(PurchaseStatePurchase); err != nil {
		return err
	}
	now := time.Now()
	o.ApprovedAt = &now
	o.AddDomainEvent(NewPurchaseOrderConfirmedEvent(o))
	return nil
}

// Lock marks a confirmed order done
func (o *PurchaseOrder) Lock() error {
	return o.transition(PurchaseStateDone)
}

// Cancel cancels the order; its purchase requests get their quantity back
func (o *PurchaseOrder) Cancel() error {
	if err := o.transition(PurchaseStateCancel); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o))
	return nil
}

// ResetToDraft reopens a cancelled order
func (o *PurchaseOrder) ResetToDraft() error {
	if err := o.transition(PurchaseStateDraft); err != nil {
		return err
	}
	o.CancelledAt = nil
	o.AddDomainEvent(NewPurchaseOrderReopenedEvent(o))
	return nil
}

// countsAsBilled reports whether a bill contributes to the paid amount
func countsAsBilled(m *finance.AccountMove) bool {
	return m.MoveType.IsPurchase() && m.State.IsPostedLike() && m.State != finance.MoveStateReturned
}

// ComputePaymentState derives payment_state from the paid amount of the order's bills
func (o *PurchaseOrder) ComputePaymentState(bills []finance.AccountMove) PaymentState {
	paid := decimal.Zero
	for i := range bills {
		b := &bills[i]
		if b.PurchaseOrderID == nil || *b.PurchaseOrderID != o.ID || !countsAsBilled(b) {
			continue
		}
		amount := b.AmountPaid()
		if b.MoveType == finance.MoveTypeInRefund {
			amount = amount.Neg()
		}
		paid = paid.Add(amount)
	}
	if paid.Sub(o.AmountTotal).Abs().LessThan(paymentTolerance) {
		return PaymentStatePaid
	}
	if paid.Round(2).IsPositive() {
		return PaymentStateInPayment
	}
	return PaymentStateNotPaid
}

// RefreshPaymentState recomputes payment_state and reports whether it changed
func (o *PurchaseOrder) RefreshPaymentState(bills []finance.AccountMove) bool {
	next := o.ComputePaymentState(bills)
	if next == o.PaymentState {
		return false
	}
	old := o.PaymentState
	o.PaymentState = next
	o.Touch()
	o.AddDomainEvent(NewPurchaseOrderPaymentStateChangedEvent(o, old))
	return true
}

// CreateBill drafts a vendor bill for the ordered quantity not billed yet
func (o *PurchaseOrder) CreateBill() (*finance.AccountMove, error) {
	if o.State != PurchaseStatePurchase && o.State != PurchaseStateDone {
		return nil, shared.NewDomainError("INVALID_STATE", "Only confirmed purchase orders can be billed")
	}
	vendorID := o.VendorID
	bill, err := finance.NewAccountMove(o.TenantID, finance.MoveTypeInInvoice, &vendorID, o.VendorName)
	if err != nil {
		return nil, err
	}
	orderID := o.ID
	bill.PurchaseOrderID = &orderID
	bill.InvoiceOrigin = o.OrderNumber
	bill.Currency = o.Currency

	for i := range o.Lines {
		l := &o.Lines[i]
		qty := l.Quantity.Sub(l.QtyInvoiced)
		if !qty.IsPositive() {
			continue
		}
		productID := l.ProductID
		lineID := l.ID
		if _, err := bill.AddInvoiceLine(finance.InvoiceLineInput{
			ProductID:      &productID,
			Name:           strings.SplitN(l.Name, "\n", 2)[0],
			UomName:        l.UomName,
			Quantity:       qty,
			PriceUnit:      l.PriceUnit,
			Taxes:          l.Taxes,
			PurchaseLineID: &lineID,
		}); err != nil {
			return nil, err
		}
		l.QtyInvoiced = l.QtyInvoiced.Add(qty)
	}
	if len(bill.Lines) == 0 {
		return nil, shared.NewDomainError("NOTHING_TO_INVOICE", "There is nothing left to bill on order "+o.OrderNumber)
	}
	o.Touch()
	return bill, nil
}
