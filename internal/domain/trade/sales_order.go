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

// OrderState represents the state of a sales order
type OrderState string

const (
	OrderStateDraft  OrderState = "draft"
	OrderStateSent   OrderState = "sent"
	OrderStateSale   OrderState = "sale"
	OrderStateDone   OrderState = "done"
	OrderStateCancel OrderState = "cancel"
)

// IsValid checks if the state is a valid OrderState
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateDraft, OrderStateSent, OrderStateSale, OrderStateDone, OrderStateCancel:
		return true
	}
	return false
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// IsConfirmed is true for sale and done orders
func (s OrderState) IsConfirmed() bool {
	return s == OrderStateSale || s == OrderStateDone
}

// CanTransitionTo checks if the state can transition to the target state
func (s OrderState) CanTransitionTo(target OrderState) bool {
	switch s {
	case OrderStateDraft:
		return target == OrderStateSent || target == OrderStateSale || target == OrderStateCancel
	case OrderStateSent:
		return target == OrderStateSale || target == OrderStateCancel
	case OrderStateSale:
		return target == OrderStateDone || target == OrderStateCancel
	case OrderStateCancel:
		return target == OrderStateDraft
	}
	return false
}

// InvoiceState summarizes the paper invoicing progress of an order
type InvoiceState string

const (
	InvoiceStatePending   InvoiceState = "pending"
	InvoiceStateToInvoice InvoiceState = "to_invoice"
	InvoiceStateInvoiced  InvoiceState = "invoiced"
)

// SalesOrderLine is a line of a sales order
type SalesOrderLine struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	OrderID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	Sequence      int                 `gorm:"not null;default:10"`
	ProductID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductCode   string              `gorm:"type:varchar(64)"`
	ProductType   catalog.ProductType `gorm:"type:varchar(20);not null;default:'product'"`
	Name          string              `gorm:"type:text;not null"`
	Quantity      decimal.Decimal     `gorm:"column:product_uom_qty;type:decimal(18,4);not null"`
	UomID         uuid.UUID           `gorm:"type:uuid;not null"`
	UomName       string              `gorm:"type:varchar(50)"`
	PriceUnit     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PriceSubtotal decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PriceTax      decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PriceTotal    decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	QtyDelivered  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	QtyInvoiced   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Taxes         []catalog.Tax       `gorm:"many2many:sale_order_line_taxes"`
	CreatedAt     time.Time           `gorm:"not null"`
	UpdatedAt     time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderLine) TableName() string {
	return "sale_order_lines"
}

func (l *SalesOrderLine) computeAmounts() {
	r := catalog.ComputeAll(l.PriceUnit, l.Quantity, l.Taxes)
	l.PriceSubtotal = r.Untaxed
	l.PriceTax = r.Tax
	l.PriceTotal = r.Total
	l.UpdatedAt = time.Now()
}

// QtyToInvoice is the ordered quantity not invoiced yet
func (l *SalesOrderLine) QtyToInvoice() decimal.Decimal {
	return l.Quantity.Sub(l.QtyInvoiced)
}

// IsStorable reports whether the line product is tracked in stock
func (l *SalesOrderLine) IsStorable() bool {
	return l.ProductType == catalog.ProductTypeStorable || l.ProductType == catalog.ProductTypeConsumable
}

// SalesOrder represents a sales order aggregate root
type SalesOrder struct {
	shared.TenantAggregateRoot
	OrderNumber       string               `gorm:"type:varchar(50);not null;index"`
	CustomerID        uuid.UUID            `gorm:"column:partner_id;type:uuid;not null;index"`
	CustomerName      string               `gorm:"type:varchar(200);not null"`
	ShippingAddressID uuid.UUID            `gorm:"column:partner_shipping_id;type:uuid;not null"`
	OuterName         string               `gorm:"type:varchar(100);index"`
	IsDropshipping    bool                 `gorm:"not null;default:false"`
	Currency          valueobject.Currency `gorm:"type:varchar(3);not null;default:'CNY'"`
	DateOrder         time.Time            `gorm:"not null"`
	State             OrderState           `gorm:"type:varchar(20);not null;default:'draft';index"`
	InvoiceState      InvoiceState         `gorm:"type:varchar(20);not null;default:'pending';index"`
	AmountUntaxed     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal       decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Note              string               `gorm:"type:text"`
	ConfirmedAt       *time.Time
	CancelledAt       *time.Time
	Lines             []SalesOrderLine `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sale_orders"
}

// NewSalesOrder creates a new draft sales order shipped to the customer itself
func NewSalesOrder(tenantID uuid.UUID, orderNumber string, customer *partner.Partner) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customer == nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer cannot be empty")
	}
	if customer.TenantID != tenantID {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer belongs to another company")
	}
	if err := customer.RequireCompany(); err != nil {
		return nil, err
	}

	order := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customer.ID,
		CustomerName:        customer.Name,
		ShippingAddressID:   customer.ID,
		Currency:            valueobject.DefaultCurrency,
		DateOrder:           time.Now(),
		State:               OrderStateDraft,
		InvoiceState:        InvoiceStatePending,
		Lines:               make([]SalesOrderLine, 0),
	}

	order.AddDomainEvent(NewSalesOrderCreatedEvent(order))

	return order, nil
}

func (o *SalesOrder) isEditable() bool {
	return o.State == OrderStateDraft || o.State == OrderStateSent
}

// SetShippingAddress sets the delivery address; it must be the customer or one of its addresses
func (o *SalesOrder) SetShippingAddress(addr *partner.Partner) error {
	if !o.isEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change the shipping address of a confirmed order")
	}
	if addr.ID != o.CustomerID && (addr.ParentID == nil || *addr.ParentID != o.CustomerID) {
		return shared.NewDomainError("INVALID_ADDRESS", "Shipping address must belong to the customer")
	}
	o.ShippingAddressID = addr.ID
	o.Touch()
	return nil
}

// SetOuterName records the customer's own order reference
func (o *SalesOrder) SetOuterName(outerName string) {
	o.OuterName = strings.TrimSpace(outerName)
	o.Touch()
}

// SetDropshipping marks the order to be shipped by the vendor directly
func (o *SalesOrder) SetDropshipping(dropship bool) error {
	if !o.isEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change the delivery type of a confirmed order")
	}
	o.IsDropshipping = dropship
	o.Touch()
	return nil
}

// AddLine adds a product line; product must have its uom loaded
func (o *SalesOrder) AddLine(product *catalog.Product, quantity, priceUnit decimal.Decimal, taxes []catalog.Tax) (*SalesOrderLine, error) {
	if !o.isEditable() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a confirmed order")
	}
	if product == nil || product.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if priceUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	uomName := ""
	if product.Uom != nil {
		uomName = product.Uom.Name
	}
	now := time.Now()
	line := SalesOrderLine{
		ID:          uuid.New(),
		TenantID:    o.TenantID,
		OrderID:     o.ID,
		Sequence:    (len(o.Lines) + 1) * 10,
		ProductID:   product.ID,
		ProductCode: product.DefaultCode,
		ProductType: product.Type,
		Name:        product.DisplayName(),
		Quantity:    quantity,
		UomID:       product.UomID,
		UomName:     uomName,
		PriceUnit:   priceUnit,
		Taxes:       taxes,
		CreatedAt:   now,
	}
	line.computeAmounts()
	o.Lines = append(o.Lines, line)
	o.recalculateTotals()
	o.Touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// UpdateLineQuantity changes the ordered quantity of a line
func (o *SalesOrder) UpdateLineQuantity(lineID uuid.UUID, quantity decimal.Decimal) error {
	if !o.isEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update lines of a confirmed order")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	line := o.FindLine(lineID)
	if line == nil {
		return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}
	line.Quantity = quantity
	line.computeAmounts()
	o.recalculateTotals()
	o.Touch()
	return nil
}

// RemoveLine removes a line from the order
func (o *SalesOrder) RemoveLine(lineID uuid.UUID) error {
	if !o.isEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove lines from a confirmed order")
	}
	for idx, line := range o.Lines {
		if line.ID == lineID {
			o.Lines = append(o.Lines[:idx], o.Lines[idx+1:]...)
			o.recalculateTotals()
			o.Touch()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
}

// FindLine returns the line with the given id or nil
func (o *SalesOrder) FindLine(lineID uuid.UUID) *SalesOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *SalesOrder) recalculateTotals() {
	o.AmountUntaxed = decimal.Zero
	o.AmountTax = decimal.Zero
	for _, l := range o.Lines {
		o.AmountUntaxed = o.AmountUntaxed.Add(l.PriceSubtotal)
		o.AmountTax = o.AmountTax.Add(l.PriceTax)
	}
	o.AmountTotal = o.AmountUntaxed.Add(o.AmountTax)
}

func (o *SalesOrder) transition(target OrderState) error {
	if !o.State.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.State, target))
	}
	o.State = target
	o.Touch()
	return nil
}

// MarkSent records that the quotation was sent to the customer
func (o *SalesOrder) MarkSent() error {
	return o.transition(OrderStateSent)
}

// Confirm turns the quotation into a sales order and launches procurement
func (o *SalesOrder) Confirm() error {
	if len(o.Lines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm order without lines")
	}
	if err := o.transition(OrderStateSale); err != nil {
		return err
	}
	now := time.Now()
	o.ConfirmedAt = &now
	o.AddDomainEvent(NewSalesOrderConfirmedEvent(o))
	return nil
}

// Lock marks a confirmed order done
func (o *SalesOrder) Lock() error {
	return o.transition(OrderStateDone)
}

// Cancel cancels the order and drops its invoicing status back to pending
func (o *SalesOrder) Cancel() error {
	if err := o.transition(OrderStateCancel); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.InvoiceState = InvoiceStatePending
	o.AddDomainEvent(NewSalesOrderCancelledEvent(o))
	return nil
}

// ResetToDraft reopens a cancelled order as a quotation
func (o *SalesOrder) ResetToDraft() error {
	if err := o.transition(OrderStateDraft); err != nil {
		return err
	}
	o.CancelledAt = nil
	o.ConfirmedAt = nil
	return nil
}

// ComputeInvoiceState derives invoice_state from the states of the linked invoices
func ComputeInvoiceState(orderState OrderState, invoiceStates []finance.MoveState) InvoiceState {
	if !orderState.IsConfirmed() || len(invoiceStates) == 0 {
		return InvoiceStatePending
	}
	allToInvoice := true
	allInvoiced := true
	for _, s := range invoiceStates {
		if s != finance.MoveStateToInvoice {
			allToInvoice = false
		}
		if !s.IsInvoicedLike() {
			allInvoiced = false
		}
	}
	switch {
	case allToInvoice:
		return InvoiceStateToInvoice
	case allInvoiced:
		return InvoiceStateInvoiced
	}
	return InvoiceStatePending
}

// RefreshFromInvoices recomputes invoice_state and invoiced quantities from the
// customer invoices and credit notes linked to the order. It reports whether
// invoice_state changed.
func (o *SalesOrder) RefreshFromInvoices(invoices []finance.AccountMove) bool {
	states := make([]finance.MoveState, 0, len(invoices))
	invoiced := make(map[uuid.UUID]decimal.Decimal)
	for i := range invoices {
		if !invoices[i].MoveType.IsSale() {
			continue
		}
		states = append(states, invoices[i].State)
		for lineID, qty := range invoices[i].InvoicedQtyBySaleLine() {
			invoiced[lineID] = invoiced[lineID].Add(qty)
		}
	}
	for i := range o.Lines {
		o.Lines[i].QtyInvoiced = invoiced[o.Lines[i].ID]
	}

	next := ComputeInvoiceState(o.State, states)
	if next == o.InvoiceState {
		return false
	}
	old := o.InvoiceState
	o.InvoiceState = next
	o.Touch()
	o.AddDomainEvent(NewSalesOrderInvoiceStateChangedEvent(o, old))
	return true
}

// CanActionToInvoice reports whether the order's invoices can be queued for paper invoicing
func (o *SalesOrder) CanActionToInvoice() bool {
	return o.State == OrderStateSale && o.InvoiceState == InvoiceStatePending
}

// ActionToInvoice moves every posted invoice of the order to to_invoice and
// recomputes invoice_state. Orders that do not qualify are left untouched.
func (o *SalesOrder) ActionToInvoice(invoices []*finance.AccountMove) ([]*finance.AccountMove, error) {
	if !o.CanActionToInvoice() {
		return nil, nil
	}
	changed := make([]*finance.AccountMove, 0, len(invoices))
	all := make([]finance.AccountMove, 0, len(invoices))
	for _, inv := range invoices {
		if inv.SaleOrderID == nil || *inv.SaleOrderID != o.ID {
			return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice "+inv.Name+" does not belong to order "+o.OrderNumber)
		}
		if inv.State == finance.MoveStatePosted {
			if err := inv.ActionToInvoice(); err != nil {
				return nil, err
			}
			changed = append(changed, inv)
		}
		all = append(all, *inv)
	}
	o.RefreshFromInvoices(all)
	return changed, nil
}

// CreateInvoice drafts a customer invoice for the remaining quantity of every line.
// The invoice is addressed to the customer itself, never to an invoice address.
func (o *SalesOrder) CreateInvoice() (*finance.AccountMove, error) {
	if o.State != OrderStateSale {
		return nil, shared.NewDomainError("INVALID_STATE", "Only confirmed orders can be invoiced")
	}
	customerID := o.CustomerID
	inv, err := finance.NewAccountMove(o.TenantID, finance.MoveTypeOutInvoice, &customerID, o.CustomerName)
	if err != nil {
		return nil, err
	}
	orderID := o.ID
	inv.SaleOrderID = &orderID
	inv.InvoiceOrigin = o.OrderNumber
	inv.Ref = o.OuterName
	inv.Currency = o.Currency

	for i := range o.Lines {
		l := &o.Lines[i]
		qty := l.QtyToInvoice()
		if !qty.IsPositive() {
			continue
		}
		productID := l.ProductID
		lineID := l.ID
		if _, err := inv.AddInvoiceLine(finance.InvoiceLineInput{
			ProductID:  &productID,
			Name:       l.Name,
			UomName:    l.UomName,
			Quantity:   qty,
			PriceUnit:  l.PriceUnit,
			Taxes:      l.Taxes,
			SaleLineID: &lineID,
		}); err != nil {
			return nil, err
		}
		l.QtyInvoiced = l.QtyInvoiced.Add(qty)
	}
	if len(inv.Lines) == 0 {
		return nil, shared.NewDomainError("NOTHING_TO_INVOICE", "There is nothing left to invoice on order "+o.OrderNumber)
	}
	o.Touch()
	return inv, nil
}

// RegisterDelivery adds delivered quantity to a line
func (o *SalesOrder) RegisterDelivery(lineID uuid.UUID, qty decimal.Decimal) error {
	line := o.FindLine(lineID)
	if line == nil {
		return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}
	line.QtyDelivered = line.QtyDelivered.Add(qty)
	o.Touch()
	return nil
}
