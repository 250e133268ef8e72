package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RMAType distinguishes plain returns from exchanges
type RMAType string

const (
	RMATypeReturn   RMAType = "return"
	RMATypeExchange RMAType = "exchange"
)

// IsValid checks if the RMA type is valid
func (t RMAType) IsValid() bool {
	return t == RMATypeReturn || t == RMATypeExchange
}

// RMAState represents the state of a return authorization
type RMAState string

const (
	RMAStateDraft  RMAState = "draft"
	RMAStatePosted RMAState = "posted"
	RMAStateDone   RMAState = "done"
	RMAStateCancel RMAState = "cancel"
)

// CanTransitionTo checks if the state can transition to the target state
func (s RMAState) CanTransitionTo(target RMAState) bool {
	switch s {
	case RMAStateDraft:
		return target == RMAStatePosted || target == RMAStateCancel
	case RMAStatePosted:
		return target == RMAStateDone || target == RMAStateCancel
	case RMAStateCancel:
		return target == RMAStateDraft
	}
	return false
}

// RMAReturnItem is a sold line being sent back
type RMAReturnItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	RMAID      uuid.UUID       `gorm:"column:rma_id;type:uuid;not null;index"`
	SaleLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	Name       string          `gorm:"type:text"`
	Quantity   decimal.Decimal `gorm:"column:product_uom_qty;type:decimal(18,4);not null"`
	UomID      uuid.UUID       `gorm:"column:product_uom;type:uuid;not null"`
	PriceUnit  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal   decimal.Decimal `gorm:"column:price_subtotal;type:decimal(18,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RMAReturnItem) TableName() string {
	return "sale_rma_return_lines"
}

// RMAExchangeItem is a product sent out in place of returned goods
type RMAExchangeItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	RMAID     uuid.UUID       `gorm:"column:rma_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Name      string          `gorm:"type:text"`
	Quantity  decimal.Decimal `gorm:"column:product_uom_qty;type:decimal(18,4);not null"`
	UomID     uuid.UUID       `gorm:"column:product_uom;type:uuid;not null"`
	PriceUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal  decimal.Decimal `gorm:"column:price_subtotal;type:decimal(18,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RMAExchangeItem) TableName() string {
	return "sale_rma_exchange_lines"
}

// RMA is a return merchandise authorization raised against a sales order
type RMA struct {
	shared.TenantAggregateRoot
	Name           string            `gorm:"type:varchar(50);not null;index"`
	RMAType        RMAType           `gorm:"column:rma_type;type:varchar(20);not null;default:'return'"`
	SaleOrderID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	PartnerID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	IsDropshipping bool              `gorm:"not null;default:false"`
	Comment        string            `gorm:"type:text"`
	State          RMAState          `gorm:"type:varchar(20);not null;default:'draft';index"`
	ReturnAmount   decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	ExchangeAmount decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	ExchangeDiff   decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	ReturnLines    []RMAReturnItem   `gorm:"foreignKey:RMAID;references:ID"`
	ExchangeLines  []RMAExchangeItem `gorm:"foreignKey:RMAID;references:ID"`
}

// TableName returns the table name for GORM
func (RMA) TableName() string {
	return "sale_rmas"
}

// NewRMA opens a draft RMA for a confirmed sales order
func NewRMA(name string, rmaType RMAType, order *SalesOrder) (*RMA, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "RMA name cannot be empty")
	}
	if !rmaType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RMA_TYPE", "RMA type must be return or exchange")
	}
	if order == nil {
		return nil, shared.NewDomainError("INVALID_SALE_ORDER", "Sale order is required")
	}
	if !order.State.IsConfirmed() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only confirmed orders can be returned")
	}
	return &RMA{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(order.TenantID),
		Name:                name,
		RMAType:             rmaType,
		SaleOrderID:         order.ID,
		PartnerID:           order.CustomerID,
		IsDropshipping:      order.IsDropshipping,
		State:               RMAStateDraft,
		ReturnLines:         make([]RMAReturnItem, 0),
		ExchangeLines:       make([]RMAExchangeItem, 0),
	}, nil
}

func (r *RMA) requireDraft() error {
	if r.State != RMAStateDraft {
		return shared.NewDomainError("INVALID_STATE", "RMA lines can only be changed in draft")
	}
	return nil
}

// ReturnedBySaleLine sums the return lines of the live RMAs other than
// except, keyed by sale line
func ReturnedBySaleLine(rmas []RMA, except uuid.UUID) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for i := range rmas {
		if rmas[i].ID == except || rmas[i].State == RMAStateCancel {
			continue
		}
		for _, l := range rmas[i].ReturnLines {
			out[l.SaleLineID] = out[l.SaleLineID].Add(l.Quantity)
		}
	}
	return out
}

// returnedQty sums what is already returned for a sale line, skipping one
// line of this RMA
func (r *RMA) returnedQty(elsewhere map[uuid.UUID]decimal.Decimal, saleLineID, skip uuid.UUID) decimal.Decimal {
	total := elsewhere[saleLineID]
	for _, l := range r.ReturnLines {
		if l.SaleLineID == saleLineID && l.ID != skip {
			total = total.Add(l.Quantity)
		}
	}
	return total
}

// AddReturnLine returns qty of a line of the RMA's sales order. elsewhere
// holds what other RMAs of the order already return, see ReturnedBySaleLine.
func (r *RMA) AddReturnLine(order *SalesOrder, elsewhere map[uuid.UUID]decimal.Decimal, saleLineID uuid.UUID, qty decimal.Decimal) (*RMAReturnItem, error) {
	if err := r.requireDraft(); err != nil {
		return nil, err
	}
	if order == nil || order.ID != r.SaleOrderID {
		return nil, shared.NewDomainError("INVALID_SALE_ORDER", "Sale order does not match the RMA")
	}
	line := order.FindLine(saleLineID)
	if line == nil {
		return nil, shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if r.returnedQty(elsewhere, saleLineID, uuid.Nil).Add(qty).GreaterThan(line.Quantity) {
		return nil, shared.NewDomainError("RETURN_EXCEEDS_SOLD", "Return quantity cannot exceed the sold quantity")
	}
	item := RMAReturnItem{
		ID:         uuid.New(),
		TenantID:   r.TenantID,
		RMAID:      r.ID,
		SaleLineID: saleLineID,
		ProductID:  line.ProductID,
		Name:       line.Name,
		Quantity:   qty,
		UomID:      line.UomID,
		PriceUnit:  line.PriceUnit,
		Subtotal:   qty.Mul(line.PriceUnit).Round(2),
		CreatedAt:  time.Now(),
	}
	r.ReturnLines = append(r.ReturnLines, item)
	r.recompute()
	return &r.ReturnLines[len(r.ReturnLines)-1], nil
}

// UpdateReturnQuantity changes the quantity of a return line
func (r *RMA) UpdateReturnQuantity(order *SalesOrder, elsewhere map[uuid.UUID]decimal.Decimal, lineID uuid.UUID, qty decimal.Decimal) error {
	if err := r.requireDraft(); err != nil {
		return err
	}
	for i := range r.ReturnLines {
		l := &r.ReturnLines[i]
		if l.ID != lineID {
			continue
		}
		sold := order.FindLine(l.SaleLineID)
		if sold == nil {
			return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
		}
		if qty.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if r.returnedQty(elsewhere, l.SaleLineID, l.ID).Add(qty).GreaterThan(sold.Quantity) {
			return shared.NewDomainError("RETURN_EXCEEDS_SOLD", "Return quantity cannot exceed the sold quantity")
		}
		l.Quantity = qty
		l.Subtotal = qty.Mul(l.PriceUnit).Round(2)
		r.recompute()
		return nil
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "RMA line not found")
}

// AddExchangeLine adds a replacement product to an exchange RMA
func (r *RMA) AddExchangeLine(productID uuid.UUID, name string, qty decimal.Decimal, uomID uuid.UUID, priceUnit decimal.Decimal) (*RMAExchangeItem, error) {
	if err := r.requireDraft(); err != nil {
		return nil, err
	}
	if r.RMAType != RMATypeExchange {
		return nil, shared.NewDomainError("NOT_AN_EXCHANGE", "Exchange lines are only allowed on exchange RMAs")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if priceUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	item := RMAExchangeItem{
		ID:        uuid.New(),
		TenantID:  r.TenantID,
		RMAID:     r.ID,
		ProductID: productID,
		Name:      name,
		Quantity:  qty,
		UomID:     uomID,
		PriceUnit: priceUnit,
		Subtotal:  qty.Mul(priceUnit).Round(2),
		CreatedAt: time.Now(),
	}
	r.ExchangeLines = append(r.ExchangeLines, item)
	r.recompute()
	return &r.ExchangeLines[len(r.ExchangeLines)-1], nil
}

// RemoveLine drops a return or exchange line
func (r *RMA) RemoveLine(lineID uuid.UUID) error {
	if err := r.requireDraft(); err != nil {
		return err
	}
	for i, l := range r.ReturnLines {
		if l.ID == lineID {
			r.ReturnLines = append(r.ReturnLines[:i], r.ReturnLines[i+1:]...)
			r.recompute()
			return nil
		}
	}
	for i, l := range r.ExchangeLines {
		if l.ID == lineID {
			r.ExchangeLines = append(r.ExchangeLines[:i], r.ExchangeLines[i+1:]...)
			r.recompute()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "RMA line not found")
}

func (r *RMA) recompute() {
	r.ReturnAmount = decimal.Zero
	for _, l := range r.ReturnLines {
		r.ReturnAmount = r.ReturnAmount.Add(l.Subtotal)
	}
	r.ExchangeAmount = decimal.Zero
	for _, l := range r.ExchangeLines {
		r.ExchangeAmount = r.ExchangeAmount.Add(l.Subtotal)
	}
	r.ExchangeDiff = r.ExchangeAmount.Sub(r.ReturnAmount)
	r.Touch()
}

func (r *RMA) transition(target RMAState) error {
	if !r.State.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move RMA from "+string(r.State)+" to "+string(target))
	}
	old := r.State
	r.State = target
	r.Touch()
	r.AddDomainEvent(NewRMAStateChangedEvent(r, old))
	return nil
}

// Post submits the RMA
func (r *RMA) Post() error {
	if len(r.ReturnLines) == 0 {
		return shared.NewDomainError("NO_RETURN_LINES", "An RMA needs at least one return line")
	}
	return r.transition(RMAStatePosted)
}

// Done closes the RMA; inventory books the return moves of return RMAs
func (r *RMA) Done() error {
	return r.transition(RMAStateDone)
}

// Cancel cancels a draft or posted RMA
func (r *RMA) Cancel() error {
	return r.transition(RMAStateCancel)
}

// ResetToDraft reopens a cancelled RMA
func (r *RMA) ResetToDraft() error {
	return r.transition(RMAStateDraft)
}

// CheckReturnCap fails when the return lines together with elsewhere
// return more of a sale line than was sold
func (r *RMA) CheckReturnCap(order *SalesOrder, elsewhere map[uuid.UUID]decimal.Decimal) error {
	for _, l := range r.ReturnLines {
		sold := order.FindLine(l.SaleLineID)
		if sold == nil {
			return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
		}
		if r.returnedQty(elsewhere, l.SaleLineID, uuid.Nil).GreaterThan(sold.Quantity) {
			return shared.NewDomainError("RETURN_EXCEEDS_SOLD", "Return quantity cannot exceed the sold quantity")
		}
	}
	return nil
}

// CreatesReturnMoves reports whether finishing this RMA books stock return moves
func (r *RMA) CreatesReturnMoves() bool {
	return r.State == RMAStateDone && r.RMAType == RMATypeReturn
}
