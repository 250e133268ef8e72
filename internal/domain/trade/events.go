package trade

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSalesOrder      = "SalesOrder"
	AggregateTypePurchaseOrder   = "PurchaseOrder"
	AggregateTypePurchaseRequest = "PurchaseRequest"
	AggregateTypeRMA             = "RMA"
)

const (
	EventTypeSalesOrderCreated                = "SalesOrderCreated"
	EventTypeSalesOrderConfirmed              = "SalesOrderConfirmed"
	EventTypeSalesOrderCancelled              = "SalesOrderCancelled"
	EventTypeSalesOrderInvoiceStateChanged    = "SalesOrderInvoiceStateChanged"
	EventTypePurchaseOrderCreated             = "PurchaseOrderCreated"
	EventTypePurchaseOrderConfirmed           = "PurchaseOrderConfirmed"
	EventTypePurchaseOrderCancelled           = "PurchaseOrderCancelled"
	EventTypePurchaseOrderReopened            = "PurchaseOrderReopened"
	EventTypePurchaseOrderPaymentStateChanged = "PurchaseOrderPaymentStateChanged"
	EventTypePurchaseRequestCreated           = "PurchaseRequestCreated"
	EventTypePurchaseRequestStateChanged      = "PurchaseRequestStateChanged"
	EventTypeRMAStateChanged                  = "RMAStateChanged"
)

// SalesOrderCreatedEvent is raised when a quotation is created
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(o *SalesOrder) *SalesOrderCreatedEvent {
	return &SalesOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderCreated, AggregateTypeSalesOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
	}
}

// ConfirmedLine is a sales order line handed to procurement
type ConfirmedLine struct {
	LineID    uuid.UUID       `json:"line_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UomID     uuid.UUID       `json:"uom_id"`
	Storable  bool            `json:"storable"`
}

// SalesOrderConfirmedEvent is raised when a quotation becomes a sales order.
// Procurement listens to it.
type SalesOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	ShippingAddressID uuid.UUID       `json:"shipping_address_id"`
	IsDropshipping    bool            `json:"is_dropshipping"`
	Lines             []ConfirmedLine `json:"lines"`
}

// NewSalesOrderConfirmedEvent creates a new SalesOrderConfirmedEvent
func NewSalesOrderConfirmedEvent(o *SalesOrder) *SalesOrderConfirmedEvent {
	lines := make([]ConfirmedLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = ConfirmedLine{
			LineID:    l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UomID:     l.UomID,
			Storable:  l.IsStorable(),
		}
	}
	return &SalesOrderConfirmedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeSalesOrderConfirmed, AggregateTypeSalesOrder, o.ID, o.TenantID),
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		ShippingAddressID: o.ShippingAddressID,
		IsDropshipping:    o.IsDropshipping,
		Lines:             lines,
	}
}

// SalesOrderCancelledEvent is raised when a sales order is cancelled
type SalesOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewSalesOrderCancelledEvent creates a new SalesOrderCancelledEvent
func NewSalesOrderCancelledEvent(o *SalesOrder) *SalesOrderCancelledEvent {
	return &SalesOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderCancelled, AggregateTypeSalesOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
	}
}

// SalesOrderInvoiceStateChangedEvent is raised when invoice_state is recomputed to a new value
type SalesOrderInvoiceStateChangedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID    `json:"order_id"`
	OldState InvoiceState `json:"old_state"`
	NewState InvoiceState `json:"new_state"`
}

// NewSalesOrderInvoiceStateChangedEvent creates a new SalesOrderInvoiceStateChangedEvent
func NewSalesOrderInvoiceStateChangedEvent(o *SalesOrder, old InvoiceState) *SalesOrderInvoiceStateChangedEvent {
	return &SalesOrderInvoiceStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderInvoiceStateChanged, AggregateTypeSalesOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OldState:        old,
		NewState:        o.InvoiceState,
	}
}

// PurchaseOrderCreatedEvent is raised when a purchase order is drafted
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	VendorID    uuid.UUID `json:"vendor_id"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(o *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		VendorID:        o.VendorID,
	}
}

// ConfirmedPurchaseLine is a line of a confirmed purchase order as inventory receives it
type ConfirmedPurchaseLine struct {
	LineID     uuid.UUID       `json:"line_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UomID      uuid.UUID       `json:"uom_id"`
	SaleLineID *uuid.UUID      `json:"sale_line_id,omitempty"`
}

// PurchaseOrderConfirmedEvent is raised when a purchase order is approved.
// Inventory creates the receipt, or the drop-ship transfer, from it.
type PurchaseOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID               `json:"order_id"`
	OrderNumber    string                  `json:"order_number"`
	VendorID       uuid.UUID               `json:"vendor_id"`
	IsDropshipping bool                    `json:"is_dropshipping"`
	PickingTypeID  *uuid.UUID              `json:"picking_type_id,omitempty"`
	DestAddressID  *uuid.UUID              `json:"dest_address_id,omitempty"`
	AmountTotal    decimal.Decimal         `json:"amount_total"`
	RequestIDs     []uuid.UUID             `json:"request_ids"`
	Lines          []ConfirmedPurchaseLine `json:"lines"`
}

// NewPurchaseOrderConfirmedEvent creates a new PurchaseOrderConfirmedEvent
func NewPurchaseOrderConfirmedEvent(o *PurchaseOrder) *PurchaseOrderConfirmedEvent {
	lines := make([]ConfirmedPurchaseLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = ConfirmedPurchaseLine{
			LineID:     l.ID,
			ProductID:  l.ProductID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UomID:      l.UomID,
			SaleLineID: l.SaleLineID,
		}
	}
	return &PurchaseOrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderConfirmed, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		VendorID:        o.VendorID,
		IsDropshipping:  o.IsDropshipping,
		PickingTypeID:   o.PickingTypeID,
		DestAddressID:   o.DestAddressID,
		AmountTotal:     o.AmountTotal,
		RequestIDs:      o.RequestIDs(),
		Lines:           lines,
	}
}

// PurchaseOrderCancelledEvent is raised when a purchase order is cancelled.
// The linked purchase requests recompute their purchased quantity.
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	RequestIDs  []uuid.UUID `json:"request_ids"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(o *PurchaseOrder) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		RequestIDs:      o.RequestIDs(),
	}
}

// PurchaseOrderReopenedEvent is raised when a cancelled purchase order goes back to draft
type PurchaseOrderReopenedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID   `json:"order_id"`
	RequestIDs []uuid.UUID `json:"request_ids"`
}

// NewPurchaseOrderReopenedEvent creates a new PurchaseOrderReopenedEvent
func NewPurchaseOrderReopenedEvent(o *PurchaseOrder) *PurchaseOrderReopenedEvent {
	return &PurchaseOrderReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReopened, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		RequestIDs:      o.RequestIDs(),
	}
}

// PurchaseOrderPaymentStateChangedEvent is raised when payment_state is recomputed to a new value
type PurchaseOrderPaymentStateChangedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID    `json:"order_id"`
	OldState PaymentState `json:"old_state"`
	NewState PaymentState `json:"new_state"`
}

// NewPurchaseOrderPaymentStateChangedEvent creates a new PurchaseOrderPaymentStateChangedEvent
func NewPurchaseOrderPaymentStateChangedEvent(o *PurchaseOrder, old PaymentState) *PurchaseOrderPaymentStateChangedEvent {
	return &PurchaseOrderPaymentStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderPaymentStateChanged, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OldState:        old,
		NewState:        o.PaymentState,
	}
}

// PurchaseRequestCreatedEvent is raised when procurement opens a new request
type PurchaseRequestCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID       `json:"request_id"`
	SaleLineID uuid.UUID       `json:"sale_line_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewPurchaseRequestCreatedEvent creates a new PurchaseRequestCreatedEvent
func NewPurchaseRequestCreatedEvent(r *PurchaseRequest) *PurchaseRequestCreatedEvent {
	return &PurchaseRequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestCreated, AggregateTypePurchaseRequest, r.ID, r.TenantID),
		RequestID:       r.ID,
		SaleLineID:      r.SaleLineID,
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
	}
}

// PurchaseRequestStateChangedEvent is raised when a request is done, cancelled or reopened
type PurchaseRequestStateChangedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID    `json:"request_id"`
	OldState  RequestState `json:"old_state"`
	NewState  RequestState `json:"new_state"`
}

// NewPurchaseRequestStateChangedEvent creates a new PurchaseRequestStateChangedEvent
func NewPurchaseRequestStateChangedEvent(r *PurchaseRequest, old RequestState) *PurchaseRequestStateChangedEvent {
	return &PurchaseRequestStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRequestStateChanged, AggregateTypePurchaseRequest, r.ID, r.TenantID),
		RequestID:       r.ID,
		OldState:        old,
		NewState:        r.State,
	}
}

// RMAReturnLine is a returned quantity handed to stock when an RMA is done
type RMAReturnLine struct {
	ReturnLineID uuid.UUID       `json:"return_line_id"`
	SaleLineID   uuid.UUID       `json:"sale_line_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UomID        uuid.UUID       `json:"uom_id"`
}

// RMAStateChangedEvent is raised on every RMA transition
type RMAStateChangedEvent struct {
	shared.BaseDomainEvent
	RMAID          uuid.UUID       `json:"rma_id"`
	Name           string          `json:"name"`
	RMAType        RMAType         `json:"rma_type"`
	SaleOrderID    uuid.UUID       `json:"sale_order_id"`
	PartnerID      uuid.UUID       `json:"partner_id"`
	IsDropshipping bool            `json:"is_dropshipping"`
	OldState       RMAState        `json:"old_state"`
	NewState       RMAState        `json:"new_state"`
	ReturnLines    []RMAReturnLine `json:"return_lines,omitempty"`
}

// NewRMAStateChangedEvent creates a new RMAStateChangedEvent
func NewRMAStateChangedEvent(r *RMA, old RMAState) *RMAStateChangedEvent {
	lines := make([]RMAReturnLine, len(r.ReturnLines))
	for i, l := range r.ReturnLines {
		lines[i] = RMAReturnLine{
			ReturnLineID: l.ID,
			SaleLineID:   l.SaleLineID,
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			UomID:        l.UomID,
		}
	}
	return &RMAStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRMAStateChanged, AggregateTypeRMA, r.ID, r.TenantID),
		RMAID:           r.ID,
		Name:            r.Name,
		RMAType:         r.RMAType,
		SaleOrderID:     r.SaleOrderID,
		PartnerID:       r.PartnerID,
		IsDropshipping:  r.IsDropshipping,
		OldState:        old,
		NewState:        r.State,
		ReturnLines:     lines,
	}
}
