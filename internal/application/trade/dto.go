package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ==================== Sales Order DTOs ====================

// CreateSalesOrderRequest represents a request to create a quotation
type CreateSalesOrderRequest struct {
	CustomerID        uuid.UUID                   `json:"customer_id" binding:"required"`
	ShippingAddressID *uuid.UUID                  `json:"shipping_address_id"`
	OuterName         string                      `json:"outer_name" binding:"max=100"`
	IsDropshipping    bool                        `json:"is_dropshipping"`
	Note              string                      `json:"note"`
	Lines             []CreateSalesOrderLineInput `json:"lines" binding:"dive"`
}

// CreateSalesOrderLineInput represents a line of a new quotation
type CreateSalesOrderLineInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	PriceUnit decimal.Decimal `json:"price_unit"`
	// TaxIDs defaults to the product customer taxes when omitted
	TaxIDs []uuid.UUID `json:"tax_ids"`
}

// SalesOrderListFilter is the query of a sales order listing
type SalesOrderListFilter struct {
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search       string     `form:"search"`
	CustomerID   *uuid.UUID `form:"customer_id"`
	State        string     `form:"state" binding:"omitempty,oneof=draft sent sale done cancel"`
	InvoiceState string     `form:"invoice_state" binding:"omitempty,oneof=pending to_invoice invoiced"`
}

// ActionToInvoiceRequest queues the invoices of several orders for paper invoicing
type ActionToInvoiceRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}

// ActionToInvoiceResponse lists the orders that were acted on
type ActionToInvoiceResponse struct {
	Updated []uuid.UUID `json:"updated"`
	Skipped []uuid.UUID `json:"skipped"`
}

// SalesOrderLineResponse is a sales order line
type SalesOrderLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductCode   string          `json:"product_code"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UomID         uuid.UUID       `json:"uom_id"`
	UomName       string          `json:"uom_name"`
	PriceUnit     decimal.Decimal `json:"price_unit"`
	PriceSubtotal decimal.Decimal `json:"price_subtotal"`
	PriceTax      decimal.Decimal `json:"price_tax"`
	PriceTotal    decimal.Decimal `json:"price_total"`
	QtyDelivered  decimal.Decimal `json:"qty_delivered"`
	QtyInvoiced   decimal.Decimal `json:"qty_invoiced"`
}

// SalesOrderResponse is a sales order with its lines
type SalesOrderResponse struct {
	ID                uuid.UUID                `json:"id"`
	OrderNumber       string                   `json:"order_number"`
	CustomerID        uuid.UUID                `json:"customer_id"`
	CustomerName      string                   `json:"customer_name"`
	ShippingAddressID uuid.UUID                `json:"shipping_address_id"`
	OuterName         string                   `json:"outer_name"`
	IsDropshipping    bool                     `json:"is_dropshipping"`
	Currency          string                   `json:"currency"`
	DateOrder         time.Time                `json:"date_order"`
	State             string                   `json:"state"`
	InvoiceState      string                   `json:"invoice_state"`
	AmountUntaxed     decimal.Decimal          `json:"amount_untaxed"`
	AmountTax         decimal.Decimal          `json:"amount_tax"`
	AmountTotal       decimal.Decimal          `json:"amount_total"`
	Note              string                   `json:"note"`
	ConfirmedAt       *time.Time               `json:"confirmed_at,omitempty"`
	Lines             []SalesOrderLineResponse `json:"lines"`
	Version           int                      `json:"version"`
}

// ToSalesOrderResponse converts a sales order to its response
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	lines := make([]SalesOrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = SalesOrderLineResponse{
			ID:            l.ID,
			ProductID:     l.ProductID,
			ProductCode:   l.ProductCode,
			Name:          l.Name,
			Quantity:      l.Quantity,
			UomID:         l.UomID,
			UomName:       l.UomName,
			PriceUnit:     l.PriceUnit,
			PriceSubtotal: l.PriceSubtotal,
			PriceTax:      l.PriceTax,
			PriceTotal:    l.PriceTotal,
			QtyDelivered:  l.QtyDelivered,
			QtyInvoiced:   l.QtyInvoiced,
		}
	}
	return SalesOrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		CustomerName:      o.CustomerName,
		ShippingAddressID: o.ShippingAddressID,
		OuterName:         o.OuterName,
		IsDropshipping:    o.IsDropshipping,
		Currency:          string(o.Currency),
		DateOrder:         o.DateOrder,
		State:             string(o.State),
		InvoiceState:      string(o.InvoiceState),
		AmountUntaxed:     o.AmountUntaxed,
		AmountTax:         o.AmountTax,
		AmountTotal:       o.AmountTotal,
		Note:              o.Note,
		ConfirmedAt:       o.ConfirmedAt,
		Lines:             lines,
		Version:           o.Version,
	}
}

// InvoiceCreatedResponse is the draft invoice or bill created from an order
type InvoiceCreatedResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	MoveType      string          `json:"move_type"`
	State         string          `json:"state"`
	InvoiceOrigin string          `json:"invoice_origin"`
	AmountTotal   decimal.Decimal `json:"amount_total"`
}

func toInvoiceCreatedResponse(m *finance.AccountMove) *InvoiceCreatedResponse {
	return &InvoiceCreatedResponse{
		ID:            m.ID,
		Name:          m.Name,
		MoveType:      string(m.MoveType),
		State:         string(m.State),
		InvoiceOrigin: m.InvoiceOrigin,
		AmountTotal:   m.AmountTotal,
	}
}

// ==================== Purchase Request DTOs ====================

// RequestListFilter is the query of a purchase request listing
type RequestListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	State          string     `form:"state" binding:"omitempty,oneof=open done cancel"`
	PartnerID      *uuid.UUID `form:"partner_id"`
	SaleOrderID    *uuid.UUID `form:"sale_order_id"`
	IsDropshipping *bool      `form:"is_dropshipping"`
}

// SetRequestPartnerRequest chooses the vendor of a request
type SetRequestPartnerRequest struct {
	PartnerID uuid.UUID `json:"partner_id" binding:"required"`
}

// CreatePurchaseOrderFromRequestsRequest drafts one purchase order from open requests
type CreatePurchaseOrderFromRequestsRequest struct {
	RequestIDs []uuid.UUID `json:"request_ids"`
}

// PurchaseRequestResponse is a purchase request
type PurchaseRequestResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	SaleLineID         uuid.UUID       `json:"sale_line_id"`
	SaleOrderID        uuid.UUID       `json:"sale_order_id"`
	SaleOrderNumber    string          `json:"sale_order_number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	CustomerShippingID uuid.UUID       `json:"customer_shipping_id"`
	IsDropshipping     bool            `json:"is_dropshipping"`
	ProductID          uuid.UUID       `json:"product_id"`
	Quantity           decimal.Decimal `json:"product_uom_qty"`
	UomID              uuid.UUID       `json:"product_uom"`
	PartnerID          *uuid.UUID      `json:"partner_id,omitempty"`
	State              string          `json:"state"`
	PurchaseLineCount  int             `json:"purchase_line_count"`
	QtyPurchased       decimal.Decimal `json:"qty_purchased"`
	QtyToPurchase      decimal.Decimal `json:"qty_to_purchase"`
}

// ToPurchaseRequestResponse converts a request to its response
func ToPurchaseRequestResponse(r *trade.PurchaseRequest) PurchaseRequestResponse {
	return PurchaseRequestResponse{
		ID:                 r.ID,
		Name:               r.Name,
		SaleLineID:         r.SaleLineID,
		SaleOrderID:        r.SaleOrderID,
		SaleOrderNumber:    r.SaleOrderNumber,
		CustomerID:         r.CustomerID,
		CustomerShippingID: r.CustomerShippingID,
		IsDropshipping:     r.IsDropshipping,
		ProductID:          r.ProductID,
		Quantity:           r.Quantity,
		UomID:              r.UomID,
		PartnerID:          r.PartnerID,
		State:              string(r.State),
		PurchaseLineCount:  r.PurchaseLineCount,
		QtyPurchased:       r.QtyPurchased,
		QtyToPurchase:      r.QtyToPurchase,
	}
}

// ==================== Purchase Order DTOs ====================

// PurchaseOrderListFilter is the query of a purchase order listing
type PurchaseOrderListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	VendorID       *uuid.UUID `form:"vendor_id"`
	State          string     `form:"state" binding:"omitempty,oneof=draft sent to_approve purchase done cancel"`
	PaymentState   string     `form:"payment_state" binding:"omitempty,oneof=not_paid in_payment paid"`
	IsDropshipping *bool      `form:"is_dropshipping"`
}

// ConfirmPurchaseOrderRequest confirms a purchase order
type ConfirmPurchaseOrderRequest struct {
	NeedsApproval bool `json:"needs_approval"`
}

// PurchaseOrderLineResponse is a purchase order line
type PurchaseOrderLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"product_qty"`
	UomID         uuid.UUID       `json:"product_uom"`
	UomName       string          `json:"uom_name"`
	PriceUnit     decimal.Decimal `json:"price_unit"`
	PriceSubtotal decimal.Decimal `json:"price_subtotal"`
	PriceTotal    decimal.Decimal `json:"price_total"`
	DatePlanned   time.Time       `json:"date_planned"`
	RequestID     *uuid.UUID      `json:"request_id,omitempty"`
	QtyInvoiced   decimal.Decimal `json:"qty_invoiced"`
}

// PurchaseOrderResponse is a purchase order with its lines
type PurchaseOrderResponse struct {
	ID             uuid.UUID                   `json:"id"`
	OrderNumber    string                      `json:"order_number"`
	VendorID       uuid.UUID                   `json:"vendor_id"`
	VendorName     string                      `json:"vendor_name"`
	Currency       string                      `json:"currency"`
	PickingTypeID  *uuid.UUID                  `json:"picking_type_id,omitempty"`
	IsDropshipping bool                        `json:"is_dropshipping"`
	DestAddressID  *uuid.UUID                  `json:"dest_address_id,omitempty"`
	Origin         string                      `json:"origin"`
	DateOrder      time.Time                   `json:"date_order"`
	State          string                      `json:"state"`
	PaymentState   string                      `json:"payment_state"`
	AmountUntaxed  decimal.Decimal             `json:"amount_untaxed"`
	AmountTax      decimal.Decimal             `json:"amount_tax"`
	AmountTotal    decimal.Decimal             `json:"amount_total"`
	SaleOrderIDs   []uuid.UUID                 `json:"sale_order_ids"`
	Lines          []PurchaseOrderLineResponse `json:"lines"`
	Version        int                         `json:"version"`
}

// ToPurchaseOrderResponse converts a purchase order to its response
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]PurchaseOrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = PurchaseOrderLineResponse{
			ID:            l.ID,
			ProductID:     l.ProductID,
			Name:          l.Name,
			Quantity:      l.Quantity,
			UomID:         l.UomID,
			UomName:       l.UomName,
			PriceUnit:     l.PriceUnit,
			PriceSubtotal: l.PriceSubtotal,
			PriceTotal:    l.PriceTotal,
			DatePlanned:   l.DatePlanned,
			RequestID:     l.RequestID,
			QtyInvoiced:   l.QtyInvoiced,
		}
	}
	return PurchaseOrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		VendorID:       o.VendorID,
		VendorName:     o.VendorName,
		Currency:       string(o.Currency),
		PickingTypeID:  o.PickingTypeID,
		IsDropshipping: o.IsDropshipping,
		DestAddressID:  o.DestAddressID,
		Origin:         o.Origin,
		DateOrder:      o.DateOrder,
		State:          string(o.State),
		PaymentState:   string(o.PaymentState),
		AmountUntaxed:  o.AmountUntaxed,
		AmountTax:      o.AmountTax,
		AmountTotal:    o.AmountTotal,
		SaleOrderIDs:   o.SaleOrderIDs(),
		Lines:          lines,
		Version:        o.Version,
	}
}

// ==================== RMA DTOs ====================

// CreateRMARequest opens an RMA on a sales order
type CreateRMARequest struct {
	SaleOrderID uuid.UUID `json:"sale_order_id" binding:"required"`
	RMAType     string    `json:"rma_type" binding:"required,oneof=return exchange"`
	Comment     string    `json:"comment"`
}

// AddReturnLineRequest returns part of a sold line
type AddReturnLineRequest struct {
	SaleLineID uuid.UUID       `json:"sale_line_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
}

// UpdateReturnLineRequest changes the returned quantity
type UpdateReturnLineRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// AddExchangeLineRequest adds a replacement product
type AddExchangeLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	PriceUnit *decimal.Decimal `json:"price_unit"`
}

// RMALineResponse is a return or exchange line
type RMALineResponse struct {
	ID         uuid.UUID       `json:"id"`
	SaleLineID *uuid.UUID      `json:"sale_line_id,omitempty"`
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UomID      uuid.UUID       `json:"uom_id"`
	PriceUnit  decimal.Decimal `json:"price_unit"`
	Subtotal   decimal.Decimal `json:"price_subtotal"`
}

// RMAResponse is an RMA with its lines
type RMAResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	RMAType        string            `json:"rma_type"`
	SaleOrderID    uuid.UUID         `json:"sale_order_id"`
	PartnerID      uuid.UUID         `json:"partner_id"`
	IsDropshipping bool              `json:"is_dropshipping"`
	Comment        string            `json:"comment"`
	State          string            `json:"state"`
	ReturnAmount   decimal.Decimal   `json:"return_amount"`
	ExchangeAmount decimal.Decimal   `json:"exchange_amount"`
	ExchangeDiff   decimal.Decimal   `json:"exchange_diff"`
	ReturnLines    []RMALineResponse `json:"return_lines"`
	ExchangeLines  []RMALineResponse `json:"exchange_lines"`
}

// ToRMAResponse converts an RMA to its response
func ToRMAResponse(r *trade.RMA) RMAResponse {
	ret := make([]RMALineResponse, len(r.ReturnLines))
	for i, l := range r.ReturnLines {
		saleLineID := l.SaleLineID
		ret[i] = RMALineResponse{
			ID:         l.ID,
			SaleLineID: &saleLineID,
			ProductID:  l.ProductID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UomID:      l.UomID,
			PriceUnit:  l.PriceUnit,
			Subtotal:   l.Subtotal,
		}
	}
	ex := make([]RMALineResponse, len(r.ExchangeLines))
	for i, l := range r.ExchangeLines {
		ex[i] = RMALineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UomID:     l.UomID,
			PriceUnit: l.PriceUnit,
			Subtotal:  l.Subtotal,
		}
	}
	return RMAResponse{
		ID:             r.ID,
		Name:           r.Name,
		RMAType:        string(r.RMAType),
		SaleOrderID:    r.SaleOrderID,
		PartnerID:      r.PartnerID,
		IsDropshipping: r.IsDropshipping,
		Comment:        r.Comment,
		State:          string(r.State),
		ReturnAmount:   r.ReturnAmount,
		ExchangeAmount: r.ExchangeAmount,
		ExchangeDiff:   r.ExchangeDiff,
		ReturnLines:    ret,
		ExchangeLines:  ex,
	}
}

// ==================== Platform Order DTOs ====================

// ImportPlatformOrdersRequest is a bulk load of platform order rows
type ImportPlatformOrdersRequest struct {
	Rows []trade.PlatformOrderRow `json:"rows" binding:"required,min=1"`
}

// PlatformOrderResponse is an imported platform order
type PlatformOrderResponse struct {
	ID                    uuid.UUID       `json:"id"`
	OrderReference        string          `json:"order_reference"`
	Brand                 string          `json:"brand"`
	DateOrder             *time.Time      `json:"date_order,omitempty"`
	PlatformCurrency      string          `json:"platform_currency"`
	LogisticsCurrency     string          `json:"logistics_currency"`
	AmountTotal           decimal.Decimal `json:"amount_total"`
	AmountTax             decimal.Decimal `json:"amount_tax"`
	AmountPayment         decimal.Decimal `json:"amount_payment"`
	TrackingNumber        string          `json:"tracking_number"`
	CourierTrackingNumber string          `json:"courier_tracking_number"`
	RegisterFee           decimal.Decimal `json:"register_fee"`
	ShippingCost          decimal.Decimal `json:"shipping_cost"`
	TotalShippingCost     decimal.Decimal `json:"total_shipping_cost"`
	Weight                decimal.Decimal `json:"weight"`
	VolumeWeight          decimal.Decimal `json:"volume_weight"`
	CostWeight            decimal.Decimal `json:"cost_weight"`
	State                 string          `json:"state"`
}

// ToPlatformOrderResponse converts a platform order to its response
func ToPlatformOrderResponse(o *trade.PlatformOrder) PlatformOrderResponse {
	return PlatformOrderResponse{
		ID:                    o.ID,
		OrderReference:        o.OrderReference,
		Brand:                 o.Brand,
		DateOrder:             o.DateOrder,
		PlatformCurrency:      string(o.PlatformCurrency),
		LogisticsCurrency:     string(o.LogisticsCurrency),
		AmountTotal:           o.AmountTotal,
		AmountTax:             o.AmountTax,
		AmountPayment:         o.AmountPayment,
		TrackingNumber:        o.TrackingNumber,
		CourierTrackingNumber: o.CourierTrackingNumber,
		RegisterFee:           o.RegisterFee,
		ShippingCost:          o.ShippingCost,
		TotalShippingCost:     o.TotalShippingCost,
		Weight:                o.Weight,
		VolumeWeight:          o.VolumeWeight,
		CostWeight:            o.CostWeight,
		State:                 string(o.State),
	}
}
