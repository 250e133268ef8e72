package trade

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RequestState represents the state of a purchase request
type RequestState string

const (
	RequestStateOpen   RequestState = "open"
	RequestStateDone   RequestState = "done"
	RequestStateCancel RequestState = "cancel"
)

// DefaultRequestName is the placeholder name until the numbering sequence assigns one
const DefaultRequestName = "New"

// Validation messages raised when drafting a purchase order from requests
var (
	ErrRequestNotOpen       = shared.NewDomainError("REQUEST_NOT_OPEN", "You can only select open request")
	ErrMixedDeliveryTypes   = shared.NewDomainError("MIXED_DELIVERY_TYPES", "Only one delivery type at most")
	ErrMultipleSuppliers    = shared.NewDomainError("MULTIPLE_SUPPLIERS", "Only one supplier at most")
	ErrMultipleCustomers    = shared.NewDomainError("MULTIPLE_CUSTOMERS", "Only one customer at most")
	ErrRequestWithoutVendor = shared.NewDomainError("REQUEST_WITHOUT_VENDOR", "Every request needs a vendor before ordering")
	ErrNothingToPurchase    = shared.NewDomainError("NOTHING_TO_PURCHASE", "The request has no quantity left to purchase")
)

// PurchaseRequest is demand from a sales order line waiting to be purchased
type PurchaseRequest struct {
	shared.TenantAggregateRoot
	Name               string          `gorm:"type:varchar(50);not null;default:'New';index"`
	SaleLineID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleOrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleOrderNumber    string          `gorm:"type:varchar(50)"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null"`
	CustomerShippingID uuid.UUID       `gorm:"type:uuid;not null"`
	IsDropshipping     bool            `gorm:"not null;default:false"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity           decimal.Decimal `gorm:"column:product_uom_qty;type:decimal(18,4);not null"`
	UomID              uuid.UUID       `gorm:"column:product_uom;type:uuid;not null"`
	PartnerID          *uuid.UUID      `gorm:"type:uuid;index"`
	State              RequestState    `gorm:"type:varchar(20);not null;default:'open';index"`
	PurchaseLineCount  int             `gorm:"not null;default:0"`
	QtyPurchased       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyToPurchase      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;index"`
}

// TableName returns the table name for GORM
func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// RequestSource is the sales order line a request is raised for
type RequestSource struct {
	SaleLineID         uuid.UUID
	SaleOrderID        uuid.UUID
	SaleOrderNumber    string
	CustomerID         uuid.UUID
	CustomerShippingID uuid.UUID
	IsDropshipping     bool
}

// SourceFromSaleLine builds the request source of a sales order line
func SourceFromSaleLine(order *SalesOrder, lineID uuid.UUID) (RequestSource, error) {
	if order.FindLine(lineID) == nil {
		return RequestSource{}, shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}
	return RequestSource{
		SaleLineID:         lineID,
		SaleOrderID:        order.ID,
		SaleOrderNumber:    order.OrderNumber,
		CustomerID:         order.CustomerID,
		CustomerShippingID: order.ShippingAddressID,
		IsDropshipping:     order.IsDropshipping,
	}, nil
}

// NewPurchaseRequest opens a request for qty of product in uom
func NewPurchaseRequest(tenantID uuid.UUID, src RequestSource, productID uuid.UUID, qty decimal.Decimal, uomID uuid.UUID, vendorID *uuid.UUID) (*PurchaseRequest, error) {
	if src.SaleLineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALE_LINE", "Sale order line is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	r := &PurchaseRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                DefaultRequestName,
		SaleLineID:          src.SaleLineID,
		SaleOrderID:         src.SaleOrderID,
		SaleOrderNumber:     src.SaleOrderNumber,
		CustomerID:          src.CustomerID,
		CustomerShippingID:  src.CustomerShippingID,
		IsDropshipping:      src.IsDropshipping,
		ProductID:           productID,
		Quantity:            qty,
		UomID:               uomID,
		PartnerID:           vendorID,
		State:               RequestStateOpen,
		QtyToPurchase:       qty,
	}
	r.AddDomainEvent(NewPurchaseRequestCreatedEvent(r))
	return r, nil
}

// AssignName sets the number given by the numbering sequence
func (r *PurchaseRequest) AssignName(name string) {
	if r.Name == DefaultRequestName && strings.TrimSpace(name) != "" {
		r.Name = name
	}
}

// ApplyProcurement replaces the requested quantity with a new procurement run
// for the same sale line and refreshes product, uom and vendor
func (r *PurchaseRequest) ApplyProcurement(productID uuid.UUID, qty decimal.Decimal, uomID uuid.UUID, vendorID *uuid.UUID) error {
	if r.State != RequestStateOpen {
		return ErrRequestNotOpen
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	r.ProductID = productID
	r.Quantity = qty
	r.UomID = uomID
	r.PartnerID = vendorID
	r.QtyToPurchase = r.Quantity.Sub(r.QtyPurchased)
	r.syncState()
	r.Touch()
	return nil
}

// SetPartner chooses the vendor; it must be one of the product's sellers
func (r *PurchaseRequest) SetPartner(vendorID uuid.UUID, candidates []uuid.UUID) error {
	if r.State != RequestStateOpen {
		return ErrRequestNotOpen
	}
	for _, c := range candidates {
		if c == vendorID {
			r.PartnerID = &vendorID
			r.Touch()
			return nil
		}
	}
	return shared.NewDomainError("INVALID_VENDOR", "The vendor does not sell this product")
}

// PurchasedLine is a purchase order line counted against a request, with its
// quantity already expressed in the request uom
type PurchasedLine struct {
	Quantity  decimal.Decimal
	Cancelled bool
}

// RecomputePurchased refreshes the purchased counters from the linked purchase
// lines, ignoring lines of cancelled orders. A fully purchased request is done;
// a done request that lost purchased quantity is reopened.
func (r *PurchaseRequest) RecomputePurchased(lines []PurchasedLine) {
	count := 0
	purchased := decimal.Zero
	for _, l := range lines {
		if l.Cancelled {
			continue
		}
		count++
		purchased = purchased.Add(l.Quantity)
	}
	r.PurchaseLineCount = count
	r.QtyPurchased = purchased
	r.QtyToPurchase = r.Quantity.Sub(purchased)
	r.syncState()
	r.Touch()
}

// syncState closes an open request with nothing left to buy and reopens a
// done one that has
func (r *PurchaseRequest) syncState() {
	switch {
	case r.State == RequestStateOpen && !r.QtyToPurchase.IsPositive():
		r.State = RequestStateDone
		r.AddDomainEvent(NewPurchaseRequestStateChangedEvent(r, RequestStateOpen))
	case r.State == RequestStateDone && r.QtyToPurchase.IsPositive():
		r.State = RequestStateOpen
		r.AddDomainEvent(NewPurchaseRequestStateChangedEvent(r, RequestStateDone))
	}
}

// Cancel drops the request
func (r *PurchaseRequest) Cancel() error {
	if r.State != RequestStateOpen && r.State != RequestStateDone {
		return shared.NewDomainError("INVALID_STATE", "Request is already cancelled")
	}
	old := r.State
	r.State = RequestStateCancel
	r.Touch()
	r.AddDomainEvent(NewPurchaseRequestStateChangedEvent(r, old))
	return nil
}

// Reopen puts a cancelled request back in the pool
func (r *PurchaseRequest) Reopen() error {
	if r.State != RequestStateCancel {
		return shared.NewDomainError("INVALID_STATE", "Only cancelled requests can be reopened")
	}
	r.State = RequestStateOpen
	r.Touch()
	r.AddDomainEvent(NewPurchaseRequestStateChangedEvent(r, RequestStateCancel))
	return nil
}

// MarkDone closes an open request by hand
func (r *PurchaseRequest) MarkDone() error {
	if r.State != RequestStateOpen {
		return ErrRequestNotOpen
	}
	r.State = RequestStateDone
	r.Touch()
	r.AddDomainEvent(NewPurchaseRequestStateChangedEvent(r, RequestStateOpen))
	return nil
}

// RequestSelection is a validated set of requests that can go on one purchase order
type RequestSelection struct {
	Requests           []PurchaseRequest
	VendorID           uuid.UUID
	IsDropshipping     bool
	CustomerShippingID *uuid.UUID
	Origin             string
	SaleOrderIDs       []uuid.UUID
}

// ValidateRequestsForPurchase checks that the selected requests can be merged into
// one purchase order. An empty selection yields a nil selection and no error.
func ValidateRequestsForPurchase(reqs []PurchaseRequest) (*RequestSelection, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	for _, r := range reqs {
		if r.State != RequestStateOpen {
			return nil, ErrRequestNotOpen
		}
		if !r.QtyToPurchase.IsPositive() {
			return nil, ErrNothingToPurchase
		}
	}
	for _, r := range reqs[1:] {
		if r.IsDropshipping != reqs[0].IsDropshipping {
			return nil, ErrMixedDeliveryTypes
		}
	}

	vendors := make(map[uuid.UUID]bool)
	for _, r := range reqs {
		if r.PartnerID == nil {
			return nil, ErrRequestWithoutVendor
		}
		vendors[*r.PartnerID] = true
	}
	if len(vendors) > 1 {
		return nil, ErrMultipleSuppliers
	}

	sel := &RequestSelection{
		Requests:       reqs,
		VendorID:       *reqs[0].PartnerID,
		IsDropshipping: reqs[0].IsDropshipping,
	}
	if sel.IsDropshipping {
		customers := make(map[uuid.UUID]bool)
		for _, r := range reqs {
			customers[r.CustomerShippingID] = true
		}
		if len(customers) > 1 {
			return nil, ErrMultipleCustomers
		}
		shippingID := reqs[0].CustomerShippingID
		sel.CustomerShippingID = &shippingID
	}

	origins := make(map[string]bool)
	seenOrders := make(map[uuid.UUID]bool)
	for _, r := range reqs {
		origins[r.SaleOrderNumber] = true
		if !seenOrders[r.SaleOrderID] {
			seenOrders[r.SaleOrderID] = true
			sel.SaleOrderIDs = append(sel.SaleOrderIDs, r.SaleOrderID)
		}
	}
	names := make([]string, 0, len(origins))
	for name := range origins {
		names = append(names, name)
	}
	sort.Strings(names)
	sel.Origin = strings.Join(names, ",")
	return sel, nil
}

// DraftInput carries what drafting a purchase order from requests needs to look up
type DraftInput struct {
	OrderNumber     string
	Vendor          *partner.Partner
	CompanyCurrency valueobject.Currency
	PickingTypeID   *uuid.UUID
	// Products must have Uom, UomPO, Sellers and SupplierTaxes loaded
	Products map[uuid.UUID]*catalog.Product
	// Uoms resolves the request units
	Uoms map[uuid.UUID]*catalog.UnitOfMeasure
	Now  time.Time
}

// DraftPurchaseOrder builds the draft purchase order for a validated selection
func DraftPurchaseOrder(sel *RequestSelection, in DraftInput) (*PurchaseOrder, error) {
	if sel == nil {
		return nil, nil
	}
	if in.Vendor == nil || in.Vendor.ID != sel.VendorID {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor does not match the selected requests")
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	currency := valueobject.Currency(in.Vendor.PurchaseCurrency)
	if currency == "" {
		currency = in.CompanyCurrency
	}

	tenantID := in.Vendor.TenantID
	po, err := NewPurchaseOrder(tenantID, in.OrderNumber, in.Vendor, currency)
	if err != nil {
		return nil, err
	}
	po.IsDropshipping = sel.IsDropshipping
	po.PickingTypeID = in.PickingTypeID
	po.DestAddressID = sel.CustomerShippingID
	po.Origin = sel.Origin
	po.DateOrder = in.Now

	vendorID := sel.VendorID
	for i := range sel.Requests {
		req := &sel.Requests[i]
		product, ok := in.Products[req.ProductID]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Product of request %s not found", req.Name))
		}
		poUom := product.UomPO
		if poUom == nil {
			poUom = product.Uom
		}
		if !req.QtyToPurchase.IsPositive() {
			return nil, ErrNothingToPurchase
		}
		qty := req.QtyToPurchase
		if reqUom, ok := in.Uoms[req.UomID]; ok && poUom != nil {
			qty, err = reqUom.ComputeQuantity(qty, poUom, true)
			if err != nil {
				return nil, err
			}
		}

		seller := product.SelectSeller(catalog.SellerQuery{
			PartnerID: &vendorID,
			Quantity:  qty,
			Date:      in.Now,
			Uom:       poUom,
		})
		price := decimal.Zero
		delay := 0
		if seller != nil {
			price = seller.Price
			delay = seller.Delay
		}

		requestID := req.ID
		saleLineID := req.SaleLineID
		uomID := product.UomPOID
		uomName := ""
		if poUom != nil {
			uomID = poUom.ID
			uomName = poUom.Name
		}
		if _, err := po.AddLine(PurchaseLineInput{
			ProductID:   product.ID,
			ProductCode: product.DefaultCode,
			Name:        product.PurchaseLineName(),
			Quantity:    qty,
			UomID:       uomID,
			UomName:     uomName,
			PriceUnit:   price,
			Taxes:       product.SupplierTaxes,
			DatePlanned: in.Now.AddDate(0, 0, delay),
			RequestID:   &requestID,
			SaleLineID:  &saleLineID,
		}); err != nil {
			return nil, err
		}
	}
	po.AttachSaleOrders(sel.SaleOrderIDs...)
	return po, nil
}
