package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// SalesOrderFilter narrows sales order listings
type SalesOrderFilter struct {
	shared.Filter
	CustomerID   *uuid.UUID
	State        *OrderState
	InvoiceState *InvoiceState
	DateFrom     *time.Time
	DateTo       *time.Time
}

// SalesOrderRepository defines persistence for sales orders with their lines
type SalesOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]SalesOrder, error)
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*SalesOrder, error)
	// FindByLineIDs returns the orders owning any of the sale lines
	FindByLineIDs(ctx context.Context, tenantID uuid.UUID, lineIDs []uuid.UUID) ([]SalesOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SalesOrderFilter) ([]SalesOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter SalesOrderFilter) (int64, error)
	Save(ctx context.Context, order *SalesOrder) error
	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, order *SalesOrder) error
}

// PurchaseOrderFilter narrows purchase order listings
type PurchaseOrderFilter struct {
	shared.Filter
	VendorID       *uuid.UUID
	State          *PurchaseState
	PaymentState   *PaymentState
	IsDropshipping *bool
}

// PurchaseOrderRepository defines persistence for purchase orders with their lines
type PurchaseOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderFilter) ([]PurchaseOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderFilter) (int64, error)
	// FindLinesByRequestIDs returns the purchase lines drafted from the requests
	// together with their order state
	FindLinesByRequestIDs(ctx context.Context, tenantID uuid.UUID, requestIDs []uuid.UUID) ([]RequestPurchaseLine, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
}

// RequestPurchaseLine is a purchase line viewed from the request it fulfils
type RequestPurchaseLine struct {
	PurchaseOrderLine
	OrderState PurchaseState `gorm:"column:order_state"`
}

// RequestFilter narrows purchase request listings
type RequestFilter struct {
	shared.Filter
	State          *RequestState
	PartnerID      *uuid.UUID
	SaleOrderID    *uuid.UUID
	ProductID      *uuid.UUID
	IsDropshipping *bool
}

// PurchaseRequestRepository defines persistence for purchase requests
type PurchaseRequestRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequest, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]PurchaseRequest, error)
	// FindOpenBySaleLine returns the open request raised for the sale line, or ErrNotFound
	FindOpenBySaleLine(ctx context.Context, tenantID, saleLineID uuid.UUID) (*PurchaseRequest, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter RequestFilter) ([]PurchaseRequest, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter RequestFilter) (int64, error)
	Save(ctx context.Context, request *PurchaseRequest) error
	SaveBatch(ctx context.Context, requests []PurchaseRequest) error
}

// RMARepository defines persistence for return authorizations
type RMARepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*RMA, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]RMA, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	FindBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]RMA, error)
	Save(ctx context.Context, rma *RMA) error
}

// PlatformOrderRepository defines persistence for imported platform orders
type PlatformOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PlatformOrder, error)
	// FindByReferences returns the existing orders keyed by order_reference
	FindByReferences(ctx context.Context, tenantID uuid.UUID, refs []string) (map[string]*PlatformOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PlatformOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, order *PlatformOrder) error
}
