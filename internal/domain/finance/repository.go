package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// MoveFilter narrows move listings
type MoveFilter struct {
	shared.Filter
	MoveType        *MoveType
	State           *MoveState
	PartnerID       *uuid.UUID
	SaleOrderID     *uuid.UUID
	PurchaseOrderID *uuid.UUID
	DateFrom        *time.Time
	DateTo          *time.Time
}

// AccountMoveRepository defines persistence for moves with their lines and tax invoices
type AccountMoveRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*AccountMove, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]AccountMove, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter MoveFilter) ([]AccountMove, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter MoveFilter) (int64, error)
	// FindBySaleOrder returns every move created from the sales order
	FindBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]AccountMove, error)
	// FindByPurchaseOrder returns every vendor bill or refund created from the purchase order
	FindByPurchaseOrder(ctx context.Context, tenantID, purchaseOrderID uuid.UUID) ([]AccountMove, error)
	// FindOpenForPartner returns posted moves of moveType with a residual left to settle
	FindOpenForPartner(ctx context.Context, tenantID, partnerID uuid.UUID, moveType MoveType) ([]AccountMove, error)
	Save(ctx context.Context, move *AccountMove) error
	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, move *AccountMove) error
	// NextName returns the next number for posted moves, e.g. INV/2026/00001
	NextName(ctx context.Context, tenantID uuid.UUID, moveType MoveType, date time.Time) (string, error)
}

// TaxInvoiceRepository defines persistence for paper tax invoices
type TaxInvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TaxInvoice, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]TaxInvoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TaxInvoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByNameAndCode(ctx context.Context, tenantID uuid.UUID, name, code string) (bool, error)
	Save(ctx context.Context, invoice *TaxInvoice) error
}

// PaymentRepository defines persistence for payments with their partial reconciliations
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Payment, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, payment *Payment) error
	// NextName returns the next payment number, e.g. PAY/2026/00001
	NextName(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error)
}
