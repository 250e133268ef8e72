package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// LocationRepository defines persistence for locations and warehouses
type LocationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Location, error)
	// FindFirstByKind returns the oldest active location of the kind
	FindFirstByKind(ctx context.Context, tenantID uuid.UUID, kind LocationKind) (*Location, error)
	Save(ctx context.Context, loc *Location) error
	// FindDefaultWarehouse returns the company's first warehouse
	FindDefaultWarehouse(ctx context.Context, tenantID uuid.UUID) (*Warehouse, error)
	SaveWarehouse(ctx context.Context, w *Warehouse) error
}

// PickingTypeRepository defines persistence for operation types
type PickingTypeRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PickingType, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code PickingTypeCode) (*PickingType, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code PickingTypeCode) (bool, error)
	Save(ctx context.Context, pt *PickingType) error
}

// StockRuleRepository defines persistence for stock rules
type StockRuleRepository interface {
	// FindByRoute returns the active rule of the route delivering to locationID
	FindByRoute(ctx context.Context, tenantID uuid.UUID, route string, locationID uuid.UUID) (*StockRule, error)
	ExistsByRoute(ctx context.Context, tenantID uuid.UUID, route string) (bool, error)
	Save(ctx context.Context, rule *StockRule) error
}

// PickingFilter narrows picking listings
type PickingFilter struct {
	shared.Filter
	PickingTypeID *uuid.UUID
	State         *MoveState
	Origin        string
	ExpressCode   string
}

// PickingRepository defines persistence for pickings with their moves
type PickingRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Picking, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PickingFilter) ([]Picking, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PickingFilter) (int64, error)
	// ExistsForReturnLines reports whether a move already brings back any of the lines
	ExistsForReturnLines(ctx context.Context, tenantID uuid.UUID, returnLineIDs []uuid.UUID) (bool, error)
	Save(ctx context.Context, p *Picking) error
	SaveWithLock(ctx context.Context, p *Picking) error
	SaveGroup(ctx context.Context, g *ProcurementGroup) error
}

// StockQuantRepository defines persistence for quants
type StockQuantRepository interface {
	FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID, productIDs []uuid.UUID) ([]StockQuant, error)
	// FindOrCreate returns the quant for the pair, creating an empty one
	FindOrCreate(ctx context.Context, tenantID, locationID, productID uuid.UUID) (*StockQuant, error)
	SaveWithLock(ctx context.Context, q *StockQuant) error
}
