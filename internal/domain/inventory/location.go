package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// LocationKind is the usage of a stock location
type LocationKind string

const (
	LocationKindSupplier LocationKind = "supplier"
	LocationKindCustomer LocationKind = "customer"
	LocationKindInternal LocationKind = "internal"
)

// IsValid checks if the kind is known
func (k LocationKind) IsValid() bool {
	switch k {
	case LocationKindSupplier, LocationKindCustomer, LocationKindInternal:
		return true
	}
	return false
}

// Location is a physical or virtual place goods are moved from or to
type Location struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	Name        string       `gorm:"type:varchar(100);not null"`
	Kind        LocationKind `gorm:"column:usage;type:varchar(20);not null;index"`
	WarehouseID *uuid.UUID   `gorm:"type:uuid;index"`
	Active      bool         `gorm:"not null;default:true"`
	CreatedAt   time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "stock_locations"
}

// NewLocation creates an active location
func NewLocation(tenantID uuid.UUID, name string, kind LocationKind) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Location name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Unknown location usage "+string(kind))
	}
	return &Location{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Kind:      kind,
		Active:    true,
		CreatedAt: time.Now(),
	}, nil
}

// Warehouse groups the internal locations of a site
type Warehouse struct {
	shared.TenantAggregateRoot
	Code       string    `gorm:"type:varchar(10);not null"`
	Name       string    `gorm:"type:varchar(100);not null"`
	LotStockID uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "stock_warehouses"
}

// NewWarehouse creates a warehouse together with its stock location
func NewWarehouse(tenantID uuid.UUID, code, name string) (*Warehouse, *Location, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 10 {
		return nil, nil, shared.NewDomainError("INVALID_CODE", "Warehouse code must be 1 to 10 characters")
	}
	stock, err := NewLocation(tenantID, code+"/Stock", LocationKindInternal)
	if err != nil {
		return nil, nil, err
	}
	w := &Warehouse{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		LotStockID:          stock.ID,
	}
	warehouseID := w.ID
	stock.WarehouseID = &warehouseID
	return w, stock, nil
}
