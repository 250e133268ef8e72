package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// PickingTypeCode is the kind of operation a picking type performs
type PickingTypeCode string

const (
	PickingTypeIncoming PickingTypeCode = "incoming"
	PickingTypeOutgoing PickingTypeCode = "outgoing"
	PickingTypeInternal PickingTypeCode = "internal"
	PickingTypeDropship PickingTypeCode = "dropship"
)

// IsValid checks if the code is known
func (c PickingTypeCode) IsValid() bool {
	switch c {
	case PickingTypeIncoming, PickingTypeOutgoing, PickingTypeInternal, PickingTypeDropship:
		return true
	}
	return false
}

// SequenceCode returns the short code used in picking names
func (c PickingTypeCode) SequenceCode() string {
	switch c {
	case PickingTypeIncoming:
		return "IN"
	case PickingTypeOutgoing:
		return "OUT"
	case PickingTypeInternal:
		return "INT"
	case PickingTypeDropship:
		return "DS"
	}
	return ""
}

// DefaultLocationKinds returns the usual source and destination of the operation
func (c PickingTypeCode) DefaultLocationKinds() (src, dest LocationKind) {
	switch c {
	case PickingTypeIncoming:
		return LocationKindSupplier, LocationKindInternal
	case PickingTypeOutgoing:
		return LocationKindInternal, LocationKindCustomer
	case PickingTypeDropship:
		return LocationKindSupplier, LocationKindCustomer
	}
	return LocationKindInternal, LocationKindInternal
}

// PickingType is an operation type such as receipts, deliveries or drop-ship
type PickingType struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name                  string          `gorm:"type:varchar(100);not null"`
	Code                  PickingTypeCode `gorm:"type:varchar(20);not null;index"`
	SequenceCode          string          `gorm:"type:varchar(10);not null"`
	SequenceRef           string          `gorm:"column:sequence_ref;type:varchar(64);not null"`
	WarehouseID           *uuid.UUID      `gorm:"type:uuid;index"`
	DefaultLocationSrcID  *uuid.UUID      `gorm:"type:uuid"`
	DefaultLocationDestID *uuid.UUID      `gorm:"type:uuid"`
	Active                bool            `gorm:"not null;default:true"`
	CreatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PickingType) TableName() string {
	return "stock_picking_types"
}

// NewPickingType creates an operation type numbered by the sequence sequenceRef
func NewPickingType(tenantID uuid.UUID, name string, code PickingTypeCode, sequenceRef string, src, dest *Location) (*PickingType, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Picking type name cannot be empty")
	}
	if !code.IsValid() {
		return nil, shared.NewDomainError("INVALID_PICKING_TYPE", "Unknown picking type code "+string(code))
	}
	if sequenceRef == "" {
		return nil, shared.NewDomainError("INVALID_SEQUENCE", "Picking type needs a numbering sequence")
	}
	wantSrc, wantDest := code.DefaultLocationKinds()
	pt := &PickingType{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         name,
		Code:         code,
		SequenceCode: code.SequenceCode(),
		SequenceRef:  sequenceRef,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if src != nil {
		if src.Kind != wantSrc {
			return nil, shared.NewDomainError("INVALID_LOCATION", "Default source location must be a "+string(wantSrc)+" location")
		}
		pt.DefaultLocationSrcID = &src.ID
	}
	if dest != nil {
		if dest.Kind != wantDest {
			return nil, shared.NewDomainError("INVALID_LOCATION", "Default destination location must be a "+string(wantDest)+" location")
		}
		pt.DefaultLocationDestID = &dest.ID
	}
	return pt, nil
}

// NewDropshipPickingType creates the company-wide Dropship operation type
func NewDropshipPickingType(tenantID uuid.UUID, suppliers, customers *Location) (*PickingType, error) {
	if suppliers == nil || customers == nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Dropship needs the supplier and customer locations")
	}
	return NewPickingType(tenantID, DropshipPickingTypeName, PickingTypeDropship, shared.SequenceDropshipping, suppliers, customers)
}

// DropshipPickingTypeName is the name of the provisioned dropship type
const DropshipPickingTypeName = "Dropship"
