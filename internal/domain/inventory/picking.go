package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GroupMoveType tells how the moves of a procurement group are delivered
type GroupMoveType string

const (
	GroupMoveDirect   GroupMoveType = "direct"
	GroupMoveOne      GroupMoveType = "one"
	GroupMoveDropship GroupMoveType = "dropship"
)

// ProcurementGroup ties together the moves raised for one sales order
type ProcurementGroup struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Name        string        `gorm:"type:varchar(100);not null"`
	MoveType    GroupMoveType `gorm:"type:varchar(20);not null;default:'direct'"`
	SaleOrderID *uuid.UUID    `gorm:"type:uuid;index"`
	PartnerID   *uuid.UUID    `gorm:"type:uuid"`
	CreatedAt   time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProcurementGroup) TableName() string {
	return "procurement_groups"
}

// NewProcurementGroup creates the group of a sales order; drop-shipped orders
// get the dropship move type
func NewProcurementGroup(tenantID uuid.UUID, name string, saleOrderID, partnerID uuid.UUID, dropship bool) *ProcurementGroup {
	g := &ProcurementGroup{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		MoveType:    GroupMoveDirect,
		SaleOrderID: &saleOrderID,
		PartnerID:   &partnerID,
		CreatedAt:   time.Now(),
	}
	if dropship {
		g.MoveType = GroupMoveDropship
	}
	return g
}

// MoveState is the state of a stock move or picking
type MoveState string

const (
	MoveStateDraft     MoveState = "draft"
	MoveStateConfirmed MoveState = "confirmed"
	MoveStateAssigned  MoveState = "assigned"
	MoveStateDone      MoveState = "done"
	MoveStateCancel    MoveState = "cancel"
)

// StockMove moves a quantity of one product between two locations
type StockMove struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PickingID        *uuid.UUID      `gorm:"type:uuid;index"`
	GroupID          *uuid.UUID      `gorm:"type:uuid;index"`
	RuleID           *uuid.UUID      `gorm:"type:uuid"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"type:text"`
	Quantity         decimal.Decimal `gorm:"column:product_uom_qty;type:decimal(18,4);not null"`
	UomID            uuid.UUID       `gorm:"column:product_uom;type:uuid;not null"`
	LocationID       uuid.UUID       `gorm:"type:uuid;not null"`
	LocationDestID   uuid.UUID       `gorm:"type:uuid;not null"`
	SaleLineID       *uuid.UUID      `gorm:"type:uuid;index"`
	SaleReturnLineID *uuid.UUID      `gorm:"type:uuid;index"`
	Origin           string          `gorm:"type:varchar(200)"`
	State            MoveState       `gorm:"type:varchar(20);not null;default:'draft';index"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMove) TableName() string {
	return "stock_moves"
}

// NewStockMove creates a draft move
func NewStockMove(tenantID, productID uuid.UUID, qty decimal.Decimal, uomID, src, dest uuid.UUID) (*StockMove, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if !qty.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &StockMove{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ProductID:      productID,
		Quantity:       qty,
		UomID:          uomID,
		LocationID:     src,
		LocationDestID: dest,
		State:          MoveStateDraft,
		CreatedAt:      time.Now(),
	}, nil
}

// NewReturnMove creates the move bringing back goods of a sale return line
func NewReturnMove(tenantID, returnLineID, saleLineID, productID uuid.UUID, qty decimal.Decimal, uomID uuid.UUID, customers, stock uuid.UUID) (*StockMove, error) {
	m, err := NewStockMove(tenantID, productID, qty, uomID, customers, stock)
	if err != nil {
		return nil, err
	}
	m.SaleReturnLineID = &returnLineID
	m.SaleLineID = &saleLineID
	return m, nil
}

// Picking is a transfer document grouping moves of one operation type
type Picking struct {
	shared.TenantAggregateRoot
	Name           string          `gorm:"type:varchar(100);not null;index"`
	PickingTypeID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PickingCode    PickingTypeCode `gorm:"type:varchar(20);not null"`
	PartnerID      *uuid.UUID      `gorm:"type:uuid;index"`
	GroupID        *uuid.UUID      `gorm:"type:uuid;index"`
	Origin         string          `gorm:"type:varchar(200)"`
	ExpressCode    string          `gorm:"type:varchar(100);index"`
	LocationID     uuid.UUID       `gorm:"type:uuid;not null"`
	LocationDestID uuid.UUID       `gorm:"type:uuid;not null"`
	State          MoveState       `gorm:"type:varchar(20);not null;default:'draft';index"`
	ScheduledDate  time.Time       `gorm:"not null"`
	DateDone       *time.Time
	Moves          []StockMove `gorm:"foreignKey:PickingID;references:ID"`
}

// TableName returns the table name for GORM
func (Picking) TableName() string {
	return "stock_pickings"
}

// NewPicking creates a draft transfer of the picking type
func NewPicking(name string, pt *PickingType, src, dest uuid.UUID, partnerID *uuid.UUID, origin string) (*Picking, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Picking name cannot be empty")
	}
	if pt == nil {
		return nil, shared.NewDomainError("INVALID_PICKING_TYPE", "Picking type is required")
	}
	return &Picking{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(pt.TenantID),
		Name:                name,
		PickingTypeID:       pt.ID,
		PickingCode:         pt.Code,
		PartnerID:           partnerID,
		Origin:              origin,
		LocationID:          src,
		LocationDestID:      dest,
		State:               MoveStateDraft,
		ScheduledDate:       time.Now(),
		Moves:               make([]StockMove, 0),
	}, nil
}

// AddMove puts a move on the picking, taking over its locations
func (p *Picking) AddMove(m StockMove) error {
	if p.State != MoveStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Moves can only be added to draft transfers")
	}
	if m.TenantID != p.TenantID {
		return shared.NewDomainError("INVALID_TENANT", "Move belongs to another company")
	}
	pickingID := p.ID
	m.PickingID = &pickingID
	m.GroupID = p.GroupID
	m.LocationID = p.LocationID
	m.LocationDestID = p.LocationDestID
	if m.Origin == "" {
		m.Origin = p.Origin
	}
	p.Moves = append(p.Moves, m)
	p.Touch()
	return nil
}

// SetExpressCode records the courier tracking reference
func (p *Picking) SetExpressCode(code string) {
	p.ExpressCode = strings.TrimSpace(code)
	p.Touch()
}

func (p *Picking) setMovesState(s MoveState) {
	for i := range p.Moves {
		if p.Moves[i].State != MoveStateCancel && p.Moves[i].State != MoveStateDone {
			p.Moves[i].State = s
		}
	}
}

// Confirm marks a draft transfer ready
func (p *Picking) Confirm() error {
	if p.State != MoveStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft transfers can be confirmed")
	}
	if len(p.Moves) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm a transfer without moves")
	}
	p.State = MoveStateConfirmed
	p.setMovesState(MoveStateConfirmed)
	p.Touch()
	return nil
}

// Assign marks a confirmed transfer whose moves hold a stock reservation
func (p *Picking) Assign() error {
	if p.State != MoveStateConfirmed {
		return shared.NewDomainError("INVALID_STATE", "Only confirmed transfers can be reserved")
	}
	p.State = MoveStateAssigned
	p.setMovesState(MoveStateAssigned)
	p.Touch()
	return nil
}

// ReservedMoves returns the moves holding a reservation on their source location
func (p *Picking) ReservedMoves() []StockMove {
	var out []StockMove
	for _, m := range p.Moves {
		if m.State == MoveStateAssigned {
			out = append(out, m)
		}
	}
	return out
}

// Validate books the transfer as done
func (p *Picking) Validate(now time.Time) error {
	if p.State != MoveStateConfirmed && p.State != MoveStateAssigned {
		return shared.NewDomainError("INVALID_STATE", "Only confirmed transfers can be validated")
	}
	p.State = MoveStateDone
	p.setMovesState(MoveStateDone)
	p.DateDone = &now
	p.Touch()
	p.AddDomainEvent(NewPickingDoneEvent(p))
	return nil
}

// Cancel drops a transfer that is not done
func (p *Picking) Cancel() error {
	if p.State == MoveStateDone || p.State == MoveStateCancel {
		return shared.NewDomainError("INVALID_STATE", "Transfer is already "+string(p.State))
	}
	p.State = MoveStateCancel
	p.setMovesState(MoveStateCancel)
	p.Touch()
	return nil
}
