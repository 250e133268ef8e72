package inventory

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePicking = "Picking"
	AggregateTypeCompany = "Company"
)

// Event type constants
const (
	EventTypePickingDone          = "PickingDone"
	EventTypeCompanySetupComplete = "CompanySetupComplete"
)

// DoneMove is a move booked by a validated picking
type DoneMove struct {
	MoveID           uuid.UUID       `json:"move_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UomID            uuid.UUID       `json:"uom_id"`
	LocationID       uuid.UUID       `json:"location_id"`
	LocationDestID   uuid.UUID       `json:"location_dest_id"`
	SaleLineID       *uuid.UUID      `json:"sale_line_id,omitempty"`
	SaleReturnLineID *uuid.UUID      `json:"sale_return_line_id,omitempty"`
}

// PickingDoneEvent is raised when a transfer is validated. Sales orders
// update delivered quantities from it and quants are moved.
type PickingDoneEvent struct {
	shared.BaseDomainEvent
	PickingID   uuid.UUID       `json:"picking_id"`
	Name        string          `json:"name"`
	Code        PickingTypeCode `json:"code"`
	ExpressCode string          `json:"express_code,omitempty"`
	Moves       []DoneMove      `json:"moves"`
}

// NewPickingDoneEvent creates a new PickingDoneEvent
func NewPickingDoneEvent(p *Picking) *PickingDoneEvent {
	moves := make([]DoneMove, 0, len(p.Moves))
	for _, m := range p.Moves {
		if m.State != MoveStateDone {
			continue
		}
		moves = append(moves, DoneMove{
			MoveID:           m.ID,
			ProductID:        m.ProductID,
			Quantity:         m.Quantity,
			UomID:            m.UomID,
			LocationID:       m.LocationID,
			LocationDestID:   m.LocationDestID,
			SaleLineID:       m.SaleLineID,
			SaleReturnLineID: m.SaleReturnLineID,
		})
	}
	return &PickingDoneEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePickingDone, AggregateTypePicking, p.ID, p.TenantID),
		PickingID:       p.ID,
		Name:            p.Name,
		Code:            p.PickingCode,
		ExpressCode:     p.ExpressCode,
		Moves:           moves,
	}
}

// EventType returns the event type name
func (e *PickingDoneEvent) EventType() string {
	return EventTypePickingDone
}

// CompanySetupCompleteEvent is raised when the dropship and purchase request
// records of a company were provisioned
type CompanySetupCompleteEvent struct {
	shared.BaseDomainEvent
	CompanyID          uuid.UUID `json:"company_id"`
	CreatedSequence    bool      `json:"created_sequence"`
	CreatedPickingType bool      `json:"created_picking_type"`
	CreatedRule        bool      `json:"created_rule"`
}

// NewCompanySetupCompleteEvent creates a new CompanySetupCompleteEvent
func NewCompanySetupCompleteEvent(companyID uuid.UUID, plan *SetupPlan) *CompanySetupCompleteEvent {
	return &CompanySetupCompleteEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeCompanySetupComplete, AggregateTypeCompany, companyID, companyID),
		CompanyID:          companyID,
		CreatedSequence:    plan.Sequence != nil,
		CreatedPickingType: plan.PickingType != nil,
		CreatedRule:        plan.Rule != nil,
	}
}
