package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// PickingListFilter is the query of a picking listing
type PickingListFilter struct {
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	PickingTypeID *uuid.UUID `form:"picking_type_id"`
	State         string     `form:"state" binding:"omitempty,oneof=draft confirmed assigned done cancel"`
	Origin        string     `form:"origin"`
	ExpressCode   string     `form:"express_code"`
}

// SetExpressCodeRequest records a courier tracking reference
type SetExpressCodeRequest struct {
	ExpressCode string `json:"express_code" binding:"required,max=100"`
}

// StockMoveResponse is a move of a picking
type StockMoveResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Name             string          `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	UomID            uuid.UUID       `json:"uom_id"`
	SaleLineID       *uuid.UUID      `json:"sale_line_id,omitempty"`
	SaleReturnLineID *uuid.UUID      `json:"sale_return_line_id,omitempty"`
	State            string          `json:"state"`
}

// PickingResponse is a transfer with its moves
type PickingResponse struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	PickingTypeID  uuid.UUID           `json:"picking_type_id"`
	Code           string              `json:"code"`
	PartnerID      *uuid.UUID          `json:"partner_id,omitempty"`
	Origin         string              `json:"origin"`
	ExpressCode    string              `json:"express_code"`
	LocationID     uuid.UUID           `json:"location_id"`
	LocationDestID uuid.UUID           `json:"location_dest_id"`
	State          string              `json:"state"`
	ScheduledDate  time.Time           `json:"scheduled_date"`
	DateDone       *time.Time          `json:"date_done,omitempty"`
	Moves          []StockMoveResponse `json:"moves"`
}

// ToPickingResponse converts a picking to its response
func ToPickingResponse(p *inventory.Picking) PickingResponse {
	moves := make([]StockMoveResponse, len(p.Moves))
	for i, m := range p.Moves {
		moves[i] = StockMoveResponse{
			ID:               m.ID,
			ProductID:        m.ProductID,
			Name:             m.Name,
			Quantity:         m.Quantity,
			UomID:            m.UomID,
			SaleLineID:       m.SaleLineID,
			SaleReturnLineID: m.SaleReturnLineID,
			State:            string(m.State),
		}
	}
	return PickingResponse{
		ID:             p.ID,
		Name:           p.Name,
		PickingTypeID:  p.PickingTypeID,
		Code:           string(p.PickingCode),
		PartnerID:      p.PartnerID,
		Origin:         p.Origin,
		ExpressCode:    p.ExpressCode,
		LocationID:     p.LocationID,
		LocationDestID: p.LocationDestID,
		State:          string(p.State),
		ScheduledDate:  p.ScheduledDate,
		DateDone:       p.DateDone,
		Moves:          moves,
	}
}

// CompanySetupResponse reports what a setup run created
type CompanySetupResponse struct {
	CompanyID          uuid.UUID `json:"company_id"`
	CreatedSequence    bool      `json:"created_sequence"`
	CreatedPickingType bool      `json:"created_picking_type"`
	CreatedRule        bool      `json:"created_rule"`
}
