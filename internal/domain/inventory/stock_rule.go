package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// RuleAction is what a stock rule does when it is triggered
type RuleAction string

const (
	RuleActionPull    RuleAction = "pull"
	RuleActionBuy     RuleAction = "buy"
	RuleActionRequest RuleAction = "request"
)

// ProcureMethod decides where a rule takes goods from
type ProcureMethod string

const (
	ProcureMakeToStock ProcureMethod = "make_to_stock"
	ProcureMakeToOrder ProcureMethod = "make_to_order"
	ProcureMTSElseMTO  ProcureMethod = "mts_else_mto"
)

// RoutePurchaseRequest is the route of the provisioned purchase request rules
const RoutePurchaseRequest = "purchase_request"

// StockRule is a procurement rule attached to a route
type StockRule struct {
	shared.TenantAggregateRoot
	Name          string        `gorm:"type:varchar(200);not null"`
	Action        RuleAction    `gorm:"type:varchar(20);not null"`
	ProcureMethod ProcureMethod `gorm:"type:varchar(20);not null;default:'make_to_stock'"`
	Route         string        `gorm:"type:varchar(64);not null;index"`
	LocationSrcID *uuid.UUID    `gorm:"type:uuid"`
	LocationID    uuid.UUID     `gorm:"type:uuid;not null"`
	PickingTypeID *uuid.UUID    `gorm:"type:uuid"`
	Delay         int           `gorm:"not null;default:0"`
	Active        bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StockRule) TableName() string {
	return "stock_rules"
}

// NewStockRule creates an active rule
func NewStockRule(tenantID uuid.UUID, name string, action RuleAction, method ProcureMethod, route string, src *Location, dest *Location) (*StockRule, error) {
	switch action {
	case RuleActionPull, RuleActionBuy, RuleActionRequest:
	default:
		return nil, shared.NewDomainError("INVALID_RULE", "Unknown rule action "+string(action))
	}
	switch method {
	case ProcureMakeToStock, ProcureMakeToOrder, ProcureMTSElseMTO:
	default:
		return nil, shared.NewDomainError("INVALID_RULE", "Unknown procure method "+string(method))
	}
	if dest == nil {
		return nil, shared.NewDomainError("INVALID_RULE", "Rule destination is required")
	}
	if method != ProcureMakeToOrder && src == nil {
		return nil, shared.NewDomainError("INVALID_RULE", "Rules taking from stock need a source location")
	}
	r := &StockRule{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Action:              action,
		ProcureMethod:       method,
		Route:               route,
		LocationID:          dest.ID,
		Active:              true,
	}
	if src != nil {
		r.LocationSrcID = &src.ID
	}
	return r, nil
}

// NewPurchaseRequestRule creates the rule that serves customer demand from the
// warehouse stock and raises purchase requests for the rest
func NewPurchaseRequestRule(tenantID uuid.UUID, warehouseStock, customers *Location, pickingTypeID *uuid.UUID) (*StockRule, error) {
	if customers == nil || customers.Kind != LocationKindCustomer {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Purchase request rule delivers to the customer location")
	}
	if warehouseStock == nil || warehouseStock.Kind != LocationKindInternal {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Purchase request rule takes from the warehouse stock")
	}
	r, err := NewStockRule(tenantID, fmt.Sprintf("Purchase request → %s", customers.Name), RuleActionRequest, ProcureMTSElseMTO, RoutePurchaseRequest, warehouseStock, customers)
	if err != nil {
		return nil, err
	}
	r.PickingTypeID = pickingTypeID
	return r, nil
}

// RaisesRequests reports whether the uncovered part of a demand becomes a purchase request
func (r *StockRule) RaisesRequests() bool {
	return r.Action == RuleActionRequest || r.Action == RuleActionBuy
}
