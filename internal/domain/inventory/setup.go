package inventory

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
)

// SetupLocations are the locations the provisioned records point at
type SetupLocations struct {
	Suppliers      *Location
	Customers      *Location
	WarehouseStock *Location
	// DeliveryTypeID is the outgoing picking type used by the rule
	DeliveryTypeID *uuid.UUID
}

// SetupExisting tells which records a company already has
type SetupExisting struct {
	Sequence    bool
	PickingType bool
	Rule        bool
}

// SetupPlan holds the records to create; nil fields already exist
type SetupPlan struct {
	Sequence    *shared.Sequence
	PickingType *PickingType
	Rule        *StockRule
}

// Empty reports whether there is nothing to create
func (p *SetupPlan) Empty() bool {
	return p.Sequence == nil && p.PickingType == nil && p.Rule == nil
}

// PlanCompanySetup builds the dropship sequence, the Dropship picking type and
// the purchase request rule that company is missing
func PlanCompanySetup(company *partner.Company, locs SetupLocations, existing SetupExisting) (*SetupPlan, error) {
	if company == nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company is required")
	}
	tenantID := company.TenantID()
	plan := &SetupPlan{}

	if !existing.Sequence {
		seq, err := shared.NewSequence(tenantID, shared.SequenceDropshipping, "Dropship", "DS/", 5)
		if err != nil {
			return nil, err
		}
		plan.Sequence = seq
	}

	if !existing.PickingType {
		pt, err := NewDropshipPickingType(tenantID, locs.Suppliers, locs.Customers)
		if err != nil {
			return nil, err
		}
		plan.PickingType = pt
	}

	if !existing.Rule {
		rule, err := NewPurchaseRequestRule(tenantID, locs.WarehouseStock, locs.Customers, locs.DeliveryTypeID)
		if err != nil {
			return nil, err
		}
		plan.Rule = rule
	}
	return plan, nil
}

