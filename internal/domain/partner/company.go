package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// Company is a legal entity using the system. Its ID is the tenant ID of
// every record it owns.
type Company struct {
	shared.BaseAggregateRoot
	Name      string     `gorm:"type:varchar(200);not null"`
	Currency  string     `gorm:"type:varchar(3);not null;default:'CNY'"`
	POLead    int        `gorm:"column:po_lead;not null;default:0"`
	PartnerID *uuid.UUID `gorm:"type:uuid"`

	// Setup flags, true once the record was provisioned for the company
	HasDropshipSequence    bool `gorm:"not null;default:false"`
	HasDropshipPickingType bool `gorm:"not null;default:false"`
	HasPurchaseRequestRule bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates a company with the given currency (CNY when empty)
func NewCompany(name, currency string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if currency == "" {
		currency = "CNY"
	}
	return &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Currency:          strings.ToUpper(currency),
	}, nil
}

// TenantID returns the tenant the company's records are stored under
func (c *Company) TenantID() uuid.UUID {
	return c.ID
}

// SetPOLead sets the purchase lead time in days
func (c *Company) SetPOLead(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Purchase lead time cannot be negative")
	}
	c.POLead = days
	c.Touch()
	return nil
}

// NeedsSetup reports whether any dropship or purchase request record is missing
func (c *Company) NeedsSetup() bool {
	return !c.HasDropshipSequence || !c.HasDropshipPickingType || !c.HasPurchaseRequestRule
}

// MarkProvisioned records which setup records now exist
func (c *Company) MarkProvisioned(sequence, pickingType, rule bool) {
	c.HasDropshipSequence = c.HasDropshipSequence || sequence
	c.HasDropshipPickingType = c.HasDropshipPickingType || pickingType
	c.HasPurchaseRequestRule = c.HasPurchaseRequestRule || rule
	c.Touch()
}
