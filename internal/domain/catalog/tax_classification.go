package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// TaxClassification is the goods and services tax code a category files under
type TaxClassification struct {
	shared.TenantAggregateRoot
	Name   string `gorm:"type:varchar(200);not null"`
	Code   string `gorm:"type:varchar(50);uniqueIndex:idx_tax_classification_tenant_code,priority:2"`
	Code18 string `gorm:"column:code18;type:varchar(32)"`
}

// TableName returns the table name for GORM
func (TaxClassification) TableName() string {
	return "tax_classifications"
}

// NewTaxClassification creates a tax classification
func NewTaxClassification(tenantID uuid.UUID, name, code, code18 string) (*TaxClassification, error) {
	tc := &TaxClassification{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
	}
	if err := tc.Update(name, code, code18); err != nil {
		return nil, err
	}
	return tc, nil
}

// Update replaces all fields
func (t *TaxClassification) Update(name, code, code18 string) error {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	code18 = strings.TrimSpace(code18)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tax classification name is required")
	}
	if !isDigits(code) || !isDigits(code18) {
		return shared.NewDomainError("INVALID_CODE", "Tax classification codes may only contain digits")
	}
	t.Name = name
	t.Code = code
	t.Code18 = code18
	t.Touch()
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
