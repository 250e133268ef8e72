package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UomType places a unit relative to its category's reference unit
type UomType string

const (
	UomTypeReference UomType = "reference"
	UomTypeBigger    UomType = "bigger"
	UomTypeSmaller   UomType = "smaller"
)

// UnitOfMeasure is a unit within a category (Unit, Weight, Length...).
// Ratio is the size of the unit in reference units: 12 for a dozen.
type UnitOfMeasure struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name     string          `gorm:"type:varchar(50);not null"`
	Category string          `gorm:"type:varchar(50);not null"`
	UomType  UomType         `gorm:"type:varchar(20);not null;default:'reference'"`
	Ratio    decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1"`
	Rounding decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0.01"`
	Active   bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UnitOfMeasure) TableName() string {
	return "units_of_measure"
}

// NewUnitOfMeasure creates a unit; ratio is 0.001 for a gram when kg is the reference
func NewUnitOfMeasure(tenantID uuid.UUID, name, category string, ratio decimal.Decimal) (*UnitOfMeasure, error) {
	if name == "" || category == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "Unit name and category are required")
	}
	if !ratio.IsPositive() {
		return nil, shared.NewDomainError("INVALID_UOM", "Unit ratio must be positive")
	}

	u := &UnitOfMeasure{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     name,
		Category: category,
		Rounding: decimal.RequireFromString("0.01"),
		Active:   true,
	}
	u.Ratio = ratio
	switch ratio.Cmp(decimal.NewFromInt(1)) {
	case 0:
		u.UomType = UomTypeReference
	case 1:
		u.UomType = UomTypeBigger
	default:
		u.UomType = UomTypeSmaller
	}
	return u, nil
}

// ComputeQuantity converts qty expressed in u to the unit to.
// With roundUp the result is rounded up to to's rounding precision, as
// procurement does; otherwise half-up.
func (u *UnitOfMeasure) ComputeQuantity(qty decimal.Decimal, to *UnitOfMeasure, roundUp bool) (decimal.Decimal, error) {
	if to == nil || u.ID == to.ID {
		return qty, nil
	}
	if u.Category != to.Category {
		return decimal.Zero, shared.NewDomainError("UOM_CATEGORY_MISMATCH",
			fmt.Sprintf("The unit of measure %s defined on the order line doesn't belong to the same category as %s", u.Name, to.Name))
	}
	out := qty.Mul(u.Ratio).DivRound(to.Ratio, 12)
	return roundToPrecision(out, to.Rounding, roundUp), nil
}

// ComputePrice converts a unit price expressed per u into a price per to
func (u *UnitOfMeasure) ComputePrice(price decimal.Decimal, to *UnitOfMeasure) decimal.Decimal {
	if to == nil || u.ID == to.ID || u.Category != to.Category {
		return price
	}
	return price.Mul(to.Ratio).DivRound(u.Ratio, 6)
}

func roundToPrecision(v, rounding decimal.Decimal, up bool) decimal.Decimal {
	if !rounding.IsPositive() {
		return v
	}
	steps := v.Div(rounding)
	if up {
		steps = steps.Round(8).Ceil()
	} else {
		steps = steps.Round(0)
	}
	return steps.Mul(rounding)
}
