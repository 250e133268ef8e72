package catalog

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxUse restricts where a tax can be selected
type TaxUse string

const (
	TaxUseSale     TaxUse = "sale"
	TaxUsePurchase TaxUse = "purchase"
)

// Tax is a percentage tax applied to order and invoice lines
type Tax struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(100);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	PriceInclude bool            `gorm:"not null;default:false"`
	TypeTaxUse   TaxUse          `gorm:"type:varchar(20);not null"`
	Active       bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Tax) TableName() string {
	return "taxes"
}

// NewTax creates a percentage tax
func NewTax(tenantID uuid.UUID, name string, percent decimal.Decimal, priceInclude bool, use TaxUse) (*Tax, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax name is required")
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax percentage must be between 0 and 100")
	}
	if use != TaxUseSale && use != TaxUsePurchase {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax use must be sale or purchase")
	}
	return &Tax{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         name,
		Amount:       percent,
		PriceInclude: priceInclude,
		TypeTaxUse:   use,
		Active:       true,
	}, nil
}

// TaxAmount is one tax's share of a computation
type TaxAmount struct {
	TaxID  uuid.UUID       `json:"tax_id"`
	Name   string          `json:"name"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxResult is the outcome of ComputeAll
type TaxResult struct {
	Untaxed decimal.Decimal
	Tax     decimal.Decimal
	Total   decimal.Decimal
	Taxes   []TaxAmount
}

var hundred = decimal.NewFromInt(100)

// ComputeAll computes line amounts for priceUnit × qty under taxes.
// Price-included taxes are first extracted from the price; the untaxed base
// is then shared by every tax (no cascading).
func ComputeAll(priceUnit, qty decimal.Decimal, taxes []Tax) TaxResult {
	gross := priceUnit.Mul(qty)

	includedRate := decimal.Zero
	for _, t := range taxes {
		if t.PriceInclude {
			includedRate = includedRate.Add(t.Amount)
		}
	}
	base := gross
	if includedRate.IsPositive() {
		base = gross.Mul(hundred).DivRound(hundred.Add(includedRate), 6)
	}
	base = base.Round(2)

	result := TaxResult{Untaxed: base, Tax: decimal.Zero}
	for _, t := range taxes {
		amount := base.Mul(t.Amount).Div(hundred).Round(2)
		result.Taxes = append(result.Taxes, TaxAmount{TaxID: t.ID, Name: t.Name, Base: base, Amount: amount})
		result.Tax = result.Tax.Add(amount)
	}
	result.Total = result.Untaxed.Add(result.Tax)

	// keep the tax-included total equal to the entered price
	if includedRate.IsPositive() && len(result.Taxes) > 0 && allIncluded(taxes) {
		diff := gross.Round(2).Sub(result.Total)
		if !diff.IsZero() {
			last := len(result.Taxes) - 1
			result.Taxes[last].Amount = result.Taxes[last].Amount.Add(diff)
			result.Tax = result.Tax.Add(diff)
			result.Total = gross.Round(2)
		}
	}
	return result
}

// PriceIncludingTax returns the unit price with all taxes added
func PriceIncludingTax(priceUnit decimal.Decimal, taxes []Tax) decimal.Decimal {
	if len(taxes) == 0 {
		return priceUnit
	}
	r := ComputeAll(priceUnit, decimal.NewFromInt(1), taxes)
	return r.Total
}

func allIncluded(taxes []Tax) bool {
	for _, t := range taxes {
		if !t.PriceInclude {
			return false
		}
	}
	return true
}
