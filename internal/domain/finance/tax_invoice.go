package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TaxInvoiceState is the state of a paper tax invoice
type TaxInvoiceState string

const (
	TaxInvoiceStateDone   TaxInvoiceState = "done"
	TaxInvoiceStateCancel TaxInvoiceState = "cancel"
)

// IsValid checks if the state is known
func (s TaxInvoiceState) IsValid() bool {
	return s == TaxInvoiceStateDone || s == TaxInvoiceStateCancel
}

// TaxInvoice is a paper tax invoice issued by the tax authority system
// and linked to one or more account moves
type TaxInvoice struct {
	shared.TenantAggregateRoot
	Name          string               `gorm:"type:varchar(64);not null;index"`
	Code          string               `gorm:"type:varchar(64);not null"`
	PartnerID     *uuid.UUID           `gorm:"type:uuid;index"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'CNY'"`
	AmountUntaxed decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal   decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ExpressCode   string               `gorm:"type:varchar(64)"`
	InvoiceDate   time.Time            `gorm:"type:date;not null"`
	SentDate      time.Time            `gorm:"type:date;not null"`
	State         TaxInvoiceState      `gorm:"type:varchar(20);not null;default:'done'"`
}

// TableName returns the table name for GORM
func (TaxInvoice) TableName() string {
	return "tax_invoices"
}

// NewTaxInvoice records a paper invoice; both dates default to today
func NewTaxInvoice(tenantID uuid.UUID, name, code string, untaxed, tax decimal.Decimal, today time.Time) (*TaxInvoice, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Invoice number is required")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Invoice code is required")
	}
	if untaxed.IsNegative() || tax.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amounts cannot be negative")
	}

	ti := &TaxInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Code:                code,
		Currency:            valueobject.DefaultCurrency,
		AmountUntaxed:       valueobject.RoundAmount(untaxed),
		AmountTax:           valueobject.RoundAmount(tax),
		InvoiceDate:         today,
		SentDate:            today,
		State:               TaxInvoiceStateDone,
	}
	ti.AmountTotal = ti.AmountUntaxed.Add(ti.AmountTax)
	return ti, nil
}

// SetShipping records the courier tracking code and the date the paper was sent
func (t *TaxInvoice) SetShipping(expressCode string, sentDate time.Time) {
	t.ExpressCode = strings.TrimSpace(expressCode)
	if !sentDate.IsZero() {
		t.SentDate = sentDate
	}
	t.Touch()
}

// ActionDone marks the invoice valid again
func (t *TaxInvoice) ActionDone() {
	t.setState(TaxInvoiceStateDone)
}

// ActionCancel voids the invoice
func (t *TaxInvoice) ActionCancel() {
	t.setState(TaxInvoiceStateCancel)
}

func (t *TaxInvoice) setState(s TaxInvoiceState) {
	if t.State == s {
		return
	}
	t.State = s
	t.Touch()
	t.AddDomainEvent(NewTaxInvoiceStateChangedEvent(t))
}
