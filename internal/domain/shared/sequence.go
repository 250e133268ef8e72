package shared

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known sequence codes
const (
	SequenceSaleOrder       = "sale.order"
	SequencePurchaseOrder   = "purchase.order"
	SequencePurchaseRequest = "purchase.request"
	SequenceRMA             = "sale.rma"
	SequencePayment         = "account.payment"
	SequenceDropshipping    = "stock.dropshipping"
	SequencePickingIn       = "stock.picking.in"
	SequencePickingOut      = "stock.picking.out"
	SequencePickingInternal = "stock.picking.internal"

	SequenceMoveOutInvoice = "account.move.out_invoice"
	SequenceMoveOutRefund  = "account.move.out_refund"
	SequenceMoveInInvoice  = "account.move.in_invoice"
	SequenceMoveInRefund   = "account.move.in_refund"
	SequenceMoveEntry      = "account.move.entry"
)

// Sequence is a per-company numbering counter. Prefixes may contain a %(year)s
// placeholder that is expanded with the document date.
type Sequence struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index:idx_sequence_code,unique"`
	Code       string    `gorm:"type:varchar(64);not null;index:idx_sequence_code,unique"`
	Name       string    `gorm:"type:varchar(100);not null"`
	Prefix     string    `gorm:"type:varchar(50);not null"`
	Padding    int       `gorm:"not null;default:5"`
	NumberNext int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Sequence) TableName() string {
	return "ir_sequences"
}

// NewSequence creates a sequence starting at 1
func NewSequence(tenantID uuid.UUID, code, name, prefix string, padding int) (*Sequence, error) {
	if strings.TrimSpace(code) == "" {
		return nil, NewDomainError("INVALID_SEQUENCE", "Sequence code cannot be empty")
	}
	if padding < 0 {
		return nil, NewDomainError("INVALID_SEQUENCE", "Sequence padding cannot be negative")
	}
	now := time.Now()
	return &Sequence{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Code:       code,
		Name:       name,
		Prefix:     prefix,
		Padding:    padding,
		NumberNext: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Format renders number with the sequence prefix and padding
func (s *Sequence) Format(number int64, date time.Time) string {
	prefix := strings.ReplaceAll(s.Prefix, "%(year)s", date.Format("2006"))
	return fmt.Sprintf("%s%0*d", prefix, s.Padding, number)
}

// Take returns the next formatted number and advances the counter
func (s *Sequence) Take(date time.Time) string {
	name := s.Format(s.NumberNext, date)
	s.NumberNext++
	s.UpdatedAt = time.Now()
	return name
}

// DefaultSequences are created on first use for a company
var DefaultSequences = map[string]Sequence{
	SequenceSaleOrder:       {Name: "Sales Order", Prefix: "SO-%(year)s-", Padding: 5},
	SequencePurchaseOrder:   {Name: "Purchase Order", Prefix: "PO-%(year)s-", Padding: 5},
	SequencePurchaseRequest: {Name: "Purchase Request", Prefix: "PR-%(year)s-", Padding: 5},
	SequenceRMA:             {Name: "Sale RMA", Prefix: "RMA-%(year)s-", Padding: 5},
	SequencePayment:         {Name: "Payment", Prefix: "PAY/%(year)s/", Padding: 5},
	SequenceDropshipping:    {Name: "Dropship", Prefix: "DS/", Padding: 5},
	SequencePickingIn:       {Name: "Receipts", Prefix: "WH/IN/", Padding: 5},
	SequencePickingOut:      {Name: "Delivery Orders", Prefix: "WH/OUT/", Padding: 5},
	SequencePickingInternal: {Name: "Internal Transfers", Prefix: "WH/INT/", Padding: 5},
	SequenceMoveOutInvoice:  {Name: "Customer Invoices", Prefix: "INV/%(year)s/", Padding: 5},
	SequenceMoveOutRefund:   {Name: "Customer Credit Notes", Prefix: "RINV/%(year)s/", Padding: 5},
	SequenceMoveInInvoice:   {Name: "Vendor Bills", Prefix: "BILL/%(year)s/", Padding: 5},
	SequenceMoveInRefund:    {Name: "Vendor Refunds", Prefix: "RBILL/%(year)s/", Padding: 5},
	SequenceMoveEntry:       {Name: "Miscellaneous Operations", Prefix: "MISC/%(year)s/", Padding: 5},
}

// SequenceGenerator hands out document numbers
type SequenceGenerator interface {
	// Next returns the next number of the tenant's sequence with the given code,
	// creating the sequence from DefaultSequences when it does not exist yet
	Next(ctx context.Context, tenantID uuid.UUID, code string, date time.Time) (string, error)
	// Exists reports whether the tenant already has a sequence with the code
	Exists(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	// Create stores a new sequence
	Create(ctx context.Context, seq *Sequence) error
}
