package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentType is the direction of the money
type PaymentType string

const (
	PaymentTypeInbound  PaymentType = "inbound"
	PaymentTypeOutbound PaymentType = "outbound"
)

// PartnerType tells whether the counterparty is a customer or a supplier
type PartnerType string

const (
	PartnerTypeCustomer PartnerType = "customer"
	PartnerTypeSupplier PartnerType = "supplier"
)

// JournalKind is the kind of journal a payment is registered in
type JournalKind string

const (
	JournalKindBank JournalKind = "bank"
	JournalKindCash JournalKind = "cash"
)

// PaymentState is the lifecycle state of a payment
type PaymentState string

const (
	PaymentStateDraft      PaymentState = "draft"
	PaymentStatePosted     PaymentState = "posted"
	PaymentStateReconciled PaymentState = "reconciled"
	PaymentStateCancelled  PaymentState = "cancelled"
)

// CanTransitionTo checks the payment workflow
func (s PaymentState) CanTransitionTo(target PaymentState) bool {
	switch s {
	case PaymentStateDraft:
		return target == PaymentStatePosted || target == PaymentStateCancelled
	case PaymentStatePosted:
		return target == PaymentStateReconciled || target == PaymentStateCancelled
	}
	return false
}

// AllocationStrategy decides how a payment is spread over open invoices
type AllocationStrategy string

const (
	AllocationFIFO   AllocationStrategy = "FIFO"
	AllocationManual AllocationStrategy = "MANUAL"
)

// IsValid checks if the strategy is known
func (s AllocationStrategy) IsValid() bool {
	return s == AllocationFIFO || s == AllocationManual
}

// ErrPaymentExceedsActual is returned when a supplier payment does not match what is owed
var ErrPaymentExceedsActual = shared.NewDomainError("PAYMENT_EXCEEDS_ACTUAL", "Amount is more than actual")

// Payment is money received from or paid to a partner
type Payment struct {
	shared.TenantAggregateRoot
	Name            string               `gorm:"type:varchar(64);not null;default:'/';index"`
	PaymentType     PaymentType          `gorm:"type:varchar(20);not null"`
	PartnerType     PartnerType          `gorm:"type:varchar(20);not null"`
	PartnerID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	PartnerName     string               `gorm:"type:varchar(200)"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null;default:'CNY'"`
	PaymentDate     time.Time            `gorm:"type:date;not null"`
	JournalKind     JournalKind          `gorm:"type:varchar(20);not null;default:'bank'"`
	PostAtBankRec   bool                 `gorm:"not null;default:false"`
	Communication   string               `gorm:"type:varchar(255)"`
	State           PaymentState         `gorm:"type:varchar(20);not null;default:'draft';index"`
	PostedAt        *time.Time
	Reconciliations []PartialReconcile `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "account_payments"
}

// PartialReconcile is the part of a payment matched against one invoice
type PartialReconcile struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MoveID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	MoveName       string          `gorm:"type:varchar(64)"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BankReconciled bool            `gorm:"not null;default:false"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PartialReconcile) TableName() string {
	return "account_partial_reconciles"
}

// NewPayment creates a draft payment
func NewPayment(tenantID uuid.UUID, paymentType PaymentType, partnerType PartnerType, partnerID uuid.UUID, partnerName string, amount decimal.Decimal, date time.Time, journal JournalKind) (*Payment, error) {
	if paymentType != PaymentTypeInbound && paymentType != PaymentTypeOutbound {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Invalid payment type")
	}
	if partnerType != PartnerTypeCustomer && partnerType != PartnerTypeSupplier {
		return nil, shared.NewDomainError("INVALID_PARTNER_TYPE", "Invalid partner type")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if journal != JournalKindBank && journal != JournalKindCash {
		return nil, shared.NewDomainError("INVALID_JOURNAL", "Invalid journal kind")
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                "/",
		PaymentType:         paymentType,
		PartnerType:         partnerType,
		PartnerID:           partnerID,
		PartnerName:         strings.TrimSpace(partnerName),
		Amount:              valueobject.RoundAmount(amount),
		Currency:            valueobject.DefaultCurrency,
		PaymentDate:         date,
		JournalKind:         journal,
		State:               PaymentStateDraft,
		Reconciliations:     make([]PartialReconcile, 0),
	}, nil
}

// MatchedMoveType is the invoice type this payment settles
func (p *Payment) MatchedMoveType() MoveType {
	switch {
	case p.PartnerType == PartnerTypeCustomer && p.PaymentType == PaymentTypeInbound:
		return MoveTypeOutInvoice
	case p.PartnerType == PartnerTypeCustomer:
		return MoveTypeOutRefund
	case p.PaymentType == PaymentTypeOutbound:
		return MoveTypeInInvoice
	}
	return MoveTypeInRefund
}

// PaymentDifference is the part of the amount not matched to any invoice
func (p *Payment) PaymentDifference() decimal.Decimal {
	matched := decimal.Zero
	for _, r := range p.Reconciliations {
		matched = matched.Add(r.Amount)
	}
	return p.Amount.Sub(matched)
}

// checkSupplierDifference rejects supplier payments that pay more than the bills
// or receive more than the refunds
func (p *Payment) checkSupplierDifference() error {
	if p.PartnerType != PartnerTypeSupplier {
		return nil
	}
	diff := p.PaymentDifference()
	if p.PaymentType == PaymentTypeOutbound && diff.IsPositive() {
		return ErrPaymentExceedsActual
	}
	if p.PaymentType == PaymentTypeInbound && diff.IsNegative() {
		return ErrPaymentExceedsActual
	}
	return nil
}

func (p *Payment) pendingBankRec() bool {
	return p.JournalKind == JournalKindBank && p.PostAtBankRec
}

// Allocation is one invoice and how much of the payment goes to it
type Allocation struct {
	MoveID uuid.UUID
	Amount decimal.Decimal
}

// Post allocates the payment to the given open invoices and books it.
// FIFO pays the oldest invoices first; MANUAL uses the amounts in manual.
func (p *Payment) Post(name string, moves []*AccountMove, strategy AllocationStrategy, manual []Allocation, now time.Time) error {
	if !p.State.CanTransitionTo(PaymentStatePosted) {
		return shared.NewDomainError("INVALID_STATE", "Only draft payments can be posted")
	}
	if !strategy.IsValid() {
		return shared.NewDomainError("INVALID_STRATEGY", "Invalid allocation strategy")
	}
	byID := make(map[uuid.UUID]*AccountMove, len(moves))
	for _, m := range moves {
		if err := p.checkMove(m); err != nil {
			return err
		}
		byID[m.ID] = m
	}

	var allocations []Allocation
	var err error
	if strategy == AllocationFIFO {
		allocations = allocateFIFO(p.Amount, moves)
	} else {
		allocations, err = checkManual(manual, byID)
		if err != nil {
			return err
		}
	}

	p.Reconciliations = make([]PartialReconcile, 0, len(allocations))
	for _, a := range allocations {
		p.Reconciliations = append(p.Reconciliations, PartialReconcile{
			ID:        uuid.New(),
			TenantID:  p.TenantID,
			PaymentID: p.ID,
			MoveID:    a.MoveID,
			MoveName:  byID[a.MoveID].Name,
			Amount:    a.Amount,
			CreatedAt: now,
		})
	}
	if err := p.checkSupplierDifference(); err != nil {
		p.Reconciliations = nil
		return err
	}
	if p.PaymentDifference().IsNegative() {
		p.Reconciliations = nil
		return shared.NewDomainError("ALLOCATION_EXCEEDS_AMOUNT", "Allocated amount exceeds the payment amount")
	}

	for _, r := range p.Reconciliations {
		if err := byID[r.MoveID].RegisterPartial(r.Amount, p.pendingBankRec()); err != nil {
			return err
		}
	}

	p.Name = name
	p.State = PaymentStatePosted
	p.PostedAt = &now
	p.Touch()
	p.AddDomainEvent(NewPaymentPostedEvent(p))
	return nil
}

func (p *Payment) checkMove(m *AccountMove) error {
	if m.TenantID != p.TenantID {
		return shared.NewDomainError("INVALID_TENANT", "Invoice belongs to another company")
	}
	if m.PartnerID == nil || *m.PartnerID != p.PartnerID {
		return shared.NewDomainError("INVALID_PARTNER", "Invoice "+m.Name+" belongs to another partner")
	}
	if m.MoveType != p.MatchedMoveType() {
		return shared.NewDomainError("INVALID_MOVE_TYPE", "Invoice "+m.Name+" cannot be settled by this payment")
	}
	if !m.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Invoice "+m.Name+" has nothing left to settle")
	}
	return nil
}

// allocateFIFO spreads amount over the moves, oldest due date first
func allocateFIFO(amount decimal.Decimal, moves []*AccountMove) []Allocation {
	sorted := make([]*AccountMove, len(moves))
	copy(sorted, moves)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := fifoDate(sorted[i]), fifoDate(sorted[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	remaining := amount
	out := make([]Allocation, 0, len(sorted))
	for _, m := range sorted {
		if !remaining.IsPositive() {
			break
		}
		alloc := decimal.Min(remaining, m.AmountResidual)
		out = append(out, Allocation{MoveID: m.ID, Amount: alloc})
		remaining = remaining.Sub(alloc)
	}
	return out
}

func fifoDate(m *AccountMove) time.Time {
	if m.InvoiceDateDue != nil {
		return *m.InvoiceDateDue
	}
	if m.InvoiceDate != nil {
		return *m.InvoiceDate
	}
	return m.CreatedAt
}

func checkManual(manual []Allocation, byID map[uuid.UUID]*AccountMove) ([]Allocation, error) {
	out := make([]Allocation, 0, len(manual))
	for _, a := range manual {
		m, ok := byID[a.MoveID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_ALLOCATION", "Allocation targets an invoice that was not selected")
		}
		if !a.Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_ALLOCATION", "Allocation amount must be positive")
		}
		if a.Amount.GreaterThan(m.AmountResidual) {
			return nil, shared.NewDomainError("INVALID_ALLOCATION", "Allocation exceeds the residual of invoice "+m.Name)
		}
		out = append(out, Allocation{MoveID: a.MoveID, Amount: valueobject.RoundAmount(a.Amount)})
	}
	return out, nil
}

// MoveIDs returns the invoices this payment is matched with
func (p *Payment) MoveIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Reconciliations))
	seen := make(map[uuid.UUID]bool)
	for _, r := range p.Reconciliations {
		if !seen[r.MoveID] {
			seen[r.MoveID] = true
			ids = append(ids, r.MoveID)
		}
	}
	return ids
}

// MarkBankReconciled confirms the payment against the bank statement
// and releases the invoices it kept in payment
func (p *Payment) MarkBankReconciled(moves []*AccountMove) error {
	if !p.State.CanTransitionTo(PaymentStateReconciled) {
		return shared.NewDomainError("INVALID_STATE", "Only posted payments can be bank reconciled")
	}
	byID := make(map[uuid.UUID]*AccountMove, len(moves))
	for _, m := range moves {
		byID[m.ID] = m
	}
	for i := range p.Reconciliations {
		r := &p.Reconciliations[i]
		if r.BankReconciled {
			continue
		}
		r.BankReconciled = true
		if m, ok := byID[r.MoveID]; ok && p.pendingBankRec() {
			m.ConfirmBankReconciliation()
		}
	}
	p.State = PaymentStateReconciled
	p.Touch()
	p.AddDomainEvent(NewPaymentReconciledEvent(p))
	return nil
}

// Cancel voids the payment and gives the matched amounts back to the invoices
func (p *Payment) Cancel(moves []*AccountMove) error {
	if !p.State.CanTransitionTo(PaymentStateCancelled) {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel payment in "+string(p.State)+" state")
	}
	byID := make(map[uuid.UUID]*AccountMove, len(moves))
	for _, m := range moves {
		byID[m.ID] = m
	}
	for _, r := range p.Reconciliations {
		if m, ok := byID[r.MoveID]; ok {
			m.UnregisterPartial(r.Amount, p.pendingBankRec() && !r.BankReconciled)
		}
	}
	p.Reconciliations = nil
	p.State = PaymentStateCancelled
	p.Touch()
	return nil
}
