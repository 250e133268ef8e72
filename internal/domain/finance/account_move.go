package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MoveType distinguishes journal entries from customer and vendor documents
type MoveType string

const (
	MoveTypeEntry      MoveType = "entry"
	MoveTypeOutInvoice MoveType = "out_invoice"
	MoveTypeOutRefund  MoveType = "out_refund"
	MoveTypeInInvoice  MoveType = "in_invoice"
	MoveTypeInRefund   MoveType = "in_refund"
)

// IsValid checks if the move type is known
func (t MoveType) IsValid() bool {
	switch t {
	case MoveTypeEntry, MoveTypeOutInvoice, MoveTypeOutRefund, MoveTypeInInvoice, MoveTypeInRefund:
		return true
	}
	return false
}

// IsInvoice is true for every customer or vendor document
func (t MoveType) IsInvoice() bool {
	return t != MoveTypeEntry && t.IsValid()
}

// IsSale is true for customer invoices and credit notes
func (t MoveType) IsSale() bool {
	return t == MoveTypeOutInvoice || t == MoveTypeOutRefund
}

// IsPurchase is true for vendor bills and refunds
func (t MoveType) IsPurchase() bool {
	return t == MoveTypeInInvoice || t == MoveTypeInRefund
}

// IsRefund is true for credit notes on either side
func (t MoveType) IsRefund() bool {
	return t == MoveTypeOutRefund || t == MoveTypeInRefund
}

// IsOutbound is true for documents that send money out: vendor bills and customer refunds
func (t MoveType) IsOutbound() bool {
	return t == MoveTypeInInvoice || t == MoveTypeOutRefund
}

// Sign is the factor applied to balances when presenting amounts
func (t MoveType) Sign() decimal.Decimal {
	if t == MoveTypeEntry || t.IsOutbound() {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// NamePrefix is the journal code used when numbering posted moves
func (t MoveType) NamePrefix() string {
	switch t {
	case MoveTypeOutInvoice:
		return "INV"
	case MoveTypeOutRefund:
		return "RINV"
	case MoveTypeInInvoice:
		return "BILL"
	case MoveTypeInRefund:
		return "RBILL"
	}
	return "MISC"
}

// MoveState is the lifecycle state of a move, including the paper delivery states
type MoveState string

const (
	MoveStateDraft     MoveState = "draft"
	MoveStatePosted    MoveState = "posted"
	MoveStateCancel    MoveState = "cancel"
	MoveStateToInvoice MoveState = "to_invoice"
	MoveStateInvoiced  MoveState = "invoiced"
	MoveStateSent      MoveState = "sent"
	MoveStateReceived  MoveState = "received"
	MoveStateReturned  MoveState = "returned"
)

// IsValid checks if the state is known
func (s MoveState) IsValid() bool {
	switch s {
	case MoveStateDraft, MoveStatePosted, MoveStateCancel:
		return true
	}
	return s.IsExtended()
}

// IsExtended reports whether the state is one of the paper delivery states
func (s MoveState) IsExtended() bool {
	switch s {
	case MoveStateToInvoice, MoveStateInvoiced, MoveStateSent, MoveStateReceived, MoveStateReturned:
		return true
	}
	return false
}

// IsPostedLike is true once the move is booked, whatever its delivery progress
func (s MoveState) IsPostedLike() bool {
	return s == MoveStatePosted || s.IsExtended()
}

// IsInvoicedLike is true when the paper invoice has been issued
func (s MoveState) IsInvoicedLike() bool {
	return s == MoveStateInvoiced || s == MoveStateSent || s == MoveStateReceived
}

// CanTransitionTo checks the workflow edges between states
func (s MoveState) CanTransitionTo(target MoveState) bool {
	switch s {
	case MoveStateDraft:
		return target == MoveStatePosted || target == MoveStateCancel
	case MoveStatePosted:
		return target == MoveStateToInvoice || target == MoveStateCancel
	case MoveStateToInvoice:
		return target == MoveStateInvoiced
	case MoveStateInvoiced:
		return target == MoveStateSent
	case MoveStateSent:
		return target == MoveStateReceived || target == MoveStateReturned
	case MoveStateReceived:
		return target == MoveStateReturned
	case MoveStateCancel:
		return target == MoveStateDraft
	}
	return false
}

// MovePaymentState is the settlement status of an invoice
type MovePaymentState string

const (
	MovePaymentStateNone      MovePaymentState = "none"
	MovePaymentStateNotPaid   MovePaymentState = "not_paid"
	MovePaymentStateInPayment MovePaymentState = "in_payment"
	MovePaymentStatePaid      MovePaymentState = "paid"
)

// AccountMove is a journal entry, customer invoice or vendor bill
type AccountMove struct {
	shared.TenantAggregateRoot
	Name                string               `gorm:"type:varchar(64);not null;default:'/';index"`
	MoveType            MoveType             `gorm:"type:varchar(20);not null;index"`
	State               MoveState            `gorm:"type:varchar(20);not null;default:'draft';index"`
	State2              MoveState            `gorm:"column:state2;type:varchar(20);not null;default:'to_invoice'"`
	PartnerID           *uuid.UUID           `gorm:"type:uuid;index"`
	PartnerName         string               `gorm:"type:varchar(200)"`
	Currency            valueobject.Currency `gorm:"type:varchar(3);not null;default:'CNY'"`
	InvoiceDate         *time.Time           `gorm:"type:date"`
	InvoiceDateDue      *time.Time           `gorm:"type:date"`
	InvoiceOrigin       string               `gorm:"type:varchar(255)"`
	Ref                 string               `gorm:"type:varchar(100)"`
	SaleOrderID         *uuid.UUID           `gorm:"type:uuid;index"`
	PurchaseOrderID     *uuid.UUID           `gorm:"type:uuid;index"`
	AmountUntaxed       decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax           decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountResidual      decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentState        MovePaymentState     `gorm:"column:invoice_payment_state;type:varchar(20);not null;default:'not_paid'"`
	PendingBankRecCount int                  `gorm:"not null;default:0"`
	PostedAt            *time.Time
	Lines               []AccountMoveLine `gorm:"foreignKey:MoveID;references:ID"`
	TaxInvoices         []TaxInvoice      `gorm:"many2many:account_move_tax_invoices"`
}

// TableName returns the table name for GORM
func (AccountMove) TableName() string {
	return "account_moves"
}

// NewAccountMove creates a draft move of the given type
func NewAccountMove(tenantID uuid.UUID, moveType MoveType, partnerID *uuid.UUID, partnerName string) (*AccountMove, error) {
	if !moveType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVE_TYPE", "Invalid move type")
	}
	if moveType.IsInvoice() && partnerID == nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Invoices require a partner")
	}

	m := &AccountMove{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                "/",
		MoveType:            moveType,
		State:               MoveStateDraft,
		State2:              MoveStateToInvoice,
		PartnerID:           partnerID,
		PartnerName:         partnerName,
		Currency:            valueobject.DefaultCurrency,
		PaymentState:        MovePaymentStateNotPaid,
		Lines:               make([]AccountMoveLine, 0),
	}
	if moveType == MoveTypeEntry {
		m.PaymentState = MovePaymentStateNone
	}
	return m, nil
}

// InvoiceLineInput describes one product line of an invoice
type InvoiceLineInput struct {
	ProductID      *uuid.UUID
	Name           string
	UomName        string
	Quantity       decimal.Decimal
	PriceUnit      decimal.Decimal
	Taxes          []catalog.Tax
	SaleLineID     *uuid.UUID
	PurchaseLineID *uuid.UUID
}

// AddInvoiceLine appends a product line and rebuilds the tax and counterpart lines
func (m *AccountMove) AddInvoiceLine(in InvoiceLineInput) (*AccountMoveLine, error) {
	if m.State != MoveStateDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Lines can only be changed on draft moves")
	}
	if !m.MoveType.IsInvoice() {
		return nil, shared.NewDomainError("INVALID_MOVE_TYPE", "Product lines are only allowed on invoices")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.PriceUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	result := catalog.ComputeAll(in.PriceUnit, in.Quantity, in.Taxes)
	kind := AccountKindIncome
	if m.MoveType.IsPurchase() {
		kind = AccountKindExpense
	}
	line := AccountMoveLine{
		ID:             uuid.New(),
		TenantID:       m.TenantID,
		MoveID:         m.ID,
		AccountKind:    kind,
		Name:           strings.TrimSpace(in.Name),
		ProductID:      in.ProductID,
		UomName:        in.UomName,
		Quantity:       in.Quantity,
		PriceUnit:      in.PriceUnit,
		PriceTotal:     result.Total,
		Taxes:          in.Taxes,
		SaleLineID:     in.SaleLineID,
		PurchaseLineID: in.PurchaseLineID,
	}
	line.setBalance(m.productBalance(result.Untaxed))
	m.Lines = append(m.Lines, line)
	m.rebuildDynamicLines()
	m.ComputeAmounts()
	return &m.Lines[len(m.Lines)-1], nil
}

// AddEntryLine appends a manual line to a journal entry
func (m *AccountMove) AddEntryLine(kind AccountKind, name string, debit, credit decimal.Decimal) error {
	if m.State != MoveStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be changed on draft moves")
	}
	if m.MoveType != MoveTypeEntry {
		return shared.NewDomainError("INVALID_MOVE_TYPE", "Manual lines are only allowed on journal entries")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit and credit cannot be negative")
	}
	line := AccountMoveLine{
		ID:                    uuid.New(),
		TenantID:              m.TenantID,
		MoveID:                m.ID,
		AccountKind:           kind,
		Name:                  name,
		ExcludeFromInvoiceTab: true,
	}
	line.setBalance(debit.Sub(credit))
	if kind.IsReceivableOrPayable() {
		line.AmountResidual = line.Balance
	}
	m.Lines = append(m.Lines, line)
	m.ComputeAmounts()
	return nil
}

// productBalance returns the signed balance of a product line for this move type.
// Customer invoices credit income; vendor bills debit expense; refunds reverse.
func (m *AccountMove) productBalance(untaxed decimal.Decimal) decimal.Decimal {
	switch m.MoveType {
	case MoveTypeOutInvoice, MoveTypeInRefund:
		return untaxed.Neg()
	}
	return untaxed
}

// rebuildDynamicLines regenerates the tax lines and the receivable/payable counterpart
func (m *AccountMove) rebuildDynamicLines() {
	products := make([]AccountMoveLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		if !l.ExcludeFromInvoiceTab {
			products = append(products, l)
		}
	}

	taxTotals := make(map[uuid.UUID]decimal.Decimal)
	taxNames := make(map[uuid.UUID]string)
	order := make([]uuid.UUID, 0)
	for _, l := range products {
		for _, ta := range catalog.ComputeAll(l.PriceUnit, l.Quantity, l.Taxes).Taxes {
			if _, ok := taxTotals[ta.TaxID]; !ok {
				order = append(order, ta.TaxID)
			}
			taxTotals[ta.TaxID] = taxTotals[ta.TaxID].Add(ta.Amount)
			taxNames[ta.TaxID] = ta.Name
		}
	}

	lines := products
	productSum := decimal.Zero
	for _, l := range products {
		productSum = productSum.Add(l.Balance)
	}
	taxSum := decimal.Zero
	for _, id := range order {
		taxID := id
		tl := AccountMoveLine{
			ID:                    uuid.New(),
			TenantID:              m.TenantID,
			MoveID:                m.ID,
			AccountKind:           AccountKindTax,
			Name:                  taxNames[id],
			TaxLineID:             &taxID,
			ExcludeFromInvoiceTab: true,
		}
		tl.setBalance(m.productBalance(taxTotals[id]))
		taxSum = taxSum.Add(tl.Balance)
		lines = append(lines, tl)
	}

	kind := AccountKindReceivable
	if m.MoveType.IsPurchase() {
		kind = AccountKindPayable
	}
	counterpart := AccountMoveLine{
		ID:                    uuid.New(),
		TenantID:              m.TenantID,
		MoveID:                m.ID,
		AccountKind:           kind,
		Name:                  m.InvoiceOrigin,
		ExcludeFromInvoiceTab: true,
	}
	counterpart.setBalance(productSum.Add(taxSum).Neg())
	counterpart.AmountResidual = counterpart.Balance
	m.Lines = append(lines, counterpart)
}

// ComputeAmounts recomputes the header totals and payment state from the lines
func (m *AccountMove) ComputeAmounts() {
	sign := m.MoveType.Sign()
	untaxed := decimal.Zero
	tax := decimal.Zero
	debitTotal := decimal.Zero
	residual := decimal.Zero

	for _, l := range m.Lines {
		switch {
		case l.AccountKind.IsReceivableOrPayable():
			residual = residual.Add(l.AmountResidual)
		case l.TaxLineID != nil:
			tax = tax.Add(l.Balance)
		case !l.ExcludeFromInvoiceTab:
			untaxed = untaxed.Add(l.Balance)
		}
		if l.Balance.IsPositive() {
			debitTotal = debitTotal.Add(l.Balance)
		}
	}

	if m.MoveType == MoveTypeEntry {
		m.AmountUntaxed = decimal.Zero
		m.AmountTax = decimal.Zero
		m.AmountTotal = valueobject.RoundAmount(debitTotal)
		m.AmountResidual = valueobject.RoundAmount(residual.Neg())
	} else {
		m.AmountUntaxed = valueobject.RoundAmount(untaxed.Mul(sign))
		m.AmountTax = valueobject.RoundAmount(tax.Mul(sign))
		m.AmountTotal = m.AmountUntaxed.Add(m.AmountTax)
		m.AmountResidual = valueobject.RoundAmount(residual.Mul(sign).Neg())
	}
	m.PaymentState = m.computePaymentState()
}

func (m *AccountMove) computePaymentState() MovePaymentState {
	if m.MoveType == MoveTypeEntry {
		return MovePaymentStateNone
	}
	if m.State.IsPostedLike() && valueobject.IsZeroAmount(m.AmountResidual) {
		if m.PendingBankRecCount > 0 {
			return MovePaymentStateInPayment
		}
		return MovePaymentStatePaid
	}
	return MovePaymentStateNotPaid
}

// AmountPaid is the part of the total already settled
func (m *AccountMove) AmountPaid() decimal.Decimal {
	return m.AmountTotal.Sub(m.AmountResidual)
}

// IsOpen reports whether the move is booked and still has something left to settle
func (m *AccountMove) IsOpen() bool {
	return m.MoveType.IsInvoice() && m.State.IsPostedLike() && m.AmountResidual.IsPositive()
}

// Post books a draft move under the given number
func (m *AccountMove) Post(name string, now time.Time) error {
	if m.State != MoveStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft moves can be posted")
	}
	if len(m.Lines) == 0 {
		return shared.NewDomainError("EMPTY_MOVE", "Cannot post a move without lines")
	}
	if !m.isBalanced() {
		return shared.NewDomainError("UNBALANCED_MOVE", "Debit and credit of the move are not balanced")
	}
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Posted moves need a number")
	}
	if m.InvoiceDate == nil && m.MoveType.IsInvoice() {
		d := now
		m.InvoiceDate = &d
	}
	if m.InvoiceDateDue == nil && m.InvoiceDate != nil {
		d := *m.InvoiceDate
		m.InvoiceDateDue = &d
	}
	m.Name = name
	m.PostedAt = &now
	return m.changeState(MoveStatePosted)
}

func (m *AccountMove) isBalanced() bool {
	sum := decimal.Zero
	for _, l := range m.Lines {
		sum = sum.Add(l.Balance)
	}
	return valueobject.IsZeroAmount(sum)
}

// SetState moves along the workflow, rejecting edges it does not allow
func (m *AccountMove) SetState(target MoveState) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATE", "Invalid move state")
	}
	if !m.State.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot change move from "+string(m.State)+" to "+string(target))
	}
	if target == MoveStateCancel && m.hasPayments() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a move with payments")
	}
	return m.changeState(target)
}

// SetState2 records the delivery state and writes it through to State once the
// move has already entered the delivery workflow
func (m *AccountMove) SetState2(value MoveState) error {
	if !value.IsExtended() {
		return shared.NewDomainError("INVALID_STATE", "Invalid delivery state")
	}
	m.State2 = value
	if m.State.IsExtended() && m.State != value {
		return m.changeState(value)
	}
	return nil
}

// ActionToInvoice queues a posted move for paper invoicing
func (m *AccountMove) ActionToInvoice() error {
	if m.State != MoveStatePosted {
		return nil
	}
	return m.changeState(MoveStateToInvoice)
}

func (m *AccountMove) hasPayments() bool {
	return m.MoveType.IsInvoice() && m.AmountResidual.LessThan(m.AmountTotal)
}

func (m *AccountMove) changeState(target MoveState) error {
	old := m.State
	m.State = target
	m.ComputeAmounts()
	m.Touch()
	m.AddDomainEvent(NewAccountMoveStateChangedEvent(m, old))
	return nil
}

// RegisterPartial settles amount of the open residual.
// pendingBankRec keeps the invoice in payment until the bank statement is matched.
func (m *AccountMove) RegisterPartial(amount decimal.Decimal, pendingBankRec bool) error {
	if !m.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Move "+m.Name+" has nothing left to settle")
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(m.AmountResidual) {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation must be positive and not exceed the residual")
	}
	m.moveResidual(amount)
	if pendingBankRec {
		m.PendingBankRecCount++
	}
	m.afterResidualChange()
	return nil
}

// UnregisterPartial reverts a previously registered partial
func (m *AccountMove) UnregisterPartial(amount decimal.Decimal, pendingBankRec bool) {
	m.moveResidual(amount.Neg())
	if pendingBankRec && m.PendingBankRecCount > 0 {
		m.PendingBankRecCount--
	}
	m.afterResidualChange()
}

// ConfirmBankReconciliation clears one pending bank reconciliation
func (m *AccountMove) ConfirmBankReconciliation() {
	if m.PendingBankRecCount == 0 {
		return
	}
	m.PendingBankRecCount--
	m.afterResidualChange()
}

// moveResidual shrinks the counterpart residual toward zero by amount
func (m *AccountMove) moveResidual(amount decimal.Decimal) {
	for i := range m.Lines {
		l := &m.Lines[i]
		if !l.AccountKind.IsReceivableOrPayable() {
			continue
		}
		if l.Balance.IsPositive() {
			l.AmountResidual = l.AmountResidual.Sub(amount)
		} else {
			l.AmountResidual = l.AmountResidual.Add(amount)
		}
		return
	}
}

func (m *AccountMove) afterResidualChange() {
	old := m.State
	m.ComputeAmounts()
	m.Touch()
	m.AddDomainEvent(NewAccountMoveStateChangedEvent(m, old))
}

// AttachTaxInvoice links a paper tax invoice to the move
func (m *AccountMove) AttachTaxInvoice(ti *TaxInvoice) error {
	if ti.TenantID != m.TenantID {
		return shared.NewDomainError("INVALID_TENANT", "Tax invoice belongs to another company")
	}
	if ti.State != TaxInvoiceStateDone {
		return shared.NewDomainError("INVALID_STATE", "Cancelled tax invoices cannot be attached")
	}
	for _, existing := range m.TaxInvoices {
		if existing.ID == ti.ID {
			return nil
		}
	}
	m.TaxInvoices = append(m.TaxInvoices, *ti)
	m.Touch()
	return nil
}

// ProductLines returns the invoice-tab lines
func (m *AccountMove) ProductLines() []AccountMoveLine {
	out := make([]AccountMoveLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		if !l.ExcludeFromInvoiceTab {
			out = append(out, l)
		}
	}
	return out
}

// InvoicedQtyBySaleLine sums the signed invoiced quantity per sale line
func (m *AccountMove) InvoicedQtyBySaleLine() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	if m.State == MoveStateCancel {
		return out
	}
	for _, l := range m.ProductLines() {
		if l.SaleLineID == nil {
			continue
		}
		qty := l.Quantity
		if m.MoveType.IsRefund() {
			qty = qty.Neg()
		}
		out[*l.SaleLineID] = out[*l.SaleLineID].Add(qty)
	}
	return out
}
