package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// AccountKind is the internal type of the account a line is booked on
type AccountKind string

const (
	AccountKindReceivable AccountKind = "receivable"
	AccountKindPayable    AccountKind = "payable"
	AccountKindIncome     AccountKind = "income"
	AccountKindExpense    AccountKind = "expense"
	AccountKindTax        AccountKind = "tax"
	AccountKindBank       AccountKind = "bank"
)

// IsReceivableOrPayable reports whether the line carries an open residual
func (k AccountKind) IsReceivableOrPayable() bool {
	return k == AccountKindReceivable || k == AccountKindPayable
}

// AccountMoveLine is one journal item of a move
type AccountMoveLine struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	MoveID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountKind           AccountKind     `gorm:"type:varchar(20);not null"`
	Name                  string          `gorm:"type:text"`
	ProductID             *uuid.UUID      `gorm:"type:uuid;index"`
	UomName               string          `gorm:"type:varchar(50)"`
	Quantity              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceUnit             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceTotal            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Debit                 decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Credit                decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Balance               decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountResidual        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ExcludeFromInvoiceTab bool            `gorm:"not null;default:false"`
	TaxLineID             *uuid.UUID      `gorm:"type:uuid"`
	SaleLineID            *uuid.UUID      `gorm:"type:uuid;index"`
	PurchaseLineID        *uuid.UUID      `gorm:"type:uuid;index"`
	Taxes                 []catalog.Tax   `gorm:"many2many:account_move_line_taxes"`
	CreatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountMoveLine) TableName() string {
	return "account_move_lines"
}

// setBalance sets debit and credit from a signed balance
func (l *AccountMoveLine) setBalance(balance decimal.Decimal) {
	l.Balance = balance.Round(2)
	if l.Balance.IsPositive() {
		l.Debit = l.Balance
		l.Credit = decimal.Zero
	} else {
		l.Debit = decimal.Zero
		l.Credit = l.Balance.Neg()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
}

// IsTaxLine reports whether the line was generated for a tax
func (l *AccountMoveLine) IsTaxLine() bool {
	return l.TaxLineID != nil
}

// PriceUnitTaxIncluded is the gross unit price of a product line
func (l *AccountMoveLine) PriceUnitTaxIncluded() decimal.Decimal {
	if l.Quantity.IsZero() {
		return decimal.Zero
	}
	return l.PriceTotal.Div(l.Quantity).Round(4)
}
