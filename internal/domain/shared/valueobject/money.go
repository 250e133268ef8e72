package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code
type Currency string

const (
	CNY Currency = "CNY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	HKD Currency = "HKD"
)

// DefaultCurrency is the company currency unless configured otherwise
const DefaultCurrency = CNY

// MoneyPrecision is the number of decimal places amounts are rounded to
const MoneyPrecision int32 = 2

// IsValid reports whether the currency is one the system trades in
func (c Currency) IsValid() bool {
	switch c {
	case CNY, USD, EUR, HKD:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// Money is an immutable amount in a currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money after validating the currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("unsupported currency %q", currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyCNY creates Money in CNY
func NewMoneyCNY(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: CNY}
}

// NewMoneyCNYFromFloat creates Money in CNY from float64
func NewMoneyCNYFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: CNY}
}

// Zero returns zero in the currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Add sums two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub subtracts other from m
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Round rounds half away from zero to MoneyPrecision
func (m Money) Round() Money {
	return Money{amount: RoundAmount(m.amount), currency: m.currency}
}

// String formats as "123.45 CNY"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MoneyPrecision), m.currency)
}

// RoundAmount rounds an amount to MoneyPrecision
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPrecision)
}

// IsZeroAmount reports whether amount rounds to zero at MoneyPrecision
func IsZeroAmount(amount decimal.Decimal) bool {
	return RoundAmount(amount).IsZero()
}

// CompareAmounts compares a and b after rounding both to MoneyPrecision
func CompareAmounts(a, b decimal.Decimal) int {
	return RoundAmount(a).Cmp(RoundAmount(b))
}

// SumAmounts adds up amounts
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
