package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "¥0.00"},
		{"12.5", "¥12.50"},
		{"1234.56", "¥1,234.56"},
		{"1234567.891", "¥1,234,567.89"},
		{"-1000", "¥-1,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestMoneyToChinese(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "零元整"},
		{"1234.56", "壹仟贰佰叁拾肆元伍角陆分"},
		{"100000", "壹拾万元整"},
		{"10005.01", "壹万零伍元零壹分"},
		{"100010000", "壹亿零壹万元整"},
		{"10001000", "壹仟万壹仟元整"},
		{"1001", "壹仟零壹元整"},
		{"0.05", "伍分"},
		{"-12.5", "负壹拾贰元伍角"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, moneyToChinese(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-09", formatDate(d))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "", formatDatePtr(nil))
	assert.Equal(t, "2024-03-09", formatDatePtr(&d))
}

func TestFormatQty(t *testing.T) {
	assert.Equal(t, "2.5", formatQty(decimal.RequireFromString("2.500")))
	assert.Equal(t, "3", formatQty(decimal.NewFromInt(3)))
}
