package printing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// formatMoney renders 1234.56 as "¥1,234.56"
func formatMoney(d decimal.Decimal) string {
	return "¥" + formatMoneyRaw(d)
}

// formatMoneyRaw renders 1234.56 as "1,234.56"
func formatMoneyRaw(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + decPart
}

// formatQty drops trailing zeros: 2.500 is "2.5"
func formatQty(d decimal.Decimal) string {
	return d.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatDatePtr is formatDate for optional dates
func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

var (
	chineseDigits = [...]string{"零", "壹", "贰", "叁", "肆", "伍", "陆", "柒", "捌", "玖"}
	chineseUnits  = [...]string{"", "拾", "佰", "仟"}
	chineseGroups = [...]string{"", "万", "亿", "万亿", "亿亿"}
)

// moneyToChinese writes an amount in uppercase RMB as printed on invoices,
// 1234.56 becomes 壹仟贰佰叁拾肆元伍角陆分
func moneyToChinese(d decimal.Decimal) string {
	cents := d.Round(2).Mul(hundred).IntPart()
	if cents == 0 {
		return "零元整"
	}
	var b strings.Builder
	if cents < 0 {
		b.WriteString("负")
		cents = -cents
	}
	yuan, jiao, fen := cents/100, (cents%100)/10, cents%10

	if yuan > 0 {
		b.WriteString(yuanToChinese(yuan))
		b.WriteString("元")
	}
	switch {
	case jiao == 0 && fen == 0:
		b.WriteString("整")
		return b.String()
	case jiao > 0:
		b.WriteString(chineseDigits[jiao] + "角")
	case yuan > 0:
		b.WriteString("零")
	}
	if fen > 0 {
		b.WriteString(chineseDigits[fen] + "分")
	}
	return b.String()
}

func yuanToChinese(n int64) string {
	var groups []int64
	for n > 0 {
		groups = append(groups, n%10000)
		n /= 10000
	}
	var b strings.Builder
	pendingZero := false
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			pendingZero = b.Len() > 0
			continue
		}
		if b.Len() > 0 && (pendingZero || g < 1000) {
			b.WriteString("零")
		}
		pendingZero = false
		b.WriteString(groupToChinese(g))
		b.WriteString(chineseGroups[i])
	}
	return b.String()
}

// groupToChinese spells 0 < g < 10000
func groupToChinese(g int64) string {
	var b strings.Builder
	started, zero := false, false
	for pos, div := 3, int64(1000); pos >= 0; pos, div = pos-1, div/10 {
		digit := (g / div) % 10
		if digit == 0 {
			zero = started
			continue
		}
		if zero {
			b.WriteString("零")
			zero = false
		}
		b.WriteString(chineseDigits[digit] + chineseUnits[pos])
		started = true
	}
	return b.String()
}
