package trade

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/trade"
	csvimport "github.com/qm/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// Platform order sheet columns
const (
	colOrderReference        = "order_reference"
	colName                  = "name"
	colBrand                 = "brand"
	colDateOrder             = "date_order"
	colPlatformCurrency      = "platform_currency"
	colLogisticsCurrency     = "logistics_currency"
	colAmountTotal           = "amount_total"
	colAmountTax             = "amount_tax"
	colAmountPayment         = "amount_payment"
	colTrackingNumber        = "tracking_number"
	colCourierTrackingNumber = "courier_tracking_number"
	colRegisterFee           = "register_fee"
	colShippingCost          = "shipping_cost"
	colTotalShippingCost     = "total_shipping_cost"
	colWeight                = "weight"
	colVolumeWeight          = "volume_weight"
	colCostWeight            = "cost_weight"
	colTimeOnline            = "time_online"
)

var platformDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "2006/01/02 15:04:05", "2006/01/02"}

// ImportCSV loads a platform order sheet. Only order_reference is required;
// a row with an unreadable number or date is reported by line number.
func (s *PlatformOrderService) ImportCSV(ctx context.Context, tenantID uuid.UUID, r io.Reader, opts ...csvimport.ParserOption) (*trade.ImportResult, error) {
	opts = append([]csvimport.ParserOption{csvimport.WithTrimSpace(true)}, opts...)
	rows, err := csvimport.ReadAll(r, []string{colOrderReference}, opts...)
	if err != nil {
		return nil, err
	}

	result := &trade.ImportResult{}
	parsed := make([]numberedRow, 0, len(rows))
	for _, row := range rows {
		pr, err := platformRow(row)
		if err != nil {
			result.RecordFailure(row.LineNumber, row.Get(colOrderReference), err)
			continue
		}
		parsed = append(parsed, numberedRow{line: row.LineNumber, row: pr})
	}
	return s.upsert(ctx, tenantID, parsed, result)
}

func platformRow(row *csvimport.Row) (trade.PlatformOrderRow, error) {
	out := trade.PlatformOrderRow{
		Name:                  row.Get(colName),
		Brand:                 row.Get(colBrand),
		PlatformCurrency:      row.Get(colPlatformCurrency),
		LogisticsCurrency:     row.Get(colLogisticsCurrency),
		OrderReference:        row.Get(colOrderReference),
		TrackingNumber:        row.Get(colTrackingNumber),
		CourierTrackingNumber: row.Get(colCourierTrackingNumber),
	}

	amounts := []struct {
		col string
		dst **decimal.Decimal
	}{
		{colAmountTotal, &out.AmountTotal},
		{colAmountTax, &out.AmountTax},
		{colAmountPayment, &out.AmountPayment},
		{colRegisterFee, &out.RegisterFee},
		{colShippingCost, &out.ShippingCost},
		{colTotalShippingCost, &out.TotalShippingCost},
		{colWeight, &out.Weight},
		{colVolumeWeight, &out.VolumeWeight},
		{colCostWeight, &out.CostWeight},
	}
	for _, a := range amounts {
		v, err := optionalDecimal(row.Get(a.col))
		if err != nil {
			return out, fmt.Errorf("%s: %w", a.col, err)
		}
		*a.dst = v
	}

	var err error
	if out.DateOrder, err = optionalTime(row.Get(colDateOrder)); err != nil {
		return out, fmt.Errorf("%s: %w", colDateOrder, err)
	}
	if out.TimeOnline, err = optionalTime(row.Get(colTimeOnline)); err != nil {
		return out, fmt.Errorf("%s: %w", colTimeOnline, err)
	}
	return out, nil
}

func optionalDecimal(v string) (*decimal.Decimal, error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", v)
	}
	return &d, nil
}

func optionalTime(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range platformDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", v)
}
