package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PlatformOrderState tracks a platform order through fulfilment
type PlatformOrderState string

const (
	PlatformOrderStateDraft   PlatformOrderState = "draft"
	PlatformOrderStateWaiting PlatformOrderState = "waiting"
	PlatformOrderStateDone    PlatformOrderState = "done"
)

const (
	DefaultPlatformCurrency  valueobject.Currency = "USD"
	DefaultLogisticsCurrency valueobject.Currency = "CNY"
)

// PlatformOrder is an e-commerce order imported from the hoaya platform
type PlatformOrder struct {
	shared.TenantAggregateRoot
	Name                  string               `gorm:"type:varchar(100);not null;default:'New';index"`
	Brand                 string               `gorm:"type:varchar(100);index"`
	DateOrder             *time.Time           `gorm:"index"`
	PlatformCurrency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	LogisticsCurrency     valueobject.Currency `gorm:"type:varchar(3);not null;default:'CNY'"`
	AmountTotal           decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax             decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	AmountPayment         decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	OrderReference        string               `gorm:"type:varchar(100);not null;index"`
	TrackingNumber        string               `gorm:"type:varchar(100);index"`
	CourierTrackingNumber string               `gorm:"type:varchar(100);index"`
	RegisterFee           decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingCost          decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalShippingCost     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Weight                decimal.Decimal      `gorm:"type:decimal(18,3);not null;default:0"`
	VolumeWeight          decimal.Decimal      `gorm:"type:decimal(18,3);not null;default:0"`
	CostWeight            decimal.Decimal      `gorm:"type:decimal(18,3);not null;default:0"`
	TimeOnline            *time.Time
	State                 PlatformOrderState `gorm:"type:varchar(20);not null;default:'draft';index"`
}

// TableName returns the table name for GORM
func (PlatformOrder) TableName() string {
	return "hoaya_orders"
}

// PlatformOrderRow is one row of a bulk platform order import. Nil amounts are
// left as they are on update and derived on create where a rule exists.
type PlatformOrderRow struct {
	Name                  string           `json:"name"`
	Brand                 string           `json:"brand"`
	DateOrder             *time.Time       `json:"date_order"`
	PlatformCurrency      string           `json:"platform_currency"`
	LogisticsCurrency     string           `json:"logistics_currency"`
	AmountTotal           *decimal.Decimal `json:"amount_total"`
	AmountTax             *decimal.Decimal `json:"amount_tax"`
	AmountPayment         *decimal.Decimal `json:"amount_payment"`
	OrderReference        string           `json:"order_reference"`
	TrackingNumber        string           `json:"tracking_number"`
	CourierTrackingNumber string           `json:"courier_tracking_number"`
	RegisterFee           *decimal.Decimal `json:"register_fee"`
	ShippingCost          *decimal.Decimal `json:"shipping_cost"`
	TotalShippingCost     *decimal.Decimal `json:"total_shipping_cost"`
	Weight                *decimal.Decimal `json:"weight"`
	VolumeWeight          *decimal.Decimal `json:"volume_weight"`
	CostWeight            *decimal.Decimal `json:"cost_weight"`
	TimeOnline            *time.Time       `json:"time_online"`
}

// NewPlatformOrder creates a draft platform order from an import row
func NewPlatformOrder(tenantID uuid.UUID, row PlatformOrderRow) (*PlatformOrder, error) {
	ref := strings.TrimSpace(row.OrderReference)
	if ref == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_REFERENCE", "Order reference cannot be empty")
	}
	o := &PlatformOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                DefaultRequestName,
		OrderReference:      ref,
		PlatformCurrency:    DefaultPlatformCurrency,
		LogisticsCurrency:   DefaultLogisticsCurrency,
		State:               PlatformOrderStateDraft,
	}
	if err := o.Apply(row); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *PlatformOrder) setCurrency(dst *valueobject.Currency, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	c := valueobject.Currency(code)
	if !c.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency "+code)
	}
	*dst = c
	return nil
}

func setAmount(dst *decimal.Decimal, v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amounts cannot be negative")
	}
	*dst = *v
	return nil
}

// Apply copies the non-empty fields of an import row onto the order and
// derives total_shipping_cost and cost_weight when the row leaves them unset
func (o *PlatformOrder) Apply(row PlatformOrderRow) error {
	if ref := strings.TrimSpace(row.OrderReference); ref != "" && ref != o.OrderReference {
		return shared.NewDomainError("INVALID_ORDER_REFERENCE", "Order reference cannot be changed")
	}
	if err := o.setCurrency(&o.PlatformCurrency, row.PlatformCurrency); err != nil {
		return err
	}
	if err := o.setCurrency(&o.LogisticsCurrency, row.LogisticsCurrency); err != nil {
		return err
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		v   *decimal.Decimal
	}{
		{&o.AmountTotal, row.AmountTotal},
		{&o.AmountTax, row.AmountTax},
		{&o.AmountPayment, row.AmountPayment},
		{&o.RegisterFee, row.RegisterFee},
		{&o.ShippingCost, row.ShippingCost},
		{&o.Weight, row.Weight},
		{&o.VolumeWeight, row.VolumeWeight},
	} {
		if err := setAmount(f.dst, f.v); err != nil {
			return err
		}
	}

	if name := strings.TrimSpace(row.Name); name != "" {
		o.Name = name
	}
	if row.Brand != "" {
		o.Brand = strings.TrimSpace(row.Brand)
	}
	if row.DateOrder != nil {
		o.DateOrder = row.DateOrder
	}
	if row.TimeOnline != nil {
		o.TimeOnline = row.TimeOnline
	}
	if row.TrackingNumber != "" {
		o.TrackingNumber = strings.TrimSpace(row.TrackingNumber)
	}
	if row.CourierTrackingNumber != "" {
		o.CourierTrackingNumber = strings.TrimSpace(row.CourierTrackingNumber)
	}

	if row.TotalShippingCost != nil {
		if err := setAmount(&o.TotalShippingCost, row.TotalShippingCost); err != nil {
			return err
		}
	} else {
		o.TotalShippingCost = o.RegisterFee.Add(o.ShippingCost)
	}
	if row.CostWeight != nil {
		if err := setAmount(&o.CostWeight, row.CostWeight); err != nil {
			return err
		}
	} else {
		o.CostWeight = decimal.Max(o.Weight, o.VolumeWeight)
	}
	o.Touch()
	return nil
}

func (o *PlatformOrder) transition(from, to PlatformOrderState) error {
	if o.State != from {
		return shared.NewDomainError("INVALID_STATE", "Cannot move platform order from "+string(o.State)+" to "+string(to))
	}
	o.State = to
	o.Touch()
	return nil
}

// MarkWaiting queues the order for shipping
func (o *PlatformOrder) MarkWaiting() error {
	return o.transition(PlatformOrderStateDraft, PlatformOrderStateWaiting)
}

// MarkDone closes a shipped order
func (o *PlatformOrder) MarkDone() error {
	return o.transition(PlatformOrderStateWaiting, PlatformOrderStateDone)
}

// ImportRowError reports why one import row failed
type ImportRowError struct {
	Row            int    `json:"row"`
	OrderReference string `json:"order_reference"`
	Message        string `json:"message"`
}

// ImportResult counts the outcome of a bulk load
type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// RecordFailure counts a failed row
func (r *ImportResult) RecordFailure(row int, ref string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ImportRowError{Row: row, OrderReference: ref, Message: err.Error()})
}
