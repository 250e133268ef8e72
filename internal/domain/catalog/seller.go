package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierInfo is a vendor price list entry for a product
type SupplierInfo struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartnerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartnerName string          `gorm:"type:varchar(200);not null"`
	Sequence    int             `gorm:"not null;default:1"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'CNY'"`
	MinQty      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Delay       int             `gorm:"not null;default:1"`
	DateStart   *time.Time      `gorm:"type:date"`
	DateEnd     *time.Time      `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (SupplierInfo) TableName() string {
	return "product_supplier_infos"
}

// ValidOn reports whether the entry's validity window covers date
func (s SupplierInfo) ValidOn(date time.Time) bool {
	day := truncateDay(date)
	if s.DateStart != nil && truncateDay(*s.DateStart).After(day) {
		return false
	}
	if s.DateEnd != nil && truncateDay(*s.DateEnd).Before(day) {
		return false
	}
	return true
}

// SellerQuery narrows SelectSeller
type SellerQuery struct {
	PartnerID *uuid.UUID
	Quantity  decimal.Decimal
	Date      time.Time
	// Uom is the unit Quantity is expressed in; nil means the product uom
	Uom *UnitOfMeasure
}

// SelectSeller returns the vendor entry to buy from, or nil.
// Entries are scanned in sequence order; the first match fixes the vendor
// and the cheapest valid entry of that vendor wins.
func (p *Product) SelectSeller(q SellerQuery) *SupplierInfo {
	if q.Date.IsZero() {
		q.Date = time.Now()
	}
	sellers := make([]SupplierInfo, len(p.Sellers))
	copy(sellers, p.Sellers)
	sort.SliceStable(sellers, func(i, j int) bool {
		if sellers[i].Sequence != sellers[j].Sequence {
			return sellers[i].Sequence < sellers[j].Sequence
		}
		if !sellers[i].MinQty.Equal(sellers[j].MinQty) {
			return sellers[i].MinQty.GreaterThan(sellers[j].MinQty)
		}
		return sellers[i].Price.LessThan(sellers[j].Price)
	})

	qtyInSellerUom := q.Quantity
	from := q.Uom
	if from == nil {
		from = p.Uom
	}
	if from != nil && p.UomPO != nil {
		if converted, err := from.ComputeQuantity(q.Quantity, p.UomPO, false); err == nil {
			qtyInSellerUom = converted
		}
	}

	var matched []SupplierInfo
	for _, s := range sellers {
		if !s.ValidOn(q.Date) {
			continue
		}
		if q.PartnerID != nil && s.PartnerID != *q.PartnerID {
			continue
		}
		if qtyInSellerUom.LessThan(s.MinQty) {
			continue
		}
		if len(matched) == 0 || matched[0].PartnerID == s.PartnerID {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	best := matched[0]
	for _, s := range matched[1:] {
		if s.Price.LessThan(best.Price) {
			best = s
		}
	}
	return &best
}

// VendorIDs returns the distinct vendors that sell the product
func (p *Product) VendorIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, s := range p.Sellers {
		if !seen[s.PartnerID] {
			seen[s.PartnerID] = true
			ids = append(ids, s.PartnerID)
		}
	}
	return ids
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
