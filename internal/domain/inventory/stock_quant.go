package inventory

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockQuant is the quantity of a product held at one internal location.
// The composite identifier is LocationID + ProductID.
type StockQuant struct {
	shared.TenantAggregateRoot
	LocationID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_quant_location_product,priority:2"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_quant_location_product,priority:3"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockQuant) TableName() string {
	return "stock_quants"
}

// NewStockQuant creates an empty quant
func NewStockQuant(tenantID, locationID, productID uuid.UUID) (*StockQuant, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &StockQuant{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          locationID,
		ProductID:           productID,
		Quantity:            decimal.Zero,
		ReservedQuantity:    decimal.Zero,
	}, nil
}

// Available is the quantity not yet reserved
func (q *StockQuant) Available() decimal.Decimal {
	return q.Quantity.Sub(q.ReservedQuantity)
}

// Increase adds received goods
func (q *StockQuant) Increase(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	q.Quantity = q.Quantity.Add(qty)
	q.Touch()
	return nil
}

// Decrease removes shipped goods from the unreserved quantity. A reserved
// move releases its reservation first.
func (q *StockQuant) Decrease(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if qty.GreaterThan(q.Available()) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock at the location")
	}
	q.Quantity = q.Quantity.Sub(qty)
	q.Touch()
	return nil
}

// Reserve books qty for a confirmed move
func (q *StockQuant) Reserve(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if qty.GreaterThan(q.Available()) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough available stock to reserve")
	}
	q.ReservedQuantity = q.ReservedQuantity.Add(qty)
	q.Touch()
	return nil
}

// Release gives back qty reserved by a move that was validated or cancelled
func (q *StockQuant) Release(qty decimal.Decimal) {
	q.ReservedQuantity = decimal.Max(decimal.Zero, q.ReservedQuantity.Sub(qty))
	q.Touch()
}
