package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Procurement is a demand for a product at a location, usually raised by a
// confirmed sales order line
type Procurement struct {
	Product        *catalog.Product
	Quantity       decimal.Decimal
	Uom            *catalog.UnitOfMeasure
	LocationID     uuid.UUID
	Name           string
	Origin         string
	DatePlanned    time.Time
	SaleLineID     *uuid.UUID
	SaleOrderID    *uuid.UUID
	PartnerID      *uuid.UUID // delivery address
	IsDropshipping bool
	SupplierID     *uuid.UUID // forces the vendor
	GroupID        *uuid.UUID
}

func (p Procurement) validate() error {
	if p.Product == nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Procurement needs a product")
	}
	if !p.Quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Procurement quantity must be positive")
	}
	return nil
}

// qtyInProductUom expresses the demand in the product's stock unit
func (p Procurement) qtyInProductUom() (decimal.Decimal, error) {
	if p.Uom == nil || p.Product.Uom == nil {
		return p.Quantity, nil
	}
	return p.Uom.ComputeQuantity(p.Quantity, p.Product.Uom, false)
}

type stockKey struct {
	product  uuid.UUID
	location uuid.UUID
}

// OnHand tracks available quantities per product and location while a batch
// of procurements is run
type OnHand map[stockKey]decimal.Decimal

// NewOnHand builds the availability map from stock quants
func NewOnHand(quants []StockQuant) OnHand {
	oh := make(OnHand, len(quants))
	for _, q := range quants {
		oh.Add(q.ProductID, q.LocationID, q.Available())
	}
	return oh
}

// Add increases the available quantity
func (oh OnHand) Add(productID, locationID uuid.UUID, qty decimal.Decimal) {
	k := stockKey{productID, locationID}
	oh[k] = oh[k].Add(qty)
}

// Available returns what is left at the location
func (oh OnHand) Available(productID, locationID uuid.UUID) decimal.Decimal {
	return oh[stockKey{productID, locationID}]
}

// Take reserves up to qty and returns the reserved part
func (oh OnHand) Take(productID, locationID uuid.UUID, qty decimal.Decimal) decimal.Decimal {
	k := stockKey{productID, locationID}
	avail := oh[k]
	if !avail.IsPositive() {
		return decimal.Zero
	}
	taken := decimal.Min(avail, qty)
	oh[k] = avail.Sub(taken)
	return taken
}

// RequestDemand is the quantity a sale line still needs bought, expressed in
// the product purchase unit
type RequestDemand struct {
	SaleLineID     *uuid.UUID
	SaleOrderID    *uuid.UUID
	ProductID      uuid.UUID
	Quantity       decimal.Decimal
	UomID          uuid.UUID
	VendorID       uuid.UUID
	PartnerID      *uuid.UUID
	IsDropshipping bool
	Origin         string
	DatePlanned    time.Time
}

// RunResult is what running a rule produced
type RunResult struct {
	Moves    []StockMove
	Requests []RequestDemand
}

// Run applies rule to the procurements. Quantities covered by onHand at the
// rule source become moves; the rest, and every drop-ship demand, is grouped
// per sale line into purchase request demands.
func Run(procs []Procurement, rule *StockRule, onHand OnHand, poLeadDays int) (*RunResult, error) {
	if rule == nil {
		return nil, shared.NewDomainError("NO_RULE", "No rule has been found to replenish the product")
	}
	if onHand == nil {
		onHand = OnHand{}
	}
	res := &RunResult{}
	var toRequest []Procurement

	for _, p := range procs {
		if err := p.validate(); err != nil {
			return nil, err
		}
		qty, err := p.qtyInProductUom()
		if err != nil {
			return nil, err
		}

		remaining := qty
		if !p.IsDropshipping && rule.ProcureMethod != ProcureMakeToOrder && rule.LocationSrcID != nil {
			covered := qty
			if rule.ProcureMethod == ProcureMTSElseMTO || rule.RaisesRequests() {
				covered = onHand.Take(p.Product.ID, *rule.LocationSrcID, qty)
			}
			if covered.IsPositive() {
				m, err := NewStockMove(rule.TenantID, p.Product.ID, covered, p.Product.UomID, *rule.LocationSrcID, rule.LocationID)
				if err != nil {
					return nil, err
				}
				ruleID := rule.ID
				m.RuleID = &ruleID
				m.Name = p.Name
				m.Origin = p.Origin
				m.GroupID = p.GroupID
				m.SaleLineID = p.SaleLineID
				res.Moves = append(res.Moves, *m)
			}
			remaining = qty.Sub(covered)
		}

		if !remaining.IsPositive() {
			continue
		}
		if !rule.RaisesRequests() {
			continue
		}
		p.Quantity = remaining
		p.Uom = p.Product.Uom
		toRequest = append(toRequest, p)
	}

	demands, err := runRequest(toRequest, poLeadDays)
	if err != nil {
		return nil, err
	}
	res.Requests = demands
	return res, nil
}

// runRequest selects a vendor for every procurement. A later procurement of
// the same sale line replaces the earlier one; procurements without a sale
// line are summed per product.
func runRequest(procs []Procurement, poLeadDays int) ([]RequestDemand, error) {
	var out []RequestDemand
	index := make(map[string]int)

	for _, p := range procs {
		schedule := p.DatePlanned
		if schedule.IsZero() {
			schedule = time.Now()
		}
		schedule = schedule.AddDate(0, 0, -poLeadDays)

		seller := p.Product.SelectSeller(catalog.SellerQuery{
			PartnerID: p.SupplierID,
			Quantity:  p.Quantity,
			Date:      schedule,
			Uom:       p.Uom,
		})
		if seller == nil {
			return nil, shared.NewDomainError("NO_VENDOR_PRICE",
				fmt.Sprintf("There is no matching vendor price to generate the purchase order for product %s", p.Product.DisplayName()))
		}

		qty := p.Quantity
		uomID := p.Product.UomID
		if p.Uom != nil && p.Product.UomPO != nil {
			converted, err := p.Uom.ComputeQuantity(p.Quantity, p.Product.UomPO, true)
			if err != nil {
				return nil, err
			}
			qty = converted
			uomID = p.Product.UomPOID
		}

		demand := RequestDemand{
			SaleLineID:     p.SaleLineID,
			SaleOrderID:    p.SaleOrderID,
			ProductID:      p.Product.ID,
			Quantity:       qty,
			UomID:          uomID,
			VendorID:       seller.PartnerID,
			PartnerID:      p.PartnerID,
			IsDropshipping: p.IsDropshipping,
			Origin:         p.Origin,
			DatePlanned:    schedule,
		}
		key := p.Product.ID.String()
		if p.SaleLineID != nil {
			key = p.SaleLineID.String()
		}
		i, ok := index[key]
		switch {
		case !ok:
			index[key] = len(out)
			out = append(out, demand)
		case p.SaleLineID != nil:
			// one request per sale line; the latest run replaces it
			out[i] = demand
		default:
			out[i].Quantity = out[i].Quantity.Add(qty)
		}
	}
	return out, nil
}
