package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tenantID  uuid.UUID
	stock     *Location
	customers *Location
	suppliers *Location
	unit      *catalog.UnitOfMeasure
	dozen     *catalog.UnitOfMeasure
	vendorID  uuid.UUID
	product   *catalog.Product
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{tenantID: uuid.New(), vendorID: uuid.New()}
	var err error
	_, f.stock, err = NewWarehouse(f.tenantID, "wh", "Main")
	require.NoError(t, err)
	f.customers, err = NewLocation(f.tenantID, "Customers", LocationKindCustomer)
	require.NoError(t, err)
	f.suppliers, err = NewLocation(f.tenantID, "Vendors", LocationKindSupplier)
	require.NoError(t, err)
	f.unit, err = catalog.NewUnitOfMeasure(f.tenantID, "Units", "Unit", decimal.NewFromInt(1))
	require.NoError(t, err)
	f.dozen, err = catalog.NewUnitOfMeasure(f.tenantID, "Dozens", "Unit", decimal.NewFromInt(12))
	require.NoError(t, err)

	f.product, err = catalog.NewProduct(f.tenantID, "W1", "Widget", uuid.New(), f.unit)
	require.NoError(t, err)
	require.NoError(t, f.product.SetPurchaseUom(f.dozen))
	_, err = f.product.AddSeller(f.vendorID, "Acme", decimal.NewFromInt(90), decimal.Zero, 3)
	require.NoError(t, err)
	return f
}

func (f *fixture) rule(t *testing.T) *StockRule {
	r, err := NewPurchaseRequestRule(f.tenantID, f.stock, f.customers, nil)
	require.NoError(t, err)
	return r
}

func (f *fixture) procurement(qty int64, saleLineID uuid.UUID) Procurement {
	return Procurement{
		Product:     f.product,
		Quantity:    decimal.NewFromInt(qty),
		Uom:         f.unit,
		LocationID:  f.customers.ID,
		Origin:      "SO-2026-00001",
		DatePlanned: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		SaleLineID:  &saleLineID,
	}
}

func TestRun_SplitsBetweenStockAndRequest(t *testing.T) {
	f := newFixture(t)
	onHand := OnHand{}
	onHand.Add(f.product.ID, f.stock.ID, decimal.NewFromInt(6))

	res, err := Run([]Procurement{f.procurement(30, uuid.New())}, f.rule(t), onHand, 2)
	require.NoError(t, err)

	require.Len(t, res.Moves, 1)
	assert.Equal(t, "6", res.Moves[0].Quantity.String())
	assert.Equal(t, f.stock.ID, res.Moves[0].LocationID)
	assert.Equal(t, f.customers.ID, res.Moves[0].LocationDestID)
	assert.True(t, onHand.Available(f.product.ID, f.stock.ID).IsZero())

	require.Len(t, res.Requests, 1)
	d := res.Requests[0]
	assert.Equal(t, "2", d.Quantity.String())
	assert.Equal(t, f.dozen.ID, d.UomID)
	assert.Equal(t, f.vendorID, d.VendorID)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), d.DatePlanned)
}

func TestRun_StockCoversEverything(t *testing.T) {
	f := newFixture(t)
	onHand := OnHand{}
	onHand.Add(f.product.ID, f.stock.ID, decimal.NewFromInt(50))

	res, err := Run([]Procurement{f.procurement(30, uuid.New())}, f.rule(t), onHand, 0)
	require.NoError(t, err)
	assert.Len(t, res.Moves, 1)
	assert.Empty(t, res.Requests)
	assert.Equal(t, "20", onHand.Available(f.product.ID, f.stock.ID).String())
}

func TestRun_DropshipAlwaysRequests(t *testing.T) {
	f := newFixture(t)
	onHand := OnHand{}
	onHand.Add(f.product.ID, f.stock.ID, decimal.NewFromInt(100))

	p := f.procurement(12, uuid.New())
	p.IsDropshipping = true
	res, err := Run([]Procurement{p}, f.rule(t), onHand, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Moves)
	require.Len(t, res.Requests, 1)
	assert.True(t, res.Requests[0].IsDropshipping)
	assert.Equal(t, "1", res.Requests[0].Quantity.String())
	assert.Equal(t, "100", onHand.Available(f.product.ID, f.stock.ID).String())
}

func TestRun_MakeToOrderSkipsStock(t *testing.T) {
	f := newFixture(t)
	rule, err := NewStockRule(f.tenantID, "Buy", RuleActionBuy, ProcureMakeToOrder, "buy", nil, f.customers)
	require.NoError(t, err)
	onHand := OnHand{}
	onHand.Add(f.product.ID, f.stock.ID, decimal.NewFromInt(100))

	res, err := Run([]Procurement{f.procurement(24, uuid.New())}, rule, onHand, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Moves)
	require.Len(t, res.Requests, 1)
	assert.Equal(t, "2", res.Requests[0].Quantity.String())
}

func TestRun_GroupsBySaleLine(t *testing.T) {
	f := newFixture(t)
	line := uuid.New()
	other := uuid.New()

	res, err := Run([]Procurement{f.procurement(12, line), f.procurement(12, line), f.procurement(6, other)}, f.rule(t), nil, 0)
	require.NoError(t, err)
	require.Len(t, res.Requests, 2)
	assert.Equal(t, line, *res.Requests[0].SaleLineID)
	assert.Equal(t, "2", res.Requests[0].Quantity.String())
	assert.Equal(t, "0.5", res.Requests[1].Quantity.String())
}

func TestRun_NoVendorPrice(t *testing.T) {
	f := newFixture(t)
	p := f.procurement(5, uuid.New())
	forced := uuid.New()
	p.SupplierID = &forced

	_, err := Run([]Procurement{p}, f.rule(t), nil, 0)
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "NO_VENDOR_PRICE", de.Code)
	assert.Contains(t, de.Message, "[W1] Widget")
}

func TestRun_PullRuleRaisesNoRequests(t *testing.T) {
	f := newFixture(t)
	rule, err := NewStockRule(f.tenantID, "Deliver", RuleActionPull, ProcureMTSElseMTO, "ship", f.stock, f.customers)
	require.NoError(t, err)

	res, err := Run([]Procurement{f.procurement(5, uuid.New())}, rule, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Moves)
	assert.Empty(t, res.Requests)
}

func TestRun_RejectsInvalidProcurement(t *testing.T) {
	f := newFixture(t)
	_, err := Run([]Procurement{{Quantity: decimal.NewFromInt(1)}}, f.rule(t), nil, 0)
	assert.Error(t, err)

	_, err = Run([]Procurement{f.procurement(0, uuid.New())}, f.rule(t), nil, 0)
	assert.Error(t, err)

	_, err = Run(nil, nil, nil, 0)
	assert.Error(t, err)
}

func TestOnHand_Take(t *testing.T) {
	product, loc := uuid.New(), uuid.New()
	oh := NewOnHand([]StockQuant{{ProductID: product, LocationID: loc, Quantity: decimal.NewFromInt(10), ReservedQuantity: decimal.NewFromInt(3)}})

	assert.Equal(t, "5", oh.Take(product, loc, decimal.NewFromInt(5)).String())
	assert.Equal(t, "2", oh.Take(product, loc, decimal.NewFromInt(5)).String())
	assert.True(t, oh.Take(product, loc, decimal.NewFromInt(5)).IsZero())
	assert.True(t, oh.Take(uuid.New(), loc, decimal.NewFromInt(1)).IsZero())
}
