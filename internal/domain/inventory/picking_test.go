package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dropshipPicking(t *testing.T, f *fixture) *Picking {
	pt, err := NewDropshipPickingType(f.tenantID, f.suppliers, f.customers)
	require.NoError(t, err)
	shipTo := uuid.New()
	p, err := NewPicking("DS/00001", pt, f.suppliers.ID, f.customers.ID, &shipTo, "PO-2026-00001")
	require.NoError(t, err)
	return p
}

func TestPickingType_Codes(t *testing.T) {
	f := newFixture(t)
	pt, err := NewDropshipPickingType(f.tenantID, f.suppliers, f.customers)
	require.NoError(t, err)
	assert.Equal(t, DropshipPickingTypeName, pt.Name)
	assert.Equal(t, "DS", pt.SequenceCode)
	assert.Equal(t, shared.SequenceDropshipping, pt.SequenceRef)
	assert.Equal(t, f.suppliers.ID, *pt.DefaultLocationSrcID)

	_, err = NewPickingType(f.tenantID, "Receipts", PickingTypeIncoming, shared.SequencePickingIn, f.customers, f.stock)
	assert.Error(t, err, "receipts come from suppliers")
	_, err = NewPickingType(f.tenantID, "Bogus", PickingTypeCode("bogus"), "x", nil, nil)
	assert.Error(t, err)
}

func TestPicking_Lifecycle(t *testing.T) {
	f := newFixture(t)
	p := dropshipPicking(t, f)

	assert.Error(t, p.Confirm(), "no moves yet")

	saleLine := uuid.New()
	m, err := NewStockMove(f.tenantID, f.product.ID, decimal.NewFromInt(3), f.unit.ID, uuid.New(), uuid.New())
	require.NoError(t, err)
	m.SaleLineID = &saleLine
	require.NoError(t, p.AddMove(*m))
	assert.Equal(t, f.suppliers.ID, p.Moves[0].LocationID)
	assert.Equal(t, "PO-2026-00001", p.Moves[0].Origin)

	p.SetExpressCode("  SF1234567890 ")
	assert.Equal(t, "SF1234567890", p.ExpressCode)

	require.NoError(t, p.Confirm())
	assert.Error(t, p.AddMove(*m))
	require.NoError(t, p.Validate(time.Now()))
	assert.Equal(t, MoveStateDone, p.State)
	assert.Equal(t, MoveStateDone, p.Moves[0].State)
	assert.Error(t, p.Cancel())

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	done, ok := events[0].(*PickingDoneEvent)
	require.True(t, ok)
	assert.Equal(t, PickingTypeDropship, done.Code)
	assert.Equal(t, "SF1234567890", done.ExpressCode)
	require.Len(t, done.Moves, 1)
	assert.Equal(t, saleLine, *done.Moves[0].SaleLineID)
}

func TestPicking_RejectsForeignMove(t *testing.T) {
	f := newFixture(t)
	p := dropshipPicking(t, f)
	m, err := NewStockMove(uuid.New(), f.product.ID, decimal.NewFromInt(1), f.unit.ID, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Error(t, p.AddMove(*m))
}

func TestPicking_Cancel(t *testing.T) {
	f := newFixture(t)
	p := dropshipPicking(t, f)
	m, err := NewStockMove(f.tenantID, f.product.ID, decimal.NewFromInt(1), f.unit.ID, uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, p.AddMove(*m))
	require.NoError(t, p.Cancel())
	assert.Equal(t, MoveStateCancel, p.Moves[0].State)
	assert.Error(t, p.Validate(time.Now()))
}

func TestPicking_Assign(t *testing.T) {
	f := newFixture(t)
	p := dropshipPicking(t, f)
	m, err := NewStockMove(f.tenantID, f.product.ID, decimal.NewFromInt(2), f.unit.ID, uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, p.AddMove(*m))
	assert.Error(t, p.Assign(), "draft transfers hold no reservation")
	assert.Empty(t, p.ReservedMoves())

	require.NoError(t, p.Confirm())
	require.NoError(t, p.Assign())
	assert.Equal(t, MoveStateAssigned, p.State)
	require.Len(t, p.ReservedMoves(), 1)
	assert.Equal(t, "2", p.ReservedMoves()[0].Quantity.String())

	require.NoError(t, p.Validate(time.Now()))
	assert.Empty(t, p.ReservedMoves())
}

func TestNewReturnMove(t *testing.T) {
	f := newFixture(t)
	ret, line := uuid.New(), uuid.New()
	m, err := NewReturnMove(f.tenantID, ret, line, f.product.ID, decimal.NewFromInt(2), f.unit.ID, f.customers.ID, f.stock.ID)
	require.NoError(t, err)
	assert.Equal(t, ret, *m.SaleReturnLineID)
	assert.Equal(t, line, *m.SaleLineID)
	assert.Equal(t, f.customers.ID, m.LocationID)
	assert.Equal(t, f.stock.ID, m.LocationDestID)
}

func TestPlanCompanySetup(t *testing.T) {
	f := newFixture(t)
	company, err := partner.NewCompany("QM", "")
	require.NoError(t, err)
	f.tenantID = company.TenantID()
	f.suppliers.TenantID, f.customers.TenantID, f.stock.TenantID = f.tenantID, f.tenantID, f.tenantID
	locs := SetupLocations{Suppliers: f.suppliers, Customers: f.customers, WarehouseStock: f.stock}

	plan, err := PlanCompanySetup(company, locs, SetupExisting{})
	require.NoError(t, err)
	require.NotNil(t, plan.Sequence)
	assert.Equal(t, shared.SequenceDropshipping, plan.Sequence.Code)
	assert.Equal(t, "DS/00001", plan.Sequence.Format(1, time.Now()))
	require.NotNil(t, plan.PickingType)
	assert.Equal(t, PickingTypeDropship, plan.PickingType.Code)
	require.NotNil(t, plan.Rule)
	assert.Equal(t, RuleActionRequest, plan.Rule.Action)
	assert.Equal(t, ProcureMTSElseMTO, plan.Rule.ProcureMethod)
	assert.Equal(t, f.customers.ID, plan.Rule.LocationID)
	assert.Equal(t, f.stock.ID, *plan.Rule.LocationSrcID)

	plan, err = PlanCompanySetup(company, locs, SetupExisting{Sequence: true, PickingType: true, Rule: true})
	require.NoError(t, err)
	assert.True(t, plan.Empty())

	plan, err = PlanCompanySetup(company, locs, SetupExisting{Sequence: true, Rule: true})
	require.NoError(t, err)
	assert.Nil(t, plan.Sequence)
	assert.NotNil(t, plan.PickingType)
	assert.Nil(t, plan.Rule)

	company.MarkProvisioned(true, true, true)
	assert.False(t, company.NeedsSetup())
}

func TestStockQuant(t *testing.T) {
	q, err := NewStockQuant(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, q.Increase(decimal.NewFromInt(10)))
	require.NoError(t, q.Reserve(decimal.NewFromInt(4)))
	assert.Equal(t, "6", q.Available().String())
	assert.Error(t, q.Reserve(decimal.NewFromInt(7)))

	assert.Error(t, q.Decrease(decimal.NewFromInt(7)), "reserved stock cannot be shipped by another move")
	q.Release(decimal.NewFromInt(4))
	require.NoError(t, q.Decrease(decimal.NewFromInt(5)))
	assert.Equal(t, "5", q.Quantity.String())
	assert.True(t, q.ReservedQuantity.IsZero())
	assert.Error(t, q.Decrease(decimal.NewFromInt(6)))
	q.Release(decimal.NewFromInt(1))
	assert.True(t, q.ReservedQuantity.IsZero())
	assert.Error(t, q.Increase(decimal.Zero))

	_, err = NewStockQuant(uuid.New(), uuid.Nil, uuid.New())
	assert.Error(t, err)
}
