package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type setupMocks struct {
	companies    *MockCompanyRepository
	locations    *MockLocationRepository
	pickingTypes *MockPickingTypeRepository
	rules        *MockStockRuleRepository
	sequences    *MockSequenceGenerator
}

func newSetupService() (*CompanySetupService, setupMocks) {
	m := setupMocks{
		companies:    new(MockCompanyRepository),
		locations:    new(MockLocationRepository),
		pickingTypes: new(MockPickingTypeRepository),
		rules:        new(MockStockRuleRepository),
		sequences:    new(MockSequenceGenerator),
	}
	svc := NewCompanySetupService(m.companies, m.locations, m.pickingTypes, m.rules, m.sequences, zap.NewNop())
	return svc, m
}

func TestCompanySetupService_EnsureCompanySetup(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions every missing record", func(t *testing.T) {
		svc, m := newSetupService()
		company, err := partner.NewCompany("QM", "")
		require.NoError(t, err)
		tenantID := company.TenantID()

		m.companies.On("FindByID", ctx, company.ID).Return(company, nil)
		m.sequences.On("Exists", ctx, tenantID, shared.SequenceDropshipping).Return(false, nil)
		m.pickingTypes.On("ExistsByCode", ctx, tenantID, inventory.PickingTypeDropship).Return(false, nil)
		m.rules.On("ExistsByRoute", ctx, tenantID, inventory.RoutePurchaseRequest).Return(false, nil)
		m.locations.On("FindFirstByKind", ctx, tenantID, mock.Anything).Return(nil, shared.ErrNotFound)
		m.locations.On("Save", ctx, mock.AnythingOfType("*inventory.Location")).Return(nil)
		m.locations.On("FindDefaultWarehouse", ctx, tenantID).Return(nil, shared.ErrNotFound)
		m.locations.On("SaveWarehouse", ctx, mock.AnythingOfType("*inventory.Warehouse")).Return(nil)
		m.pickingTypes.On("FindByCode", ctx, tenantID, inventory.PickingTypeOutgoing).Return(nil, shared.ErrNotFound)
		m.sequences.On("Create", ctx, mock.MatchedBy(func(s *shared.Sequence) bool {
			return s.Code == shared.SequenceDropshipping && s.Prefix == "DS/" && s.Padding == 5
		})).Return(nil)
		m.pickingTypes.On("Save", ctx, mock.MatchedBy(func(pt *inventory.PickingType) bool {
			return pt.Code == inventory.PickingTypeDropship && pt.SequenceCode == "DS"
		})).Return(nil)
		m.rules.On("Save", ctx, mock.MatchedBy(func(r *inventory.StockRule) bool {
			return r.Action == inventory.RuleActionRequest && r.ProcureMethod == inventory.ProcureMTSElseMTO
		})).Return(nil)
		m.companies.On("Save", ctx, company).Return(nil)

		resp, err := svc.EnsureCompanySetup(ctx, company.ID)
		require.NoError(t, err)
		assert.True(t, resp.CreatedSequence)
		assert.True(t, resp.CreatedPickingType)
		assert.True(t, resp.CreatedRule)
		assert.False(t, company.NeedsSetup())
		m.locations.AssertNumberOfCalls(t, "Save", 3)
		m.sequences.AssertExpectations(t)
		m.rules.AssertExpectations(t)
	})

	t.Run("creates nothing when everything exists", func(t *testing.T) {
		svc, m := newSetupService()
		company, err := partner.NewCompany("QM", "")
		require.NoError(t, err)
		tenantID := company.TenantID()
		suppliers, _ := inventory.NewLocation(tenantID, "Vendors", inventory.LocationKindSupplier)
		customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
		wh, stock, _ := inventory.NewWarehouse(tenantID, "WH", "Warehouse")

		m.companies.On("FindByID", ctx, company.ID).Return(company, nil)
		m.sequences.On("Exists", ctx, tenantID, shared.SequenceDropshipping).Return(true, nil)
		m.pickingTypes.On("ExistsByCode", ctx, tenantID, inventory.PickingTypeDropship).Return(true, nil)
		m.rules.On("ExistsByRoute", ctx, tenantID, inventory.RoutePurchaseRequest).Return(true, nil)
		m.locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindSupplier).Return(suppliers, nil)
		m.locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindCustomer).Return(customers, nil)
		m.locations.On("FindDefaultWarehouse", ctx, tenantID).Return(wh, nil)
		m.locations.On("FindByID", ctx, tenantID, wh.LotStockID).Return(stock, nil)
		m.pickingTypes.On("FindByCode", ctx, tenantID, inventory.PickingTypeOutgoing).Return(nil, shared.ErrNotFound)
		m.companies.On("Save", ctx, company).Return(nil)

		resp, err := svc.EnsureCompanySetup(ctx, company.ID)
		require.NoError(t, err)
		assert.False(t, resp.CreatedSequence || resp.CreatedPickingType || resp.CreatedRule)
		m.sequences.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.pickingTypes.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		m.rules.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCompanySetupService_CreateMissing(t *testing.T) {
	ctx := context.Background()
	svc, m := newSetupService()
	m.companies.On("FindNeedingSetup", ctx).Return([]partner.Company{}, nil)

	out, err := svc.CreateMissing(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPickingService_CreateReturnPicking(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	lines := []trade.RMAReturnLine{{
		ReturnLineID: uuid.New(),
		SaleLineID:   uuid.New(),
		ProductID:    uuid.New(),
		Quantity:     decimal.NewFromInt(2),
		UomID:        uuid.New(),
	}}

	newService := func() (*PickingService, *MockPickingRepository, *MockPickingTypeRepository, *MockLocationRepository, *MockSequenceGenerator) {
		pickings := new(MockPickingRepository)
		types := new(MockPickingTypeRepository)
		locations := new(MockLocationRepository)
		sequences := new(MockSequenceGenerator)
		svc := NewPickingService(pickings, types, locations, new(MockStockQuantRepository), sequences, zap.NewNop())
		return svc, pickings, types, locations, sequences
	}

	t.Run("skips lines already returned", func(t *testing.T) {
		svc, pickings, _, _, _ := newService()
		pickings.On("ExistsForReturnLines", ctx, tenantID, []uuid.UUID{lines[0].ReturnLineID}).Return(true, nil)

		p, err := svc.CreateReturnPicking(ctx, tenantID, "RMA-2026-00001", uuid.New(), lines)
		require.NoError(t, err)
		assert.Nil(t, p)
		pickings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("books a receipt from customers", func(t *testing.T) {
		svc, pickings, types, locations, sequences := newService()
		suppliers, _ := inventory.NewLocation(tenantID, "Vendors", inventory.LocationKindSupplier)
		customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
		wh, stock, _ := inventory.NewWarehouse(tenantID, "WH", "Warehouse")
		receipts, err := inventory.NewPickingType(tenantID, "Receipts", inventory.PickingTypeIncoming, shared.SequencePickingIn, suppliers, stock)
		require.NoError(t, err)

		pickings.On("ExistsForReturnLines", ctx, tenantID, mock.Anything).Return(false, nil)
		types.On("FindByCode", ctx, tenantID, inventory.PickingTypeIncoming).Return(receipts, nil)
		locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindCustomer).Return(customers, nil)
		locations.On("FindDefaultWarehouse", ctx, tenantID).Return(wh, nil)
		sequences.On("Next", ctx, tenantID, shared.SequencePickingIn, mock.Anything).Return("WH/IN/00007", nil)
		pickings.On("Save", ctx, mock.AnythingOfType("*inventory.Picking")).Return(nil)

		p, err := svc.CreateReturnPicking(ctx, tenantID, "RMA-2026-00001", uuid.New(), lines)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "WH/IN/00007", p.Name)
		assert.Equal(t, inventory.MoveStateConfirmed, p.State)
		require.Len(t, p.Moves, 1)
		assert.Equal(t, customers.ID, p.Moves[0].LocationID)
		assert.Equal(t, wh.LotStockID, p.Moves[0].LocationDestID)
		assert.Equal(t, lines[0].ReturnLineID, *p.Moves[0].SaleReturnLineID)
	})
}

func TestRMADoneHandler_IgnoresOtherTransitions(t *testing.T) {
	pickings := new(MockPickingRepository)
	svc := NewPickingService(pickings, new(MockPickingTypeRepository), new(MockLocationRepository), new(MockStockQuantRepository), new(MockSequenceGenerator), zap.NewNop())
	h := NewRMADoneHandler(svc, zap.NewNop())

	event := &trade.RMAStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypeRMAStateChanged, trade.AggregateTypeRMA, uuid.New(), uuid.New()),
		RMAType:         trade.RMATypeExchange,
		NewState:        trade.RMAStateDone,
	}
	require.NoError(t, h.Handle(context.Background(), event))
	pickings.AssertNotCalled(t, "ExistsForReturnLines", mock.Anything, mock.Anything, mock.Anything)

	assert.Error(t, h.Handle(context.Background(), inventory.NewCompanySetupCompleteEvent(uuid.New(), &inventory.SetupPlan{})))
}

func TestProcurementService_RunForOrder(t *testing.T) {
	ctx := context.Background()
	company, err := partner.NewCompany("QM", "")
	require.NoError(t, err)
	require.NoError(t, company.SetPOLead(1))
	tenantID := company.TenantID()

	customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
	_, stock, _ := inventory.NewWarehouse(tenantID, "WH", "Warehouse")
	rule, err := inventory.NewPurchaseRequestRule(tenantID, stock, customers, nil)
	require.NoError(t, err)

	unit, _ := catalog.NewUnitOfMeasure(tenantID, "Units", "Unit", decimal.NewFromInt(1))
	product, err := catalog.NewProduct(tenantID, "A100", "Widget", uuid.New(), unit)
	require.NoError(t, err)
	vendorID := uuid.New()
	_, err = product.AddSeller(vendorID, "Acme", decimal.NewFromInt(10), decimal.Zero, 2)
	require.NoError(t, err)

	customer, _ := partner.NewCompanyPartner(tenantID, "Buyer Ltd")
	order, err := trade.NewSalesOrder(tenantID, "SO-2026-00001", customer)
	require.NoError(t, err)
	_, err = order.AddLine(product, decimal.NewFromInt(8), decimal.NewFromInt(20), nil)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())

	products := new(MockProductRepository)
	companies := new(MockCompanyRepository)
	locations := new(MockLocationRepository)
	rules := new(MockStockRuleRepository)
	quants := new(MockStockQuantRepository)
	types := new(MockPickingTypeRepository)
	pickings := new(MockPickingRepository)
	sequences := new(MockSequenceGenerator)

	companies.On("FindByID", ctx, tenantID).Return(company, nil)
	locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindCustomer).Return(customers, nil)
	rules.On("FindByRoute", ctx, tenantID, inventory.RoutePurchaseRequest, customers.ID).Return(rule, nil)
	products.On("FindByIDs", ctx, tenantID, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
	quants.On("FindByLocation", ctx, tenantID, stock.ID, []uuid.UUID{product.ID}).Return([]inventory.StockQuant{
		{ProductID: product.ID, LocationID: stock.ID, Quantity: decimal.NewFromInt(3)},
	}, nil)
	pickings.On("SaveGroup", ctx, mock.AnythingOfType("*inventory.ProcurementGroup")).Return(nil)
	delivery, err := inventory.NewPickingType(tenantID, "Delivery Orders", inventory.PickingTypeOutgoing, shared.SequencePickingOut, stock, customers)
	require.NoError(t, err)
	types.On("FindByCode", ctx, tenantID, inventory.PickingTypeOutgoing).Return(delivery, nil)
	sequences.On("Next", ctx, tenantID, shared.SequencePickingOut, mock.Anything).Return("WH/OUT/00001", nil)
	pickings.On("Save", ctx, mock.MatchedBy(func(p *inventory.Picking) bool {
		return len(p.Moves) == 1 && p.Moves[0].Quantity.Equal(decimal.NewFromInt(3)) && p.State == inventory.MoveStateAssigned
	})).Return(nil)
	quants.On("SaveWithLock", ctx, mock.MatchedBy(func(q *inventory.StockQuant) bool {
		return q.ReservedQuantity.Equal(decimal.NewFromInt(3))
	})).Return(nil)

	svc := NewProcurementService(products, new(MockUomRepository), companies, locations, rules, quants, types, pickings, sequences, zap.NewNop())
	demands, err := svc.RunForOrder(ctx, order)
	require.NoError(t, err)
	require.Len(t, demands, 1)
	assert.Equal(t, "5", demands[0].Quantity.String())
	assert.Equal(t, vendorID, demands[0].VendorID)
	assert.Equal(t, order.Lines[0].ID, *demands[0].SaleLineID)
	pickings.AssertExpectations(t)
	quants.AssertExpectations(t)
}

func TestProcurementService_RunForOrder_ReservedStockIsNotReused(t *testing.T) {
	ctx := context.Background()
	company, err := partner.NewCompany("QM", "")
	require.NoError(t, err)
	tenantID := company.TenantID()

	customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
	_, stock, _ := inventory.NewWarehouse(tenantID, "WH", "Warehouse")
	rule, err := inventory.NewPurchaseRequestRule(tenantID, stock, customers, nil)
	require.NoError(t, err)
	delivery, err := inventory.NewPickingType(tenantID, "Delivery Orders", inventory.PickingTypeOutgoing, shared.SequencePickingOut, stock, customers)
	require.NoError(t, err)

	unit, _ := catalog.NewUnitOfMeasure(tenantID, "Units", "Unit", decimal.NewFromInt(1))
	product, err := catalog.NewProduct(tenantID, "A100", "Widget", uuid.New(), unit)
	require.NoError(t, err)
	_, err = product.AddSeller(uuid.New(), "Acme", decimal.NewFromInt(10), decimal.Zero, 2)
	require.NoError(t, err)

	newOrder := func(number string) *trade.SalesOrder {
		customer, _ := partner.NewCompanyPartner(tenantID, "Buyer Ltd")
		o, err := trade.NewSalesOrder(tenantID, number, customer)
		require.NoError(t, err)
		_, err = o.AddLine(product, decimal.NewFromInt(3), decimal.NewFromInt(20), nil)
		require.NoError(t, err)
		require.NoError(t, o.Confirm())
		return o
	}

	products := new(MockProductRepository)
	companies := new(MockCompanyRepository)
	locations := new(MockLocationRepository)
	rules := new(MockStockRuleRepository)
	types := new(MockPickingTypeRepository)
	pickings := new(MockPickingRepository)
	sequences := new(MockSequenceGenerator)
	held, err := inventory.NewStockQuant(tenantID, stock.ID, product.ID)
	require.NoError(t, err)
	held.Quantity = decimal.NewFromInt(3)
	quants := newMemQuants(*held)

	companies.On("FindByID", ctx, tenantID).Return(company, nil)
	locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindCustomer).Return(customers, nil)
	rules.On("FindByRoute", ctx, tenantID, inventory.RoutePurchaseRequest, customers.ID).Return(rule, nil)
	products.On("FindByIDs", ctx, tenantID, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
	pickings.On("SaveGroup", ctx, mock.AnythingOfType("*inventory.ProcurementGroup")).Return(nil)
	types.On("FindByCode", ctx, tenantID, inventory.PickingTypeOutgoing).Return(delivery, nil)
	sequences.On("Next", ctx, tenantID, shared.SequencePickingOut, mock.Anything).Return("WH/OUT/00001", nil)
	pickings.On("Save", ctx, mock.AnythingOfType("*inventory.Picking")).Return(nil)

	svc := NewProcurementService(products, new(MockUomRepository), companies, locations, rules, quants, types, pickings, sequences, zap.NewNop())

	first, err := svc.RunForOrder(ctx, newOrder("SO-2026-00001"))
	require.NoError(t, err)
	assert.Empty(t, first, "stock covers the first order")
	assert.Equal(t, 1, quants.saves)
	assert.Equal(t, "3", quants.quants[product.ID].ReservedQuantity.String())

	second, err := svc.RunForOrder(ctx, newOrder("SO-2026-00002"))
	require.NoError(t, err)
	require.Len(t, second, 1, "reserved stock must not serve the second order")
	assert.Equal(t, "3", second[0].Quantity.String())
	pickings.AssertNumberOfCalls(t, "Save", 1)
}

func deliveryPicking(t *testing.T, tenantID uuid.UUID, qty int64) (*inventory.Picking, *inventory.Location, uuid.UUID) {
	customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
	_, stock, _ := inventory.NewWarehouse(tenantID, "WH", "Warehouse")
	pt, err := inventory.NewPickingType(tenantID, "Delivery Orders", inventory.PickingTypeOutgoing, shared.SequencePickingOut, stock, customers)
	require.NoError(t, err)
	p, err := inventory.NewPicking("WH/OUT/00001", pt, stock.ID, customers.ID, nil, "SO-2026-00001")
	require.NoError(t, err)
	productID := uuid.New()
	m, err := inventory.NewStockMove(tenantID, productID, decimal.NewFromInt(qty), uuid.New(), stock.ID, customers.ID)
	require.NoError(t, err)
	require.NoError(t, p.AddMove(*m))
	require.NoError(t, p.Confirm())
	return p, stock, productID
}

func TestPickingService_ValidateConsumesReservation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	p, stock, productID := deliveryPicking(t, tenantID, 3)
	require.NoError(t, p.Assign())

	q, err := inventory.NewStockQuant(tenantID, stock.ID, productID)
	require.NoError(t, err)
	q.Quantity = decimal.NewFromInt(5)
	q.ReservedQuantity = decimal.NewFromInt(3)
	quants := newMemQuants(*q)
	pickings := new(MockPickingRepository)
	pickings.On("FindByIDForTenant", ctx, tenantID, p.ID).Return(p, nil)
	pickings.On("SaveWithLock", ctx, p).Return(nil)
	tx := &recordingTx{}

	svc := NewPickingService(pickings, new(MockPickingTypeRepository), new(MockLocationRepository), quants, new(MockSequenceGenerator), zap.NewNop())
	svc.SetTransactor(tx)
	resp, err := svc.Validate(ctx, tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", resp.State)
	assert.Equal(t, 1, tx.calls)
	left := quants.quants[productID]
	assert.Equal(t, "2", left.Quantity.String())
	assert.True(t, left.ReservedQuantity.IsZero())
}

func TestPickingService_CancelReleasesReservation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("reserved delivery", func(t *testing.T) {
		p, stock, productID := deliveryPicking(t, tenantID, 3)
		require.NoError(t, p.Assign())
		q, err := inventory.NewStockQuant(tenantID, stock.ID, productID)
		require.NoError(t, err)
		q.Quantity = decimal.NewFromInt(3)
		q.ReservedQuantity = decimal.NewFromInt(3)
		quants := newMemQuants(*q)
		pickings := new(MockPickingRepository)
		pickings.On("FindByIDForTenant", ctx, tenantID, p.ID).Return(p, nil)
		pickings.On("SaveWithLock", ctx, p).Return(nil)

		svc := NewPickingService(pickings, new(MockPickingTypeRepository), new(MockLocationRepository), quants, new(MockSequenceGenerator), zap.NewNop())
		_, err = svc.Cancel(ctx, tenantID, p.ID)
		require.NoError(t, err)
		left := quants.quants[productID]
		assert.Equal(t, "3", left.Quantity.String())
		assert.True(t, left.ReservedQuantity.IsZero())
	})

	t.Run("a failed save rolls the release back", func(t *testing.T) {
		p, stock, productID := deliveryPicking(t, tenantID, 3)
		require.NoError(t, p.Assign())
		q, err := inventory.NewStockQuant(tenantID, stock.ID, productID)
		require.NoError(t, err)
		q.Quantity = decimal.NewFromInt(3)
		q.ReservedQuantity = decimal.NewFromInt(3)
		pickings := new(MockPickingRepository)
		pickings.On("FindByIDForTenant", ctx, tenantID, p.ID).Return(p, nil)
		pickings.On("SaveWithLock", ctx, p).Return(shared.ErrConcurrencyConflict)
		tx := &recordingTx{}

		svc := NewPickingService(pickings, new(MockPickingTypeRepository), new(MockLocationRepository), newMemQuants(*q), new(MockSequenceGenerator), zap.NewNop())
		svc.SetTransactor(tx)
		_, err = svc.Cancel(ctx, tenantID, p.ID)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.True(t, tx.rolledBack)
	})

	t.Run("unreserved transfer touches no quant", func(t *testing.T) {
		p, _, _ := deliveryPicking(t, tenantID, 3)
		quants := newMemQuants()
		pickings := new(MockPickingRepository)
		pickings.On("FindByIDForTenant", ctx, tenantID, p.ID).Return(p, nil)
		pickings.On("SaveWithLock", ctx, p).Return(nil)

		svc := NewPickingService(pickings, new(MockPickingTypeRepository), new(MockLocationRepository), quants, new(MockSequenceGenerator), zap.NewNop())
		_, err := svc.Cancel(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Zero(t, quants.saves)
	})
}

func TestProcurementService_RunForOrder_NoRule(t *testing.T) {
	ctx := context.Background()
	company, _ := partner.NewCompany("QM", "")
	tenantID := company.TenantID()
	customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
	customer, _ := partner.NewCompanyPartner(tenantID, "Buyer Ltd")
	order, _ := trade.NewSalesOrder(tenantID, "SO-2026-00002", customer)

	companies := new(MockCompanyRepository)
	locations := new(MockLocationRepository)
	rules := new(MockStockRuleRepository)
	companies.On("FindByID", ctx, tenantID).Return(company, nil)
	locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindCustomer).Return(customers, nil)
	rules.On("FindByRoute", ctx, tenantID, inventory.RoutePurchaseRequest, customers.ID).Return(nil, shared.ErrNotFound)

	svc := NewProcurementService(new(MockProductRepository), new(MockUomRepository), companies, locations, rules,
		new(MockStockQuantRepository), new(MockPickingTypeRepository), new(MockPickingRepository), new(MockSequenceGenerator), zap.NewNop())
	_, err := svc.RunForOrder(ctx, order)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NO_RULE", de.Code)
}

func TestPickingService_CreatePurchaseReceipt(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	saleLineID := uuid.New()

	suppliers, _ := inventory.NewLocation(tenantID, "Vendors", inventory.LocationKindSupplier)
	customers, _ := inventory.NewLocation(tenantID, "Customers", inventory.LocationKindCustomer)
	dropship, err := inventory.NewDropshipPickingType(tenantID, suppliers, customers)
	require.NoError(t, err)

	confirmed := func(dropshipping bool) *trade.PurchaseOrderConfirmedEvent {
		shipTo := uuid.New()
		return &trade.PurchaseOrderConfirmedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypePurchaseOrderConfirmed, trade.AggregateTypePurchaseOrder, uuid.New(), tenantID),
			OrderNumber:     "PO-2026-00004",
			VendorID:        uuid.New(),
			IsDropshipping:  dropshipping,
			DestAddressID:   &shipTo,
			Lines: []trade.ConfirmedPurchaseLine{{
				LineID:     uuid.New(),
				ProductID:  uuid.New(),
				Name:       "[A100] Widget",
				Quantity:   decimal.NewFromInt(6),
				UomID:      uuid.New(),
				SaleLineID: &saleLineID,
			}},
		}
	}

	newService := func() (*PickingService, *MockPickingRepository, *MockPickingTypeRepository, *MockLocationRepository, *MockSequenceGenerator) {
		pickings := new(MockPickingRepository)
		types := new(MockPickingTypeRepository)
		locations := new(MockLocationRepository)
		sequences := new(MockSequenceGenerator)
		svc := NewPickingService(pickings, types, locations, new(MockStockQuantRepository), sequences, zap.NewNop())
		return svc, pickings, types, locations, sequences
	}

	t.Run("drop-ship order ships straight to the customer", func(t *testing.T) {
		svc, pickings, types, locations, sequences := newService()
		e := confirmed(true)

		types.On("FindByCode", ctx, tenantID, inventory.PickingTypeDropship).Return(dropship, nil)
		pickings.On("CountForTenant", ctx, tenantID, mock.AnythingOfType("inventory.PickingFilter")).Return(int64(0), nil)
		locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindSupplier).Return(suppliers, nil)
		locations.On("FindFirstByKind", ctx, tenantID, inventory.LocationKindCustomer).Return(customers, nil)
		sequences.On("Next", ctx, tenantID, dropship.SequenceRef, mock.Anything).Return("DS/00002", nil)
		pickings.On("Save", ctx, mock.AnythingOfType("*inventory.Picking")).Return(nil)

		p, err := svc.CreatePurchaseReceipt(ctx, e)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "DS/00002", p.Name)
		assert.Equal(t, "PO-2026-00004", p.Origin)
		assert.Equal(t, e.DestAddressID, p.PartnerID)
		require.Len(t, p.Moves, 1)
		assert.Equal(t, suppliers.ID, p.Moves[0].LocationID)
		assert.Equal(t, customers.ID, p.Moves[0].LocationDestID)
		assert.Equal(t, &saleLineID, p.Moves[0].SaleLineID)
		locations.AssertNotCalled(t, "FindDefaultWarehouse", mock.Anything, mock.Anything)
	})

	t.Run("existing transfer is not duplicated", func(t *testing.T) {
		svc, pickings, types, _, _ := newService()
		types.On("FindByCode", ctx, tenantID, inventory.PickingTypeDropship).Return(dropship, nil)
		pickings.On("CountForTenant", ctx, tenantID, mock.AnythingOfType("inventory.PickingFilter")).Return(int64(1), nil)

		p, err := svc.CreatePurchaseReceipt(ctx, confirmed(true))
		require.NoError(t, err)
		assert.Nil(t, p)
		pickings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing operation type", func(t *testing.T) {
		svc, _, types, _, _ := newService()
		types.On("FindByCode", ctx, tenantID, inventory.PickingTypeIncoming).Return(nil, shared.ErrNotFound)

		_, err := svc.CreatePurchaseReceipt(ctx, confirmed(false))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_PICKING_TYPE", domainErr.Code)
	})
}

func TestPurchaseConfirmedHandler_RejectsOtherEvents(t *testing.T) {
	svc := NewPickingService(new(MockPickingRepository), new(MockPickingTypeRepository), new(MockLocationRepository), new(MockStockQuantRepository), new(MockSequenceGenerator), zap.NewNop())
	h := NewPurchaseConfirmedHandler(svc, zap.NewNop())

	assert.Equal(t, []string{trade.EventTypePurchaseOrderConfirmed}, h.EventTypes())
	assert.Error(t, h.Handle(context.Background(), inventory.NewCompanySetupCompleteEvent(uuid.New(), &inventory.SetupPlan{})))
}
