package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context) ([]partner.Company, error) {
	args := m.Called(ctx)
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindNeedingSetup(ctx context.Context) ([]partner.Company, error) {
	args := m.Called(ctx)
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, c *partner.Company) error {
	return m.Called(ctx, c).Error(0)
}

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Location, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Location), args.Error(1)
}

func (m *MockLocationRepository) FindFirstByKind(ctx context.Context, tenantID uuid.UUID, kind inventory.LocationKind) (*inventory.Location, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Location), args.Error(1)
}

func (m *MockLocationRepository) Save(ctx context.Context, loc *inventory.Location) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockLocationRepository) FindDefaultWarehouse(ctx context.Context, tenantID uuid.UUID) (*inventory.Warehouse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Warehouse), args.Error(1)
}

func (m *MockLocationRepository) SaveWarehouse(ctx context.Context, w *inventory.Warehouse) error {
	return m.Called(ctx, w).Error(0)
}

type MockPickingTypeRepository struct {
	mock.Mock
}

func (m *MockPickingTypeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.PickingType, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.PickingType), args.Error(1)
}

func (m *MockPickingTypeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code inventory.PickingTypeCode) (*inventory.PickingType, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.PickingType), args.Error(1)
}

func (m *MockPickingTypeRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code inventory.PickingTypeCode) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPickingTypeRepository) Save(ctx context.Context, pt *inventory.PickingType) error {
	return m.Called(ctx, pt).Error(0)
}

type MockStockRuleRepository struct {
	mock.Mock
}

func (m *MockStockRuleRepository) FindByRoute(ctx context.Context, tenantID uuid.UUID, route string, locationID uuid.UUID) (*inventory.StockRule, error) {
	args := m.Called(ctx, tenantID, route, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockRule), args.Error(1)
}

func (m *MockStockRuleRepository) ExistsByRoute(ctx context.Context, tenantID uuid.UUID, route string) (bool, error) {
	args := m.Called(ctx, tenantID, route)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockRuleRepository) Save(ctx context.Context, rule *inventory.StockRule) error {
	return m.Called(ctx, rule).Error(0)
}

type MockPickingRepository struct {
	mock.Mock
}

func (m *MockPickingRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Picking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Picking), args.Error(1)
}

func (m *MockPickingRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.PickingFilter) ([]inventory.Picking, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.Picking), args.Error(1)
}

func (m *MockPickingRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.PickingFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPickingRepository) ExistsForReturnLines(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Bool(0), args.Error(1)
}

func (m *MockPickingRepository) Save(ctx context.Context, p *inventory.Picking) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPickingRepository) SaveWithLock(ctx context.Context, p *inventory.Picking) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPickingRepository) SaveGroup(ctx context.Context, g *inventory.ProcurementGroup) error {
	return m.Called(ctx, g).Error(0)
}

type MockStockQuantRepository struct {
	mock.Mock
}

func (m *MockStockQuantRepository) FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID, productIDs []uuid.UUID) ([]inventory.StockQuant, error) {
	args := m.Called(ctx, tenantID, locationID, productIDs)
	return args.Get(0).([]inventory.StockQuant), args.Error(1)
}

func (m *MockStockQuantRepository) FindOrCreate(ctx context.Context, tenantID, locationID, productID uuid.UUID) (*inventory.StockQuant, error) {
	args := m.Called(ctx, tenantID, locationID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockQuant), args.Error(1)
}

func (m *MockStockQuantRepository) SaveWithLock(ctx context.Context, q *inventory.StockQuant) error {
	return m.Called(ctx, q).Error(0)
}

// memQuants keeps quants between calls so consecutive runs see each other's
// reservations
type memQuants struct {
	quants map[uuid.UUID]inventory.StockQuant
	saves  int
}

func newMemQuants(quants ...inventory.StockQuant) *memQuants {
	m := &memQuants{quants: make(map[uuid.UUID]inventory.StockQuant)}
	for _, q := range quants {
		m.quants[q.ProductID] = q
	}
	return m
}

func (m *memQuants) FindByLocation(_ context.Context, _, locationID uuid.UUID, productIDs []uuid.UUID) ([]inventory.StockQuant, error) {
	var out []inventory.StockQuant
	for _, id := range productIDs {
		if q, ok := m.quants[id]; ok && q.LocationID == locationID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuants) FindOrCreate(_ context.Context, tenantID, locationID, productID uuid.UUID) (*inventory.StockQuant, error) {
	if q, ok := m.quants[productID]; ok {
		return &q, nil
	}
	return inventory.NewStockQuant(tenantID, locationID, productID)
}

func (m *memQuants) SaveWithLock(_ context.Context, q *inventory.StockQuant) error {
	m.quants[q.ProductID] = *q
	m.saves++
	return nil
}

// recordingTx runs fn in place and remembers whether it failed
type recordingTx struct {
	calls      int
	rolledBack bool
}

func (r *recordingTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if err := fn(ctx); err != nil {
		r.rolledBack = true
		return err
	}
	return nil
}

type MockSequenceGenerator struct {
	mock.Mock
}

func (m *MockSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, code string, date time.Time) (string, error) {
	args := m.Called(ctx, tenantID, code, date)
	return args.String(0), args.Error(1)
}

func (m *MockSequenceGenerator) Exists(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSequenceGenerator) Create(ctx context.Context, seq *shared.Sequence) error {
	return m.Called(ctx, seq).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByDefaultCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

type MockUomRepository struct {
	mock.Mock
}

func (m *MockUomRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.UnitOfMeasure, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.UnitOfMeasure), args.Error(1)
}

func (m *MockUomRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.UnitOfMeasure, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]catalog.UnitOfMeasure), args.Error(1)
}

func (m *MockUomRepository) Save(ctx context.Context, u *catalog.UnitOfMeasure) error {
	return m.Called(ctx, u).Error(0)
}
