package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByLineIDs(ctx context.Context, tenantID uuid.UUID, lineIDs []uuid.UUID) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, lineIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockSalesOrderRepository) SaveWithLock(ctx context.Context, order *trade.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindLinesByRequestIDs(ctx context.Context, tenantID uuid.UUID, requestIDs []uuid.UUID) ([]trade.RequestPurchaseLine, error) {
	args := m.Called(ctx, tenantID, requestIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.RequestPurchaseLine), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	return m.Called(ctx, order).Error(0)
}

type MockPurchaseRequestRepository struct {
	mock.Mock
}

func (m *MockPurchaseRequestRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]trade.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindOpenBySaleLine(ctx context.Context, tenantID, saleLineID uuid.UUID) (*trade.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, saleLineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.RequestFilter) ([]trade.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.RequestFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseRequestRepository) Save(ctx context.Context, request *trade.PurchaseRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockPurchaseRequestRepository) SaveBatch(ctx context.Context, requests []trade.PurchaseRequest) error {
	return m.Called(ctx, requests).Error(0)
}

type MockRMARepository struct {
	mock.Mock
}

func (m *MockRMARepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.RMA, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.RMA), args.Error(1)
}

func (m *MockRMARepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.RMA, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.RMA), args.Error(1)
}

func (m *MockRMARepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRMARepository) FindBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]trade.RMA, error) {
	args := m.Called(ctx, tenantID, saleOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.RMA), args.Error(1)
}

func (m *MockRMARepository) Save(ctx context.Context, rma *trade.RMA) error {
	return m.Called(ctx, rma).Error(0)
}

type MockPlatformOrderRepository struct {
	mock.Mock
}

func (m *MockPlatformOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PlatformOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PlatformOrder), args.Error(1)
}

func (m *MockPlatformOrderRepository) FindByReferences(ctx context.Context, tenantID uuid.UUID, refs []string) (map[string]*trade.PlatformOrder, error) {
	args := m.Called(ctx, tenantID, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*trade.PlatformOrder), args.Error(1)
}

func (m *MockPlatformOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PlatformOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PlatformOrder), args.Error(1)
}

func (m *MockPlatformOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlatformOrderRepository) Save(ctx context.Context, order *trade.PlatformOrder) error {
	return m.Called(ctx, order).Error(0)
}

type MockAccountMoveRepository struct {
	mock.Mock
}

func (m *MockAccountMoveRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountMove, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountMove), args.Error(1)
}

func (m *MockAccountMoveRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.AccountMove, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountMove), args.Error(1)
}

func (m *MockAccountMoveRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.MoveFilter) ([]finance.AccountMove, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountMove), args.Error(1)
}

func (m *MockAccountMoveRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.MoveFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountMoveRepository) FindBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]finance.AccountMove, error) {
	args := m.Called(ctx, tenantID, saleOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountMove), args.Error(1)
}

func (m *MockAccountMoveRepository) FindByPurchaseOrder(ctx context.Context, tenantID, purchaseOrderID uuid.UUID) ([]finance.AccountMove, error) {
	args := m.Called(ctx, tenantID, purchaseOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountMove), args.Error(1)
}

func (m *MockAccountMoveRepository) FindOpenForPartner(ctx context.Context, tenantID, partnerID uuid.UUID, moveType finance.MoveType) ([]finance.AccountMove, error) {
	args := m.Called(ctx, tenantID, partnerID, moveType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountMove), args.Error(1)
}

func (m *MockAccountMoveRepository) Save(ctx context.Context, move *finance.AccountMove) error {
	return m.Called(ctx, move).Error(0)
}

func (m *MockAccountMoveRepository) SaveWithLock(ctx context.Context, move *finance.AccountMove) error {
	return m.Called(ctx, move).Error(0)
}

func (m *MockAccountMoveRepository) NextName(ctx context.Context, tenantID uuid.UUID, moveType finance.MoveType, date time.Time) (string, error) {
	args := m.Called(ctx, tenantID, moveType, date)
	return args.String(0), args.Error(1)
}

type MockPartnerRepository struct {
	mock.Mock
}

func (m *MockPartnerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Partner, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]partner.Partner, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByRef(ctx context.Context, tenantID uuid.UUID, ref string) (*partner.Partner, error) {
	args := m.Called(ctx, tenantID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Partner, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	return m.Called(ctx, p).Error(0)
}

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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindNeedingSetup(ctx context.Context) ([]partner.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, c *partner.Company) error {
	return m.Called(ctx, c).Error(0)
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.UnitOfMeasure), args.Error(1)
}

func (m *MockUomRepository) Save(ctx context.Context, u *catalog.UnitOfMeasure) error {
	return m.Called(ctx, u).Error(0)
}

type MockTaxRepository struct {
	mock.Mock
}

func (m *MockTaxRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Tax, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Tax), args.Error(1)
}

func (m *MockTaxRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, use catalog.TaxUse) ([]catalog.Tax, error) {
	args := m.Called(ctx, tenantID, use)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Tax), args.Error(1)
}

func (m *MockTaxRepository) Save(ctx context.Context, tax *catalog.Tax) error {
	return m.Called(ctx, tax).Error(0)
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

type MockProcurer struct {
	mock.Mock
}

func (m *MockProcurer) RunForOrder(ctx context.Context, order *trade.SalesOrder) ([]inventory.RequestDemand, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.RequestDemand), args.Error(1)
}

type MockDemandApplier struct {
	mock.Mock
}

func (m *MockDemandApplier) ApplyDemands(ctx context.Context, order *trade.SalesOrder, demands []inventory.RequestDemand) ([]trade.PurchaseRequest, error) {
	args := m.Called(ctx, order, demands)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseRequest), args.Error(1)
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

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
