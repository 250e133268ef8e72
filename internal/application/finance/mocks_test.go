package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

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
	return args.Get(0).(string), args.Error(1)
}

type MockTaxInvoiceRepository struct {
	mock.Mock
}

func (m *MockTaxInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.TaxInvoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TaxInvoice), args.Error(1)
}

func (m *MockTaxInvoiceRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.TaxInvoice, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.TaxInvoice), args.Error(1)
}

func (m *MockTaxInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.TaxInvoice, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.TaxInvoice), args.Error(1)
}

func (m *MockTaxInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxInvoiceRepository) ExistsByNameAndCode(ctx context.Context, tenantID uuid.UUID, name, code string) (bool, error) {
	args := m.Called(ctx, tenantID, name, code)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockTaxInvoiceRepository) Save(ctx context.Context, invoice *finance.TaxInvoice) error {
	return m.Called(ctx, invoice).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *finance.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) NextName(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Get(0).(string), args.Error(1)
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

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
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

type MockProductCategoryRepository struct {
	mock.Mock
}

func (m *MockProductCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ProductCategory, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductCategory), args.Error(1)
}

func (m *MockProductCategoryRepository) FindByFullCode(ctx context.Context, tenantID uuid.UUID, fullCode string) (*catalog.ProductCategory, error) {
	args := m.Called(ctx, tenantID, fullCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductCategory), args.Error(1)
}

func (m *MockProductCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.ProductCategory, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductCategory), args.Error(1)
}

func (m *MockProductCategoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductCategoryRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.ProductCategory, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductCategory), args.Error(1)
}

func (m *MockProductCategoryRepository) FindDescendants(ctx context.Context, tenantID, categoryID uuid.UUID) ([]catalog.ProductCategory, error) {
	args := m.Called(ctx, tenantID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductCategory), args.Error(1)
}

func (m *MockProductCategoryRepository) Save(ctx context.Context, category *catalog.ProductCategory) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockProductCategoryRepository) SaveAll(ctx context.Context, categories []*catalog.ProductCategory) error {
	return m.Called(ctx, categories).Error(0)
}

func (m *MockProductCategoryRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockProductCategoryRepository) HasChildren(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, categoryID)
	return args.Get(0).(bool), args.Error(1)
}

type MockTaxClassificationRepository struct {
	mock.Mock
}

func (m *MockTaxClassificationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.TaxClassification, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.TaxClassification), args.Error(1)
}

func (m *MockTaxClassificationRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.TaxClassification, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.TaxClassification), args.Error(1)
}

func (m *MockTaxClassificationRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.TaxClassification, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.TaxClassification), args.Error(1)
}

func (m *MockTaxClassificationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.TaxClassification, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.TaxClassification), args.Error(1)
}

func (m *MockTaxClassificationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaxClassificationRepository) Save(ctx context.Context, tc *catalog.TaxClassification) error {
	return m.Called(ctx, tc).Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
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
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindNeedingSetup(ctx context.Context) ([]partner.Company, error) {
	args := m.Called(ctx)
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, company *partner.Company) error {
	return m.Called(ctx, company).Error(0)
}

type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockDocumentArchive) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentArchive) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
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
