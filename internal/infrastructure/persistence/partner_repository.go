package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByIDForTenant finds a partner with its bank accounts
func (r *GormPartnerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Partner, error) {
	var p partner.Partner
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Preload("BankAccounts").
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByIDs loads several partners with their bank accounts
func (r *GormPartnerRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]partner.Partner, error) {
	if len(ids) == 0 {
		return []partner.Partner{}, nil
	}
	var partners []partner.Partner
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Preload("BankAccounts").
		Where("id IN ?", ids).
		Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// FindByRef finds a partner by its internal reference
func (r *GormPartnerRepository) FindByRef(ctx context.Context, tenantID uuid.UUID, ref string) (*partner.Partner, error) {
	var p partner.Partner
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Preload("BankAccounts").
		Where("ref = ?", ref).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindAllForTenant lists partners
func (r *GormPartnerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Partner, error) {
	var partners []partner.Partner
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, PartnerSortFields, "name")).
		Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// CountForTenant counts partners matching the filter
func (r *GormPartnerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the partner and its bank accounts
func (r *GormPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		ids := uuidsOf(p.BankAccounts, func(b *partner.BankAccount) uuid.UUID { return b.ID })
		if err := deleteOrphans[partner.BankAccount](tx, "partner_id", p.ID, ids); err != nil {
			return err
		}
		for i := range p.BankAccounts {
			p.BankAccounts[i].PartnerID = p.ID
			p.BankAccounts[i].TenantID = p.TenantID
			if err := tx.Save(&p.BankAccounts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormPartnerRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&partner.Partner{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "ref", "vat", "email", "phone"))
	for key, value := range filter.Filters {
		switch key {
		case "is_customer":
			query = query.Where("is_customer = ?", value)
		case "is_supplier":
			query = query.Where("is_supplier = ?", value)
		case "active":
			query = query.Where("active = ?", value)
		case "company_type":
			query = query.Where("company_type = ?", value)
		case "parent_id":
			if value == nil {
				query = query.Where("parent_id IS NULL")
			} else {
				query = query.Where("parent_id = ?", value)
			}
		}
	}
	return query
}

// GormCompanyRepository implements CompanyRepository using GORM.
// Companies are the tenants, so none of its queries are tenant scoped.
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Company, error) {
	var company partner.Company
	if err := conn(ctx, r.db).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, notFound(err)
	}
	return &company, nil
}

// FindAll lists every company
func (r *GormCompanyRepository) FindAll(ctx context.Context) ([]partner.Company, error) {
	var companies []partner.Company
	if err := conn(ctx, r.db).Order("name ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// FindNeedingSetup returns companies with at least one setup flag unset
func (r *GormCompanyRepository) FindNeedingSetup(ctx context.Context) ([]partner.Company, error) {
	var companies []partner.Company
	if err := conn(ctx, r.db).
		Where("has_dropship_sequence = ? OR has_dropship_picking_type = ? OR has_purchase_request_rule = ?", false, false, false).
		Order("created_at ASC").
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// Save creates or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, company *partner.Company) error {
	return conn(ctx, r.db).Save(company).Error
}

// GetAllActiveTenantIDs returns every company ID for the sync scheduler
func (r *GormCompanyRepository) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := conn(ctx, r.db).
		Model(&partner.Company{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

var (
	_ partner.PartnerRepository = (*GormPartnerRepository)(nil)
	_ partner.CompanyRepository = (*GormCompanyRepository)(nil)
)
