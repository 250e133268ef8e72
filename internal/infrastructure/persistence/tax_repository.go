package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaxClassificationRepository implements TaxClassificationRepository using GORM
type GormTaxClassificationRepository struct {
	db *gorm.DB
}

// NewGormTaxClassificationRepository creates a new GormTaxClassificationRepository
func NewGormTaxClassificationRepository(db *gorm.DB) *GormTaxClassificationRepository {
	return &GormTaxClassificationRepository{db: db}
}

// FindByIDForTenant finds a tax classification by ID within a tenant
func (r *GormTaxClassificationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.TaxClassification, error) {
	var tc catalog.TaxClassification
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&tc).Error; err != nil {
		return nil, notFound(err)
	}
	return &tc, nil
}

// FindByCode finds a tax classification by its short code
func (r *GormTaxClassificationRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.TaxClassification, error) {
	var tc catalog.TaxClassification
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("code = ?", code).First(&tc).Error; err != nil {
		return nil, notFound(err)
	}
	return &tc, nil
}

// FindByIDs loads several tax classifications
func (r *GormTaxClassificationRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.TaxClassification, error) {
	if len(ids) == 0 {
		return []catalog.TaxClassification{}, nil
	}
	var out []catalog.TaxClassification
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindAllForTenant lists tax classifications
func (r *GormTaxClassificationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.TaxClassification, error) {
	var out []catalog.TaxClassification
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, TaxClassificationSortFields, "code")).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountForTenant counts tax classifications matching the filter
func (r *GormTaxClassificationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a tax classification
func (r *GormTaxClassificationRepository) Save(ctx context.Context, tc *catalog.TaxClassification) error {
	return conn(ctx, r.db).Save(tc).Error
}

func (r *GormTaxClassificationRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	return conn(ctx, r.db).
		Model(&catalog.TaxClassification{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "code", "code18"))
}

// GormTaxRepository implements TaxRepository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// FindByIDs loads several taxes
func (r *GormTaxRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Tax, error) {
	if len(ids) == 0 {
		return []catalog.Tax{}, nil
	}
	var taxes []catalog.Tax
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id IN ?", ids).Find(&taxes).Error; err != nil {
		return nil, err
	}
	return taxes, nil
}

// FindAllForTenant lists the active taxes of one use
func (r *GormTaxRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, use catalog.TaxUse) ([]catalog.Tax, error) {
	var taxes []catalog.Tax
	query := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("active = ?", true)
	if use != "" {
		query = query.Where("type_tax_use = ?", use)
	}
	if err := query.Order("name ASC").Find(&taxes).Error; err != nil {
		return nil, err
	}
	return taxes, nil
}

// Save creates or updates a tax
func (r *GormTaxRepository) Save(ctx context.Context, tax *catalog.Tax) error {
	return conn(ctx, r.db).Save(tax).Error
}

// GormUomRepository implements UomRepository using GORM
type GormUomRepository struct {
	db *gorm.DB
}

// NewGormUomRepository creates a new GormUomRepository
func NewGormUomRepository(db *gorm.DB) *GormUomRepository {
	return &GormUomRepository{db: db}
}

// FindByIDForTenant finds a unit by ID within a tenant
func (r *GormUomRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.UnitOfMeasure, error) {
	var uom catalog.UnitOfMeasure
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&uom).Error; err != nil {
		return nil, notFound(err)
	}
	return &uom, nil
}

// FindAllForTenant lists active units grouped by category
func (r *GormUomRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.UnitOfMeasure, error) {
	var uoms []catalog.UnitOfMeasure
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("active = ?", true).
		Order("category ASC, name ASC").
		Find(&uoms).Error; err != nil {
		return nil, err
	}
	return uoms, nil
}

// Save creates or updates a unit
func (r *GormUomRepository) Save(ctx context.Context, uom *catalog.UnitOfMeasure) error {
	return conn(ctx, r.db).Save(uom).Error
}

// GormProductAttributeRepository implements ProductAttributeRepository using GORM
type GormProductAttributeRepository struct {
	db *gorm.DB
}

// NewGormProductAttributeRepository creates a new GormProductAttributeRepository
func NewGormProductAttributeRepository(db *gorm.DB) *GormProductAttributeRepository {
	return &GormProductAttributeRepository{db: db}
}

func orderedValues(db *gorm.DB) *gorm.DB {
	return db.Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") })
}

// FindByIDForTenant finds an attribute with its values
func (r *GormProductAttributeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ProductAttribute, error) {
	var attr catalog.ProductAttribute
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), orderedValues).
		Where("id = ?", id).
		First(&attr).Error; err != nil {
		return nil, notFound(err)
	}
	return &attr, nil
}

// FindAllForTenant lists attributes with their values
func (r *GormProductAttributeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.ProductAttribute, error) {
	var attrs []catalog.ProductAttribute
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), orderedValues, search(filter.Search, "name"),
			paginate(filter, CommonSortFields, "created_at")).
		Find(&attrs).Error; err != nil {
		return nil, err
	}
	return attrs, nil
}

// CountForTenant counts attributes matching the search
func (r *GormProductAttributeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&catalog.ProductAttribute{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name")).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the attribute and replaces its values
func (r *GormProductAttributeRepository) Save(ctx context.Context, attr *catalog.ProductAttribute) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(attr).Error; err != nil {
			return err
		}
		ids := uuidsOf(attr.Values, func(v *catalog.ProductAttributeValue) uuid.UUID { return v.ID })
		if err := deleteOrphans[catalog.ProductAttributeValue](tx, "attribute_id", attr.ID, ids); err != nil {
			return err
		}
		for i := range attr.Values {
			attr.Values[i].AttributeID = attr.ID
			if err := tx.Save(&attr.Values[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var (
	_ catalog.TaxClassificationRepository = (*GormTaxClassificationRepository)(nil)
	_ catalog.TaxRepository               = (*GormTaxRepository)(nil)
	_ catalog.UomRepository               = (*GormUomRepository)(nil)
	_ catalog.ProductAttributeRepository  = (*GormProductAttributeRepository)(nil)
)
