package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// withDetails preloads what procurement and invoicing read from a product
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Uom").
		Preload("UomPO").
		Preload("Sellers", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC, min_qty DESC") }).
		Preload("CustomerTaxes").
		Preload("SupplierTaxes").
		Preload("AttributeValues")
}

// FindByIDForTenant finds a product by ID within a tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withDetails).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindByIDs loads several products with their details
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withDetails).
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByDefaultCode finds a product by its internal reference
func (r *GormProductRepository) FindByDefaultCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	var product catalog.Product
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withDetails).
		Where("default_code = ?", code).
		First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindAllForTenant lists products without their details
func (r *GormProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, ProductSortFields, "created_at")).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// CountForTenant counts products matching the filter
func (r *GormProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the product, its sellers and its tax and attribute links
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return err
		}

		sellerIDs := uuidsOf(product.Sellers, func(s *catalog.SupplierInfo) uuid.UUID { return s.ID })
		if err := deleteOrphans[catalog.SupplierInfo](tx, "product_id", product.ID, sellerIDs); err != nil {
			return err
		}
		for i := range product.Sellers {
			product.Sellers[i].ProductID = product.ID
			if err := tx.Save(&product.Sellers[i]).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(product).Association("CustomerTaxes").Replace(product.CustomerTaxes); err != nil {
			return err
		}
		if err := tx.Model(product).Association("SupplierTaxes").Replace(product.SupplierTaxes); err != nil {
			return err
		}
		return tx.Model(product).Association("AttributeValues").Replace(product.AttributeValues)
	})
}

func (r *GormProductRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&catalog.Product{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "default_code"))
	for key, value := range filter.Filters {
		switch key {
		case "category_id":
			query = query.Where("category_id = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "active":
			query = query.Where("active = ?", value)
		case "seller_id":
			query = query.Where("id IN (?)",
				r.db.Model(&catalog.SupplierInfo{}).Select("product_id").Where("partner_id = ?", value))
		}
	}
	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
