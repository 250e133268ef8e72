package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements ProductCategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByIDForTenant finds a category by ID within a tenant
func (r *GormCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ProductCategory, error) {
	var category catalog.ProductCategory
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindByFullCode finds a category by its concatenated code
func (r *GormCategoryRepository) FindByFullCode(ctx context.Context, tenantID uuid.UUID, fullCode string) (*catalog.ProductCategory, error) {
	var category catalog.ProductCategory
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("full_code = ?", fullCode).
		First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindAllForTenant lists categories. Without an explicit order the tree is
// returned depth first, the way the legacy list view shows it.
func (r *GormCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.ProductCategory, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "complete_name"
		filter.OrderDir = "asc"
	}
	var categories []catalog.ProductCategory
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, CategorySortFields, "complete_name")).
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CountForTenant counts categories matching the filter
func (r *GormCategoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByIDs loads several categories
func (r *GormCategoryRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.ProductCategory, error) {
	if len(ids) == 0 {
		return []catalog.ProductCategory{}, nil
	}
	var categories []catalog.ProductCategory
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("id IN ?", ids).
		Order("level ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindDescendants returns every category whose path runs through categoryID
func (r *GormCategoryRepository) FindDescendants(ctx context.Context, tenantID, categoryID uuid.UUID) ([]catalog.ProductCategory, error) {
	var categories []catalog.ProductCategory
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("path LIKE ?", "%"+categoryID.String()+"/%").
		Order("level ASC").
		Order("full_code ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.ProductCategory) error {
	return conn(ctx, r.db).Save(category).Error
}

// SaveAll writes several categories in one transaction
func (r *GormCategoryRepository) SaveAll(ctx context.Context, categories []*catalog.ProductCategory) error {
	if len(categories) == 0 {
		return nil
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, c := range categories {
			if err := tx.Save(c).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteForTenant deletes a category of a tenant
func (r *GormCategoryRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&catalog.ProductCategory{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasChildren reports whether any category has categoryID as parent
func (r *GormCategoryRepository) HasChildren(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&catalog.ProductCategory{}).
		Scopes(tenantScope(tenantID)).
		Where("parent_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormCategoryRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&catalog.ProductCategory{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "complete_name", "full_code"))
	for key, value := range filter.Filters {
		switch key {
		case "parent_id":
			if value == nil {
				query = query.Where("parent_id IS NULL")
			} else {
				query = query.Where("parent_id = ?", value)
			}
		case "level":
			query = query.Where("level = ?", value)
		case "tax_classification_id":
			query = query.Where("tax_classification_id = ?", value)
		}
	}
	return query
}

// Ensure GormCategoryRepository implements ProductCategoryRepository
var _ catalog.ProductCategoryRepository = (*GormCategoryRepository)(nil)
