package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// ProductCategoryRepository defines persistence for categories
type ProductCategoryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductCategory, error)
	// FindByFullCode finds a category by its concatenated code
	FindByFullCode(ctx context.Context, tenantID uuid.UUID, fullCode string) (*ProductCategory, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ProductCategory, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// FindByIDs loads several categories, e.g. the ancestors of a category
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ProductCategory, error)
	// FindDescendants returns all categories below categoryID, shallowest first
	FindDescendants(ctx context.Context, tenantID, categoryID uuid.UUID) ([]ProductCategory, error)
	Save(ctx context.Context, category *ProductCategory) error
	SaveAll(ctx context.Context, categories []*ProductCategory) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	HasChildren(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error)
}

// TaxClassificationRepository defines persistence for tax classifications
type TaxClassificationRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TaxClassification, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*TaxClassification, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]TaxClassification, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TaxClassification, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, tc *TaxClassification) error
}

// ProductRepository defines persistence for products with their sellers, taxes and uoms
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindByDefaultCode(ctx context.Context, tenantID uuid.UUID, code string) (*Product, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, product *Product) error
}

// ProductAttributeRepository defines persistence for attributes and their values
type ProductAttributeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductAttribute, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ProductAttribute, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, attribute *ProductAttribute) error
}

// UomRepository defines persistence for units of measure
type UomRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*UnitOfMeasure, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]UnitOfMeasure, error)
	Save(ctx context.Context, uom *UnitOfMeasure) error
}

// TaxRepository defines persistence for taxes
type TaxRepository interface {
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Tax, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, use TaxUse) ([]Tax, error)
	Save(ctx context.Context, tax *Tax) error
}
