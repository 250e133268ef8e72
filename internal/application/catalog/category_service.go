package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles the product category tree
type CategoryService struct {
	categoryRepo   catalog.ProductCategoryRepository
	taxClassRepo   catalog.TaxClassificationRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.ProductCategoryRepository, taxClassRepo catalog.TaxClassificationRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		taxClassRepo: taxClassRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CategoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a category. The full code must be unique in the company.
func (s *CategoryService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	var category *catalog.ProductCategory
	var err error
	if req.ParentID != nil {
		parent, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, err
		}
		category, err = catalog.NewChildProductCategory(tenantID, req.Code, req.Name, parent)
		if err != nil {
			return nil, err
		}
	} else if category, err = catalog.NewProductCategory(tenantID, req.Code, req.Name); err != nil {
		return nil, err
	}

	if err := s.ensureUniqueFullCode(ctx, tenantID, category); err != nil {
		return nil, err
	}
	if req.TaxClassificationID != nil {
		if _, err := s.taxClassRepo.FindByIDForTenant(ctx, tenantID, *req.TaxClassificationID); err != nil {
			return nil, err
		}
		category.SetTaxClassification(req.TaxClassificationID)
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetByID retrieves a category
func (s *CategoryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// List retrieves categories with pagination
func (s *CategoryService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CategoryResponse, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "full_code"
		filter.OrderDir = "asc"
	}
	filter = filter.Normalize()
	categories, err := s.categoryRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.categoryRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out, total, nil
}

// Update renames a category and refreshes the names and codes below it
func (s *CategoryService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	var parent *catalog.ProductCategory
	if category.ParentID != nil {
		if parent, err = s.categoryRepo.FindByIDForTenant(ctx, tenantID, *category.ParentID); err != nil {
			return nil, err
		}
	}
	oldFullCode := category.FullCode
	if err := category.Rename(req.Code, req.Name, parent); err != nil {
		return nil, err
	}
	if category.FullCode != oldFullCode {
		if err := s.ensureUniqueFullCode(ctx, tenantID, category); err != nil {
			return nil, err
		}
	}

	descendants, err := s.categoryRepo.FindDescendants(ctx, tenantID, category.ID)
	if err != nil {
		return nil, err
	}
	byID := map[uuid.UUID]*catalog.ProductCategory{category.ID: category}
	changed := []*catalog.ProductCategory{category}
	for i := range descendants {
		d := &descendants[i]
		if d.ParentID == nil {
			continue
		}
		if p, ok := byID[*d.ParentID]; ok {
			d.RefreshFromParent(p)
			byID[d.ID] = d
			changed = append(changed, d)
		}
	}
	if err := s.categoryRepo.SaveAll(ctx, changed); err != nil {
		return nil, err
	}
	s.logger.Info("category renamed",
		zap.String("complete_name", category.CompleteName),
		zap.Int("refreshed", len(changed)-1),
	)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// SetTaxClassification assigns or clears the tax classification of a category
func (s *CategoryService) SetTaxClassification(ctx context.Context, tenantID, id uuid.UUID, req SetCategoryTaxRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.TaxClassificationID != nil {
		if _, err := s.taxClassRepo.FindByIDForTenant(ctx, tenantID, *req.TaxClassificationID); err != nil {
			return nil, err
		}
	}
	category.SetTaxClassification(req.TaxClassificationID)
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// EffectiveTaxClassification returns the classification a category uses,
// inherited from the nearest classified ancestor. Nil when none is set.
func (s *CategoryService) EffectiveTaxClassification(ctx context.Context, tenantID, id uuid.UUID) (*TaxClassificationResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	chain := []catalog.ProductCategory{*category}
	if ids := category.AncestorIDs(); len(ids) > 0 {
		ancestors, err := s.categoryRepo.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]catalog.ProductCategory, len(ancestors))
		for _, a := range ancestors {
			byID[a.ID] = a
		}
		for i := len(ids) - 1; i >= 0; i-- {
			if a, ok := byID[ids[i]]; ok {
				chain = append(chain, a)
			}
		}
	}
	classID := catalog.ResolveTaxClassification(chain)
	if classID == nil {
		return nil, nil
	}
	tc, err := s.taxClassRepo.FindByIDForTenant(ctx, tenantID, *classID)
	if err != nil {
		return nil, err
	}
	resp := ToTaxClassificationResponse(tc)
	return &resp, nil
}

// Delete removes a leaf category
func (s *CategoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	hasChildren, err := s.categoryRepo.HasChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainError("HAS_CHILDREN", "Cannot delete a category with child categories")
	}
	return s.categoryRepo.DeleteForTenant(ctx, tenantID, id)
}

func (s *CategoryService) ensureUniqueFullCode(ctx context.Context, tenantID uuid.UUID, c *catalog.ProductCategory) error {
	existing, err := s.categoryRepo.FindByFullCode(ctx, tenantID, c.FullCode)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return shared.NewDomainError("ALREADY_EXISTS", "Category with code "+c.FullCode+" already exists")
	}
	return nil
}

func (s *CategoryService) publish(ctx context.Context, c *catalog.ProductCategory) {
	if s.eventPublisher != nil && len(c.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, c.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish category events", zap.String("category", c.FullCode), zap.Error(err))
		}
	}
	c.ClearDomainEvents()
}
