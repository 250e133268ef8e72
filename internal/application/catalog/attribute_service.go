package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
)

// AttributeService manages the variant attributes products pick values from
type AttributeService struct {
	repo catalog.ProductAttributeRepository
}

// NewAttributeService creates a new AttributeService
func NewAttributeService(repo catalog.ProductAttributeRepository) *AttributeService {
	return &AttributeService{repo: repo}
}

// Create creates an attribute; duplicate values in the request are rejected
func (s *AttributeService) Create(ctx context.Context, tenantID uuid.UUID, req CreateAttributeRequest) (*AttributeResponse, error) {
	attr, err := catalog.NewProductAttribute(tenantID, req.Name, req.Comment)
	if err != nil {
		return nil, err
	}
	for _, name := range req.Values {
		if _, err := attr.AddValue(name); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, attr); err != nil {
		return nil, err
	}
	resp := ToAttributeResponse(attr)
	return &resp, nil
}

// AddValue appends a value at the end of the attribute's sequence
func (s *AttributeService) AddValue(ctx context.Context, tenantID, id uuid.UUID, req AddAttributeValueRequest) (*AttributeResponse, error) {
	attr, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := attr.AddValue(req.Name); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, attr); err != nil {
		return nil, err
	}
	resp := ToAttributeResponse(attr)
	return &resp, nil
}

// GetByID retrieves an attribute
func (s *AttributeService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*AttributeResponse, error) {
	attr, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToAttributeResponse(attr)
	return &resp, nil
}

// List retrieves attributes with pagination
func (s *AttributeService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]AttributeResponse, int64, error) {
	filter = filter.Normalize()
	items, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]AttributeResponse, len(items))
	for i := range items {
		out[i] = ToAttributeResponse(&items[i])
	}
	return out, total, nil
}
