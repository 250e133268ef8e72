package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
)

// TaxClassificationService manages the tax codes printed on invoices
type TaxClassificationService struct {
	repo catalog.TaxClassificationRepository
}

// NewTaxClassificationService creates a new TaxClassificationService
func NewTaxClassificationService(repo catalog.TaxClassificationRepository) *TaxClassificationService {
	return &TaxClassificationService{repo: repo}
}

// Create creates a tax classification with a code unique in the company
func (s *TaxClassificationService) Create(ctx context.Context, tenantID uuid.UUID, req TaxClassificationRequest) (*TaxClassificationResponse, error) {
	if err := s.ensureUniqueCode(ctx, tenantID, req.Code, uuid.Nil); err != nil {
		return nil, err
	}
	tc, err := catalog.NewTaxClassification(tenantID, req.Name, req.Code, req.Code18)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tc); err != nil {
		return nil, err
	}
	resp := ToTaxClassificationResponse(tc)
	return &resp, nil
}

// Update replaces name and codes
func (s *TaxClassificationService) Update(ctx context.Context, tenantID, id uuid.UUID, req TaxClassificationRequest) (*TaxClassificationResponse, error) {
	tc, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, tenantID, req.Code, tc.ID); err != nil {
		return nil, err
	}
	if err := tc.Update(req.Name, req.Code, req.Code18); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tc); err != nil {
		return nil, err
	}
	resp := ToTaxClassificationResponse(tc)
	return &resp, nil
}

// GetByID retrieves a tax classification
func (s *TaxClassificationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*TaxClassificationResponse, error) {
	tc, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTaxClassificationResponse(tc)
	return &resp, nil
}

// List retrieves tax classifications with pagination
func (s *TaxClassificationService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TaxClassificationResponse, int64, error) {
	filter = filter.Normalize()
	items, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TaxClassificationResponse, len(items))
	for i := range items {
		out[i] = ToTaxClassificationResponse(&items[i])
	}
	return out, total, nil
}

func (s *TaxClassificationService) ensureUniqueCode(ctx context.Context, tenantID uuid.UUID, code string, self uuid.UUID) error {
	if code == "" {
		return nil
	}
	existing, err := s.repo.FindByCode(ctx, tenantID, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return shared.NewDomainError("ALREADY_EXISTS", "Tax classification code "+code+" already exists")
	}
	return nil
}
