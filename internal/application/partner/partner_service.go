// Package partner holds the use cases of customers, vendors and their addresses.
package partner

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PartnerService manages partners and their bank accounts
type PartnerService struct {
	repo           partner.PartnerRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(repo partner.PartnerRepository, logger *zap.Logger) *PartnerService {
	return &PartnerService{repo: repo, logger: logger}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PartnerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a partner. With a parent it becomes a contact or address
// of that company; a ref must be unique in the company.
func (s *PartnerService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePartnerRequest) (*PartnerResponse, error) {
	if ref := strings.TrimSpace(req.Ref); ref != "" {
		existing, err := s.repo.FindByRef(ctx, tenantID, ref)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Partner with reference "+ref+" already exists")
		}
	}

	p, err := s.newPartner(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	p.Ref = strings.TrimSpace(req.Ref)
	p.Vat = strings.TrimSpace(req.Vat)
	p.Phone = strings.TrimSpace(req.Phone)
	p.Email = strings.TrimSpace(req.Email)
	p.Street = strings.TrimSpace(req.Street)
	p.City = strings.TrimSpace(req.City)
	p.Country = strings.TrimSpace(req.Country)
	p.PurchaseCurrency = strings.ToUpper(req.PurchaseCurrency)
	if req.ParentID == nil {
		p.IsCustomer = req.IsCustomer
		p.IsSupplier = req.IsSupplier
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	resp := ToPartnerResponse(p)
	return &resp, nil
}

func (s *PartnerService) newPartner(ctx context.Context, tenantID uuid.UUID, req CreatePartnerRequest) (*partner.Partner, error) {
	if req.ParentID != nil {
		parent, err := s.repo.FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent partner not found")
			}
			return nil, err
		}
		addressType := partner.AddressType(req.AddressType)
		if addressType == "" {
			addressType = partner.AddressTypeContact
		}
		return partner.NewChildAddress(parent, req.Name, addressType)
	}
	if partner.CompanyType(req.CompanyType) == partner.CompanyTypePerson {
		return partner.NewPersonPartner(tenantID, req.Name)
	}
	return partner.NewCompanyPartner(tenantID, req.Name)
}

// GetByID retrieves a partner
func (s *PartnerService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PartnerResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPartnerResponse(p)
	return &resp, nil
}

// List retrieves partners with pagination
func (s *PartnerService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PartnerResponse, int64, error) {
	filter = filter.Normalize()
	items, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PartnerResponse, len(items))
	for i := range items {
		out[i] = ToPartnerResponse(&items[i])
	}
	return out, total, nil
}

// SetInvoiceFields sets the header printed on tax invoices
func (s *PartnerService) SetInvoiceFields(ctx context.Context, tenantID, id uuid.UUID, req SetInvoiceFieldsRequest) (*PartnerResponse, error) {
	return s.apply(ctx, tenantID, id, func(p *partner.Partner) error {
		p.SetInvoiceFields(req.AccountName, req.AccountAddress, req.AccountPhone)
		return nil
	})
}

// AddBankAccount attaches a bank account; account numbers are unique per partner
func (s *PartnerService) AddBankAccount(ctx context.Context, tenantID, id uuid.UUID, req AddBankAccountRequest) (*PartnerResponse, error) {
	return s.apply(ctx, tenantID, id, func(p *partner.Partner) error {
		_, err := p.AddBankAccount(req.AccNumber, req.BankName, req.TaxNumber, req.CompanyName)
		return err
	})
}

func (s *PartnerService) apply(ctx context.Context, tenantID, id uuid.UUID, fn func(*partner.Partner) error) (*PartnerResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPartnerResponse(p)
	return &resp, nil
}

func (s *PartnerService) publish(ctx context.Context, p *partner.Partner) {
	if s.eventPublisher != nil && len(p.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, p.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish partner events", zap.Stringer("partner_id", p.ID), zap.Error(err))
		}
	}
	p.ClearDomainEvents()
}
