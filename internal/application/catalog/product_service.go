package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles products and their vendor price lists
type ProductService struct {
	productRepo    catalog.ProductRepository
	categoryRepo   catalog.ProductCategoryRepository
	uomRepo        catalog.UomRepository
	taxRepo        catalog.TaxRepository
	partnerRepo    partner.PartnerRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.ProductCategoryRepository,
	uomRepo catalog.UomRepository,
	taxRepo catalog.TaxRepository,
	partnerRepo partner.PartnerRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		uomRepo:      uomRepo,
		taxRepo:      taxRepo,
		partnerRepo:  partnerRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a product in an existing category
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	if req.DefaultCode != "" {
		if _, err := s.productRepo.FindByDefaultCode(ctx, tenantID, req.DefaultCode); err == nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with code "+req.DefaultCode+" already exists")
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, req.CategoryID); err != nil {
		return nil, err
	}
	uom, err := s.uomRepo.FindByIDForTenant(ctx, tenantID, req.UomID)
	if err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(tenantID, req.DefaultCode, req.Name, req.CategoryID, uom)
	if err != nil {
		return nil, err
	}
	if req.Type != "" {
		product.Type = catalog.ProductType(req.Type)
	}
	product.ListPrice = req.ListPrice
	product.DescriptionPurchase = req.DescriptionPurchase
	if req.UomPOID != nil && *req.UomPOID != uom.ID {
		uomPO, err := s.uomRepo.FindByIDForTenant(ctx, tenantID, *req.UomPOID)
		if err != nil {
			return nil, err
		}
		if err := product.SetPurchaseUom(uomPO); err != nil {
			return nil, err
		}
	}
	if product.CustomerTaxes, err = s.taxes(ctx, tenantID, req.CustomerTaxIDs); err != nil {
		return nil, err
	}
	if product.SupplierTaxes, err = s.taxes(ctx, tenantID, req.SupplierTaxIDs); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, product.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish product events", zap.String("product", product.DefaultCode), zap.Error(err))
		}
	}
	product.ClearDomainEvents()
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) taxes(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Tax, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	taxes, err := s.taxRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(taxes) != len(ids) {
		return nil, shared.NewDomainError("NOT_FOUND", "Some taxes were not found")
	}
	return taxes, nil
}

// GetByID retrieves a product
func (s *ProductService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves products with pagination
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ProductResponse, int64, error) {
	filter = filter.Normalize()
	products, err := s.productRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, total, nil
}

// AddSeller adds a vendor price. The vendor must be a company supplier.
func (s *ProductService) AddSeller(ctx context.Context, tenantID, id uuid.UUID, req AddSellerRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	vendor, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, req.PartnerID)
	if err != nil {
		return nil, err
	}
	if err := vendor.RequireCompany(); err != nil {
		return nil, err
	}
	seller, err := product.AddSeller(vendor.ID, vendor.Name, req.Price, req.MinQty, req.Delay)
	if err != nil {
		return nil, err
	}
	seller.DateStart = req.DateStart
	seller.DateEnd = req.DateEnd
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}
