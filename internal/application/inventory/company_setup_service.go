package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CompanySetupService provisions the dropship and purchase request records of companies
type CompanySetupService struct {
	companyRepo     partner.CompanyRepository
	locationRepo    inventory.LocationRepository
	pickingTypeRepo inventory.PickingTypeRepository
	ruleRepo        inventory.StockRuleRepository
	sequences       shared.SequenceGenerator
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewCompanySetupService creates a new CompanySetupService
func NewCompanySetupService(
	companyRepo partner.CompanyRepository,
	locationRepo inventory.LocationRepository,
	pickingTypeRepo inventory.PickingTypeRepository,
	ruleRepo inventory.StockRuleRepository,
	sequences shared.SequenceGenerator,
	logger *zap.Logger,
) *CompanySetupService {
	return &CompanySetupService{
		companyRepo:     companyRepo,
		locationRepo:    locationRepo,
		pickingTypeRepo: pickingTypeRepo,
		ruleRepo:        ruleRepo,
		sequences:       sequences,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CompanySetupService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// EnsureCompanySetup creates whichever of the dropship sequence, the Dropship
// picking type and the purchase request rule the company lacks
func (s *CompanySetupService) EnsureCompanySetup(ctx context.Context, companyID uuid.UUID) (*CompanySetupResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.setup(ctx, company)
}

// CreateMissing runs the setup for every company missing a record
func (s *CompanySetupService) CreateMissing(ctx context.Context) ([]CompanySetupResponse, error) {
	companies, err := s.companyRepo.FindNeedingSetup(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CompanySetupResponse, 0, len(companies))
	for i := range companies {
		resp, err := s.setup(ctx, &companies[i])
		if err != nil {
			return out, fmt.Errorf("setup company %s: %w", companies[i].Name, err)
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *CompanySetupService) setup(ctx context.Context, company *partner.Company) (*CompanySetupResponse, error) {
	tenantID := company.TenantID()

	existing, err := s.existing(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	locs, err := s.locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	plan, err := inventory.PlanCompanySetup(company, locs, existing)
	if err != nil {
		return nil, err
	}

	if plan.Sequence != nil {
		if err := s.sequences.Create(ctx, plan.Sequence); err != nil {
			return nil, fmt.Errorf("create dropship sequence: %w", err)
		}
	}
	if plan.PickingType != nil {
		if err := s.pickingTypeRepo.Save(ctx, plan.PickingType); err != nil {
			return nil, fmt.Errorf("create dropship picking type: %w", err)
		}
	}
	if plan.Rule != nil {
		if err := s.ruleRepo.Save(ctx, plan.Rule); err != nil {
			return nil, fmt.Errorf("create purchase request rule: %w", err)
		}
	}

	company.MarkProvisioned(true, true, true)
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return nil, err
	}

	if !plan.Empty() {
		s.logger.Info("company setup provisioned",
			zap.String("company", company.Name),
			zap.Bool("sequence", plan.Sequence != nil),
			zap.Bool("picking_type", plan.PickingType != nil),
			zap.Bool("rule", plan.Rule != nil),
		)
		if s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, inventory.NewCompanySetupCompleteEvent(company.ID, plan)); err != nil {
				s.logger.Error("failed to publish setup event", zap.Error(err))
			}
		}
	}

	return &CompanySetupResponse{
		CompanyID:          company.ID,
		CreatedSequence:    plan.Sequence != nil,
		CreatedPickingType: plan.PickingType != nil,
		CreatedRule:        plan.Rule != nil,
	}, nil
}

func (s *CompanySetupService) existing(ctx context.Context, tenantID uuid.UUID) (inventory.SetupExisting, error) {
	var ex inventory.SetupExisting
	var err error
	if ex.Sequence, err = s.sequences.Exists(ctx, tenantID, shared.SequenceDropshipping); err != nil {
		return ex, err
	}
	if ex.PickingType, err = s.pickingTypeRepo.ExistsByCode(ctx, tenantID, inventory.PickingTypeDropship); err != nil {
		return ex, err
	}
	if ex.Rule, err = s.ruleRepo.ExistsByRoute(ctx, tenantID, inventory.RoutePurchaseRequest); err != nil {
		return ex, err
	}
	return ex, nil
}

// locations loads the supplier, customer and stock locations, creating the
// partner locations and a default warehouse when the company has none
func (s *CompanySetupService) locations(ctx context.Context, tenantID uuid.UUID) (inventory.SetupLocations, error) {
	var locs inventory.SetupLocations
	var err error
	if locs.Suppliers, err = s.findOrCreateLocation(ctx, tenantID, "Vendors", inventory.LocationKindSupplier); err != nil {
		return locs, err
	}
	if locs.Customers, err = s.findOrCreateLocation(ctx, tenantID, "Customers", inventory.LocationKindCustomer); err != nil {
		return locs, err
	}

	wh, err := s.locationRepo.FindDefaultWarehouse(ctx, tenantID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		w, stock, err := inventory.NewWarehouse(tenantID, "WH", "Warehouse")
		if err != nil {
			return locs, err
		}
		if err := s.locationRepo.SaveWarehouse(ctx, w); err != nil {
			return locs, err
		}
		if err := s.locationRepo.Save(ctx, stock); err != nil {
			return locs, err
		}
		locs.WarehouseStock = stock
	case err != nil:
		return locs, err
	default:
		if locs.WarehouseStock, err = s.locationRepo.FindByID(ctx, tenantID, wh.LotStockID); err != nil {
			return locs, err
		}
	}

	if out, err := s.pickingTypeRepo.FindByCode(ctx, tenantID, inventory.PickingTypeOutgoing); err == nil {
		locs.DeliveryTypeID = &out.ID
	} else if !errors.Is(err, shared.ErrNotFound) {
		return locs, err
	}
	return locs, nil
}

func (s *CompanySetupService) findOrCreateLocation(ctx context.Context, tenantID uuid.UUID, name string, kind inventory.LocationKind) (*inventory.Location, error) {
	loc, err := s.locationRepo.FindFirstByKind(ctx, tenantID, kind)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	loc, err = inventory.NewLocation(tenantID, name, kind)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}
