package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// ProcurementService runs the purchase request rule for confirmed sales orders
type ProcurementService struct {
	productRepo     catalog.ProductRepository
	uomRepo         catalog.UomRepository
	companyRepo     partner.CompanyRepository
	locationRepo    inventory.LocationRepository
	ruleRepo        inventory.StockRuleRepository
	quantRepo       inventory.StockQuantRepository
	pickingTypeRepo inventory.PickingTypeRepository
	pickingRepo     inventory.PickingRepository
	sequences       shared.SequenceGenerator
	logger          *zap.Logger
	now             func() time.Time
}

// NewProcurementService creates a new ProcurementService
func NewProcurementService(
	productRepo catalog.ProductRepository,
	uomRepo catalog.UomRepository,
	companyRepo partner.CompanyRepository,
	locationRepo inventory.LocationRepository,
	ruleRepo inventory.StockRuleRepository,
	quantRepo inventory.StockQuantRepository,
	pickingTypeRepo inventory.PickingTypeRepository,
	pickingRepo inventory.PickingRepository,
	sequences shared.SequenceGenerator,
	logger *zap.Logger,
) *ProcurementService {
	return &ProcurementService{
		productRepo:     productRepo,
		uomRepo:         uomRepo,
		companyRepo:     companyRepo,
		locationRepo:    locationRepo,
		ruleRepo:        ruleRepo,
		quantRepo:       quantRepo,
		pickingTypeRepo: pickingTypeRepo,
		pickingRepo:     pickingRepo,
		sequences:       sequences,
		logger:          logger,
		now:             time.Now,
	}
}

// RunForOrder procures every stockable line of a confirmed order. Covered
// quantities are put on a delivery; the returned demands still need buying.
func (s *ProcurementService) RunForOrder(ctx context.Context, order *trade.SalesOrder) ([]inventory.RequestDemand, error) {
	tenantID := order.TenantID
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	customers, err := s.locationRepo.FindFirstByKind(ctx, tenantID, inventory.LocationKindCustomer)
	if err != nil {
		return nil, fmt.Errorf("load customer location: %w", err)
	}
	rule, err := s.ruleRepo.FindByRoute(ctx, tenantID, inventory.RoutePurchaseRequest, customers.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NO_RULE", "No purchase request rule found for company "+company.Name)
		}
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(order.Lines))
	for _, l := range order.Lines {
		if l.IsStorable() {
			productIDs = append(productIDs, l.ProductID)
		}
	}
	if len(productIDs) == 0 {
		return nil, nil
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	onHand := inventory.OnHand{}
	var quants []inventory.StockQuant
	if rule.LocationSrcID != nil && !order.IsDropshipping {
		quants, err = s.quantRepo.FindByLocation(ctx, tenantID, *rule.LocationSrcID, productIDs)
		if err != nil {
			return nil, err
		}
		onHand = inventory.NewOnHand(quants)
	}

	group := inventory.NewProcurementGroup(tenantID, order.OrderNumber, order.ID, order.ShippingAddressID, order.IsDropshipping)
	if err := s.pickingRepo.SaveGroup(ctx, group); err != nil {
		return nil, err
	}

	procs := make([]inventory.Procurement, 0, len(productIDs))
	for i := range order.Lines {
		l := &order.Lines[i]
		if !l.IsStorable() {
			continue
		}
		product, ok := byID[l.ProductID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product of line "+l.Name+" not found")
		}
		uom, err := s.lineUom(ctx, tenantID, l, product)
		if err != nil {
			return nil, err
		}
		lineID, orderID, shipTo, groupID := l.ID, order.ID, order.ShippingAddressID, group.ID
		procs = append(procs, inventory.Procurement{
			Product:        product,
			Quantity:       l.Quantity,
			Uom:            uom,
			LocationID:     customers.ID,
			Name:           l.Name,
			Origin:         order.OrderNumber,
			DatePlanned:    s.now(),
			SaleLineID:     &lineID,
			SaleOrderID:    &orderID,
			PartnerID:      &shipTo,
			IsDropshipping: order.IsDropshipping,
			GroupID:        &groupID,
		})
	}

	res, err := inventory.Run(procs, rule, onHand, company.POLead)
	if err != nil {
		return nil, err
	}

	if len(res.Moves) > 0 {
		if err := s.createDelivery(ctx, order, rule, group, res.Moves, quants); err != nil {
			return nil, err
		}
	}

	s.logger.Info("procurement run",
		zap.String("order_number", order.OrderNumber),
		zap.Int("moves", len(res.Moves)),
		zap.Int("requests", len(res.Requests)),
	)
	return res.Requests, nil
}

func (s *ProcurementService) lineUom(ctx context.Context, tenantID uuid.UUID, l *trade.SalesOrderLine, p *catalog.Product) (*catalog.UnitOfMeasure, error) {
	if p.Uom != nil && p.Uom.ID == l.UomID {
		return p.Uom, nil
	}
	return s.uomRepo.FindByIDForTenant(ctx, tenantID, l.UomID)
}

// createDelivery puts the covered moves on a delivery and reserves their
// quantity on the source quants, so later runs no longer count it as available
func (s *ProcurementService) createDelivery(ctx context.Context, order *trade.SalesOrder, rule *inventory.StockRule, group *inventory.ProcurementGroup, moves []inventory.StockMove, quants []inventory.StockQuant) error {
	var (
		pt  *inventory.PickingType
		err error
	)
	if rule.PickingTypeID != nil {
		pt, err = s.pickingTypeRepo.FindByID(ctx, order.TenantID, *rule.PickingTypeID)
	} else {
		pt, err = s.pickingTypeRepo.FindByCode(ctx, order.TenantID, inventory.PickingTypeOutgoing)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("no delivery type, stock moves not created",
				zap.String("order_number", order.OrderNumber))
			return nil
		}
		return err
	}

	name, err := s.sequences.Next(ctx, order.TenantID, pt.SequenceRef, s.now())
	if err != nil {
		return err
	}
	shipTo := order.ShippingAddressID
	picking, err := inventory.NewPicking(name, pt, *rule.LocationSrcID, rule.LocationID, &shipTo, order.OrderNumber)
	if err != nil {
		return err
	}
	groupID := group.ID
	picking.GroupID = &groupID
	for _, m := range moves {
		if err := picking.AddMove(m); err != nil {
			return err
		}
	}
	if err := picking.Confirm(); err != nil {
		return err
	}
	if err := s.reserve(ctx, moves, quants); err != nil {
		return err
	}
	if err := picking.Assign(); err != nil {
		return err
	}
	return s.pickingRepo.Save(ctx, picking)
}

func (s *ProcurementService) reserve(ctx context.Context, moves []inventory.StockMove, quants []inventory.StockQuant) error {
	byProduct := make(map[uuid.UUID]*inventory.StockQuant, len(quants))
	for i := range quants {
		byProduct[quants[i].ProductID] = &quants[i]
	}
	touched := make([]*inventory.StockQuant, 0, len(moves))
	seen := make(map[uuid.UUID]bool, len(moves))
	for _, m := range moves {
		q, ok := byProduct[m.ProductID]
		if !ok {
			return shared.NewDomainError("INSUFFICIENT_STOCK", "No stock to reserve for move "+m.Name)
		}
		if err := q.Reserve(m.Quantity); err != nil {
			return err
		}
		if !seen[q.ProductID] {
			seen[q.ProductID] = true
			touched = append(touched, q)
		}
	}
	for _, q := range touched {
		if err := s.quantRepo.SaveWithLock(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
