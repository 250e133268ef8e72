package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PickingService handles transfers and the quants they move
type PickingService struct {
	pickingRepo     inventory.PickingRepository
	pickingTypeRepo inventory.PickingTypeRepository
	locationRepo    inventory.LocationRepository
	quantRepo       inventory.StockQuantRepository
	sequences       shared.SequenceGenerator
	tx              shared.Transactor
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewPickingService creates a new PickingService
func NewPickingService(
	pickingRepo inventory.PickingRepository,
	pickingTypeRepo inventory.PickingTypeRepository,
	locationRepo inventory.LocationRepository,
	quantRepo inventory.StockQuantRepository,
	sequences shared.SequenceGenerator,
	logger *zap.Logger,
) *PickingService {
	return &PickingService{
		pickingRepo:     pickingRepo,
		pickingTypeRepo: pickingTypeRepo,
		locationRepo:    locationRepo,
		quantRepo:       quantRepo,
		sequences:       sequences,
		tx:              shared.NoTransaction{},
		logger:          logger,
	}
}

// SetTransactor makes a transfer and its quant updates commit together
func (s *PickingService) SetTransactor(tx shared.Transactor) {
	if tx != nil {
		s.tx = tx
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PickingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a picking
func (s *PickingService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PickingResponse, error) {
	p, err := s.pickingRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPickingResponse(p)
	return &resp, nil
}

// List retrieves pickings with filtering and pagination
func (s *PickingService) List(ctx context.Context, tenantID uuid.UUID, f PickingListFilter) ([]PickingResponse, int64, error) {
	filter := inventory.PickingFilter{
		Filter:        shared.Filter{Page: f.Page, PageSize: f.PageSize}.Normalize(),
		PickingTypeID: f.PickingTypeID,
		Origin:        f.Origin,
		ExpressCode:   f.ExpressCode,
	}
	if f.State != "" {
		st := inventory.MoveState(f.State)
		filter.State = &st
	}
	pickings, err := s.pickingRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.pickingRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PickingResponse, len(pickings))
	for i := range pickings {
		out[i] = ToPickingResponse(&pickings[i])
	}
	return out, total, nil
}

// SetExpressCode records the courier tracking number of a transfer
func (s *PickingService) SetExpressCode(ctx context.Context, tenantID, id uuid.UUID, req SetExpressCodeRequest) (*PickingResponse, error) {
	p, err := s.pickingRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	p.SetExpressCode(req.ExpressCode)
	if err := s.pickingRepo.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPickingResponse(p)
	return &resp, nil
}

// Validate books a confirmed transfer and moves the quants of internal locations
func (s *PickingService) Validate(ctx context.Context, tenantID, id uuid.UUID) (*PickingResponse, error) {
	p, err := s.pickingRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	reserved := reservedIDs(p)
	if err := p.Validate(time.Now()); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, m := range p.Moves {
			if m.State != inventory.MoveStateDone {
				continue
			}
			if p.PickingCode == inventory.PickingTypeOutgoing || p.PickingCode == inventory.PickingTypeInternal {
				if err := s.moveQuant(ctx, tenantID, m.LocationID, m, quantOut, reserved[m.ID]); err != nil {
					return err
				}
			}
			if p.PickingCode == inventory.PickingTypeIncoming || p.PickingCode == inventory.PickingTypeInternal {
				if err := s.moveQuant(ctx, tenantID, m.LocationDestID, m, quantIn, false); err != nil {
					return err
				}
			}
		}
		return s.pickingRepo.SaveWithLock(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	resp := ToPickingResponse(p)
	return &resp, nil
}

type quantDirection int

const (
	quantOut quantDirection = iota
	quantIn
	quantUnreserve
)

func reservedIDs(p *inventory.Picking) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, m := range p.ReservedMoves() {
		out[m.ID] = true
	}
	return out
}

func (s *PickingService) moveQuant(ctx context.Context, tenantID, locationID uuid.UUID, m inventory.StockMove, dir quantDirection, reserved bool) error {
	q, err := s.quantRepo.FindOrCreate(ctx, tenantID, locationID, m.ProductID)
	if err != nil {
		return err
	}
	if reserved {
		q.Release(m.Quantity)
	}
	switch dir {
	case quantIn:
		err = q.Increase(m.Quantity)
	case quantOut:
		err = q.Decrease(m.Quantity)
	}
	if err != nil {
		return err
	}
	return s.quantRepo.SaveWithLock(ctx, q)
}

// Cancel drops a transfer that is not done and gives its reservations back
func (s *PickingService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*PickingResponse, error) {
	p, err := s.pickingRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	held := p.ReservedMoves()
	if err := p.Cancel(); err != nil {
		return nil, err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, m := range held {
			if err := s.moveQuant(ctx, tenantID, m.LocationID, m, quantUnreserve, true); err != nil {
				return err
			}
		}
		return s.pickingRepo.SaveWithLock(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPickingResponse(p)
	return &resp, nil
}

// CreateReturnPicking books the goods of a done return RMA back into the
// warehouse. It does nothing when the lines were already returned.
func (s *PickingService) CreateReturnPicking(ctx context.Context, tenantID uuid.UUID, rmaName string, partnerID uuid.UUID, lines []trade.RMAReturnLine) (*inventory.Picking, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ReturnLineID
	}
	exists, err := s.pickingRepo.ExistsForReturnLines(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	pt, err := s.pickingTypeRepo.FindByCode(ctx, tenantID, inventory.PickingTypeIncoming)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NO_PICKING_TYPE", "No receipt operation type is configured")
		}
		return nil, err
	}
	customers, err := s.locationRepo.FindFirstByKind(ctx, tenantID, inventory.LocationKindCustomer)
	if err != nil {
		return nil, err
	}
	warehouse, err := s.locationRepo.FindDefaultWarehouse(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	name, err := s.sequences.Next(ctx, tenantID, pt.SequenceRef, time.Now())
	if err != nil {
		return nil, err
	}
	picking, err := inventory.NewPicking(name, pt, customers.ID, warehouse.LotStockID, &partnerID, rmaName)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		m, err := inventory.NewReturnMove(tenantID, l.ReturnLineID, l.SaleLineID, l.ProductID, l.Quantity, l.UomID, customers.ID, warehouse.LotStockID)
		if err != nil {
			return nil, err
		}
		if err := picking.AddMove(*m); err != nil {
			return nil, err
		}
	}
	if err := picking.Confirm(); err != nil {
		return nil, err
	}
	if err := s.pickingRepo.Save(ctx, picking); err != nil {
		return nil, err
	}
	s.logger.Info("return picking created",
		zap.String("rma", rmaName),
		zap.String("picking", picking.Name),
		zap.Int("moves", len(picking.Moves)),
	)
	return picking, nil
}

// CreatePurchaseReceipt creates the transfer of a confirmed purchase order:
// supplier to warehouse stock, or supplier to customers for drop-shipping.
// A transfer already created for the order is not duplicated.
func (s *PickingService) CreatePurchaseReceipt(ctx context.Context, e *trade.PurchaseOrderConfirmedEvent) (*inventory.Picking, error) {
	tenantID := e.TenantID()
	if len(e.Lines) == 0 {
		return nil, nil
	}

	pt, err := s.receiptType(ctx, tenantID, e)
	if err != nil {
		return nil, err
	}
	filter := inventory.PickingFilter{Filter: shared.DefaultFilter(), PickingTypeID: &pt.ID, Origin: e.OrderNumber}
	if n, err := s.pickingRepo.CountForTenant(ctx, tenantID, filter); err != nil {
		return nil, err
	} else if n > 0 {
		return nil, nil
	}

	suppliers, err := s.locationRepo.FindFirstByKind(ctx, tenantID, inventory.LocationKindSupplier)
	if err != nil {
		return nil, err
	}
	var dest uuid.UUID
	partnerID := &e.VendorID
	if e.IsDropshipping {
		customers, err := s.locationRepo.FindFirstByKind(ctx, tenantID, inventory.LocationKindCustomer)
		if err != nil {
			return nil, err
		}
		dest = customers.ID
		if e.DestAddressID != nil {
			partnerID = e.DestAddressID
		}
	} else {
		warehouse, err := s.locationRepo.FindDefaultWarehouse(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		dest = warehouse.LotStockID
	}

	name, err := s.sequences.Next(ctx, tenantID, pt.SequenceRef, time.Now())
	if err != nil {
		return nil, err
	}
	picking, err := inventory.NewPicking(name, pt, suppliers.ID, dest, partnerID, e.OrderNumber)
	if err != nil {
		return nil, err
	}
	for _, l := range e.Lines {
		m, err := inventory.NewStockMove(tenantID, l.ProductID, l.Quantity, l.UomID, suppliers.ID, dest)
		if err != nil {
			return nil, err
		}
		m.Name = l.Name
		m.SaleLineID = l.SaleLineID
		if err := picking.AddMove(*m); err != nil {
			return nil, err
		}
	}
	if err := picking.Confirm(); err != nil {
		return nil, err
	}
	if err := s.pickingRepo.Save(ctx, picking); err != nil {
		return nil, err
	}
	s.logger.Info("purchase transfer created",
		zap.String("order", e.OrderNumber),
		zap.String("picking", picking.Name),
		zap.Bool("dropship", e.IsDropshipping),
	)
	return picking, nil
}

func (s *PickingService) receiptType(ctx context.Context, tenantID uuid.UUID, e *trade.PurchaseOrderConfirmedEvent) (*inventory.PickingType, error) {
	if e.PickingTypeID != nil {
		return s.pickingTypeRepo.FindByID(ctx, tenantID, *e.PickingTypeID)
	}
	code := inventory.PickingTypeIncoming
	if e.IsDropshipping {
		code = inventory.PickingTypeDropship
	}
	pt, err := s.pickingTypeRepo.FindByCode(ctx, tenantID, code)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError("NO_PICKING_TYPE", "No "+string(code)+" operation type is configured")
	}
	return pt, err
}

func (s *PickingService) publish(ctx context.Context, p *inventory.Picking) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, p.GetDomainEvents()...); err != nil {
		s.logger.Error("failed to publish picking events", zap.String("picking", p.Name), zap.Error(err))
	}
	p.ClearDomainEvents()
}
