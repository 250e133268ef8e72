package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RMAService handles return authorizations of sales orders
type RMAService struct {
	rmaRepo        trade.RMARepository
	orderRepo      trade.SalesOrderRepository
	productRepo    catalog.ProductRepository
	sequences      shared.SequenceGenerator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewRMAService creates a new RMAService
func NewRMAService(
	rmaRepo trade.RMARepository,
	orderRepo trade.SalesOrderRepository,
	productRepo catalog.ProductRepository,
	sequences shared.SequenceGenerator,
	logger *zap.Logger,
) *RMAService {
	return &RMAService{
		rmaRepo:     rmaRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		sequences:   sequences,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *RMAService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a draft RMA on a confirmed sales order
func (s *RMAService) Create(ctx context.Context, tenantID uuid.UUID, req CreateRMARequest) (*RMAResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, req.SaleOrderID)
	if err != nil {
		return nil, err
	}
	name, err := s.sequences.Next(ctx, tenantID, shared.SequenceRMA, s.now())
	if err != nil {
		return nil, err
	}
	rma, err := trade.NewRMA(name, trade.RMAType(req.RMAType), order)
	if err != nil {
		return nil, err
	}
	rma.Comment = req.Comment
	if err := s.rmaRepo.Save(ctx, rma); err != nil {
		return nil, err
	}
	resp := ToRMAResponse(rma)
	return &resp, nil
}

// GetByID retrieves an RMA
func (s *RMAService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*RMAResponse, error) {
	rma, err := s.rmaRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRMAResponse(rma)
	return &resp, nil
}

// List retrieves RMAs with pagination
func (s *RMAService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]RMAResponse, int64, error) {
	filter = filter.Normalize()
	rmas, err := s.rmaRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.rmaRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]RMAResponse, len(rmas))
	for i := range rmas {
		out[i] = ToRMAResponse(&rmas[i])
	}
	return out, total, nil
}

// ListBySaleOrder returns the RMAs opened on a sales order
func (s *RMAService) ListBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]RMAResponse, error) {
	rmas, err := s.rmaRepo.FindBySaleOrder(ctx, tenantID, saleOrderID)
	if err != nil {
		return nil, err
	}
	out := make([]RMAResponse, len(rmas))
	for i := range rmas {
		out[i] = ToRMAResponse(&rmas[i])
	}
	return out, nil
}

// AddReturnLine returns part of a sold line
func (s *RMAService) AddReturnLine(ctx context.Context, tenantID, id uuid.UUID, req AddReturnLineRequest) (*RMAResponse, error) {
	return s.withOrder(ctx, tenantID, id, func(rma *trade.RMA, order *trade.SalesOrder, elsewhere map[uuid.UUID]decimal.Decimal) error {
		_, err := rma.AddReturnLine(order, elsewhere, req.SaleLineID, req.Quantity)
		return err
	})
}

// UpdateReturnLine changes the quantity of a return line
func (s *RMAService) UpdateReturnLine(ctx context.Context, tenantID, id, lineID uuid.UUID, req UpdateReturnLineRequest) (*RMAResponse, error) {
	return s.withOrder(ctx, tenantID, id, func(rma *trade.RMA, order *trade.SalesOrder, elsewhere map[uuid.UUID]decimal.Decimal) error {
		return rma.UpdateReturnQuantity(order, elsewhere, lineID, req.Quantity)
	})
}

// AddExchangeLine adds a replacement product, priced at list price unless given
func (s *RMAService) AddExchangeLine(ctx context.Context, tenantID, id uuid.UUID, req AddExchangeLineRequest) (*RMAResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}
	price := product.ListPrice
	if req.PriceUnit != nil {
		price = *req.PriceUnit
	}
	return s.apply(ctx, tenantID, id, func(rma *trade.RMA) error {
		_, err := rma.AddExchangeLine(product.ID, product.DisplayName(), req.Quantity, product.UomID, price)
		return err
	})
}

// RemoveLine drops a return or exchange line
func (s *RMAService) RemoveLine(ctx context.Context, tenantID, id, lineID uuid.UUID) (*RMAResponse, error) {
	return s.apply(ctx, tenantID, id, func(rma *trade.RMA) error {
		return rma.RemoveLine(lineID)
	})
}

// Post submits the RMA
func (s *RMAService) Post(ctx context.Context, tenantID, id uuid.UUID) (*RMAResponse, error) {
	return s.apply(ctx, tenantID, id, (*trade.RMA).Post)
}

// Done closes the RMA; return RMAs book their return picking
func (s *RMAService) Done(ctx context.Context, tenantID, id uuid.UUID) (*RMAResponse, error) {
	return s.apply(ctx, tenantID, id, (*trade.RMA).Done)
}

// Cancel cancels a draft or posted RMA
func (s *RMAService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*RMAResponse, error) {
	return s.apply(ctx, tenantID, id, (*trade.RMA).Cancel)
}

// ResetToDraft reopens a cancelled RMA unless later RMAs returned its goods
func (s *RMAService) ResetToDraft(ctx context.Context, tenantID, id uuid.UUID) (*RMAResponse, error) {
	return s.withOrder(ctx, tenantID, id, func(rma *trade.RMA, order *trade.SalesOrder, elsewhere map[uuid.UUID]decimal.Decimal) error {
		if err := rma.ResetToDraft(); err != nil {
			return err
		}
		return rma.CheckReturnCap(order, elsewhere)
	})
}

// withOrder loads the sales order of the RMA and what its other RMAs already return
func (s *RMAService) withOrder(ctx context.Context, tenantID, id uuid.UUID, fn func(*trade.RMA, *trade.SalesOrder, map[uuid.UUID]decimal.Decimal) error) (*RMAResponse, error) {
	return s.apply(ctx, tenantID, id, func(rma *trade.RMA) error {
		order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, rma.SaleOrderID)
		if err != nil {
			return err
		}
		siblings, err := s.rmaRepo.FindBySaleOrder(ctx, tenantID, rma.SaleOrderID)
		if err != nil {
			return err
		}
		return fn(rma, order, trade.ReturnedBySaleLine(siblings, rma.ID))
	})
}

func (s *RMAService) apply(ctx context.Context, tenantID, id uuid.UUID, fn func(*trade.RMA) error) (*RMAResponse, error) {
	rma, err := s.rmaRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rma); err != nil {
		return nil, err
	}
	if err := s.rmaRepo.Save(ctx, rma); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil && len(rma.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, rma.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish RMA events", zap.String("rma", rma.Name), zap.Error(err))
		}
	}
	rma.ClearDomainEvents()
	resp := ToRMAResponse(rma)
	return &resp, nil
}
