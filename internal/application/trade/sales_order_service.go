package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Procurer runs the procurement rules of a confirmed order and returns the
// demand that stock could not cover
type Procurer interface {
	RunForOrder(ctx context.Context, order *trade.SalesOrder) ([]inventory.RequestDemand, error)
}

// DemandApplier turns uncovered demand into purchase requests
type DemandApplier interface {
	ApplyDemands(ctx context.Context, order *trade.SalesOrder, demands []inventory.RequestDemand) ([]trade.PurchaseRequest, error)
}

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	orderRepo      trade.SalesOrderRepository
	partnerRepo    partner.PartnerRepository
	productRepo    catalog.ProductRepository
	taxRepo        catalog.TaxRepository
	moveRepo       finance.AccountMoveRepository
	sequences      shared.SequenceGenerator
	procurer       Procurer
	demands        DemandApplier
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(
	orderRepo trade.SalesOrderRepository,
	partnerRepo partner.PartnerRepository,
	productRepo catalog.ProductRepository,
	taxRepo catalog.TaxRepository,
	moveRepo finance.AccountMoveRepository,
	sequences shared.SequenceGenerator,
	logger *zap.Logger,
) *SalesOrderService {
	return &SalesOrderService{
		orderRepo:   orderRepo,
		partnerRepo: partnerRepo,
		productRepo: productRepo,
		taxRepo:     taxRepo,
		moveRepo:    moveRepo,
		sequences:   sequences,
		tx:          shared.NoTransaction{},
		logger:      logger,
		now:         time.Now,
	}
}

// SetTransactor makes confirmation and invoicing write all their aggregates
// in one transaction
func (s *SalesOrderService) SetTransactor(tx shared.Transactor) {
	if tx != nil {
		s.tx = tx
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetProcurement wires the procurement run and the purchase request creation
// executed on confirmation
func (s *SalesOrderService) SetProcurement(procurer Procurer, demands DemandApplier) {
	s.procurer = procurer
	s.demands = demands
}

// Create creates a new quotation
func (s *SalesOrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	customer, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	number, err := s.sequences.Next(ctx, tenantID, shared.SequenceSaleOrder, s.now())
	if err != nil {
		return nil, err
	}

	order, err := trade.NewSalesOrder(tenantID, number, customer)
	if err != nil {
		return nil, err
	}

	if req.ShippingAddressID != nil && *req.ShippingAddressID != customer.ID {
		addr, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, *req.ShippingAddressID)
		if err != nil {
			return nil, err
		}
		if err := order.SetShippingAddress(addr); err != nil {
			return nil, err
		}
	}
	order.SetOuterName(req.OuterName)
	if req.IsDropshipping {
		if err := order.SetDropshipping(true); err != nil {
			return nil, err
		}
	}
	order.Note = req.Note

	for _, in := range req.Lines {
		product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, in.ProductID)
		if err != nil {
			return nil, err
		}
		taxes := product.CustomerTaxes
		if len(in.TaxIDs) > 0 {
			if taxes, err = s.taxRepo.FindByIDs(ctx, tenantID, in.TaxIDs); err != nil {
				return nil, err
			}
		}
		price := in.PriceUnit
		if price.IsZero() {
			price = product.ListPrice
		}
		if _, err := order.AddLine(product, in.Quantity, price, taxes); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a sales order by ID
func (s *SalesOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// List retrieves sales orders with filtering and pagination
func (s *SalesOrderService) List(ctx context.Context, tenantID uuid.UUID, f SalesOrderListFilter) ([]SalesOrderResponse, int64, error) {
	filter := trade.SalesOrderFilter{
		Filter:     shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize(),
		CustomerID: f.CustomerID,
	}
	if f.State != "" {
		st := trade.OrderState(f.State)
		filter.State = &st
	}
	if f.InvoiceState != "" {
		st := trade.InvoiceState(f.InvoiceState)
		filter.InvoiceState = &st
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToSalesOrderResponse(&orders[i])
	}
	return out, total, nil
}

// Confirm confirms the quotation and runs procurement. Any procurement
// failure aborts the confirmation.
func (s *SalesOrderService) Confirm(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}

	var requests []trade.PurchaseRequest
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if s.procurer != nil {
			demands, err := s.procurer.RunForOrder(ctx, order)
			if err != nil {
				return err
			}
			if len(demands) > 0 && s.demands != nil {
				if requests, err = s.demands.ApplyDemands(ctx, order, demands); err != nil {
					return err
				}
			}
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, order)
	for i := range requests {
		s.publishRequest(ctx, &requests[i])
	}

	s.logger.Info("sales order confirmed",
		zap.String("order", order.OrderNumber),
		zap.Bool("dropship", order.IsDropshipping),
	)
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// Cancel cancels a sales order
func (s *SalesOrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// ActionToInvoice queues the posted invoices of the selected orders for paper
// invoicing. Orders that are not confirmed or not pending are skipped.
func (s *SalesOrderService) ActionToInvoice(ctx context.Context, tenantID uuid.UUID, req ActionToInvoiceRequest) (*ActionToInvoiceResponse, error) {
	resp := &ActionToInvoiceResponse{
		Updated: make([]uuid.UUID, 0, len(req.OrderIDs)),
		Skipped: make([]uuid.UUID, 0),
	}
	orders, err := s.orderRepo.FindByIDs(ctx, tenantID, req.OrderIDs)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		order := &orders[i]
		if !order.CanActionToInvoice() {
			resp.Skipped = append(resp.Skipped, order.ID)
			continue
		}
		moves, err := s.moveRepo.FindBySaleOrder(ctx, tenantID, order.ID)
		if err != nil {
			return nil, err
		}
		ptrs := make([]*finance.AccountMove, len(moves))
		for j := range moves {
			ptrs[j] = &moves[j]
		}
		changed, err := order.ActionToInvoice(ptrs)
		if err != nil {
			return nil, err
		}
		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			for _, m := range changed {
				if err := s.moveRepo.SaveWithLock(ctx, m); err != nil {
					return err
				}
			}
			return s.orderRepo.SaveWithLock(ctx, order)
		})
		if err != nil {
			return nil, err
		}
		for _, m := range changed {
			s.publishMove(ctx, m)
		}
		s.publish(ctx, order)
		resp.Updated = append(resp.Updated, order.ID)
	}
	return resp, nil
}

// CreateInvoice drafts the customer invoice of the quantities left to invoice
func (s *SalesOrderService) CreateInvoice(ctx context.Context, tenantID, orderID uuid.UUID) (*InvoiceCreatedResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	inv, err := order.CreateInvoice()
	if err != nil {
		return nil, err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.moveRepo.Save(ctx, inv); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publishMove(ctx, inv)
	return toInvoiceCreatedResponse(inv), nil
}

// RefreshInvoiceState recomputes invoice_state of an order from its invoices
func (s *SalesOrderService) RefreshInvoiceState(ctx context.Context, tenantID, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	moves, err := s.moveRepo.FindBySaleOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if !order.RefreshFromInvoices(moves) {
		return nil
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return err
	}
	s.publish(ctx, order)
	return nil
}

// RegisterDeliveries updates delivered quantities from a validated transfer.
// Deliveries and drop-ship transfers add to the sale lines, customer returns
// subtract from them and purchase receipts are ignored.
func (s *SalesOrderService) RegisterDeliveries(ctx context.Context, e *inventory.PickingDoneEvent) error {
	tenantID := e.TenantID()
	qtyByLine := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range e.Moves {
		if m.SaleLineID == nil {
			continue
		}
		switch {
		case m.SaleReturnLineID != nil:
			qtyByLine[*m.SaleLineID] = qtyByLine[*m.SaleLineID].Sub(m.Quantity)
		case e.Code == inventory.PickingTypeOutgoing || e.Code == inventory.PickingTypeDropship:
			qtyByLine[*m.SaleLineID] = qtyByLine[*m.SaleLineID].Add(m.Quantity)
		}
	}
	if len(qtyByLine) == 0 {
		return nil
	}

	lineIDs := make([]uuid.UUID, 0, len(qtyByLine))
	for id := range qtyByLine {
		lineIDs = append(lineIDs, id)
	}
	orders, err := s.orderRepo.FindByLineIDs(ctx, tenantID, lineIDs)
	if err != nil {
		return err
	}
	for i := range orders {
		order := &orders[i]
		for _, l := range order.Lines {
			if qty, ok := qtyByLine[l.ID]; ok && !qty.IsZero() {
				if err := order.RegisterDelivery(l.ID, qty); err != nil {
					return err
				}
			}
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
	}
	s.logger.Info("deliveries registered",
		zap.String("picking", e.Name),
		zap.Int("orders", len(orders)),
	)
	return nil
}

func (s *SalesOrderService) publish(ctx context.Context, order *trade.SalesOrder) {
	if s.eventPublisher != nil && len(order.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish sales order events",
				zap.String("order", order.OrderNumber),
				zap.Error(err),
			)
		}
	}
	order.ClearDomainEvents()
}

func (s *SalesOrderService) publishRequest(ctx context.Context, r *trade.PurchaseRequest) {
	if s.eventPublisher != nil && len(r.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, r.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish purchase request events", zap.String("request", r.Name), zap.Error(err))
		}
	}
	r.ClearDomainEvents()
}

func (s *SalesOrderService) publishMove(ctx context.Context, m *finance.AccountMove) {
	if s.eventPublisher != nil && len(m.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, m.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish move events", zap.String("move", m.Name), zap.Error(err))
		}
	}
	m.ClearDomainEvents()
}
