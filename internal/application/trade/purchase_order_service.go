package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	orderRepo      trade.PurchaseOrderRepository
	moveRepo       finance.AccountMoveRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orderRepo trade.PurchaseOrderRepository, moveRepo finance.AccountMoveRepository, logger *zap.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo: orderRepo,
		moveRepo:  moveRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, f PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	filter := trade.PurchaseOrderFilter{
		Filter:         shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize(),
		VendorID:       f.VendorID,
		IsDropshipping: f.IsDropshipping,
	}
	if f.State != "" {
		st := trade.PurchaseState(f.State)
		filter.State = &st
	}
	if f.PaymentState != "" {
		st := trade.PaymentState(f.PaymentState)
		filter.PaymentState = &st
	}
	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return out, total, nil
}

// Confirm confirms an RFQ, or parks it for approval
func (s *PurchaseOrderService) Confirm(ctx context.Context, tenantID, orderID uuid.UUID, req ConfirmPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	return s.apply(ctx, tenantID, orderID, func(o *trade.PurchaseOrder) error {
		return o.Confirm(req.NeedsApproval)
	})
}

// Approve confirms an order waiting for approval
func (s *PurchaseOrderService) Approve(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.apply(ctx, tenantID, orderID, (*trade.PurchaseOrder).Approve)
}

// Cancel cancels an order; the requests it was drafted from get their quantity back
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.apply(ctx, tenantID, orderID, (*trade.PurchaseOrder).Cancel)
}

// ResetToDraft reopens a cancelled order
func (s *PurchaseOrderService) ResetToDraft(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.apply(ctx, tenantID, orderID, (*trade.PurchaseOrder).ResetToDraft)
}

func (s *PurchaseOrderService) apply(ctx context.Context, tenantID, orderID uuid.UUID, fn func(*trade.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// CreateBill drafts the vendor bill of the quantity not billed yet
func (s *PurchaseOrderService) CreateBill(ctx context.Context, tenantID, orderID uuid.UUID) (*InvoiceCreatedResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	bill, err := order.CreateBill()
	if err != nil {
		return nil, err
	}
	if err := s.moveRepo.Save(ctx, bill); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	bill.ClearDomainEvents()
	return toInvoiceCreatedResponse(bill), nil
}

// RefreshPaymentState recomputes payment_state of an order from its vendor bills
func (s *PurchaseOrderService) RefreshPaymentState(ctx context.Context, tenantID, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	bills, err := s.moveRepo.FindByPurchaseOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if !order.RefreshPaymentState(bills) {
		return nil
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return err
	}
	s.publish(ctx, order)
	return nil
}

func (s *PurchaseOrderService) publish(ctx context.Context, order *trade.PurchaseOrder) {
	if s.eventPublisher != nil && len(order.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish purchase order events",
				zap.String("order", order.OrderNumber),
				zap.Error(err),
			)
		}
	}
	order.ClearDomainEvents()
}
