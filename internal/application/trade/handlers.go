package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// InvoiceStatusHandler keeps invoice_state of sales orders and payment_state
// of purchase orders in step with their invoices and bills
type InvoiceStatusHandler struct {
	salesService    *SalesOrderService
	purchaseService *PurchaseOrderService
	logger          *zap.Logger
}

// NewInvoiceStatusHandler creates a new InvoiceStatusHandler
func NewInvoiceStatusHandler(salesService *SalesOrderService, purchaseService *PurchaseOrderService, logger *zap.Logger) *InvoiceStatusHandler {
	return &InvoiceStatusHandler{
		salesService:    salesService,
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceStatusHandler) EventTypes() []string {
	return []string{finance.EventTypeAccountMoveStateChanged}
}

// Handle processes an AccountMoveStateChangedEvent
func (h *InvoiceStatusHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*finance.AccountMoveStateChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypeAccountMoveStateChanged, event.EventType())
	}

	if e.SaleOrderID != nil && e.MoveType.IsSale() {
		if err := h.salesService.RefreshInvoiceState(ctx, e.TenantID(), *e.SaleOrderID); err != nil {
			h.logger.Error("failed to refresh invoice state",
				zap.String("sale_order_id", e.SaleOrderID.String()),
				zap.Error(err),
			)
			return err
		}
	}
	if e.PurchaseOrderID != nil && e.MoveType.IsPurchase() {
		if err := h.purchaseService.RefreshPaymentState(ctx, e.TenantID(), *e.PurchaseOrderID); err != nil {
			h.logger.Error("failed to refresh payment state",
				zap.String("purchase_order_id", e.PurchaseOrderID.String()),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// RequestSyncHandler recomputes the purchased quantity of purchase requests
// whenever one of their purchase orders is confirmed, cancelled or reopened
type RequestSyncHandler struct {
	requestService *PurchaseRequestService
	logger         *zap.Logger
}

// NewRequestSyncHandler creates a new RequestSyncHandler
func NewRequestSyncHandler(requestService *PurchaseRequestService, logger *zap.Logger) *RequestSyncHandler {
	return &RequestSyncHandler{requestService: requestService, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *RequestSyncHandler) EventTypes() []string {
	return []string{
		trade.EventTypePurchaseOrderConfirmed,
		trade.EventTypePurchaseOrderCancelled,
		trade.EventTypePurchaseOrderReopened,
	}
}

// Handle processes the purchase order lifecycle events
func (h *RequestSyncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var orderNumber string
	var requestIDs []uuid.UUID
	switch e := event.(type) {
	case *trade.PurchaseOrderConfirmedEvent:
		orderNumber, requestIDs = e.OrderNumber, e.RequestIDs
	case *trade.PurchaseOrderCancelledEvent:
		orderNumber, requestIDs = e.OrderNumber, e.RequestIDs
	case *trade.PurchaseOrderReopenedEvent:
		requestIDs = e.RequestIDs
	default:
		return fmt.Errorf("unexpected event type: expected purchase order lifecycle event, got %s", event.EventType())
	}
	if len(requestIDs) == 0 {
		return nil
	}
	if err := h.requestService.RecomputeRequests(ctx, event.TenantID(), requestIDs); err != nil {
		h.logger.Error("failed to recompute purchase requests",
			zap.String("order", orderNumber),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// DeliveryHandler books delivered quantities on sale lines when transfers are validated
type DeliveryHandler struct {
	salesService *SalesOrderService
	logger       *zap.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(salesService *SalesOrderService, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{salesService: salesService, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *DeliveryHandler) EventTypes() []string {
	return []string{inventory.EventTypePickingDone}
}

// Handle processes a PickingDoneEvent
func (h *DeliveryHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.PickingDoneEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypePickingDone, event.EventType())
	}
	if err := h.salesService.RegisterDeliveries(ctx, e); err != nil {
		h.logger.Error("failed to register deliveries", zap.String("picking", e.Name), zap.Error(err))
		return err
	}
	return nil
}

var (
	_ shared.EventHandler = (*InvoiceStatusHandler)(nil)
	_ shared.EventHandler = (*RequestSyncHandler)(nil)
	_ shared.EventHandler = (*DeliveryHandler)(nil)
)
