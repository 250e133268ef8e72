package inventory

import (
	"context"
	"fmt"

	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PurchaseConfirmedHandler creates the receipt or drop-ship transfer of a confirmed purchase order
type PurchaseConfirmedHandler struct {
	pickingService *PickingService
	logger         *zap.Logger
}

// NewPurchaseConfirmedHandler creates a new PurchaseConfirmedHandler
func NewPurchaseConfirmedHandler(pickingService *PickingService, logger *zap.Logger) *PurchaseConfirmedHandler {
	return &PurchaseConfirmedHandler{
		pickingService: pickingService,
		logger:         logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseConfirmedHandler) EventTypes() []string {
	return []string{trade.EventTypePurchaseOrderConfirmed}
}

// Handle processes a PurchaseOrderConfirmedEvent
func (h *PurchaseConfirmedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*trade.PurchaseOrderConfirmedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypePurchaseOrderConfirmed, event.EventType())
	}
	if _, err := h.pickingService.CreatePurchaseReceipt(ctx, e); err != nil {
		h.logger.Error("failed to create purchase transfer",
			zap.String("order", e.OrderNumber),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*PurchaseConfirmedHandler)(nil)
