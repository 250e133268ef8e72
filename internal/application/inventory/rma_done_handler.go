package inventory

import (
	"context"
	"fmt"

	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// RMADoneHandler creates the return picking when a return RMA is done
type RMADoneHandler struct {
	pickingService *PickingService
	logger         *zap.Logger
}

// NewRMADoneHandler creates a new RMADoneHandler
func NewRMADoneHandler(pickingService *PickingService, logger *zap.Logger) *RMADoneHandler {
	return &RMADoneHandler{
		pickingService: pickingService,
		logger:         logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *RMADoneHandler) EventTypes() []string {
	return []string{trade.EventTypeRMAStateChanged}
}

// Handle books return moves for done return RMAs and ignores every other transition
func (h *RMADoneHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*trade.RMAStateChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeRMAStateChanged, event.EventType())
	}
	if e.NewState != trade.RMAStateDone || e.RMAType != trade.RMATypeReturn {
		return nil
	}

	if _, err := h.pickingService.CreateReturnPicking(ctx, e.TenantID(), e.Name, e.PartnerID, e.ReturnLines); err != nil {
		h.logger.Error("failed to create return picking",
			zap.String("rma", e.Name),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*RMADoneHandler)(nil)
