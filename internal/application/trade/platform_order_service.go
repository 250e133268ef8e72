package trade

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PlatformOrderService imports and tracks e-commerce platform orders
type PlatformOrderService struct {
	orderRepo trade.PlatformOrderRepository
	logger    *zap.Logger
}

// NewPlatformOrderService creates a new PlatformOrderService
func NewPlatformOrderService(orderRepo trade.PlatformOrderRepository, logger *zap.Logger) *PlatformOrderService {
	return &PlatformOrderService{orderRepo: orderRepo, logger: logger}
}

// Import upserts the rows by order_reference. A failing row is reported and
// does not stop the others.
func (s *PlatformOrderService) Import(ctx context.Context, tenantID uuid.UUID, rows []trade.PlatformOrderRow) (*trade.ImportResult, error) {
	numbered := make([]numberedRow, len(rows))
	for i, r := range rows {
		numbered[i] = numberedRow{line: i + 1, row: r}
	}
	return s.upsert(ctx, tenantID, numbered, &trade.ImportResult{})
}

type numberedRow struct {
	line int
	row  trade.PlatformOrderRow
}

func (s *PlatformOrderService) upsert(ctx context.Context, tenantID uuid.UUID, rows []numberedRow, result *trade.ImportResult) (*trade.ImportResult, error) {
	refs := make([]string, 0, len(rows))
	for _, r := range rows {
		if ref := strings.TrimSpace(r.row.OrderReference); ref != "" {
			refs = append(refs, ref)
		}
	}
	existing, err := s.orderRepo.FindByReferences(ctx, tenantID, refs)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = make(map[string]*trade.PlatformOrder)
	}

	for _, nr := range rows {
		row := nr.row
		ref := strings.TrimSpace(row.OrderReference)
		order, found := existing[ref]
		if found {
			if err := order.Apply(row); err != nil {
				result.RecordFailure(nr.line, ref, err)
				continue
			}
		} else {
			if order, err = trade.NewPlatformOrder(tenantID, row); err != nil {
				result.RecordFailure(nr.line, ref, err)
				continue
			}
		}
		if err := s.orderRepo.Save(ctx, order); err != nil {
			result.RecordFailure(nr.line, ref, err)
			continue
		}
		// later rows with the same reference update this order
		existing[ref] = order
		if found {
			result.Updated++
		} else {
			result.Created++
		}
	}

	s.logger.Info("platform orders imported",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// GetByID retrieves a platform order
func (s *PlatformOrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PlatformOrderResponse, error) {
	o, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPlatformOrderResponse(o)
	return &resp, nil
}

// List retrieves platform orders with pagination
func (s *PlatformOrderService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PlatformOrderResponse, int64, error) {
	filter = filter.Normalize()
	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PlatformOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToPlatformOrderResponse(&orders[i])
	}
	return out, total, nil
}

// MarkWaiting queues an order for shipping
func (s *PlatformOrderService) MarkWaiting(ctx context.Context, tenantID, id uuid.UUID) (*PlatformOrderResponse, error) {
	return s.apply(ctx, tenantID, id, (*trade.PlatformOrder).MarkWaiting)
}

// MarkDone closes a shipped order
func (s *PlatformOrderService) MarkDone(ctx context.Context, tenantID, id uuid.UUID) (*PlatformOrderResponse, error) {
	return s.apply(ctx, tenantID, id, (*trade.PlatformOrder).MarkDone)
}

func (s *PlatformOrderService) apply(ctx context.Context, tenantID, id uuid.UUID, fn func(*trade.PlatformOrder) error) (*PlatformOrderResponse, error) {
	o, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	resp := ToPlatformOrderResponse(o)
	return &resp, nil
}
