package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MoveService handles invoices, refunds and journal entries
type MoveService struct {
	moveRepo       finance.AccountMoveRepository
	taxInvoiceRepo finance.TaxInvoiceRepository
	partnerRepo    partner.PartnerRepository
	productRepo    catalog.ProductRepository
	taxRepo        catalog.TaxRepository
	categoryRepo   catalog.ProductCategoryRepository
	taxClassRepo   catalog.TaxClassificationRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewMoveService creates a new MoveService
func NewMoveService(
	moveRepo finance.AccountMoveRepository,
	taxInvoiceRepo finance.TaxInvoiceRepository,
	partnerRepo partner.PartnerRepository,
	productRepo catalog.ProductRepository,
	taxRepo catalog.TaxRepository,
	categoryRepo catalog.ProductCategoryRepository,
	taxClassRepo catalog.TaxClassificationRepository,
	logger *zap.Logger,
) *MoveService {
	return &MoveService{
		moveRepo:       moveRepo,
		taxInvoiceRepo: taxInvoiceRepo,
		partnerRepo:    partnerRepo,
		productRepo:    productRepo,
		taxRepo:        taxRepo,
		categoryRepo:   categoryRepo,
		taxClassRepo:   taxClassRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *MoveService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create drafts a move. Invoice lines take the product name, unit and
// taxes unless given; entry lines are booked as given.
func (s *MoveService) Create(ctx context.Context, tenantID uuid.UUID, req CreateMoveRequest) (*MoveResponse, error) {
	moveType := finance.MoveType(req.MoveType)
	var partnerName string
	if req.PartnerID != nil {
		p, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, *req.PartnerID)
		if err != nil {
			return nil, err
		}
		partnerName = p.Name
	}

	move, err := finance.NewAccountMove(tenantID, moveType, req.PartnerID, partnerName)
	if err != nil {
		return nil, err
	}
	move.InvoiceDate = req.InvoiceDate
	move.InvoiceDateDue = req.InvoiceDateDue
	move.InvoiceOrigin = req.InvoiceOrigin
	move.Ref = req.Ref
	move.SaleOrderID = req.SaleOrderID
	move.PurchaseOrderID = req.PurchaseOrderID

	for _, in := range req.Lines {
		if moveType == finance.MoveTypeEntry {
			if err := move.AddEntryLine(finance.AccountKind(in.AccountKind), in.Name, in.Debit, in.Credit); err != nil {
				return nil, err
			}
			continue
		}
		line, err := s.invoiceLine(ctx, tenantID, moveType, in)
		if err != nil {
			return nil, err
		}
		if _, err := move.AddInvoiceLine(line); err != nil {
			return nil, err
		}
	}

	if err := s.moveRepo.Save(ctx, move); err != nil {
		return nil, err
	}
	s.publish(ctx, move)
	resp := ToMoveResponse(move)
	return &resp, nil
}

func (s *MoveService) invoiceLine(ctx context.Context, tenantID uuid.UUID, moveType finance.MoveType, in CreateMoveLineInput) (finance.InvoiceLineInput, error) {
	line := finance.InvoiceLineInput{
		ProductID:  in.ProductID,
		Name:       in.Name,
		Quantity:   in.Quantity,
		PriceUnit:  in.PriceUnit,
		SaleLineID: in.SaleLineID,
	}
	if in.ProductID != nil {
		product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, *in.ProductID)
		if err != nil {
			return line, err
		}
		if line.Name == "" {
			line.Name = product.DisplayName()
		}
		if product.Uom != nil {
			line.UomName = product.Uom.Name
		}
		if moveType.IsSale() {
			line.Taxes = product.CustomerTaxes
		} else {
			line.Taxes = product.SupplierTaxes
		}
	}
	if len(in.TaxIDs) > 0 {
		taxes, err := s.taxRepo.FindByIDs(ctx, tenantID, in.TaxIDs)
		if err != nil {
			return line, err
		}
		line.Taxes = taxes
	}
	return line, nil
}

// GetByID retrieves a move
func (s *MoveService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*MoveResponse, error) {
	move, err := s.moveRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToMoveResponse(move)
	return &resp, nil
}

// List retrieves moves with filtering and pagination
func (s *MoveService) List(ctx context.Context, tenantID uuid.UUID, f MoveListFilter) ([]MoveResponse, int64, error) {
	filter := finance.MoveFilter{
		Filter:          shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize(),
		PartnerID:       f.PartnerID,
		SaleOrderID:     f.SaleOrderID,
		PurchaseOrderID: f.PurchaseOrderID,
		DateFrom:        f.DateFrom,
		DateTo:          f.DateTo,
	}
	if f.MoveType != "" {
		mt := finance.MoveType(f.MoveType)
		filter.MoveType = &mt
	}
	if f.State != "" {
		st := finance.MoveState(f.State)
		filter.State = &st
	}
	moves, err := s.moveRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.moveRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MoveResponse, len(moves))
	for i := range moves {
		out[i] = ToMoveResponse(&moves[i])
	}
	return out, total, nil
}

// Post books a draft move under the next number of its journal
func (s *MoveService) Post(ctx context.Context, tenantID, id uuid.UUID) (*MoveResponse, error) {
	move, err := s.moveRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := now
	if move.InvoiceDate != nil {
		date = *move.InvoiceDate
	}
	name, err := s.moveRepo.NextName(ctx, tenantID, move.MoveType, date)
	if err != nil {
		return nil, err
	}
	if err := move.Post(name, now); err != nil {
		return nil, err
	}
	if err := s.moveRepo.SaveWithLock(ctx, move); err != nil {
		return nil, err
	}
	s.publish(ctx, move)
	s.logger.Info("move posted",
		zap.String("move", move.Name),
		zap.String("type", string(move.MoveType)),
		zap.String("amount_total", move.AmountTotal.String()),
	)
	resp := ToMoveResponse(move)
	return &resp, nil
}

// Cancel cancels a draft or posted move without payments
func (s *MoveService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*MoveResponse, error) {
	return s.apply(ctx, tenantID, id, func(m *finance.AccountMove) error {
		return m.SetState(finance.MoveStateCancel)
	})
}

// ResetToDraft reopens a cancelled move
func (s *MoveService) ResetToDraft(ctx context.Context, tenantID, id uuid.UUID) (*MoveResponse, error) {
	return s.apply(ctx, tenantID, id, func(m *finance.AccountMove) error {
		return m.SetState(finance.MoveStateDraft)
	})
}

// SetState moves every selected invoice to the target state. A move that
// cannot make the step is reported and does not stop the others.
func (s *MoveService) SetState(ctx context.Context, tenantID uuid.UUID, req SetStateRequest) (*SetStateResponse, error) {
	target := finance.MoveState(req.State)
	return s.bulk(ctx, tenantID, req.MoveIDs, func(m *finance.AccountMove) error {
		return m.SetState(target)
	})
}

// SetState2 records the delivery state of every selected invoice, writing it
// through to state once the invoice is in the delivery workflow
func (s *MoveService) SetState2(ctx context.Context, tenantID uuid.UUID, req SetStateRequest) (*SetStateResponse, error) {
	value := finance.MoveState(req.State)
	return s.bulk(ctx, tenantID, req.MoveIDs, func(m *finance.AccountMove) error {
		return m.SetState2(value)
	})
}

// AttachTaxInvoices links paper tax invoices to a move
func (s *MoveService) AttachTaxInvoices(ctx context.Context, tenantID, id uuid.UUID, req AttachTaxInvoicesRequest) (*MoveResponse, error) {
	invoices, err := s.taxInvoiceRepo.FindByIDs(ctx, tenantID, req.TaxInvoiceIDs)
	if err != nil {
		return nil, err
	}
	if len(invoices) != len(req.TaxInvoiceIDs) {
		return nil, shared.NewDomainError("NOT_FOUND", "Some tax invoices were not found")
	}
	return s.apply(ctx, tenantID, id, func(m *finance.AccountMove) error {
		for i := range invoices {
			if err := m.AttachTaxInvoice(&invoices[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *MoveService) apply(ctx context.Context, tenantID, id uuid.UUID, fn func(*finance.AccountMove) error) (*MoveResponse, error) {
	move, err := s.moveRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(move); err != nil {
		return nil, err
	}
	if err := s.moveRepo.SaveWithLock(ctx, move); err != nil {
		return nil, err
	}
	s.publish(ctx, move)
	resp := ToMoveResponse(move)
	return &resp, nil
}

func (s *MoveService) bulk(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, fn func(*finance.AccountMove) error) (*SetStateResponse, error) {
	moves, err := s.moveRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	resp := &SetStateResponse{Updated: make([]uuid.UUID, 0, len(moves))}
	fail := func(m *finance.AccountMove, err error) {
		if resp.Failed == nil {
			resp.Failed = make(map[string]string)
		}
		resp.Failed[m.ID.String()] = err.Error()
	}
	for i := range moves {
		m := &moves[i]
		if err := fn(m); err != nil {
			fail(m, err)
			continue
		}
		if err := s.moveRepo.SaveWithLock(ctx, m); err != nil {
			fail(m, err)
			continue
		}
		s.publish(ctx, m)
		resp.Updated = append(resp.Updated, m.ID)
	}
	return resp, nil
}

func (s *MoveService) publish(ctx context.Context, m *finance.AccountMove) {
	if s.eventPublisher != nil && len(m.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, m.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish move events", zap.String("move", m.Name), zap.Error(err))
		}
	}
	m.ClearDomainEvents()
}
