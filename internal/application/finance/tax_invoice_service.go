package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TaxInvoiceService records paper tax invoices and links them to moves
type TaxInvoiceService struct {
	invoiceRepo    finance.TaxInvoiceRepository
	moveRepo       finance.AccountMoveRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewTaxInvoiceService creates a new TaxInvoiceService
func NewTaxInvoiceService(invoiceRepo finance.TaxInvoiceRepository, moveRepo finance.AccountMoveRepository, logger *zap.Logger) *TaxInvoiceService {
	return &TaxInvoiceService{
		invoiceRepo: invoiceRepo,
		moveRepo:    moveRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *TaxInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create records a paper invoice. The number and code pair is unique per
// company; listed moves get the invoice attached.
func (s *TaxInvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateTaxInvoiceRequest) (*TaxInvoiceResponse, error) {
	exists, err := s.invoiceRepo.ExistsByNameAndCode(ctx, tenantID, req.Name, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Tax invoice "+req.Name+" already exists")
	}

	today := s.now()
	if req.InvoiceDate != nil {
		today = *req.InvoiceDate
	}
	ti, err := finance.NewTaxInvoice(tenantID, req.Name, req.Code, req.AmountUntaxed, req.AmountTax, today)
	if err != nil {
		return nil, err
	}
	ti.PartnerID = req.PartnerID
	if req.ExpressCode != "" || req.SentDate != nil {
		sent := time.Time{}
		if req.SentDate != nil {
			sent = *req.SentDate
		}
		ti.SetShipping(req.ExpressCode, sent)
	}

	var moves []finance.AccountMove
	if len(req.MoveIDs) > 0 {
		if moves, err = s.moveRepo.FindByIDs(ctx, tenantID, req.MoveIDs); err != nil {
			return nil, err
		}
		if len(moves) != len(req.MoveIDs) {
			return nil, shared.NewDomainError("NOT_FOUND", "Some moves were not found")
		}
	}

	if err := s.invoiceRepo.Save(ctx, ti); err != nil {
		return nil, err
	}
	for i := range moves {
		if err := moves[i].AttachTaxInvoice(ti); err != nil {
			return nil, err
		}
		if err := s.moveRepo.Save(ctx, &moves[i]); err != nil {
			return nil, err
		}
	}
	s.logger.Info("tax invoice recorded",
		zap.String("name", ti.Name),
		zap.String("code", ti.Code),
		zap.Int("moves", len(moves)),
	)
	resp := ToTaxInvoiceResponse(ti)
	return &resp, nil
}

// GetByID retrieves a paper invoice
func (s *TaxInvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*TaxInvoiceResponse, error) {
	ti, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTaxInvoiceResponse(ti)
	return &resp, nil
}

// List retrieves paper invoices with pagination
func (s *TaxInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TaxInvoiceResponse, int64, error) {
	filter = filter.Normalize()
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TaxInvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToTaxInvoiceResponse(&invoices[i])
	}
	return out, total, nil
}

// SetShipping records the courier tracking code
func (s *TaxInvoiceService) SetShipping(ctx context.Context, tenantID, id uuid.UUID, req SetShippingRequest) (*TaxInvoiceResponse, error) {
	return s.apply(ctx, tenantID, id, func(ti *finance.TaxInvoice) {
		sent := time.Time{}
		if req.SentDate != nil {
			sent = *req.SentDate
		}
		ti.SetShipping(req.ExpressCode, sent)
	})
}

// Done marks a paper invoice valid
func (s *TaxInvoiceService) Done(ctx context.Context, tenantID, id uuid.UUID) (*TaxInvoiceResponse, error) {
	return s.apply(ctx, tenantID, id, (*finance.TaxInvoice).ActionDone)
}

// Cancel voids a paper invoice
func (s *TaxInvoiceService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*TaxInvoiceResponse, error) {
	return s.apply(ctx, tenantID, id, (*finance.TaxInvoice).ActionCancel)
}

func (s *TaxInvoiceService) apply(ctx context.Context, tenantID, id uuid.UUID, fn func(*finance.TaxInvoice)) (*TaxInvoiceResponse, error) {
	ti, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	fn(ti)
	if err := s.invoiceRepo.Save(ctx, ti); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil && len(ti.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, ti.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish tax invoice events", zap.String("name", ti.Name), zap.Error(err))
		}
	}
	ti.ClearDomainEvents()
	resp := ToTaxInvoiceResponse(ti)
	return &resp, nil
}
