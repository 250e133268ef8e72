package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService registers customer and supplier payments and matches them
// against open invoices
type PaymentService struct {
	paymentRepo     finance.PaymentRepository
	moveRepo        finance.AccountMoveRepository
	partnerRepo     partner.PartnerRepository
	tx              shared.Transactor
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	defaultStrategy finance.AllocationStrategy
	now             func() time.Time
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithDefaultAllocation sets the strategy used when a post request names none
func WithDefaultAllocation(strategy finance.AllocationStrategy) PaymentServiceOption {
	return func(s *PaymentService) {
		if strategy.IsValid() {
			s.defaultStrategy = strategy
		}
	}
}

// WithTransactor makes a payment and the moves it settles commit together
func WithTransactor(tx shared.Transactor) PaymentServiceOption {
	return func(s *PaymentService) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo finance.PaymentRepository,
	moveRepo finance.AccountMoveRepository,
	partnerRepo partner.PartnerRepository,
	logger *zap.Logger,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		paymentRepo:     paymentRepo,
		moveRepo:        moveRepo,
		partnerRepo:     partnerRepo,
		tx:              shared.NoTransaction{},
		logger:          logger,
		defaultStrategy: finance.AllocationFIFO,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create drafts a payment
func (s *PaymentService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	p, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, req.PartnerID)
	if err != nil {
		return nil, err
	}
	date := s.now()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}
	journal := finance.JournalKind(req.JournalKind)
	if journal == "" {
		journal = finance.JournalKindBank
	}
	payment, err := finance.NewPayment(
		tenantID,
		finance.PaymentType(req.PaymentType),
		finance.PartnerType(req.PartnerType),
		p.ID,
		p.Name,
		req.Amount,
		date,
		journal,
	)
	if err != nil {
		return nil, err
	}
	payment.PostAtBankRec = req.PostAtBankRec
	payment.Communication = req.Communication
	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// GetByID retrieves a payment
func (s *PaymentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// List retrieves payments with pagination
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PaymentResponse, int64, error) {
	filter = filter.Normalize()
	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out, total, nil
}

// Post books a draft payment. Without explicit moves it is matched against
// every open invoice of the partner.
func (s *PaymentService) Post(ctx context.Context, tenantID, id uuid.UUID, req PostPaymentRequest) (*PaymentResponse, error) {
	var resp *PaymentResponse
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("payment_post", nil), func(c context.Context) {
		resp, opErr = s.post(c, tenantID, id, req)
	})
	return resp, opErr
}

func (s *PaymentService) post(ctx context.Context, tenantID, id uuid.UUID, req PostPaymentRequest) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var moves []finance.AccountMove
	if len(req.MoveIDs) > 0 {
		moves, err = s.moveRepo.FindByIDs(ctx, tenantID, req.MoveIDs)
	} else {
		moves, err = s.moveRepo.FindOpenForPartner(ctx, tenantID, payment.PartnerID, payment.MatchedMoveType())
	}
	if err != nil {
		return nil, err
	}
	targets := make([]*finance.AccountMove, len(moves))
	for i := range moves {
		targets[i] = &moves[i]
	}

	strategy := finance.AllocationStrategy(req.Strategy)
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	manual := make([]finance.Allocation, len(req.Allocations))
	for i, a := range req.Allocations {
		manual[i] = finance.Allocation{MoveID: a.MoveID, Amount: a.Amount}
	}

	now := s.now()
	name, err := s.paymentRepo.NextName(ctx, tenantID, payment.PaymentDate)
	if err != nil {
		return nil, err
	}
	if err := payment.Post(name, targets, strategy, manual, now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, payment, matchedOf(payment, targets)); err != nil {
		return nil, err
	}

	s.logger.Info("payment posted",
		zap.String("payment", payment.Name),
		zap.String("strategy", string(strategy)),
		zap.Int("allocations", len(payment.Reconciliations)),
		zap.String("difference", payment.PaymentDifference().String()),
	)
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// MarkBankReconciled confirms a posted payment against the bank statement
func (s *PaymentService) MarkBankReconciled(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	return s.withMoves(ctx, tenantID, id, (*finance.Payment).MarkBankReconciled)
}

// Cancel voids a payment and reopens the invoices it paid
func (s *PaymentService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	return s.withMoves(ctx, tenantID, id, (*finance.Payment).Cancel)
}

func (s *PaymentService) withMoves(ctx context.Context, tenantID, id uuid.UUID, fn func(*finance.Payment, []*finance.AccountMove) error) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	var targets []*finance.AccountMove
	if ids := payment.MoveIDs(); len(ids) > 0 {
		moves, err := s.moveRepo.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, err
		}
		targets = make([]*finance.AccountMove, len(moves))
		for i := range moves {
			targets[i] = &moves[i]
		}
	}
	if err := fn(payment, targets); err != nil {
		return nil, err
	}
	if err := s.save(ctx, payment, targets); err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// save writes the payment and the moves it settles in one transaction, then
// publishes their events
func (s *PaymentService) save(ctx context.Context, payment *finance.Payment, moves []*finance.AccountMove) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return err
		}
		for _, m := range moves {
			if err := s.moveRepo.SaveWithLock(ctx, m); err != nil {
				s.logger.Error("failed to save matched move",
					zap.String("payment", payment.Name),
					zap.String("move", m.Name),
					zap.Error(err),
				)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range moves {
		if s.eventPublisher != nil && len(m.GetDomainEvents()) > 0 {
			if err := s.eventPublisher.Publish(ctx, m.GetDomainEvents()...); err != nil {
				s.logger.Error("failed to publish move events", zap.String("move", m.Name), zap.Error(err))
			}
		}
		m.ClearDomainEvents()
	}
	s.publishPayment(ctx, payment)
	return nil
}

func (s *PaymentService) publishPayment(ctx context.Context, p *finance.Payment) {
	if s.eventPublisher != nil && len(p.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, p.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish payment events", zap.String("payment", p.Name), zap.Error(err))
		}
	}
	p.ClearDomainEvents()
}

func matchedOf(p *finance.Payment, moves []*finance.AccountMove) []*finance.AccountMove {
	keep := make(map[uuid.UUID]bool)
	for _, id := range p.MoveIDs() {
		keep[id] = true
	}
	out := make([]*finance.AccountMove, 0, len(keep))
	for _, m := range moves {
		if keep[m.ID] {
			out = append(out, m)
		}
	}
	return out
}
