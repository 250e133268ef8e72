package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/shared/valueobject"
	"github.com/qm/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseRequestService manages purchase requests raised by procurement and
// drafts purchase orders from them
type PurchaseRequestService struct {
	requestRepo     trade.PurchaseRequestRepository
	purchaseRepo    trade.PurchaseOrderRepository
	partnerRepo     partner.PartnerRepository
	companyRepo     partner.CompanyRepository
	productRepo     catalog.ProductRepository
	uomRepo         catalog.UomRepository
	pickingTypeRepo inventory.PickingTypeRepository
	sequences       shared.SequenceGenerator
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewPurchaseRequestService creates a new PurchaseRequestService
func NewPurchaseRequestService(
	requestRepo trade.PurchaseRequestRepository,
	purchaseRepo trade.PurchaseOrderRepository,
	partnerRepo partner.PartnerRepository,
	companyRepo partner.CompanyRepository,
	productRepo catalog.ProductRepository,
	uomRepo catalog.UomRepository,
	pickingTypeRepo inventory.PickingTypeRepository,
	sequences shared.SequenceGenerator,
	logger *zap.Logger,
) *PurchaseRequestService {
	return &PurchaseRequestService{
		requestRepo:     requestRepo,
		purchaseRepo:    purchaseRepo,
		partnerRepo:     partnerRepo,
		companyRepo:     companyRepo,
		productRepo:     productRepo,
		uomRepo:         uomRepo,
		pickingTypeRepo: pickingTypeRepo,
		sequences:       sequences,
		logger:          logger,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PurchaseRequestService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ApplyDemands raises one request per sale line. An open request of the same
// sale line is updated in place instead of creating a second one. The events
// of the returned requests are left for the caller to publish after commit.
func (s *PurchaseRequestService) ApplyDemands(ctx context.Context, order *trade.SalesOrder, demands []inventory.RequestDemand) ([]trade.PurchaseRequest, error) {
	tenantID := order.TenantID
	out := make([]trade.PurchaseRequest, 0, len(demands))

	for _, d := range demands {
		if d.SaleLineID == nil {
			s.logger.Warn("demand without sale line ignored",
				zap.String("order", order.OrderNumber),
				zap.String("product_id", d.ProductID.String()),
			)
			continue
		}
		vendorID := d.VendorID

		existing, err := s.requestRepo.FindOpenBySaleLine(ctx, tenantID, *d.SaleLineID)
		switch {
		case err == nil:
			if err := existing.ApplyProcurement(d.ProductID, d.Quantity, d.UomID, &vendorID); err != nil {
				return nil, err
			}
			out = append(out, *existing)
			continue
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}

		src, err := trade.SourceFromSaleLine(order, *d.SaleLineID)
		if err != nil {
			return nil, err
		}
		req, err := trade.NewPurchaseRequest(tenantID, src, d.ProductID, d.Quantity, d.UomID, &vendorID)
		if err != nil {
			return nil, err
		}
		name, err := s.sequences.Next(ctx, tenantID, shared.SequencePurchaseRequest, s.now())
		if err != nil {
			return nil, err
		}
		req.AssignName(name)
		out = append(out, *req)
	}

	if len(out) == 0 {
		return out, nil
	}
	if err := s.requestRepo.SaveBatch(ctx, out); err != nil {
		return nil, err
	}
	s.logger.Info("purchase requests raised",
		zap.String("order", order.OrderNumber),
		zap.Int("count", len(out)),
	)
	return out, nil
}

// GetByID retrieves a purchase request
func (s *PurchaseRequestService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequestResponse, error) {
	req, err := s.requestRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseRequestResponse(req)
	return &resp, nil
}

// List retrieves purchase requests with filtering and pagination
func (s *PurchaseRequestService) List(ctx context.Context, tenantID uuid.UUID, f RequestListFilter) ([]PurchaseRequestResponse, int64, error) {
	filter := trade.RequestFilter{
		Filter:         shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize(),
		PartnerID:      f.PartnerID,
		SaleOrderID:    f.SaleOrderID,
		IsDropshipping: f.IsDropshipping,
	}
	if f.State != "" {
		st := trade.RequestState(f.State)
		filter.State = &st
	}
	reqs, err := s.requestRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.requestRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PurchaseRequestResponse, len(reqs))
	for i := range reqs {
		out[i] = ToPurchaseRequestResponse(&reqs[i])
	}
	return out, total, nil
}

// SetPartner chooses the vendor of a request among the product's sellers
func (s *PurchaseRequestService) SetPartner(ctx context.Context, tenantID, id uuid.UUID, in SetRequestPartnerRequest) (*PurchaseRequestResponse, error) {
	req, err := s.requestRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}
	candidates := make([]uuid.UUID, 0, len(product.Sellers))
	for _, sl := range product.Sellers {
		candidates = append(candidates, sl.PartnerID)
	}
	if err := req.SetPartner(in.PartnerID, candidates); err != nil {
		return nil, err
	}
	if err := s.requestRepo.Save(ctx, req); err != nil {
		return nil, err
	}
	resp := ToPurchaseRequestResponse(req)
	return &resp, nil
}

// Cancel drops a request
func (s *PurchaseRequestService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequestResponse, error) {
	return s.transition(ctx, tenantID, id, (*trade.PurchaseRequest).Cancel)
}

// Reopen puts a cancelled request back in the pool
func (s *PurchaseRequestService) Reopen(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequestResponse, error) {
	return s.transition(ctx, tenantID, id, (*trade.PurchaseRequest).Reopen)
}

// MarkDone closes an open request by hand
func (s *PurchaseRequestService) MarkDone(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequestResponse, error) {
	return s.transition(ctx, tenantID, id, (*trade.PurchaseRequest).MarkDone)
}

func (s *PurchaseRequestService) transition(ctx context.Context, tenantID, id uuid.UUID, apply func(*trade.PurchaseRequest) error) (*PurchaseRequestResponse, error) {
	req, err := s.requestRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(req); err != nil {
		return nil, err
	}
	if err := s.requestRepo.Save(ctx, req); err != nil {
		return nil, err
	}
	s.publish(ctx, req)
	resp := ToPurchaseRequestResponse(req)
	return &resp, nil
}

// CreatePurchaseOrder drafts one purchase order covering the selected open
// requests. The selection must share a vendor, a delivery type and, for
// drop-shipping, a customer address. An empty selection drafts nothing.
func (s *PurchaseRequestService) CreatePurchaseOrder(ctx context.Context, tenantID uuid.UUID, in CreatePurchaseOrderFromRequestsRequest) (*PurchaseOrderResponse, error) {
	if len(in.RequestIDs) == 0 {
		return nil, nil
	}
	reqs, err := s.requestRepo.FindByIDs(ctx, tenantID, in.RequestIDs)
	if err != nil {
		return nil, err
	}
	if len(reqs) != len(in.RequestIDs) {
		return nil, shared.NewDomainError("NOT_FOUND", "Some purchase requests were not found")
	}
	sel, err := trade.ValidateRequestsForPurchase(reqs)
	if err != nil {
		return nil, err
	}

	vendor, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, sel.VendorID)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	pickingTypeID, err := s.receiptType(ctx, tenantID, sel.IsDropshipping)
	if err != nil {
		return nil, err
	}
	products, err := s.productsOf(ctx, tenantID, sel.Requests)
	if err != nil {
		return nil, err
	}
	uoms, err := s.uomMap(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	number, err := s.sequences.Next(ctx, tenantID, shared.SequencePurchaseOrder, now)
	if err != nil {
		return nil, err
	}

	po, err := trade.DraftPurchaseOrder(sel, trade.DraftInput{
		OrderNumber:     number,
		Vendor:          vendor,
		CompanyCurrency: valueobject.Currency(company.Currency),
		PickingTypeID:   pickingTypeID,
		Products:        products,
		Uoms:            uoms,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Save(ctx, po); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, po.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish purchase order events", zap.Error(err))
		}
	}
	po.ClearDomainEvents()

	if err := s.RecomputeRequests(ctx, tenantID, po.RequestIDs()); err != nil {
		return nil, err
	}

	s.logger.Info("purchase order drafted from requests",
		zap.String("order", po.OrderNumber),
		zap.Int("requests", len(sel.Requests)),
		zap.Bool("dropship", po.IsDropshipping),
	)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// RecomputeRequests refreshes the purchased quantities of the requests from
// their purchase lines, converted to each request's unit
func (s *PurchaseRequestService) RecomputeRequests(ctx context.Context, tenantID uuid.UUID, requestIDs []uuid.UUID) error {
	if len(requestIDs) == 0 {
		return nil
	}
	reqs, err := s.requestRepo.FindByIDs(ctx, tenantID, requestIDs)
	if err != nil {
		return err
	}
	lines, err := s.purchaseRepo.FindLinesByRequestIDs(ctx, tenantID, requestIDs)
	if err != nil {
		return err
	}
	uoms, err := s.uomMap(ctx, tenantID)
	if err != nil {
		return err
	}

	byRequest := make(map[uuid.UUID][]trade.RequestPurchaseLine, len(reqs))
	for _, l := range lines {
		if l.RequestID != nil {
			byRequest[*l.RequestID] = append(byRequest[*l.RequestID], l)
		}
	}

	for i := range reqs {
		req := &reqs[i]
		purchased := make([]trade.PurchasedLine, 0, len(byRequest[req.ID]))
		for _, l := range byRequest[req.ID] {
			qty, err := convertQty(l.Quantity, uoms[l.UomID], uoms[req.UomID])
			if err != nil {
				return err
			}
			purchased = append(purchased, trade.PurchasedLine{
				Quantity:  qty,
				Cancelled: l.OrderState == trade.PurchaseStateCancel,
			})
		}
		req.RecomputePurchased(purchased)
	}

	if err := s.requestRepo.SaveBatch(ctx, reqs); err != nil {
		return err
	}
	for i := range reqs {
		s.publish(ctx, &reqs[i])
	}
	return nil
}

func convertQty(qty decimal.Decimal, from, to *catalog.UnitOfMeasure) (decimal.Decimal, error) {
	if from == nil || to == nil || from.ID == to.ID {
		return qty, nil
	}
	return from.ComputeQuantity(qty, to, false)
}

// receiptType is the Dropship type for drop-shipped requests and the
// company receipt type otherwise
func (s *PurchaseRequestService) receiptType(ctx context.Context, tenantID uuid.UUID, dropship bool) (*uuid.UUID, error) {
	code := inventory.PickingTypeIncoming
	if dropship {
		code = inventory.PickingTypeDropship
	}
	pt, err := s.pickingTypeRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("no picking type for purchase order", zap.String("code", string(code)))
			return nil, nil
		}
		return nil, err
	}
	return &pt.ID, nil
}

func (s *PurchaseRequestService) productsOf(ctx context.Context, tenantID uuid.UUID, reqs []trade.PurchaseRequest) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	seen := make(map[uuid.UUID]bool, len(reqs))
	for _, r := range reqs {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (s *PurchaseRequestService) uomMap(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]*catalog.UnitOfMeasure, error) {
	uoms, err := s.uomRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*catalog.UnitOfMeasure, len(uoms))
	for i := range uoms {
		out[uoms[i].ID] = &uoms[i]
	}
	return out, nil
}

func (s *PurchaseRequestService) publish(ctx context.Context, req *trade.PurchaseRequest) {
	if s.eventPublisher != nil && len(req.GetDomainEvents()) > 0 {
		if err := s.eventPublisher.Publish(ctx, req.GetDomainEvents()...); err != nil {
			s.logger.Error("failed to publish purchase request events",
				zap.String("request", req.Name),
				zap.Error(err),
			)
		}
	}
	req.ClearDomainEvents()
}
