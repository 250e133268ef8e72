package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/integration"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

// errMissingReference marks a record whose parent or linked record has not
// been imported yet
var errMissingReference = errors.New("referenced record not imported")

// LegacySyncService copies tax classifications, categories and partners
// from the legacy instance. Every imported record keeps an external mapping,
// so re-running only touches records written since.
type LegacySyncService struct {
	source       integration.LegacySource
	mappingRepo  integration.ExternalMappingRepository
	taxClassRepo catalog.TaxClassificationRepository
	categoryRepo catalog.ProductCategoryRepository
	partnerRepo  partner.PartnerRepository
	logger       *zap.Logger
	pageSize     int
	now          func() time.Time
}

// LegacySyncOption is a functional option for configuring LegacySyncService
type LegacySyncOption func(*LegacySyncService)

// WithPageSize sets how many records are requested per call
func WithPageSize(n int) LegacySyncOption {
	return func(s *LegacySyncService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// NewLegacySyncService creates a new LegacySyncService
func NewLegacySyncService(
	source integration.LegacySource,
	mappingRepo integration.ExternalMappingRepository,
	taxClassRepo catalog.TaxClassificationRepository,
	categoryRepo catalog.ProductCategoryRepository,
	partnerRepo partner.PartnerRepository,
	logger *zap.Logger,
	opts ...LegacySyncOption,
) *LegacySyncService {
	s := &LegacySyncService{
		source:       source,
		mappingRepo:  mappingRepo,
		taxClassRepo: taxClassRepo,
		categoryRepo: categoryRepo,
		partnerRepo:  partnerRepo,
		logger:       logger,
		pageSize:     500,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync pulls the requested models in dependency order. A record that
// cannot be imported is reported in its model's result; storage and
// transport failures abort the run.
func (s *LegacySyncService) Sync(ctx context.Context, tenantID uuid.UUID, req SyncRequest) (*SyncResponse, error) {
	resp := &SyncResponse{Results: make([]integration.SyncResult, 0, len(integration.SyncOrder))}
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("legacy_sync", nil), func(c context.Context) {
		for _, model := range req.models() {
			result, err := s.syncModel(c, tenantID, model, req.Full)
			if err != nil {
				opErr = fmt.Errorf("sync %s: %w", model, err)
				return
			}
			resp.Results = append(resp.Results, *result)
		}
	})
	if opErr != nil {
		return nil, opErr
	}
	return resp, nil
}

func (s *LegacySyncService) syncModel(ctx context.Context, tenantID uuid.UUID, model integration.LegacyModel, full bool) (*integration.SyncResult, error) {
	q := integration.LegacyQuery{Limit: s.pageSize}
	if !full {
		since, err := s.mappingRepo.LastWriteDate(ctx, tenantID, model)
		if err != nil {
			return nil, err
		}
		q.Since = since
	}

	result := &integration.SyncResult{Model: model}
	var err error
	switch model {
	case integration.LegacyModelTaxClassification:
		err = s.syncTaxClassifications(ctx, tenantID, q, result)
	case integration.LegacyModelCategory:
		err = s.syncCategories(ctx, tenantID, q, result)
	case integration.LegacyModelPartner:
		err = s.syncPartners(ctx, tenantID, q, result)
	default:
		err = integration.ErrMappingInvalidModel
	}
	if err != nil {
		return nil, err
	}
	result.Finish(s.now())

	s.logger.Info("legacy model synced",
		zap.String("tenant_id", tenantID.String()),
		zap.String("model", model.String()),
		zap.String("status", string(result.Status)),
		zap.Int("total", result.TotalCount),
		zap.Int("created", result.CreatedCount),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

// record tallies one outcome. Domain errors and missing references are
// record failures; anything else is returned.
func (s *LegacySyncService) record(ctx context.Context, tenantID uuid.UUID, model integration.LegacyModel, result *integration.SyncResult, externalID int64, o outcome, err error) error {
	if err == nil {
		switch o {
		case outcomeCreated:
			result.CreatedCount++
		case outcomeUpdated:
			result.UpdatedCount++
		}
		return nil
	}
	if _, ok := shared.AsDomainError(err); !ok && !errors.Is(err, errMissingReference) {
		return err
	}
	result.Fail(externalID, err)
	s.logger.Warn("legacy record skipped",
		zap.String("model", model.String()),
		zap.Int64("external_id", externalID),
		zap.Error(err),
	)
	m, findErr := s.mapping(ctx, tenantID, model, externalID)
	if findErr != nil {
		return findErr
	}
	if m != nil {
		m.RecordSyncFailure(err.Error())
		return s.mappingRepo.Save(ctx, m)
	}
	return nil
}

func (s *LegacySyncService) mapping(ctx context.Context, tenantID uuid.UUID, model integration.LegacyModel, externalID int64) (*integration.ExternalMapping, error) {
	m, err := s.mappingRepo.FindByExternalID(ctx, tenantID, model, externalID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// localID resolves a reference to an already imported record
func (s *LegacySyncService) localID(ctx context.Context, tenantID uuid.UUID, model integration.LegacyModel, externalID int64) (uuid.UUID, error) {
	m, err := s.mapping(ctx, tenantID, model, externalID)
	if err != nil {
		return uuid.Nil, err
	}
	if m == nil {
		return uuid.Nil, fmt.Errorf("%w: %s %d", errMissingReference, model, externalID)
	}
	return m.LocalID, nil
}

func (s *LegacySyncService) markImported(ctx context.Context, tenantID uuid.UUID, m *integration.ExternalMapping, model integration.LegacyModel, externalID int64, localID uuid.UUID, written time.Time) error {
	if m == nil {
		var err error
		if m, err = integration.NewExternalMapping(tenantID, model, externalID, localID); err != nil {
			return err
		}
	}
	m.LocalID = localID
	m.RecordSyncSuccess(written)
	return s.mappingRepo.Save(ctx, m)
}

func (s *LegacySyncService) syncTaxClassifications(ctx context.Context, tenantID uuid.UUID, q integration.LegacyQuery, result *integration.SyncResult) error {
	for {
		page, err := s.source.TaxClassifications(ctx, q)
		if err != nil {
			return err
		}
		for _, rec := range page {
			result.TotalCount++
			o, err := s.importTaxClassification(ctx, tenantID, rec)
			if err := s.record(ctx, tenantID, integration.LegacyModelTaxClassification, result, rec.ID, o, err); err != nil {
				return err
			}
		}
		if len(page) < q.Limit {
			return nil
		}
		q.Offset += len(page)
	}
}

func (s *LegacySyncService) importTaxClassification(ctx context.Context, tenantID uuid.UUID, rec integration.LegacyTaxClassification) (outcome, error) {
	m, err := s.mapping(ctx, tenantID, integration.LegacyModelTaxClassification, rec.ID)
	if err != nil {
		return outcomeSkipped, err
	}
	if m != nil && !m.IsStale(rec.WriteDate) {
		return outcomeSkipped, nil
	}

	var tc *catalog.TaxClassification
	switch {
	case m != nil:
		tc, err = s.taxClassRepo.FindByIDForTenant(ctx, tenantID, m.LocalID)
	case rec.Code != "":
		tc, err = s.taxClassRepo.FindByCode(ctx, tenantID, rec.Code)
		if errors.Is(err, shared.ErrNotFound) {
			tc, err = nil, nil
		}
	}
	if err != nil {
		return outcomeSkipped, err
	}

	o := outcomeUpdated
	if tc == nil {
		if tc, err = catalog.NewTaxClassification(tenantID, rec.Name, rec.Code, rec.Code18); err != nil {
			return outcomeSkipped, err
		}
		o = outcomeCreated
	} else if err := tc.Update(rec.Name, rec.Code, rec.Code18); err != nil {
		return outcomeSkipped, err
	}
	if err := s.taxClassRepo.Save(ctx, tc); err != nil {
		return outcomeSkipped, err
	}
	return o, s.markImported(ctx, tenantID, m, integration.LegacyModelTaxClassification, rec.ID, tc.ID, rec.WriteDate)
}

func (s *LegacySyncService) syncCategories(ctx context.Context, tenantID uuid.UUID, q integration.LegacyQuery, result *integration.SyncResult) error {
	for {
		page, err := s.source.Categories(ctx, q)
		if err != nil {
			return err
		}
		for _, rec := range page {
			result.TotalCount++
			o, err := s.importCategory(ctx, tenantID, rec)
			if err := s.record(ctx, tenantID, integration.LegacyModelCategory, result, rec.ID, o, err); err != nil {
				return err
			}
		}
		if len(page) < q.Limit {
			return nil
		}
		q.Offset += len(page)
	}
}

// importCategory creates or renames the local category. A category without
// a code on the legacy side takes its legacy id as code.
func (s *LegacySyncService) importCategory(ctx context.Context, tenantID uuid.UUID, rec integration.LegacyCategory) (outcome, error) {
	m, err := s.mapping(ctx, tenantID, integration.LegacyModelCategory, rec.ID)
	if err != nil {
		return outcomeSkipped, err
	}
	if m != nil && !m.IsStale(rec.WriteDate) {
		return outcomeSkipped, nil
	}

	code := strings.TrimSpace(rec.Code)
	if code == "" {
		code = strconv.FormatInt(rec.ID, 10)
	}
	var parent *catalog.ProductCategory
	if rec.ParentID != 0 {
		parentID, err := s.localID(ctx, tenantID, integration.LegacyModelCategory, rec.ParentID)
		if err != nil {
			return outcomeSkipped, err
		}
		if parent, err = s.categoryRepo.FindByIDForTenant(ctx, tenantID, parentID); err != nil {
			return outcomeSkipped, err
		}
	}
	var classID *uuid.UUID
	if rec.TaxClassificationID != 0 {
		id, err := s.localID(ctx, tenantID, integration.LegacyModelTaxClassification, rec.TaxClassificationID)
		if err != nil {
			return outcomeSkipped, err
		}
		classID = &id
	}

	var category *catalog.ProductCategory
	if m != nil {
		category, err = s.categoryRepo.FindByIDForTenant(ctx, tenantID, m.LocalID)
	} else {
		fullCode := code
		if parent != nil {
			fullCode = parent.FullCode + code
		}
		category, err = s.categoryRepo.FindByFullCode(ctx, tenantID, fullCode)
		if errors.Is(err, shared.ErrNotFound) {
			category, err = nil, nil
		}
	}
	if err != nil {
		return outcomeSkipped, err
	}

	o := outcomeUpdated
	var changed []*catalog.ProductCategory
	switch {
	case category == nil:
		if parent == nil {
			category, err = catalog.NewProductCategory(tenantID, code, rec.Name)
		} else {
			category, err = catalog.NewChildProductCategory(tenantID, code, rec.Name, parent)
		}
		if err != nil {
			return outcomeSkipped, err
		}
		changed = []*catalog.ProductCategory{category}
		o = outcomeCreated
	default:
		if parent != nil && (category.ParentID == nil || *category.ParentID != parent.ID) {
			return outcomeSkipped, shared.NewDomainError("INVALID_PARENT", "Moving a category to another parent is not supported")
		}
		oldFullCode, oldName := category.FullCode, category.CompleteName
		if err := category.Rename(code, rec.Name, parent); err != nil {
			return outcomeSkipped, err
		}
		changed = []*catalog.ProductCategory{category}
		if category.FullCode != oldFullCode || category.CompleteName != oldName {
			descendants, err := s.refreshedDescendants(ctx, tenantID, category)
			if err != nil {
				return outcomeSkipped, err
			}
			changed = append(changed, descendants...)
		}
	}
	if classID != nil || category.TaxClassificationID != nil {
		category.SetTaxClassification(classID)
	}
	for _, c := range changed {
		c.ClearDomainEvents()
	}
	if err := s.categoryRepo.SaveAll(ctx, changed); err != nil {
		return outcomeSkipped, err
	}
	return o, s.markImported(ctx, tenantID, m, integration.LegacyModelCategory, rec.ID, category.ID, rec.WriteDate)
}

func (s *LegacySyncService) refreshedDescendants(ctx context.Context, tenantID uuid.UUID, root *catalog.ProductCategory) ([]*catalog.ProductCategory, error) {
	descendants, err := s.categoryRepo.FindDescendants(ctx, tenantID, root.ID)
	if err != nil {
		return nil, err
	}
	byID := map[uuid.UUID]*catalog.ProductCategory{root.ID: root}
	out := make([]*catalog.ProductCategory, 0, len(descendants))
	for i := range descendants {
		d := &descendants[i]
		if d.ParentID == nil {
			continue
		}
		if p, ok := byID[*d.ParentID]; ok {
			d.RefreshFromParent(p)
			byID[d.ID] = d
			out = append(out, d)
		}
	}
	return out, nil
}

// syncPartners imports partners page by page. Addresses whose parent comes
// later in the run are retried once after the last page.
func (s *LegacySyncService) syncPartners(ctx context.Context, tenantID uuid.UUID, q integration.LegacyQuery, result *integration.SyncResult) error {
	var deferred []integration.LegacyPartner
	for {
		page, err := s.source.Partners(ctx, q)
		if err != nil {
			return err
		}
		for _, rec := range page {
			result.TotalCount++
			o, err := s.importPartner(ctx, tenantID, rec)
			if errors.Is(err, errMissingReference) {
				deferred = append(deferred, rec)
				continue
			}
			if err := s.record(ctx, tenantID, integration.LegacyModelPartner, result, rec.ID, o, err); err != nil {
				return err
			}
		}
		if len(page) < q.Limit {
			break
		}
		q.Offset += len(page)
	}
	for _, rec := range deferred {
		o, err := s.importPartner(ctx, tenantID, rec)
		if err := s.record(ctx, tenantID, integration.LegacyModelPartner, result, rec.ID, o, err); err != nil {
			return err
		}
	}
	return nil
}

func (s *LegacySyncService) importPartner(ctx context.Context, tenantID uuid.UUID, rec integration.LegacyPartner) (outcome, error) {
	m, err := s.mapping(ctx, tenantID, integration.LegacyModelPartner, rec.ID)
	if err != nil {
		return outcomeSkipped, err
	}
	if m != nil && !m.IsStale(rec.WriteDate) {
		return outcomeSkipped, nil
	}

	var parent *partner.Partner
	if rec.ParentID != 0 {
		parentID, err := s.localID(ctx, tenantID, integration.LegacyModelPartner, rec.ParentID)
		if err != nil {
			return outcomeSkipped, err
		}
		if parent, err = s.partnerRepo.FindByIDForTenant(ctx, tenantID, parentID); err != nil {
			return outcomeSkipped, err
		}
	}

	o := outcomeUpdated
	var p *partner.Partner
	switch {
	case m != nil:
		if p, err = s.partnerRepo.FindByIDForTenant(ctx, tenantID, m.LocalID); err != nil {
			return outcomeSkipped, err
		}
	case parent != nil:
		p, err = partner.NewChildAddress(parent, rec.Name, addressType(rec.Type))
		o = outcomeCreated
	case rec.IsCompany:
		p, err = partner.NewCompanyPartner(tenantID, rec.Name)
		o = outcomeCreated
	default:
		p, err = partner.NewPersonPartner(tenantID, rec.Name)
		o = outcomeCreated
	}
	if err != nil {
		return outcomeSkipped, err
	}
	if err := applyLegacyPartner(p, rec); err != nil {
		return outcomeSkipped, err
	}
	p.ClearDomainEvents()
	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return outcomeSkipped, err
	}
	return o, s.markImported(ctx, tenantID, m, integration.LegacyModelPartner, rec.ID, p.ID, rec.WriteDate)
}

func applyLegacyPartner(p *partner.Partner, rec integration.LegacyPartner) error {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Partner name cannot be empty")
	}
	p.Name = name
	if rec.ParentID == 0 {
		if rec.IsCompany {
			p.CompanyType = partner.CompanyTypeCompany
		} else {
			p.CompanyType = partner.CompanyTypePerson
		}
	} else {
		p.AddressType = addressType(rec.Type)
	}
	p.Ref = strings.TrimSpace(rec.Ref)
	p.Vat = strings.TrimSpace(rec.Vat)
	p.Phone = strings.TrimSpace(rec.Phone)
	p.Email = strings.TrimSpace(rec.Email)
	p.Street = strings.TrimSpace(rec.Street)
	p.City = strings.TrimSpace(rec.City)
	p.IsCustomer = rec.IsCustomer
	p.IsSupplier = rec.IsSupplier
	p.Active = rec.Active
	p.SetInvoiceFields(rec.AccountName, rec.AccountAddress, rec.AccountPhone)
	return nil
}

func addressType(t string) partner.AddressType {
	switch partner.AddressType(t) {
	case partner.AddressTypeInvoice:
		return partner.AddressTypeInvoice
	case partner.AddressTypeDelivery:
		return partner.AddressTypeDelivery
	default:
		return partner.AddressTypeContact
	}
}
