package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// moveSequences maps a move type onto the sequence numbering its posted moves
var moveSequences = map[finance.MoveType]string{
	finance.MoveTypeOutInvoice: shared.SequenceMoveOutInvoice,
	finance.MoveTypeOutRefund:  shared.SequenceMoveOutRefund,
	finance.MoveTypeInInvoice:  shared.SequenceMoveInInvoice,
	finance.MoveTypeInRefund:   shared.SequenceMoveInRefund,
	finance.MoveTypeEntry:      shared.SequenceMoveEntry,
}

// GormAccountMoveRepository implements AccountMoveRepository using GORM
type GormAccountMoveRepository struct {
	db        *gorm.DB
	sequences shared.SequenceGenerator
}

// NewGormAccountMoveRepository creates a new GormAccountMoveRepository
func NewGormAccountMoveRepository(db *gorm.DB, sequences shared.SequenceGenerator) *GormAccountMoveRepository {
	return &GormAccountMoveRepository{db: db, sequences: sequences}
}

func withMoveDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Lines.Taxes").
		Preload("TaxInvoices")
}

// FindByIDForTenant finds a move with its lines and tax invoices
func (r *GormAccountMoveRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountMove, error) {
	var move finance.AccountMove
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withMoveDetails).
		Where("id = ?", id).
		First(&move).Error; err != nil {
		return nil, notFound(err)
	}
	return &move, nil
}

// FindByIDs loads several moves with their details
func (r *GormAccountMoveRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.AccountMove, error) {
	if len(ids) == 0 {
		return []finance.AccountMove{}, nil
	}
	return r.find(ctx, tenantID, func(db *gorm.DB) *gorm.DB { return db.Where("id IN ?", ids) })
}

// FindAllForTenant lists moves without lines
func (r *GormAccountMoveRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.MoveFilter) ([]finance.AccountMove, error) {
	var moves []finance.AccountMove
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter.Filter, MoveSortFields, "created_at")).
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// CountForTenant counts moves matching the filter
func (r *GormAccountMoveRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.MoveFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBySaleOrder returns every move created from the sales order
func (r *GormAccountMoveRepository) FindBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]finance.AccountMove, error) {
	return r.find(ctx, tenantID, func(db *gorm.DB) *gorm.DB {
		return db.Where("sale_order_id = ?", saleOrderID)
	})
}

// FindByPurchaseOrder returns every move created from the purchase order
func (r *GormAccountMoveRepository) FindByPurchaseOrder(ctx context.Context, tenantID, purchaseOrderID uuid.UUID) ([]finance.AccountMove, error) {
	return r.find(ctx, tenantID, func(db *gorm.DB) *gorm.DB {
		return db.Where("purchase_order_id = ?", purchaseOrderID)
	})
}

// FindOpenForPartner returns posted moves with a residual, oldest due first
func (r *GormAccountMoveRepository) FindOpenForPartner(ctx context.Context, tenantID, partnerID uuid.UUID, moveType finance.MoveType) ([]finance.AccountMove, error) {
	return r.find(ctx, tenantID, func(db *gorm.DB) *gorm.DB {
		return db.
			Where("state = ?", finance.MoveStatePosted).
			Where("partner_id = ?", partnerID).
			Where("move_type = ?", moveType).
			Where("amount_residual > 0").
			Order("invoice_date_due ASC NULLS LAST").
			Order("invoice_date ASC")
	})
}

// Save creates or updates a move and its lines
func (r *GormAccountMoveRepository) Save(ctx context.Context, move *finance.AccountMove) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(move).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, move)
	})
}

// SaveWithLock updates an existing move if its version is unchanged
func (r *GormAccountMoveRepository) SaveWithLock(ctx context.Context, move *finance.AccountMove) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, move); err != nil {
			return err
		}
		return r.saveChildren(tx, move)
	})
}

// NextName numbers a posted move from the sequence of its type
func (r *GormAccountMoveRepository) NextName(ctx context.Context, tenantID uuid.UUID, moveType finance.MoveType, date time.Time) (string, error) {
	code, ok := moveSequences[moveType]
	if !ok {
		return "", shared.NewDomainError("INVALID_MOVE_TYPE", "Invalid move type")
	}
	return r.sequences.Next(ctx, tenantID, code, date)
}

func (r *GormAccountMoveRepository) saveChildren(tx *gorm.DB, move *finance.AccountMove) error {
	ids := uuidsOf(move.Lines, func(l *finance.AccountMoveLine) uuid.UUID { return l.ID })
	if err := deleteOrphans[finance.AccountMoveLine](tx, "move_id", move.ID, ids); err != nil {
		return err
	}
	for i := range move.Lines {
		line := &move.Lines[i]
		line.MoveID = move.ID
		line.TenantID = move.TenantID
		if err := tx.Omit(clause.Associations).Save(line).Error; err != nil {
			return err
		}
		if err := tx.Model(line).Association("Taxes").Replace(line.Taxes); err != nil {
			return err
		}
	}
	return tx.Model(move).Association("TaxInvoices").Replace(move.TaxInvoices)
}

func (r *GormAccountMoveRepository) find(ctx context.Context, tenantID uuid.UUID, cond func(*gorm.DB) *gorm.DB) ([]finance.AccountMove, error) {
	var moves []finance.AccountMove
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withMoveDetails, cond).
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

func (r *GormAccountMoveRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter finance.MoveFilter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&finance.AccountMove{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "partner_name", "ref", "invoice_origin"))
	if filter.MoveType != nil {
		query = query.Where("move_type = ?", *filter.MoveType)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.SaleOrderID != nil {
		query = query.Where("sale_order_id = ?", *filter.SaleOrderID)
	}
	if filter.PurchaseOrderID != nil {
		query = query.Where("purchase_order_id = ?", *filter.PurchaseOrderID)
	}
	if filter.DateFrom != nil {
		query = query.Where("invoice_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("invoice_date <= ?", *filter.DateTo)
	}
	return query
}

// GormTaxInvoiceRepository implements TaxInvoiceRepository using GORM
type GormTaxInvoiceRepository struct {
	db *gorm.DB
}

// NewGormTaxInvoiceRepository creates a new GormTaxInvoiceRepository
func NewGormTaxInvoiceRepository(db *gorm.DB) *GormTaxInvoiceRepository {
	return &GormTaxInvoiceRepository{db: db}
}

// FindByIDForTenant finds a tax invoice by ID within a tenant
func (r *GormTaxInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.TaxInvoice, error) {
	var inv finance.TaxInvoice
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// FindByIDs loads several tax invoices
func (r *GormTaxInvoiceRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.TaxInvoice, error) {
	if len(ids) == 0 {
		return []finance.TaxInvoice{}, nil
	}
	var out []finance.TaxInvoice
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindAllForTenant lists tax invoices
func (r *GormTaxInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.TaxInvoice, error) {
	var out []finance.TaxInvoice
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, TaxInvoiceSortFields, "invoice_date")).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountForTenant counts tax invoices matching the filter
func (r *GormTaxInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByNameAndCode reports whether the invoice number and code pair is taken
func (r *GormTaxInvoiceRepository) ExistsByNameAndCode(ctx context.Context, tenantID uuid.UUID, name, code string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&finance.TaxInvoice{}).
		Scopes(tenantScope(tenantID)).
		Where("name = ? AND code = ?", name, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a tax invoice
func (r *GormTaxInvoiceRepository) Save(ctx context.Context, invoice *finance.TaxInvoice) error {
	return conn(ctx, r.db).Save(invoice).Error
}

func (r *GormTaxInvoiceRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&finance.TaxInvoice{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "code", "express_code"))
	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "partner_id":
			query = query.Where("partner_id = ?", value)
		}
	}
	return query
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db        *gorm.DB
	sequences shared.SequenceGenerator
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB, sequences shared.SequenceGenerator) *GormPaymentRepository {
	return &GormPaymentRepository{db: db, sequences: sequences}
}

// FindByIDForTenant finds a payment with its reconciliations
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var payment finance.Payment
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Preload("Reconciliations").
		Where("id = ?", id).
		First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// FindAllForTenant lists payments
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Payment, error) {
	var payments []finance.Payment
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, PaymentSortFields, "payment_date")).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// CountForTenant counts payments matching the filter
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the payment and its reconciliations
func (r *GormPaymentRepository) Save(ctx context.Context, payment *finance.Payment) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(payment).Error; err != nil {
			return err
		}
		ids := uuidsOf(payment.Reconciliations, func(p *finance.PartialReconcile) uuid.UUID { return p.ID })
		if err := deleteOrphans[finance.PartialReconcile](tx, "payment_id", payment.ID, ids); err != nil {
			return err
		}
		for i := range payment.Reconciliations {
			payment.Reconciliations[i].PaymentID = payment.ID
			payment.Reconciliations[i].TenantID = payment.TenantID
			if err := tx.Save(&payment.Reconciliations[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// NextName returns the next payment number
func (r *GormPaymentRepository) NextName(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return r.sequences.Next(ctx, tenantID, shared.SequencePayment, date)
}

func (r *GormPaymentRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&finance.Payment{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "partner_name", "communication"))
	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "partner_id":
			query = query.Where("partner_id = ?", value)
		case "payment_type":
			query = query.Where("payment_type = ?", value)
		case "partner_type":
			query = query.Where("partner_type = ?", value)
		}
	}
	return query
}

var (
	_ finance.AccountMoveRepository = (*GormAccountMoveRepository)(nil)
	_ finance.TaxInvoiceRepository  = (*GormTaxInvoiceRepository)(nil)
	_ finance.PaymentRepository     = (*GormPaymentRepository)(nil)
)
