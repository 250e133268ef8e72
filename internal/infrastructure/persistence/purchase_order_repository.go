package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByIDForTenant finds a purchase order with its lines and linked sales orders
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Lines.Taxes").
		Preload("SaleOrders").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindAllForTenant lists purchase orders without lines
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter.Filter, PurchaseOrderSortFields, "date_order")).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountForTenant counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindLinesByRequestIDs returns the purchase lines drafted from the requests
// with the state of the order holding them
func (r *GormPurchaseOrderRepository) FindLinesByRequestIDs(ctx context.Context, tenantID uuid.UUID, requestIDs []uuid.UUID) ([]trade.RequestPurchaseLine, error) {
	if len(requestIDs) == 0 {
		return []trade.RequestPurchaseLine{}, nil
	}
	var lines []trade.RequestPurchaseLine
	if err := conn(ctx, r.db).
		Table("purchase_order_lines").
		Select("purchase_order_lines.*, purchase_orders.state AS order_state").
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_lines.order_id").
		Where("purchase_order_lines.tenant_id = ?", tenantID).
		Where("purchase_order_lines.request_id IN ?", requestIDs).
		Order("purchase_order_lines.created_at ASC").
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// Save creates or updates a purchase order, its lines and sales order links
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return err
		}
		return savePurchaseChildren(tx, order)
	})
}

// SaveWithLock updates an existing order if its version is unchanged
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, order); err != nil {
			return err
		}
		return savePurchaseChildren(tx, order)
	})
}

func savePurchaseChildren(tx *gorm.DB, order *trade.PurchaseOrder) error {
	ids := uuidsOf(order.Lines, func(l *trade.PurchaseOrderLine) uuid.UUID { return l.ID })
	if err := deleteOrphans[trade.PurchaseOrderLine](tx, "order_id", order.ID, ids); err != nil {
		return err
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		line.TenantID = order.TenantID
		if err := tx.Omit(clause.Associations).Save(line).Error; err != nil {
			return err
		}
		if err := tx.Model(line).Association("Taxes").Replace(line.Taxes); err != nil {
			return err
		}
	}

	if err := tx.Where("purchase_order_id = ?", order.ID).Delete(&trade.PurchaseOrderSaleOrder{}).Error; err != nil {
		return err
	}
	if len(order.SaleOrders) == 0 {
		return nil
	}
	for i := range order.SaleOrders {
		order.SaleOrders[i].PurchaseOrderID = order.ID
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&order.SaleOrders).Error
}

func (r *GormPurchaseOrderRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&trade.PurchaseOrder{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "order_number", "vendor_name", "origin"))
	if filter.VendorID != nil {
		query = query.Where("partner_id = ?", *filter.VendorID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.PaymentState != nil {
		query = query.Where("payment_state = ?", *filter.PaymentState)
	}
	if filter.IsDropshipping != nil {
		query = query.Where("is_dropshipping = ?", *filter.IsDropshipping)
	}
	return query
}

// GormPurchaseRequestRepository implements PurchaseRequestRepository using GORM
type GormPurchaseRequestRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRequestRepository creates a new GormPurchaseRequestRepository
func NewGormPurchaseRequestRepository(db *gorm.DB) *GormPurchaseRequestRepository {
	return &GormPurchaseRequestRepository{db: db}
}

// FindByIDForTenant finds a purchase request by ID within a tenant
func (r *GormPurchaseRequestRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseRequest, error) {
	var req trade.PurchaseRequest
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// FindByIDs loads several purchase requests
func (r *GormPurchaseRequestRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]trade.PurchaseRequest, error) {
	if len(ids) == 0 {
		return []trade.PurchaseRequest{}, nil
	}
	var reqs []trade.PurchaseRequest
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// FindOpenBySaleLine returns the open request raised for the sale line
func (r *GormPurchaseRequestRepository) FindOpenBySaleLine(ctx context.Context, tenantID, saleLineID uuid.UUID) (*trade.PurchaseRequest, error) {
	var req trade.PurchaseRequest
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("sale_line_id = ? AND state = ?", saleLineID, trade.RequestStateOpen).
		Order("created_at DESC").
		First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// FindAllForTenant lists purchase requests
func (r *GormPurchaseRequestRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.RequestFilter) ([]trade.PurchaseRequest, error) {
	var reqs []trade.PurchaseRequest
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter.Filter, PurchaseRequestSortFields, "created_at")).
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// CountForTenant counts purchase requests matching the filter
func (r *GormPurchaseRequestRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.RequestFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a purchase request
func (r *GormPurchaseRequestRepository) Save(ctx context.Context, request *trade.PurchaseRequest) error {
	return conn(ctx, r.db).Save(request).Error
}

// SaveBatch writes several requests in one transaction
func (r *GormPurchaseRequestRepository) SaveBatch(ctx context.Context, requests []trade.PurchaseRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for i := range requests {
			if err := tx.Save(&requests[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormPurchaseRequestRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter trade.RequestFilter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&trade.PurchaseRequest{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "sale_order_number"))
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.SaleOrderID != nil {
		query = query.Where("sale_order_id = ?", *filter.SaleOrderID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.IsDropshipping != nil {
		query = query.Where("is_dropshipping = ?", *filter.IsDropshipping)
	}
	return query
}

// GormRMARepository implements RMARepository using GORM
type GormRMARepository struct {
	db *gorm.DB
}

// NewGormRMARepository creates a new GormRMARepository
func NewGormRMARepository(db *gorm.DB) *GormRMARepository {
	return &GormRMARepository{db: db}
}

func withRMALines(db *gorm.DB) *gorm.DB {
	return db.Preload("ReturnLines").Preload("ExchangeLines")
}

// FindByIDForTenant finds an RMA with its return and exchange lines
func (r *GormRMARepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.RMA, error) {
	var rma trade.RMA
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withRMALines).
		Where("id = ?", id).
		First(&rma).Error; err != nil {
		return nil, notFound(err)
	}
	return &rma, nil
}

// FindAllForTenant lists RMAs without lines
func (r *GormRMARepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.RMA, error) {
	var rmas []trade.RMA
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, RMASortFields, "created_at")).
		Find(&rmas).Error; err != nil {
		return nil, err
	}
	return rmas, nil
}

// CountForTenant counts RMAs matching the filter
func (r *GormRMARepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBySaleOrder returns the RMAs raised against a sales order
func (r *GormRMARepository) FindBySaleOrder(ctx context.Context, tenantID, saleOrderID uuid.UUID) ([]trade.RMA, error) {
	var rmas []trade.RMA
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withRMALines).
		Where("sale_order_id = ?", saleOrderID).
		Order("created_at ASC").
		Find(&rmas).Error; err != nil {
		return nil, err
	}
	return rmas, nil
}

// Save writes the RMA and both of its line sets
func (r *GormRMARepository) Save(ctx context.Context, rma *trade.RMA) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(rma).Error; err != nil {
			return err
		}

		returnIDs := uuidsOf(rma.ReturnLines, func(l *trade.RMAReturnItem) uuid.UUID { return l.ID })
		if err := deleteOrphans[trade.RMAReturnItem](tx, "rma_id", rma.ID, returnIDs); err != nil {
			return err
		}
		for i := range rma.ReturnLines {
			rma.ReturnLines[i].RMAID = rma.ID
			rma.ReturnLines[i].TenantID = rma.TenantID
			if err := tx.Save(&rma.ReturnLines[i]).Error; err != nil {
				return err
			}
		}

		exchangeIDs := uuidsOf(rma.ExchangeLines, func(l *trade.RMAExchangeItem) uuid.UUID { return l.ID })
		if err := deleteOrphans[trade.RMAExchangeItem](tx, "rma_id", rma.ID, exchangeIDs); err != nil {
			return err
		}
		for i := range rma.ExchangeLines {
			rma.ExchangeLines[i].RMAID = rma.ID
			rma.ExchangeLines[i].TenantID = rma.TenantID
			if err := tx.Save(&rma.ExchangeLines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRMARepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&trade.RMA{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "comment"))
	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "rma_type":
			query = query.Where("rma_type = ?", value)
		case "sale_order_id":
			query = query.Where("sale_order_id = ?", value)
		case "partner_id":
			query = query.Where("partner_id = ?", value)
		}
	}
	return query
}

var (
	_ trade.PurchaseOrderRepository   = (*GormPurchaseOrderRepository)(nil)
	_ trade.PurchaseRequestRepository = (*GormPurchaseRequestRepository)(nil)
	_ trade.RMARepository             = (*GormRMARepository)(nil)
)
