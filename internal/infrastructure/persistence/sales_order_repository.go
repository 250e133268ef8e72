package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/domain/trade"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func withSaleLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC, created_at ASC") }).
		Preload("Lines.Taxes")
}

// FindByIDForTenant finds a sales order with its lines
func (r *GormSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withSaleLines).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByIDs loads several sales orders with their lines
func (r *GormSalesOrderRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]trade.SalesOrder, error) {
	if len(ids) == 0 {
		return []trade.SalesOrder{}, nil
	}
	var orders []trade.SalesOrder
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withSaleLines).
		Where("id IN ?", ids).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByOrderNumber finds a sales order by its number
func (r *GormSalesOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withSaleLines).
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByLineIDs returns the orders owning any of the sale lines
func (r *GormSalesOrderRepository) FindByLineIDs(ctx context.Context, tenantID uuid.UUID, lineIDs []uuid.UUID) ([]trade.SalesOrder, error) {
	if len(lineIDs) == 0 {
		return []trade.SalesOrder{}, nil
	}
	owners := r.db.Model(&trade.SalesOrderLine{}).Select("order_id").Where("id IN ?", lineIDs)
	var orders []trade.SalesOrder
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID), withSaleLines).
		Where("id IN (?)", owners).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAllForTenant lists sales orders without lines
func (r *GormSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) ([]trade.SalesOrder, error) {
	var orders []trade.SalesOrder
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter.Filter, SalesOrderSortFields, "date_order")).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountForTenant counts sales orders matching the filter
func (r *GormSalesOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a sales order and its lines
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return err
		}
		return saveSaleLines(tx, order)
	})
}

// SaveWithLock updates an existing order if its version is unchanged
func (r *GormSalesOrderRepository) SaveWithLock(ctx context.Context, order *trade.SalesOrder) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, order); err != nil {
			return err
		}
		return saveSaleLines(tx, order)
	})
}

func saveSaleLines(tx *gorm.DB, order *trade.SalesOrder) error {
	ids := uuidsOf(order.Lines, func(l *trade.SalesOrderLine) uuid.UUID { return l.ID })
	if err := deleteOrphans[trade.SalesOrderLine](tx, "order_id", order.ID, ids); err != nil {
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
	return nil
}

func (r *GormSalesOrderRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&trade.SalesOrder{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "order_number", "customer_name", "outer_name"))
	if filter.CustomerID != nil {
		query = query.Where("partner_id = ?", *filter.CustomerID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.InvoiceState != nil {
		query = query.Where("invoice_state = ?", *filter.InvoiceState)
	}
	if filter.DateFrom != nil {
		query = query.Where("date_order >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date_order <= ?", *filter.DateTo)
	}
	return query
}

// GormPlatformOrderRepository implements PlatformOrderRepository using GORM
type GormPlatformOrderRepository struct {
	db *gorm.DB
}

// NewGormPlatformOrderRepository creates a new GormPlatformOrderRepository
func NewGormPlatformOrderRepository(db *gorm.DB) *GormPlatformOrderRepository {
	return &GormPlatformOrderRepository{db: db}
}

// FindByIDForTenant finds a platform order by ID within a tenant
func (r *GormPlatformOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PlatformOrder, error) {
	var order trade.PlatformOrder
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByReferences returns the existing orders keyed by order reference
func (r *GormPlatformOrderRepository) FindByReferences(ctx context.Context, tenantID uuid.UUID, refs []string) (map[string]*trade.PlatformOrder, error) {
	out := make(map[string]*trade.PlatformOrder, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	var orders []trade.PlatformOrder
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("order_reference IN ?", refs).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	for i := range orders {
		out[orders[i].OrderReference] = &orders[i]
	}
	return out, nil
}

// FindAllForTenant lists platform orders
func (r *GormPlatformOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PlatformOrder, error) {
	var orders []trade.PlatformOrder
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter, PlatformOrderSortFields, "date_order")).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountForTenant counts platform orders matching the filter
func (r *GormPlatformOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a platform order
func (r *GormPlatformOrderRepository) Save(ctx context.Context, order *trade.PlatformOrder) error {
	return conn(ctx, r.db).Save(order).Error
}

func (r *GormPlatformOrderRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&trade.PlatformOrder{}).
		Scopes(tenantScope(tenantID),
			search(filter.Search, "name", "order_reference", "tracking_number", "courier_tracking_number"))
	for key, value := range filter.Filters {
		switch key {
		case "brand":
			query = query.Where("brand = ?", value)
		case "state":
			query = query.Where("state = ?", value)
		}
	}
	return query
}

var (
	_ trade.SalesOrderRepository    = (*GormSalesOrderRepository)(nil)
	_ trade.PlatformOrderRepository = (*GormPlatformOrderRepository)(nil)
)
