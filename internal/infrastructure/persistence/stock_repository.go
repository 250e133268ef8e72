package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPickingRepository implements PickingRepository using GORM
type GormPickingRepository struct {
	db *gorm.DB
}

// NewGormPickingRepository creates a new GormPickingRepository
func NewGormPickingRepository(db *gorm.DB) *GormPickingRepository {
	return &GormPickingRepository{db: db}
}

// FindByIDForTenant finds a picking with its moves
func (r *GormPickingRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Picking, error) {
	var p inventory.Picking
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Preload("Moves", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindAllForTenant lists pickings without moves
func (r *GormPickingRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.PickingFilter) ([]inventory.Picking, error) {
	var pickings []inventory.Picking
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(paginate(filter.Filter, PickingSortFields, "scheduled_date")).
		Find(&pickings).Error; err != nil {
		return nil, err
	}
	return pickings, nil
}

// CountForTenant counts pickings matching the filter
func (r *GormPickingRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.PickingFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsForReturnLines reports whether a move already brings back any of the lines
func (r *GormPickingRepository) ExistsForReturnLines(ctx context.Context, tenantID uuid.UUID, returnLineIDs []uuid.UUID) (bool, error) {
	if len(returnLineIDs) == 0 {
		return false, nil
	}
	var count int64
	if err := conn(ctx, r.db).
		Model(&inventory.StockMove{}).
		Scopes(tenantScope(tenantID)).
		Where("sale_return_line_id IN ?", returnLineIDs).
		Where("state <> ?", inventory.MoveStateCancel).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a picking and its moves
func (r *GormPickingRepository) Save(ctx context.Context, p *inventory.Picking) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		return saveStockMoves(tx, p)
	})
}

// SaveWithLock updates an existing picking if its version is unchanged
func (r *GormPickingRepository) SaveWithLock(ctx context.Context, p *inventory.Picking) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, p); err != nil {
			return err
		}
		return saveStockMoves(tx, p)
	})
}

// SaveGroup creates or updates a procurement group
func (r *GormPickingRepository) SaveGroup(ctx context.Context, g *inventory.ProcurementGroup) error {
	return conn(ctx, r.db).Save(g).Error
}

func saveStockMoves(tx *gorm.DB, p *inventory.Picking) error {
	ids := uuidsOf(p.Moves, func(m *inventory.StockMove) uuid.UUID { return m.ID })
	if err := deleteOrphans[inventory.StockMove](tx, "picking_id", p.ID, ids); err != nil {
		return err
	}
	for i := range p.Moves {
		id := p.ID
		p.Moves[i].PickingID = &id
		p.Moves[i].TenantID = p.TenantID
		if err := tx.Save(&p.Moves[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormPickingRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter inventory.PickingFilter) *gorm.DB {
	query := conn(ctx, r.db).
		Model(&inventory.Picking{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "name", "origin", "express_code"))
	if filter.PickingTypeID != nil {
		query = query.Where("picking_type_id = ?", *filter.PickingTypeID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", filter.Origin)
	}
	if filter.ExpressCode != "" {
		query = query.Where("express_code = ?", filter.ExpressCode)
	}
	return query
}

// GormStockQuantRepository implements StockQuantRepository using GORM
type GormStockQuantRepository struct {
	db *gorm.DB
}

// NewGormStockQuantRepository creates a new GormStockQuantRepository
func NewGormStockQuantRepository(db *gorm.DB) *GormStockQuantRepository {
	return &GormStockQuantRepository{db: db}
}

// FindByLocation returns the quants held at a location, optionally for some products
func (r *GormStockQuantRepository) FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID, productIDs []uuid.UUID) ([]inventory.StockQuant, error) {
	query := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("location_id = ?", locationID)
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	var quants []inventory.StockQuant
	if err := query.Find(&quants).Error; err != nil {
		return nil, err
	}
	return quants, nil
}

// FindOrCreate returns the quant for the pair, inserting an empty one when missing.
// Concurrent callers race on the unique index and all read back the same row.
func (r *GormStockQuantRepository) FindOrCreate(ctx context.Context, tenantID, locationID, productID uuid.UUID) (*inventory.StockQuant, error) {
	fresh, err := inventory.NewStockQuant(tenantID, locationID, productID)
	if err != nil {
		return nil, err
	}
	db := conn(ctx, r.db)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "location_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(fresh).Error; err != nil {
		return nil, err
	}

	var quant inventory.StockQuant
	if err := db.Scopes(tenantScope(tenantID)).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&quant).Error; err != nil {
		return nil, notFound(err)
	}
	return &quant, nil
}

// SaveWithLock updates a quant if its version is unchanged
func (r *GormStockQuantRepository) SaveWithLock(ctx context.Context, q *inventory.StockQuant) error {
	return saveVersioned(conn(ctx, r.db), q)
}

var (
	_ inventory.PickingRepository    = (*GormPickingRepository)(nil)
	_ inventory.StockQuantRepository = (*GormStockQuantRepository)(nil)
)
