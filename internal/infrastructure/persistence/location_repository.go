package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location of a tenant
func (r *GormLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Location, error) {
	var loc inventory.Location
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&loc).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

// FindFirstByKind returns the oldest active location of the kind
func (r *GormLocationRepository) FindFirstByKind(ctx context.Context, tenantID uuid.UUID, kind inventory.LocationKind) (*inventory.Location, error) {
	var loc inventory.Location
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("usage = ? AND active = ?", kind, true).
		Order("created_at ASC").
		First(&loc).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, loc *inventory.Location) error {
	return conn(ctx, r.db).Save(loc).Error
}

// FindDefaultWarehouse returns the company's first warehouse
func (r *GormLocationRepository) FindDefaultWarehouse(ctx context.Context, tenantID uuid.UUID) (*inventory.Warehouse, error) {
	var w inventory.Warehouse
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Order("created_at ASC").
		First(&w).Error; err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

// SaveWarehouse creates or updates a warehouse
func (r *GormLocationRepository) SaveWarehouse(ctx context.Context, w *inventory.Warehouse) error {
	return conn(ctx, r.db).Save(w).Error
}

// GormPickingTypeRepository implements PickingTypeRepository using GORM
type GormPickingTypeRepository struct {
	db *gorm.DB
}

// NewGormPickingTypeRepository creates a new GormPickingTypeRepository
func NewGormPickingTypeRepository(db *gorm.DB) *GormPickingTypeRepository {
	return &GormPickingTypeRepository{db: db}
}

// FindByID finds an operation type of a tenant
func (r *GormPickingTypeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.PickingType, error) {
	var pt inventory.PickingType
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&pt).Error; err != nil {
		return nil, notFound(err)
	}
	return &pt, nil
}

// FindByCode returns the oldest active operation type with the code
func (r *GormPickingTypeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code inventory.PickingTypeCode) (*inventory.PickingType, error) {
	var pt inventory.PickingType
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("code = ? AND active = ?", code, true).
		Order("created_at ASC").
		First(&pt).Error; err != nil {
		return nil, notFound(err)
	}
	return &pt, nil
}

// ExistsByCode reports whether the tenant has an operation type with the code
func (r *GormPickingTypeRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code inventory.PickingTypeCode) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&inventory.PickingType{}).
		Scopes(tenantScope(tenantID)).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an operation type
func (r *GormPickingTypeRepository) Save(ctx context.Context, pt *inventory.PickingType) error {
	return conn(ctx, r.db).Save(pt).Error
}

// GormStockRuleRepository implements StockRuleRepository using GORM
type GormStockRuleRepository struct {
	db *gorm.DB
}

// NewGormStockRuleRepository creates a new GormStockRuleRepository
func NewGormStockRuleRepository(db *gorm.DB) *GormStockRuleRepository {
	return &GormStockRuleRepository{db: db}
}

// FindByRoute returns the active rule of the route delivering to locationID
func (r *GormStockRuleRepository) FindByRoute(ctx context.Context, tenantID uuid.UUID, route string, locationID uuid.UUID) (*inventory.StockRule, error) {
	var rule inventory.StockRule
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("route = ? AND location_id = ? AND active = ?", route, locationID, true).
		Order("created_at ASC").
		First(&rule).Error; err != nil {
		return nil, notFound(err)
	}
	return &rule, nil
}

// ExistsByRoute reports whether the tenant has any rule on the route
func (r *GormStockRuleRepository) ExistsByRoute(ctx context.Context, tenantID uuid.UUID, route string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&inventory.StockRule{}).
		Scopes(tenantScope(tenantID)).
		Where("route = ?", route).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a stock rule
func (r *GormStockRuleRepository) Save(ctx context.Context, rule *inventory.StockRule) error {
	return conn(ctx, r.db).Save(rule).Error
}

var (
	_ inventory.LocationRepository    = (*GormLocationRepository)(nil)
	_ inventory.PickingTypeRepository = (*GormPickingTypeRepository)(nil)
	_ inventory.StockRuleRepository   = (*GormStockRuleRepository)(nil)
)
