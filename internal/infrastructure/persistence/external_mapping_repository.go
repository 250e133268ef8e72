package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/integration"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExternalMappingRepository implements ExternalMappingRepository using GORM
type GormExternalMappingRepository struct {
	db *gorm.DB
}

// NewGormExternalMappingRepository creates a new GormExternalMappingRepository
func NewGormExternalMappingRepository(db *gorm.DB) *GormExternalMappingRepository {
	return &GormExternalMappingRepository{db: db}
}

// FindByExternalID finds the mapping of a legacy record
func (r *GormExternalMappingRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, model integration.LegacyModel, externalID int64) (*integration.ExternalMapping, error) {
	var m integration.ExternalMapping
	if err := conn(ctx, r.db).
		Scopes(tenantScope(tenantID)).
		Where("model = ? AND external_id = ?", model, externalID).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// LastWriteDate returns the newest legacy write date successfully imported for model
func (r *GormExternalMappingRepository) LastWriteDate(ctx context.Context, tenantID uuid.UUID, model integration.LegacyModel) (*time.Time, error) {
	var row struct {
		Latest *time.Time
	}
	if err := conn(ctx, r.db).
		Model(&integration.ExternalMapping{}).
		Scopes(tenantScope(tenantID)).
		Select("MAX(external_write) AS latest").
		Where("model = ? AND last_sync_status = ?", model, integration.SyncStatusSuccess).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	return row.Latest, nil
}

// Save upserts the mapping on its (tenant, model, external id) key
func (r *GormExternalMappingRepository) Save(ctx context.Context, m *integration.ExternalMapping) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "model"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"local_id", "external_write", "last_sync_at", "last_sync_status", "last_sync_error", "updated_at",
		}),
	}).Create(m).Error
}

// Ensure GormExternalMappingRepository implements ExternalMappingRepository
var _ integration.ExternalMappingRepository = (*GormExternalMappingRepository)(nil)
