package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExternalMapping links a legacy record to the local aggregate it was
// imported into. The pair (model, external id) is unique per tenant.
type ExternalMapping struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_external_mapping_key,priority:1"`
	Model          LegacyModel `gorm:"type:varchar(50);not null;uniqueIndex:idx_external_mapping_key,priority:2"`
	ExternalID     int64       `gorm:"not null;uniqueIndex:idx_external_mapping_key,priority:3"`
	LocalID        uuid.UUID   `gorm:"type:uuid;not null;index"`
	ExternalWrite  *time.Time
	LastSyncAt     *time.Time
	LastSyncStatus SyncStatus `gorm:"type:varchar(20);not null"`
	LastSyncError  string     `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (ExternalMapping) TableName() string {
	return "external_mappings"
}

var (
	ErrMappingInvalidTenantID   = errors.New("integration: invalid tenant ID")
	ErrMappingInvalidLocalID    = errors.New("integration: invalid local ID")
	ErrMappingInvalidModel      = errors.New("integration: invalid legacy model")
	ErrMappingInvalidExternalID = errors.New("integration: invalid external ID")
)

// NewExternalMapping creates a mapping for a freshly imported record
func NewExternalMapping(tenantID uuid.UUID, model LegacyModel, externalID int64, localID uuid.UUID) (*ExternalMapping, error) {
	m := &ExternalMapping{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Model:          model,
		ExternalID:     externalID,
		LocalID:        localID,
		LastSyncStatus: SyncStatusPending,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	return m, nil
}

// Validate validates the mapping
func (m *ExternalMapping) Validate() error {
	if m.TenantID == uuid.Nil {
		return ErrMappingInvalidTenantID
	}
	if !m.Model.IsValid() {
		return ErrMappingInvalidModel
	}
	if m.ExternalID <= 0 {
		return ErrMappingInvalidExternalID
	}
	if m.LocalID == uuid.Nil {
		return ErrMappingInvalidLocalID
	}
	return nil
}

// IsStale reports whether the legacy record changed after the last import
func (m *ExternalMapping) IsStale(writeDate time.Time) bool {
	if m.ExternalWrite == nil || m.LastSyncStatus != SyncStatusSuccess {
		return true
	}
	return writeDate.After(*m.ExternalWrite)
}

// RecordSyncSuccess records a successful import of the version written at writeDate
func (m *ExternalMapping) RecordSyncSuccess(writeDate time.Time) {
	now := time.Now()
	m.ExternalWrite = &writeDate
	m.LastSyncAt = &now
	m.LastSyncStatus = SyncStatusSuccess
	m.LastSyncError = ""
	m.UpdatedAt = now
}

// RecordSyncFailure records a failed import
func (m *ExternalMapping) RecordSyncFailure(errMsg string) {
	now := time.Now()
	m.LastSyncAt = &now
	m.LastSyncStatus = SyncStatusFailed
	m.LastSyncError = errMsg
	m.UpdatedAt = now
}

// ExternalMappingRepository persists mappings
type ExternalMappingRepository interface {
	// FindByExternalID returns shared.ErrNotFound when the record was never imported
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, model LegacyModel, externalID int64) (*ExternalMapping, error)
	// LastWriteDate returns the newest legacy write date imported for model, nil when none
	LastWriteDate(ctx context.Context, tenantID uuid.UUID, model LegacyModel) (*time.Time, error)
	Save(ctx context.Context, m *ExternalMapping) error
}

// SyncStatus represents the synchronization status
type SyncStatus string

const (
	// SyncStatusPending indicates sync is pending
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusSuccess indicates sync was successful
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates partial sync success
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates sync failed
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}
