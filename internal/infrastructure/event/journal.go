package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JournalEntry is one published domain event as stored in event_journal
type JournalEntry struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	EventID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	EventType     string         `gorm:"size:100;not null;index" json:"event_type"`
	AggregateType string         `gorm:"size:100;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	Payload       datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	OccurredAt    time.Time      `gorm:"not null" json:"occurred_at"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "event_journal"
}

// Journal records every event it receives. Subscribe it without event types.
type Journal struct {
	db *gorm.DB
}

// NewJournal creates a journal writing through db
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// EventTypes is empty so the bus delivers every event
func (j *Journal) EventTypes() []string {
	return nil
}

// Handle appends the event; a redelivered event is ignored
func (j *Journal) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	entry := &JournalEntry{
		ID:            uuid.New(),
		TenantID:      event.TenantID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		Payload:       datatypes.JSON(payload),
		OccurredAt:    event.OccurredAt(),
	}
	return j.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(entry).Error
}

// FindByAggregate returns the history of one record, oldest first
func (j *Journal) FindByAggregate(ctx context.Context, tenantID, aggregateID uuid.UUID, limit int) ([]JournalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []JournalEntry
	if err := j.db.WithContext(ctx).
		Where("tenant_id = ? AND aggregate_id = ?", tenantID, aggregateID).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var _ shared.EventHandler = (*Journal)(nil)
