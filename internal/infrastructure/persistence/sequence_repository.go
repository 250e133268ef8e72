package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownSequence is returned when a code has neither a stored nor a default sequence
var ErrUnknownSequence = shared.NewDomainError("UNKNOWN_SEQUENCE", "No sequence defined for code")

// GormSequenceGenerator implements shared.SequenceGenerator on the ir_sequences table
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next takes the next number of the sequence under a row lock
func (g *GormSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, code string, date time.Time) (string, error) {
	var name string
	err := conn(ctx, g.db).Transaction(func(tx *gorm.DB) error {
		seq, err := g.lockOrCreate(tx, tenantID, code)
		if err != nil {
			return err
		}
		name = seq.Take(date)
		return tx.Model(seq).Updates(map[string]interface{}{
			"number_next": seq.NumberNext,
			"updated_at":  seq.UpdatedAt,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// Exists reports whether the tenant already has a sequence with the code
func (g *GormSequenceGenerator) Exists(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := conn(ctx, g.db).
		Model(&shared.Sequence{}).
		Scopes(tenantScope(tenantID)).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create stores a new sequence, leaving an existing one untouched
func (g *GormSequenceGenerator) Create(ctx context.Context, seq *shared.Sequence) error {
	return conn(ctx, g.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tenant_id"}, {Name: "code"}}, DoNothing: true}).
		Create(seq).Error
}

func (g *GormSequenceGenerator) lockOrCreate(tx *gorm.DB, tenantID uuid.UUID, code string) (*shared.Sequence, error) {
	seq, err := g.lock(tx, tenantID, code)
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return seq, err
	}

	def, ok := shared.DefaultSequences[code]
	if !ok {
		return nil, ErrUnknownSequence
	}
	fresh, err := shared.NewSequence(tenantID, code, def.Name, def.Prefix, def.Padding)
	if err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "code"}},
		DoNothing: true,
	}).Create(fresh).Error; err != nil {
		return nil, err
	}
	return g.lock(tx, tenantID, code)
}

func (g *GormSequenceGenerator) lock(tx *gorm.DB, tenantID uuid.UUID, code string) (*shared.Sequence, error) {
	var seq shared.Sequence
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenantScope(tenantID)).
		Where("code = ?", code).
		First(&seq).Error; err != nil {
		return nil, notFound(err)
	}
	return &seq, nil
}

// Ensure GormSequenceGenerator implements SequenceGenerator
var _ shared.SequenceGenerator = (*GormSequenceGenerator)(nil)
