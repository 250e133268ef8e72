package persistence

import (
	"errors"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tenantScope restricts a query to one company's rows
func tenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// paginate applies a whitelisted ordering plus the filter's page window
func paginate(filter shared.Filter, allowed map[string]bool, defaultField string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := ValidateSortField(filter.OrderBy, allowed, defaultField)
		db = db.Order(field + " " + ValidateSortOrder(filter.OrderDir))
		if filter.PageSize > 0 {
			db = db.Offset(filter.Offset()).Limit(filter.PageSize)
		}
		return db
	}
}

// search applies an ILIKE match over the given columns
func search(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + term + "%"
		cond := db.Session(&gorm.Session{NewDB: true})
		for i, col := range columns {
			if i == 0 {
				cond = cond.Where(col+" ILIKE ?", pattern)
			} else {
				cond = cond.Or(col+" ILIKE ?", pattern)
			}
		}
		return db.Where(cond)
	}
}

// notFound maps gorm's missing-row error onto the domain sentinel
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// deleteOrphans removes children of parentID whose IDs are not in keep
func deleteOrphans[T any](tx *gorm.DB, foreignKey string, parentID uuid.UUID, keep []uuid.UUID) error {
	q := tx.Where(foreignKey+" = ?", parentID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(new(T)).Error
}

// saveVersioned writes the aggregate root if nobody bumped its version since
// it was loaded, then advances the version
func saveVersioned(tx *gorm.DB, root shared.AggregateRoot) error {
	expected := root.GetVersion()
	root.IncrementVersion()
	result := tx.Model(root).
		Omit(clause.Associations).
		Where("version = ?", expected).
		Select("*").
		Updates(root)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// uuidsOf collects IDs using the accessor
func uuidsOf[T any](items []T, id func(*T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i := range items {
		out[i] = id(&items[i])
	}
	return out
}
