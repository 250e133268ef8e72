package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/integration"
	"github.com/qm/backend/internal/domain/inventory"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockGorm opens a gorm session over a mocked SQL connection
func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, sqlMock, mockDB
}

type stubSequences struct {
	mock.Mock
}

func (s *stubSequences) Next(ctx context.Context, tenantID uuid.UUID, code string, date time.Time) (string, error) {
	args := s.Called(ctx, tenantID, code, date)
	return args.String(0), args.Error(1)
}

func (s *stubSequences) Exists(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := s.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (s *stubSequences) Create(ctx context.Context, seq *shared.Sequence) error {
	return s.Called(ctx, seq).Error(0)
}

func TestGormCategoryRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds category of the tenant", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormCategoryRepository(db)

		tenantID, id := uuid.New(), uuid.New()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "code", "name", "full_code", "complete_name", "level"}).
			AddRow(id, tenantID, "01", "Electronics", "01", "Electronics", 0)
		sqlMock.ExpectQuery(`SELECT \* FROM "product_categories" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, id, 1).
			WillReturnRows(rows)

		category, err := repo.FindByIDForTenant(context.Background(), tenantID, id)
		require.NoError(t, err)
		assert.Equal(t, id, category.ID)
		assert.Equal(t, "Electronics", category.CompleteName)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to ErrNotFound", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormCategoryRepository(db)

		sqlMock.ExpectQuery(`SELECT \* FROM "product_categories"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestGormCategoryRepository_DeleteForTenant(t *testing.T) {
	db, sqlMock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormCategoryRepository(db)

	sqlMock.ExpectExec(`DELETE FROM "product_categories" WHERE tenant_id = \$1 AND id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteForTenant(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestGormCategoryRepository_FindByIDsEmpty(t *testing.T) {
	db, sqlMock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormCategoryRepository(db)

	categories, err := repo.FindByIDs(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, categories)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestGormStockQuantRepository_SaveWithLock(t *testing.T) {
	newQuant := func(t *testing.T) *inventory.StockQuant {
		q, err := inventory.NewStockQuant(uuid.New(), uuid.New(), uuid.New())
		require.NoError(t, err)
		q.Quantity = decimal.NewFromInt(5)
		return q
	}

	t.Run("advances the version when the row matched", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormStockQuantRepository(db)
		q := newQuant(t)

		sqlMock.ExpectExec(`UPDATE "stock_quants" SET .* WHERE .*version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), q))
		assert.Equal(t, 2, q.Version)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("reports a concurrent modification", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormStockQuantRepository(db)

		sqlMock.ExpectExec(`UPDATE "stock_quants" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), newQuant(t))
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestGormSequenceGenerator_Next(t *testing.T) {
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	t.Run("takes the next number of a stored sequence", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		gen := NewGormSequenceGenerator(db)
		tenantID := uuid.New()

		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`SELECT \* FROM "ir_sequences" WHERE tenant_id = \$1 AND code = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, shared.SequenceSaleOrder, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "code", "name", "prefix", "padding", "number_next"}).
				AddRow(uuid.New(), tenantID, shared.SequenceSaleOrder, "Sales Order", "SO-%(year)s-", 5, 42))
		sqlMock.ExpectExec(`UPDATE "ir_sequences" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		sqlMock.ExpectCommit()

		name, err := gen.Next(context.Background(), tenantID, shared.SequenceSaleOrder, date)
		require.NoError(t, err)
		assert.Equal(t, "SO-2026-00042", name)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("refuses a code without a default", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		gen := NewGormSequenceGenerator(db)

		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`SELECT \* FROM "ir_sequences"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		sqlMock.ExpectRollback()

		_, err := gen.Next(context.Background(), uuid.New(), "no.such.code", date)
		assert.ErrorIs(t, err, ErrUnknownSequence)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestGormAccountMoveRepository_NextName(t *testing.T) {
	db, _, mockDB := newMockGorm(t)
	defer mockDB.Close()
	seqs := new(stubSequences)
	repo := NewGormAccountMoveRepository(db, seqs)
	tenantID := uuid.New()
	date := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	seqs.On("Next", mock.Anything, tenantID, shared.SequenceMoveInInvoice, date).Return("BILL/2026/00003", nil)

	name, err := repo.NextName(context.Background(), tenantID, finance.MoveTypeInInvoice, date)
	require.NoError(t, err)
	assert.Equal(t, "BILL/2026/00003", name)

	_, err = repo.NextName(context.Background(), tenantID, finance.MoveType("bogus"), date)
	assert.Error(t, err)
	seqs.AssertExpectations(t)
}

func TestGormExternalMappingRepository_LastWriteDate(t *testing.T) {
	t.Run("returns the newest imported write date", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormExternalMappingRepository(db)
		latest := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

		sqlMock.ExpectQuery(`SELECT MAX\(external_write\) AS latest FROM "external_mappings"`).
			WillReturnRows(sqlmock.NewRows([]string{"latest"}).AddRow(latest))

		got, err := repo.LastWriteDate(context.Background(), uuid.New(), integration.LegacyModelPartner)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, latest.Equal(*got))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("returns nil before the first import", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormExternalMappingRepository(db)

		sqlMock.ExpectQuery(`SELECT MAX\(external_write\)`).
			WillReturnRows(sqlmock.NewRows([]string{"latest"}).AddRow(nil))

		got, err := repo.LastWriteDate(context.Background(), uuid.New(), integration.LegacyModelPartner)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestGormCompanyRepository_GetAllActiveTenantIDs(t *testing.T) {
	db, sqlMock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormCompanyRepository(db)
	a, b := uuid.New(), uuid.New()

	sqlMock.ExpectQuery(`SELECT "id" FROM "companies" ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a).AddRow(b))

	ids, err := repo.GetAllActiveTenantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestGormPlatformOrderRepository_FindByReferences(t *testing.T) {
	t.Run("skips the query without references", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormPlatformOrderRepository(db)

		got, err := repo.FindByReferences(context.Background(), uuid.New(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("keys orders by reference", func(t *testing.T) {
		db, sqlMock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormPlatformOrderRepository(db)
		tenantID := uuid.New()

		sqlMock.ExpectQuery(`SELECT \* FROM "hoaya_orders" WHERE tenant_id = \$1 AND order_reference IN \(\$2,\$3\)`).
			WithArgs(tenantID, "R-1", "R-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "order_reference", "brand"}).
				AddRow(uuid.New(), tenantID, "R-2", "acme"))

		got, err := repo.FindByReferences(context.Background(), tenantID, []string{"R-1", "R-2"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "acme", got["R-2"].Brand)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestSearchScope(t *testing.T) {
	db, sqlMock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormPartnerRepository(db)
	tenantID := uuid.New()

	sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "partners" WHERE tenant_id = \$1 AND \(name ILIKE \$2 OR ref ILIKE \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountForTenant(context.Background(), tenantID, shared.Filter{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
