package fees

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

func setupFeesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS fee_collections (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  fee_type_id TEXT NOT NULL,
  academic_year_id TEXT NOT NULL,
  account_id TEXT,
  month INTEGER NOT NULL,
  year INTEGER NOT NULL,
  amount NUMERIC NOT NULL,
  late_fee NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  paid_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  due_date DATE,
  receipt_number TEXT,
  transaction_id TEXT,
  payment_date DATE,
  payment_method TEXT,
  collected_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	structures := `
CREATE TABLE IF NOT EXISTS fee_structures (
  id TEXT PRIMARY KEY,
  fee_type_id TEXT NOT NULL,
  academic_year_id TEXT NOT NULL,
  month INTEGER NOT NULL,
  year INTEGER NOT NULL,
  amount NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(structures).Error)
	return db
}

func insertFeeCollection(t *testing.T, db *gorm.DB, mutate func(*models.FeeCollection)) *models.FeeCollection {
	t.Helper()
	row := &models.FeeCollection{
		ID:             uuid.New(),
		StudentID:      uuid.New(),
		FeeTypeID:      uuid.New(),
		AcademicYearID: uuid.New(),
		Month:          2,
		Year:           2026,
		Amount:         decimal.RequireFromString("500.00"),
		LateFee:        decimal.Zero,
		TotalAmount:    decimal.RequireFromString("500.00"),
		Status:         enums.FeeCollectionStatusPending,
	}
	if mutate != nil {
		mutate(row)
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestFeesRepositoryExistsPaid(t *testing.T) {
	db := setupFeesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paid := insertFeeCollection(t, db, func(row *models.FeeCollection) {
		row.Status = enums.FeeCollectionStatusPaid
	})

	got, err := repo.ExistsPaid(ctx, paid.StudentID, paid.FeeTypeID, paid.Month, paid.Year)
	require.NoError(t, err)
	require.True(t, got)

	// Same student and fee type, different period.
	got, err = repo.ExistsPaid(ctx, paid.StudentID, paid.FeeTypeID, paid.Month+1, paid.Year)
	require.NoError(t, err)
	require.False(t, got)

	pending := insertFeeCollection(t, db, nil)
	got, err = repo.ExistsPaid(ctx, pending.StudentID, pending.FeeTypeID, pending.Month, pending.Year)
	require.NoError(t, err)
	require.False(t, got, "pending rows must not count as paid")
}

func TestFeesRepositoryFindByReceiptNumber(t *testing.T) {
	db := setupFeesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	receipt := "RCP-20260210-0001"
	other := "RCP-20260210-0002"
	insertFeeCollection(t, db, func(row *models.FeeCollection) { row.ReceiptNumber = &receipt })
	insertFeeCollection(t, db, func(row *models.FeeCollection) { row.ReceiptNumber = &receipt })
	insertFeeCollection(t, db, func(row *models.FeeCollection) { row.ReceiptNumber = &other })

	rows, err := repo.FindByReceiptNumber(ctx, receipt)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, receipt, *row.ReceiptNumber)
	}
}

func TestFeesRepositoryUpdateAndDelete(t *testing.T) {
	db := setupFeesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := insertFeeCollection(t, db, nil)

	require.NoError(t, repo.UpdateFeeCollection(ctx, row.ID, map[string]any{
		"status":      enums.FeeCollectionStatusPaid,
		"paid_amount": decimal.RequireFromString("500.00"),
	}))

	got, err := repo.FindFeeCollection(ctx, row.ID)
	require.NoError(t, err)
	require.Equal(t, enums.FeeCollectionStatusPaid, got.Status)
	require.True(t, got.PaidAmount.Equal(decimal.RequireFromString("500.00")))

	require.NoError(t, repo.DeleteFeeCollections(ctx, []uuid.UUID{row.ID}))
	_, err = repo.FindFeeCollection(ctx, row.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFeesRepositoryMarkOverdue(t *testing.T) {
	db := setupFeesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	past := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	overdue := insertFeeCollection(t, db, func(row *models.FeeCollection) { row.DueDate = &past })
	upcoming := insertFeeCollection(t, db, func(row *models.FeeCollection) { row.DueDate = &future })
	settled := insertFeeCollection(t, db, func(row *models.FeeCollection) {
		row.DueDate = &past
		row.Status = enums.FeeCollectionStatusPaid
	})

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows, err := repo.ListPendingPastDue(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, overdue.ID, rows[0].ID)

	updated, err := repo.MarkOverdue(ctx, []uuid.UUID{overdue.ID, upcoming.ID, settled.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, updated, "only pending rows flip, regardless of due date")

	got, err := repo.FindFeeCollection(ctx, overdue.ID)
	require.NoError(t, err)
	require.Equal(t, enums.FeeCollectionStatusOverdue, got.Status)

	got, err = repo.FindFeeCollection(ctx, settled.ID)
	require.NoError(t, err)
	require.Equal(t, enums.FeeCollectionStatusPaid, got.Status, "paid rows are untouched")
}

func TestFeesRepositoryLockReceiptDayOutsidePostgres(t *testing.T) {
	db := setupFeesTestDB(t)
	repo := NewRepository(db)

	// sqlite has one writer at a time, so the day lock is a no-op there.
	require.NoError(t, repo.LockReceiptDay(context.Background(), "RCP-20260210-"))
}

func TestFeesRepositoryFindFeeStructure(t *testing.T) {
	db := setupFeesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	structure := &models.FeeStructure{
		ID:             uuid.New(),
		FeeTypeID:      uuid.New(),
		AcademicYearID: uuid.New(),
		Month:          3,
		Year:           2026,
		Amount:         decimal.RequireFromString("750.00"),
	}
	require.NoError(t, db.Create(structure).Error)

	got, err := repo.FindFeeStructure(ctx, structure.ID)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(structure.Amount))

	_, err = repo.FindFeeStructure(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
