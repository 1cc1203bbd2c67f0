package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// Repository manages persistence for fee collections and their lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindFeeCollection(ctx context.Context, id uuid.UUID) (*models.FeeCollection, error)
	FindFeeCollections(ctx context.Context, ids []uuid.UUID) ([]models.FeeCollection, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) ([]models.FeeCollection, error)
	FindFeeStructure(ctx context.Context, id uuid.UUID) (*models.FeeStructure, error)
	FindFeeType(ctx context.Context, id uuid.UUID) (*models.FeeType, error)
	ExistsPaid(ctx context.Context, studentID, feeTypeID uuid.UUID, month, year int) (bool, error)
	CreateFeeCollection(ctx context.Context, row *models.FeeCollection) error
	UpdateFeeCollection(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteFeeCollections(ctx context.Context, ids []uuid.UUID) error
	LockReceiptDay(ctx context.Context, prefix string) error
	ListReceiptNumbersForDay(ctx context.Context, prefix string) ([]string, error)
	ListPendingPastDue(ctx context.Context, cutoff time.Time) ([]models.FeeCollection, error)
	MarkOverdue(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fees repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindFeeCollection(ctx context.Context, id uuid.UUID) (*models.FeeCollection, error) {
	var row models.FeeCollection
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindFeeCollections(ctx context.Context, ids []uuid.UUID) ([]models.FeeCollection, error) {
	var rows []models.FeeCollection
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByReceiptNumber(ctx context.Context, receiptNumber string) ([]models.FeeCollection, error) {
	var rows []models.FeeCollection
	if err := r.db.WithContext(ctx).
		Where("receipt_number = ?", receiptNumber).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindFeeStructure(ctx context.Context, id uuid.UUID) (*models.FeeStructure, error) {
	var structure models.FeeStructure
	if err := r.db.WithContext(ctx).First(&structure, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &structure, nil
}

func (r *repository) FindFeeType(ctx context.Context, id uuid.UUID) (*models.FeeType, error) {
	var feeType models.FeeType
	if err := r.db.WithContext(ctx).First(&feeType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &feeType, nil
}

func (r *repository) ExistsPaid(ctx context.Context, studentID, feeTypeID uuid.UUID, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FeeCollection{}).
		Where("student_id = ? AND fee_type_id = ? AND month = ? AND year = ? AND status = ?",
			studentID, feeTypeID, month, year, enums.FeeCollectionStatusPaid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateFeeCollection(ctx context.Context, row *models.FeeCollection) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) UpdateFeeCollection(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.FeeCollection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteFeeCollections(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.FeeCollection{}).Error
}

// LockReceiptDay serializes receipt numbering for one day within the current
// transaction. The FOR UPDATE scan alone cannot do this on the first payment
// of a day, because an empty day has no rows to lock. The advisory lock is
// released when the transaction commits or rolls back. Other dialects run a
// single writer at a time, so the lock is a no-op there.
func (r *repository) LockReceiptDay(ctx context.Context, prefix string) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

// ListReceiptNumbersForDay locks the day's receipt rows while the surrounding
// transaction computes and writes the next number.
func (r *repository) ListReceiptNumbersForDay(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.FeeCollection{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("receipt_number LIKE ?", prefix+"%").
		Pluck("receipt_number", &numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *repository) ListPendingPastDue(ctx context.Context, cutoff time.Time) ([]models.FeeCollection, error) {
	var rows []models.FeeCollection
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", enums.FeeCollectionStatusPending, cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkOverdue(ctx context.Context, ids []uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.FeeCollection{}).
		Where("id IN ? AND status = ?", ids, enums.FeeCollectionStatusPending).
		Update("status", enums.FeeCollectionStatusOverdue)
	return result.RowsAffected, result.Error
}
