package payroll

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
)

// Repository persists payroll runs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ExistsForPeriod(ctx context.Context, staffID uuid.UUID, month, year int) (bool, error)
	CreateSalaryPayment(ctx context.Context, row *models.SalaryPayment) error
	FindSalaryPayment(ctx context.Context, id uuid.UUID) (*models.SalaryPayment, error)
	ListSalaryPayments(ctx context.Context, staffID uuid.UUID) ([]models.SalaryPayment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payroll repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ExistsForPeriod(ctx context.Context, staffID uuid.UUID, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SalaryPayment{}).
		Where("staff_id = ? AND month = ? AND year = ?", staffID, month, year).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateSalaryPayment(ctx context.Context, row *models.SalaryPayment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindSalaryPayment(ctx context.Context, id uuid.UUID) (*models.SalaryPayment, error) {
	var row models.SalaryPayment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListSalaryPayments(ctx context.Context, staffID uuid.UUID) ([]models.SalaryPayment, error) {
	var rows []models.SalaryPayment
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("year DESC").
		Order("month DESC").
		Find(&rows).Error
	return rows, err
}
