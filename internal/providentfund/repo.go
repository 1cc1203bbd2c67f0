package providentfund

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
)

// Repository persists the provident fund sub-ledger: append-only contribution
// rows and the withdrawals that drain them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateContribution(ctx context.Context, row *models.ProvidentFundTransaction) error
	CreateWithdrawal(ctx context.Context, row *models.PFWithdrawal) error
	SumContributions(ctx context.Context, staffID uuid.UUID) (employee, employer decimal.Decimal, err error)
	SumWithdrawals(ctx context.Context, staffID uuid.UUID) (employee, employer decimal.Decimal, err error)
	ListContributions(ctx context.Context, staffID uuid.UUID) ([]models.ProvidentFundTransaction, error)
	ListWithdrawals(ctx context.Context, staffID uuid.UUID) ([]models.PFWithdrawal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a provident fund repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateContribution(ctx context.Context, row *models.ProvidentFundTransaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateWithdrawal(ctx context.Context, row *models.PFWithdrawal) error {
	return r.db.WithContext(ctx).Create(row).Error
}

type pfSums struct {
	Employee decimal.Decimal `gorm:"column:employee"`
	Employer decimal.Decimal `gorm:"column:employer"`
}

func (r *repository) SumContributions(ctx context.Context, staffID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var sums pfSums
	err := r.db.WithContext(ctx).Model(&models.ProvidentFundTransaction{}).
		Select("COALESCE(SUM(employee_contribution), 0) AS employee, COALESCE(SUM(employer_contribution), 0) AS employer").
		Where("staff_id = ?", staffID).
		Scan(&sums).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return sums.Employee, sums.Employer, nil
}

func (r *repository) SumWithdrawals(ctx context.Context, staffID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var sums pfSums
	err := r.db.WithContext(ctx).Model(&models.PFWithdrawal{}).
		Select("COALESCE(SUM(employee_contribution), 0) AS employee, COALESCE(SUM(employer_contribution), 0) AS employer").
		Where("staff_id = ?", staffID).
		Scan(&sums).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return sums.Employee, sums.Employer, nil
}

func (r *repository) ListContributions(ctx context.Context, staffID uuid.UUID) ([]models.ProvidentFundTransaction, error) {
	var rows []models.ProvidentFundTransaction
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("transaction_date ASC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListWithdrawals(ctx context.Context, staffID uuid.UUID) ([]models.PFWithdrawal, error) {
	var rows []models.PFWithdrawal
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("withdrawal_date ASC").
		Find(&rows).Error
	return rows, err
}
