package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/pagination"
)

// Repository manages persistence for accounts and ledger transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// AdjustBalance applies the delta with a relative update so concurrent
// postings on the same account cannot lose each other's writes.
func (r *repository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("current_balance", gorm.Expr("current_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var txns []models.Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
