package accounts

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

func setupAccountsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  current_balance NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  account_id TEXT NOT NULL,
  counterpart_account_id TEXT,
  category_id TEXT,
  amount NUMERIC NOT NULL,
  date DATE NOT NULL,
  payment_method TEXT NOT NULL,
  reference_number TEXT,
  description TEXT NOT NULL,
  created_by TEXT NOT NULL,
  reversal_of TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(accounts).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func insertAccount(t *testing.T, db *gorm.DB, balance string) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:             uuid.New(),
		Name:           "Main Bank",
		Type:           enums.AccountTypeBank,
		CurrentBalance: decimal.RequireFromString(balance),
		Status:         enums.AccountStatusActive,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestRepositoryAdjustBalance(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	account := insertAccount(t, db, "100.00")

	require.NoError(t, repo.AdjustBalance(ctx, account.ID, decimal.RequireFromString("25.50")))
	require.NoError(t, repo.AdjustBalance(ctx, account.ID, decimal.RequireFromString("-10.00")))

	got, err := repo.FindAccount(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentBalance.Equal(decimal.RequireFromString("115.50")),
		"expected 115.50, got %s", got.CurrentBalance)
}

func TestRepositoryAdjustBalanceUnknownAccount(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)

	err := repo.AdjustBalance(context.Background(), uuid.New(), decimal.NewFromInt(5))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCreateAndFindTransaction(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	account := insertAccount(t, db, "0.00")
	txn := &models.Transaction{
		ID:            uuid.New(),
		Type:          enums.TransactionTypeIncome,
		AccountID:     account.ID,
		Amount:        decimal.RequireFromString("700.00"),
		Date:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: enums.PaymentMethodCash,
		Description:   "Tuition Fee (February 2026)",
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, repo.CreateTransaction(ctx, txn))

	got, err := repo.FindTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.Equal(t, txn.Description, got.Description)
	require.True(t, got.Amount.Equal(txn.Amount))
}

func TestRepositoryListTransactionsByAccount(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	account := insertAccount(t, db, "0.00")
	other := insertAccount(t, db, "0.00")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateTransaction(ctx, &models.Transaction{
			ID:            uuid.New(),
			Type:          enums.TransactionTypeIncome,
			AccountID:     account.ID,
			Amount:        decimal.NewFromInt(int64(10 + i)),
			Date:          time.Now(),
			PaymentMethod: enums.PaymentMethodCash,
			Description:   "posting",
			CreatedBy:     uuid.New(),
		}))
	}
	require.NoError(t, repo.CreateTransaction(ctx, &models.Transaction{
		ID:            uuid.New(),
		Type:          enums.TransactionTypeExpense,
		AccountID:     other.ID,
		Amount:        decimal.NewFromInt(99),
		Date:          time.Now(),
		PaymentMethod: enums.PaymentMethodCash,
		Description:   "unrelated",
		CreatedBy:     uuid.New(),
	}))

	txns, err := repo.ListTransactionsByAccount(ctx, account.ID, 10, nil)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	for _, txn := range txns {
		require.Equal(t, account.ID, txn.AccountID)
	}
}
