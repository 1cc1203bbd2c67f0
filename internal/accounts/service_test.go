package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/pagination"
)

type fakeRepository struct {
	accounts     map[uuid.UUID]*models.Account
	transactions map[uuid.UUID]*models.Transaction
	adjustments  []adjustment
	created      []*models.Transaction
	locked       []uuid.UUID
}

type adjustment struct {
	accountID uuid.UUID
	delta     decimal.Decimal
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		accounts:     map[uuid.UUID]*models.Account{},
		transactions: map[uuid.UUID]*models.Transaction{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if account, ok := f.accounts[id]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	f.locked = append(f.locked, id)
	return f.FindAccount(ctx, id)
}

func (f *fakeRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	account, ok := f.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	account.CurrentBalance = account.CurrentBalance.Add(delta)
	f.adjustments = append(f.adjustments, adjustment{accountID: id, delta: delta})
	return nil
}

func (f *fakeRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	f.transactions[txn.ID] = txn
	f.created = append(f.created, txn)
	return nil
}

func (f *fakeRepository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if txn, ok := f.transactions[id]; ok {
		return txn, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.created {
		if txn.AccountID == accountID {
			out = append(out, *txn)
		}
	}
	return out, nil
}

type passthroughRunner struct{}

func (passthroughRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, passthroughRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func seedAccount(repo *fakeRepository, balance string) *models.Account {
	account := &models.Account{
		ID:             uuid.New(),
		Name:           "School Cash",
		Type:           enums.AccountTypeCash,
		CurrentBalance: decimal.RequireFromString(balance),
		Status:         enums.AccountStatusActive,
	}
	repo.accounts[account.ID] = account
	return account
}

func incomeInput(accountID uuid.UUID, amount string) PostTransactionInput {
	return PostTransactionInput{
		Type:          enums.TransactionTypeIncome,
		AccountID:     accountID,
		Amount:        decimal.RequireFromString(amount),
		Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentMethod: enums.PaymentMethodCash,
		Description:   "Fee collection",
		CreatedBy:     uuid.New(),
	}
}

func TestPostIncomeIncreasesBalance(t *testing.T) {
	repo := newFakeRepository()
	account := seedAccount(repo, "1000.00")
	svc := newTestService(t, repo)

	txn, err := svc.Post(context.Background(), incomeInput(account.ID, "250.50"))
	if err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if txn.Type != enums.TransactionTypeIncome {
		t.Fatalf("unexpected type: %s", txn.Type)
	}
	if !account.CurrentBalance.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("expected balance 1250.50, got %s", account.CurrentBalance)
	}
}

func TestPostExpenseDecreasesBalance(t *testing.T) {
	repo := newFakeRepository()
	account := seedAccount(repo, "1000.00")
	svc := newTestService(t, repo)

	input := incomeInput(account.ID, "300.00")
	input.Type = enums.TransactionTypeExpense
	input.Description = "Salary payout"

	if _, err := svc.Post(context.Background(), input); err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if !account.CurrentBalance.Equal(decimal.RequireFromString("700.00")) {
		t.Fatalf("expected balance 700.00, got %s", account.CurrentBalance)
	}
}

func TestPostTransferMovesMoneyBetweenAccounts(t *testing.T) {
	repo := newFakeRepository()
	source := seedAccount(repo, "500.00")
	dest := seedAccount(repo, "100.00")
	svc := newTestService(t, repo)

	input := incomeInput(source.ID, "200.00")
	input.Type = enums.TransactionTypeTransfer
	input.CounterpartAccountID = &dest.ID

	if _, err := svc.Post(context.Background(), input); err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if !source.CurrentBalance.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("expected source 300.00, got %s", source.CurrentBalance)
	}
	if !dest.CurrentBalance.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("expected dest 300.00, got %s", dest.CurrentBalance)
	}
}

func TestPostLocksAccountRow(t *testing.T) {
	repo := newFakeRepository()
	account := seedAccount(repo, "1000.00")
	svc := newTestService(t, repo)

	if _, err := svc.Post(context.Background(), incomeInput(account.ID, "10.00")); err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if len(repo.locked) != 1 || repo.locked[0] != account.ID {
		t.Fatalf("expected a row lock on the posted account, got %v", repo.locked)
	}
}

func TestPostRejectsNonPositiveAmount(t *testing.T) {
	repo := newFakeRepository()
	account := seedAccount(repo, "0.00")
	svc := newTestService(t, repo)

	input := incomeInput(account.ID, "0.00")
	_, err := svc.Post(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}

	input.Amount = decimal.RequireFromString("-5.00")
	_, err = svc.Post(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT for negative amount, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("no transaction should be written on validation failure")
	}
}

func TestPostUnknownAccountReturnsNotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	_, err := svc.Post(context.Background(), incomeInput(uuid.New(), "10.00"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestReversePostsCompensatingEntry(t *testing.T) {
	repo := newFakeRepository()
	account := seedAccount(repo, "1000.00")
	svc := newTestService(t, repo)

	original, err := svc.Post(context.Background(), incomeInput(account.ID, "400.00"))
	if err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if !account.CurrentBalance.Equal(decimal.RequireFromString("1400.00")) {
		t.Fatalf("expected balance 1400.00, got %s", account.CurrentBalance)
	}

	actor := uuid.New()
	reversal, err := svc.Reverse(context.Background(), original.ID, actor)
	if err != nil {
		t.Fatalf("Reverse error: %v", err)
	}
	if reversal.Type != enums.TransactionTypeExpense {
		t.Fatalf("expected expense reversal, got %s", reversal.Type)
	}
	if reversal.ReversalOf == nil || *reversal.ReversalOf != original.ID {
		t.Fatal("expected reversal_of to reference the original")
	}
	if reversal.CreatedBy != actor {
		t.Fatal("expected reversal to carry the acting user")
	}
	if !account.CurrentBalance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("expected balance restored to 1000.00, got %s", account.CurrentBalance)
	}

	// The original must remain untouched.
	stored, err := repo.FindTransaction(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("original transaction missing: %v", err)
	}
	if stored.ReversalOf != nil {
		t.Fatal("original transaction must not be mutated by reversal")
	}
}

func TestReverseTransferSwapsAccounts(t *testing.T) {
	repo := newFakeRepository()
	source := seedAccount(repo, "500.00")
	dest := seedAccount(repo, "0.00")
	svc := newTestService(t, repo)

	input := incomeInput(source.ID, "150.00")
	input.Type = enums.TransactionTypeTransfer
	input.CounterpartAccountID = &dest.ID
	original, err := svc.Post(context.Background(), input)
	if err != nil {
		t.Fatalf("Post error: %v", err)
	}

	if _, err := svc.Reverse(context.Background(), original.ID, uuid.New()); err != nil {
		t.Fatalf("Reverse error: %v", err)
	}
	if !source.CurrentBalance.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("expected source restored to 500.00, got %s", source.CurrentBalance)
	}
	if !dest.CurrentBalance.Equal(decimal.Zero) {
		t.Fatalf("expected dest restored to 0, got %s", dest.CurrentBalance)
	}
}

func TestReverseUnknownTransaction(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	_, err := svc.Reverse(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetBalance(t *testing.T) {
	repo := newFakeRepository()
	account := seedAccount(repo, "42.42")
	svc := newTestService(t, repo)

	balance, err := svc.GetBalance(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetBalance error: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("42.42")) {
		t.Fatalf("unexpected balance: %s", balance)
	}

	if _, err := svc.GetBalance(context.Background(), uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
