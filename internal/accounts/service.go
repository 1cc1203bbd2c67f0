package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service posts immutable ledger transactions and keeps account balances in
// step with them. Balances are never written outside PostTx/ReverseTx.
type Service interface {
	Post(ctx context.Context, input PostTransactionInput) (*models.Transaction, error)
	PostTx(ctx context.Context, tx *gorm.DB, input PostTransactionInput) (*models.Transaction, error)
	Reverse(ctx context.Context, transactionID, actorUserID uuid.UUID) (*models.Transaction, error)
	ReverseTx(ctx context.Context, tx *gorm.DB, transactionID, actorUserID uuid.UUID) (*models.Transaction, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error)
}

// PostTransactionInput captures the immutable data a ledger posting requires.
type PostTransactionInput struct {
	Type                 enums.TransactionType
	AccountID            uuid.UUID
	CounterpartAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	Amount               decimal.Decimal
	Date                 time.Time
	PaymentMethod        enums.PaymentMethod
	ReferenceNumber      *string
	Description          string
	CreatedBy            uuid.UUID
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the ledger service with its repository and transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Post(ctx context.Context, input PostTransactionInput) (*models.Transaction, error) {
	var posted *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		posted, err = s.PostTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// PostTx posts a transaction inside the caller's database transaction so a
// larger operation (fee receipt, payroll run) commits or rolls back as one.
func (s *service) PostTx(ctx context.Context, tx *gorm.DB, input PostTransactionInput) (*models.Transaction, error) {
	if err := validatePostInput(input); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	// Locking the account row serializes concurrent postings against it, so
	// the balance adjustment below cannot race another writer.
	if _, err := repo.FindAccountForUpdate(ctx, input.AccountID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if input.Type == enums.TransactionTypeTransfer {
		if _, err := repo.FindAccount(ctx, *input.CounterpartAccountID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counterpart account not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load counterpart account")
		}
	}

	txn := &models.Transaction{
		Type:                 input.Type,
		AccountID:            input.AccountID,
		CounterpartAccountID: input.CounterpartAccountID,
		CategoryID:           input.CategoryID,
		Amount:               input.Amount,
		Date:                 input.Date,
		PaymentMethod:        input.PaymentMethod,
		ReferenceNumber:      input.ReferenceNumber,
		Description:          input.Description,
		CreatedBy:            input.CreatedBy,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert transaction")
	}

	if err := s.applyBalanceEffect(ctx, repo, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Reverse(ctx context.Context, transactionID, actorUserID uuid.UUID) (*models.Transaction, error) {
	var reversal *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		reversal, err = s.ReverseTx(ctx, tx, transactionID, actorUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// ReverseTx posts an opposite-signed entry against the same account, tagged
// with reversal_of and dated at reversal time. The original row is untouched.
func (s *service) ReverseTx(ctx context.Context, tx *gorm.DB, transactionID, actorUserID uuid.UUID) (*models.Transaction, error) {
	repo := s.repo.WithTx(tx)

	original, err := repo.FindTransaction(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}

	reversal := &models.Transaction{
		Type:                 oppositeType(original.Type),
		AccountID:            original.AccountID,
		CounterpartAccountID: original.CounterpartAccountID,
		CategoryID:           original.CategoryID,
		Amount:               original.Amount,
		Date:                 time.Now(),
		PaymentMethod:        original.PaymentMethod,
		ReferenceNumber:      original.ReferenceNumber,
		Description:          fmt.Sprintf("Reversal of: %s", original.Description),
		CreatedBy:            actorUserID,
		ReversalOf:           &original.ID,
	}
	if original.Type == enums.TransactionTypeTransfer {
		// A transfer reversal moves the money back the way it came.
		reversal.Type = enums.TransactionTypeTransfer
		reversal.AccountID = *original.CounterpartAccountID
		counterpart := original.AccountID
		reversal.CounterpartAccountID = &counterpart
	}

	if err := repo.CreateTransaction(ctx, reversal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reversal")
	}
	if err := s.applyBalanceEffect(ctx, repo, reversal); err != nil {
		return nil, err
	}
	return reversal, nil
}

func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account.CurrentBalance, nil
}

func (s *service) ListTransactions(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	txns, err := s.repo.ListTransactionsByAccount(ctx, accountID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	next := ""
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return txns, next, nil
}

// applyBalanceEffect mutates balances according to the posting type. Income
// credits the account, expense debits it, and a transfer debits the source
// while crediting the counterpart in the same database transaction.
func (s *service) applyBalanceEffect(ctx context.Context, repo Repository, txn *models.Transaction) error {
	amount := txn.Amount

	var err error
	switch txn.Type {
	case enums.TransactionTypeIncome:
		err = repo.AdjustBalance(ctx, txn.AccountID, amount)
	case enums.TransactionTypeExpense:
		err = repo.AdjustBalance(ctx, txn.AccountID, amount.Neg())
	case enums.TransactionTypeTransfer:
		if err = repo.AdjustBalance(ctx, txn.AccountID, amount.Neg()); err == nil {
			err = repo.AdjustBalance(ctx, *txn.CounterpartAccountID, amount)
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported transaction type %q", txn.Type))
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust balance")
	}
	return nil
}

func validatePostInput(input PostTransactionInput) error {
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "transaction amount must be positive")
	}
	if input.Type == enums.TransactionTypeTransfer {
		if input.CounterpartAccountID == nil || *input.CounterpartAccountID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "counterpart account required for transfers")
		}
		if *input.CounterpartAccountID == input.AccountID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer to the same account")
		}
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.CreatedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func oppositeType(t enums.TransactionType) enums.TransactionType {
	switch t {
	case enums.TransactionTypeIncome:
		return enums.TransactionTypeExpense
	case enums.TransactionTypeExpense:
		return enums.TransactionTypeIncome
	default:
		return t
	}
}
