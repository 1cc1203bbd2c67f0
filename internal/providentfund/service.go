package providentfund

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
	"github.com/brightpath/schoolbooks-backend/pkg/outbox"
	"github.com/brightpath/schoolbooks-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service tracks per-staff provident fund balances. Contributions append to
// the sub-ledger (payroll records them inside its own transaction); a
// withdrawal always drains the whole remaining balance.
type Service interface {
	Balance(ctx context.Context, staffID uuid.UUID) (*BalanceBreakdown, error)
	RecordContributionTx(ctx context.Context, tx *gorm.DB, input ContributionInput) (*models.ProvidentFundTransaction, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*models.PFWithdrawal, error)
	History(ctx context.Context, staffID uuid.UUID) (*History, error)
}

// BalanceBreakdown splits the remaining fund by contribution side.
type BalanceBreakdown struct {
	Employee decimal.Decimal
	Employer decimal.Decimal
	Total    decimal.Decimal
}

// ContributionInput appends one contribution row.
type ContributionInput struct {
	StaffID         uuid.UUID
	Type            enums.PFTransactionType
	Employee        decimal.Decimal
	Employer        decimal.Decimal
	Date            time.Time
	SalaryPaymentID *uuid.UUID
}

// WithdrawInput drains a staff member's remaining fund balance.
type WithdrawInput struct {
	StaffID        uuid.UUID
	Reason         string
	WithdrawalDate time.Time
	ApprovedBy     uuid.UUID
}

// History bundles the full sub-ledger for one staff member.
type History struct {
	Contributions []models.ProvidentFundTransaction
	Withdrawals   []models.PFWithdrawal
	Balance       BalanceBreakdown
}

type service struct {
	repo   Repository
	events eventEmitter
	tx     txRunner
}

// NewService wires the provident fund service with its dependencies.
func NewService(repo Repository, events eventEmitter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("provident fund repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, events: events, tx: tx}, nil
}

func (s *service) Balance(ctx context.Context, staffID uuid.UUID) (*BalanceBreakdown, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	return s.balance(ctx, s.repo, staffID)
}

func (s *service) balance(ctx context.Context, repo Repository, staffID uuid.UUID) (*BalanceBreakdown, error) {
	inEmployee, inEmployer, err := repo.SumContributions(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum contributions")
	}
	outEmployee, outEmployer, err := repo.SumWithdrawals(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum withdrawals")
	}

	employee := inEmployee.Sub(outEmployee)
	employer := inEmployer.Sub(outEmployer)
	return &BalanceBreakdown{
		Employee: employee,
		Employer: employer,
		Total:    employee.Add(employer),
	}, nil
}

// RecordContributionTx appends a contribution inside the caller's
// transaction so payroll's salary row, ledger legs and PF entry commit as one.
func (s *service) RecordContributionTx(ctx context.Context, tx *gorm.DB, input ContributionInput) (*models.ProvidentFundTransaction, error) {
	if input.StaffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid PF transaction type %q", input.Type))
	}
	if input.Employee.IsNegative() || input.Employer.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "contribution amounts cannot be negative")
	}
	total := input.Employee.Add(input.Employer)
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "contribution total must be positive")
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	row := &models.ProvidentFundTransaction{
		ID:                   uuid.New(),
		StaffID:              input.StaffID,
		Type:                 input.Type,
		EmployeeContribution: input.Employee,
		EmployerContribution: input.Employer,
		TotalContribution:    total,
		TransactionDate:      input.Date,
		SalaryPaymentID:      input.SalaryPaymentID,
	}
	if err := s.repo.WithTx(tx).CreateContribution(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert PF contribution")
	}
	return row, nil
}

// Withdraw pays out everything the staff member has accumulated. Partial
// withdrawals are not supported; the row records both sides of the drained
// balance. The fund is a sub-ledger of its own and never posts to the main
// account ledger.
func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*models.PFWithdrawal, error) {
	if err := s.validateWithdrawInput(&input); err != nil {
		return nil, err
	}

	var withdrawal *models.PFWithdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		balance, err := s.balance(ctx, repo, input.StaffID)
		if err != nil {
			return err
		}
		if balance.Total.LessThanOrEqual(decimal.Zero) {
			return pkgerrors.New(pkgerrors.CodeNoBalance, "no provident fund balance to withdraw")
		}

		withdrawal = &models.PFWithdrawal{
			ID:                   uuid.New(),
			StaffID:              input.StaffID,
			EmployeeContribution: balance.Employee,
			EmployerContribution: balance.Employer,
			TotalAmount:          balance.Total,
			WithdrawalDate:       input.WithdrawalDate,
			Reason:               input.Reason,
			ApprovedBy:           input.ApprovedBy,
		}
		if err := repo.CreateWithdrawal(ctx, withdrawal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert PF withdrawal")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventProvidentFundWithdrew,
			AggregateType: enums.AggregatePFWithdrawal,
			AggregateID:   withdrawal.ID,
			Actor:         &outbox.ActorRef{UserID: input.ApprovedBy},
			Version:       1,
			Data: payloads.ProvidentFundWithdrawnEvent{
				WithdrawalID: withdrawal.ID,
				StaffID:      input.StaffID,
				Amount:       balance.Total,
				WithdrawnAt:  input.WithdrawalDate,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue provident_fund.withdrawn event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (s *service) History(ctx context.Context, staffID uuid.UUID) (*History, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	contributions, err := s.repo.ListContributions(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contributions")
	}
	withdrawals, err := s.repo.ListWithdrawals(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	balance, err := s.balance(ctx, s.repo, staffID)
	if err != nil {
		return nil, err
	}
	return &History{
		Contributions: contributions,
		Withdrawals:   withdrawals,
		Balance:       *balance,
	}, nil
}

func (s *service) validateWithdrawInput(input *WithdrawInput) error {
	if input.StaffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal reason required")
	}
	if input.ApprovedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.WithdrawalDate.IsZero() {
		input.WithdrawalDate = time.Now()
	}
	return nil
}
