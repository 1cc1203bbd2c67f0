package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/internal/accounts"
	"github.com/brightpath/schoolbooks-backend/internal/providentfund"
	"github.com/brightpath/schoolbooks-backend/pkg/config"
	dbpkg "github.com/brightpath/schoolbooks-backend/pkg/db"
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

// Service posts monthly salaries. One run books the cash payout, both
// provident fund sides and the fund's sub-ledger entry in a single database
// transaction. At most one run exists per staff member and period.
type Service interface {
	Pay(ctx context.Context, input PayInput) (*PayResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SalaryPayment, error)
	ListForStaff(ctx context.Context, staffID uuid.UUID) ([]models.SalaryPayment, error)
}

// PayInput describes one salary run.
type PayInput struct {
	StaffID       uuid.UUID
	Month         int
	Year          int
	BaseSalary    decimal.Decimal
	AccountID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	PaymentDate   time.Time
	CreatedBy     uuid.UUID
}

// PayResult reports the stored run and its derived amounts.
type PayResult struct {
	SalaryPayment  *models.SalaryPayment
	PFContribution *models.ProvidentFundTransaction
}

type service struct {
	repo            Repository
	accounts        accounts.Service
	fund            providentfund.Service
	events          eventEmitter
	tx              txRunner
	pfRate          decimal.Decimal
	clearingAccount uuid.UUID
}

// NewService wires the payroll service. The PF rate and clearing account come
// from ledger configuration; both are required because every salary run posts
// provident fund legs.
func NewService(repo Repository, accountsSvc accounts.Service, fund providentfund.Service, events eventEmitter, tx txRunner, cfg config.LedgerConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payroll repository required")
	}
	if accountsSvc == nil {
		return nil, fmt.Errorf("accounts service required")
	}
	if fund == nil {
		return nil, fmt.Errorf("provident fund service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}

	rate, err := decimal.NewFromString(cfg.PFRate)
	if err != nil {
		return nil, fmt.Errorf("invalid PF rate %q: %w", cfg.PFRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("PF rate %s out of range", rate)
	}
	clearing, err := uuid.Parse(cfg.PFClearingAccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid PF clearing account id: %w", err)
	}

	return &service{
		repo:            repo,
		accounts:        accountsSvc,
		fund:            fund,
		events:          events,
		tx:              tx,
		pfRate:          rate,
		clearingAccount: clearing,
	}, nil
}

func (s *service) Pay(ctx context.Context, input PayInput) (*PayResult, error) {
	if err := validatePayInput(input); err != nil {
		return nil, err
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now()
	}

	var result *PayResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.payTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) payTx(ctx context.Context, tx *gorm.DB, input PayInput) (*PayResult, error) {
	repo := s.repo.WithTx(tx)

	exists, err := repo.ExistsForPeriod(ctx, input.StaffID, input.Month, input.Year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check salary period")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicatePayment,
			fmt.Sprintf("salary already paid for %d/%d", input.Month, input.Year))
	}

	employeePF := input.BaseSalary.Mul(s.pfRate).Round(2)
	employerPF := input.BaseSalary.Mul(s.pfRate).Round(2)
	netSalary := input.BaseSalary.Sub(employeePF)
	totalCost := input.BaseSalary.Add(employerPF)

	payment := &models.SalaryPayment{
		ID:                     uuid.New(),
		StaffID:                input.StaffID,
		Month:                  input.Month,
		Year:                   input.Year,
		BaseSalary:             input.BaseSalary,
		ProvidentFundDeduction: employeePF,
		EmployerPFContribution: employerPF,
		NetSalary:              netSalary,
		TotalAmount:            totalCost,
		PaymentDate:            input.PaymentDate,
		AccountID:              input.AccountID,
		PaymentMethod:          input.PaymentMethod,
		Status:                 enums.SalaryPaymentStatusPaid,
		CreatedBy:              input.CreatedBy,
	}
	if err := repo.CreateSalaryPayment(ctx, payment); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_salary_payments_staff_period") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicatePayment,
				fmt.Sprintf("salary already paid for %d/%d", input.Month, input.Year))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert salary payment")
	}

	if err := s.postLedgerLegs(ctx, tx, payment); err != nil {
		return nil, err
	}

	contribution, err := s.fund.RecordContributionTx(ctx, tx, providentfund.ContributionInput{
		StaffID:         input.StaffID,
		Type:            enums.PFTransactionTypeContribution,
		Employee:        employeePF,
		Employer:        employerPF,
		Date:            input.PaymentDate,
		SalaryPaymentID: &payment.ID,
	})
	if err != nil {
		return nil, err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventPayrollPosted,
		AggregateType: enums.AggregateSalaryPayment,
		AggregateID:   payment.ID,
		Actor:         &outbox.ActorRef{UserID: input.CreatedBy},
		Version:       1,
		Data: payloads.PayrollPostedEvent{
			SalaryPaymentID: payment.ID,
			StaffID:         input.StaffID,
			Month:           input.Month,
			Year:            input.Year,
			NetPayable:      netSalary,
			PFContribution:  employeePF.Add(employerPF),
		},
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue payroll.posted event")
	}

	return &PayResult{SalaryPayment: payment, PFContribution: contribution}, nil
}

// postLedgerLegs books the four postings behind one salary run:
//
//  1. expense on the paying account for the full base salary,
//  2. expense on the paying account for the withheld employee share,
//  3. income on the PF clearing account for that employee share,
//  4. income on the PF clearing account for the employer match.
//
// Legs 2-4 move no external cash and use the internal transfer method. A
// zero PF share (rate configured to 0) skips its legs; the ledger rejects
// zero-amount postings.
func (s *service) postLedgerLegs(ctx context.Context, tx *gorm.DB, payment *models.SalaryPayment) error {
	reference := payment.ID.String()
	period := fmt.Sprintf("%02d/%d", payment.Month, payment.Year)

	if _, err := s.accounts.PostTx(ctx, tx, accounts.PostTransactionInput{
		Type:            enums.TransactionTypeExpense,
		AccountID:       payment.AccountID,
		Amount:          payment.BaseSalary,
		Date:            payment.PaymentDate,
		PaymentMethod:   payment.PaymentMethod,
		ReferenceNumber: &reference,
		Description:     fmt.Sprintf("Salary payment (%s)", period),
		CreatedBy:       payment.CreatedBy,
	}); err != nil {
		return err
	}

	if payment.ProvidentFundDeduction.IsPositive() {
		if _, err := s.accounts.PostTx(ctx, tx, accounts.PostTransactionInput{
			Type:            enums.TransactionTypeExpense,
			AccountID:       payment.AccountID,
			Amount:          payment.ProvidentFundDeduction,
			Date:            payment.PaymentDate,
			PaymentMethod:   enums.PaymentMethodInternalTransfer,
			ReferenceNumber: &reference,
			Description:     fmt.Sprintf("Employee PF deduction (%s)", period),
			CreatedBy:       payment.CreatedBy,
		}); err != nil {
			return err
		}
		if _, err := s.accounts.PostTx(ctx, tx, accounts.PostTransactionInput{
			Type:            enums.TransactionTypeIncome,
			AccountID:       s.clearingAccount,
			Amount:          payment.ProvidentFundDeduction,
			Date:            payment.PaymentDate,
			PaymentMethod:   enums.PaymentMethodInternalTransfer,
			ReferenceNumber: &reference,
			Description:     fmt.Sprintf("Employee PF contribution received (%s)", period),
			CreatedBy:       payment.CreatedBy,
		}); err != nil {
			return err
		}
	}

	if payment.EmployerPFContribution.IsPositive() {
		if _, err := s.accounts.PostTx(ctx, tx, accounts.PostTransactionInput{
			Type:            enums.TransactionTypeIncome,
			AccountID:       s.clearingAccount,
			Amount:          payment.EmployerPFContribution,
			Date:            payment.PaymentDate,
			PaymentMethod:   enums.PaymentMethodInternalTransfer,
			ReferenceNumber: &reference,
			Description:     fmt.Sprintf("Employer PF contribution received (%s)", period),
			CreatedBy:       payment.CreatedBy,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.SalaryPayment, error) {
	row, err := s.repo.FindSalaryPayment(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "salary payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary payment")
	}
	return row, nil
}

func (s *service) ListForStaff(ctx context.Context, staffID uuid.UUID) ([]models.SalaryPayment, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	rows, err := s.repo.ListSalaryPayments(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list salary payments")
	}
	return rows, nil
}

func validatePayInput(input PayInput) error {
	if input.StaffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if input.Month < 1 || input.Month > 12 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %d", input.Month))
	}
	if input.Year < 2000 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid year %d", input.Year))
	}
	if input.BaseSalary.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "base salary must be positive")
	}
	if input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.CreatedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}
