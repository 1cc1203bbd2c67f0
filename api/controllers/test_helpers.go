package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/api/middleware"
	"github.com/brightpath/schoolbooks-backend/internal/accounts"
	"github.com/brightpath/schoolbooks-backend/internal/fees"
	"github.com/brightpath/schoolbooks-backend/internal/payroll"
	"github.com/brightpath/schoolbooks-backend/internal/providentfund"
	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/pagination"
)

func withActor(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID.String()))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
	}
	rc.URLParams.Add(key, value)
	return r
}

type stubFeesService struct {
	collectResult *fees.CollectResult
	collectInput  *fees.CollectInput
	destroyedID   uuid.UUID
	destroyActor  uuid.UUID
	dues          []models.FeeCollection
	receiptRows   []models.FeeCollection
	err           error
}

func (s *stubFeesService) Collect(_ context.Context, input fees.CollectInput) (*fees.CollectResult, error) {
	s.collectInput = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.collectResult, nil
}

func (s *stubFeesService) Destroy(_ context.Context, feeCollectionID, actorUserID uuid.UUID) error {
	s.destroyedID = feeCollectionID
	s.destroyActor = actorUserID
	return s.err
}

func (s *stubFeesService) GenerateDues(context.Context, fees.GenerateDuesInput) ([]models.FeeCollection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dues, nil
}

func (s *stubFeesService) GetReceipt(context.Context, string) ([]models.FeeCollection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.receiptRows, nil
}

func (s *stubFeesService) MarkOverdueDues(context.Context, time.Time) (int64, error) {
	return 0, s.err
}

type stubPayrollService struct {
	payResult *payroll.PayResult
	payInput  *payroll.PayInput
	payment   *models.SalaryPayment
	payments  []models.SalaryPayment
	err       error
}

func (s *stubPayrollService) Pay(_ context.Context, input payroll.PayInput) (*payroll.PayResult, error) {
	s.payInput = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.payResult, nil
}

func (s *stubPayrollService) Get(context.Context, uuid.UUID) (*models.SalaryPayment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func (s *stubPayrollService) ListForStaff(context.Context, uuid.UUID) ([]models.SalaryPayment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payments, nil
}

type stubPFService struct {
	withdrawal    *models.PFWithdrawal
	withdrawInput *providentfund.WithdrawInput
	balance       *providentfund.BalanceBreakdown
	history       *providentfund.History
	err           error
}

func (s *stubPFService) Balance(context.Context, uuid.UUID) (*providentfund.BalanceBreakdown, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.balance, nil
}

func (s *stubPFService) RecordContributionTx(context.Context, *gorm.DB, providentfund.ContributionInput) (*models.ProvidentFundTransaction, error) {
	return nil, s.err
}

func (s *stubPFService) Withdraw(_ context.Context, input providentfund.WithdrawInput) (*models.PFWithdrawal, error) {
	s.withdrawInput = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.withdrawal, nil
}

func (s *stubPFService) History(context.Context, uuid.UUID) (*providentfund.History, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.history, nil
}

type stubAccountsService struct {
	balance      decimal.Decimal
	transactions []models.Transaction
	nextCursor   string
	listParams   *pagination.Params
	err          error
}

func (s *stubAccountsService) Post(context.Context, accounts.PostTransactionInput) (*models.Transaction, error) {
	return nil, s.err
}

func (s *stubAccountsService) PostTx(context.Context, *gorm.DB, accounts.PostTransactionInput) (*models.Transaction, error) {
	return nil, s.err
}

func (s *stubAccountsService) Reverse(context.Context, uuid.UUID, uuid.UUID) (*models.Transaction, error) {
	return nil, s.err
}

func (s *stubAccountsService) ReverseTx(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (*models.Transaction, error) {
	return nil, s.err
}

func (s *stubAccountsService) GetBalance(context.Context, uuid.UUID) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.balance, nil
}

func (s *stubAccountsService) ListTransactions(_ context.Context, _ uuid.UUID, params pagination.Params) ([]models.Transaction, string, error) {
	s.listParams = &params
	if s.err != nil {
		return nil, "", s.err
	}
	return s.transactions, s.nextCursor, nil
}
