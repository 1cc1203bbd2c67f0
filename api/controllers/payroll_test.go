package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/internal/payroll"
	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
)

func TestPayrollPaySuccess(t *testing.T) {
	actor := uuid.New()
	staffID := uuid.New()
	accountID := uuid.New()

	svc := &stubPayrollService{
		payResult: &payroll.PayResult{
			SalaryPayment: &models.SalaryPayment{
				ID:         uuid.New(),
				StaffID:    staffID,
				BaseSalary: decimal.RequireFromString("30000.00"),
				NetSalary:  decimal.RequireFromString("28500.00"),
			},
			PFContribution: &models.ProvidentFundTransaction{ID: uuid.New(), StaffID: staffID},
		},
	}
	handler := PayrollPay(svc, nil)

	payload := fmt.Sprintf(`{
		"staff_id": %q,
		"month": 1,
		"year": 2026,
		"base_salary": "30000.00",
		"account_id": %q,
		"payment_method": "bank_transfer",
		"payment_date": "2026-01-31"
	}`, staffID, accountID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/pay", bytes.NewReader([]byte(payload)))
	req = withActor(req, actor)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.payInput == nil {
		t.Fatal("expected service to be called")
	}
	if svc.payInput.CreatedBy != actor {
		t.Fatalf("expected creator %s got %s", actor, svc.payInput.CreatedBy)
	}
	if svc.payInput.Month != 1 || svc.payInput.Year != 2026 {
		t.Fatalf("unexpected period %d/%d", svc.payInput.Month, svc.payInput.Year)
	}
}

func TestPayrollPayRejectsBadMonth(t *testing.T) {
	svc := &stubPayrollService{}
	handler := PayrollPay(svc, nil)

	payload := fmt.Sprintf(`{
		"staff_id": %q,
		"month": 13,
		"year": 2026,
		"base_salary": "30000.00",
		"account_id": %q,
		"payment_method": "cash"
	}`, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/pay", bytes.NewReader([]byte(payload)))
	req = withActor(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.payInput != nil {
		t.Fatal("service should not be called")
	}
}

func TestPayrollPayMapsDuplicatePeriod(t *testing.T) {
	svc := &stubPayrollService{err: pkgerrors.New(pkgerrors.CodeDuplicatePayment, "salary already paid for period")}
	handler := PayrollPay(svc, nil)

	payload := fmt.Sprintf(`{
		"staff_id": %q,
		"month": 1,
		"year": 2026,
		"base_salary": "30000.00",
		"account_id": %q,
		"payment_method": "cash"
	}`, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/pay", bytes.NewReader([]byte(payload)))
	req = withActor(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestPayrollGetSuccess(t *testing.T) {
	paymentID := uuid.New()
	svc := &stubPayrollService{payment: &models.SalaryPayment{ID: paymentID}}
	handler := PayrollGet(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/payments/"+paymentID.String(), nil)
	req = withURLParam(req, "id", paymentID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data models.SalaryPayment `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != paymentID {
		t.Fatalf("expected id %s got %s", paymentID, envelope.Data.ID)
	}
}

func TestPayrollGetNotFound(t *testing.T) {
	svc := &stubPayrollService{err: pkgerrors.New(pkgerrors.CodeNotFound, "salary payment not found")}
	handler := PayrollGet(svc, nil)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/payments/"+id.String(), nil)
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestPayrollListForStaff(t *testing.T) {
	staffID := uuid.New()
	svc := &stubPayrollService{
		payments: []models.SalaryPayment{
			{ID: uuid.New(), StaffID: staffID},
			{ID: uuid.New(), StaffID: staffID},
		},
	}
	handler := PayrollListForStaff(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/staff/"+staffID.String()+"/payments", nil)
	req = withURLParam(req, "staffID", staffID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Payments []models.SalaryPayment `json:"payments"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Payments) != 2 {
		t.Fatalf("expected 2 payments got %d", len(envelope.Data.Payments))
	}
}
