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

	"github.com/brightpath/schoolbooks-backend/internal/providentfund"
	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
)

func TestPFWithdrawSuccess(t *testing.T) {
	approver := uuid.New()
	staffID := uuid.New()

	svc := &stubPFService{
		withdrawal: &models.PFWithdrawal{
			ID:                   uuid.New(),
			StaffID:              staffID,
			EmployeeContribution: decimal.RequireFromString("1500.00"),
			EmployerContribution: decimal.RequireFromString("1500.00"),
			TotalAmount:          decimal.RequireFromString("3000.00"),
		},
	}
	handler := PFWithdraw(svc, nil)

	payload := fmt.Sprintf(`{
		"staff_id": %q,
		"reason": "resignation",
		"withdrawal_date": "2026-03-01"
	}`, staffID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/provident-fund/withdraw", bytes.NewReader([]byte(payload)))
	req = withActor(req, approver)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.withdrawInput == nil {
		t.Fatal("expected service to be called")
	}
	if svc.withdrawInput.ApprovedBy != approver {
		t.Fatalf("expected approver %s got %s", approver, svc.withdrawInput.ApprovedBy)
	}
	if svc.withdrawInput.Reason != "resignation" {
		t.Fatalf("unexpected reason %q", svc.withdrawInput.Reason)
	}
}

func TestPFWithdrawMapsNoBalance(t *testing.T) {
	svc := &stubPFService{err: pkgerrors.New(pkgerrors.CodeNoBalance, "no provident fund balance")}
	handler := PFWithdraw(svc, nil)

	payload := fmt.Sprintf(`{
		"staff_id": %q,
		"reason": "retirement payout"
	}`, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/provident-fund/withdraw", bytes.NewReader([]byte(payload)))
	req = withActor(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestPFWithdrawRequiresActor(t *testing.T) {
	handler := PFWithdraw(&stubPFService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/provident-fund/withdraw", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestPFBalanceSuccess(t *testing.T) {
	staffID := uuid.New()
	svc := &stubPFService{
		balance: &providentfund.BalanceBreakdown{
			Employee: decimal.RequireFromString("1500.00"),
			Employer: decimal.RequireFromString("1500.00"),
			Total:    decimal.RequireFromString("3000.00"),
		},
	}
	handler := PFBalance(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/provident-fund/staff/"+staffID.String()+"/balance", nil)
	req = withURLParam(req, "staffID", staffID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Total string `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != "3000" {
		t.Fatalf("unexpected total %q", envelope.Data.Total)
	}
}

func TestPFHistorySuccess(t *testing.T) {
	staffID := uuid.New()
	svc := &stubPFService{
		history: &providentfund.History{
			Contributions: []models.ProvidentFundTransaction{{ID: uuid.New(), StaffID: staffID}},
			Withdrawals:   []models.PFWithdrawal{},
			Balance: providentfund.BalanceBreakdown{
				Employee: decimal.RequireFromString("750.00"),
				Employer: decimal.RequireFromString("750.00"),
				Total:    decimal.RequireFromString("1500.00"),
			},
		},
	}
	handler := PFHistory(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/provident-fund/staff/"+staffID.String()+"/history", nil)
	req = withURLParam(req, "staffID", staffID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Contributions []models.ProvidentFundTransaction `json:"contributions"`
			Withdrawals   []models.PFWithdrawal             `json:"withdrawals"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Contributions) != 1 {
		t.Fatalf("expected 1 contribution got %d", len(envelope.Data.Contributions))
	}
	if len(envelope.Data.Withdrawals) != 0 {
		t.Fatalf("expected 0 withdrawals got %d", len(envelope.Data.Withdrawals))
	}
}

func TestPFBalanceRejectsBadStaffID(t *testing.T) {
	handler := PFBalance(&stubPFService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/provident-fund/staff/bogus/balance", nil)
	req = withURLParam(req, "staffID", "bogus")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
