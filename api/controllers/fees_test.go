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

	"github.com/brightpath/schoolbooks-backend/internal/fees"
	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
)

func TestFeesCollectSuccess(t *testing.T) {
	collector := uuid.New()
	studentID := uuid.New()
	accountID := uuid.New()
	pendingID := uuid.New()
	txnID := uuid.New()

	svc := &stubFeesService{
		collectResult: &fees.CollectResult{
			ReceiptNumber: "RCP-20260115-0001",
			TransactionID: txnID,
			TotalPaid:     decimal.RequireFromString("450.00"),
			FeeCollections: []models.FeeCollection{
				{ID: pendingID, StudentID: studentID},
			},
		},
	}
	handler := FeesCollect(svc, nil)

	payload := fmt.Sprintf(`{
		"student_id": %q,
		"account_id": %q,
		"pending_fee_ids": [%q],
		"discount": "50.00",
		"payment_method": "cash",
		"payment_date": "2026-01-15"
	}`, studentID, accountID, pendingID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/collect", bytes.NewReader([]byte(payload)))
	req = withActor(req, collector)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.collectInput == nil {
		t.Fatal("expected service to be called")
	}
	if svc.collectInput.CollectedBy != collector {
		t.Fatalf("expected collector %s got %s", collector, svc.collectInput.CollectedBy)
	}
	if !svc.collectInput.Discount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected discount %s", svc.collectInput.Discount)
	}

	var envelope struct {
		Data feeCollectResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ReceiptNumber != "RCP-20260115-0001" {
		t.Fatalf("unexpected receipt %s", envelope.Data.ReceiptNumber)
	}
	if envelope.Data.TransactionID != txnID {
		t.Fatalf("unexpected transaction id %s", envelope.Data.TransactionID)
	}
}

func TestFeesCollectRejectsBadPaymentMethod(t *testing.T) {
	svc := &stubFeesService{}
	handler := FeesCollect(svc, nil)

	payload := fmt.Sprintf(`{
		"student_id": %q,
		"account_id": %q,
		"payment_method": "barter"
	}`, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/collect", bytes.NewReader([]byte(payload)))
	req = withActor(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.collectInput != nil {
		t.Fatal("service should not be called")
	}
}

func TestFeesCollectRequiresActor(t *testing.T) {
	handler := FeesCollect(&stubFeesService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/collect", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestFeesCollectMapsAlreadyPaid(t *testing.T) {
	svc := &stubFeesService{err: pkgerrors.New(pkgerrors.CodeAlreadyPaid, "fee already settled")}
	handler := FeesCollect(svc, nil)

	payload := fmt.Sprintf(`{
		"student_id": %q,
		"account_id": %q,
		"pending_fee_ids": [%q],
		"payment_method": "cash"
	}`, uuid.New(), uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/collect", bytes.NewReader([]byte(payload)))
	req = withActor(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestFeesDestroySuccess(t *testing.T) {
	actor := uuid.New()
	feeCollectionID := uuid.New()
	svc := &stubFeesService{}
	handler := FeesDestroy(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/fees/collections/"+feeCollectionID.String(), nil)
	req = withActor(req, actor)
	req = withURLParam(req, "id", feeCollectionID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.destroyedID != feeCollectionID {
		t.Fatalf("expected destroy %s got %s", feeCollectionID, svc.destroyedID)
	}
	if svc.destroyActor != actor {
		t.Fatalf("expected actor %s got %s", actor, svc.destroyActor)
	}
}

func TestFeesDestroyRejectsBadID(t *testing.T) {
	handler := FeesDestroy(&stubFeesService{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/fees/collections/not-a-uuid", nil)
	req = withActor(req, uuid.New())
	req = withURLParam(req, "id", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestFeesGenerateDuesSuccess(t *testing.T) {
	svc := &stubFeesService{
		dues: []models.FeeCollection{{ID: uuid.New()}, {ID: uuid.New()}},
	}
	handler := FeesGenerateDues(svc, nil)

	payload := fmt.Sprintf(`{
		"fee_structure_id": %q,
		"student_ids": [%q, %q],
		"due_date": "2026-02-10"
	}`, uuid.New(), uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/dues/generate", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Created int `json:"created"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Created != 2 {
		t.Fatalf("expected 2 dues got %d", envelope.Data.Created)
	}
}

func TestFeesGenerateDuesRequiresStudents(t *testing.T) {
	handler := FeesGenerateDues(&stubFeesService{}, nil)

	payload := fmt.Sprintf(`{"fee_structure_id": %q, "student_ids": []}`, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/dues/generate", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestFeesReceiptSuccess(t *testing.T) {
	receipt := "RCP-20260115-0001"
	svc := &stubFeesService{
		receiptRows: []models.FeeCollection{
			{ID: uuid.New(), ReceiptNumber: &receipt},
			{ID: uuid.New(), ReceiptNumber: &receipt},
		},
	}
	handler := FeesReceipt(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/receipts/"+receipt, nil)
	req = withURLParam(req, "receiptNumber", receipt)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			ReceiptNumber  string                 `json:"receipt_number"`
			FeeCollections []models.FeeCollection `json:"fee_collections"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.FeeCollections) != 2 {
		t.Fatalf("expected 2 rows got %d", len(envelope.Data.FeeCollections))
	}
}

func TestFeesReceiptNotFound(t *testing.T) {
	svc := &stubFeesService{err: pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")}
	handler := FeesReceipt(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/receipts/RCP-20260101-9999", nil)
	req = withURLParam(req, "receiptNumber", "RCP-20260101-9999")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
