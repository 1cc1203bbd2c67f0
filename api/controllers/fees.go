package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/api/responses"
	"github.com/brightpath/schoolbooks-backend/api/validators"
	"github.com/brightpath/schoolbooks-backend/internal/fees"
	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/logger"
)

type feeCollectRequest struct {
	StudentID        uuid.UUID       `json:"student_id" validate:"required"`
	AccountID        uuid.UUID       `json:"account_id" validate:"required"`
	PendingFeeIDs    []uuid.UUID     `json:"pending_fee_ids,omitempty"`
	NewFeeStructures []uuid.UUID     `json:"new_fee_structures,omitempty"`
	Discount         decimal.Decimal `json:"discount"`
	PaymentMethod    string          `json:"payment_method" validate:"required"`
	PaymentDate      string          `json:"payment_date,omitempty"`
}

type feeCollectResponse struct {
	ReceiptNumber  string                 `json:"receipt_number"`
	TransactionID  uuid.UUID              `json:"transaction_id"`
	TotalPaid      decimal.Decimal        `json:"total_paid"`
	FeeCollections []models.FeeCollection `json:"fee_collections"`
}

// FeesCollect settles pending and newly selected fees in one receipt.
func FeesCollect(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}

		collector, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feeCollectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		paymentDate, err := parseDate(payload.PaymentDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Collect(r.Context(), fees.CollectInput{
			StudentID:        payload.StudentID,
			AccountID:        payload.AccountID,
			PendingFeeIDs:    payload.PendingFeeIDs,
			NewFeeStructures: payload.NewFeeStructures,
			Discount:         payload.Discount,
			PaymentMethod:    method,
			PaymentDate:      paymentDate,
			CollectedBy:      collector,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, feeCollectResponse{
			ReceiptNumber:  result.ReceiptNumber,
			TransactionID:  result.TransactionID,
			TotalPaid:      result.TotalPaid,
			FeeCollections: result.FeeCollections,
		})
	}
}

// FeesDestroy reverses one settled fee collection and its receipt posting.
func FeesDestroy(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		feeCollectionID, err := urlUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Destroy(r.Context(), feeCollectionID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"fee_collection_id": feeCollectionID.String(),
			"status":            "reversed",
		})
	}
}

type generateDuesRequest struct {
	FeeStructureID uuid.UUID   `json:"fee_structure_id" validate:"required"`
	StudentIDs     []uuid.UUID `json:"student_ids" validate:"required,min=1"`
	DueDate        string      `json:"due_date,omitempty"`
}

// FeesGenerateDues creates pending dues from one fee structure for a student batch.
func FeesGenerateDues(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}

		var payload generateDuesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var dueDate *time.Time
		if strings.TrimSpace(payload.DueDate) != "" {
			parsed, err := parseDate(payload.DueDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			dueDate = &parsed
		}

		rows, err := svc.GenerateDues(r.Context(), fees.GenerateDuesInput{
			FeeStructureID: payload.FeeStructureID,
			StudentIDs:     payload.StudentIDs,
			DueDate:        dueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"created": len(rows),
			"dues":    rows,
		})
	}
}

// FeesReceipt returns every line settled under one receipt number.
func FeesReceipt(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}

		receiptNumber := strings.TrimSpace(chi.URLParam(r, "receiptNumber"))
		if receiptNumber == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "receipt number required"))
			return
		}

		rows, err := svc.GetReceipt(r.Context(), receiptNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"receipt_number":  receiptNumber,
			"fee_collections": rows,
		})
	}
}
