package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/brightpath/schoolbooks-backend/api/responses"
	"github.com/brightpath/schoolbooks-backend/api/validators"
	"github.com/brightpath/schoolbooks-backend/internal/providentfund"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/logger"
)

type pfWithdrawRequest struct {
	StaffID        uuid.UUID `json:"staff_id" validate:"required"`
	Reason         string    `json:"reason" validate:"required"`
	WithdrawalDate string    `json:"withdrawal_date,omitempty"`
}

// PFWithdraw drains a staff member's provident fund balance.
func PFWithdraw(svc providentfund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provident fund service unavailable"))
			return
		}

		approver, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pfWithdrawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawalDate, err := parseDate(payload.WithdrawalDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.Withdraw(r.Context(), providentfund.WithdrawInput{
			StaffID:        payload.StaffID,
			Reason:         validators.SanitizeString(payload.Reason, 500),
			WithdrawalDate: withdrawalDate,
			ApprovedBy:     approver,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, withdrawal)
	}
}

// PFBalance returns the employee/employer/total balance breakdown.
func PFBalance(svc providentfund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provident fund service unavailable"))
			return
		}

		staffID, err := urlUUID(r, "staffID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"staff_id": staffID.String(),
			"employee": balance.Employee,
			"employer": balance.Employer,
			"total":    balance.Total,
		})
	}
}

// PFHistory returns contributions, withdrawals, and the running balance.
func PFHistory(svc providentfund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provident fund service unavailable"))
			return
		}

		staffID, err := urlUUID(r, "staffID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"staff_id":      staffID.String(),
			"contributions": history.Contributions,
			"withdrawals":   history.Withdrawals,
			"balance": map[string]any{
				"employee": history.Balance.Employee,
				"employer": history.Balance.Employer,
				"total":    history.Balance.Total,
			},
		})
	}
}
