package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/api/responses"
	"github.com/brightpath/schoolbooks-backend/api/validators"
	"github.com/brightpath/schoolbooks-backend/internal/payroll"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/logger"
)

type payrollPayRequest struct {
	StaffID       uuid.UUID       `json:"staff_id" validate:"required"`
	Month         int             `json:"month" validate:"required,min=1,max=12"`
	Year          int             `json:"year" validate:"required,min=2000"`
	BaseSalary    decimal.Decimal `json:"base_salary" validate:"required"`
	AccountID     uuid.UUID       `json:"account_id" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	PaymentDate   string          `json:"payment_date,omitempty"`
}

// PayrollPay runs one salary payment with its provident fund contribution.
func PayrollPay(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payrollPayRequest
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

		result, err := svc.Pay(r.Context(), payroll.PayInput{
			StaffID:       payload.StaffID,
			Month:         payload.Month,
			Year:          payload.Year,
			BaseSalary:    payload.BaseSalary,
			AccountID:     payload.AccountID,
			PaymentMethod: method,
			PaymentDate:   paymentDate,
			CreatedBy:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"salary_payment":  result.SalaryPayment,
			"pf_contribution": result.PFContribution,
		})
	}
}

// PayrollGet returns one salary payment by id.
func PayrollGet(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		id, err := urlUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// PayrollListForStaff returns the payment history for one staff member.
func PayrollListForStaff(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		staffID, err := urlUUID(r, "staffID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.ListForStaff(r.Context(), staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"staff_id": staffID.String(),
			"payments": payments,
		})
	}
}
