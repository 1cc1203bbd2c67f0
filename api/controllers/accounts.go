package controllers

import (
	"net/http"
	"strings"

	"github.com/brightpath/schoolbooks-backend/api/responses"
	"github.com/brightpath/schoolbooks-backend/api/validators"
	"github.com/brightpath/schoolbooks-backend/internal/accounts"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/logger"
	"github.com/brightpath/schoolbooks-backend/pkg/pagination"
)

// AccountBalance returns the cached running balance for one account.
func AccountBalance(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		accountID, err := urlUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.GetBalance(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"account_id": accountID.String(),
			"balance":    balance,
		})
	}
}

// AccountTransactions lists postings newest first with cursor pagination.
func AccountTransactions(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		accountID, err := urlUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		transactions, nextCursor, err := svc.ListTransactions(r.Context(), accountID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"account_id":   accountID.String(),
			"transactions": transactions,
			"next_cursor":  nextCursor,
		})
	}
}
