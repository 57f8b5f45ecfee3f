package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stayhubapp/stayhub-backend/api/middleware"
	"github.com/stayhubapp/stayhub-backend/api/responses"
	"github.com/stayhubapp/stayhub-backend/api/validators"
	"github.com/stayhubapp/stayhub-backend/internal/withdrawals"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	pkgerrors "github.com/stayhubapp/stayhub-backend/pkg/errors"
	"github.com/stayhubapp/stayhub-backend/pkg/logger"
)

type withdrawalRequestBody struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Destination string          `json:"destination" validate:"required,max=255"`
}

type withdrawalDecisionBody struct {
	Status  string  `json:"status" validate:"required"`
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
}

// WithdrawalCreate debits the caller's wallet up front and opens a pending
// cash-out request for admin review.
func WithdrawalCreate(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		sellerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body withdrawalRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Request(r.Context(), withdrawals.RequestInput{
			SellerID:    sellerID,
			Amount:      body.Amount,
			Destination: body.Destination,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// WithdrawalDecision records an admin's terminal decision on a pending
// request. Rejections refund the held amount.
func WithdrawalDecision(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "withdrawalId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		var body withdrawalDecisionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseWithdrawalStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision status"))
			return
		}

		request, err := svc.Decide(r.Context(), withdrawals.DecideInput{
			RequestID: requestID,
			Status:    status,
			Remarks:   body.Remarks,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// WithdrawalList returns withdrawal requests newest first. Non-admin callers
// only ever see their own requests.
func WithdrawalList(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		caller, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := withdrawals.ListInput{}

		isAdmin := middleware.RoleFromContext(r.Context()) == string(enums.MemberRoleAdmin)
		if isAdmin {
			if raw := strings.TrimSpace(r.URL.Query().Get("sellerId")); raw != "" {
				sellerID, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
					return
				}
				input.SellerID = &sellerID
			}
		} else {
			input.SellerID = &caller
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseWithdrawalStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal status"))
				return
			}
			input.Status = &status
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Pagination = params

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
