package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stayhubapp/stayhub-backend/api/responses"
	"github.com/stayhubapp/stayhub-backend/internal/escrow"
	pkgerrors "github.com/stayhubapp/stayhub-backend/pkg/errors"
	"github.com/stayhubapp/stayhub-backend/pkg/logger"
)

// BookingHold debits the booking price from the client wallet and moves the
// booking to confirmed. The funds stay in escrow until release.
func BookingHold(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		txRecord, err := svc.Hold(r.Context(), escrow.HoldInput{
			BookingID: bookingID,
			ClientID:  clientID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txRecord)
	}
}

// BookingRelease credits the held amount to the provider wallet and marks the
// booking completed.
func BookingRelease(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		providerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		txRecord, err := svc.Release(r.Context(), escrow.ReleaseInput{
			BookingID:  bookingID,
			ProviderID: providerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txRecord)
	}
}
