package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

var conflictErrors = []error{
	domain.ErrOfferNotActive,
	domain.ErrOfferExpired,
	domain.ErrListingNotAvailable,
	domain.ErrEventMismatch,
	domain.ErrInsufficientQuantity,
	domain.ErrInvalidTransition,
	domain.ErrTransactionNotCompleted,
	domain.ErrAlreadyPaidOut,
	domain.ErrSellerAccountMissing,
	domain.ErrMissingPaymentIntent,
}

var notFoundErrors = []error{
	domain.ErrOfferNotFound,
	domain.ErrListingNotFound,
	domain.ErrTransactionNotFound,
	domain.ErrUserNotFound,
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses:
// NotFound 404, Authorization 403, Conflict 409, external gateway trouble
// 502, input validation 400, everything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
	}
	if errors.Is(err, domain.ErrNotAuthorized) || errors.Is(err, domain.ErrListingUnauthorized) {
		respondError(w, http.StatusForbidden, err.Error())
		return
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
	}
	if errors.Is(err, domain.ErrExternalService) {
		respondError(w, http.StatusBadGateway, "payment gateway unavailable")
		return
	}
	if errors.Is(err, domain.ErrInvalidRefundAmount) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := err.Error()
	if strings.Contains(msg, "invalid") || strings.Contains(msg, "must be") || strings.Contains(msg, "required") {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	respondError(w, http.StatusInternalServerError, "internal server error")
}
