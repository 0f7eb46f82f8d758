package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ticketbay/marketplace/internal/core/services"
)

type OfferHandler struct {
	svc *services.MatcherService
}

func NewOfferHandler(svc *services.MatcherService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req services.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	offer, err := h.svc.CreateOffer(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	offer, err := h.svc.GetOffer(r.Context(), offerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	var req struct {
		BuyerID string `json:"buyer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}

	if err := h.svc.CancelOffer(r.Context(), offerID, buyerID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// AcceptOffer is the seller's acceptance of a buyer's offer against one of
// their listings. The path id is the offer; listing and seller come from
// the body.
func (h *OfferHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req services.AcceptOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.OfferID = mux.Vars(r)["id"]

	resp, err := h.svc.AcceptOffer(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *OfferHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req services.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	listing, err := h.svc.CreateListing(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, listing)
}

func (h *OfferHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := h.svc.GetListing(r.Context(), listingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}
