package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/ticketbay/marketplace/internal/core/services"
)

type TransactionHandler struct {
	ledger           *services.LedgerService
	sellerRefreshURL string
	sellerReturnURL  string
}

func NewTransactionHandler(ledger *services.LedgerService, sellerRefreshURL, sellerReturnURL string) *TransactionHandler {
	return &TransactionHandler{
		ledger:           ledger,
		sellerRefreshURL: sellerRefreshURL,
		sellerReturnURL:  sellerReturnURL,
	}
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	txn, err := h.ledger.GetTransaction(r.Context(), txnID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
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

	resp, err := h.ledger.CreatePaymentIntent(r.Context(), txnID, buyerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// RequestRefund opens a dispute on behalf of the transaction's buyer.
func (h *TransactionHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req struct {
		BuyerID string `json:"buyer_id"`
		Reason  string `json:"reason"`
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

	if err := h.ledger.RequestRefund(r.Context(), txnID, buyerID, req.Reason); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "disputed"})
}

// ProcessRefund is the privileged (admin) refund path. A missing amount
// means a full refund.
func (h *TransactionHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req struct {
		Amount *string `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		a, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid refund amount")
			return
		}
		amount = &a
	}

	if err := h.ledger.ProcessRefund(r.Context(), txnID, amount, req.Reason); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

func (h *TransactionHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req struct {
		Resolution   string  `json:"resolution"`
		RefundAmount *string `json:"refund_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var amount *decimal.Decimal
	if req.RefundAmount != nil {
		a, err := decimal.NewFromString(*req.RefundAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid refund amount")
			return
		}
		amount = &a
	}

	if err := h.ledger.ResolveDispute(r.Context(), txnID, req.Resolution, amount); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (h *TransactionHandler) ProcessPayout(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := h.ledger.ProcessSellerPayout(r.Context(), txnID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paid_out"})
}

func (h *TransactionHandler) MarkTicketsDelivered(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req struct {
		SellerID string `json:"seller_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid seller id")
		return
	}

	if err := h.ledger.MarkTicketsDelivered(r.Context(), txnID, sellerID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}

func (h *TransactionHandler) OnboardSeller(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid seller id")
		return
	}

	resp, err := h.ledger.OnboardSeller(r.Context(), sellerID, h.sellerRefreshURL, h.sellerReturnURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
