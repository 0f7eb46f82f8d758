package handler

import (
	"io"
	"net/http"

	"github.com/ticketbay/marketplace/internal/core/services"
)

const signatureHeader = "Gateway-Signature"

type WebhookHandler struct {
	svc *services.WebhookService
}

func NewWebhookHandler(svc *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// HandleWebhook receives gateway event deliveries. The raw body is read
// before any parsing because the signature covers the exact bytes sent.
// Authenticated events are always acknowledged with 200 {received:true},
// even when downstream handling partially failed; only signature or parse
// failures answer 400, which tells the gateway not to retry the delivery.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	if err := h.svc.Process(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		respondError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
