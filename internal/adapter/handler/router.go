package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all HTTP endpoints. Actor identity arrives in request
// bodies; authentication is handled upstream of this service.
func NewRouter(offers *OfferHandler, txns *TransactionHandler, webhooks *WebhookHandler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/offers", offers.CreateOffer).Methods("POST")
	api.HandleFunc("/offers/{id}", offers.GetOffer).Methods("GET")
	api.HandleFunc("/offers/{id}/cancel", offers.CancelOffer).Methods("POST")
	api.HandleFunc("/offers/{id}/accept", offers.AcceptOffer).Methods("POST")

	api.HandleFunc("/listings", offers.CreateListing).Methods("POST")
	api.HandleFunc("/listings/{id}", offers.GetListing).Methods("GET")

	api.HandleFunc("/transactions/{id}", txns.GetTransaction).Methods("GET")
	api.HandleFunc("/transactions/{id}/intent", txns.CreatePaymentIntent).Methods("POST")
	api.HandleFunc("/transactions/{id}/refund-request", txns.RequestRefund).Methods("POST")
	api.HandleFunc("/transactions/{id}/refund", txns.ProcessRefund).Methods("POST")
	api.HandleFunc("/transactions/{id}/resolve", txns.ResolveDispute).Methods("POST")
	api.HandleFunc("/transactions/{id}/payout", txns.ProcessPayout).Methods("POST")
	api.HandleFunc("/transactions/{id}/delivered", txns.MarkTicketsDelivered).Methods("POST")

	api.HandleFunc("/sellers/{id}/onboard", txns.OnboardSeller).Methods("POST")

	r.HandleFunc("/webhooks/payments", webhooks.HandleWebhook).Methods("POST")

	return r
}
