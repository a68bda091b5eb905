package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. /webhooks/provider is registered before
// /webhooks/{rail} so the rail-agnostic endpoint wins.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.HandleFunc("/transfer", h.CreateTransfer).Methods("POST")
	r.HandleFunc("/transfer/status", h.TransferStatus).Methods("GET")
	r.HandleFunc("/transfer/verify", h.VerifyReceiver).Methods("POST")

	r.HandleFunc("/webhooks/provider", h.ProviderWebhook).Methods("POST")
	r.HandleFunc("/webhooks/{rail}", h.RailWebhook).Methods("POST")

	r.HandleFunc("/bank/{rail}/verify", h.VerifyBankAccount).Methods("POST")
	r.HandleFunc("/bank/{rail}/banks", h.RailBanks).Methods("GET")
	r.HandleFunc("/banks", h.AllBanks).Methods("GET")

	r.HandleFunc("/linked-accounts", h.LinkAccount).Methods("POST")
	r.HandleFunc("/linked-accounts", h.ListLinkedAccounts).Methods("GET")
	r.HandleFunc("/linked-accounts/{id}", h.UpdateLinkedAccount).Methods("PATCH")
	r.HandleFunc("/linked-accounts/{id}", h.UnlinkAccount).Methods("DELETE")

	r.HandleFunc("/ledger-banks/{id}/share", h.ShareLedgerBank).Methods("GET")
	r.HandleFunc("/transactions", h.Transactions).Methods("GET")
	return r
}
