package api

import (
	"net/http"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/gorilla/mux"
)

func (h *Handler) VerifyBankAccount(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "POST", "/bank/{rail}/verify"
	defer observe(method, endpoint)()

	p, err := domain.ParseProvider(mux.Vars(r)["rail"])
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	var req models.VerifyAccountRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", method, endpoint)
		return
	}
	details, err := h.accounts.VerifyAccount(r.Context(), p, req.AccountNumber, req.BankCode)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, details, method, endpoint)
}

func (h *Handler) RailBanks(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "GET", "/bank/{rail}/banks"
	defer observe(method, endpoint)()

	p, err := domain.ParseProvider(mux.Vars(r)["rail"])
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	banks, err := h.accounts.ListBanks(r.Context(), p)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BankListResponse{Provider: p, Banks: banks}, method, endpoint)
}

func (h *Handler) AllBanks(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "GET", "/banks"
	defer observe(method, endpoint)()

	banks, err := h.accounts.AllBanks(r.Context())
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BankListResponse{Banks: banks}, method, endpoint)
}

func (h *Handler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "POST", "/linked-accounts"
	defer observe(method, endpoint)()

	var req models.LinkAccountRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", method, endpoint)
		return
	}
	a, err := h.accounts.LinkAccount(r.Context(), req)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	w.Header().Set("Location", "/linked-accounts/"+a.ID)
	h.respondJSON(w, http.StatusCreated, models.LinkedAccountResponse{Success: true, Account: a, Message: "Account linked successfully"}, method, endpoint)
}

func (h *Handler) ListLinkedAccounts(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "GET", "/linked-accounts"
	defer observe(method, endpoint)()

	accounts, err := h.accounts.ListLinkedAccounts(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"success": true, "accounts": accounts}, method, endpoint)
}

func (h *Handler) UpdateLinkedAccount(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "PATCH", "/linked-accounts/{id}"
	defer observe(method, endpoint)()

	var req models.UpdateAccountRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", method, endpoint)
		return
	}
	a, err := h.accounts.UpdateLinkedAccount(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, models.LinkedAccountResponse{Success: true, Account: a, Message: "Account updated successfully"}, method, endpoint)
}

func (h *Handler) UnlinkAccount(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "DELETE", "/linked-accounts/{id}"
	defer observe(method, endpoint)()

	if err := h.accounts.UnlinkAccount(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Account unlinked successfully"}, method, endpoint)
}

func (h *Handler) ShareLedgerBank(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "GET", "/ledger-banks/{id}/share"
	defer observe(method, endpoint)()

	token, err := h.accounts.ShareToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, models.ShareResponse{SharableID: token}, method, endpoint)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "GET", "/transactions"
	defer observe(method, endpoint)()

	txns, err := h.accounts.Transactions(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"transactions": txns}, method, endpoint)
}
