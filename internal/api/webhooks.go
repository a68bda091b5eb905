package api

import (
	"io"
	"net/http"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/Adebayotoheeb666/pancake/internal/webhook"
	"github.com/gorilla/mux"
)

func (h *Handler) RailWebhook(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "POST", "/webhooks/{rail}"
	defer observe(method, endpoint)()

	p, err := domain.ParseProvider(mux.Vars(r)["rail"])
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Stream read error", method, endpoint)
		return
	}
	res, err := h.webhooks.Handle(r.Context(), p, r.Header, body)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, webhookResponse(res), method, endpoint)
}

func (h *Handler) ProviderWebhook(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "POST", "/webhooks/provider"
	defer observe(method, endpoint)()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Stream read error", method, endpoint)
		return
	}
	res, err := h.webhooks.HandleGeneric(r.Context(), r.Header, body)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, webhookResponse(res), method, endpoint)
}

func webhookResponse(res *webhook.Result) models.WebhookResponse {
	resp := models.WebhookResponse{Success: true, Transfer: res.Transfer}
	switch {
	case !res.Matched():
		resp.Message = "No matching transfer, acknowledged"
	case res.Anomaly != nil:
		resp.Message = "Status conflict recorded"
	}
	return resp
}
