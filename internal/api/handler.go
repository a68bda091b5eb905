package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/Adebayotoheeb666/pancake/internal/service"
	"github.com/Adebayotoheeb666/pancake/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pancake_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pancake_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"method", "endpoint"})
)

const maxBody = 1 << 20

type Handler struct {
	transfers *service.TransferService
	status    *service.StatusService
	accounts  *service.AccountService
	webhooks  *webhook.Reconciler
}

func NewHandler(transfers *service.TransferService, status *service.StatusService, accounts *service.AccountService, webhooks *webhook.Reconciler) *Handler {
	return &Handler{transfers: transfers, status: status, accounts: accounts, webhooks: webhooks}
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "POST", "/transfer"
	defer observe(method, endpoint)()

	var req models.TransferRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", method, endpoint)
		return
	}

	resp, err := h.transfers.PerformTransfer(r.Context(), req)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, resp, method, endpoint)
}

func (h *Handler) TransferStatus(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "GET", "/transfer/status"
	defer observe(method, endpoint)()

	q := r.URL.Query()
	resp, err := h.status.GetStatus(r.Context(), q.Get("transferId"), q.Get("provider"))
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, resp, method, endpoint)
}

func (h *Handler) VerifyReceiver(w http.ResponseWriter, r *http.Request) {
	const method, endpoint = "POST", "/transfer/verify"
	defer observe(method, endpoint)()

	var req models.ReceiverLookupRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Malformed JSON body", method, endpoint)
		return
	}
	resp, err := h.accounts.LookupReceiver(r.Context(), req)
	if err != nil {
		h.fail(w, err, method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, resp, method, endpoint)
}

// Helpers

func observe(method, endpoint string) func() {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues(method, endpoint))
	return func() { timer.ObserveDuration() }
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
}

// statusFor maps an error kind to its HTTP status and whether its message
// may be shown to the client.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrVerification):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrTransferInitiation),
		errors.Is(err, domain.ErrRecipientCreation),
		errors.Is(err, domain.ErrTimeout),
		errors.Is(err, webhook.ErrMalformed):
		return http.StatusInternalServerError, true
	}
	return http.StatusInternalServerError, false
}

func (h *Handler) fail(w http.ResponseWriter, err error, method, endpoint string) {
	code, public := statusFor(err)
	msg := "Internal Server Error"
	if public {
		msg = domain.Message(err)
	}
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("request failed")
	}
	h.respondError(w, code, msg, method, endpoint)
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
