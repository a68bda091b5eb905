package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/events"
	"github.com/Adebayotoheeb666/pancake/internal/provider"
	"github.com/Adebayotoheeb666/pancake/internal/service"
	"github.com/Adebayotoheeb666/pancake/internal/share"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/Adebayotoheeb666/pancake/internal/webhook"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

type testServer struct {
	repo   *store.MockStore
	rec    *events.Recorder
	rails  map[domain.Provider]*provider.MockAdapter
	router *mux.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		repo:  store.NewMockStore(),
		rec:   &events.Recorder{},
		rails: make(map[domain.Provider]*provider.MockAdapter),
	}
	var adapters []provider.Adapter
	for _, p := range domain.AllProviders {
		a := &provider.MockAdapter{Rail: p}
		s.rails[p] = a
		adapters = append(adapters, a)
	}
	registry := provider.NewRegistry(adapters...)
	tokens := share.NewTokens("share-secret", time.Hour)

	h := NewHandler(
		service.NewTransferService(s.repo, registry, tokens, s.rec),
		service.NewStatusService(s.repo),
		service.NewAccountService(s.repo, registry, tokens, time.Hour),
		webhook.NewReconciler(s.repo, s.rec, func(domain.Provider) string { return webhookSecret }, webhookSecret),
	)
	s.router = NewRouter(h)
	return s
}

func (s *testServer) do(method, path string, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) link(t *testing.T, id, userID string, p domain.Provider) {
	t.Helper()
	require.NoError(t, s.repo.CreateLinkedAccount(context.Background(), &domain.LinkedAccount{
		ID: id, UserID: userID, Provider: p, AccountNumber: "01234" + id, BankCode: "058", AccountName: "Holder " + id,
	}))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

// A provider transfer starts as processing and a signed rail callback
// completes it.
func TestTransferThenWebhook(t *testing.T) {
	s := newTestServer(t)
	s.link(t, "la-1", "user-a", domain.ProviderFlutterwave)
	s.link(t, "la-2", "user-b", domain.ProviderFlutterwave)

	rr := s.do("POST", "/transfer", `{"type":"provider","senderId":"user-a","amount":"5000","email":"a@example.com","linkedAccountId":"la-1","receiverLinkedAccountId":"la-2"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	created := decodeBody(t, rr)
	assert.Equal(t, true, created["success"])
	assert.Equal(t, "flutterwave", created["provider"])
	assert.Equal(t, "processing", created["status"])
	transferID := created["transferId"].(string)

	rr = s.do("GET", "/transfer/status?transferId="+transferID+"&provider=flutterwave", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "processing", decodeBody(t, rr)["status"])

	payload := `{"event":"transfer.completed","data":{"id":"ext-1","status":"SUCCESSFUL"}}`
	rr = s.do("POST", "/webhooks/flutterwave", payload, http.Header{"Verif-Hash": {webhook.Sign(webhookSecret, []byte(payload))}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	hook := decodeBody(t, rr)
	assert.Equal(t, true, hook["success"])
	assert.Equal(t, "completed", hook["transfer"].(map[string]any)["status"])

	rr = s.do("GET", "/transfer/status?transferId="+transferID+"&provider=flutterwave", "", nil)
	assert.Equal(t, "completed", decodeBody(t, rr)["status"])
	assert.Equal(t, []string{events.TypeTransferCreated, events.TypeTransferStatusChanged}, s.rec.Types())
}

func TestCreateTransferErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		setup func(s *testServer)
		code  int
		msg   string
	}{
		{
			name: "malformed json",
			body: `{"type":`,
			code: http.StatusBadRequest,
			msg:  "Malformed JSON body",
		},
		{
			name: "missing fields",
			body: `{"type":"provider","amount":10}`,
			code: http.StatusBadRequest,
			msg:  "Missing required fields",
		},
		{
			name: "provider mismatch",
			body: `{"type":"provider","senderId":"user-a","amount":10,"email":"a@x.io","linkedAccountId":"la-1","receiverLinkedAccountId":"la-3"}`,
			code: http.StatusBadRequest,
			msg:  "Sender and receiver must use the same payment provider",
		},
		{
			name: "unknown sender bank",
			body: `{"type":"ledger-network","senderId":"user-a","senderBankId":"nope","receiverAccountId":"acc","amount":10,"email":"a@x.io"}`,
			code: http.StatusNotFound,
			msg:  "bank account not found",
		},
		{
			name: "rail rejects",
			body: `{"type":"provider","senderId":"user-a","amount":10,"email":"a@x.io","linkedAccountId":"la-1","receiverLinkedAccountId":"la-2"}`,
			setup: func(s *testServer) {
				s.rails[domain.ProviderFlutterwave].InitiateFunc = func(provider.TransferInstruction) (provider.TransferResult, error) {
					return provider.TransferResult{}, domain.Wrap(domain.ErrTransferInitiation, "Insufficient balance in wallet", errors.New("http 400"))
				}
			},
			code: http.StatusInternalServerError,
			msg:  "Insufficient balance in wallet",
		},
		{
			name: "persistence failure is generic",
			body: `{"type":"provider","senderId":"user-a","amount":10,"email":"a@x.io","linkedAccountId":"la-1","receiverLinkedAccountId":"la-2"}`,
			setup: func(s *testServer) {
				s.repo.InsertTransferErr = errors.New("pq: connection reset")
			},
			code: http.StatusInternalServerError,
			msg:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.link(t, "la-1", "user-a", domain.ProviderFlutterwave)
			s.link(t, "la-2", "user-b", domain.ProviderFlutterwave)
			s.link(t, "la-3", "user-b", domain.ProviderPaystack)
			if tt.setup != nil {
				tt.setup(s)
			}

			rr := s.do("POST", "/transfer", tt.body, nil)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
			assert.Equal(t, tt.msg, decodeBody(t, rr)["error"])
		})
	}
}

func TestStatusUnknownIsPending(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/transfer/status?transferId=missing&provider=paystack", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Transfer is being processed", body["message"])

	rr = s.do("GET", "/transfer/status?transferId=missing", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookSignature(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.repo.InsertTransfer(context.Background(), &domain.Transfer{
		ID: "t1", Provider: domain.ProviderPaystack, Reference: "TXN-1", ExternalTransferID: "42", Status: domain.StatusProcessing,
	}))
	payload := `{"event":"transfer.success","data":{"id":42,"reference":"TXN-1","status":"success"}}`

	rr := s.do("POST", "/webhooks/paystack", payload, http.Header{"X-Paystack-Signature": {"deadbeef"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid signature", decodeBody(t, rr)["error"])
	assert.Equal(t, domain.StatusProcessing, s.repo.Transfers["t1"].Status)

	rr = s.do("POST", "/webhooks/paystack", payload, http.Header{"X-Paystack-Signature": {webhook.Sign(webhookSecret, []byte(payload))}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.StatusCompleted, s.repo.Transfers["t1"].Status)
}

func TestWebhookMalformedAndUnknown(t *testing.T) {
	s := newTestServer(t)

	bad := `{"data":`
	rr := s.do("POST", "/webhooks/opay", bad, http.Header{"X-Signature": {webhook.Sign(webhookSecret, []byte(bad))}})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	unknown := `{"payload":{"transactionId":"OP-404","status":"SUCCESS"}}`
	rr = s.do("POST", "/webhooks/opay", unknown, http.Header{"X-Signature": {webhook.Sign(webhookSecret, []byte(unknown))}})
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["transfer"])

	rr = s.do("POST", "/webhooks/swift", unknown, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProviderWebhookRoute(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.repo.InsertTransfer(context.Background(), &domain.Transfer{
		ID: "t1", Provider: domain.ProviderMonnify, Reference: "TXN-9", Status: domain.StatusProcessing,
	}))
	payload := `{"provider":"monnify","reference":"TXN-9","status":"failed"}`

	rr := s.do("POST", "/webhooks/provider", payload, http.Header{"X-Provider-Signature": {webhook.Sign(webhookSecret, []byte(payload))}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, domain.StatusFailed, s.repo.Transfers["t1"].Status)
}

func TestLinkedAccountLifecycle(t *testing.T) {
	s := newTestServer(t)

	rr := s.do("POST", "/linked-accounts", `{"userId":"user-a","provider":"opay","accountNumber":"0123456789","bankCode":"044"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	account := decodeBody(t, rr)["account"].(map[string]any)
	id := account["id"].(string)
	assert.Equal(t, "Test User", account["account_name"])
	assert.Equal(t, "Access Bank", account["bank_name"])

	rr = s.do("POST", "/linked-accounts", `{"userId":"user-a","provider":"opay","accountNumber":"0123456789","bankCode":"044"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "This account is already linked", decodeBody(t, rr)["error"])

	rr = s.do("GET", "/linked-accounts?userId=user-a", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["accounts"], 1)

	rr = s.do("PATCH", "/linked-accounts/"+id, `{"accountName":"Main"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Main", decodeBody(t, rr)["account"].(map[string]any)["account_name"])

	rr = s.do("DELETE", "/linked-accounts/"+id, "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = s.do("DELETE", "/linked-accounts/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBankRoutes(t *testing.T) {
	s := newTestServer(t)

	rr := s.do("POST", "/bank/paystack/verify", `{"accountNumber":"0123456789","bankCode":"058"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "Test User", body["accountName"])
	assert.Equal(t, "0123456789", body["accountNumber"])

	s.rails[domain.ProviderMonnify].VerifyFunc = func(string, string) (provider.AccountDetails, error) {
		return provider.AccountDetails{}, domain.Wrap(domain.ErrVerification, "Account name could not be resolved", errors.New("http 422"))
	}
	rr = s.do("POST", "/bank/monnify/verify", `{"accountNumber":"0123456789","bankCode":"058"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Account name could not be resolved", decodeBody(t, rr)["error"])

	rr = s.do("GET", "/bank/flutterwave/banks", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["banks"], 1)

	rr = s.do("GET", "/banks", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["banks"], len(domain.RegionalProviders))
}

func TestShareAndVerifyReceiver(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.repo.CreateBank(context.Background(), &domain.Bank{ID: "bank-b", UserID: "user-b", AccountID: "acc-b", FundingSourceURL: "https://fs/b", AccessToken: "secret-token"}))

	rr := s.do("GET", "/ledger-banks/bank-b/share", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	token := decodeBody(t, rr)["sharableId"].(string)

	body, _ := json.Marshal(map[string]string{"sharableId": token})
	rr = s.do("POST", "/transfer/verify", string(body), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "****cc-b", decodeBody(t, rr)["accountName"])
	assert.False(t, bytes.Contains(rr.Body.Bytes(), []byte("acc-b")))
	assert.False(t, bytes.Contains(rr.Body.Bytes(), []byte("secret-token")))
	assert.False(t, bytes.Contains(rr.Body.Bytes(), []byte("https://fs/b")))

	rr = s.do("POST", "/transfer/verify", `{"sharableId":"YWNjLWI="}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do("GET", "/ledger-banks/nope/share", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionsRoute(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/transactions", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do("GET", "/transactions?userId=user-a", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody(t, rr)["transactions"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		code   int
		public bool
	}{
		{domain.Validation("x"), http.StatusBadRequest, true},
		{domain.NotFound("x"), http.StatusNotFound, true},
		{domain.Wrap(domain.ErrVerification, "x", nil), http.StatusBadRequest, true},
		{domain.Wrap(domain.ErrRecipientCreation, "x", nil), http.StatusInternalServerError, true},
		{domain.Wrap(domain.ErrTransferInitiation, "x", domain.ErrTimeout), http.StatusInternalServerError, true},
		{domain.Wrap(domain.ErrSignatureMismatch, "x", nil), http.StatusBadRequest, true},
		{domain.Wrap(domain.ErrPersistence, "x", nil), http.StatusInternalServerError, false},
		{errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		code, public := statusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.public, public, tt.err.Error())
	}
}
