package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/config"
	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func railServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func instruction() TransferInstruction {
	return TransferInstruction{
		Recipient: Recipient{Code: "RCP_1", AccountDetails: AccountDetails{AccountNumber: "0123456789", BankCode: "058", AccountName: "Ada Obi"}},
		Source:    "9876543210",
		Amount:    decimal.RequireFromString("1500.50"),
		Currency:  "NGN",
		Reference: "TXN-1",
		Narration: "rent",
	}
}

func TestPaystackTransferSendsKobo(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, float64(150050), body["amount"])
		assert.Equal(t, "RCP_1", body["recipient"])
		assert.Equal(t, "balance", body["source"])
		assert.Equal(t, "TXN-1", body["reference"])
		w.Write([]byte(`{"status":true,"message":"Transfer has been queued","data":{"id":4711,"reference":"TXN-1","status":"pending"}}`))
	})

	res, err := NewPaystack(srv.URL, "sk_test", srv.Client(), time.Second).InitiateTransfer(context.Background(), instruction())
	require.NoError(t, err)
	assert.Equal(t, "4711", res.ExternalTransferID)
	assert.Equal(t, "TXN-1", res.Reference)
	assert.Equal(t, domain.StatusProcessing, res.Status)
}

func TestPaystackVerifyRejected(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank/resolve", r.URL.Path)
		assert.Equal(t, "0000000000", r.URL.Query().Get("account_number"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":false,"message":"Could not resolve account name"}`))
	})

	_, err := NewPaystack(srv.URL, "sk", srv.Client(), time.Second).VerifyAccount(context.Background(), "0000000000", "058")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVerification)
	assert.Equal(t, "Could not resolve account name", domain.Message(err))
}

func TestFlutterwaveTransfer(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfers", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, 1500.5, body["amount"])
		assert.Equal(t, "058", body["account_bank"])
		w.Write([]byte(`{"status":"success","message":"Transfer Queued","data":{"id":190626,"reference":"TXN-1","status":"NEW"}}`))
	})

	res, err := NewFlutterwave(srv.URL, "FLWSECK", srv.Client(), time.Second).InitiateTransfer(context.Background(), instruction())
	require.NoError(t, err)
	assert.Equal(t, "190626", res.ExternalTransferID)
	assert.Equal(t, domain.StatusProcessing, res.Status)
	assert.Equal(t, "NEW", res.RawStatus)
}

func TestFlutterwaveListBanks(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/banks/NG", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":[{"id":1,"code":"044","name":"Access Bank"}]}`))
	})

	banks, err := NewFlutterwave(srv.URL, "k", srv.Client(), time.Second).ListBanks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []BankOption{{Name: "Access Bank", Code: "044"}}, banks)
}

func TestOpayRecipientAndTransfer(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m-1", r.Header.Get("X-Merchant-ID"))
		switch r.URL.Path {
		case "/api/v3/transferService/beneficiary/add":
			w.Write([]byte(`{"code":"00000","data":{"beneficiaryId":"B-9","accountName":"ADA OBI"}}`))
		case "/api/v3/transferService/transfer":
			body := decodeBody(t, r)
			assert.Equal(t, "B-9", body["beneficiaryId"])
			w.Write([]byte(`{"code":"00000","data":{"transactionId":"OP-77","reference":"TXN-1","status":"SUCCESSFUL"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	o := NewOpay(srv.URL, "sk", "m-1", srv.Client(), time.Second)
	rcp, err := o.CreateRecipient(context.Background(), AccountDetails{AccountNumber: "0123456789", BankCode: "058"})
	require.NoError(t, err)
	assert.Equal(t, "B-9", rcp.Code)
	assert.Equal(t, "ADA OBI", rcp.AccountName)

	in := instruction()
	in.Recipient = rcp
	res, err := o.InitiateTransfer(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "OP-77", res.ExternalTransferID)
	assert.Equal(t, domain.StatusCompleted, res.Status)
}

func TestOpayBusinessFailure(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"02001","message":"insufficient balance"}`))
	})

	_, err := NewOpay(srv.URL, "sk", "m", srv.Client(), time.Second).InitiateTransfer(context.Background(), instruction())
	assert.ErrorIs(t, err, domain.ErrTransferInitiation)
	assert.Equal(t, "insufficient balance", domain.Message(err))
}

func TestMonnifyBasicAuthAndSource(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "api", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/v1/transfer/create", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "9876543210", body["sourceAccountNumber"])
		assert.Equal(t, "TXN-1", body["transactionReference"])
		w.Write([]byte(`{"requestSuccessful":true,"responseBody":{"transactionId":"MNFY-1","transactionReference":"TXN-1","status":"PENDING"}}`))
	})

	res, err := NewMonnify(srv.URL, "api", "secret", "", srv.Client(), time.Second).InitiateTransfer(context.Background(), instruction())
	require.NoError(t, err)
	assert.Equal(t, "MNFY-1", res.ExternalTransferID)
	assert.Equal(t, domain.StatusProcessing, res.Status)
}

func TestTimeoutIsDistinguishable(t *testing.T) {
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := NewFlutterwave(srv.URL, "k", srv.Client(), 50*time.Millisecond).InitiateTransfer(context.Background(), instruction())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.ErrorIs(t, err, domain.ErrTransferInitiation)
}

func TestDwollaTransferUsesLocation(t *testing.T) {
	var tokenCalls int
	var srv *httptest.Server
	srv = railServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenCalls++
			user, _, _ := r.BasicAuth()
			assert.Equal(t, "key", user)
			w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
		case "/transfers":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "TXN-9", r.Header.Get("Idempotency-Key"))
			body := decodeBody(t, r)
			amount := body["amount"].(map[string]any)
			assert.Equal(t, "25.00", amount["value"])
			w.Header().Set("Location", srv.URL+"/transfers/abc-123")
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	d := NewDwolla(srv.URL, "key", "secret", srv.Client(), time.Second)
	in := TransferInstruction{
		Recipient: Recipient{Code: srv.URL + "/funding-sources/recv"},
		Source:    srv.URL + "/funding-sources/send",
		Amount:    decimal.NewFromInt(25),
		Currency:  "USD",
		Reference: "TXN-9",
	}
	for i := 0; i < 2; i++ {
		res, err := d.InitiateTransfer(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "abc-123", res.ExternalTransferID)
	}
	assert.Equal(t, 1, tokenCalls)
}

func TestTokenLifetime(t *testing.T) {
	assert.Equal(t, 59*time.Minute, tokenLifetime(3600))
	assert.Equal(t, 30*time.Second, tokenLifetime(60))
	assert.Equal(t, 15*time.Second, tokenLifetime(30))
	assert.Equal(t, time.Duration(0), tokenLifetime(0))
}

func TestDwollaShortLivedTokenIsReused(t *testing.T) {
	var tokenCalls int
	srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenCalls++
			w.Write([]byte(`{"access_token":"tok","expires_in":30}`))
		case "/funding-sources/fs-1":
			w.Write([]byte(`{"name":"Checking","bankName":"First Bank"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	d := NewDwolla(srv.URL, "key", "secret", srv.Client(), time.Second)
	for i := 0; i < 3; i++ {
		_, err := d.VerifyAccount(context.Background(), "fs-1", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, tokenCalls)
}

func TestRegionalRailRejections(t *testing.T) {
	account := AccountDetails{AccountNumber: "0000000000", BankCode: "058", AccountName: "Ada Obi"}
	tests := []struct {
		name    string
		status  int
		body    string
		adapter func(url string, c *http.Client) Adapter
		call    func(a Adapter) error
		kind    error
		message string
	}{
		{
			name:    "flutterwave verify",
			status:  http.StatusBadRequest,
			body:    `{"status":"error","message":"Sorry, that account number is invalid"}`,
			adapter: func(url string, c *http.Client) Adapter { return NewFlutterwave(url, "k", c, time.Second) },
			call: func(a Adapter) error {
				_, err := a.VerifyAccount(context.Background(), account.AccountNumber, account.BankCode)
				return err
			},
			kind:    domain.ErrVerification,
			message: "Sorry, that account number is invalid",
		},
		{
			name:    "flutterwave recipient with error envelope on 200",
			status:  http.StatusOK,
			body:    `{"status":"error","message":"Beneficiary already exists"}`,
			adapter: func(url string, c *http.Client) Adapter { return NewFlutterwave(url, "k", c, time.Second) },
			call: func(a Adapter) error {
				_, err := a.CreateRecipient(context.Background(), account)
				return err
			},
			kind:    domain.ErrRecipientCreation,
			message: "Beneficiary already exists",
		},
		{
			name:    "monnify verify",
			status:  http.StatusBadRequest,
			body:    `{"requestSuccessful":false,"responseMessage":"Invalid account number","responseCode":"99"}`,
			adapter: func(url string, c *http.Client) Adapter { return NewMonnify(url, "a", "s", "", c, time.Second) },
			call: func(a Adapter) error {
				_, err := a.VerifyAccount(context.Background(), account.AccountNumber, account.BankCode)
				return err
			},
			kind:    domain.ErrVerification,
			message: "Invalid account number",
		},
		{
			name:    "monnify recipient without message",
			status:  http.StatusOK,
			body:    `{"requestSuccessful":false}`,
			adapter: func(url string, c *http.Client) Adapter { return NewMonnify(url, "a", "s", "", c, time.Second) },
			call: func(a Adapter) error {
				_, err := a.CreateRecipient(context.Background(), account)
				return err
			},
			kind:    domain.ErrRecipientCreation,
			message: "Failed to create recipient",
		},
		{
			name:    "opay verify",
			status:  http.StatusOK,
			body:    `{"code":"04002","message":"account not found"}`,
			adapter: func(url string, c *http.Client) Adapter { return NewOpay(url, "sk", "m", c, time.Second) },
			call: func(a Adapter) error {
				_, err := a.VerifyAccount(context.Background(), account.AccountNumber, account.BankCode)
				return err
			},
			kind:    domain.ErrVerification,
			message: "account not found",
		},
		{
			name:    "opay recipient",
			status:  http.StatusInternalServerError,
			body:    `{"code":"09999","message":"beneficiary service unavailable"}`,
			adapter: func(url string, c *http.Client) Adapter { return NewOpay(url, "sk", "m", c, time.Second) },
			call: func(a Adapter) error {
				_, err := a.CreateRecipient(context.Background(), account)
				return err
			},
			kind:    domain.ErrRecipientCreation,
			message: "beneficiary service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := railServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := tt.call(tt.adapter(srv.URL, srv.Client()))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, domain.Message(err))
		})
	}
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		AdapterTimeout: time.Second,
		Paystack:       config.Rail{BaseURL: "http://paystack", SecretKey: "sk"},
		Monnify:        config.Rail{BaseURL: "http://monnify", SecretKey: "s", APIKey: "a"},
	}
	reg, err := FromConfig(cfg, http.DefaultClient)
	require.NoError(t, err)
	assert.Equal(t, []domain.Provider{domain.ProviderPaystack, domain.ProviderMonnify}, reg.Providers())
	assert.Len(t, reg.Regional(), 2)

	_, err = reg.Get(domain.ProviderOpay)
	assert.ErrorIs(t, err, domain.ErrValidation)

	a, err := reg.Get(domain.ProviderPaystack)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderPaystack, a.Provider())
}

func TestFlexID(t *testing.T) {
	var v struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12345678901,"b":"x-1","c":null}`), &v))
	assert.Equal(t, flexID("12345678901"), v.A)
	assert.Equal(t, flexID("x-1"), v.B)
	assert.Equal(t, flexID(""), v.C)
}
