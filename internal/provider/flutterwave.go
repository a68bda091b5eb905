package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/shopspring/decimal"
)

// Flutterwave authenticates with a bearer secret key and reports success
// with status "success" in the envelope.
type Flutterwave struct {
	client *jsonClient
}

func NewFlutterwave(baseURL, secretKey string, doer *http.Client, timeout time.Duration) *Flutterwave {
	c := newJSONClient(domain.ProviderFlutterwave, baseURL, doer, timeout)
	c.headers["Authorization"] = "Bearer " + secretKey
	return &Flutterwave{client: c}
}

type flwEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e flwEnvelope[T]) err(rep reply, fallback string) error {
	if rep.ok() && e.Status == "success" {
		return nil
	}
	return rejected(rep.code, e.Message, fallback)
}

func (f *Flutterwave) Provider() domain.Provider { return domain.ProviderFlutterwave }

func (f *Flutterwave) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (AccountDetails, error) {
	q := url.Values{"account_number": {accountNumber}, "account_bank": {bankCode}}
	var out flwEnvelope[struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}]
	rep, err := f.client.call(ctx, "verify_account", http.MethodGet, "/accounts/resolve?"+q.Encode(), nil, &out)
	if err == nil {
		err = out.err(rep, "Account verification failed")
	}
	if err != nil {
		return AccountDetails{}, fail(domain.ProviderFlutterwave, domain.ErrVerification, err)
	}
	return AccountDetails{AccountNumber: accountNumber, BankCode: bankCode, AccountName: out.Data.AccountName}, nil
}

func (f *Flutterwave) CreateRecipient(ctx context.Context, account AccountDetails) (Recipient, error) {
	in := map[string]string{
		"account_bank":     account.BankCode,
		"account_number":   account.AccountNumber,
		"beneficiary_name": account.AccountName,
		"currency":         "NGN",
	}
	var out flwEnvelope[struct {
		ID            flexID `json:"id"`
		RecipientCode string `json:"recipient_code"`
		FullName      string `json:"full_name"`
	}]
	rep, err := f.client.call(ctx, "create_recipient", http.MethodPost, "/transfers/recipients", in, &out)
	if err == nil {
		err = out.err(rep, "Failed to create recipient")
	}
	if err != nil {
		return Recipient{}, fail(domain.ProviderFlutterwave, domain.ErrRecipientCreation, err)
	}
	code := out.Data.RecipientCode
	if code == "" {
		code = string(out.Data.ID)
	}
	return Recipient{Code: code, AccountDetails: account}, nil
}

func (f *Flutterwave) InitiateTransfer(ctx context.Context, in TransferInstruction) (TransferResult, error) {
	body := struct {
		AccountBank   string      `json:"account_bank"`
		AccountNumber string      `json:"account_number"`
		Amount        json.Number `json:"amount"`
		Currency      string      `json:"currency"`
		Narration     string      `json:"narration"`
		Reference     string      `json:"reference"`
	}{
		AccountBank:   in.Recipient.BankCode,
		AccountNumber: in.Recipient.AccountNumber,
		Amount:        jsonNumber(in.Amount),
		Currency:      in.Currency,
		Narration:     in.Narration,
		Reference:     in.Reference,
	}
	var out flwEnvelope[struct {
		ID        flexID `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}]
	rep, err := f.client.call(ctx, "initiate_transfer", http.MethodPost, "/transfers", body, &out)
	if err == nil {
		err = out.err(rep, "Transfer failed")
	}
	if err != nil {
		return TransferResult{}, fail(domain.ProviderFlutterwave, domain.ErrTransferInitiation, err)
	}
	return TransferResult{
		ExternalTransferID: string(out.Data.ID),
		Reference:          firstNonEmpty(out.Data.Reference, in.Reference),
		Status:             resultStatus(out.Data.Status),
		RawStatus:          out.Data.Status,
	}, nil
}

func (f *Flutterwave) ListBanks(ctx context.Context) ([]BankOption, error) {
	var out flwEnvelope[[]BankOption]
	rep, err := f.client.call(ctx, "list_banks", http.MethodGet, "/banks/NG", nil, &out)
	if err == nil {
		err = out.err(rep, "Failed to fetch banks")
	}
	if err != nil {
		return nil, fail(domain.ProviderFlutterwave, domain.ErrRailUnavailable, err)
	}
	return out.Data, nil
}

func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
