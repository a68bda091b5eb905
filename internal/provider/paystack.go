package provider

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

// Paystack takes amounts in minor units (kobo) and signals success with a
// boolean status in the envelope.
type Paystack struct {
	client *jsonClient
}

func NewPaystack(baseURL, secretKey string, doer *http.Client, timeout time.Duration) *Paystack {
	c := newJSONClient(domain.ProviderPaystack, baseURL, doer, timeout)
	c.headers["Authorization"] = "Bearer " + secretKey
	return &Paystack{client: c}
}

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e paystackEnvelope[T]) err(rep reply, fallback string) error {
	if rep.ok() && e.Status {
		return nil
	}
	return rejected(rep.code, e.Message, fallback)
}

func (p *Paystack) Provider() domain.Provider { return domain.ProviderPaystack }

func (p *Paystack) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (AccountDetails, error) {
	q := url.Values{"account_number": {accountNumber}, "bank_code": {bankCode}}
	var out paystackEnvelope[struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}]
	rep, err := p.client.call(ctx, "verify_account", http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &out)
	if err == nil {
		err = out.err(rep, "Account verification failed")
	}
	if err != nil {
		return AccountDetails{}, fail(domain.ProviderPaystack, domain.ErrVerification, err)
	}
	return AccountDetails{AccountNumber: accountNumber, BankCode: bankCode, AccountName: out.Data.AccountName}, nil
}

func (p *Paystack) CreateRecipient(ctx context.Context, account AccountDetails) (Recipient, error) {
	in := map[string]string{
		"type":           "nuban",
		"name":           account.AccountName,
		"account_number": account.AccountNumber,
		"bank_code":      account.BankCode,
		"currency":       "NGN",
	}
	var out paystackEnvelope[struct {
		RecipientCode string `json:"recipient_code"`
		Details       struct {
			AccountName string `json:"account_name"`
			BankName    string `json:"bank_name"`
		} `json:"details"`
	}]
	rep, err := p.client.call(ctx, "create_recipient", http.MethodPost, "/transferrecipient", in, &out)
	if err == nil {
		err = out.err(rep, "Failed to create transfer recipient")
	}
	if err != nil {
		return Recipient{}, fail(domain.ProviderPaystack, domain.ErrRecipientCreation, err)
	}
	r := Recipient{Code: out.Data.RecipientCode, AccountDetails: account}
	if out.Data.Details.AccountName != "" {
		r.AccountName = out.Data.Details.AccountName
	}
	if out.Data.Details.BankName != "" {
		r.BankName = out.Data.Details.BankName
	}
	return r, nil
}

func (p *Paystack) InitiateTransfer(ctx context.Context, in TransferInstruction) (TransferResult, error) {
	kobo, err := domain.MinorUnits(in.Amount, in.Currency)
	if err != nil {
		return TransferResult{}, fail(domain.ProviderPaystack, domain.ErrTransferInitiation, err)
	}
	body := struct {
		Source    string `json:"source"`
		Amount    int64  `json:"amount"`
		Recipient string `json:"recipient"`
		Reason    string `json:"reason,omitempty"`
		Reference string `json:"reference"`
		Currency  string `json:"currency"`
	}{
		Source:    "balance",
		Amount:    kobo,
		Recipient: in.Recipient.Code,
		Reason:    in.Narration,
		Reference: in.Reference,
		Currency:  in.Currency,
	}
	var out paystackEnvelope[struct {
		ID           flexID `json:"id"`
		TransferCode string `json:"transfer_code"`
		Reference    string `json:"reference"`
		Status       string `json:"status"`
	}]
	rep, err := p.client.call(ctx, "initiate_transfer", http.MethodPost, "/transfer", body, &out)
	if err == nil {
		err = out.err(rep, "Transfer failed")
	}
	if err != nil {
		return TransferResult{}, fail(domain.ProviderPaystack, domain.ErrTransferInitiation, err)
	}
	return TransferResult{
		ExternalTransferID: firstNonEmpty(string(out.Data.ID), out.Data.TransferCode),
		Reference:          firstNonEmpty(out.Data.Reference, in.Reference),
		Status:             resultStatus(out.Data.Status),
		RawStatus:          out.Data.Status,
	}, nil
}

func (p *Paystack) ListBanks(ctx context.Context) ([]BankOption, error) {
	var out paystackEnvelope[[]BankOption]
	rep, err := p.client.call(ctx, "list_banks", http.MethodGet, "/bank?country=NG&currency=NGN", nil, &out)
	if err == nil {
		err = out.err(rep, "Failed to fetch banks")
	}
	if err != nil {
		return nil, fail(domain.ProviderPaystack, domain.ErrRailUnavailable, err)
	}
	return out.Data, nil
}
