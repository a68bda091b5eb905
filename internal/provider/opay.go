package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

const opaySuccess = "00000"

// Opay needs the merchant id header next to the bearer key; code "00000"
// means success.
type Opay struct {
	client *jsonClient
}

func NewOpay(baseURL, secretKey, merchantID string, doer *http.Client, timeout time.Duration) *Opay {
	c := newJSONClient(domain.ProviderOpay, baseURL, doer, timeout)
	c.headers["Authorization"] = "Bearer " + secretKey
	c.headers["X-Merchant-ID"] = merchantID
	return &Opay{client: c}
}

type opayEnvelope[T any] struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e opayEnvelope[T]) err(rep reply, fallback string) error {
	if rep.ok() && e.Code == opaySuccess {
		return nil
	}
	return rejected(rep.code, e.Message, fallback)
}

func (o *Opay) Provider() domain.Provider { return domain.ProviderOpay }

func (o *Opay) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (AccountDetails, error) {
	in := map[string]string{"accountNumber": accountNumber, "bankCode": bankCode}
	var out opayEnvelope[struct {
		AccountName string `json:"accountName"`
	}]
	rep, err := o.client.call(ctx, "verify_account", http.MethodPost, "/api/v3/accountService/accountVerification", in, &out)
	if err == nil {
		err = out.err(rep, "Account verification failed")
	}
	if err != nil {
		return AccountDetails{}, fail(domain.ProviderOpay, domain.ErrVerification, err)
	}
	return AccountDetails{AccountNumber: accountNumber, BankCode: bankCode, AccountName: out.Data.AccountName}, nil
}

func (o *Opay) CreateRecipient(ctx context.Context, account AccountDetails) (Recipient, error) {
	in := map[string]string{
		"accountNumber":   account.AccountNumber,
		"bankCode":        account.BankCode,
		"beneficiaryName": account.AccountName,
		"currency":        "NGN",
	}
	var out opayEnvelope[struct {
		BeneficiaryID flexID `json:"beneficiaryId"`
		AccountName   string `json:"accountName"`
	}]
	rep, err := o.client.call(ctx, "create_recipient", http.MethodPost, "/api/v3/transferService/beneficiary/add", in, &out)
	if err == nil {
		err = out.err(rep, "Failed to create beneficiary")
	}
	if err != nil {
		return Recipient{}, fail(domain.ProviderOpay, domain.ErrRecipientCreation, err)
	}
	r := Recipient{Code: string(out.Data.BeneficiaryID), AccountDetails: account}
	if out.Data.AccountName != "" {
		r.AccountName = out.Data.AccountName
	}
	return r, nil
}

func (o *Opay) InitiateTransfer(ctx context.Context, in TransferInstruction) (TransferResult, error) {
	body := map[string]any{
		"beneficiaryId": in.Recipient.Code,
		"amount":        jsonNumber(in.Amount),
		"currency":      in.Currency,
		"narration":     in.Narration,
		"reference":     in.Reference,
	}
	var out opayEnvelope[struct {
		TransactionID flexID `json:"transactionId"`
		Reference     string `json:"reference"`
		Status        string `json:"status"`
	}]
	rep, err := o.client.call(ctx, "initiate_transfer", http.MethodPost, "/api/v3/transferService/transfer", body, &out)
	if err == nil {
		err = out.err(rep, "Transfer failed")
	}
	if err != nil {
		return TransferResult{}, fail(domain.ProviderOpay, domain.ErrTransferInitiation, err)
	}
	return TransferResult{
		ExternalTransferID: string(out.Data.TransactionID),
		Reference:          firstNonEmpty(out.Data.Reference, in.Reference),
		Status:             resultStatus(out.Data.Status),
		RawStatus:          out.Data.Status,
	}, nil
}

func (o *Opay) ListBanks(ctx context.Context) ([]BankOption, error) {
	var out opayEnvelope[[]BankOption]
	rep, err := o.client.call(ctx, "list_banks", http.MethodGet, "/api/v3/bank/list", nil, &out)
	if err == nil {
		err = out.err(rep, "Failed to fetch banks")
	}
	if err != nil {
		return nil, fail(domain.ProviderOpay, domain.ErrRailUnavailable, err)
	}
	return out.Data, nil
}
