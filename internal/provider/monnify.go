package provider

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

// Monnify uses basic auth built from the api key and secret, and reports
// success with requestSuccessful. It has no separate recipient resource:
// validating bank details doubles as recipient creation.
type Monnify struct {
	client *jsonClient
	// sourceAccount is debited when the sender's account number is unknown.
	sourceAccount string
}

func NewMonnify(baseURL, apiKey, secretKey, sourceAccount string, doer *http.Client, timeout time.Duration) *Monnify {
	c := newJSONClient(domain.ProviderMonnify, baseURL, doer, timeout)
	creds := base64.StdEncoding.EncodeToString([]byte(apiKey + ":" + secretKey))
	c.headers["Authorization"] = "Basic " + creds
	return &Monnify{client: c, sourceAccount: sourceAccount}
}

type monnifyEnvelope[T any] struct {
	RequestSuccessful bool   `json:"requestSuccessful"`
	ResponseMessage   string `json:"responseMessage"`
	ResponseCode      string `json:"responseCode"`
	ResponseBody      T      `json:"responseBody"`
}

func (e monnifyEnvelope[T]) err(rep reply, fallback string) error {
	if rep.ok() && e.RequestSuccessful {
		return nil
	}
	return rejected(rep.code, e.ResponseMessage, fallback)
}

type monnifyAccount struct {
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankCode      string `json:"bankCode"`
}

func (m *Monnify) Provider() domain.Provider { return domain.ProviderMonnify }

func (m *Monnify) validate(ctx context.Context, op, accountNumber, bankCode, fallback string) (monnifyAccount, error) {
	in := map[string]string{"accountNumber": accountNumber, "bankCode": bankCode}
	var out monnifyEnvelope[monnifyAccount]
	rep, err := m.client.call(ctx, op, http.MethodPost, "/v1/transfer/bank-details/validate", in, &out)
	if err == nil {
		err = out.err(rep, fallback)
	}
	return out.ResponseBody, err
}

func (m *Monnify) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (AccountDetails, error) {
	acct, err := m.validate(ctx, "verify_account", accountNumber, bankCode, "Account verification failed")
	if err != nil {
		return AccountDetails{}, fail(domain.ProviderMonnify, domain.ErrVerification, err)
	}
	return AccountDetails{AccountNumber: accountNumber, BankCode: bankCode, AccountName: acct.AccountName}, nil
}

func (m *Monnify) CreateRecipient(ctx context.Context, account AccountDetails) (Recipient, error) {
	acct, err := m.validate(ctx, "create_recipient", account.AccountNumber, account.BankCode, "Failed to create recipient")
	if err != nil {
		return Recipient{}, fail(domain.ProviderMonnify, domain.ErrRecipientCreation, err)
	}
	r := Recipient{AccountDetails: account}
	if acct.AccountName != "" {
		r.AccountName = acct.AccountName
	}
	return r, nil
}

func (m *Monnify) InitiateTransfer(ctx context.Context, in TransferInstruction) (TransferResult, error) {
	body := map[string]any{
		"sourceAccountNumber":      firstNonEmpty(in.Source, m.sourceAccount),
		"destinationBankCode":      in.Recipient.BankCode,
		"destinationAccountNumber": in.Recipient.AccountNumber,
		"amount":                   jsonNumber(in.Amount),
		"currency":                 in.Currency,
		"transactionReference":     in.Reference,
		"narration":                in.Narration,
	}
	var out monnifyEnvelope[struct {
		TransactionID        flexID `json:"transactionId"`
		TransactionReference string `json:"transactionReference"`
		Reference            string `json:"reference"`
		Status               string `json:"status"`
	}]
	rep, err := m.client.call(ctx, "initiate_transfer", http.MethodPost, "/v1/transfer/create", body, &out)
	if err == nil {
		err = out.err(rep, "Transfer failed")
	}
	if err != nil {
		return TransferResult{}, fail(domain.ProviderMonnify, domain.ErrTransferInitiation, err)
	}
	res := out.ResponseBody
	return TransferResult{
		ExternalTransferID: string(res.TransactionID),
		Reference:          firstNonEmpty(res.TransactionReference, res.Reference, in.Reference),
		Status:             resultStatus(res.Status),
		RawStatus:          res.Status,
	}, nil
}

func (m *Monnify) ListBanks(ctx context.Context) ([]BankOption, error) {
	var out monnifyEnvelope[[]BankOption]
	rep, err := m.client.call(ctx, "list_banks", http.MethodGet, "/v1/banks", nil, &out)
	if err == nil {
		err = out.err(rep, "Failed to fetch banks")
	}
	if err != nil {
		return nil, fail(domain.ProviderMonnify, domain.ErrRailUnavailable, err)
	}
	return out.ResponseBody, nil
}
