package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

const dwollaMediaType = "application/vnd.dwolla.v1.hal+json"

// Dwolla is the ledger-network rail. Accounts are addressed by funding-source
// URL, so there is no recipient resource and no bank directory.
type Dwolla struct {
	client *jsonClient
	key    string
	secret string

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewDwolla(baseURL, key, secret string, doer *http.Client, timeout time.Duration) *Dwolla {
	d := &Dwolla{
		client: newJSONClient(domain.ProviderDwolla, baseURL, doer, timeout),
		key:    key,
		secret: secret,
	}
	d.client.authorize = d.authorize
	return d
}

type dwollaError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Embedded struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"_embedded"`
}

func (e dwollaError) err(rep reply, fallback string) error {
	if rep.ok() {
		return nil
	}
	msg := e.Message
	if len(e.Embedded.Errors) > 0 && e.Embedded.Errors[0].Message != "" {
		msg = e.Embedded.Errors[0].Message
	}
	return rejected(rep.code, msg, fallback)
}

func (d *Dwolla) authorize(ctx context.Context, req *http.Request) error {
	tok, err := d.accessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", dwollaMediaType)
	if req.Body != nil {
		req.Header.Set("Content-Type", dwollaMediaType)
	}
	return nil
}

// accessToken returns a cached client-credentials token, refreshing it
// shortly before it expires.
func (d *Dwolla) accessToken(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.token != "" && time.Now().Before(d.expires) {
		return d.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.client.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(d.key, d.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.http.Do(req)
	if err != nil {
		if timedOut(ctx, err) {
			return "", fmt.Errorf("token: %w", domain.ErrTimeout)
		}
		return "", fmt.Errorf("token: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		dwollaError
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token response (http %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.AccessToken == "" {
		return "", rejected(resp.StatusCode, out.Message, "Could not authenticate with the ledger network")
	}

	d.token = out.AccessToken
	d.expires = time.Now().Add(tokenLifetime(out.ExpiresIn))
	return d.token, nil
}

// tokenLifetime is how long a token that expires in expiresIn seconds is
// reused: a minute less, but never less than half its lifetime.
func tokenLifetime(expiresIn int) time.Duration {
	lifetime := time.Duration(expiresIn) * time.Second
	return lifetime - min(time.Minute, lifetime/2)
}

func (d *Dwolla) Provider() domain.Provider { return domain.ProviderDwolla }

// VerifyAccount looks up a funding source. accountNumber is the funding
// source URL or id; bankCode is unused.
func (d *Dwolla) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (AccountDetails, error) {
	target := accountNumber
	if !strings.HasPrefix(target, "http") {
		target = "/funding-sources/" + url.PathEscape(accountNumber)
	}
	var out struct {
		dwollaError
		Name     string `json:"name"`
		BankName string `json:"bankName"`
		Status   string `json:"status"`
		Removed  bool   `json:"removed"`
	}
	rep, err := d.client.call(ctx, "verify_account", http.MethodGet, target, nil, &out)
	if err == nil {
		err = out.err(rep, "Funding source not found")
	}
	if err == nil && out.Removed {
		err = rejected(rep.code, "Funding source has been removed", "")
	}
	if err != nil {
		return AccountDetails{}, fail(domain.ProviderDwolla, domain.ErrVerification, err)
	}
	return AccountDetails{AccountNumber: accountNumber, BankCode: bankCode, AccountName: out.Name, BankName: out.BankName}, nil
}

// CreateRecipient needs no call: the funding-source URL is the recipient.
func (d *Dwolla) CreateRecipient(_ context.Context, account AccountDetails) (Recipient, error) {
	if account.AccountNumber == "" {
		return Recipient{}, domain.Wrap(domain.ErrRecipientCreation, "receiver has no funding source", fmt.Errorf("%s: empty funding source", domain.ProviderDwolla))
	}
	return Recipient{Code: account.AccountNumber, AccountDetails: account}, nil
}

type dwollaLink struct {
	Href string `json:"href"`
}

func (d *Dwolla) InitiateTransfer(ctx context.Context, in TransferInstruction) (TransferResult, error) {
	body := struct {
		Links struct {
			Source      dwollaLink `json:"source"`
			Destination dwollaLink `json:"destination"`
		} `json:"_links"`
		Amount struct {
			Currency string `json:"currency"`
			Value    string `json:"value"`
		} `json:"amount"`
		CorrelationID string `json:"correlationId,omitempty"`
	}{}
	body.Links.Source.Href = in.Source
	body.Links.Destination.Href = in.Recipient.Code
	body.Amount.Currency = in.Currency
	body.Amount.Value = domain.MajorString(in.Amount, in.Currency)
	body.CorrelationID = in.Reference

	var out dwollaError
	rep, err := d.client.call(ctx, "initiate_transfer", http.MethodPost, "/transfers", body, &out,
		withHeader("Idempotency-Key", in.Reference))
	if err == nil {
		err = out.err(rep, "Transfer failed")
	}
	if err != nil {
		return TransferResult{}, fail(domain.ProviderDwolla, domain.ErrTransferInitiation, err)
	}

	var id string
	if loc := rep.header.Get("Location"); loc != "" {
		if u, perr := url.Parse(loc); perr == nil {
			id = path.Base(u.Path)
		}
	}
	return TransferResult{
		ExternalTransferID: id,
		Reference:          in.Reference,
		Status:             domain.StatusProcessing,
		RawStatus:          "pending",
	}, nil
}

// ListBanks returns nothing: ledger-network accounts are linked through the aggregator.
func (d *Dwolla) ListBanks(context.Context) ([]BankOption, error) {
	return []BankOption{}, nil
}
