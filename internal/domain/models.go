package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider names a payment rail.
type Provider string

const (
	// ProviderDwolla is the ledger-network rail (US accounts linked via an aggregator).
	ProviderDwolla      Provider = "dwolla"
	ProviderFlutterwave Provider = "flutterwave"
	ProviderPaystack    Provider = "paystack"
	ProviderOpay        Provider = "opay"
	ProviderMonnify     Provider = "monnify"
)

// RegionalProviders lists the rails that move money between linked accounts.
var RegionalProviders = []Provider{ProviderFlutterwave, ProviderPaystack, ProviderOpay, ProviderMonnify}

// AllProviders lists every rail, ledger network first.
var AllProviders = append([]Provider{ProviderDwolla}, RegionalProviders...)

// ParseProvider normalizes a rail name and rejects unknown ones.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case ProviderDwolla, ProviderFlutterwave, ProviderPaystack, ProviderOpay, ProviderMonnify:
		return p, nil
	}
	return "", Validation(fmt.Sprintf("unknown provider %q", raw))
}

// Regional reports whether p is one of the linked-account rails.
func (p Provider) Regional() bool {
	switch p {
	case ProviderFlutterwave, ProviderPaystack, ProviderOpay, ProviderMonnify:
		return true
	case ProviderDwolla:
		return false
	}
	return false
}

// Currency is the settlement currency of the rail.
func (p Provider) Currency() string {
	switch p {
	case ProviderDwolla:
		return "USD"
	case ProviderFlutterwave, ProviderPaystack, ProviderOpay, ProviderMonnify:
		return "NGN"
	}
	return ""
}

// LinkedAccount is a user's account on a regional rail.
type LinkedAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Provider      Provider  `json:"provider"`
	AccountNumber string    `json:"account_number"`
	BankCode      string    `json:"bank_code"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	Country       string    `json:"country"`
	CreatedAt     time.Time `json:"created_at"`
}

// LinkedAccountPatch carries the display fields a user may edit.
type LinkedAccountPatch struct {
	AccountName *string `json:"account_name,omitempty"`
	BankName    *string `json:"bank_name,omitempty"`
	BankCode    *string `json:"bank_code,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p LinkedAccountPatch) Empty() bool {
	return p.AccountName == nil && p.BankName == nil && p.BankCode == nil
}

// Bank is an account linked through the aggregator for the ledger-network rail.
// AccessToken and FundingSourceURL are secrets and never leave the server.
type Bank struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	BankID           string    `json:"bank_id"`
	AccountID        string    `json:"account_id"`
	AccessToken      string    `json:"-"`
	FundingSourceURL string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Transfer is the durable record of one money movement.
type Transfer struct {
	ID                 string          `json:"id"`
	Provider           Provider        `json:"provider"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	SenderID           string          `json:"sender_id"`
	ReceiverID         string          `json:"receiver_id"`
	Status             Status          `json:"status"`
	StatusMessage      string          `json:"status_message,omitempty"`
	Reference          string          `json:"reference"`
	ExternalTransferID string          `json:"external_transfer_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	LastEventAt        *time.Time      `json:"last_event_at,omitempty"`
}

// Transaction is the append-only accounting entry written alongside a transfer.
type Transaction struct {
	ID             string          `json:"id"`
	TransferID     string          `json:"transfer_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Channel        string          `json:"channel"`
	Category       string          `json:"category"`
	SenderID       string          `json:"sender_id"`
	ReceiverID     string          `json:"receiver_id"`
	SenderBankID   string          `json:"sender_bank_id"`
	ReceiverBankID string          `json:"receiver_bank_id"`
	Email          string          `json:"email"`
	Provider       Provider        `json:"provider"`
	Reference      string          `json:"reference"`
	CreatedAt      time.Time       `json:"created_at"`
}
