// Package provider talks to the payment rails. Every rail is hidden behind
// Adapter so callers never see rail-specific field names, amount units or
// auth schemes.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountDetails is a bank account as resolved by a rail.
type AccountDetails struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	AccountName   string `json:"accountName"`
	BankName      string `json:"bankName,omitempty"`
}

// Recipient is a rail-side handle for a destination account.
type Recipient struct {
	// Code is the rail's recipient id (Paystack recipient_code, Opay
	// beneficiaryId, Dwolla funding-source URL). Empty when the rail
	// addresses the account directly.
	Code string
	AccountDetails
}

// TransferInstruction describes one outbound transfer.
type TransferInstruction struct {
	Recipient Recipient
	// Source is the debit side: a funding-source URL on the ledger
	// network, the sender's account number on regional rails.
	Source    string
	Amount    decimal.Decimal
	Currency  string
	Reference string
	Narration string
}

// TransferResult is what a rail reports right after initiation.
type TransferResult struct {
	ExternalTransferID string
	Reference          string
	Status             domain.Status
	RawStatus          string
}

// BankOption is an entry of a rail's bank directory.
type BankOption struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Adapter is the contract every rail implements.
type Adapter interface {
	Provider() domain.Provider
	// VerifyAccount resolves the holder of an account. Safe to retry.
	VerifyAccount(ctx context.Context, accountNumber, bankCode string) (AccountDetails, error)
	// CreateRecipient registers a destination. Not idempotent.
	CreateRecipient(ctx context.Context, account AccountDetails) (Recipient, error)
	// InitiateTransfer sends money. The reference must be unique per attempt.
	InitiateTransfer(ctx context.Context, in TransferInstruction) (TransferResult, error)
	ListBanks(ctx context.Context) ([]BankOption, error)
}

// fail builds the error an adapter returns. The client message is the rail's
// own message when it sent one. Timeouts keep ErrTimeout in the chain.
func fail(p domain.Provider, kind error, cause error) error {
	var msg string
	var re *railError
	switch {
	case errors.Is(cause, domain.ErrTimeout):
		msg = fmt.Sprintf("%s did not respond in time", p)
	case errors.As(cause, &re):
		msg = re.message
	default:
		msg = fmt.Sprintf("%s via %s", kind, p)
	}
	return domain.Wrap(kind, msg, fmt.Errorf("%s: %w", p, cause))
}

// railError is a failure reported in a rail's response body.
type railError struct {
	status  int
	message string
}

func (e *railError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, e.message)
}

func rejected(status int, message, fallback string) *railError {
	if message == "" {
		message = fallback
	}
	return &railError{status: status, message: message}
}

// resultStatus turns a rail's initiation status into the status a new
// transfer is stored with. Non-terminal answers become processing.
func resultStatus(raw string) domain.Status {
	s := domain.ParseStatus(raw)
	if s.Terminal() {
		return s
	}
	return domain.StatusProcessing
}
