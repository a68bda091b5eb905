package models

import (
	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest is the payload from the client. Amount accepts a JSON
// number or a numeric string.
type TransferRequest struct {
	Type              string          `json:"type"`
	SenderID          string          `json:"senderId"`
	SenderBankID      string          `json:"senderBankId,omitempty"`
	// SenderProvider, when set, must name the rail of the sender account.
	SenderProvider    string          `json:"senderProvider,omitempty"`
	ReceiverAccountID string          `json:"receiverAccountId,omitempty"`
	SharableID        string          `json:"sharableId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Email             string          `json:"email"`
	Name              string          `json:"name,omitempty"`

	// Regional rails address both sides by linked account.
	LinkedAccountID         string `json:"linkedAccountId,omitempty"`
	ReceiverLinkedAccountID string `json:"receiverLinkedAccountId,omitempty"`
}

// TransferResponse is returned once a transfer row has been written.
type TransferResponse struct {
	Success    bool             `json:"success"`
	Provider   domain.Provider  `json:"provider"`
	TransferID string           `json:"transferId"`
	Transfer   *domain.Transfer `json:"transfer,omitempty"`
	Status     domain.Status    `json:"status"`
	Reference  string           `json:"reference"`
	Message    string           `json:"message"`
}

// StatusResponse answers GET /transfer/status.
type StatusResponse struct {
	Success    bool          `json:"success,omitempty"`
	Status     domain.Status `json:"status"`
	Message    string        `json:"message"`
	TransferID string        `json:"transferId,omitempty"`
	Reference  string        `json:"reference,omitempty"`
}

// ReceiverLookupRequest identifies a receiver before a transfer is sent.
type ReceiverLookupRequest struct {
	SharableID      string `json:"sharableId,omitempty"`
	LinkedAccountID string `json:"linkedAccountId,omitempty"`
}

// ReceiverLookupResponse carries the name a sender confirms before paying.
type ReceiverLookupResponse struct {
	Success     bool   `json:"success"`
	AccountName string `json:"accountName"`
	Account     any    `json:"account"`
}

// SharedReceiver is what a share token reveals about the bank behind it.
type SharedReceiver struct {
	BankID      string `json:"bank_id"`
	AccountMask string `json:"account_mask"`
}

// VerifyAccountRequest is the body of POST /bank/{rail}/verify.
type VerifyAccountRequest struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

// LinkAccountRequest is the body of POST /linked-accounts.
type LinkAccountRequest struct {
	UserID        string `json:"userId"`
	Provider      string `json:"provider"`
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	AccountName   string `json:"accountName,omitempty"`
}

// UpdateAccountRequest is the body of PATCH /linked-accounts/{id}.
type UpdateAccountRequest struct {
	AccountName *string `json:"accountName,omitempty"`
	BankName    *string `json:"bankName,omitempty"`
	BankCode    *string `json:"bankCode,omitempty"`
}

// LinkedAccountResponse wraps one linked account.
type LinkedAccountResponse struct {
	Success bool                  `json:"success"`
	Account *domain.LinkedAccount `json:"account"`
	Message string                `json:"message,omitempty"`
}

// BankListResponse is a rail's bank directory.
type BankListResponse struct {
	Provider domain.Provider `json:"provider,omitempty"`
	Banks    any             `json:"banks"`
}

// ShareResponse carries a shareable token for a ledger-network account.
type ShareResponse struct {
	SharableID string `json:"sharableId"`
}

// WebhookResponse acknowledges a rail notification.
type WebhookResponse struct {
	Success  bool             `json:"success"`
	Transfer *domain.Transfer `json:"transfer,omitempty"`
	Message  string           `json:"message,omitempty"`
}
