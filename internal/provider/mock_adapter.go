package provider

import (
	"context"
	"sync"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

var _ Adapter = (*MockAdapter)(nil)

// MockAdapter is an in-memory rail for tests. Nil funcs succeed with canned data.
type MockAdapter struct {
	Rail domain.Provider

	VerifyFunc    func(accountNumber, bankCode string) (AccountDetails, error)
	RecipientFunc func(AccountDetails) (Recipient, error)
	InitiateFunc  func(TransferInstruction) (TransferResult, error)
	BanksFunc     func() ([]BankOption, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockAdapter) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

// Calls lists the operations invoked so far, in order.
func (m *MockAdapter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAdapter) Provider() domain.Provider { return m.Rail }

func (m *MockAdapter) VerifyAccount(_ context.Context, accountNumber, bankCode string) (AccountDetails, error) {
	m.record("verify")
	if m.VerifyFunc != nil {
		return m.VerifyFunc(accountNumber, bankCode)
	}
	return AccountDetails{AccountNumber: accountNumber, BankCode: bankCode, AccountName: "TEST USER"}, nil
}

func (m *MockAdapter) CreateRecipient(_ context.Context, account AccountDetails) (Recipient, error) {
	m.record("recipient")
	if m.RecipientFunc != nil {
		return m.RecipientFunc(account)
	}
	return Recipient{Code: "RCP_1", AccountDetails: account}, nil
}

func (m *MockAdapter) InitiateTransfer(_ context.Context, in TransferInstruction) (TransferResult, error) {
	m.record("initiate")
	if m.InitiateFunc != nil {
		return m.InitiateFunc(in)
	}
	return TransferResult{ExternalTransferID: "ext-1", Reference: in.Reference, Status: domain.StatusProcessing}, nil
}

func (m *MockAdapter) ListBanks(context.Context) ([]BankOption, error) {
	m.record("banks")
	if m.BanksFunc != nil {
		return m.BanksFunc()
	}
	return []BankOption{{Name: "Access Bank", Code: "044"}}, nil
}
