package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

var _ Repository = (*MockStore)(nil)

// MockStore is an in-memory Repository for tests.
type MockStore struct {
	mu sync.Mutex

	// Mock data storage, keyed by id
	LinkedAccounts map[string]*domain.LinkedAccount
	Banks          map[string]*domain.Bank
	Transfers      map[string]*domain.Transfer
	Transactions   []*domain.Transaction

	// Error values to return
	InsertTransferErr    error
	InsertTransactionErr error
	UpdateStatusErr      error
	GetLinkedAccountErr  error
	GetBankErr           error

	// Calls counts mutating calls by method name.
	Calls map[string]int

	Now func() time.Time
}

func NewMockStore() *MockStore {
	return &MockStore{
		LinkedAccounts: make(map[string]*domain.LinkedAccount),
		Banks:          make(map[string]*domain.Bank),
		Transfers:      make(map[string]*domain.Transfer),
		Calls:          make(map[string]int),
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

func (m *MockStore) CreateLinkedAccount(_ context.Context, a *domain.LinkedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["CreateLinkedAccount"]++
	for _, existing := range m.LinkedAccounts {
		if existing.UserID == a.UserID && existing.Provider == a.Provider && existing.AccountNumber == a.AccountNumber {
			return domain.Wrap(domain.ErrValidation, "This account is already linked", domain.ErrDuplicateAccount)
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.Now()
	}
	cp := *a
	m.LinkedAccounts[a.ID] = &cp
	return nil
}

func (m *MockStore) GetLinkedAccount(_ context.Context, id string) (*domain.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetLinkedAccountErr != nil {
		return nil, m.GetLinkedAccountErr
	}
	a, ok := m.LinkedAccounts[id]
	if !ok {
		return nil, domain.NotFound("linked account not found")
	}
	cp := *a
	return &cp, nil
}

func (m *MockStore) ListLinkedAccounts(_ context.Context, userID string) ([]domain.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.LinkedAccount{}
	for _, a := range m.LinkedAccounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockStore) UpdateLinkedAccount(_ context.Context, id string, patch domain.LinkedAccountPatch) (*domain.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["UpdateLinkedAccount"]++
	a, ok := m.LinkedAccounts[id]
	if !ok {
		return nil, domain.NotFound("linked account not found")
	}
	if patch.AccountName != nil {
		a.AccountName = *patch.AccountName
	}
	if patch.BankName != nil {
		a.BankName = *patch.BankName
	}
	if patch.BankCode != nil {
		a.BankCode = *patch.BankCode
	}
	cp := *a
	return &cp, nil
}

func (m *MockStore) DeleteLinkedAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["DeleteLinkedAccount"]++
	if _, ok := m.LinkedAccounts[id]; !ok {
		return domain.NotFound("linked account not found")
	}
	delete(m.LinkedAccounts, id)
	return nil
}

func (m *MockStore) CreateBank(_ context.Context, b *domain.Bank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.Banks[b.ID] = &cp
	return nil
}

func (m *MockStore) GetBank(_ context.Context, id string) (*domain.Bank, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBankErr != nil {
		return nil, m.GetBankErr
	}
	b, ok := m.Banks[id]
	if !ok {
		return nil, domain.NotFound("bank account not found")
	}
	cp := *b
	return &cp, nil
}

func (m *MockStore) GetBankByAccountID(_ context.Context, accountID string) (*domain.Bank, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBankErr != nil {
		return nil, m.GetBankErr
	}
	for _, b := range m.Banks {
		if b.AccountID == accountID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.NotFound("bank account not found")
}

func (m *MockStore) ListBanks(_ context.Context, userID string) ([]domain.Bank, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Bank{}
	for _, b := range m.Banks {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *MockStore) InsertTransfer(_ context.Context, t *domain.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["InsertTransfer"]++
	if m.InsertTransferErr != nil {
		return m.InsertTransferErr
	}
	for _, existing := range m.Transfers {
		if existing.Reference == t.Reference ||
			(t.ExternalTransferID != "" && existing.Provider == t.Provider && existing.ExternalTransferID == t.ExternalTransferID) {
			return domain.Wrap(domain.ErrPersistence, "duplicate transfer reference", domain.ErrDuplicateReference)
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.Now()
	}
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.Transfers[t.ID] = &cp
	return nil
}

func (m *MockStore) GetTransfer(_ context.Context, id string, provider domain.Provider) (*domain.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transfers[id]
	if !ok || t.Provider != provider {
		return nil, domain.NotFound("transfer not found")
	}
	cp := *t
	return &cp, nil
}

func (m *MockStore) GetTransferByReference(_ context.Context, reference string) (*domain.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Transfers {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.NotFound("transfer not found")
}

func (m *MockStore) UpdateStatusByExternalID(_ context.Context, provider domain.Provider, externalID string, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error) {
	return m.update(func(t *domain.Transfer) bool {
		return t.Provider == provider && t.ExternalTransferID != "" && t.ExternalTransferID == externalID
	}, u)
}

func (m *MockStore) UpdateStatusByReference(_ context.Context, provider domain.Provider, reference string, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error) {
	return m.update(func(t *domain.Transfer) bool { return t.Provider == provider && t.Reference == reference }, u)
}

func (m *MockStore) update(match func(*domain.Transfer) bool, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["UpdateStatus"]++
	if m.UpdateStatusErr != nil {
		return nil, domain.TransitionNoop, m.UpdateStatusErr
	}
	for _, t := range m.Transfers {
		if !match(t) {
			continue
		}
		cp := *t
		transition, err := cp.Apply(u, m.Now())
		if err == nil && transition == domain.TransitionApplied {
			*t = cp
		}
		return &cp, transition, err
	}
	return nil, domain.TransitionNoop, domain.NotFound("transfer not found")
}

func (m *MockStore) InsertTransaction(_ context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["InsertTransaction"]++
	if m.InsertTransactionErr != nil {
		return m.InsertTransactionErr
	}
	cp := *tx
	m.Transactions = append(m.Transactions, &cp)
	return nil
}

func (m *MockStore) ListTransactions(_ context.Context, userID string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Transaction{}
	for i := len(m.Transactions) - 1; i >= 0; i-- {
		tx := m.Transactions[i]
		if tx.SenderID == userID || tx.ReceiverID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}
