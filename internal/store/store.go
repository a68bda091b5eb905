package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

// LinkedAccountStore keeps regional-rail accounts.
type LinkedAccountStore interface {
	CreateLinkedAccount(ctx context.Context, a *domain.LinkedAccount) error
	GetLinkedAccount(ctx context.Context, id string) (*domain.LinkedAccount, error)
	ListLinkedAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error)
	UpdateLinkedAccount(ctx context.Context, id string, patch domain.LinkedAccountPatch) (*domain.LinkedAccount, error)
	DeleteLinkedAccount(ctx context.Context, id string) error
}

// BankStore keeps accounts linked for the ledger-network rail.
type BankStore interface {
	CreateBank(ctx context.Context, b *domain.Bank) error
	GetBank(ctx context.Context, id string) (*domain.Bank, error)
	GetBankByAccountID(ctx context.Context, accountID string) (*domain.Bank, error)
	ListBanks(ctx context.Context, userID string) ([]domain.Bank, error)
}

// TransferLedger is the durable record of transfers and their status.
// Status updates run in a transaction holding the row lock, so concurrent
// updates for the same transfer serialize and domain.Transfer.Apply decides.
type TransferLedger interface {
	InsertTransfer(ctx context.Context, t *domain.Transfer) error
	GetTransfer(ctx context.Context, id string, provider domain.Provider) (*domain.Transfer, error)
	GetTransferByReference(ctx context.Context, reference string) (*domain.Transfer, error)
	UpdateStatusByExternalID(ctx context.Context, provider domain.Provider, externalID string, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error)
	UpdateStatusByReference(ctx context.Context, provider domain.Provider, reference string, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error)
}

// TransactionLog is the append-only accounting history.
type TransactionLog interface {
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// Repository is everything the service layer needs from storage.
type Repository interface {
	LinkedAccountStore
	BankStore
	TransferLedger
	TransactionLog
}

var _ Repository = (*Store)(nil)

// Store implements Repository over Postgres or SQLite.
type Store struct {
	b   backend
	now func() time.Time
}

// NewStore opens the database named by driver ("postgres" or "sqlite").
func NewStore(ctx context.Context, driver, source string) (*Store, error) {
	var (
		b   backend
		err error
	)
	switch driver {
	case "postgres":
		b, err = openPostgres(ctx, source)
	case "sqlite":
		b, err = openSQLite(source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return &Store{b: b, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.b.exec(ctx, s.b.schema()); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.b.close()
}

// persistence wraps unexpected database failures.
func persistence(op string, err error) error {
	return domain.Wrap(domain.ErrPersistence, "database error", fmt.Errorf("%s: %w", op, err))
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
