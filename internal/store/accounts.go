package store

import (
	"context"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

const selectLinkedAccount = `SELECT id, user_id, provider, account_number, bank_code, bank_name,
	account_name, country, created_at FROM linked_accounts`

func scanLinkedAccount(row rowScanner) (*domain.LinkedAccount, error) {
	var (
		a        domain.LinkedAccount
		provider string
	)
	if err := row.Scan(&a.ID, &a.UserID, &provider, &a.AccountNumber, &a.BankCode, &a.BankName,
		&a.AccountName, &a.Country, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Provider = domain.Provider(provider)
	return &a, nil
}

func (s *Store) CreateLinkedAccount(ctx context.Context, a *domain.LinkedAccount) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	_, err := s.b.exec(ctx, `INSERT INTO linked_accounts
		(id, user_id, provider, account_number, bank_code, bank_name, account_name, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, string(a.Provider), a.AccountNumber, a.BankCode, a.BankName, a.AccountName, a.Country, a.CreatedAt)
	if err != nil {
		if _, ok := s.b.uniqueViolation(err); ok {
			return domain.Wrap(domain.ErrValidation, "This account is already linked", domain.ErrDuplicateAccount)
		}
		return persistence("insert linked account", err)
	}
	return nil
}

func (s *Store) GetLinkedAccount(ctx context.Context, id string) (*domain.LinkedAccount, error) {
	a, err := scanLinkedAccount(s.b.queryRow(ctx, selectLinkedAccount+` WHERE id = $1`, id))
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, domain.NotFound("linked account not found")
		}
		return nil, persistence("get linked account", err)
	}
	return a, nil
}

// ListLinkedAccounts returns a user's accounts, newest first.
func (s *Store) ListLinkedAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error) {
	rows, err := s.b.query(ctx, selectLinkedAccount+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, persistence("list linked accounts", err)
	}
	defer rows.Close()

	accounts := []domain.LinkedAccount{}
	for rows.Next() {
		a, err := scanLinkedAccount(rows)
		if err != nil {
			return nil, persistence("scan linked account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list linked accounts", err)
	}
	return accounts, nil
}

// UpdateLinkedAccount changes display fields only.
func (s *Store) UpdateLinkedAccount(ctx context.Context, id string, patch domain.LinkedAccountPatch) (*domain.LinkedAccount, error) {
	if !patch.Empty() {
		n, err := s.b.exec(ctx, `UPDATE linked_accounts SET
			account_name = COALESCE($1, account_name),
			bank_name = COALESCE($2, bank_name),
			bank_code = COALESCE($3, bank_code)
			WHERE id = $4`,
			patch.AccountName, patch.BankName, patch.BankCode, id)
		if err != nil {
			return nil, persistence("update linked account", err)
		}
		if n == 0 {
			return nil, domain.NotFound("linked account not found")
		}
	}
	return s.GetLinkedAccount(ctx, id)
}

func (s *Store) DeleteLinkedAccount(ctx context.Context, id string) error {
	n, err := s.b.exec(ctx, `DELETE FROM linked_accounts WHERE id = $1`, id)
	if err != nil {
		return persistence("delete linked account", err)
	}
	if n == 0 {
		return domain.NotFound("linked account not found")
	}
	return nil
}

const selectBank = `SELECT id, user_id, bank_id, account_id, access_token, funding_source_url, created_at FROM banks`

func scanBank(row rowScanner) (*domain.Bank, error) {
	var b domain.Bank
	if err := row.Scan(&b.ID, &b.UserID, &b.BankID, &b.AccountID, &b.AccessToken, &b.FundingSourceURL, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBank(ctx context.Context, b *domain.Bank) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	_, err := s.b.exec(ctx, `INSERT INTO banks
		(id, user_id, bank_id, account_id, access_token, funding_source_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.UserID, b.BankID, b.AccountID, b.AccessToken, b.FundingSourceURL, b.CreatedAt)
	if err != nil {
		if _, ok := s.b.uniqueViolation(err); ok {
			return domain.Wrap(domain.ErrValidation, "This account is already linked", domain.ErrDuplicateAccount)
		}
		return persistence("insert bank", err)
	}
	return nil
}

func (s *Store) GetBank(ctx context.Context, id string) (*domain.Bank, error) {
	return s.bankResult(scanBank(s.b.queryRow(ctx, selectBank+` WHERE id = $1`, id)))
}

func (s *Store) GetBankByAccountID(ctx context.Context, accountID string) (*domain.Bank, error) {
	return s.bankResult(scanBank(s.b.queryRow(ctx, selectBank+` WHERE account_id = $1`, accountID)))
}

func (s *Store) bankResult(b *domain.Bank, err error) (*domain.Bank, error) {
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, domain.NotFound("bank account not found")
		}
		return nil, persistence("get bank", err)
	}
	return b, nil
}

func (s *Store) ListBanks(ctx context.Context, userID string) ([]domain.Bank, error) {
	rows, err := s.b.query(ctx, selectBank+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, persistence("list banks", err)
	}
	defer rows.Close()

	banks := []domain.Bank{}
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, persistence("scan bank", err)
		}
		banks = append(banks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list banks", err)
	}
	return banks, nil
}
