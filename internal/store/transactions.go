package store

import (
	"context"
	"fmt"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}
	_, err := s.b.exec(ctx, `INSERT INTO transactions
		(id, transfer_id, name, amount, currency, channel, category, sender_id, receiver_id,
		 sender_bank_id, receiver_bank_id, email, provider, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		tx.ID, tx.TransferID, tx.Name, tx.Amount.String(), tx.Currency, tx.Channel, tx.Category,
		tx.SenderID, tx.ReceiverID, tx.SenderBankID, tx.ReceiverBankID, tx.Email,
		string(tx.Provider), tx.Reference, tx.CreatedAt)
	if err != nil {
		return persistence("insert transaction", err)
	}
	return nil
}

// ListTransactions returns entries a user sent or received, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := s.b.query(ctx, `SELECT id, transfer_id, name, CAST(amount AS TEXT), currency, channel, category,
		sender_id, receiver_id, sender_bank_id, receiver_bank_id, email, provider, reference, created_at
		FROM transactions WHERE sender_id = $1 OR receiver_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, persistence("list transactions", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var (
			tx               domain.Transaction
			amount, provider string
		)
		if err := rows.Scan(&tx.ID, &tx.TransferID, &tx.Name, &amount, &tx.Currency, &tx.Channel, &tx.Category,
			&tx.SenderID, &tx.ReceiverID, &tx.SenderBankID, &tx.ReceiverBankID, &tx.Email,
			&provider, &tx.Reference, &tx.CreatedAt); err != nil {
			return nil, persistence("scan transaction", err)
		}
		tx.Provider = domain.Provider(provider)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, persistence("scan transaction", fmt.Errorf("invalid amount %q: %w", amount, err))
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list transactions", err)
	}
	return txs, nil
}
