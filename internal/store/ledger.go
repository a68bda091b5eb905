package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/shopspring/decimal"
)

const selectTransfer = `SELECT id, provider, CAST(amount AS TEXT), currency, sender_id, receiver_id,
	status, status_message, reference, external_transfer_id, created_at, updated_at, last_event_at
	FROM transfers`

func scanTransfer(row rowScanner) (*domain.Transfer, error) {
	var (
		t                        domain.Transfer
		provider, status, amount string
		external                 *string
	)
	err := row.Scan(&t.ID, &provider, &amount, &t.Currency, &t.SenderID, &t.ReceiverID,
		&status, &t.StatusMessage, &t.Reference, &external, &t.CreatedAt, &t.UpdatedAt, &t.LastEventAt)
	if err != nil {
		return nil, err
	}
	t.Provider = domain.Provider(provider)
	t.Status = domain.Status(status)
	if external != nil {
		t.ExternalTransferID = *external
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transfer %s has invalid amount %q: %w", t.ID, amount, err)
	}
	return &t, nil
}

// InsertTransfer stores a new transfer. A reused reference or external id
// is a persistence error that also matches domain.ErrDuplicateReference.
func (s *Store) InsertTransfer(ctx context.Context, t *domain.Transfer) error {
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt

	_, err := s.b.exec(ctx, `INSERT INTO transfers
		(id, provider, amount, currency, sender_id, receiver_id, status, status_message,
		 reference, external_transfer_id, created_at, updated_at, last_event_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, string(t.Provider), t.Amount.String(), t.Currency, t.SenderID, t.ReceiverID,
		string(t.Status), t.StatusMessage, t.Reference, nullable(t.ExternalTransferID),
		t.CreatedAt, t.UpdatedAt, t.LastEventAt)
	if err != nil {
		if detail, ok := s.b.uniqueViolation(err); ok {
			msg := "duplicate transfer reference"
			if strings.Contains(detail, "external_transfer_id") {
				msg = "duplicate external transfer id"
			}
			return domain.Wrap(domain.ErrPersistence, msg, fmt.Errorf("%w: %s", domain.ErrDuplicateReference, detail))
		}
		return persistence("insert transfer", err)
	}
	return nil
}

// GetTransfer finds a transfer by id on the given rail.
func (s *Store) GetTransfer(ctx context.Context, id string, provider domain.Provider) (*domain.Transfer, error) {
	t, err := scanTransfer(s.b.queryRow(ctx, selectTransfer+` WHERE id = $1 AND provider = $2`, id, string(provider)))
	return s.transferResult(t, err, "get transfer")
}

func (s *Store) GetTransferByReference(ctx context.Context, reference string) (*domain.Transfer, error) {
	t, err := scanTransfer(s.b.queryRow(ctx, selectTransfer+` WHERE reference = $1`, reference))
	return s.transferResult(t, err, "get transfer by reference")
}

func (s *Store) transferResult(t *domain.Transfer, err error, op string) (*domain.Transfer, error) {
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, domain.NotFound("transfer not found")
		}
		return nil, persistence(op, err)
	}
	return t, nil
}

func (s *Store) UpdateStatusByExternalID(ctx context.Context, provider domain.Provider, externalID string, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error) {
	return s.updateStatus(ctx, `provider = $1 AND external_transfer_id = $2`, []any{string(provider), externalID}, u)
}

func (s *Store) UpdateStatusByReference(ctx context.Context, provider domain.Provider, reference string, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error) {
	return s.updateStatus(ctx, `provider = $1 AND reference = $2`, []any{string(provider), reference}, u)
}

// updateStatus locks the matching row, applies u and writes the result back
// only when the transition was applied. On ErrInconsistentState the stored
// transfer is returned with the error.
func (s *Store) updateStatus(ctx context.Context, where string, args []any, u domain.StatusUpdate) (*domain.Transfer, domain.Transition, error) {
	var (
		current    *domain.Transfer
		transition domain.Transition
	)
	err := s.b.inTx(ctx, func(q querier) error {
		t, err := scanTransfer(q.queryRow(ctx, selectTransfer+` WHERE `+where+s.b.lockSuffix(), args...))
		if err != nil {
			return err
		}
		current = t

		transition, err = t.Apply(u, s.now())
		if err != nil || transition != domain.TransitionApplied {
			return err
		}

		_, err = q.exec(ctx, `UPDATE transfers
			SET status = $1, status_message = $2, last_event_at = $3, updated_at = $4
			WHERE id = $5`,
			string(t.Status), t.StatusMessage, t.LastEventAt, t.UpdatedAt, t.ID)
		return err
	})
	if err != nil {
		var de *domain.Error
		switch {
		case s.b.isNoRows(err):
			return nil, transition, domain.NotFound("transfer not found")
		case errors.As(err, &de):
			return current, transition, err
		}
		return nil, transition, persistence("update transfer status", err)
	}
	return current, transition, nil
}
