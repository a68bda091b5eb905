package service

import (
	"context"
	"errors"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/rs/zerolog/log"
)

// StatusService answers status polls from the ledger alone.
type StatusService struct {
	ledger store.TransferLedger
}

func NewStatusService(ledger store.TransferLedger) *StatusService {
	return &StatusService{ledger: ledger}
}

// GetStatus never reports an unknown transfer as missing: a poll can arrive
// before the row is written, so anything not found is still pending.
func (s *StatusService) GetStatus(ctx context.Context, transferID, rawProvider string) (*models.StatusResponse, error) {
	if transferID == "" || rawProvider == "" {
		return nil, domain.Validation("Missing transferId or provider")
	}
	p, err := domain.ParseProvider(rawProvider)
	if err != nil {
		return nil, err
	}

	t, err := s.ledger.GetTransfer(ctx, transferID, p)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("transfer_id", transferID).Str("provider", string(p)).Msg("status lookup failed")
		}
		return &models.StatusResponse{
			Status:  domain.StatusPending,
			Message: "Transfer is being processed",
		}, nil
	}

	return &models.StatusResponse{
		Success:    true,
		Status:     t.Status,
		Message:    orDefault(t.StatusMessage, "Transfer in progress"),
		TransferID: t.ID,
		Reference:  t.Reference,
	}, nil
}
