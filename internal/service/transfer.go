package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/events"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/Adebayotoheeb666/pancake/internal/provider"
	"github.com/Adebayotoheeb666/pancake/internal/share"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var transfersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancake_transfers_created_total",
	Help: "Transfers written to the ledger, labeled by rail and initial status",
}, []string{"provider", "status"})

// Transfer types accepted in TransferRequest.Type.
const (
	KindLedgerNetwork = "ledger-network"
	KindProvider      = "provider"
)

func transferKind(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case KindLedgerNetwork, string(domain.ProviderDwolla):
		return KindLedgerNetwork, nil
	case KindProvider:
		return KindProvider, nil
	}
	return "", domain.Validation("Invalid transfer type")
}

// NewReference returns a reference that is unique per transfer attempt.
func NewReference() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), suffix)
}

// TransferService drives a transfer from request to ledger row. It holds no
// locks: duplicates are stopped by the reference constraint in the ledger.
type TransferService struct {
	repo   store.Repository
	rails  *provider.Registry
	tokens *share.Tokens
	events events.Publisher

	newReference func() string
	newID        func() string
	now          func() time.Time
}

func NewTransferService(repo store.Repository, rails *provider.Registry, tokens *share.Tokens, pub events.Publisher) *TransferService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &TransferService{
		repo:         repo,
		rails:        rails,
		tokens:       tokens,
		events:       pub,
		newReference: NewReference,
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PerformTransfer validates req, moves the money through the selected rail
// and records the outcome. Rail failures are returned as is and leave no row.
func (s *TransferService) PerformTransfer(ctx context.Context, req models.TransferRequest) (*models.TransferResponse, error) {
	if req.SenderID == "" || req.Email == "" || req.Amount.IsZero() {
		return nil, domain.Validation("Missing required fields")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.Validation("amount must be greater than zero")
	}
	kind, err := transferKind(req.Type)
	if err != nil {
		return nil, err
	}

	if kind == KindLedgerNetwork {
		return s.ledgerTransfer(ctx, req)
	}
	return s.providerTransfer(ctx, req)
}

func (s *TransferService) ledgerTransfer(ctx context.Context, req models.TransferRequest) (*models.TransferResponse, error) {
	if req.SenderBankID == "" {
		return nil, domain.Validation("Missing required fields")
	}
	if req.ReceiverAccountID == "" && req.SharableID == "" {
		return nil, domain.Validation("receiverAccountId or sharableId is required")
	}
	p := domain.ProviderDwolla
	currency := p.Currency()
	if err := domain.ValidateAmount(req.Amount, currency); err != nil {
		return nil, err
	}
	rail, err := s.rails.Get(p)
	if err != nil {
		return nil, err
	}

	sender, err := s.repo.GetBank(ctx, req.SenderBankID)
	if err != nil {
		return nil, err
	}
	if sender.UserID != req.SenderID {
		return nil, domain.Validation("Invalid sender bank account")
	}
	receiverAccountID := req.ReceiverAccountID
	if receiverAccountID == "" {
		if receiverAccountID, err = s.tokens.Decode(req.SharableID); err != nil {
			return nil, err
		}
	}
	receiver, err := s.repo.GetBankByAccountID(ctx, receiverAccountID)
	if err != nil {
		return nil, err
	}

	reference := s.newReference()
	name := orDefault(req.Name, "Transfer")
	result, err := rail.InitiateTransfer(ctx, provider.TransferInstruction{
		Recipient: provider.Recipient{Code: receiver.FundingSourceURL},
		Source:    sender.FundingSourceURL,
		Amount:    req.Amount,
		Currency:  currency,
		Reference: reference,
		Narration: name,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Str("reference", reference).Msg("transfer initiation failed")
		return nil, err
	}

	// The ledger network settles synchronously from our point of view.
	now := s.now()
	t := &domain.Transfer{
		ID:                 s.newID(),
		Provider:           p,
		Amount:             req.Amount,
		Currency:           currency,
		SenderID:           sender.UserID,
		ReceiverID:         receiver.UserID,
		Status:             domain.StatusCompleted,
		StatusMessage:      "Transfer completed successfully",
		Reference:          reference,
		ExternalTransferID: result.ExternalTransferID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.record(ctx, t, entry{name: name, email: req.Email, senderBankID: sender.ID, receiverBankID: receiver.ID}); err != nil {
		return nil, err
	}

	return &models.TransferResponse{
		Success:    true,
		Provider:   p,
		TransferID: t.ID,
		Status:     t.Status,
		Reference:  t.Reference,
		Message:    t.StatusMessage,
	}, nil
}

func (s *TransferService) providerTransfer(ctx context.Context, req models.TransferRequest) (*models.TransferResponse, error) {
	if req.LinkedAccountID == "" || req.ReceiverLinkedAccountID == "" {
		return nil, domain.Validation("Invalid linked accounts")
	}
	sender, err := s.linkedAccount(ctx, req.LinkedAccountID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.linkedAccount(ctx, req.ReceiverLinkedAccountID)
	if err != nil {
		return nil, err
	}
	if sender.UserID != req.SenderID {
		return nil, domain.Validation("Invalid linked accounts")
	}
	if sender.Provider != receiver.Provider {
		return nil, domain.Validation("Sender and receiver must use the same payment provider")
	}
	// a declared senderProvider must name the rail the account is linked on
	if req.SenderProvider != "" {
		declared, err := domain.ParseProvider(req.SenderProvider)
		if err != nil || declared != sender.Provider {
			return nil, domain.Validation("senderProvider does not match the sender account")
		}
	}

	p := sender.Provider
	currency := p.Currency()
	if err := domain.ValidateAmount(req.Amount, currency); err != nil {
		return nil, err
	}
	rail, err := s.rails.Get(p)
	if err != nil {
		return nil, err
	}

	recipient, err := rail.CreateRecipient(ctx, provider.AccountDetails{
		AccountNumber: receiver.AccountNumber,
		BankCode:      receiver.BankCode,
		AccountName:   receiver.AccountName,
		BankName:      receiver.BankName,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Str("linked_account_id", receiver.ID).Msg("recipient creation failed")
		return nil, err
	}

	reference := s.newReference()
	result, err := rail.InitiateTransfer(ctx, provider.TransferInstruction{
		Recipient: recipient,
		Source:    sender.AccountNumber,
		Amount:    req.Amount,
		Currency:  currency,
		Reference: reference,
		Narration: "Transfer to " + receiver.AccountName,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Str("reference", reference).Msg("transfer initiation failed")
		return nil, err
	}

	status := result.Status
	if !status.Terminal() {
		status = domain.StatusProcessing
	}
	now := s.now()
	t := &domain.Transfer{
		ID:                 s.newID(),
		Provider:           p,
		Amount:             req.Amount,
		Currency:           currency,
		SenderID:           req.SenderID,
		ReceiverID:         receiver.UserID,
		Status:             status,
		StatusMessage:      fmt.Sprintf("Transfer initiated via %s", p),
		Reference:          orDefault(result.Reference, reference),
		ExternalTransferID: result.ExternalTransferID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	name := orDefault(req.Name, "Provider Transfer")
	if err := s.record(ctx, t, entry{name: name, email: req.Email, senderBankID: sender.ID, receiverBankID: receiver.ID}); err != nil {
		return nil, err
	}

	return &models.TransferResponse{
		Success:    true,
		Provider:   p,
		TransferID: t.ID,
		Transfer:   t,
		Status:     t.Status,
		Reference:  t.Reference,
		Message:    "Transfer initiated successfully",
	}, nil
}

// linkedAccount loads a linked account; a missing one is a bad request, not a 404.
func (s *TransferService) linkedAccount(ctx context.Context, id string) (*domain.LinkedAccount, error) {
	a, err := s.repo.GetLinkedAccount(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Wrap(domain.ErrValidation, "Invalid linked accounts", err)
	}
	return a, err
}

type entry struct {
	name           string
	email          string
	senderBankID   string
	receiverBankID string
}

// record writes the transfer and its transaction entry. The rail has already
// moved money at this point, so a failed transfer write is logged with every
// identifier needed to reconcile by hand.
func (s *TransferService) record(ctx context.Context, t *domain.Transfer, e entry) error {
	if err := s.repo.InsertTransfer(ctx, t); err != nil {
		log.Error().Err(err).
			Str("provider", string(t.Provider)).
			Str("reference", t.Reference).
			Str("external_id", t.ExternalTransferID).
			Str("amount", t.Amount.String()).
			Msg("orphaned external transfer")
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.Wrap(domain.ErrPersistence, "database error", err)
		}
		return err
	}
	transfersCreated.WithLabelValues(string(t.Provider), string(t.Status)).Inc()

	txn := &domain.Transaction{
		ID:             s.newID(),
		TransferID:     t.ID,
		Name:           e.name,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Channel:        "online",
		Category:       "Transfer",
		SenderID:       t.SenderID,
		ReceiverID:     t.ReceiverID,
		SenderBankID:   e.senderBankID,
		ReceiverBankID: e.receiverBankID,
		Email:          e.email,
		Provider:       t.Provider,
		Reference:      t.Reference,
		CreatedAt:      t.CreatedAt,
	}
	if err := s.repo.InsertTransaction(ctx, txn); err != nil {
		log.Error().Err(err).
			Str("transfer_id", t.ID).
			Str("reference", t.Reference).
			Msg("transaction log write failed")
	}

	publish(ctx, s.events, events.TypeTransferCreated, t)
	return nil
}

func publish(ctx context.Context, pub events.Publisher, typ string, t *domain.Transfer) {
	if err := pub.Publish(ctx, events.ForTransfer(typ, t)); err != nil {
		log.Warn().Err(err).Str("type", typ).Str("transfer_id", t.ID).Msg("event publish failed")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
