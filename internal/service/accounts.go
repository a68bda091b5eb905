package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/models"
	"github.com/Adebayotoheeb666/pancake/internal/provider"
	"github.com/Adebayotoheeb666/pancake/internal/share"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AccountService manages the accounts users send from and to: linked
// accounts on regional rails, ledger-network banks and their share tokens.
type AccountService struct {
	repo   store.Repository
	rails  *provider.Registry
	tokens *share.Tokens
	banks  *bankCache

	newID func() string
	now   func() time.Time
}

func NewAccountService(repo store.Repository, rails *provider.Registry, tokens *share.Tokens, bankListTTL time.Duration) *AccountService {
	return &AccountService{
		repo:   repo,
		rails:  rails,
		tokens: tokens,
		banks:  newBankCache(bankListTTL),
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// regionalRail returns the adapter for a linked-account rail.
func (s *AccountService) regionalRail(p domain.Provider) (provider.Adapter, error) {
	if !p.Regional() {
		return nil, domain.Validation(fmt.Sprintf("provider %s does not support linked accounts", p))
	}
	return s.rails.Get(p)
}

// VerifyAccount resolves the holder of an account through rail p.
func (s *AccountService) VerifyAccount(ctx context.Context, p domain.Provider, accountNumber, bankCode string) (provider.AccountDetails, error) {
	if accountNumber == "" || bankCode == "" {
		return provider.AccountDetails{}, domain.Validation("Missing required fields")
	}
	rail, err := s.regionalRail(p)
	if err != nil {
		return provider.AccountDetails{}, err
	}

	details, err := rail.VerifyAccount(ctx, accountNumber, bankCode)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Str("bank_code", bankCode).Msg("account verification failed")
		return provider.AccountDetails{}, err
	}
	details.AccountName = holderName(details.AccountName)
	if details.AccountNumber == "" {
		details.AccountNumber = accountNumber
	}
	if details.BankCode == "" {
		details.BankCode = bankCode
	}
	if details.BankName == "" {
		details.BankName = s.bankName(ctx, p, details.BankCode)
	}
	return details, nil
}

// LinkAccount verifies the account through its rail and stores it for the user.
func (s *AccountService) LinkAccount(ctx context.Context, req models.LinkAccountRequest) (*domain.LinkedAccount, error) {
	if req.UserID == "" || req.Provider == "" || req.AccountNumber == "" || req.BankCode == "" {
		return nil, domain.Validation("Missing required fields")
	}
	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	details, err := s.VerifyAccount(ctx, p, req.AccountNumber, req.BankCode)
	if err != nil {
		return nil, err
	}

	a := &domain.LinkedAccount{
		ID:            s.newID(),
		UserID:        req.UserID,
		Provider:      p,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
		BankName:      details.BankName,
		AccountName:   orDefault(details.AccountName, req.AccountName),
		Country:       "NG",
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateLinkedAccount(ctx, a); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", a.UserID).Str("provider", string(p)).Str("linked_account_id", a.ID).Msg("account linked")
	return a, nil
}

func (s *AccountService) ListLinkedAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error) {
	if userID == "" {
		return nil, domain.Validation("Missing userId")
	}
	return s.repo.ListLinkedAccounts(ctx, userID)
}

// UpdateLinkedAccount edits display fields only; the account number and
// rail are fixed once linked.
func (s *AccountService) UpdateLinkedAccount(ctx context.Context, id string, req models.UpdateAccountRequest) (*domain.LinkedAccount, error) {
	patch := domain.LinkedAccountPatch{
		AccountName: req.AccountName,
		BankName:    req.BankName,
		BankCode:    req.BankCode,
	}
	if id == "" {
		return nil, domain.Validation("Missing account id")
	}
	if patch.Empty() {
		return nil, domain.Validation("No fields to update")
	}
	return s.repo.UpdateLinkedAccount(ctx, id, patch)
}

func (s *AccountService) UnlinkAccount(ctx context.Context, id string) error {
	if id == "" {
		return domain.Validation("Missing account id")
	}
	if err := s.repo.DeleteLinkedAccount(ctx, id); err != nil {
		return err
	}
	log.Info().Str("linked_account_id", id).Msg("account unlinked")
	return nil
}

// ListBanks returns rail p's bank directory. Rail failures are never
// surfaced: the last good list is served, or an empty one.
func (s *AccountService) ListBanks(ctx context.Context, p domain.Provider) ([]provider.BankOption, error) {
	rail, err := s.regionalRail(p)
	if err != nil {
		return nil, err
	}
	if banks, ok := s.banks.fresh(p); ok {
		return banks, nil
	}

	banks, err := rail.ListBanks(ctx)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Msg("bank list unavailable")
		if cached, ok := s.banks.stale(p); ok {
			return cached, nil
		}
		return []provider.BankOption{}, nil
	}
	s.banks.put(p, banks)
	return banks, nil
}

// AllBanks fetches the directory of every configured regional rail concurrently.
func (s *AccountService) AllBanks(ctx context.Context) (map[domain.Provider][]provider.BankOption, error) {
	var (
		mu  sync.Mutex
		out = make(map[domain.Provider][]provider.BankOption)
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, rail := range s.rails.Regional() {
		p := rail.Provider()
		g.Go(func() error {
			banks, err := s.ListBanks(ctx, p)
			if err != nil {
				return err
			}
			mu.Lock()
			out[p] = banks
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// bankName looks the code up in the rail's directory, then in commonBanks.
func (s *AccountService) bankName(ctx context.Context, p domain.Provider, code string) string {
	banks, _ := s.ListBanks(ctx, p)
	if b, ok := lo.Find(banks, func(b provider.BankOption) bool { return b.Code == code }); ok {
		return b.Name
	}
	if name, ok := commonBanks[code]; ok {
		return name
	}
	return "Unknown Bank"
}

// LookupReceiver returns the account a sender is about to pay, by share
// token or by linked account id.
func (s *AccountService) LookupReceiver(ctx context.Context, req models.ReceiverLookupRequest) (*models.ReceiverLookupResponse, error) {
	switch {
	case req.SharableID != "":
		accountID, err := s.tokens.Decode(req.SharableID)
		if err != nil {
			return nil, err
		}
		bank, err := s.repo.GetBankByAccountID(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NotFound("Account not found")
			}
			return nil, err
		}
		mask := maskAccountID(bank.AccountID)
		return &models.ReceiverLookupResponse{
			Success:     true,
			AccountName: mask,
			Account:     models.SharedReceiver{BankID: bank.BankID, AccountMask: mask},
		}, nil
	case req.LinkedAccountID != "":
		a, err := s.repo.GetLinkedAccount(ctx, req.LinkedAccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NotFound("Linked account not found")
			}
			return nil, err
		}
		return &models.ReceiverLookupResponse{Success: true, AccountName: a.AccountName, Account: a}, nil
	}
	return nil, domain.Validation("Missing sharableId or linkedAccountId")
}

// maskAccountID keeps the last four characters so a sender can recognise the
// account without the token revealing it.
func maskAccountID(id string) string {
	r := []rune(id)
	if len(r) <= 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}

// ShareToken issues the token a user hands out to receive ledger-network
// transfers into bank bankID.
func (s *AccountService) ShareToken(ctx context.Context, bankID string) (string, error) {
	bank, err := s.repo.GetBank(ctx, bankID)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(bank.AccountID)
}

func (s *AccountService) Transactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, domain.Validation("Missing userId")
	}
	return s.repo.ListTransactions(ctx, userID)
}

// holderName normalizes rail-reported names such as "ADA  LOVELACE".
func holderName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(name))
}
