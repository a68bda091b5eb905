package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/Adebayotoheeb666/pancake/internal/config"
	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	provider   string
	senderUser string
	ledgerBank int
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var opts seedOptions
	cmd := &cobra.Command{
		Use:          "seeder",
		Short:        "Seed CI linked accounts and ledger banks",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.provider, "provider", envOr("REAL_PROVIDER", "flutterwave"), "regional rail for the linked accounts")
	cmd.Flags().StringVar(&opts.senderUser, "sender-user", os.Getenv("REAL_SEED_USER_ID"), "user id owning the sender account")
	cmd.Flags().IntVar(&opts.ledgerBank, "ledger-banks", 0, "number of ledger-network bank pairs to create")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run(ctx context.Context, opts seedOptions) error {
	p, err := domain.ParseProvider(opts.provider)
	if err != nil {
		return err
	}
	if !p.Regional() {
		return fmt.Errorf("linked accounts need a regional rail, got %s", p)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := store.NewStore(ctx, cfg.DBDriver, cfg.DBSource)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	log.Info().Str("provider", string(p)).Msg("--- Seeding Database ---")

	senderUser := opts.senderUser
	if senderUser == "" {
		senderUser = "ci-user-" + string(p)
	}
	sender, err := ensureLinked(ctx, db, p, senderUser, "ci-test-sender-"+string(p))
	if err != nil {
		return err
	}
	receiver, err := ensureLinked(ctx, db, p, "ci-receiver-"+string(p), "ci-test-receiver-"+string(p))
	if err != nil {
		return err
	}

	for i := 0; i < opts.ledgerBank; i++ {
		if err := seedBankPair(ctx, db, i); err != nil {
			return err
		}
	}
	if opts.ledgerBank > 0 {
		log.Info().Int("pairs", opts.ledgerBank).Msg("seeded ledger banks")
	}

	// Consumed by CI as KEY=VALUE lines.
	fmt.Printf("REAL_SENDER_LINKED_ACCOUNT_ID=%s\n", sender.ID)
	fmt.Printf("REAL_RECEIVER_LINKED_ACCOUNT_ID=%s\n", receiver.ID)
	fmt.Printf("REAL_SENDER_USER_ID=%s\n", senderUser)
	fmt.Printf("REAL_PROVIDER=%s\n", p)
	return nil
}

// ensureLinked returns the user's account named name, creating it when missing.
func ensureLinked(ctx context.Context, db *store.Store, p domain.Provider, userID, name string) (*domain.LinkedAccount, error) {
	existing, err := db.ListLinkedAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a, ok := lo.Find(existing, func(a domain.LinkedAccount) bool {
		return a.AccountName == name && a.Provider == p
	}); ok {
		log.Info().Str("id", a.ID).Str("account_name", name).Msg("linked account exists, skipping")
		return &a, nil
	}

	a := &domain.LinkedAccount{
		ID:            uuid.NewString(),
		UserID:        userID,
		Provider:      p,
		AccountNumber: fmt.Sprintf("000%d", rand.Intn(9000)+1000),
		BankCode:      "000",
		BankName:      string(p) + "-bank",
		AccountName:   name,
		Country:       "NG",
	}
	if err := db.CreateLinkedAccount(ctx, a); err != nil {
		return nil, err
	}
	log.Info().Str("id", a.ID).Str("account_name", name).Msg("linked account created")
	return a, nil
}

func seedBankPair(ctx context.Context, db *store.Store, i int) error {
	for _, side := range []string{"a", "b"} {
		id := uuid.NewString()
		b := &domain.Bank{
			ID:               id,
			UserID:           fmt.Sprintf("bench-user-%d-%s", i, side),
			BankID:           "sandbox-bank",
			AccountID:        "acc-" + id,
			AccessToken:      "access-sandbox-" + id,
			FundingSourceURL: "https://api-sandbox.dwolla.com/funding-sources/" + id,
		}
		if err := db.CreateBank(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
