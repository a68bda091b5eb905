package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/api"
	"github.com/Adebayotoheeb666/pancake/internal/config"
	"github.com/Adebayotoheeb666/pancake/internal/events"
	"github.com/Adebayotoheeb666/pancake/internal/provider"
	"github.com/Adebayotoheeb666/pancake/internal/service"
	"github.com/Adebayotoheeb666/pancake/internal/share"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/Adebayotoheeb666/pancake/internal/webhook"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "pancake-api",
		Short:         "Multi-rail transfer orchestration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("exiting")
		stop()
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, err := store.NewStore(cmd.Context(), cfg.DBDriver, cfg.DBSource)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DBDriver).Msg("schema applied")
			return nil
		},
	}
}

// setup loads configuration and configures the global logger from it.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return cfg, nil
}

func serve(ctx context.Context) error {
	cfg, err := setup()
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

	rails, err := provider.FromConfig(cfg, &http.Client{})
	if err != nil {
		return err
	}

	var pub events.Publisher = events.LogPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return err
		}
		pub = rmq
	}
	defer pub.Close()

	tokens := share.NewTokens(cfg.ShareTokenSecret, cfg.ShareTokenTTL)
	handler := api.NewHandler(
		service.NewTransferService(db, rails, tokens, pub),
		service.NewStatusService(db),
		service.NewAccountService(db, rails, tokens, cfg.BankListTTL),
		webhook.NewReconciler(db, pub, cfg.WebhookSecretFor, cfg.WebhookSecret),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Strs("rails", providerNames(rails)).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func providerNames(r *provider.Registry) []string {
	var names []string
	for _, p := range r.Providers() {
		names = append(names, string(p))
	}
	return names
}
