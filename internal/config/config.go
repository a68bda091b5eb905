package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/spf13/viper"
)

const devShareSecret = "development-share-secret"

// Rail holds the credentials and endpoints of one payment rail.
type Rail struct {
	BaseURL       string `mapstructure:"base_url"`
	SecretKey     string `mapstructure:"secret_key"`
	APIKey        string `mapstructure:"api_key"`
	MerchantID    string `mapstructure:"merchant_id"`
	SourceAccount string `mapstructure:"source_account"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// Configured reports whether the rail has credentials to talk to it.
func (r Rail) Configured() bool {
	return r.SecretKey != ""
}

type Config struct {
	DBSource string `mapstructure:"db_source"`
	DBDriver string `mapstructure:"db_driver"`
	Port     string `mapstructure:"server_port"`
	Env      string `mapstructure:"environment"`
	LogLevel string `mapstructure:"log_level"`

	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
	BankListTTL    time.Duration `mapstructure:"bank_list_ttl"`

	ShareTokenSecret string        `mapstructure:"share_token_secret"`
	ShareTokenTTL    time.Duration `mapstructure:"share_token_ttl"`

	RabbitMQURL      string `mapstructure:"rabbitmq_url"`
	RabbitMQExchange string `mapstructure:"rabbitmq_exchange"`

	// WebhookSecret is used for any rail without its own secret.
	WebhookSecret string `mapstructure:"webhook_secret"`

	Dwolla      Rail `mapstructure:"dwolla"`
	Flutterwave Rail `mapstructure:"flutterwave"`
	Paystack    Rail `mapstructure:"paystack"`
	Opay        Rail `mapstructure:"opay"`
	Monnify     Rail `mapstructure:"monnify"`
}

// env names per key; the first name found wins.
var envBindings = map[string][]string{
	"db_source":          {"DB_SOURCE"},
	"db_driver":          {"DB_DRIVER"},
	"server_port":        {"SERVER_PORT"},
	"environment":        {"ENVIRONMENT"},
	"log_level":          {"LOG_LEVEL"},
	"adapter_timeout":    {"ADAPTER_TIMEOUT"},
	"bank_list_ttl":      {"BANK_LIST_TTL"},
	"share_token_secret": {"SHARE_TOKEN_SECRET", "ENCRYPTION_KEY"},
	"share_token_ttl":    {"SHARE_TOKEN_TTL"},
	"rabbitmq_url":       {"RABBITMQ_URL"},
	"rabbitmq_exchange":  {"RABBITMQ_EXCHANGE"},
	"webhook_secret":     {"WEBHOOK_SECRET"},

	"dwolla.base_url":       {"DWOLLA_BASE_URL"},
	"dwolla.api_key":        {"DWOLLA_KEY"},
	"dwolla.secret_key":     {"DWOLLA_SECRET"},
	"dwolla.webhook_secret": {"DWOLLA_WEBHOOK_SECRET"},

	"flutterwave.base_url":       {"FLUTTERWAVE_BASE_URL"},
	"flutterwave.secret_key":     {"FLUTTERWAVE_SECRET_KEY"},
	"flutterwave.webhook_secret": {"FLUTTERWAVE_WEBHOOK_SECRET"},

	"paystack.base_url":       {"PAYSTACK_BASE_URL"},
	"paystack.secret_key":     {"PAYSTACK_SECRET_KEY"},
	"paystack.webhook_secret": {"PAYSTACK_WEBHOOK_SECRET"},

	"opay.base_url":       {"OPAY_BASE_URL"},
	"opay.secret_key":     {"OPAY_SECRET_KEY"},
	"opay.merchant_id":    {"OPAY_MERCHANT_ID"},
	"opay.webhook_secret": {"OPAY_WEBHOOK_SECRET"},

	"monnify.base_url":       {"MONNIFY_BASE_URL"},
	"monnify.api_key":        {"MONNIFY_API_KEY"},
	"monnify.secret_key":     {"MONNIFY_SECRET_KEY"},
	"monnify.source_account": {"MONNIFY_SOURCE_ACCOUNT"},
	"monnify.webhook_secret": {"MONNIFY_WEBHOOK_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("server_port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("adapter_timeout", 15*time.Second)
	v.SetDefault("bank_list_ttl", time.Hour)
	v.SetDefault("share_token_ttl", 30*24*time.Hour)
	v.SetDefault("rabbitmq_exchange", "transfers")

	v.SetDefault("dwolla.base_url", "https://api-sandbox.dwolla.com")
	v.SetDefault("flutterwave.base_url", "https://api.flutterwave.com/v3")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("opay.base_url", "https://api.opaydemo.com")
	v.SetDefault("monnify.base_url", "https://sandbox.monnify.com/api")
}

// Load reads configuration from the environment, optionally layered over
// the YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DBSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.ShareTokenSecret == "" {
		if !cfg.Development() {
			return nil, fmt.Errorf("SHARE_TOKEN_SECRET is required outside development")
		}
		cfg.ShareTokenSecret = devShareSecret
	}

	return &cfg, nil
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

// Rail returns the settings of rail p.
func (c *Config) Rail(p domain.Provider) Rail {
	switch p {
	case domain.ProviderDwolla:
		return c.Dwolla
	case domain.ProviderFlutterwave:
		return c.Flutterwave
	case domain.ProviderPaystack:
		return c.Paystack
	case domain.ProviderOpay:
		return c.Opay
	case domain.ProviderMonnify:
		return c.Monnify
	}
	return Rail{}
}

// WebhookSecretFor returns the rail's own webhook secret or the shared one.
func (c *Config) WebhookSecretFor(p domain.Provider) string {
	if s := c.Rail(p).WebhookSecret; s != "" {
		return s
	}
	return c.WebhookSecret
}
