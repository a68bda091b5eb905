package provider

import (
	"fmt"
	"net/http"

	"github.com/Adebayotoheeb666/pancake/internal/config"
	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Registry maps each configured rail to its adapter. It is built once at
// startup and read-only afterwards.
type Registry struct {
	adapters map[domain.Provider]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.Provider]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
	}
	return r
}

// Get returns the adapter for p or a validation error when the rail is not configured.
func (r *Registry) Get(p domain.Provider) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, domain.Validation(fmt.Sprintf("provider %s is not configured", p))
	}
	return a, nil
}

// Regional returns the configured linked-account rails in a stable order.
func (r *Registry) Regional() []Adapter {
	return lo.FilterMap(domain.RegionalProviders, func(p domain.Provider, _ int) (Adapter, bool) {
		a, ok := r.adapters[p]
		return a, ok
	})
}

// Providers lists the configured rails.
func (r *Registry) Providers() []domain.Provider {
	return lo.Filter(domain.AllProviders, func(p domain.Provider, _ int) bool {
		_, ok := r.adapters[p]
		return ok
	})
}

// New builds the adapter for rail p.
func New(p domain.Provider, rail config.Rail, cfg *config.Config, doer *http.Client) (Adapter, error) {
	timeout := cfg.AdapterTimeout
	switch p {
	case domain.ProviderDwolla:
		return NewDwolla(rail.BaseURL, rail.APIKey, rail.SecretKey, doer, timeout), nil
	case domain.ProviderFlutterwave:
		return NewFlutterwave(rail.BaseURL, rail.SecretKey, doer, timeout), nil
	case domain.ProviderPaystack:
		return NewPaystack(rail.BaseURL, rail.SecretKey, doer, timeout), nil
	case domain.ProviderOpay:
		return NewOpay(rail.BaseURL, rail.SecretKey, rail.MerchantID, doer, timeout), nil
	case domain.ProviderMonnify:
		return NewMonnify(rail.BaseURL, rail.APIKey, rail.SecretKey, rail.SourceAccount, doer, timeout), nil
	}
	return nil, fmt.Errorf("no adapter for provider %q", p)
}

// FromConfig builds a registry with every rail that has credentials.
func FromConfig(cfg *config.Config, doer *http.Client) (*Registry, error) {
	var adapters []Adapter
	for _, p := range domain.AllProviders {
		rail := cfg.Rail(p)
		if !rail.Configured() {
			log.Warn().Str("provider", string(p)).Msg("rail has no credentials, skipping")
			continue
		}
		a, err := New(p, rail, cfg, doer)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return NewRegistry(adapters...), nil
}
