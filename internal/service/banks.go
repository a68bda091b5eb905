package service

import (
	"sync"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/provider"
)

// commonBanks names the bank codes seen most often when a rail's directory
// is unavailable.
var commonBanks = map[string]string{
	"011": "First Bank",
	"007": "Zenith Bank",
	"008": "Eco Bank",
	"058": "Guaranty Trust Bank",
	"009": "Standard Chartered Bank",
	"033": "Access Bank",
	"050": "Fidelity Bank",
	"070": "Fidelity Bank",
}

type bankEntry struct {
	banks   []provider.BankOption
	fetched time.Time
}

// bankCache keeps each rail's bank directory for ttl. Expired entries are
// still served when a refresh fails.
type bankCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[domain.Provider]bankEntry
}

func newBankCache(ttl time.Duration) *bankCache {
	return &bankCache{ttl: ttl, now: time.Now, entries: make(map[domain.Provider]bankEntry)}
}

// fresh returns the cached list when it has not expired.
func (c *bankCache) fresh(p domain.Provider) ([]provider.BankOption, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[p]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return nil, false
	}
	return e.banks, true
}

// stale returns whatever is cached, expired or not.
func (c *bankCache) stale(p domain.Provider) ([]provider.BankOption, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[p]
	return e.banks, ok
}

func (c *bankCache) put(p domain.Provider, banks []provider.BankOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p] = bankEntry{banks: banks, fetched: c.now()}
}
