package emotes

import (
	"sync"

	"github.com/kapu/unichat-go/internal/domain"
)

// Catalog is the merged, queryable emote index for one channel session.
// Providers are populated independently as their loads settle, so lookups
// against a partially loaded catalog are valid: unindexed names simply miss.
type Catalog struct {
	mu        sync.RWMutex
	providers map[domain.Provider]map[string]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		providers: make(map[domain.Provider]map[string]string),
	}
}

// Apply merges entries into a provider's index. Channel-scoped entries always
// win; global entries only fill names not already taken. Call order within a
// single Apply does not matter because scopes are merged channel-first.
func (c *Catalog) Apply(provider domain.Provider, entries []domain.EmoteEntry) {
	merged := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Scope == domain.ScopeChannel && e.Name != "" {
			merged[e.Name] = e.URL
		}
	}
	for _, e := range entries {
		if e.Scope == domain.ScopeGlobal && e.Name != "" {
			if _, exists := merged[e.Name]; !exists {
				merged[e.Name] = e.URL
			}
		}
	}

	c.mu.Lock()
	c.providers[provider] = merged
	c.mu.Unlock()
}

// Lookup tests a word against every provider in priority order and returns
// the first match. Never blocks on in-flight loads.
func (c *Catalog) Lookup(word string) (domain.EmoteEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, provider := range domain.ProviderPriority {
		if url, ok := c.providers[provider][word]; ok {
			return domain.EmoteEntry{Name: word, URL: url, Provider: provider}, true
		}
	}
	return domain.EmoteEntry{}, false
}

// ProviderSize reports how many names a provider has indexed.
func (c *Catalog) ProviderSize(provider domain.Provider) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.providers[provider])
}

// Size reports the total indexed names across providers.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, m := range c.providers {
		total += len(m)
	}
	return total
}
