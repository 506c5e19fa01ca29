package providers

import (
	"sort"

	"github.com/flowgen-ai/gateway/internal/shared/config"
)

// Manager holds the provider clients whose credentials were configured at
// startup. Routing decisions are made against this set, so a model whose
// provider has no credentials is rejected before any call is attempted.
type Manager struct {
	providers map[string]Provider
}

// NewManager creates a new provider manager
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		providers: make(map[string]Provider),
	}

	// Initialize providers based on available credentials
	if cfg.OpenAIAPIKey != "" {
		m.providers[ProviderOpenAI] = NewOpenAIProvider(cfg.OpenAIAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		m.providers[ProviderGemini] = NewGeminiProvider(cfg.GeminiAPIKey)
	}
	if cfg.CloudflareAPIToken != "" {
		m.providers[ProviderCloudflare] = NewCloudflareProvider(cfg.CloudflareAccount, cfg.CloudflareAPIToken)
		m.providers[ProviderCloudflareFree] = NewCloudflareFreeProvider(cfg.CloudflareAccount, cfg.CloudflareAPIToken)
	}

	return m
}

// Register adds or replaces a provider client. Used by tests and by callers
// wiring fakes.
func (m *Manager) Register(name string, p Provider) {
	m.providers[name] = p
}

// Provider returns the configured client for a provider id.
func (m *Manager) Provider(name string) (Provider, bool) {
	p, ok := m.providers[name]
	return p, ok
}

// Configured lists the configured provider ids, sorted.
func (m *Manager) Configured() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
