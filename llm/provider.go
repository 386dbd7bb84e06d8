package llm

import (
	"net/http"
	"sort"
	"sync"
)

// Provider adapts the client to one model API dialect. Implementations
// register themselves in an init func and are looked up by the name an
// endpoint configuration carries.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic", "ollama").
	Name() string

	// BuildURL constructs the full API endpoint URL.
	BuildURL(baseURL string) string

	// SetHeaders adds provider-specific headers to the request.
	SetHeaders(req *http.Request)

	// BuildRequestBody creates the JSON request body for the provider.
	// A nil temperature means the provider default.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse extracts the response from provider-specific JSON.
	ParseResponse(body []byte, model string) (*Response, error)
}

// providerSet is a concurrency-safe name → Provider table.
type providerSet struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

var registry = &providerSet{providers: make(map[string]Provider)}

// RegisterProvider makes a provider available by its Name. Later
// registrations replace earlier ones.
func RegisterProvider(p Provider) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[p.Name()] = p
}

// GetProvider returns the named provider, or nil when none is
// registered under that name.
func GetProvider(name string) Provider {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.providers[name]
}

// ListProviders returns the registered provider names in sorted order.
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
