package llm

import (
	"context"
	"fmt"
	"sync"
)

// Router dispatches chat requests to a primary provider and falls back to
// the remaining providers in order when the primary fails.
type Router struct {
	mu        sync.RWMutex
	providers []LLMProvider // priority order, index 0 = primary
}

// NewRouter creates a router. Providers are tried in the given order.
func NewRouter(providers ...LLMProvider) *Router {
	return &Router{providers: providers}
}

// Add appends a fallback provider.
func (r *Router) Add(p LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
}

// Providers returns the configured provider names in priority order.
func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Chat sends the conversation to the primary provider, falling back on
// error. Context cancellation stops the fallback chain.
func (r *Router) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	r.mu.RLock()
	providers := make([]LLMProvider, len(r.providers))
	copy(providers, r.providers)
	r.mu.RUnlock()

	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.Chat(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = fmt.Errorf("%s: %w", p.Name(), err)
	}

	return nil, fmt.Errorf("llm: all providers failed: %w", lastErr)
}

// Ping checks each provider and returns the per-provider result.
func (r *Router) Ping(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make([]LLMProvider, len(r.providers))
	copy(providers, r.providers)
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	for _, p := range providers {
		results[p.Name()] = p.Ping(ctx)
	}
	return results
}
