// Package alphavantage implements the Alpha Vantage data provider for
// stock quotes, price series, market status, and news sentiment.
//
// Alpha Vantage signals free-tier throttling with an HTTP 200 response
// carrying a "Note" or "Information" field instead of data; that shape is
// mapped to provider.ErrRateLimited so callers can show a specific message.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/seenimoa/coinscope/internal/infra"
	"github.com/seenimoa/coinscope/internal/provider"
)

const providerName = "alphavantage"

const defaultBaseURL = "https://www.alphavantage.co"

// Provider implements provider.Provider for Alpha Vantage.
type Provider struct {
	provider.BaseProvider
	baseURL string
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL overrides the API root (tests, proxies).
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// New creates an Alpha Vantage provider and registers all fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Alpha Vantage - stock quotes, series, market status, news sentiment",
			"https://www.alphavantage.co",
			[]provider.ProviderCredential{
				{
					Name:        "api_key",
					Description: "Alpha Vantage API key from alphavantage.co/support",
					Required:    true,
					EnvVar:      "COINSCOPE_PROVIDERS_ALPHAVANTAGE_KEY",
				},
			},
		),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.RegisterFetcher(newStockQuoteFetcher(p))
	p.RegisterFetcher(newStockSeriesFetcher(p))
	p.RegisterFetcher(newMarketStatusFetcher(p))
	p.RegisterFetcher(newNewsSentimentFetcher(p))

	return p
}

// Ping verifies the API key with a minimal quote request.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.query(ctx, url.Values{
		"function": []string{"GLOBAL_QUOTE"},
		"symbol":   []string{"IBM"},
	})
	if err != nil {
		return fmt.Errorf("alphavantage ping: %w", err)
	}
	return nil
}

// query performs a GET against /query and returns the raw top-level JSON
// object, after mapping throttle and error payloads.
func (p *Provider) query(ctx context.Context, q url.Values) (map[string]json.RawMessage, error) {
	q.Set("apikey", p.Credential("api_key"))

	var raw map[string]json.RawMessage
	if err := infra.GetJSON(ctx, p.baseURL+"/query?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	// Rate limiting arrives as a 200 with a prose field instead of data.
	if _, ok := raw["Note"]; ok {
		return nil, provider.ErrRateLimited
	}
	if _, ok := raw["Information"]; ok {
		return nil, provider.ErrRateLimited
	}
	if msg, ok := raw["Error Message"]; ok {
		var text string
		_ = json.Unmarshal(msg, &text)
		return nil, fmt.Errorf("alphavantage: %s", text)
	}

	return raw, nil
}

// newResult creates a FetchResult with the current timestamp.
func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{Data: data, FetchedAt: time.Now()}
}

// newCachedResult creates a FetchResult marked as cached.
func newCachedResult(data any) *provider.FetchResult {
	return &provider.FetchResult{Data: data, FetchedAt: time.Now(), Cached: true}
}
