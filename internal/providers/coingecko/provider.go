// Package coingecko implements the CoinGecko data provider. It wraps the
// public v3 API (coin markets, coin detail, market chart, exchanges, NFT
// markets) into the standard provider/fetcher framework.
//
// CoinGecko works without an API key; a demo key can be supplied to lift
// the free-tier rate limits.
package coingecko

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/coinscope/internal/infra"
	"github.com/seenimoa/coinscope/internal/provider"
)

const providerName = "coingecko"

// defaultBaseURL is the public v3 API root.
const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Provider implements provider.Provider for CoinGecko.
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

// New creates a CoinGecko provider and registers all fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"CoinGecko - free cryptocurrency, exchange, and NFT market data",
			"https://www.coingecko.com",
			[]provider.ProviderCredential{
				{
					Name:        "api_key",
					Description: "Optional CoinGecko demo API key",
					Required:    false,
					EnvVar:      "COINSCOPE_PROVIDERS_COINGECKO_KEY",
				},
			},
		),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.RegisterFetcher(newCoinListFetcher(p))
	p.RegisterFetcher(newCoinDetailFetcher(p))
	p.RegisterFetcher(newCoinHistoryFetcher(p))
	p.RegisterFetcher(newExchangeListFetcher(p))
	p.RegisterFetcher(newNftListFetcher(p))

	return p
}

// Ping checks connectivity to CoinGecko.
func (p *Provider) Ping(ctx context.Context) error {
	var resp struct {
		GeckoSays string `json:"gecko_says"`
	}
	if err := p.getJSON(ctx, p.baseURL+"/ping", &resp); err != nil {
		return fmt.Errorf("coingecko ping: %w", err)
	}
	return nil
}

// getJSON performs a GET with the demo key header when configured.
func (p *Provider) getJSON(ctx context.Context, url string, dest any) error {
	headers := map[string]string{}
	if key := p.Credential("api_key"); key != "" {
		headers["x-cg-demo-api-key"] = key
	}
	return infra.GetJSON(ctx, url, headers, dest)
}

// newResult creates a FetchResult with the current timestamp.
func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{Data: data, FetchedAt: time.Now()}
}

// newCachedResult creates a FetchResult marked as cached.
func newCachedResult(data any) *provider.FetchResult {
	return &provider.FetchResult{Data: data, FetchedAt: time.Now(), Cached: true}
}
