// Package newswire implements a keyless crypto news provider built on
// public RSS feeds. It aggregates several outlets into a single
// newest-first stream and fits the standard provider/fetcher framework.
package newswire

import (
	"github.com/seenimoa/coinscope/internal/provider"
)

const providerName = "newswire"

// Source describes one RSS feed to aggregate.
type Source struct {
	Name    string
	RSSURL  string
	BaseURL string
}

// DefaultSources lists the crypto news RSS feeds polled out of the box.
var DefaultSources = []Source{
	{
		Name:    "CoinDesk",
		RSSURL:  "https://www.coindesk.com/arc/outboundfeeds/rss/",
		BaseURL: "https://www.coindesk.com",
	},
	{
		Name:    "Cointelegraph",
		RSSURL:  "https://cointelegraph.com/rss",
		BaseURL: "https://cointelegraph.com",
	},
	{
		Name:    "Decrypt",
		RSSURL:  "https://decrypt.co/feed",
		BaseURL: "https://decrypt.co",
	},
	{
		Name:    "CryptoSlate",
		RSSURL:  "https://cryptoslate.com/feed/",
		BaseURL: "https://cryptoslate.com",
	},
}

// Provider implements provider.Provider over a set of RSS sources.
type Provider struct {
	provider.BaseProvider
	sources []Source
}

// Option configures the provider.
type Option func(*Provider)

// WithSources replaces the default feed list (tests, regional deployments).
func WithSources(sources []Source) Option {
	return func(p *Provider) { p.sources = sources }
}

// New creates a newswire provider and registers its fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Aggregated crypto news from public RSS feeds (no key required)",
			"",
			nil,
		),
		sources: DefaultSources,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.RegisterFetcher(newMarketNewsFetcher(p))

	return p
}
