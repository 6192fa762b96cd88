// Package board assembles the dashboard sections. Each section is fetched
// concurrently and fails independently: a provider outage blanks that
// section but never aborts its siblings.
package board

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/coinscope/internal/listing"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

// Board aggregates provider data with the locally-authored collections.
type Board struct {
	reg       *provider.Registry
	projects  *listing.ManualCollection
	exchanges *listing.ManualCollection

	watchlist    []string
	coinPageSize int
	newsLimit    int
}

// Options tunes board fetch sizes.
type Options struct {
	Watchlist    []string
	CoinPageSize int
	NewsLimit    int
}

// New creates a board over the given registry and manual collections.
func New(reg *provider.Registry, projects, exchanges *listing.ManualCollection, opts Options) *Board {
	if opts.CoinPageSize <= 0 {
		opts.CoinPageSize = 100
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = 30
	}
	return &Board{
		reg:          reg,
		projects:     projects,
		exchanges:    exchanges,
		watchlist:    opts.Watchlist,
		coinPageSize: opts.CoinPageSize,
		newsLimit:    opts.NewsLimit,
	}
}

// Snapshot is one full dashboard refresh. Sections that failed are zero
// and named in Errors.
type Snapshot struct {
	Coins        []listing.Entity       `json:"coins"`
	Exchanges    []listing.Entity       `json:"exchanges"`
	NFTs         []models.NFTCollection `json:"nfts"`
	Stocks       []models.StockQuote    `json:"stocks"`
	News         []models.NewsArticle   `json:"news"`
	MarketStatus []models.MarketVenue   `json:"market_status"`
	FetchedAt    time.Time              `json:"fetched_at"`
	Errors       map[string]string      `json:"errors,omitempty"`
}

// Snapshot fetches every section concurrently.
func (b *Board) Snapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		FetchedAt: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	var mu sync.Mutex
	fail := func(section string, err error) {
		mu.Lock()
		snap.Errors[section] = err.Error()
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		coins, err := b.Coins(gctx, "")
		if err != nil {
			fail("coins", err)
			return nil // non-fatal
		}
		mu.Lock()
		snap.Coins = coins
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		exchanges, err := b.Exchanges(gctx, "")
		if err != nil {
			fail("exchanges", err)
			return nil
		}
		mu.Lock()
		snap.Exchanges = exchanges
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		nfts, err := b.NFTs(gctx)
		if err != nil {
			fail("nfts", err)
			return nil
		}
		mu.Lock()
		snap.NFTs = nfts
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		stocks, err := b.Stocks(gctx)
		if err != nil {
			fail("stocks", err)
			return nil
		}
		mu.Lock()
		snap.Stocks = stocks
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		news, err := b.News(gctx)
		if err != nil {
			fail("news", err)
			return nil
		}
		mu.Lock()
		snap.News = news
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		status, err := b.MarketStatus(gctx)
		if err != nil {
			fail("market_status", err)
			return nil
		}
		mu.Lock()
		snap.MarketStatus = status
		mu.Unlock()
		return nil
	})

	_ = g.Wait() // section errors are collected, never fatal

	if len(snap.Errors) == 0 {
		snap.Errors = nil
	}
	return snap
}

// Coins returns the merged coin listing: external market data ordered by
// source rank, with manual projects slotted after, optionally filtered.
func (b *Board) Coins(ctx context.Context, filter string) ([]listing.Entity, error) {
	res, err := b.reg.Fetch(ctx, provider.ModelCoinList, provider.QueryParams{
		provider.ParamLimit: strconv.Itoa(b.coinPageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("coin listing: %w", err)
	}
	coins, ok := res.Data.([]models.Coin)
	if !ok {
		return nil, fmt.Errorf("coin listing: unexpected payload %T", res.Data)
	}

	external := make([]listing.Entity, len(coins))
	for i, c := range coins {
		external[i] = coinEntity(c)
	}

	merged := listing.Merge(external, b.projects.List(), listing.PreserveSourceRank)
	return listing.Filter(merged, filter), nil
}

// Exchanges returns the merged exchange listing, re-ranked by 24h volume.
func (b *Board) Exchanges(ctx context.Context, filter string) ([]listing.Entity, error) {
	res, err := b.reg.Fetch(ctx, provider.ModelExchangeList, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange listing: %w", err)
	}
	exchanges, ok := res.Data.([]models.Exchange)
	if !ok {
		return nil, fmt.Errorf("exchange listing: unexpected payload %T", res.Data)
	}

	external := make([]listing.Entity, len(exchanges))
	for i, e := range exchanges {
		external[i] = exchangeEntity(e, i+1)
	}

	merged := listing.Merge(external, b.exchanges.List(), listing.RecomputeByMetric)
	return listing.Filter(merged, filter), nil
}

// NFTs returns the top NFT collections by 24h volume.
func (b *Board) NFTs(ctx context.Context) ([]models.NFTCollection, error) {
	res, err := b.reg.Fetch(ctx, provider.ModelNftList, nil)
	if err != nil {
		return nil, fmt.Errorf("nft listing: %w", err)
	}
	nfts, ok := res.Data.([]models.NFTCollection)
	if !ok {
		return nil, fmt.Errorf("nft listing: unexpected payload %T", res.Data)
	}
	return nfts, nil
}

// Stocks fetches delayed quotes for the configured watchlist. Symbols that
// fail are skipped; the section errors only when every symbol fails.
func (b *Board) Stocks(ctx context.Context) ([]models.StockQuote, error) {
	if len(b.watchlist) == 0 {
		return nil, nil
	}

	quotes := make([]*models.StockQuote, len(b.watchlist))
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range b.watchlist {
		i, symbol := i, symbol
		g.Go(func() error {
			res, err := b.reg.Fetch(gctx, provider.ModelStockQuote, provider.QueryParams{
				provider.ParamSymbol: symbol,
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
				mu.Unlock()
				return nil
			}
			if q, ok := res.Data.(*models.StockQuote); ok {
				mu.Lock()
				quotes[i] = q
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.StockQuote, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			out = append(out, *q)
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("watchlist: all %d symbols failed: %w", len(b.watchlist), errs[0])
	}
	return out, nil
}

// News returns the latest market headlines, preferring the sentiment-aware
// source with RSS as fallback.
func (b *Board) News(ctx context.Context) ([]models.NewsArticle, error) {
	res, err := b.reg.FetchWithFallback(ctx, provider.ModelMarketNews, provider.QueryParams{
		provider.ParamLimit: strconv.Itoa(b.newsLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	articles, ok := res.Data.([]models.NewsArticle)
	if !ok {
		return nil, fmt.Errorf("news: unexpected payload %T", res.Data)
	}
	return articles, nil
}

// MarketStatus returns the global open/closed board.
func (b *Board) MarketStatus(ctx context.Context) ([]models.MarketVenue, error) {
	res, err := b.reg.Fetch(ctx, provider.ModelMarketStatus, nil)
	if err != nil {
		return nil, fmt.Errorf("market status: %w", err)
	}
	venues, ok := res.Data.([]models.MarketVenue)
	if !ok {
		return nil, fmt.Errorf("market status: unexpected payload %T", res.Data)
	}
	return venues, nil
}

// coinEntity converts a provider coin row into a listing entity.
func coinEntity(c models.Coin) listing.Entity {
	return listing.Entity{
		ID:     c.ID,
		Name:   c.Name,
		Symbol: strings.ToUpper(c.Symbol),
		Rank:   c.Rank,
		Origin: listing.OriginExternal,
		Metrics: listing.Metrics{
			Price:            c.Price,
			MarketCap:        c.MarketCap,
			Volume24h:        c.Volume24h,
			ChangePercent24h: c.ChangePercent24h,
		},
	}
}

// exchangeEntity converts a provider exchange row. The positional rank is
// provisional; RecomputeByMetric overwrites it.
func exchangeEntity(e models.Exchange, rank int) listing.Entity {
	return listing.Entity{
		ID:      e.ID,
		Name:    e.Name,
		Symbol:  strings.ToUpper(e.ID),
		Rank:    rank,
		Origin:  listing.OriginExternal,
		LinkURL: e.URL,
		Metrics: listing.Metrics{
			Volume24h: e.Volume24hBTC,
		},
	}
}
