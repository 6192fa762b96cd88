package board

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/seenimoa/coinscope/internal/listing"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/internal/store"
	"github.com/seenimoa/coinscope/pkg/models"
)

// stubFetcher serves a fixed payload or error per model type.
type stubFetcher struct {
	provider.BaseFetcher
	payload any
	err     error
}

func (f *stubFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &provider.FetchResult{Data: f.payload}, nil
}

type stubProvider struct {
	provider.BaseProvider
}

// newTestRegistry wires stub fetchers for the given payloads into one
// provider. A payload of type error makes that model fail.
func newTestRegistry(t *testing.T, payloads map[provider.ModelType]any) *provider.Registry {
	t.Helper()
	p := &stubProvider{BaseProvider: provider.NewBaseProvider("stub", "test provider", "", nil)}
	for model, payload := range payloads {
		f := &stubFetcher{BaseFetcher: provider.NewBaseFetcher(model, "stub", nil, nil)}
		if err, ok := payload.(error); ok {
			f.err = err
		} else {
			f.payload = payload
		}
		p.RegisterFetcher(f)
	}

	reg := provider.NewRegistry()
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func newTestCollections(t *testing.T) (*listing.ManualCollection, *listing.ManualCollection) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return listing.NewManualCollection(st, store.KeyManualProjects),
		listing.NewManualCollection(st, store.KeyManualExchanges)
}

func testCoins() []models.Coin {
	return []models.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Rank: 1, Price: 65000, Volume24h: 35e9},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Rank: 2, Price: 3200, Volume24h: 18e9},
	}
}

func TestBoardCoinsMergesManualProjects(t *testing.T) {
	reg := newTestRegistry(t, map[provider.ModelType]any{
		provider.ModelCoinList: testCoins(),
	})
	projects, exchanges := newTestCollections(t)
	if _, err := projects.Add(listing.Entity{Name: "MyToken", Symbol: "MYT"}, 2); err != nil {
		t.Fatalf("Add manual project: %v", err)
	}

	b := New(reg, projects, exchanges, Options{CoinPageSize: 2})
	coins, err := b.Coins(context.Background(), "")
	if err != nil {
		t.Fatalf("Coins: %v", err)
	}

	if len(coins) != 3 {
		t.Fatalf("got %d coins, want 3", len(coins))
	}
	// External order by source rank, manual project slotted after.
	if coins[0].ID != "bitcoin" || coins[1].ID != "ethereum" {
		t.Fatalf("external order = %q, %q", coins[0].ID, coins[1].ID)
	}
	if coins[2].Symbol != "MYT" || coins[2].Rank != 3 {
		t.Fatalf("manual entry = %+v", coins[2])
	}
	if coins[0].Symbol != "BTC" {
		t.Fatalf("symbol = %q, want upper-cased BTC", coins[0].Symbol)
	}
}

func TestBoardCoinsFilter(t *testing.T) {
	reg := newTestRegistry(t, map[provider.ModelType]any{
		provider.ModelCoinList: testCoins(),
	})
	projects, exchanges := newTestCollections(t)
	b := New(reg, projects, exchanges, Options{})

	coins, err := b.Coins(context.Background(), "ether")
	if err != nil {
		t.Fatalf("Coins: %v", err)
	}
	if len(coins) != 1 || coins[0].ID != "ethereum" {
		t.Fatalf("filtered = %+v", coins)
	}
}

func TestBoardExchangesRerankedByVolume(t *testing.T) {
	reg := newTestRegistry(t, map[provider.ModelType]any{
		provider.ModelExchangeList: []models.Exchange{
			{ID: "small", Name: "Small", Volume24hBTC: 1000},
			{ID: "big", Name: "Big", Volume24hBTC: 90000},
		},
	})
	projects, exchanges := newTestCollections(t)
	if _, err := exchanges.Add(listing.Entity{
		Name: "LocalEx", Symbol: "LEX",
		Metrics: listing.Metrics{Volume24h: 50000},
	}, 2); err != nil {
		t.Fatalf("Add manual exchange: %v", err)
	}

	b := New(reg, projects, exchanges, Options{})
	got, err := b.Exchanges(context.Background(), "")
	if err != nil {
		t.Fatalf("Exchanges: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d exchanges, want 3", len(got))
	}
	// Dense re-rank by 24h volume, manual entries competing with external.
	wantOrder := []string{"Big", "LocalEx", "Small"}
	for i, want := range wantOrder {
		if got[i].Name != want {
			t.Fatalf("order = %v, want %v", names(got), wantOrder)
		}
		if got[i].Rank != i+1 {
			t.Fatalf("%s rank = %d, want %d", got[i].Name, got[i].Rank, i+1)
		}
	}
}

func TestBoardStocksSkipsFailedSymbols(t *testing.T) {
	quote := &models.StockQuote{Symbol: "AAPL", Price: 230.10}
	calls := map[string]int{}
	reg := provider.NewRegistry()
	p := &stubProvider{BaseProvider: provider.NewBaseProvider("stub", "test provider", "", nil)}
	p.RegisterFetcher(&symbolFetcher{
		BaseFetcher: provider.NewBaseFetcher(provider.ModelStockQuote, "stub", []string{provider.ParamSymbol}, nil),
		quotes:      map[string]*models.StockQuote{"AAPL": quote},
		calls:       calls,
	})
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	projects, exchanges := newTestCollections(t)
	b := New(reg, projects, exchanges, Options{Watchlist: []string{"AAPL", "FAIL"}})

	stocks, err := b.Stocks(context.Background())
	if err != nil {
		t.Fatalf("Stocks: %v", err)
	}
	if len(stocks) != 1 || stocks[0].Symbol != "AAPL" {
		t.Fatalf("stocks = %+v", stocks)
	}
	if calls["AAPL"] != 1 || calls["FAIL"] != 1 {
		t.Fatalf("calls = %v", calls)
	}
}

func TestBoardStocksAllFail(t *testing.T) {
	reg := newTestRegistry(t, map[provider.ModelType]any{
		provider.ModelStockQuote: fmt.Errorf("upstream down"),
	})
	projects, exchanges := newTestCollections(t)
	b := New(reg, projects, exchanges, Options{Watchlist: []string{"AAPL", "MSFT"}})

	if _, err := b.Stocks(context.Background()); err == nil {
		t.Fatal("Stocks succeeded with every symbol failing")
	}
}

func TestBoardStocksEmptyWatchlist(t *testing.T) {
	reg := newTestRegistry(t, nil)
	projects, exchanges := newTestCollections(t)
	b := New(reg, projects, exchanges, Options{})

	stocks, err := b.Stocks(context.Background())
	if err != nil || stocks != nil {
		t.Fatalf("Stocks = %v, %v; want nil, nil", stocks, err)
	}
}

func TestBoardSnapshotIsolatesSectionFailures(t *testing.T) {
	reg := newTestRegistry(t, map[provider.ModelType]any{
		provider.ModelCoinList:     testCoins(),
		provider.ModelExchangeList: fmt.Errorf("exchange api down"),
		provider.ModelNftList:      []models.NFTCollection{{ID: "pudgy", Name: "Pudgy Penguins"}},
		provider.ModelMarketNews:   []models.NewsArticle{{Title: "Headline"}},
		provider.ModelMarketStatus: []models.MarketVenue{{Region: "United States", Status: "open"}},
	})
	projects, exchanges := newTestCollections(t)
	b := New(reg, projects, exchanges, Options{})

	snap := b.Snapshot(context.Background())

	if len(snap.Coins) != 2 {
		t.Errorf("coins = %d, want 2", len(snap.Coins))
	}
	if len(snap.NFTs) != 1 || len(snap.News) != 1 || len(snap.MarketStatus) != 1 {
		t.Errorf("sections = nfts %d, news %d, status %d", len(snap.NFTs), len(snap.News), len(snap.MarketStatus))
	}
	if snap.Exchanges != nil {
		t.Errorf("exchanges = %+v, want nil on failure", snap.Exchanges)
	}
	if snap.Errors == nil || snap.Errors["exchanges"] == "" {
		t.Errorf("errors = %v, want an exchanges entry", snap.Errors)
	}
	if _, ok := snap.Errors["coins"]; ok {
		t.Error("healthy coins section reported an error")
	}
	if snap.FetchedAt.IsZero() {
		t.Error("snapshot missing fetched_at")
	}
}

func TestBoardSnapshotNoErrorsOmitsMap(t *testing.T) {
	reg := newTestRegistry(t, map[provider.ModelType]any{
		provider.ModelCoinList:     testCoins(),
		provider.ModelExchangeList: []models.Exchange{},
		provider.ModelNftList:      []models.NFTCollection{},
		provider.ModelMarketNews:   []models.NewsArticle{},
		provider.ModelMarketStatus: []models.MarketVenue{},
	})
	projects, exchanges := newTestCollections(t)
	b := New(reg, projects, exchanges, Options{})

	if snap := b.Snapshot(context.Background()); snap.Errors != nil {
		t.Fatalf("errors = %v, want nil", snap.Errors)
	}
}

// symbolFetcher resolves quotes per symbol, failing unknown ones.
type symbolFetcher struct {
	provider.BaseFetcher
	mu     sync.Mutex
	quotes map[string]*models.StockQuote
	calls  map[string]int
}

func (f *symbolFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	f.mu.Lock()
	f.calls[symbol]++
	f.mu.Unlock()
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return &provider.FetchResult{Data: q}, nil
}

func names(entities []listing.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name
	}
	return out
}
