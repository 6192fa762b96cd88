package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

// --- StockQuote fetcher ---

type stockQuoteFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newStockQuoteFetcher(p *Provider) *stockQuoteFetcher {
	return &stockQuoteFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelStockQuote,
			"Delayed stock quote from Alpha Vantage GLOBAL_QUOTE",
			[]string{provider.ParamSymbol},
			nil,
			1*time.Minute, 5, time.Minute,
		),
		p: p,
	}
}

// avGlobalQuote mirrors the numbered-key GLOBAL_QUOTE payload.
type avGlobalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	TradingDay    string `json:"07. latest trading day"`
	PrevClose     string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

func (f *stockQuoteFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := strings.ToUpper(params[provider.ParamSymbol])

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	raw, err := f.p.query(ctx, url.Values{
		"function": []string{"GLOBAL_QUOTE"},
		"symbol":   []string{symbol},
	})
	if err != nil {
		return nil, fmt.Errorf("stock quote %s: %w", symbol, err)
	}

	payload, ok := raw["Global Quote"]
	if !ok {
		return nil, fmt.Errorf("stock quote %s: missing Global Quote payload", symbol)
	}
	var gq avGlobalQuote
	if err := json.Unmarshal(payload, &gq); err != nil {
		return nil, fmt.Errorf("stock quote %s: %w", symbol, err)
	}
	if gq.Symbol == "" {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	quote := &models.StockQuote{
		Symbol:        gq.Symbol,
		Open:          parseFloat(gq.Open),
		High:          parseFloat(gq.High),
		Low:           parseFloat(gq.Low),
		Price:         parseFloat(gq.Price),
		Volume:        parseInt(gq.Volume),
		PrevClose:     parseFloat(gq.PrevClose),
		Change:        parseFloat(gq.Change),
		ChangePercent: parseFloat(strings.TrimSuffix(gq.ChangePercent, "%")),
	}
	if t, err := time.Parse("2006-01-02", gq.TradingDay); err == nil {
		quote.TradingDay = t
	}

	f.CacheSet(cacheKey, quote)
	return newResult(quote), nil
}

// --- StockSeries fetcher ---

type stockSeriesFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newStockSeriesFetcher(p *Provider) *stockSeriesFetcher {
	return &stockSeriesFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelStockSeries,
			"Chart-ready close series from Alpha Vantage TIME_SERIES_*",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamInterval},
			15*time.Minute, 5, time.Minute,
		),
		p: p,
	}
}

func (f *stockSeriesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := strings.ToUpper(params[provider.ParamSymbol])
	interval := params[provider.ParamInterval]
	if interval == "" {
		interval = "daily"
	}

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	q := url.Values{"symbol": []string{symbol}}
	var seriesKey, layout string
	if interval == "daily" {
		q.Set("function", "TIME_SERIES_DAILY")
		seriesKey = "Time Series (Daily)"
		layout = "2006-01-02"
	} else {
		q.Set("function", "TIME_SERIES_INTRADAY")
		q.Set("interval", interval)
		seriesKey = "Time Series (" + interval + ")"
		layout = "2006-01-02 15:04:05"
	}

	raw, err := f.p.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("stock series %s: %w", symbol, err)
	}

	payload, ok := raw[seriesKey]
	if !ok {
		return nil, fmt.Errorf("stock series %s: missing %q payload", symbol, seriesKey)
	}
	var bars map[string]struct {
		Close string `json:"4. close"`
	}
	if err := json.Unmarshal(payload, &bars); err != nil {
		return nil, fmt.Errorf("stock series %s: %w", symbol, err)
	}

	series := &models.ChartSeries{
		Symbol:   symbol,
		Interval: interval,
		Points:   make([]models.ChartPoint, 0, len(bars)),
	}
	for stamp, bar := range bars {
		t, err := time.Parse(layout, stamp)
		if err != nil {
			continue // skip unparseable bars, keep the series
		}
		series.Points = append(series.Points, models.ChartPoint{
			Time:  t.UTC(),
			Value: parseFloat(bar.Close),
		})
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Time.Before(series.Points[j].Time)
	})

	f.CacheSet(cacheKey, series)
	return newResult(series), nil
}

// --- numeric string helpers ---

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}
