package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

// --- CoinList fetcher ---

type coinListFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCoinListFetcher(p *Provider) *coinListFetcher {
	return &coinListFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCoinList,
			"Ranked coin listings from CoinGecko /coins/markets",
			nil,
			[]string{provider.ParamCurrency, provider.ParamLimit, provider.ParamPage},
			2*time.Minute, 10, time.Minute,
		),
		p: p,
	}
}

func (f *coinListFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	currency := paramOr(params, provider.ParamCurrency, "usd")
	limit := intParamOr(params, provider.ParamLimit, 100)
	page := intParamOr(params, provider.ParamPage, 1)

	q := url.Values{}
	q.Set("vs_currency", currency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))
	q.Set("price_change_percentage", "1h,24h,7d")

	var rows []cgMarketRow
	if err := f.p.getJSON(ctx, f.p.baseURL+"/coins/markets?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("coingecko coin list: %w", err)
	}

	coins := make([]models.Coin, 0, len(rows))
	for _, r := range rows {
		coins = append(coins, models.Coin{
			ID:               r.ID,
			Symbol:           r.Symbol,
			Name:             r.Name,
			Rank:             r.MarketCapRank,
			Price:            r.CurrentPrice,
			MarketCap:        r.MarketCap,
			Volume24h:        r.TotalVolume,
			ChangePercent1h:  r.PriceChange1h,
			ChangePercent24h: r.PriceChange24h,
			ChangePercent7d:  r.PriceChange7d,
			ImageURL:         r.Image,
			LastUpdated:      r.LastUpdated,
		})
	}

	f.CacheSet(cacheKey, coins)
	return newResult(coins), nil
}

// --- CoinDetail fetcher ---

type coinDetailFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCoinDetailFetcher(p *Provider) *coinDetailFetcher {
	return &coinDetailFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCoinDetail,
			"Single coin detail from CoinGecko /coins/{id}",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamCurrency},
			5*time.Minute, 10, time.Minute,
		),
		p: p,
	}
}

func (f *coinDetailFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	id := params[provider.ParamSymbol]
	currency := paramOr(params, provider.ParamCurrency, "usd")

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false",
		f.p.baseURL, url.PathEscape(id))
	var raw cgCoinDetail
	if err := f.p.getJSON(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("coingecko coin detail %s: %w", id, err)
	}

	md := raw.MarketData
	detail := &models.CoinDetail{
		Coin: models.Coin{
			ID:               raw.ID,
			Symbol:           raw.Symbol,
			Name:             raw.Name,
			Rank:             raw.MarketCapRank,
			Price:            md.CurrentPrice[currency],
			MarketCap:        md.MarketCap[currency],
			Volume24h:        md.TotalVolume[currency],
			ChangePercent24h: md.PriceChangePct24h,
			ChangePercent7d:  md.PriceChangePct7d,
			ImageURL:         raw.Image.Large,
		},
		Description:       raw.Description.En,
		CirculatingSupply: md.CirculatingSupply,
		TotalSupply:       md.TotalSupply,
		MaxSupply:         md.MaxSupply,
		ATH:               md.ATH[currency],
		High24h:           md.High24h[currency],
		Low24h:            md.Low24h[currency],
	}
	if len(raw.Links.Homepage) > 0 {
		detail.Homepage = raw.Links.Homepage[0]
	}
	if t, err := time.Parse(time.RFC3339, md.ATHDate[currency]); err == nil {
		detail.ATHDate = t
	}

	f.CacheSet(cacheKey, detail)
	return newResult(detail), nil
}

// --- CoinHistory fetcher ---

type coinHistoryFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCoinHistoryFetcher(p *Provider) *coinHistoryFetcher {
	return &coinHistoryFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelCoinHistory,
			"Chart-ready price history from CoinGecko /coins/{id}/market_chart",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamCurrency, provider.ParamDays},
			15*time.Minute, 10, time.Minute,
		),
		p: p,
	}
}

func (f *coinHistoryFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	id := params[provider.ParamSymbol]
	currency := paramOr(params, provider.ParamCurrency, "usd")
	days := intParamOr(params, provider.ParamDays, 30)

	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d",
		f.p.baseURL, url.PathEscape(id), url.QueryEscape(currency), days)
	var chart cgMarketChart
	if err := f.p.getJSON(ctx, u, &chart); err != nil {
		return nil, fmt.Errorf("coingecko market chart %s: %w", id, err)
	}

	series := &models.ChartSeries{
		Symbol:   id,
		Currency: currency,
		Interval: "auto",
		Points:   make([]models.ChartPoint, 0, len(chart.Prices)),
	}
	for _, pair := range chart.Prices {
		series.Points = append(series.Points, models.ChartPoint{
			Time:  time.UnixMilli(int64(pair[0])).UTC(),
			Value: pair[1],
		})
	}

	f.CacheSet(cacheKey, series)
	return newResult(series), nil
}

// --- shared param helpers ---

func paramOr(params provider.QueryParams, key, def string) string {
	if v := params[key]; v != "" {
		return v
	}
	return def
}

func intParamOr(params provider.QueryParams, key string, def int) int {
	if v := params[key]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
