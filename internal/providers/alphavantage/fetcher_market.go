package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

// --- MarketStatus fetcher ---

type marketStatusFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newMarketStatusFetcher(p *Provider) *marketStatusFetcher {
	return &marketStatusFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelMarketStatus,
			"Global market open/closed state from Alpha Vantage MARKET_STATUS",
			nil,
			nil,
			5*time.Minute, 5, time.Minute,
		),
		p: p,
	}
}

type avMarketRow struct {
	MarketType       string `json:"market_type"`
	Region           string `json:"region"`
	PrimaryExchanges string `json:"primary_exchanges"`
	LocalOpen        string `json:"local_open"`
	LocalClose       string `json:"local_close"`
	CurrentStatus    string `json:"current_status"`
}

func (f *marketStatusFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	raw, err := f.p.query(ctx, url.Values{"function": []string{"MARKET_STATUS"}})
	if err != nil {
		return nil, fmt.Errorf("market status: %w", err)
	}

	payload, ok := raw["markets"]
	if !ok {
		return nil, fmt.Errorf("market status: missing markets payload")
	}
	var rows []avMarketRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("market status: %w", err)
	}

	venues := make([]models.MarketVenue, 0, len(rows))
	for _, r := range rows {
		venues = append(venues, models.MarketVenue{
			MarketType: r.MarketType,
			Region:     r.Region,
			Exchanges:  r.PrimaryExchanges,
			LocalOpen:  r.LocalOpen,
			LocalClose: r.LocalClose,
			Status:     r.CurrentStatus,
		})
	}

	f.CacheSet(cacheKey, venues)
	return newResult(venues), nil
}

// --- NewsSentiment fetcher ---

type newsSentimentFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newNewsSentimentFetcher(p *Provider) *newsSentimentFetcher {
	return &newsSentimentFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelNewsSentiment,
			"Sentiment-scored market news from Alpha Vantage NEWS_SENTIMENT",
			nil,
			[]string{provider.ParamSymbol, provider.ParamTopics, provider.ParamLimit},
			10*time.Minute, 5, time.Minute,
		),
		p: p,
	}
}

type avNewsItem struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	TimePublished string  `json:"time_published"` // 20240105T123000
	Summary       string  `json:"summary"`
	BannerImage   string  `json:"banner_image"`
	Source        string  `json:"source"`
	Score         float64 `json:"overall_sentiment_score"`
	Label         string  `json:"overall_sentiment_label"`
}

func (f *newsSentimentFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	q := url.Values{"function": []string{"NEWS_SENTIMENT"}, "sort": []string{"LATEST"}}
	if symbol := params[provider.ParamSymbol]; symbol != "" {
		q.Set("tickers", symbol)
	}
	if topics := params[provider.ParamTopics]; topics != "" {
		q.Set("topics", topics)
	}
	if limit := params[provider.ParamLimit]; limit != "" {
		q.Set("limit", limit)
	}

	raw, err := f.p.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("news sentiment: %w", err)
	}

	payload, ok := raw["feed"]
	if !ok {
		return nil, fmt.Errorf("news sentiment: missing feed payload")
	}
	var feed []avNewsItem
	if err := json.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("news sentiment: %w", err)
	}

	articles := make([]models.NewsArticle, 0, len(feed))
	for _, item := range feed {
		a := models.NewsArticle{
			Title:          item.Title,
			URL:            item.URL,
			Source:         item.Source,
			Summary:        item.Summary,
			ImageURL:       item.BannerImage,
			SentimentScore: item.Score,
			SentimentLabel: item.Label,
		}
		if t, err := time.Parse("20060102T150405", item.TimePublished); err == nil {
			a.PublishedAt = t.UTC()
		}
		articles = append(articles, a)
	}

	if limit := params[provider.ParamLimit]; limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 && len(articles) > n {
			articles = articles[:n]
		}
	}

	f.CacheSet(cacheKey, articles)
	return newResult(articles), nil
}
