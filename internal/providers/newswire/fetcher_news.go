package newswire

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

type marketNewsFetcher struct {
	provider.BaseFetcher
	p      *Provider
	parser *gofeed.Parser
}

func newMarketNewsFetcher(p *Provider) *marketNewsFetcher {
	return &marketNewsFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelMarketNews,
			"Latest crypto headlines aggregated from RSS sources",
			nil,
			[]string{provider.ParamSymbol, provider.ParamLimit},
			10*time.Minute, 2, time.Second,
		),
		p:      p,
		parser: gofeed.NewParser(),
	}
}

func (f *marketNewsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return &provider.FetchResult{Data: cached, FetchedAt: time.Now(), Cached: true}, nil
	}

	var all []models.NewsArticle
	for _, src := range f.p.sources {
		articles, err := f.fetchRSS(ctx, src)
		if err != nil {
			// Non-critical: skip sources that fail or time out.
			continue
		}
		all = append(all, articles...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	if symbol := params[provider.ParamSymbol]; symbol != "" {
		all = filterBySymbol(all, symbol)
	}

	if limit := params[provider.ParamLimit]; limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 && len(all) > n {
			all = all[:n]
		}
	}

	f.CacheSet(cacheKey, all)
	return &provider.FetchResult{Data: all, FetchedAt: time.Now()}, nil
}

// fetchRSS parses a single feed into articles.
func (f *marketNewsFetcher) fetchRSS(ctx context.Context, src Source) ([]models.NewsArticle, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = item.PublishedParsed.UTC()
		}
		if item.Image != nil {
			a.ImageURL = item.Image.URL
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// cleanHTML strips HTML tags from feed descriptions using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// filterBySymbol keeps articles mentioning the symbol or its common name.
func filterBySymbol(articles []models.NewsArticle, symbol string) []models.NewsArticle {
	keywords := symbolKeywords(symbol)
	var filtered []models.NewsArticle
	for _, a := range articles {
		if matchesAny(a.Title+" "+a.Summary, keywords) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// symbolKeywords maps a ticker to search keywords, e.g. "BTC" -> bitcoin.
func symbolKeywords(symbol string) []string {
	s := strings.ToLower(symbol)
	keywords := []string{s}

	nameMap := map[string][]string{
		"btc":   {"bitcoin"},
		"eth":   {"ethereum", "ether"},
		"sol":   {"solana"},
		"xrp":   {"ripple"},
		"ada":   {"cardano"},
		"doge":  {"dogecoin"},
		"bnb":   {"binance coin"},
		"dot":   {"polkadot"},
		"avax":  {"avalanche"},
		"matic": {"polygon"},
		"ltc":   {"litecoin"},
		"link":  {"chainlink"},
	}

	if extra, ok := nameMap[s]; ok {
		keywords = append(keywords, extra...)
	}

	return keywords
}

// matchesAny reports whether text contains any keyword, case-insensitive.
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
