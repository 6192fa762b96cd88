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

// --- ExchangeList fetcher ---

type exchangeListFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newExchangeListFetcher(p *Provider) *exchangeListFetcher {
	return &exchangeListFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelExchangeList,
			"Exchange listings with 24h BTC volume from CoinGecko /exchanges",
			nil,
			[]string{provider.ParamLimit, provider.ParamPage},
			5*time.Minute, 10, time.Minute,
		),
		p: p,
	}
}

func (f *exchangeListFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	limit := intParamOr(params, provider.ParamLimit, 50)
	page := intParamOr(params, provider.ParamPage, 1)

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	var rows []cgExchangeRow
	if err := f.p.getJSON(ctx, f.p.baseURL+"/exchanges?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("coingecko exchange list: %w", err)
	}

	exchanges := make([]models.Exchange, 0, len(rows))
	for _, r := range rows {
		exchanges = append(exchanges, models.Exchange{
			ID:           r.ID,
			Name:         r.Name,
			Country:      r.Country,
			URL:          r.URL,
			ImageURL:     r.Image,
			YearEst:      r.YearEstablished,
			TrustScore:   r.TrustScore,
			Volume24hBTC: r.TradeVolume24h,
		})
	}

	f.CacheSet(cacheKey, exchanges)
	return newResult(exchanges), nil
}

// --- NftList fetcher ---

type nftListFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newNftListFetcher(p *Provider) *nftListFetcher {
	return &nftListFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelNftList,
			"NFT collection listings from CoinGecko /nfts/markets",
			nil,
			[]string{provider.ParamLimit, provider.ParamPage},
			10*time.Minute, 10, time.Minute,
		),
		p: p,
	}
}

func (f *nftListFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return newCachedResult(cached), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	limit := intParamOr(params, provider.ParamLimit, 20)
	page := intParamOr(params, provider.ParamPage, 1)

	q := url.Values{}
	q.Set("order", "h24_volume_usd_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	var rows []cgNftRow
	if err := f.p.getJSON(ctx, f.p.baseURL+"/nfts/markets?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("coingecko nft list: %w", err)
	}

	collections := make([]models.NFTCollection, 0, len(rows))
	for _, r := range rows {
		collections = append(collections, models.NFTCollection{
			ID:                r.ID,
			Name:              r.Name,
			Symbol:            r.Symbol,
			AssetPlatform:     r.AssetPlatform,
			FloorPriceNative:  r.FloorPrice.NativeCurrency,
			FloorPriceUSD:     r.FloorPrice.USD,
			MarketCapUSD:      r.MarketCap.USD,
			Volume24hUSD:      r.Volume24h.USD,
			FloorChangePct24h: r.FloorPriceChangePct24h,
			ImageURL:          r.Image.Small,
		})
	}

	f.CacheSet(cacheKey, collections)
	return newResult(collections), nil
}
