package coingecko

import "time"

// cgMarketRow is one row of /coins/markets.
type cgMarketRow struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Image            string    `json:"image"`
	CurrentPrice     float64   `json:"current_price"`
	MarketCap        float64   `json:"market_cap"`
	MarketCapRank    int       `json:"market_cap_rank"`
	TotalVolume      float64   `json:"total_volume"`
	PriceChange1h    float64   `json:"price_change_percentage_1h_in_currency"`
	PriceChange24h   float64   `json:"price_change_percentage_24h_in_currency"`
	PriceChange7d    float64   `json:"price_change_percentage_7d_in_currency"`
	LastUpdated      time.Time `json:"last_updated"`
}

// cgCoinDetail is the subset of /coins/{id} the dashboard uses.
type cgCoinDetail struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`
	Image struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketCapRank int `json:"market_cap_rank"`
	MarketData    struct {
		CurrentPrice      map[string]float64 `json:"current_price"`
		MarketCap         map[string]float64 `json:"market_cap"`
		TotalVolume       map[string]float64 `json:"total_volume"`
		High24h           map[string]float64 `json:"high_24h"`
		Low24h            map[string]float64 `json:"low_24h"`
		PriceChangePct24h float64            `json:"price_change_percentage_24h"`
		PriceChangePct7d  float64            `json:"price_change_percentage_7d"`
		CirculatingSupply float64            `json:"circulating_supply"`
		TotalSupply       float64            `json:"total_supply"`
		MaxSupply         float64            `json:"max_supply"`
		ATH               map[string]float64 `json:"ath"`
		ATHDate           map[string]string  `json:"ath_date"`
	} `json:"market_data"`
}

// cgMarketChart is the /coins/{id}/market_chart payload: [timestamp_ms, value] pairs.
type cgMarketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// cgExchangeRow is one row of /exchanges.
type cgExchangeRow struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Country         string  `json:"country"`
	URL             string  `json:"url"`
	Image           string  `json:"image"`
	YearEstablished int     `json:"year_established"`
	TrustScore      int     `json:"trust_score"`
	TradeVolume24h  float64 `json:"trade_volume_24h_btc"`
}

// cgNftRow is one row of /nfts/markets.
type cgNftRow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	AssetPlatform string `json:"asset_platform_id"`
	Image         struct {
		Small string `json:"small"`
	} `json:"image"`
	FloorPrice struct {
		NativeCurrency float64 `json:"native_currency"`
		USD            float64 `json:"usd"`
	} `json:"floor_price"`
	MarketCap struct {
		USD float64 `json:"usd"`
	} `json:"market_cap"`
	Volume24h struct {
		USD float64 `json:"usd"`
	} `json:"volume_24h"`
	FloorPriceChangePct24h float64 `json:"floor_price_in_usd_24h_percentage_change"`
}
