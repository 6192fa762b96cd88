package models

// NFTCollection is an NFT collection listing entry.
type NFTCollection struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Symbol              string  `json:"symbol,omitempty"`
	AssetPlatform       string  `json:"asset_platform,omitempty"` // e.g. "ethereum"
	FloorPriceNative    float64 `json:"floor_price_native"`
	FloorPriceUSD       float64 `json:"floor_price_usd"`
	MarketCapUSD        float64 `json:"market_cap_usd"`
	Volume24hUSD        float64 `json:"volume_24h_usd"`
	FloorChangePct24h   float64 `json:"floor_change_pct_24h"`
	ImageURL            string  `json:"image_url,omitempty"`
}
