// Package models defines the standard data models shared across providers,
// the board aggregator, and the API layer. Providers normalize their raw
// payloads into these shapes; nothing downstream sees provider-specific JSON.
package models

import "time"

// Coin is a cryptocurrency listing entry as returned by a market-data
// provider. Rank is the provider's market-cap rank (1-based).
type Coin struct {
	ID               string    `json:"id"`     // provider slug, e.g. "bitcoin"
	Symbol           string    `json:"symbol"` // e.g. "BTC"
	Name             string    `json:"name"`
	Rank             int       `json:"rank"`
	Price            float64   `json:"price"`
	MarketCap        float64   `json:"market_cap"`
	Volume24h        float64   `json:"volume_24h"`
	ChangePercent1h  float64   `json:"change_percent_1h"`
	ChangePercent24h float64   `json:"change_percent_24h"`
	ChangePercent7d  float64   `json:"change_percent_7d"`
	ImageURL         string    `json:"image_url,omitempty"`
	LastUpdated      time.Time `json:"last_updated,omitempty"`
}

// CoinDetail is the expanded view of a single coin.
type CoinDetail struct {
	Coin
	Description       string  `json:"description,omitempty"`
	Homepage          string  `json:"homepage,omitempty"`
	CirculatingSupply float64 `json:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply"`
	MaxSupply         float64 `json:"max_supply"`
	ATH               float64 `json:"ath"`
	ATHDate           time.Time `json:"ath_date,omitempty"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
}
