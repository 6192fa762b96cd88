package models

import "time"

// StockQuote is a delayed stock quote from the stock-data provider.
type StockQuote struct {
	Symbol        string    `json:"symbol"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Price         float64   `json:"price"`
	Volume        int64     `json:"volume"`
	PrevClose     float64   `json:"prev_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	TradingDay    time.Time `json:"trading_day"`
}

// MarketVenue describes one market's open/closed state as reported by the
// market-status endpoint.
type MarketVenue struct {
	MarketType string `json:"market_type"` // "Equity", "Forex", ...
	Region     string `json:"region"`
	Exchanges  string `json:"exchanges"` // comma-joined primary exchanges
	LocalOpen  string `json:"local_open"`
	LocalClose string `json:"local_close"`
	Status     string `json:"status"` // "open" or "closed"
}
