package models

import "time"

// ChartPoint is one point of a chart-ready time series.
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ChartSeries is a chart-ready series built from a provider's historical
// payload. Points are ordered oldest first.
type ChartSeries struct {
	Symbol   string       `json:"symbol"`
	Currency string       `json:"currency,omitempty"`
	Interval string       `json:"interval,omitempty"` // e.g. "daily", "5min"
	Points   []ChartPoint `json:"points"`
}
