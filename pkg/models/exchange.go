package models

// Exchange is a cryptocurrency exchange listing entry.
// Volume24hBTC is the exchange's reported 24-hour trade volume in BTC;
// it drives the recomputed ranking on the exchanges view.
type Exchange struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Country      string  `json:"country,omitempty"`
	URL          string  `json:"url,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	YearEst      int     `json:"year_established,omitempty"`
	TrustScore   int     `json:"trust_score,omitempty"`
	Volume24hBTC float64 `json:"volume_24h_btc"`
}
