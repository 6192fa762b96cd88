package models

import "time"

// NewsArticle is a single market news item, either from an RSS feed or
// from the news-sentiment endpoint.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	// Sentiment fields are populated only by sentiment-aware sources.
	SentimentScore float64 `json:"sentiment_score,omitempty"`
	SentimentLabel string  `json:"sentiment_label,omitempty"` // e.g. "Bullish"
}
