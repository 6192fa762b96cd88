// Package insight generates short bull/bear case summaries for an asset
// using the configured generative backends. Summaries are best-effort:
// when every backend fails the dashboard simply omits the insight panel.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/coinscope/internal/infra"
	"github.com/seenimoa/coinscope/internal/llm"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

// ErrUnavailable is returned when no generative backend is configured.
var ErrUnavailable = errors.New("insight: no generative backend configured")

const systemPrompt = `You are a market analyst writing for a dashboard widget.
Given market data for an asset, write a concise bull case and bear case.
Respond in exactly two short paragraphs. The first paragraph starts with
"Bull case:" and the second with "Bear case:". No other text. Do not give
financial advice or price targets.`

// Summary is a generated bull/bear view of one asset.
type Summary struct {
	Symbol      string    `json:"symbol"`
	BullCase    string    `json:"bull_case"`
	BearCase    string    `json:"bear_case"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator builds prompts from live market data and asks the router.
type Generator struct {
	router *llm.Router
	reg    *provider.Registry
	cache  *infra.Cache
	opts   llm.ChatOptions
}

// NewGenerator creates a generator. router may be nil when no backend is
// configured; BullBear then returns ErrUnavailable.
func NewGenerator(router *llm.Router, reg *provider.Registry, opts llm.ChatOptions) *Generator {
	return &Generator{
		router: router,
		reg:    reg,
		cache:  infra.NewCache(15 * time.Minute),
		opts:   opts,
	}
}

// BullBear generates (or returns a cached) bull/bear summary for symbol.
func (g *Generator) BullBear(ctx context.Context, symbol string) (*Summary, error) {
	if g.router == nil || len(g.router.Providers()) == 0 {
		return nil, ErrUnavailable
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("insight: empty symbol")
	}

	cacheKey := "insight:" + symbol
	if cached, ok := g.cache.Get(cacheKey); ok {
		return cached.(*Summary), nil
	}

	prompt := g.buildPrompt(ctx, symbol)

	resp, err := g.router.Chat(ctx, []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(prompt),
	}, &g.opts)
	if err != nil {
		return nil, fmt.Errorf("insight %s: %w", symbol, err)
	}

	summary := parseSummary(symbol, resp)
	g.cache.Set(cacheKey, summary)
	return summary, nil
}

// buildPrompt gathers whatever market data is available for the symbol.
// Missing data is fine; the model works with what it gets.
func (g *Generator) buildPrompt(ctx context.Context, symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Asset: %s\n", symbol)

	if g.reg != nil {
		params := provider.QueryParams{provider.ParamSymbol: symbol}

		if res, err := g.reg.Fetch(ctx, provider.ModelStockQuote, params); err == nil {
			if q, ok := res.Data.(*models.StockQuote); ok {
				fmt.Fprintf(&b, "Price: %.2f, change: %.2f (%.2f%%), volume: %d\n",
					q.Price, q.Change, q.ChangePercent, q.Volume)
			}
		}

		if res, err := g.reg.Fetch(ctx, provider.ModelMarketNews,
			provider.QueryParams{provider.ParamSymbol: symbol, provider.ParamLimit: "5"}); err == nil {
			if articles, ok := res.Data.([]models.NewsArticle); ok && len(articles) > 0 {
				b.WriteString("Recent headlines:\n")
				for _, a := range articles {
					fmt.Fprintf(&b, "- %s\n", a.Title)
				}
			}
		}
	}

	b.WriteString("Write the bull case and bear case.")
	return b.String()
}

// parseSummary splits the model output into bull and bear paragraphs.
// When the expected markers are missing the whole text lands in BullCase
// rather than failing the request.
func parseSummary(symbol string, resp *llm.Response) *Summary {
	s := &Summary{
		Symbol:      symbol,
		Model:       resp.Provider + "/" + resp.Model,
		GeneratedAt: time.Now().UTC(),
	}

	text := strings.TrimSpace(resp.Content)
	lower := strings.ToLower(text)

	bearIdx := strings.Index(lower, "bear case:")
	if bearIdx < 0 {
		s.BullCase = text
		return s
	}

	bull := text[:bearIdx]
	bear := text[bearIdx:]
	s.BullCase = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bull), "Bull case:"))
	s.BearCase = strings.TrimSpace(strings.TrimPrefix(bear, "Bear case:"))
	return s
}
