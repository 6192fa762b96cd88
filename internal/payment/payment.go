// Package payment integrates the external payment widget. CoinScope never
// processes payments itself: it only asks the widget's backend whether a
// checkout session completed, and gates persistence of paid listings on
// the answer.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/coinscope/internal/infra"
)

// Receipt is the outcome of a payment confirmation check.
type Receipt struct {
	Reference string          `json:"reference"`
	Paid      bool            `json:"paid"`
	Status    string          `json:"status"` // widget-reported state
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    time.Time       `json:"paid_at,omitempty"`
}

// Confirmer checks whether a checkout session has been paid.
type Confirmer interface {
	Confirm(ctx context.Context, reference string) (Receipt, error)
}

// HTTPConfirmer confirms payments against the widget's session-status
// endpoint.
type HTTPConfirmer struct {
	baseURL string
	apiKey  string
	limiter *infra.RateLimiter
}

// NewHTTPConfirmer creates a confirmer for the given widget base URL.
func NewHTTPConfirmer(baseURL, apiKey string) *HTTPConfirmer {
	return &HTTPConfirmer{
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: infra.NewRateLimiter(5, time.Second),
	}
}

// sessionResponse is the widget's session-status payload.
type sessionResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"` // "open", "complete", "expired"
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	PaidAt   string `json:"paid_at"`
}

// Confirm fetches the session state for reference.
func (c *HTTPConfirmer) Confirm(ctx context.Context, reference string) (Receipt, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Receipt{}, err
	}

	u := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(reference))
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var resp sessionResponse
	if err := infra.GetJSON(ctx, u, headers, &resp); err != nil {
		return Receipt{}, fmt.Errorf("payment session %s: %w", reference, err)
	}

	receipt := Receipt{
		Reference: reference,
		Paid:      resp.Status == "complete",
		Status:    resp.Status,
		Currency:  resp.Currency,
	}
	if resp.Amount != "" {
		amount, err := decimal.NewFromString(resp.Amount)
		if err != nil {
			return Receipt{}, fmt.Errorf("payment session %s: bad amount %q", reference, resp.Amount)
		}
		receipt.Amount = amount
	}
	if resp.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.PaidAt); err == nil {
			receipt.PaidAt = t
		}
	}
	return receipt, nil
}
