package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const brapiBaseURL = "https://brapi.dev"

// brapiQuoteResponse is the brapi /api/quote response.
type brapiQuoteResponse struct {
	Results []struct {
		Symbol             string   `json:"symbol"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"results"`
}

// BrapiQuoter fetches prices from brapi.dev for B3-listed instruments.
type BrapiQuoter struct {
	client *resty.Client
}

// NewBrapiQuoter creates a brapi quoter. An empty baseURL uses the public endpoint.
func NewBrapiQuoter(baseURL, apiKey string, timeout time.Duration) *BrapiQuoter {
	if baseURL == "" {
		baseURL = brapiBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &BrapiQuoter{client: client}
}

// Name returns the provider's display name.
func (q *BrapiQuoter) Name() string { return "brapi" }

// Quote fetches the regular market price of ticker.
func (q *BrapiQuoter) Quote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var body brapiQuoteResponse
	resp, err := q.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/quote/" + url.PathEscape(ticker))
	if err != nil {
		return decimal.Zero, fmt.Errorf("http request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return decimal.Zero, ErrNotFound
	case resp.StatusCode() != http.StatusOK:
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	if len(body.Results) == 0 || body.Results[0].RegularMarketPrice == nil {
		return decimal.Zero, ErrNotFound
	}
	price := decimal.NewFromFloat(*body.Results[0].RegularMarketPrice)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price for %s", ErrNotFound, ticker)
	}
	return price, nil
}
