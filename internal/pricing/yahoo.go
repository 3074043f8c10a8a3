package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooQuotePath = "/v7/finance/quote"
	yahooUA        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
	// B3 listings are quoted on Yahoo with the .SA suffix.
	yahooB3Suffix = ".SA"
)

// yahooQuoteResponse is the top-level Yahoo Finance API response.
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuoteResult `json:"result"`
		Error  *json.RawMessage   `json:"error"`
	} `json:"quoteResponse"`
}

// yahooQuoteResult is a single quote result from Yahoo Finance.
type yahooQuoteResult struct {
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

// YahooQuoter fetches prices from Yahoo Finance.
type YahooQuoter struct {
	client *resty.Client
	suffix string
}

// NewYahooQuoter creates a Yahoo Finance quoter that appends the B3 suffix
// to bare tickers. An empty baseURL uses the public endpoint.
func NewYahooQuoter(baseURL string, timeout time.Duration) *YahooQuoter {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", yahooUA)
	return &YahooQuoter{client: client, suffix: yahooB3Suffix}
}

// Name returns the provider's display name.
func (q *YahooQuoter) Name() string { return "Yahoo Finance" }

// yahooSymbol converts a ticker to a Yahoo-compatible symbol. Tickers that
// already carry an exchange suffix or a pair separator are used as-is.
func (q *YahooQuoter) yahooSymbol(ticker string) string {
	if strings.ContainsAny(ticker, ".-=^") {
		return ticker
	}
	return ticker + q.suffix
}

// Quote fetches the regular market price of ticker.
func (q *YahooQuoter) Quote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	symbol := q.yahooSymbol(ticker)

	var quoteResp yahooQuoteResponse
	resp, err := q.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", symbol).
		SetResult(&quoteResp).
		Get(yahooQuotePath)
	if err != nil {
		return decimal.Zero, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	for _, r := range quoteResp.QuoteResponse.Result {
		if !strings.EqualFold(r.Symbol, symbol) {
			continue
		}
		if r.RegularMarketPrice <= 0 {
			return decimal.Zero, fmt.Errorf("%w: zero price for %s", ErrNotFound, symbol)
		}
		return decimal.NewFromFloat(r.RegularMarketPrice), nil
	}
	return decimal.Zero, fmt.Errorf("%w: symbol %s not in response", ErrNotFound, symbol)
}
