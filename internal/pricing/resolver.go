// Package pricing resolves current unit prices for ticker symbols from an
// external market price service. Lookups never fail the caller: any error
// degrades the ticker to "unpriced", represented by a zero price.
package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"wealthplan/internal/logger"
	"wealthplan/internal/metrics"
)

// ErrNotFound is returned by a Quoter when the ticker has no usable price.
var ErrNotFound = errors.New("ticker not found")

// Quoter fetches the current unit price of a single ticker.
type Quoter interface {
	// Name returns the provider's display name (e.g., "brapi", "Yahoo Finance").
	Name() string

	// Quote returns the regular market price for ticker.
	Quote(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Cache stores recently resolved prices. Implementations treat their own
// failures as cache misses.
type Cache interface {
	Get(ctx context.Context, ticker string) (decimal.Decimal, bool)
	Set(ctx context.Context, ticker string, price decimal.Decimal)
}

// ResolverConfig tunes price resolution.
type ResolverConfig struct {
	// Concurrency bounds simultaneous lookups in ResolveAll. Zero means 8.
	Concurrency int
	// Timeout bounds each individual lookup. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// Resolver resolves ticker prices through a Quoter and an optional Cache.
type Resolver struct {
	quoter  Quoter
	cache   Cache
	cfg     ResolverConfig
	metrics *metrics.Pipeline
}

// NewResolver creates a Resolver. cache and m may be nil.
func NewResolver(quoter Quoter, cache Cache, cfg ResolverConfig, m *metrics.Pipeline) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Resolver{quoter: quoter, cache: cache, cfg: cfg, metrics: m}
}

// Resolve returns the unit price of ticker, or zero when it cannot be priced.
func (r *Resolver) Resolve(ctx context.Context, ticker string) decimal.Decimal {
	if r.cache != nil {
		if price, ok := r.cache.Get(ctx, ticker); ok && price.IsPositive() {
			r.metrics.PriceLookup("cached")
			return price
		}
	}

	lookupCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	price, err := r.quoter.Quote(lookupCtx, ticker)
	if err != nil || !price.IsPositive() {
		if err == nil {
			err = ErrNotFound
		}
		logger.Get().Warnw("ticker unpriced",
			"ticker", ticker,
			"provider", r.quoter.Name(),
			"error", err.Error(),
		)
		r.metrics.PriceLookup("unpriced")
		return decimal.Zero
	}

	if r.cache != nil {
		r.cache.Set(ctx, ticker, price)
	}
	r.metrics.PriceLookup("priced")
	return price
}

// ResolveAll resolves every ticker concurrently and returns once all lookups
// finished. Unpriced tickers map to zero.
func (r *Resolver) ResolveAll(ctx context.Context, tickers []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(tickers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			price := r.Resolve(gctx, ticker)
			mu.Lock()
			prices[ticker] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return prices
}
