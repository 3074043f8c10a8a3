package allocation

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PricedTicker is a ticker with the unit price resolved for it. A zero or
// negative price means the ticker could not be priced.
type PricedTicker struct {
	Ticker string
	Price  decimal.Decimal
}

// SegmentValue returns the share of capital assigned to a segment weighted at pct percent.
func SegmentValue(capital decimal.Decimal, pct int) decimal.Decimal {
	return capital.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
}

// PerAssetValue splits a segment's value equally across n tickers.
func PerAssetValue(capital decimal.Decimal, pct, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return SegmentValue(capital, pct).Div(decimal.NewFromInt(int64(n)))
}

// AllocateSegment converts a segment weight into whole share quantities.
// Capital is split equally across every listed ticker, priced or not; each
// ticker receives floor(perAssetValue/price) shares. Unpriced tickers and
// tickers that cannot afford a single share are dropped.
func AllocateSegment(capital decimal.Decimal, pct int, tickers []PricedTicker) []Holding {
	holdings := make([]Holding, 0, len(tickers))
	perAsset := PerAssetValue(capital, pct, len(tickers))
	if !perAsset.IsPositive() {
		return holdings
	}
	for _, t := range tickers {
		if !t.Price.IsPositive() {
			continue
		}
		qty := perAsset.Div(t.Price).Floor().IntPart()
		if qty < 1 {
			continue
		}
		holdings = append(holdings, Holding{Ticker: t.Ticker, Price: t.Price, Quantity: qty})
	}
	return holdings
}

// AllocateVariant runs AllocateSegment for every unitized segment of a
// variant that has a ticker list. Prices are looked up by ticker; missing
// entries count as unpriced.
func AllocateVariant(capital decimal.Decimal, w Weights, lists AssetLists, prices map[string]decimal.Decimal) Holdings {
	out := make(Holdings, len(lists))
	for seg, tickers := range lists {
		if !seg.Unitized() {
			continue
		}
		pct, ok := w[seg]
		if !ok || pct == 0 {
			continue
		}
		priced := make([]PricedTicker, 0, len(tickers))
		for _, ticker := range tickers {
			priced = append(priced, PricedTicker{Ticker: ticker, Price: prices[ticker]})
		}
		out[seg] = AllocateSegment(capital, pct, priced)
	}
	return out
}

// UnitizedTickers returns the distinct tickers of every unitized segment
// across the given selection, which are the tickers that need prices.
func UnitizedTickers(sel Selection) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range Variants {
		for seg, tickers := range sel[v] {
			if !seg.Unitized() {
				continue
			}
			for _, t := range tickers {
				if !seen[t] {
					seen[t] = true
					out = append(out, t)
				}
			}
		}
	}
	return out
}
