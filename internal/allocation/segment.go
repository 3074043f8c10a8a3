// Package allocation holds the pure portfolio allocation domain: segments,
// variants, weight distributions, advisory response validation, prompt
// construction and share quantity allocation. It performs no I/O.
package allocation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Segment is one of the fixed asset classes a portfolio is split across.
type Segment string

const (
	SegmentFixedIncome     Segment = "fixed_income"
	SegmentEquities        Segment = "equities"
	SegmentRealEstateFunds Segment = "real_estate_funds"
	SegmentCrypto          Segment = "crypto"
)

// Segments lists every segment in presentation order.
var Segments = []Segment{SegmentFixedIncome, SegmentEquities, SegmentRealEstateFunds, SegmentCrypto}

// ParseSegment returns the Segment named s.
func ParseSegment(s string) (Segment, error) {
	switch seg := Segment(s); seg {
	case SegmentFixedIncome, SegmentEquities, SegmentRealEstateFunds, SegmentCrypto:
		return seg, nil
	}
	return "", fmt.Errorf("unknown segment %q", s)
}

// Unitized reports whether instruments of the segment are bought in whole
// shares. Fixed-income positions are weighted but never allocated as assets.
func (s Segment) Unitized() bool {
	return s != SegmentFixedIncome
}

// Variant is a portfolio risk profile.
type Variant string

const (
	VariantConservative Variant = "conservative"
	VariantAggressive   Variant = "aggressive"
)

// Variants lists both variants.
var Variants = []Variant{VariantConservative, VariantAggressive}

// ParseVariant returns the Variant named s.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantConservative, VariantAggressive:
		return v, nil
	}
	return "", fmt.Errorf("unknown portfolio variant %q", s)
}

// TargetBoth selects both variants in asset generation requests.
const TargetBoth = "both"

// ParseTarget expands "conservative", "aggressive" or "both" into variants.
func ParseTarget(s string) ([]Variant, error) {
	if s == TargetBoth {
		return Variants, nil
	}
	v, err := ParseVariant(s)
	if err != nil {
		return nil, err
	}
	return []Variant{v}, nil
}

// Weights maps segments to integer percentages. Segments weighted at zero are omitted.
type Weights map[Segment]int

// Total returns the sum of all percentages.
func (w Weights) Total() int {
	total := 0
	for _, pct := range w {
		total += pct
	}
	return total
}

// Distribution holds the weights of both portfolio variants.
type Distribution struct {
	Conservative Weights `json:"conservative"`
	Aggressive   Weights `json:"aggressive"`
}

// For returns the weights of variant v.
func (d Distribution) For(v Variant) Weights {
	if v == VariantAggressive {
		return d.Aggressive
	}
	return d.Conservative
}

// Set replaces the weights of variant v.
func (d *Distribution) Set(v Variant, w Weights) {
	if v == VariantAggressive {
		d.Aggressive = w
		return
	}
	d.Conservative = w
}

// AssetLists maps segments to ticker symbols for one variant.
type AssetLists map[Segment][]string

// Selection holds the ticker lists of each requested variant.
type Selection map[Variant]AssetLists

// Holding is a priced instrument position within a segment.
type Holding struct {
	Ticker   string          `json:"ticker"`
	Price    decimal.Decimal `json:"unit_price"`
	Quantity int64           `json:"quantity"`
}

// Holdings maps segments to positions for one variant.
type Holdings map[Segment][]Holding

// Tickers returns the tickers of every holding per segment, sorted.
func (h Holdings) Tickers() map[Segment][]string {
	out := make(map[Segment][]string, len(h))
	for seg, list := range h {
		tickers := make([]string, 0, len(list))
		for _, holding := range list {
			tickers = append(tickers, holding.Ticker)
		}
		sort.Strings(tickers)
		out[seg] = tickers
	}
	return out
}
