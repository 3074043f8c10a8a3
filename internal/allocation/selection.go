package allocation

import (
	"encoding/json"
	"strings"
)

// SelectionResponse is the schema the advisory service must answer the asset
// prompt with: {"portfolio": {variant: {segment: [ticker, ...]}}}.
type SelectionResponse struct {
	Portfolio map[string]map[string][]json.RawMessage `json:"portfolio"`
}

// Selection validates the response against the weights of each requested
// variant. Every nonzero-weight segment needs a list (which may be empty);
// segments weighted at zero are discarded.
func (r SelectionResponse) Selection(d Distribution, variants []Variant) (Selection, error) {
	if r.Portfolio == nil {
		return nil, &InvalidSelectionError{Reason: "portfolio missing from response"}
	}
	for key := range r.Portfolio {
		if _, err := ParseVariant(key); err != nil {
			return nil, &InvalidSelectionError{Reason: err.Error()}
		}
	}

	out := make(Selection, len(variants))
	for _, v := range variants {
		raw, ok := r.Portfolio[string(v)]
		if !ok || raw == nil {
			return nil, &InvalidSelectionError{Variant: v, Reason: "variant missing from response"}
		}
		lists, err := parseAssetLists(v, d.For(v), raw)
		if err != nil {
			return nil, err
		}
		out[v] = lists
	}
	return out, nil
}

func parseAssetLists(v Variant, w Weights, raw map[string][]json.RawMessage) (AssetLists, error) {
	for key := range raw {
		if _, err := ParseSegment(key); err != nil {
			return nil, &InvalidSelectionError{Variant: v, Reason: err.Error()}
		}
	}

	lists := make(AssetLists, len(w))
	for seg, pct := range w {
		if pct == 0 {
			continue
		}
		entries, ok := raw[string(seg)]
		if !ok || entries == nil {
			return nil, &InvalidSelectionError{Variant: v, Segment: seg, Reason: "no ticker list for weighted segment"}
		}
		tickers := make([]string, 0, len(entries))
		seen := make(map[string]bool, len(entries))
		for _, entry := range entries {
			var s string
			if err := json.Unmarshal(entry, &s); err != nil {
				return nil, &InvalidSelectionError{Variant: v, Segment: seg, Reason: "ticker entry " + string(entry) + " is not a string"}
			}
			ticker := NormalizeTicker(s)
			if ticker == "" {
				return nil, &InvalidSelectionError{Variant: v, Segment: seg, Reason: "empty ticker entry"}
			}
			if seen[ticker] {
				continue
			}
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
		lists[seg] = tickers
	}
	return lists, nil
}

// NormalizeTicker strips all whitespace and upper-cases a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
