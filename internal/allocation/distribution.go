package allocation

import (
	"encoding/json"
	"fmt"
)

// DistributionResponse is the schema the advisory service must answer the
// distribution prompt with. Weights stay as json.Number so that fractional or
// oversized values surface as validation failures instead of decode failures.
type DistributionResponse struct {
	Conservative map[string]json.Number `json:"conservative"`
	Aggressive   map[string]json.Number `json:"aggressive"`
}

// Distribution validates the response and converts it to typed weights.
func (r DistributionResponse) Distribution() (Distribution, error) {
	var d Distribution
	for _, v := range Variants {
		raw := r.Conservative
		if v == VariantAggressive {
			raw = r.Aggressive
		}
		if raw == nil {
			return Distribution{}, &InvalidDistributionError{Variant: v, Reason: "variant missing from response"}
		}
		w, err := parseWeights(v, raw)
		if err != nil {
			return Distribution{}, err
		}
		d.Set(v, w)
	}
	return d, nil
}

func parseWeights(v Variant, raw map[string]json.Number) (Weights, error) {
	w := make(Weights, len(raw))
	for key, num := range raw {
		seg, err := ParseSegment(key)
		if err != nil {
			return nil, &InvalidDistributionError{Variant: v, Reason: err.Error()}
		}
		pct, err := num.Int64()
		if err != nil {
			return nil, &InvalidDistributionError{Variant: v, Reason: fmt.Sprintf("%s weight %q is not an integer", seg, num.String())}
		}
		if pct < 0 || pct > 100 {
			return nil, &InvalidDistributionError{Variant: v, Reason: fmt.Sprintf("%s weight %d outside [0,100]", seg, pct)}
		}
		if pct == 0 {
			continue
		}
		w[seg] = int(pct)
	}
	if err := ValidateWeights(v, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ValidateWeights checks that every weight is within [0,100] and that the
// weights sum to exactly 100. Sums other than 100 are rejected, never normalized.
func ValidateWeights(v Variant, w Weights) error {
	if len(w) == 0 {
		return &InvalidDistributionError{Variant: v, Reason: "no segment weights"}
	}
	for seg, pct := range w {
		if _, err := ParseSegment(string(seg)); err != nil {
			return &InvalidDistributionError{Variant: v, Reason: err.Error()}
		}
		if pct < 0 || pct > 100 {
			return &InvalidDistributionError{Variant: v, Reason: fmt.Sprintf("%s weight %d outside [0,100]", seg, pct)}
		}
	}
	if total := w.Total(); total != 100 {
		return &InvalidDistributionError{Variant: v, Reason: fmt.Sprintf("weights sum to %d, expected 100", total)}
	}
	return nil
}

// Compact returns a copy of w without zero-weight segments.
func (w Weights) Compact() Weights {
	out := make(Weights, len(w))
	for seg, pct := range w {
		if pct != 0 {
			out[seg] = pct
		}
	}
	return out
}

// Equal reports whether w and o carry the same non-zero weights.
func (w Weights) Equal(o Weights) bool {
	a, b := w.Compact(), o.Compact()
	if len(a) != len(b) {
		return false
	}
	for seg, pct := range a {
		if b[seg] != pct {
			return false
		}
	}
	return true
}
