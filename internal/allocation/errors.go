package allocation

import "fmt"

// InvalidDistributionError reports advisory weights that are missing, out of
// range or do not sum to 100.
type InvalidDistributionError struct {
	Variant Variant
	Reason  string
}

func (e *InvalidDistributionError) Error() string {
	if e.Variant == "" {
		return "invalid distribution: " + e.Reason
	}
	return fmt.Sprintf("invalid %s distribution: %s", e.Variant, e.Reason)
}

// InvalidSelectionError reports an advisory asset selection whose shape does
// not match the requested distribution.
type InvalidSelectionError struct {
	Variant Variant
	Segment Segment
	Reason  string
}

func (e *InvalidSelectionError) Error() string {
	switch {
	case e.Segment != "":
		return fmt.Sprintf("invalid %s asset selection for %s: %s", e.Variant, e.Segment, e.Reason)
	case e.Variant != "":
		return fmt.Sprintf("invalid %s asset selection: %s", e.Variant, e.Reason)
	default:
		return "invalid asset selection: " + e.Reason
	}
}
