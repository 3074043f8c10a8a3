package allocation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Profile is the part of an investor objective the advisory prompts embed.
type Profile struct {
	Goal                string
	Horizon             int
	Liquidity           string
	InitialCapital      decimal.Decimal
	MonthlyContribution decimal.Decimal
	NetWorth            decimal.Decimal
	ExcludedSectors     []string
}

const distributionPromptTemplate = `You are a financial assistant computing the ideal percentage split of an investment across these segments:

- fixed_income
- equities
- real_estate_funds
- crypto

Consider the profile and financial capacity of this investor:

- Goal: %s
- Horizon (months): %d
- Liquidity preference: %s
- Initial capital: %s
- Monthly contribution: %s
- Current net worth: %s

Produce TWO portfolios:
- "conservative": focused on safety, liquidity and capital preservation.
- "aggressive": focused on growth with higher risk exposure.

Split capital across the segments following personal finance principles:
- risk capacity relative to the amount invested and current net worth
- liquidity needs (short horizons favour fixed_income)
- diversification potential (avoid too many assets in small portfolios)

Rules:
- Every weight is a whole number and each portfolio sums to exactly 100.
- Omit segments that the profile does not warrant (0%%).
- Answer ONLY with JSON, no explanations, using exactly these keys:

{
  "conservative": {"fixed_income": 0, "equities": 0, "real_estate_funds": 0, "crypto": 0},
  "aggressive": {"fixed_income": 0, "equities": 0, "real_estate_funds": 0, "crypto": 0}
}`

// DistributionPrompt builds the prompt asking for conservative and aggressive weights.
func DistributionPrompt(p Profile) string {
	return fmt.Sprintf(distributionPromptTemplate,
		p.Goal,
		p.Horizon,
		p.Liquidity,
		p.InitialCapital.StringFixed(2),
		p.MonthlyContribution.StringFixed(2),
		p.NetWorth.StringFixed(2),
	)
}

const assetPromptTemplate = `You are a financial assistant that builds diversified, equally valid portfolios for investment profiles.

Based on this segment distribution:

%s

And on this investor:
- Goal: %s
- Horizon (months): %d
- Initial capital: %s
- Monthly contribution: %s
- Current net worth: %s
- Liquidity preference: %s
- Sectors to avoid: %s

Pick the instruments for the %s.

Choose the number of instruments per segment from the investor's profile, following diversification,
horizon fit and risk tolerance.

Mandatory rules:
- Do NOT include instruments from the sectors to avoid.
- Omit segments weighted at 0%%.
- Every weighted segment must have a list, even if empty.
- Tickers must be written exactly as traded on the exchange, e.g. "PETR4", "BOVA11", "KNRI11".

Answer ONLY with valid JSON in this format, without comments:

{
  "portfolio": {
%s
  }
}`

// AssetPrompt builds the prompt asking for ticker lists per segment for the
// requested variants.
func AssetPrompt(p Profile, d Distribution, variants []Variant) (string, error) {
	requested := make(map[Variant]Weights, len(variants))
	names := make([]string, 0, len(variants))
	shapes := make([]string, 0, len(variants))
	for _, v := range variants {
		requested[v] = d.For(v)
		names = append(names, string(v))
		shapes = append(shapes, fmt.Sprintf(`    %q: {"fixed_income": [...], "equities": [...], "real_estate_funds": [...], "crypto": [...]}`, v))
	}
	distJSON, err := json.MarshalIndent(requested, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding distribution: %w", err)
	}

	excluded := "none"
	if len(p.ExcludedSectors) > 0 {
		excluded = strings.Join(p.ExcludedSectors, ", ")
	}

	portfolios := strings.Join(names, " and ") + " portfolio"
	if len(variants) > 1 {
		portfolios += "s"
	}

	return fmt.Sprintf(assetPromptTemplate,
		distJSON,
		p.Goal,
		p.Horizon,
		p.InitialCapital.StringFixed(2),
		p.MonthlyContribution.StringFixed(2),
		p.NetWorth.StringFixed(2),
		p.Liquidity,
		excluded,
		portfolios,
		strings.Join(shapes, ",\n"),
	), nil
}

const explanationPromptTemplate = `You are a financial assistant explaining an investment portfolio to the investor who chose it.

Investor:
- Goal: %s
- Horizon (months): %d
- Initial capital: %s
- Monthly contribution: %s
- Current net worth: %s
- Liquidity preference: %s

Confirmed portfolio (%s), instruments per segment:

%s

Investor question:
%s

Answer in plain language for a non-specialist, grounded on the portfolio above. Do not recommend
instruments outside it.

Answer ONLY with valid JSON in this format:

{"explanation": "..."}`

// ExplanationResponse is the advisory reply to an investor question.
type ExplanationResponse struct {
	Explanation string `json:"explanation"`
}

// ExplanationPrompt builds the prompt answering question about the
// confirmed variant v and its ticker lists.
func ExplanationPrompt(p Profile, v Variant, lists AssetLists, question string) (string, error) {
	if lists == nil {
		lists = AssetLists{}
	}
	listsJSON, err := json.MarshalIndent(lists, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding asset lists: %w", err)
	}
	return fmt.Sprintf(explanationPromptTemplate,
		p.Goal,
		p.Horizon,
		p.InitialCapital.StringFixed(2),
		p.MonthlyContribution.StringFixed(2),
		p.NetWorth.StringFixed(2),
		p.Liquidity,
		v,
		listsJSON,
		question,
	), nil
}
