package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/logger"
	"wealthplan/internal/models"
)

// PriceResolver resolves unit prices for many tickers at once. Unpriced
// tickers map to zero.
type PriceResolver interface {
	ResolveAll(ctx context.Context, tickers []string) map[string]decimal.Decimal
}

// portfolioService runs the allocation pipeline: weights, tickers, share
// quantities, then a single replace-all write. A stage failure aborts the
// run before anything is written.
type portfolioService struct {
	objectives ObjectiveServicer
	generator  *DistributionGenerator
	selector   *AssetSelector
	explainer  *Explainer
	prices     PriceResolver
	store      AllocationStorer
	selections SelectionServicer
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(
	objectives ObjectiveServicer,
	generator *DistributionGenerator,
	selector *AssetSelector,
	explainer *Explainer,
	prices PriceResolver,
	store AllocationStorer,
	selections SelectionServicer,
) PortfolioServicer {
	return &portfolioService{
		objectives: objectives,
		generator:  generator,
		selector:   selector,
		explainer:  explainer,
		prices:     prices,
		store:      store,
		selections: selections,
	}
}

// GenerateDistribution replaces the stored weights of both variants. Stored
// assets are cleared because they were computed from the previous weights.
func (s *portfolioService) GenerateDistribution(ctx context.Context, userID, objectiveID string) (*AllocationResult, error) {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}

	d, err := s.generator.Generate(ctx, objective)
	if err != nil {
		return nil, err
	}

	set := AllocationSet{Distribution: d}
	if err := s.store.ReplaceAll(ctx, userID, objective.ID, set); err != nil {
		return nil, err
	}
	return resultOf(objective.ID, set), nil
}

// GenerateAssets selects tickers and computes quantities for the variants
// named by target. Rows of variants outside target are kept as stored when
// the write commits. Without an explicit distribution the stored weights are
// used, and the write fails with ErrAllocationConflict if they change while
// the advisory call runs.
func (s *portfolioService) GenerateAssets(ctx context.Context, userID, objectiveID string, distribution *allocation.Distribution, target string) (*AllocationResult, error) {
	variants, err := allocation.ParseTarget(target)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}

	var (
		d     allocation.Distribution
		basis *allocation.Distribution
	)
	if distribution != nil {
		for _, v := range variants {
			w := distribution.For(v).Compact()
			if err := allocation.ValidateWeights(v, w); err != nil {
				return nil, apperrors.WrapWithMessage(apperrors.ErrInvalidDistribution, err.Error(), err)
			}
			d.Set(v, w)
		}
	} else {
		stored, err := s.store.GetPercentages(ctx, userID, objective.ID)
		if err != nil {
			return nil, err
		}
		for _, v := range variants {
			if stored.For(v) == nil {
				return nil, apperrors.WithMessage(apperrors.ErrAllocationNotFound,
					"No "+string(v)+" distribution has been generated for this objective")
			}
			d.Set(v, stored.For(v))
		}
		basis = &stored
	}

	holdings, err := s.allocate(ctx, objective, d, variants)
	if err != nil {
		return nil, err
	}

	set, err := s.store.ReplaceVariants(ctx, userID, objective.ID, VariantReplacement{
		Variants:     variants,
		Distribution: d,
		Holdings:     holdings,
		Basis:        basis,
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("portfolio allocation stored",
		"objective_id", objective.ID,
		"variants", variants,
	)
	return resultOf(objective.ID, set), nil
}

// Regenerate runs the whole pipeline for both variants and writes once.
func (s *portfolioService) Regenerate(ctx context.Context, userID, objectiveID string) (*AllocationResult, error) {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}

	d, err := s.generator.Generate(ctx, objective)
	if err != nil {
		return nil, err
	}

	holdings, err := s.allocate(ctx, objective, d, allocation.Variants)
	if err != nil {
		return nil, err
	}

	set := AllocationSet{Distribution: d, Holdings: holdings}
	if err := s.store.ReplaceAll(ctx, userID, objective.ID, set); err != nil {
		return nil, err
	}

	logger.Get().Infow("portfolio allocation stored",
		"objective_id", objective.ID,
		"variants", allocation.Variants,
	)
	return resultOf(objective.ID, set), nil
}

// allocate selects tickers for variants, prices them and computes share
// quantities. Nothing is written.
func (s *portfolioService) allocate(
	ctx context.Context,
	objective *models.Objective,
	d allocation.Distribution,
	variants []allocation.Variant,
) (map[allocation.Variant]allocation.Holdings, error) {
	sel, err := s.selector.Select(ctx, objective, d, variants)
	if err != nil {
		return nil, err
	}

	prices := s.prices.ResolveAll(ctx, allocation.UnitizedTickers(sel))
	logger.Get().Debugw("tickers priced",
		"objective_id", objective.ID,
		"tickers_priced", countPriced(prices),
		"tickers_requested", len(prices),
	)

	holdings := make(map[allocation.Variant]allocation.Holdings, len(variants))
	for _, v := range variants {
		holdings[v] = allocation.AllocateVariant(objective.InitialCapital, d.For(v), sel[v], prices)
	}
	return holdings, nil
}

func countPriced(prices map[string]decimal.Decimal) int {
	n := 0
	for _, p := range prices {
		if p.IsPositive() {
			n++
		}
	}
	return n
}

func resultOf(objectiveID string, set AllocationSet) *AllocationResult {
	assets := set.Holdings
	if assets == nil {
		assets = map[allocation.Variant]allocation.Holdings{}
	}
	return &AllocationResult{ObjectiveID: objectiveID, Distribution: set.Distribution, Assets: assets}
}

// GetAllocation returns the stored weights and holdings of one variant.
func (s *portfolioService) GetAllocation(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*VariantAllocation, error) {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}
	return s.variantAllocation(ctx, objective, variant)
}

func (s *portfolioService) variantAllocation(ctx context.Context, objective *models.Objective, variant allocation.Variant) (*VariantAllocation, error) {
	w, holdings, err := s.store.GetVariant(ctx, objective.UserID, objective.ID, variant)
	if err != nil {
		return nil, err
	}
	return &VariantAllocation{ObjectiveID: objective.ID, Variant: variant, Percentages: w, Assets: holdings}, nil
}

// PersistSelection confirms variant for the objective.
func (s *portfolioService) PersistSelection(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*models.SelectedPortfolio, error) {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}
	return s.selections.Confirm(ctx, userID, objective.ID, variant)
}

// GetSelection returns the confirmed selection for the objective.
func (s *portfolioService) GetSelection(ctx context.Context, userID, objectiveID string) (*models.SelectedPortfolio, error) {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}
	return s.selections.View(ctx, userID, objective.ID)
}

// Simulate projects the objective's value month by month as initial capital
// plus accumulated contributions, without returns.
func (s *portfolioService) Simulate(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*Simulation, error) {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}
	va, err := s.variantAllocation(ctx, objective, variant)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		Objective:   objective,
		Variant:     variant,
		Percentages: va.Percentages,
		Assets:      va.Assets,
		Series:      LinearProjection(objective.InitialCapital, objective.MonthlyContribution, objective.HorizonMonths),
	}, nil
}

// LinearProjection returns initial + contribution*m for m = 1..months.
func LinearProjection(initial, contribution decimal.Decimal, months int) []SimulationPoint {
	if months < 0 {
		months = 0
	}
	series := make([]SimulationPoint, 0, months)
	for m := 1; m <= months; m++ {
		series = append(series, SimulationPoint{
			Month: m,
			Value: initial.Add(contribution.Mul(decimal.NewFromInt(int64(m)))),
		})
	}
	return series
}

// DeleteSimulation removes every allocation and the selection of the objective.
func (s *portfolioService) DeleteSimulation(ctx context.Context, userID, objectiveID string) error {
	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return err
	}
	return s.store.DeleteAll(ctx, userID, objective.ID)
}

// Explain answers question about the objective's confirmed portfolio.
func (s *portfolioService) Explain(ctx context.Context, userID, objectiveID, question string) (*Explanation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "question is required")
	}

	objective, err := s.objectives.ResolveObjective(userID, objectiveID)
	if err != nil {
		return nil, err
	}
	selection, err := s.selections.View(ctx, userID, objective.ID)
	if err != nil {
		return nil, err
	}

	answer, err := s.explainer.Explain(ctx, objective, selection, question)
	if err != nil {
		return nil, err
	}
	return &Explanation{
		ObjectiveID: objective.ID,
		Variant:     selection.SelectedVariant,
		Question:    question,
		Explanation: answer,
	}, nil
}
