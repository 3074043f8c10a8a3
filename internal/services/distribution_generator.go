package services

import (
	"context"
	"errors"

	"wealthplan/internal/advisory"
	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/logger"
	"wealthplan/internal/metrics"
	"wealthplan/internal/models"
)

// Advisor sends a prompt to the advisory service and decodes the reply into out.
type Advisor interface {
	Invoke(ctx context.Context, prompt string, out any) error
}

const (
	stageDistribution = "distribution"
	stageAssets       = "assets"
	stageExplanation  = "explanation"
)

// DistributionGenerator asks the advisory service for conservative and
// aggressive segment weights.
type DistributionGenerator struct {
	advisor Advisor
	metrics *metrics.Pipeline
}

// NewDistributionGenerator creates a DistributionGenerator. m may be nil.
func NewDistributionGenerator(advisor Advisor, m *metrics.Pipeline) *DistributionGenerator {
	return &DistributionGenerator{advisor: advisor, metrics: m}
}

// Generate returns validated weights for both variants. Weights that do not
// sum to exactly 100 are rejected with ErrInvalidDistribution.
func (g *DistributionGenerator) Generate(ctx context.Context, objective *models.Objective) (allocation.Distribution, error) {
	var resp allocation.DistributionResponse
	if err := g.advisor.Invoke(ctx, allocation.DistributionPrompt(profileOf(objective)), &resp); err != nil {
		g.metrics.AdvisoryCall(stageDistribution, "error")
		return allocation.Distribution{}, advisoryError(stageDistribution, objective.ID, err)
	}

	d, err := resp.Distribution()
	if err != nil {
		g.metrics.AdvisoryCall(stageDistribution, "invalid")
		logger.Get().Warnw("advisory distribution rejected",
			"objective_id", objective.ID,
			"error", err.Error(),
		)
		return allocation.Distribution{}, apperrors.WrapWithMessage(apperrors.ErrInvalidDistribution, err.Error(), err)
	}

	g.metrics.AdvisoryCall(stageDistribution, "ok")
	return d, nil
}

// advisoryError maps advisory client failures to application errors.
func advisoryError(stage, objectiveID string, err error) error {
	var malformed *advisory.MalformedResponseError
	switch {
	case errors.As(err, &malformed):
		logger.Get().Errorw("malformed advisory response",
			"stage", stage,
			"objective_id", objectiveID,
			"error", malformed.Err.Error(),
			"raw", malformed.Raw,
		)
		return apperrors.Wrap(apperrors.ErrMalformedAdvisoryResponse, err)
	case errors.Is(err, advisory.ErrServiceUnavailable):
		logger.Get().Errorw("advisory service unavailable",
			"stage", stage,
			"objective_id", objectiveID,
			"error", err.Error(),
		)
		return apperrors.Wrap(apperrors.ErrAdvisoryUnavailable, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

func profileOf(o *models.Objective) allocation.Profile {
	return allocation.Profile{
		Goal:                o.Goal,
		Horizon:             o.HorizonMonths,
		Liquidity:           o.Liquidity,
		InitialCapital:      o.InitialCapital,
		MonthlyContribution: o.MonthlyContribution,
		NetWorth:            o.NetWorth,
		ExcludedSectors:     o.ExcludedSectors,
	}
}
