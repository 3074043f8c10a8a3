package services

import (
	"context"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/logger"
	"wealthplan/internal/metrics"
	"wealthplan/internal/models"
)

// AssetSelector asks the advisory service for concrete tickers per segment.
type AssetSelector struct {
	advisor Advisor
	metrics *metrics.Pipeline
}

// NewAssetSelector creates an AssetSelector. m may be nil.
func NewAssetSelector(advisor Advisor, m *metrics.Pipeline) *AssetSelector {
	return &AssetSelector{advisor: advisor, metrics: m}
}

// Select returns normalized ticker lists for each requested variant, shaped
// after the weights in d.
func (s *AssetSelector) Select(ctx context.Context, objective *models.Objective, d allocation.Distribution, variants []allocation.Variant) (allocation.Selection, error) {
	prompt, err := allocation.AssetPrompt(profileOf(objective), d, variants)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var resp allocation.SelectionResponse
	if err := s.advisor.Invoke(ctx, prompt, &resp); err != nil {
		s.metrics.AdvisoryCall(stageAssets, "error")
		return nil, advisoryError(stageAssets, objective.ID, err)
	}

	sel, err := resp.Selection(d, variants)
	if err != nil {
		s.metrics.AdvisoryCall(stageAssets, "invalid")
		logger.Get().Warnw("advisory asset selection rejected",
			"objective_id", objective.ID,
			"error", err.Error(),
		)
		return nil, apperrors.WrapWithMessage(apperrors.ErrInvalidAssetSelection, err.Error(), err)
	}

	s.metrics.AdvisoryCall(stageAssets, "ok")
	return sel, nil
}
