package services

import (
	"context"
	"errors"
	"strings"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/metrics"
	"wealthplan/internal/models"
)

// Explainer answers investor questions about a confirmed portfolio.
type Explainer struct {
	advisor Advisor
	metrics *metrics.Pipeline
}

// NewExplainer creates an Explainer. m may be nil.
func NewExplainer(advisor Advisor, m *metrics.Pipeline) *Explainer {
	return &Explainer{advisor: advisor, metrics: m}
}

// Explain asks the advisory service to answer question about the selected
// variant of objective, using the ticker lists frozen at confirmation.
func (e *Explainer) Explain(ctx context.Context, objective *models.Objective, selection *models.SelectedPortfolio, question string) (string, error) {
	variant := selection.SelectedVariant
	prompt, err := allocation.ExplanationPrompt(profileOf(objective), variant, selection.Snapshot(variant), question)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var resp allocation.ExplanationResponse
	if err := e.advisor.Invoke(ctx, prompt, &resp); err != nil {
		e.metrics.AdvisoryCall(stageExplanation, "error")
		return "", advisoryError(stageExplanation, objective.ID, err)
	}

	answer := strings.TrimSpace(resp.Explanation)
	if answer == "" {
		e.metrics.AdvisoryCall(stageExplanation, "invalid")
		return "", apperrors.Wrap(apperrors.ErrMalformedAdvisoryResponse, errors.New("empty explanation"))
	}

	e.metrics.AdvisoryCall(stageExplanation, "ok")
	return answer, nil
}
