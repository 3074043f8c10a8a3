package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/models"
	"wealthplan/internal/services"
)

type mockPortfolioService struct {
	generateDistributionFn func(ctx context.Context, userID, objectiveID string) (*services.AllocationResult, error)
	generateAssetsFn       func(ctx context.Context, userID, objectiveID string, d *allocation.Distribution, target string) (*services.AllocationResult, error)
	regenerateFn           func(ctx context.Context, userID, objectiveID string) (*services.AllocationResult, error)
	getAllocationFn        func(ctx context.Context, userID, objectiveID string, v allocation.Variant) (*services.VariantAllocation, error)
	persistSelectionFn     func(ctx context.Context, userID, objectiveID string, v allocation.Variant) (*models.SelectedPortfolio, error)
	getSelectionFn         func(ctx context.Context, userID, objectiveID string) (*models.SelectedPortfolio, error)
	simulateFn             func(ctx context.Context, userID, objectiveID string, v allocation.Variant) (*services.Simulation, error)
	deleteSimulationFn     func(ctx context.Context, userID, objectiveID string) error
	explainFn              func(ctx context.Context, userID, objectiveID, question string) (*services.Explanation, error)
}

var _ services.PortfolioServicer = (*mockPortfolioService)(nil)

func (m *mockPortfolioService) GenerateDistribution(ctx context.Context, userID, objectiveID string) (*services.AllocationResult, error) {
	if m.generateDistributionFn != nil {
		return m.generateDistributionFn(ctx, userID, objectiveID)
	}
	return &services.AllocationResult{ObjectiveID: testObjectiveID}, nil
}

func (m *mockPortfolioService) GenerateAssets(ctx context.Context, userID, objectiveID string, d *allocation.Distribution, target string) (*services.AllocationResult, error) {
	if m.generateAssetsFn != nil {
		return m.generateAssetsFn(ctx, userID, objectiveID, d, target)
	}
	return &services.AllocationResult{ObjectiveID: testObjectiveID}, nil
}

func (m *mockPortfolioService) Regenerate(ctx context.Context, userID, objectiveID string) (*services.AllocationResult, error) {
	if m.regenerateFn != nil {
		return m.regenerateFn(ctx, userID, objectiveID)
	}
	return &services.AllocationResult{ObjectiveID: testObjectiveID}, nil
}

func (m *mockPortfolioService) GetAllocation(ctx context.Context, userID, objectiveID string, v allocation.Variant) (*services.VariantAllocation, error) {
	if m.getAllocationFn != nil {
		return m.getAllocationFn(ctx, userID, objectiveID, v)
	}
	return &services.VariantAllocation{ObjectiveID: testObjectiveID, Variant: v}, nil
}

func (m *mockPortfolioService) PersistSelection(ctx context.Context, userID, objectiveID string, v allocation.Variant) (*models.SelectedPortfolio, error) {
	if m.persistSelectionFn != nil {
		return m.persistSelectionFn(ctx, userID, objectiveID, v)
	}
	return &models.SelectedPortfolio{ObjectiveID: testObjectiveID, SelectedVariant: v}, nil
}

func (m *mockPortfolioService) GetSelection(ctx context.Context, userID, objectiveID string) (*models.SelectedPortfolio, error) {
	if m.getSelectionFn != nil {
		return m.getSelectionFn(ctx, userID, objectiveID)
	}
	return &models.SelectedPortfolio{ObjectiveID: testObjectiveID}, nil
}

func (m *mockPortfolioService) Simulate(ctx context.Context, userID, objectiveID string, v allocation.Variant) (*services.Simulation, error) {
	if m.simulateFn != nil {
		return m.simulateFn(ctx, userID, objectiveID, v)
	}
	return &services.Simulation{Variant: v}, nil
}

func (m *mockPortfolioService) DeleteSimulation(ctx context.Context, userID, objectiveID string) error {
	if m.deleteSimulationFn != nil {
		return m.deleteSimulationFn(ctx, userID, objectiveID)
	}
	return nil
}

func (m *mockPortfolioService) Explain(ctx context.Context, userID, objectiveID, question string) (*services.Explanation, error) {
	if m.explainFn != nil {
		return m.explainFn(ctx, userID, objectiveID, question)
	}
	return &services.Explanation{ObjectiveID: testObjectiveID, Question: question}, nil
}

func setupPortfolioRouter(handler *PortfolioHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/portfolios", injectUserID(testUserID))
	g.POST("/distribution", handler.GenerateDistribution)
	g.POST("/assets", handler.GenerateAssets)
	g.POST("/generate", handler.Regenerate)
	g.GET("/allocation", handler.GetAllocation)
	g.POST("/selection", handler.ConfirmSelection)
	g.GET("/selection", handler.GetSelection)
	g.GET("/simulation", handler.GetSimulation)
	g.DELETE("/simulation", handler.DeleteSimulation)
	g.POST("/chat", handler.Explain)
	return r
}

func TestPortfolioHandler_GenerateDistribution(t *testing.T) {
	t.Run("accepts an empty body and targets the latest objective", func(t *testing.T) {
		objectiveArg := "unset"
		svc := &mockPortfolioService{
			generateDistributionFn: func(_ context.Context, userID, objectiveID string) (*services.AllocationResult, error) {
				objectiveArg = objectiveID
				return &services.AllocationResult{
					ObjectiveID: testObjectiveID,
					Distribution: allocation.Distribution{
						Conservative: allocation.Weights{allocation.SegmentFixedIncome: 70, allocation.SegmentEquities: 30},
						Aggressive:   allocation.Weights{allocation.SegmentEquities: 80, allocation.SegmentCrypto: 20},
					},
				}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/distribution", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if objectiveArg != "" {
			t.Errorf("expected empty objective id, got %q", objectiveArg)
		}
		d := parseJSON(t, rec)["distribution"].(map[string]interface{})
		conservative := d["conservative"].(map[string]interface{})
		if conservative["fixed_income"] != float64(70) {
			t.Errorf("expected fixed_income 70, got %v", conservative["fixed_income"])
		}
	})

	t.Run("returns 400 on malformed objective id", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/distribution", `{"objective_id":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"advisory unavailable", apperrors.ErrAdvisoryUnavailable, http.StatusServiceUnavailable, "ADVISORY_UNAVAILABLE"},
		{"malformed advisory response", apperrors.ErrMalformedAdvisoryResponse, http.StatusBadGateway, "MALFORMED_ADVISORY_RESPONSE"},
		{"invalid distribution", apperrors.ErrInvalidDistribution, http.StatusUnprocessableEntity, "INVALID_DISTRIBUTION"},
		{"no objective", apperrors.ErrNoObjectiveFound, http.StatusNotFound, "NO_OBJECTIVE_FOUND"},
	}
	for _, tc := range errorCases {
		t.Run("maps "+tc.name, func(t *testing.T) {
			svc := &mockPortfolioService{
				generateDistributionFn: func(context.Context, string, string) (*services.AllocationResult, error) {
					return nil, tc.err
				},
			}
			r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/portfolios/distribution", `{"objective_id":"`+testObjectiveID+`"}`)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tc.code)
		})
	}
}

func TestPortfolioHandler_GenerateAssets(t *testing.T) {
	t.Run("passes the supplied distribution and target", func(t *testing.T) {
		var gotTarget string
		var gotDistribution *allocation.Distribution
		svc := &mockPortfolioService{
			generateAssetsFn: func(_ context.Context, _, _ string, d *allocation.Distribution, target string) (*services.AllocationResult, error) {
				gotTarget = target
				gotDistribution = d
				return &services.AllocationResult{ObjectiveID: testObjectiveID}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/assets",
			`{"variant":"aggressive","distribution":{"aggressive":{"equities":50,"real_estate_funds":30,"crypto":20}}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotTarget != "aggressive" {
			t.Errorf("expected target aggressive, got %q", gotTarget)
		}
		if gotDistribution == nil || gotDistribution.Aggressive[allocation.SegmentEquities] != 50 {
			t.Errorf("distribution not passed through: %+v", gotDistribution)
		}
	})

	t.Run("returns 409 when stored weights changed mid-run", func(t *testing.T) {
		svc := &mockPortfolioService{
			generateAssetsFn: func(_ context.Context, _, _ string, _ *allocation.Distribution, _ string) (*services.AllocationResult, error) {
				return nil, apperrors.ErrAllocationConflict
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/assets", `{"variant":"both"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALLOCATION_CONFLICT")
	})

	t.Run("uses the stored distribution when none is supplied", func(t *testing.T) {
		called := false
		svc := &mockPortfolioService{
			generateAssetsFn: func(_ context.Context, _, _ string, d *allocation.Distribution, target string) (*services.AllocationResult, error) {
				called = true
				if d != nil {
					t.Errorf("expected nil distribution, got %+v", d)
				}
				if target != allocation.TargetBoth {
					t.Errorf("expected target both, got %q", target)
				}
				return &services.AllocationResult{ObjectiveID: testObjectiveID}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/assets", `{"variant":"both"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("service was not called")
		}
	})

	t.Run("returns 400 on unknown variant", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/assets", `{"variant":"reckless"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on fractional weights", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/assets",
			`{"variant":"conservative","distribution":{"conservative":{"fixed_income":50.5,"equities":49.5}}}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPortfolioHandler_Regenerate(t *testing.T) {
	audit := &mockAuditService{}
	r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, audit))

	rec := doRequest(r, "POST", "/portfolios/generate", `{"objective_id":"`+testObjectiveID+`"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != services.AuditActionRegenerate {
		t.Errorf("expected one %s audit entry, got %v", services.AuditActionRegenerate, actions)
	}
}

func TestPortfolioHandler_GetAllocation(t *testing.T) {
	t.Run("requires a variant", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/portfolios/allocation", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns the stored allocation", func(t *testing.T) {
		svc := &mockPortfolioService{
			getAllocationFn: func(_ context.Context, _, objectiveID string, v allocation.Variant) (*services.VariantAllocation, error) {
				if objectiveID != testObjectiveID {
					t.Errorf("expected objective %s, got %s", testObjectiveID, objectiveID)
				}
				return &services.VariantAllocation{
					ObjectiveID: objectiveID,
					Variant:     v,
					Percentages: allocation.Weights{allocation.SegmentEquities: 100},
					Assets: allocation.Holdings{allocation.SegmentEquities: {
						{Ticker: "PETR4", Price: decimal.RequireFromString("38.50"), Quantity: 259},
					}},
				}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/portfolios/allocation?variant=aggressive&objective_id="+testObjectiveID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["variant"] != "aggressive" {
			t.Errorf("expected variant aggressive, got %v", result["variant"])
		}
		equities := result["assets"].(map[string]interface{})["equities"].([]interface{})
		holding := equities[0].(map[string]interface{})
		if holding["quantity"] != float64(259) {
			t.Errorf("expected quantity 259, got %v", holding["quantity"])
		}
	})
}

func TestPortfolioHandler_Selection(t *testing.T) {
	t.Run("confirms and audits a variant", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, audit))

		rec := doRequest(r, "POST", "/portfolios/selection", `{"variant":"conservative"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		selection := parseJSON(t, rec)["selection"].(map[string]interface{})
		if selection["selected_variant"] != "conservative" {
			t.Errorf("expected conservative, got %v", selection["selected_variant"])
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != services.AuditActionConfirmSelection {
			t.Errorf("expected one %s audit entry, got %v", services.AuditActionConfirmSelection, actions)
		}
	})

	t.Run("rejects the both target", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/selection", `{"variant":"both"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when the variant has no allocation", func(t *testing.T) {
		svc := &mockPortfolioService{
			persistSelectionFn: func(context.Context, string, string, allocation.Variant) (*models.SelectedPortfolio, error) {
				return nil, apperrors.ErrAllocationNotFound
			},
		}
		audit := &mockAuditService{}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, audit))

		rec := doRequest(r, "POST", "/portfolios/selection", `{"variant":"aggressive"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALLOCATION_NOT_FOUND")
		if len(audit.actions()) != 0 {
			t.Error("failed confirmation must not be audited")
		}
	})

	t.Run("returns 404 when nothing was confirmed", func(t *testing.T) {
		svc := &mockPortfolioService{
			getSelectionFn: func(context.Context, string, string) (*models.SelectedPortfolio, error) {
				return nil, apperrors.ErrNoSelectionFound
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/portfolios/selection", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NO_SELECTION_FOUND")
	})
}

func TestPortfolioHandler_Simulation(t *testing.T) {
	t.Run("returns the projection", func(t *testing.T) {
		svc := &mockPortfolioService{
			simulateFn: func(_ context.Context, _, _ string, v allocation.Variant) (*services.Simulation, error) {
				return &services.Simulation{
					Variant: v,
					Series:  services.LinearProjection(decimal.NewFromInt(1000), decimal.NewFromInt(100), 3),
				}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/portfolios/simulation?variant=conservative", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		series := parseJSON(t, rec)["series"].([]interface{})
		if len(series) != 3 {
			t.Fatalf("expected 3 points, got %d", len(series))
		}
		last := series[2].(map[string]interface{})
		if last["value"] != "1300" {
			t.Errorf("expected final value 1300, got %v", last["value"])
		}
	})

	t.Run("deletes and audits", func(t *testing.T) {
		deleted := ""
		svc := &mockPortfolioService{
			deleteSimulationFn: func(_ context.Context, _, objectiveID string) error {
				deleted = objectiveID
				return nil
			},
		}
		audit := &mockAuditService{}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, audit))

		rec := doRequest(r, "DELETE", "/portfolios/simulation?objective_id="+testObjectiveID, "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if deleted != testObjectiveID {
			t.Errorf("expected %s deleted, got %q", testObjectiveID, deleted)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != services.AuditActionDeleteSimulation {
			t.Errorf("expected one %s audit entry, got %v", services.AuditActionDeleteSimulation, actions)
		}
	})

	t.Run("rejects malformed objective id", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/portfolios/simulation?objective_id=42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPortfolioHandler_Explain(t *testing.T) {
	t.Run("returns the explanation", func(t *testing.T) {
		var gotObjective, gotQuestion string
		svc := &mockPortfolioService{
			explainFn: func(_ context.Context, userID, objectiveID, question string) (*services.Explanation, error) {
				if userID != testUserID {
					t.Errorf("expected user %s, got %s", testUserID, userID)
				}
				gotObjective, gotQuestion = objectiveID, question
				return &services.Explanation{
					ObjectiveID: testObjectiveID,
					Variant:     allocation.VariantConservative,
					Question:    question,
					Explanation: "Fixed income keeps the portfolio liquid.",
				}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/chat",
			`{"objective_id":"`+testObjectiveID+`","question":"Why fixed income?"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotObjective != testObjectiveID || gotQuestion != "Why fixed income?" {
			t.Errorf("unexpected service call (%q, %q)", gotObjective, gotQuestion)
		}
		result := parseJSON(t, rec)
		if result["explanation"] != "Fixed income keeps the portfolio liquid." {
			t.Errorf("unexpected explanation %v", result["explanation"])
		}
		if result["variant"] != "conservative" {
			t.Errorf("expected variant conservative, got %v", result["variant"])
		}
	})

	t.Run("returns 400 without a question", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/portfolios/chat", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	for _, tc := range []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nothing confirmed", apperrors.ErrNoSelectionFound, http.StatusNotFound, "NO_SELECTION_FOUND"},
		{"advisory down", apperrors.ErrAdvisoryUnavailable, http.StatusServiceUnavailable, "ADVISORY_UNAVAILABLE"},
		{"unreadable reply", apperrors.ErrMalformedAdvisoryResponse, http.StatusBadGateway, "MALFORMED_ADVISORY_RESPONSE"},
	} {
		t.Run("maps "+tc.name, func(t *testing.T) {
			svc := &mockPortfolioService{
				explainFn: func(context.Context, string, string, string) (*services.Explanation, error) {
					return nil, tc.err
				},
			}
			r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/portfolios/chat", `{"question":"Is this safe?"}`)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tc.code)
		})
	}
}
