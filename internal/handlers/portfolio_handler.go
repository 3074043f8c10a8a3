package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/services"
)

// PortfolioHandler exposes the portfolio allocation pipeline
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService services.PortfolioServicer, auditService services.AuditServicer) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		auditService:     auditService,
	}
}

// ObjectiveRequest names the objective to act on. An empty ID selects the latest objective.
type ObjectiveRequest struct {
	ObjectiveID string `json:"objective_id" binding:"omitempty,uuid"`
}

// GenerateAssetsRequest represents the request body for asset generation
type GenerateAssetsRequest struct {
	ObjectiveID  string                   `json:"objective_id" binding:"omitempty,uuid"`
	Distribution *allocation.Distribution `json:"distribution"`
	Variant      string                   `json:"variant" binding:"required,variant_target" enums:"conservative,aggressive,both"`
}

// SelectionRequest represents the request body for confirming a variant
type SelectionRequest struct {
	ObjectiveID string `json:"objective_id" binding:"omitempty,uuid"`
	Variant     string `json:"variant" binding:"required,variant" enums:"conservative,aggressive"`
}

// ChatRequest represents a question about the confirmed portfolio
type ChatRequest struct {
	ObjectiveID string `json:"objective_id" binding:"omitempty,uuid"`
	Question    string `json:"question" binding:"required,max=1000" example:"Why does my portfolio hold real estate funds?"`
}

// bindOptionalJSON binds a JSON body when one is present.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return nil
}

// GenerateDistribution asks the advisory service for segment weights
// @Summary     Generate distribution
// @Description Generate conservative and aggressive segment weights for an objective. Replaces every stored allocation of the objective.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ObjectiveRequest false "Objective selector"
// @Success     200 {object} services.AllocationResult
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse "No objective recorded"
// @Failure     422 {object} ErrorResponse "Weights do not sum to 100"
// @Failure     502 {object} ErrorResponse "Malformed advisory response"
// @Failure     503 {object} ErrorResponse "Advisory service unavailable"
// @Router      /portfolios/distribution [post]
func (h *PortfolioHandler) GenerateDistribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ObjectiveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.portfolioService.GenerateDistribution(c.Request.Context(), userID, req.ObjectiveID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateAssets selects tickers and computes share quantities
// @Summary     Generate assets
// @Description Select tickers for the requested variants, price them and allocate whole shares. Uses the stored distribution unless one is supplied.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body GenerateAssetsRequest true "Asset generation request"
// @Success     200 {object} services.AllocationResult
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse "Stored weights changed during generation"
// @Failure     422 {object} ErrorResponse
// @Failure     502 {object} ErrorResponse
// @Failure     503 {object} ErrorResponse
// @Router      /portfolios/assets [post]
func (h *PortfolioHandler) GenerateAssets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req GenerateAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.portfolioService.GenerateAssets(c.Request.Context(), userID, req.ObjectiveID, req.Distribution, req.Variant)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Regenerate runs the full pipeline for both variants
// @Summary     Regenerate portfolios
// @Description Generate a distribution and assets for both variants and store them in a single replacement.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ObjectiveRequest false "Objective selector"
// @Success     200 {object} services.AllocationResult
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     422 {object} ErrorResponse
// @Failure     502 {object} ErrorResponse
// @Failure     503 {object} ErrorResponse
// @Router      /portfolios/generate [post]
func (h *PortfolioHandler) Regenerate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ObjectiveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.portfolioService.Regenerate(c.Request.Context(), userID, req.ObjectiveID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionRegenerate, services.AuditResourceObjective, result.ObjectiveID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, result)
}

// GetAllocation returns the stored allocation of a variant
// @Summary     Get allocation
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       variant      query string true  "Portfolio variant" Enums(conservative, aggressive)
// @Param       objective_id query string false "Objective ID (defaults to latest)"
// @Success     200 {object} services.VariantAllocation
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /portfolios/allocation [get]
func (h *PortfolioHandler) GetAllocation(c *gin.Context) {
	userID, objectiveID, ok := h.objectiveScope(c)
	if !ok {
		return
	}

	variant, err := parseVariantQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.portfolioService.GetAllocation(c.Request.Context(), userID, objectiveID, variant)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmSelection records the variant the investor chose
// @Summary     Confirm selection
// @Description Persist the chosen variant and snapshot its tickers. Confirming again overwrites the previous choice.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SelectionRequest true "Selection"
// @Success     200 {object} object{selection=models.SelectedPortfolio}
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse "No allocation stored for the variant"
// @Router      /portfolios/selection [post]
func (h *PortfolioHandler) ConfirmSelection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	selection, err := h.portfolioService.PersistSelection(c.Request.Context(), userID, req.ObjectiveID, allocation.Variant(req.Variant))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionConfirmSelection, services.AuditResourceSelection, selection.ID, c.ClientIP(),
		map[string]interface{}{"objective_id": selection.ObjectiveID, "variant": selection.SelectedVariant})

	c.JSON(http.StatusOK, gin.H{"selection": selection})
}

// GetSelection returns the confirmed variant
// @Summary     Get selection
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       objective_id query string false "Objective ID (defaults to latest)"
// @Success     200 {object} object{selection=models.SelectedPortfolio}
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse "No variant confirmed"
// @Router      /portfolios/selection [get]
func (h *PortfolioHandler) GetSelection(c *gin.Context) {
	userID, objectiveID, ok := h.objectiveScope(c)
	if !ok {
		return
	}

	selection, err := h.portfolioService.GetSelection(c.Request.Context(), userID, objectiveID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": selection})
}

// GetSimulation projects the stored allocation of a variant over the objective horizon
// @Summary     Get simulation
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       variant      query string true  "Portfolio variant" Enums(conservative, aggressive)
// @Param       objective_id query string false "Objective ID (defaults to latest)"
// @Success     200 {object} services.Simulation
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /portfolios/simulation [get]
func (h *PortfolioHandler) GetSimulation(c *gin.Context) {
	userID, objectiveID, ok := h.objectiveScope(c)
	if !ok {
		return
	}

	variant, err := parseVariantQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	simulation, err := h.portfolioService.Simulate(c.Request.Context(), userID, objectiveID, variant)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, simulation)
}

// DeleteSimulation removes every allocation and the selection of an objective
// @Summary     Delete simulation
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       objective_id query string false "Objective ID (defaults to latest)"
// @Success     204
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /portfolios/simulation [delete]
func (h *PortfolioHandler) DeleteSimulation(c *gin.Context) {
	userID, objectiveID, ok := h.objectiveScope(c)
	if !ok {
		return
	}

	if err := h.portfolioService.DeleteSimulation(c.Request.Context(), userID, objectiveID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteSimulation, services.AuditResourceObjective, objectiveID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// objectiveScope reads the authenticated user and the optional objective_id
// query parameter, writing an error response when either is invalid.
func (h *PortfolioHandler) objectiveScope(c *gin.Context) (string, string, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	objectiveID, err := parseObjectiveID(c.Query("objective_id"))
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	return userID, objectiveID, true
}

// Explain answers a question about the confirmed portfolio
// @Summary     Ask about the portfolio
// @Description Ask the advisory service to explain the confirmed portfolio of an objective.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChatRequest true "Question"
// @Success     200 {object} services.Explanation
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse "No objective or no confirmed portfolio"
// @Failure     502 {object} ErrorResponse "Malformed advisory response"
// @Failure     503 {object} ErrorResponse "Advisory service unavailable"
// @Router      /portfolios/chat [post]
func (h *PortfolioHandler) Explain(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	explanation, err := h.portfolioService.Explain(c.Request.Context(), userID, req.ObjectiveID, req.Question)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, explanation)
}
