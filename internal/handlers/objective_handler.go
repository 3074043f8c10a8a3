package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/pagination"
	"wealthplan/internal/services"
)

// ObjectiveHandler handles investment objective requests
type ObjectiveHandler struct {
	objectiveService services.ObjectiveServicer
	auditService     services.AuditServicer
}

// NewObjectiveHandler creates a new ObjectiveHandler
func NewObjectiveHandler(objectiveService services.ObjectiveServicer, auditService services.AuditServicer) *ObjectiveHandler {
	return &ObjectiveHandler{
		objectiveService: objectiveService,
		auditService:     auditService,
	}
}

// CreateObjectiveRequest represents the request body for recording an objective
type CreateObjectiveRequest struct {
	Goal                string          `json:"goal" binding:"required,max=500"`
	HorizonMonths       int             `json:"horizon_months" binding:"required,min=1,max=600"`
	InitialCapital      decimal.Decimal `json:"initial_capital" swaggertype:"string" example:"10000.00"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution" swaggertype:"string" example:"500.00"`
	NetWorth            decimal.Decimal `json:"net_worth" swaggertype:"string" example:"50000.00"`
	Liquidity           string          `json:"liquidity" binding:"required,liquidity,max=100"`
	ExcludedSectors     []string        `json:"excluded_sectors" binding:"max=20,dive,max=100"`
}

// CreateObjective records a new investment objective
// @Summary     Create objective
// @Description Record a new investment objective. Pipeline operations use the most recent one by default.
// @Tags        objectives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateObjectiveRequest true "Objective data"
// @Success     201 {object} object{objective=models.Objective}
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /objectives [post]
func (h *ObjectiveHandler) CreateObjective(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	objective, err := h.objectiveService.CreateObjective(userID, services.ObjectiveInput{
		Goal:                req.Goal,
		HorizonMonths:       req.HorizonMonths,
		InitialCapital:      req.InitialCapital,
		MonthlyContribution: req.MonthlyContribution,
		NetWorth:            req.NetWorth,
		Liquidity:           req.Liquidity,
		ExcludedSectors:     req.ExcludedSectors,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreateObjective, services.AuditResourceObjective, objective.ID, c.ClientIP(),
		map[string]interface{}{"goal": objective.Goal, "horizon_months": objective.HorizonMonths})

	c.JSON(http.StatusCreated, gin.H{"objective": objective})
}

// GetLatestObjective returns the user's most recent objective
// @Summary     Get latest objective
// @Tags        objectives
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} object{objective=models.Objective}
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse "No objective recorded"
// @Router      /objectives/latest [get]
func (h *ObjectiveHandler) GetLatestObjective(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	objective, err := h.objectiveService.GetLatestObjective(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objective": objective})
}

// ListObjectives returns the user's objectives, newest first
// @Summary     List objectives
// @Tags        objectives
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Objective]
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Router      /objectives/history [get]
func (h *ObjectiveHandler) ListObjectives(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	objectives, err := h.objectiveService.ListObjectives(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, objectives)
}

// GetObjective returns a single objective by ID
// @Summary     Get objective
// @Tags        objectives
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Objective ID"
// @Success     200 {object} object{objective=models.Objective}
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /objectives/{id} [get]
func (h *ObjectiveHandler) GetObjective(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	objectiveID, err := parseObjectiveID(c.Param("id"))
	if err != nil || objectiveID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid objective ID"))
		return
	}

	objective, err := h.objectiveService.GetObjective(userID, objectiveID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objective": objective})
}
