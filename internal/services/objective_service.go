package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/models"
	"wealthplan/internal/pagination"
)

// objectiveService stores investment objectives.
type objectiveService struct {
	db *gorm.DB
}

// NewObjectiveService creates a new ObjectiveServicer.
func NewObjectiveService(db *gorm.DB) ObjectiveServicer {
	return &objectiveService{db: db}
}

// CreateObjective validates and stores a new objective for userID.
func (s *objectiveService) CreateObjective(userID string, in ObjectiveInput) (*models.Objective, error) {
	goal := strings.TrimSpace(in.Goal)
	switch {
	case goal == "":
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal is required")
	case in.HorizonMonths < 1:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "horizon must be at least one month")
	case in.InitialCapital.IsNegative(), in.MonthlyContribution.IsNegative(), in.NetWorth.IsNegative():
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monetary amounts must not be negative")
	}

	sectors := make([]string, 0, len(in.ExcludedSectors))
	for _, sector := range in.ExcludedSectors {
		if sector = strings.TrimSpace(sector); sector != "" {
			sectors = append(sectors, sector)
		}
	}

	objective := &models.Objective{
		UserID:              userID,
		Goal:                goal,
		HorizonMonths:       in.HorizonMonths,
		InitialCapital:      in.InitialCapital,
		MonthlyContribution: in.MonthlyContribution,
		NetWorth:            in.NetWorth,
		Liquidity:           strings.TrimSpace(in.Liquidity),
		ExcludedSectors:     sectors,
	}
	if err := s.db.Create(objective).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return objective, nil
}

// GetLatestObjective returns the most recently created objective of userID.
func (s *objectiveService) GetLatestObjective(userID string) (*models.Objective, error) {
	var objective models.Objective
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").First(&objective).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoObjectiveFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &objective, nil
}

// GetObjective returns objectiveID if it belongs to userID.
func (s *objectiveService) GetObjective(userID, objectiveID string) (*models.Objective, error) {
	var objective models.Objective
	if err := s.db.Where("id = ? AND user_id = ?", objectiveID, userID).First(&objective).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoObjectiveFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &objective, nil
}

// ListObjectives returns one page of userID's objectives, newest first.
func (s *objectiveService) ListObjectives(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Objective], error) {
	query := s.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	result, err := pagination.Find[models.Objective](query, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ResolveObjective returns objectiveID, or the latest objective when it is empty.
func (s *objectiveService) ResolveObjective(userID, objectiveID string) (*models.Objective, error) {
	if objectiveID == "" {
		return s.GetLatestObjective(userID)
	}
	return s.GetObjective(userID, objectiveID)
}
