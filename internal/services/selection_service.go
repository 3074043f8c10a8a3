package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/models"
)

// selectionService records the variant an investor confirmed per objective.
type selectionService struct {
	db    *gorm.DB
	store AllocationStorer
}

// NewSelectionService creates a new SelectionServicer.
func NewSelectionService(db *gorm.DB, store AllocationStorer) SelectionServicer {
	return &selectionService{db: db, store: store}
}

// Confirm marks variant as selected and freezes its current ticker lists.
// The snapshot of the other variant is left as previously stored.
func (s *selectionService) Confirm(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*models.SelectedPortfolio, error) {
	_, holdings, err := s.store.GetVariant(ctx, userID, objectiveID, variant)
	if err != nil {
		return nil, err
	}
	snapshot := allocation.AssetLists(holdings.Tickers())

	row := &models.SelectedPortfolio{
		UserID:          userID,
		ObjectiveID:     objectiveID,
		SelectedVariant: variant,
	}
	row.SetSnapshot(variant, snapshot)

	snapshotColumn := "conservative_snapshot"
	if variant == allocation.VariantAggressive {
		snapshotColumn = "aggressive_snapshot"
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "objective_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_variant", snapshotColumn, "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.View(ctx, userID, objectiveID)
}

// View returns the stored selection, or ErrNoSelectionFound.
func (s *selectionService) View(ctx context.Context, userID, objectiveID string) (*models.SelectedPortfolio, error) {
	var row models.SelectedPortfolio
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND objective_id = ?", userID, objectiveID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoSelectionFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &row, nil
}
