package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"gorm.io/gorm"

	"wealthplan/internal/allocation"
	apperrors "wealthplan/internal/errors"
	"wealthplan/internal/metrics"
	"wealthplan/internal/models"
)

// allocationStore persists allocations with replace-all semantics. Writes to
// the same (user, objective) are serialized in-process and each write is a
// single database transaction.
type allocationStore struct {
	db      *gorm.DB
	locks   *keyedMutex
	metrics *metrics.Pipeline
}

// NewAllocationStore creates a new AllocationStorer. m may be nil.
func NewAllocationStore(db *gorm.DB, m *metrics.Pipeline) AllocationStorer {
	return &allocationStore{db: db, locks: newKeyedMutex(), metrics: m}
}

func ownerKey(userID, objectiveID string) string {
	return userID + "/" + objectiveID
}

// ReplaceAll deletes every percentage and asset row of (user, objective) and
// inserts set in their place. Either all of set becomes visible or none of it.
func (s *allocationStore) ReplaceAll(ctx context.Context, userID, objectiveID string, set AllocationSet) error {
	if err := validateAllocationSet(set); err != nil {
		s.metrics.Replacement("rejected")
		return err
	}

	unlock := s.locks.Lock(ownerKey(userID, objectiveID))
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writeAllocationRows(tx, userID, objectiveID, set)
	})
	if err != nil {
		s.metrics.Replacement("failed")
		return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("replace allocations: %w", err))
	}

	s.metrics.Replacement("committed")
	return nil
}

// ReplaceVariants rewrites the rows of r.Variants and keeps the rows of every
// other variant as they are stored when the transaction runs. The kept rows
// are read under the same lock and transaction as the write.
func (s *allocationStore) ReplaceVariants(ctx context.Context, userID, objectiveID string, r VariantReplacement) (AllocationSet, error) {
	unlock := s.locks.Lock(ownerKey(userID, objectiveID))
	defer unlock()

	var set AllocationSet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := readPercentages(tx, userID, objectiveID)
		if err != nil {
			return err
		}
		if r.Basis != nil {
			for _, v := range r.Variants {
				if !current.For(v).Equal(r.Basis.For(v)) {
					return apperrors.WithMessage(apperrors.ErrAllocationConflict,
						"The "+string(v)+" weights changed while its assets were being generated")
				}
			}
		}

		currentAssets, err := readAssets(tx, userID, objectiveID)
		if err != nil {
			return err
		}
		set = mergeVariants(current, currentAssets, r)
		if err := validateAllocationSet(set); err != nil {
			return err
		}
		return writeAllocationRows(tx, userID, objectiveID, set)
	})

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		s.metrics.Replacement("committed")
		return set, nil
	case errors.As(err, &appErr):
		s.metrics.Replacement("rejected")
		return AllocationSet{}, err
	default:
		s.metrics.Replacement("failed")
		return AllocationSet{}, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("replace variants: %w", err))
	}
}

func mergeVariants(current allocation.Distribution, currentAssets map[allocation.Variant]allocation.Holdings, r VariantReplacement) AllocationSet {
	set := AllocationSet{Holdings: make(map[allocation.Variant]allocation.Holdings, len(allocation.Variants))}
	for _, v := range allocation.Variants {
		if slices.Contains(r.Variants, v) {
			set.Distribution.Set(v, r.Distribution.For(v))
			if h, ok := r.Holdings[v]; ok {
				set.Holdings[v] = h
			}
			continue
		}
		w := current.For(v)
		set.Distribution.Set(v, w)
		if h, ok := currentAssets[v]; ok && w != nil {
			set.Holdings[v] = h
		}
	}
	return set
}

func writeAllocationRows(tx *gorm.DB, userID, objectiveID string, set AllocationSet) error {
	percentages, assets := allocationRows(userID, objectiveID, set)
	if err := deleteAllocationRows(tx, userID, objectiveID); err != nil {
		return err
	}
	if len(percentages) > 0 {
		if err := tx.Create(&percentages).Error; err != nil {
			return err
		}
	}
	if len(assets) > 0 {
		if err := tx.Create(&assets).Error; err != nil {
			return err
		}
	}
	return nil
}

// validateAllocationSet enforces that every stored variant sums to 100 and
// that holdings only reference segments weighted in the same variant.
func validateAllocationSet(set AllocationSet) error {
	for _, v := range allocation.Variants {
		w := set.Distribution.For(v)
		if w == nil {
			continue
		}
		if err := allocation.ValidateWeights(v, w); err != nil {
			return apperrors.WrapWithMessage(apperrors.ErrInvalidDistribution, err.Error(), err)
		}
	}

	for v, holdings := range set.Holdings {
		w := set.Distribution.For(v)
		for seg, list := range holdings {
			if len(list) == 0 {
				continue
			}
			if w[seg] <= 0 {
				return apperrors.Wrap(apperrors.ErrInternalServer,
					fmt.Errorf("holdings for %s/%s have no matching segment weight", v, seg))
			}
			for _, h := range list {
				if h.Quantity < 1 || !h.Price.IsPositive() {
					return apperrors.Wrap(apperrors.ErrInternalServer,
						fmt.Errorf("holding %s in %s/%s is not a priced whole share", h.Ticker, v, seg))
				}
			}
		}
	}
	return nil
}

func allocationRows(userID, objectiveID string, set AllocationSet) ([]models.PercentageAllocation, []models.AssetAllocation) {
	var percentages []models.PercentageAllocation
	var assets []models.AssetAllocation

	for _, v := range allocation.Variants {
		w := set.Distribution.For(v)
		for _, seg := range allocation.Segments {
			pct, ok := w[seg]
			if !ok || pct == 0 {
				continue
			}
			percentages = append(percentages, models.PercentageAllocation{
				UserID:      userID,
				ObjectiveID: objectiveID,
				Variant:     v,
				Segment:     seg,
				Percent:     pct,
			})
		}

		holdings := set.Holdings[v]
		for _, seg := range allocation.Segments {
			for _, h := range holdings[seg] {
				assets = append(assets, models.AssetAllocation{
					UserID:      userID,
					ObjectiveID: objectiveID,
					Variant:     v,
					Segment:     seg,
					Ticker:      h.Ticker,
					UnitPrice:   h.Price,
					Quantity:    h.Quantity,
				})
			}
		}
	}
	return percentages, assets
}

func deleteAllocationRows(tx *gorm.DB, userID, objectiveID string) error {
	if err := tx.Unscoped().
		Where("user_id = ? AND objective_id = ?", userID, objectiveID).
		Delete(&models.AssetAllocation{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().
		Where("user_id = ? AND objective_id = ?", userID, objectiveID).
		Delete(&models.PercentageAllocation{}).Error
}

// GetPercentages returns the stored weights. Variants with no rows are nil.
func (s *allocationStore) GetPercentages(ctx context.Context, userID, objectiveID string) (allocation.Distribution, error) {
	d, err := readPercentages(s.db.WithContext(ctx), userID, objectiveID)
	if err != nil {
		return allocation.Distribution{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return d, nil
}

// GetAssets returns the stored holdings per variant, tickers sorted within a segment.
func (s *allocationStore) GetAssets(ctx context.Context, userID, objectiveID string) (map[allocation.Variant]allocation.Holdings, error) {
	assets, err := readAssets(s.db.WithContext(ctx), userID, objectiveID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assets, nil
}

// GetVariant returns the weights and holdings of one variant read in a single
// transaction, so both come from the same committed replacement.
func (s *allocationStore) GetVariant(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (allocation.Weights, allocation.Holdings, error) {
	unlock := s.locks.Lock(ownerKey(userID, objectiveID))
	defer unlock()

	var (
		weights  allocation.Weights
		holdings allocation.Holdings
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := readPercentages(tx, userID, objectiveID)
		if err != nil {
			return err
		}
		if weights = d.For(variant); weights == nil {
			return nil
		}
		assets, err := readAssets(tx, userID, objectiveID)
		if err != nil {
			return err
		}
		holdings = assets[variant]
		return nil
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if weights == nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrAllocationNotFound,
			"No "+string(variant)+" portfolio has been generated for this objective")
	}
	if holdings == nil {
		holdings = allocation.Holdings{}
	}
	return weights, holdings, nil
}

func readPercentages(db *gorm.DB, userID, objectiveID string) (allocation.Distribution, error) {
	var rows []models.PercentageAllocation
	if err := db.
		Where("user_id = ? AND objective_id = ?", userID, objectiveID).
		Find(&rows).Error; err != nil {
		return allocation.Distribution{}, err
	}

	var d allocation.Distribution
	for _, row := range rows {
		w := d.For(row.Variant)
		if w == nil {
			w = make(allocation.Weights)
			d.Set(row.Variant, w)
		}
		w[row.Segment] = row.Percent
	}
	return d, nil
}

func readAssets(db *gorm.DB, userID, objectiveID string) (map[allocation.Variant]allocation.Holdings, error) {
	var rows []models.AssetAllocation
	if err := db.
		Where("user_id = ? AND objective_id = ?", userID, objectiveID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[allocation.Variant]allocation.Holdings)
	for _, row := range rows {
		holdings, ok := out[row.Variant]
		if !ok {
			holdings = make(allocation.Holdings)
			out[row.Variant] = holdings
		}
		holdings[row.Segment] = append(holdings[row.Segment], allocation.Holding{
			Ticker:   row.Ticker,
			Price:    row.UnitPrice,
			Quantity: row.Quantity,
		})
	}
	for _, holdings := range out {
		for _, list := range holdings {
			sort.Slice(list, func(i, j int) bool { return list[i].Ticker < list[j].Ticker })
		}
	}
	return out, nil
}

// DeleteAll removes every allocation and the selected portfolio of (user, objective).
func (s *allocationStore) DeleteAll(ctx context.Context, userID, objectiveID string) error {
	unlock := s.locks.Lock(ownerKey(userID, objectiveID))
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAllocationRows(tx, userID, objectiveID); err != nil {
			return err
		}
		return tx.Unscoped().
			Where("user_id = ? AND objective_id = ?", userID, objectiveID).
			Delete(&models.SelectedPortfolio{}).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
