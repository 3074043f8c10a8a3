package models

import (
	"github.com/shopspring/decimal"

	"wealthplan/internal/allocation"
)

// PercentageAllocation is the weight of one segment in one portfolio variant.
// Per (user, objective, variant) the stored percentages sum to exactly 100.
type PercentageAllocation struct {
	Base
	UserID      string             `gorm:"type:uuid;not null;uniqueIndex:idx_pct_alloc_key" json:"-"`
	ObjectiveID string             `gorm:"type:uuid;not null;uniqueIndex:idx_pct_alloc_key" json:"objective_id"`
	Variant     allocation.Variant `gorm:"size:20;not null;uniqueIndex:idx_pct_alloc_key" json:"variant"`
	Segment     allocation.Segment `gorm:"size:30;not null;uniqueIndex:idx_pct_alloc_key" json:"segment"`
	Percent     int                `gorm:"not null" json:"percent"`
}

// AssetAllocation is a concrete position: an integral number of shares of
// one ticker at the unit price observed when it was generated. A ticker
// appears at most once per (user, objective, variant, segment).
type AssetAllocation struct {
	Base
	UserID      string             `gorm:"type:uuid;not null;index:idx_asset_alloc_owner;uniqueIndex:idx_asset_alloc_key" json:"-"`
	ObjectiveID string             `gorm:"type:uuid;not null;index:idx_asset_alloc_owner;uniqueIndex:idx_asset_alloc_key" json:"objective_id"`
	Variant     allocation.Variant `gorm:"size:20;not null;uniqueIndex:idx_asset_alloc_key" json:"variant"`
	Segment     allocation.Segment `gorm:"size:30;not null;uniqueIndex:idx_asset_alloc_key" json:"segment"`
	Ticker      string             `gorm:"size:32;not null;uniqueIndex:idx_asset_alloc_key" json:"ticker"`
	UnitPrice   decimal.Decimal    `gorm:"type:numeric(18,6);not null" json:"unit_price"`
	Quantity    int64              `gorm:"not null" json:"quantity"`
}

// SelectedPortfolio records which variant the investor confirmed for an
// objective, plus the frozen ticker lists of each confirmed variant.
type SelectedPortfolio struct {
	Base
	UserID               string                `gorm:"type:uuid;not null;uniqueIndex:idx_selected_portfolio_key" json:"-"`
	ObjectiveID          string                `gorm:"type:uuid;not null;uniqueIndex:idx_selected_portfolio_key" json:"objective_id"`
	SelectedVariant      allocation.Variant    `gorm:"size:20;not null" json:"selected_variant"`
	ConservativeSnapshot allocation.AssetLists `gorm:"type:text;serializer:json" json:"conservative_snapshot,omitempty"`
	AggressiveSnapshot   allocation.AssetLists `gorm:"type:text;serializer:json" json:"aggressive_snapshot,omitempty"`
}

// Snapshot returns the stored ticker lists for variant v.
func (s *SelectedPortfolio) Snapshot(v allocation.Variant) allocation.AssetLists {
	if v == allocation.VariantAggressive {
		return s.AggressiveSnapshot
	}
	return s.ConservativeSnapshot
}

// SetSnapshot replaces the stored ticker lists for variant v.
func (s *SelectedPortfolio) SetSnapshot(v allocation.Variant, lists allocation.AssetLists) {
	if v == allocation.VariantAggressive {
		s.AggressiveSnapshot = lists
		return
	}
	s.ConservativeSnapshot = lists
}
