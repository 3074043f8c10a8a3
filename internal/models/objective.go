package models

import "github.com/shopspring/decimal"

// Objective is an investor's stated financial goal. Pipeline operations act
// on the most recently created objective unless one is named explicitly.
type Objective struct {
	Base
	UserID              string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Goal                string          `gorm:"not null" json:"goal"`
	HorizonMonths       int             `gorm:"not null" json:"horizon_months"`
	InitialCapital      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"initial_capital"`
	MonthlyContribution decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"monthly_contribution"`
	NetWorth            decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"net_worth"`
	Liquidity           string          `json:"liquidity"`
	ExcludedSectors     []string        `gorm:"type:text;serializer:json" json:"excluded_sectors"`
}
