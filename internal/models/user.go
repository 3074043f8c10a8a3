package models

import (
	"fmt"
	"strings"
	"time"
)

// RiskProfile is the investor's declared tolerance for risk.
type RiskProfile string

const (
	RiskProfileConservative RiskProfile = "conservative"
	RiskProfileModerate     RiskProfile = "moderate"
	RiskProfileAggressive   RiskProfile = "aggressive"
)

// ParseRiskProfile accepts a risk profile name in any case.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch p := RiskProfile(strings.ToLower(strings.TrimSpace(s))); p {
	case RiskProfileConservative, RiskProfileModerate, RiskProfileAggressive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown risk profile %q", s)
	}
}

// User represents the user model in the database
type User struct {
	Base
	Email               string       `gorm:"uniqueIndex;not null" json:"email"`
	Password            string       `gorm:"not null" json:"-"`
	FirstName           string       `json:"first_name"`
	LastName            string       `json:"last_name"`
	RiskProfile         *RiskProfile `gorm:"size:20" json:"risk_profile,omitempty"`
	IsActive            bool         `gorm:"default:true" json:"is_active"`
	FailedLoginAttempts int          `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time   `json:"-"`
	LastLoginAt         *time.Time   `json:"last_login_at,omitempty"`
	Objectives          []Objective  `gorm:"foreignKey:UserID" json:"objectives,omitempty"`
}
