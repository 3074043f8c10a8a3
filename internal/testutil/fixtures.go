package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wealthplan/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestObjective creates a 24-month objective with 10000 initial capital
// and 500 monthly contribution.
func CreateTestObjective(t *testing.T, db *gorm.DB, userID string) *models.Objective {
	t.Helper()
	return CreateTestObjectiveWithCapital(t, db, userID, decimal.NewFromInt(10000))
}

// CreateTestObjectiveWithCapital creates an objective with the given initial capital.
func CreateTestObjectiveWithCapital(t *testing.T, db *gorm.DB, userID string, capital decimal.Decimal) *models.Objective {
	t.Helper()

	objective := &models.Objective{
		UserID:              userID,
		Goal:                fmt.Sprintf("Test goal %d", nextID()),
		HorizonMonths:       24,
		InitialCapital:      capital,
		MonthlyContribution: decimal.NewFromInt(500),
		NetWorth:            decimal.NewFromInt(50000),
		Liquidity:           "medium",
		ExcludedSectors:     []string{"tobacco"},
	}
	if err := db.Create(objective).Error; err != nil {
		t.Fatalf("failed to create test objective: %v", err)
	}
	// Keep created_at strictly increasing so "latest" is deterministic.
	time.Sleep(2 * time.Millisecond)
	return objective
}
