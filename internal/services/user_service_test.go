package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wealthplan/internal/models"
	"wealthplan/internal/testutil"
)

func newUserService(t *testing.T) (UserServicer, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return NewUserService(db), db
}

// storedUser reads the row directly, bypassing the service.
func storedUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		t.Fatalf("failed to load user %s: %v", id, err)
	}
	return u
}

func TestUserService_EmailNormalization(t *testing.T) {
	svc, _ := newUserService(t)

	created, err := svc.CreateUser("  Investor@Example.COM\t", "s3cret-pass", "Ana", "Lima")
	testutil.AssertNoError(t, err)
	if created.Email != "investor@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.Password == "s3cret-pass" || !svc.VerifyPassword(created, "s3cret-pass") {
		t.Error("expected a bcrypt hash of the password")
	}

	for _, tc := range []struct {
		name  string
		email string
	}{
		{"upper_case", "INVESTOR@EXAMPLE.COM"},
		{"padded", "   investor@example.com  "},
		{"mixed", "inVestor@example.Com"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(tc.email, "another-pass", "", "")
			testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")

			found, err := svc.GetUserByEmail(tc.email)
			testutil.AssertNoError(t, err)
			if found.ID != created.ID {
				t.Errorf("expected user %s, got %s", created.ID, found.ID)
			}

			user, err := svc.AttemptLogin(tc.email, "s3cret-pass")
			testutil.AssertNoError(t, err)
			if user.ID != created.ID {
				t.Errorf("expected login as %s, got %s", created.ID, user.ID)
			}
		})
	}

	t.Run("blank_after_trim_is_rejected", func(t *testing.T) {
		_, err := svc.CreateUser("   ", "s3cret-pass", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_password_is_rejected", func(t *testing.T) {
		_, err := svc.CreateUser("other@example.com", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUserService_IDs(t *testing.T) {
	svc, _ := newUserService(t)

	first, err := svc.CreateUser("first@example.com", "s3cret-pass", "", "")
	testutil.AssertNoError(t, err)
	second, err := svc.CreateUser("second@example.com", "s3cret-pass", "", "")
	testutil.AssertNoError(t, err)

	for _, u := range []*models.User{first, second} {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			t.Fatalf("expected a UUID id, got %q: %v", u.ID, err)
		}
		if id.Version() != 7 {
			t.Errorf("expected a version 7 UUID, got version %d", id.Version())
		}
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct ids")
	}

	found, err := svc.GetUserByID(second.ID)
	testutil.AssertNoError(t, err)
	if found.Email != "second@example.com" {
		t.Errorf("expected second@example.com, got %s", found.Email)
	}

	_, err = svc.GetUserByID(uuid.NewString())
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestUserService_AttemptLogin(t *testing.T) {
	const password = "s3cret-pass"

	register := func(t *testing.T, svc UserServicer, email string) *models.User {
		t.Helper()
		u, err := svc.CreateUser(email, password, "", "")
		testutil.AssertNoError(t, err)
		return u
	}

	t.Run("success_resets_failure_counter", func(t *testing.T) {
		svc, db := newUserService(t)
		u := register(t, svc, "reset@example.com")

		for i := 1; i <= maxFailedLoginAttempts-1; i++ {
			_, err := svc.AttemptLogin(u.Email, "nope")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
			if got := storedUser(t, db, u.ID).FailedLoginAttempts; got != i {
				t.Fatalf("after %d failures expected counter %d, got %d", i, i, got)
			}
		}

		user, err := svc.AttemptLogin(u.Email, password)
		testutil.AssertNoError(t, err)
		if user.LastLoginAt == nil {
			t.Error("expected LastLoginAt to be set")
		}
		if got := storedUser(t, db, u.ID).FailedLoginAttempts; got != 0 {
			t.Errorf("expected counter reset to 0, got %d", got)
		}

		// A later failure starts counting from one again.
		_, err = svc.AttemptLogin(u.Email, "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		if got := storedUser(t, db, u.ID).FailedLoginAttempts; got != 1 {
			t.Errorf("expected counter 1, got %d", got)
		}
	})

	t.Run("fifth_failure_locks_account", func(t *testing.T) {
		svc, db := newUserService(t)
		u := register(t, svc, "lock@example.com")

		before := time.Now()
		for i := 0; i < maxFailedLoginAttempts; i++ {
			_, err := svc.AttemptLogin(u.Email, "nope")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		stored := storedUser(t, db, u.ID)
		if stored.LockedUntil == nil {
			t.Fatal("expected account to be locked")
		}
		if stored.LockedUntil.Before(before.Add(loginLockDuration - time.Minute)) {
			t.Errorf("expected lock of about %s, locked until %s", loginLockDuration, stored.LockedUntil)
		}
		if stored.FailedLoginAttempts != 0 {
			t.Errorf("expected counter cleared when locking, got %d", stored.FailedLoginAttempts)
		}

		_, err := svc.AttemptLogin(u.Email, password)
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("expired_lock_allows_login", func(t *testing.T) {
		svc, db := newUserService(t)
		u := register(t, svc, "expired@example.com")

		past := time.Now().Add(-time.Minute)
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).Update("locked_until", past).Error; err != nil {
			t.Fatalf("failed to set lock: %v", err)
		}

		_, err := svc.AttemptLogin(u.Email, password)
		testutil.AssertNoError(t, err)
		if stored := storedUser(t, db, u.ID); stored.LockedUntil != nil {
			t.Errorf("expected lock cleared after login, got %s", stored.LockedUntil)
		}
	})

	t.Run("expired_lock_counts_failures_afresh", func(t *testing.T) {
		svc, db := newUserService(t)
		u := register(t, svc, "again@example.com")

		past := time.Now().Add(-time.Second)
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).Update("locked_until", past).Error; err != nil {
			t.Fatalf("failed to set lock: %v", err)
		}

		_, err := svc.AttemptLogin(u.Email, "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		if got := storedUser(t, db, u.ID).FailedLoginAttempts; got != 1 {
			t.Errorf("expected counter 1, got %d", got)
		}
	})

	t.Run("unknown_and_inactive_look_like_bad_password", func(t *testing.T) {
		svc, db := newUserService(t)
		u := register(t, svc, "gone@example.com")
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate: %v", err)
		}

		_, err := svc.AttemptLogin("nobody@example.com", password)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		_, err = svc.AttemptLogin(u.Email, password)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestUserService_UpdateRiskProfile(t *testing.T) {
	svc, db := newUserService(t)
	u := testutil.CreateTestUser(t, db)

	if u.RiskProfile != nil {
		t.Fatalf("expected no risk profile on a new user, got %v", *u.RiskProfile)
	}

	updated, err := svc.UpdateRiskProfile(u.ID, " Aggressive ")
	testutil.AssertNoError(t, err)
	if updated.RiskProfile == nil || *updated.RiskProfile != models.RiskProfileAggressive {
		t.Fatalf("expected aggressive, got %v", updated.RiskProfile)
	}
	if stored := storedUser(t, db, u.ID); stored.RiskProfile == nil || *stored.RiskProfile != models.RiskProfileAggressive {
		t.Errorf("expected aggressive stored, got %v", stored.RiskProfile)
	}

	_, err = svc.UpdateRiskProfile(u.ID, "reckless")
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	_, err = svc.UpdateRiskProfile(uuid.NewString(), "moderate")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}
