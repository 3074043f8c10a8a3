package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"wealthplan/internal/pagination"
	"wealthplan/internal/testutil"
)

func validObjectiveInput() ObjectiveInput {
	return ObjectiveInput{
		Goal:                "Buy an apartment",
		HorizonMonths:       36,
		InitialCapital:      decimal.NewFromInt(20000),
		MonthlyContribution: decimal.NewFromInt(1500),
		NetWorth:            decimal.NewFromInt(80000),
		Liquidity:           " medium ",
		ExcludedSectors:     []string{" tobacco ", "", "weapons"},
	}
}

func TestCreateObjective(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewObjectiveService(db)
		user := testutil.CreateTestUser(t, db)

		objective, err := svc.CreateObjective(user.ID, validObjectiveInput())
		testutil.AssertNoError(t, err)

		if objective.Liquidity != "medium" {
			t.Errorf("expected trimmed liquidity, got %q", objective.Liquidity)
		}
		if len(objective.ExcludedSectors) != 2 || objective.ExcludedSectors[0] != "tobacco" {
			t.Errorf("expected cleaned sectors, got %v", objective.ExcludedSectors)
		}
	})

	cases := []struct {
		name   string
		mutate func(*ObjectiveInput)
	}{
		{"empty_goal", func(in *ObjectiveInput) { in.Goal = "  " }},
		{"zero_horizon", func(in *ObjectiveInput) { in.HorizonMonths = 0 }},
		{"negative_capital", func(in *ObjectiveInput) { in.InitialCapital = decimal.NewFromInt(-1) }},
		{"negative_net_worth", func(in *ObjectiveInput) { in.NetWorth = decimal.NewFromInt(-5) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc := NewObjectiveService(db)
			user := testutil.CreateTestUser(t, db)

			in := validObjectiveInput()
			tc.mutate(&in)
			_, err := svc.CreateObjective(user.ID, in)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		})
	}
}

func TestResolveObjective(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewObjectiveService(db)

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	t.Run("no_objective", func(t *testing.T) {
		_, err := svc.ResolveObjective(user.ID, "")
		testutil.AssertAppError(t, err, "NO_OBJECTIVE_FOUND")
	})

	first := testutil.CreateTestObjective(t, db, user.ID)
	second := testutil.CreateTestObjective(t, db, user.ID)
	foreign := testutil.CreateTestObjective(t, db, other.ID)

	t.Run("latest_by_default", func(t *testing.T) {
		objective, err := svc.ResolveObjective(user.ID, "")
		testutil.AssertNoError(t, err)
		if objective.ID != second.ID {
			t.Errorf("expected latest objective %s, got %s", second.ID, objective.ID)
		}
	})

	t.Run("explicit_id", func(t *testing.T) {
		objective, err := svc.ResolveObjective(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		if objective.ID != first.ID {
			t.Errorf("expected objective %s, got %s", first.ID, objective.ID)
		}
	})

	t.Run("other_users_objective", func(t *testing.T) {
		_, err := svc.ResolveObjective(user.ID, foreign.ID)
		testutil.AssertAppError(t, err, "NO_OBJECTIVE_FOUND")
	})

	t.Run("history_newest_first", func(t *testing.T) {
		page, err := svc.ListObjectives(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		objectives := page.Data
		if page.TotalItems != 2 || len(objectives) != 2 {
			t.Fatalf("expected 2 objectives, got %d", len(objectives))
		}
		if objectives[0].ID != second.ID || objectives[1].ID != first.ID {
			t.Errorf("expected newest first, got %s then %s", objectives[0].ID, objectives[1].ID)
		}
	})
}
