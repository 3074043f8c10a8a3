package pagination

import (
	"testing"

	"wealthplan/internal/models"
	"wealthplan/internal/testutil"
)

func TestPageRequest_Normalized(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero values", PageRequest{}, 1, defaultPageSize},
		{"explicit", PageRequest{Page: 3, PageSize: 5}, 3, 5},
		{"oversized page", PageRequest{Page: 1, PageSize: 1000}, 1, maxPageSize},
		{"negative page", PageRequest{Page: -2, PageSize: 10}, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalized()
			if got.Page != tt.wantPage || got.PageSize != tt.wantPageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", got.Page, got.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)
	for i := 0; i < 5; i++ {
		testutil.CreateTestObjective(t, db, user.ID)
	}
	other := testutil.CreateTestUser(t, db)
	testutil.CreateTestObjective(t, db, other.ID)

	t.Run("first page", func(t *testing.T) {
		page, err := Find[models.Objective](db.Where("user_id = ?", user.ID).Order("created_at DESC"), PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 5 {
			t.Errorf("expected 5 total items, got %d", page.TotalItems)
		}
		if page.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", page.TotalPages)
		}
		if len(page.Data) != 2 {
			t.Errorf("expected 2 items, got %d", len(page.Data))
		}
	})

	t.Run("last partial page", func(t *testing.T) {
		page, err := Find[models.Objective](db.Where("user_id = ?", user.ID).Order("created_at DESC"), PageRequest{Page: 3, PageSize: 2})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 {
			t.Errorf("expected 1 item, got %d", len(page.Data))
		}
	})

	t.Run("past the end", func(t *testing.T) {
		page, err := Find[models.Objective](db.Where("user_id = ?", user.ID), PageRequest{Page: 9, PageSize: 2})
		testutil.AssertNoError(t, err)
		if page.Data == nil || len(page.Data) != 0 {
			t.Errorf("expected empty non-nil data, got %v", page.Data)
		}
		if page.TotalItems != 5 {
			t.Errorf("expected 5 total items, got %d", page.TotalItems)
		}
	})
}
