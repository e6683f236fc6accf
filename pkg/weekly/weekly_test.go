package weekly

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/bus"
	"github.com/HelioWoi/liveplan3/pkg/localstore"
	"github.com/HelioWoi/liveplan3/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return storeAt(t, filepath.Join(t.TempDir(), "ledger.json"))
}

func storeAt(t *testing.T, path string) *Store {
	t.Helper()
	logger := log.New(io.Discard)
	local, err := localstore.Open(path)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	return New(local, bus.New(logger), logger)
}

func groceries() models.WeeklyBudgetEntry {
	return models.WeeklyBudgetEntry{
		Description: "Groceries",
		Amount:      150,
		Category:    models.CategoryVariable,
		Week:        models.Week2,
		Month:       "June",
		Year:        2025,
	}
}

func TestAddEntryAssignsDefaults(t *testing.T) {
	s := testStore(t)
	stored, inserted := s.AddEntry(groceries())
	if !inserted {
		t.Fatal("first insert should succeed")
	}
	if stored.ID == "" {
		t.Error("expected a generated id")
	}
	if stored.Source != models.SourceUser {
		t.Errorf("expected default source %q, got %q", models.SourceUser, stored.Source)
	}
	if !stored.SyncToTransactions {
		t.Error("user entries should sync to transactions")
	}
}

func TestAddEntryIsIdempotent(t *testing.T) {
	s := testStore(t)
	first, _ := s.AddEntry(groceries())
	second, inserted := s.AddEntry(groceries())
	if inserted {
		t.Error("duplicate fingerprint should be suppressed")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate insert should return the existing entry, got id %q want %q", second.ID, first.ID)
	}
	if got := len(s.Entries()); got != 1 {
		t.Errorf("expected 1 entry, got %d", got)
	}
}

func TestEntriesForFiltersBucket(t *testing.T) {
	s := testStore(t)
	s.AddEntry(groceries())
	other := groceries()
	other.Description = "Fuel"
	other.Week = models.Week3
	s.AddEntry(other)

	got := s.EntriesFor(models.Week2, "June", 2025)
	if len(got) != 1 || got[0].Description != "Groceries" {
		t.Errorf("unexpected bucket contents: %+v", got)
	}
}

func TestUpdateEntry(t *testing.T) {
	s := testStore(t)
	stored, _ := s.AddEntry(groceries())

	amount := 175.0
	updated, ok := s.UpdateEntry(stored.ID, models.EntryPatch{Amount: &amount})
	if !ok {
		t.Fatal("update should find the entry")
	}
	if updated.Amount != 175 {
		t.Errorf("expected amount 175, got %v", updated.Amount)
	}

	if _, ok := s.UpdateEntry("missing", models.EntryPatch{Amount: &amount}); ok {
		t.Error("update of a missing entry should report false")
	}
}

func TestDeleteEntry(t *testing.T) {
	s := testStore(t)
	stored, _ := s.AddEntry(groceries())
	if !s.DeleteEntry(stored.ID) {
		t.Fatal("delete should find the entry")
	}
	if len(s.Entries()) != 0 {
		t.Error("entry should be gone")
	}
	if s.DeleteEntry(stored.ID) {
		t.Error("second delete should report false")
	}
}

func TestMoveEntryToWeek(t *testing.T) {
	s := testStore(t)
	stored, _ := s.AddEntry(groceries())

	moved, ok := s.MoveEntryToWeek(stored.ID, models.Week4)
	if !ok {
		t.Fatal("move should succeed")
	}
	if moved.Week != models.Week4 {
		t.Errorf("expected Week 4, got %s", moved.Week)
	}
	if moved.Month != "June" || moved.Year != 2025 {
		t.Errorf("month and year must not change on move: %+v", moved)
	}

	if _, ok := s.MoveEntryToWeek(stored.ID, models.Week(9)); ok {
		t.Error("invalid target week should be rejected")
	}
}

func TestAddRecurringMonthly(t *testing.T) {
	s := testStore(t)
	count, err := s.AddRecurring(groceries(), RepeatMonthly)
	if err != nil {
		t.Fatalf("AddRecurring failed: %v", err)
	}
	// Base plus twelve monthly occurrences, all in distinct buckets.
	if count != 13 {
		t.Errorf("expected 13 inserted, got %d", count)
	}
	for _, e := range s.Entries() {
		if e.Week != models.Week2 {
			t.Errorf("monthly recurrence must keep the week, got %s for %s %d", e.Week, e.Month, e.Year)
		}
	}
}

func TestAddRecurringRejectsUnknownPolicy(t *testing.T) {
	s := testStore(t)
	count, err := s.AddRecurring(groceries(), RepeatPolicy("Fortnightly"))
	if err == nil {
		t.Fatal("expected an error for an unknown policy")
	}
	// The policy is validated before anything is stored.
	if count != 0 {
		t.Errorf("expected no inserts, got %d", count)
	}
	if got := len(s.Entries()); got != 0 {
		t.Errorf("rejected policy must leave the store untouched, got %d entries", got)
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	s := storeAt(t, path)
	stored, _ := s.AddEntry(groceries())

	fresh := storeAt(t, path)
	entries := fresh.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", len(entries))
	}
	if entries[0].ID != stored.ID || entries[0].Description != "Groceries" {
		t.Errorf("reloaded entry does not match: %+v", entries[0])
	}

	// The fingerprint check works against the reloaded set too.
	if _, inserted := fresh.AddEntry(groceries()); inserted {
		t.Error("duplicate fingerprint should be suppressed after reopen")
	}

	fresh.DeleteEntry(stored.ID)
	if got := len(storeAt(t, path).Entries()); got != 0 {
		t.Errorf("deletion should survive reopen, got %d entries", got)
	}
}
