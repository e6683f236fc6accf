package localstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, path
}

func sampleTx(id, entryID string) models.Transaction {
	return models.Transaction{
		ID:          id,
		Origin:      "Fixed",
		Description: "Rent",
		Amount:      1200,
		Category:    models.CategoryFixed,
		Type:        models.TypeExpense,
		Date:        time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		Owner:       models.LocalOwner,
		Metadata:    &models.Metadata{SourceEntryID: entryID},
	}
}

func TestAppendSurvivesReopen(t *testing.T) {
	s, path := tempStore(t)
	if err := s.Append(sampleTx("tx-1", "entry-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.SetOpeningBalance(500); err != nil {
		t.Fatalf("SetOpeningBalance failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	txs := reopened.Transactions()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction after reopen, got %d", len(txs))
	}
	if txs[0].ID != "tx-1" || txs[0].SourceEntryID() != "entry-1" {
		t.Errorf("transaction lost fields across reopen: %+v", txs[0])
	}
	if got := reopened.OpeningBalance(); got != 500 {
		t.Errorf("expected opening balance 500, got %v", got)
	}
}

func TestWeeklyEntriesSurviveReopen(t *testing.T) {
	s, path := tempStore(t)
	entries := []models.WeeklyBudgetEntry{{
		ID:          "entry-1",
		Source:      models.SourceUser,
		Description: "Rent",
		Amount:      1200,
		Category:    models.CategoryFixed,
		Week:        models.Week1,
		Month:       "July",
		Year:        2025,
	}}
	if err := s.SaveWeeklyEntries(entries); err != nil {
		t.Fatalf("SaveWeeklyEntries failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got := reopened.WeeklyEntries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", len(got))
	}
	if got[0].ID != "entry-1" || got[0].Week != models.Week1 || got[0].Year != 2025 {
		t.Errorf("entry lost fields across reopen: %+v", got[0])
	}

	// Saving an empty set clears the persisted collection.
	if err := reopened.SaveWeeklyEntries(nil); err != nil {
		t.Fatalf("SaveWeeklyEntries failed: %v", err)
	}
	if got := reopened.WeeklyEntries(); len(got) != 0 {
		t.Errorf("expected no entries after clearing save, got %d", len(got))
	}
}

func TestDeleteBySourceEntry(t *testing.T) {
	s, _ := tempStore(t)
	for _, tx := range []models.Transaction{
		sampleTx("tx-1", "entry-1"),
		sampleTx("tx-2", "entry-1"),
		sampleTx("tx-3", "entry-2"),
	} {
		if err := s.Append(tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	removed, err := s.DeleteBySourceEntry("entry-1")
	if err != nil {
		t.Fatalf("DeleteBySourceEntry failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	txs := s.Transactions()
	if len(txs) != 1 || txs[0].ID != "tx-3" {
		t.Errorf("unexpected survivors: %+v", txs)
	}
}

func TestUpdateBySourceEntry(t *testing.T) {
	s, _ := tempStore(t)
	if err := s.Append(sampleTx("tx-1", "entry-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	desc := "Rent (renewed)"
	touched, err := s.UpdateBySourceEntry("entry-1", models.TransactionPatch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateBySourceEntry failed: %v", err)
	}
	if touched != 1 {
		t.Errorf("expected 1 touched, got %d", touched)
	}
	if got := s.Transactions()[0].Description; got != desc {
		t.Errorf("expected description %q, got %q", desc, got)
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	s, _ := tempStore(t)
	desc := "x"
	_, err := s.Update("nope", models.TransactionPatch{Description: &desc})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestHasDedupKey(t *testing.T) {
	s, _ := tempStore(t)
	tx := sampleTx("tx-1", "entry-1")
	if err := s.Append(tx); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if !s.HasDedupKey(tx.DedupKey()) {
		t.Error("stored transaction key not found")
	}
	other := tx
	other.Date = tx.Date.AddDate(0, 1, 0)
	if s.HasDedupKey(other.DedupKey()) {
		t.Error("key for a different month should not match")
	}
}

func TestClearDropsOwnerOnly(t *testing.T) {
	s, _ := tempStore(t)
	local := sampleTx("tx-1", "")
	remoteOwned := sampleTx("tx-2", "")
	remoteOwned.Owner = "user-42"
	for _, tx := range []models.Transaction{local, remoteOwned} {
		if err := s.Append(tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := s.Clear(models.LocalOwner); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	txs := s.Transactions()
	if len(txs) != 1 || txs[0].ID != "tx-2" {
		t.Errorf("expected only the foreign-owned record to survive, got %+v", txs)
	}
}

func TestPendingQueue(t *testing.T) {
	s, _ := tempStore(t)
	if err := s.AppendPending(sampleTx("tx-1", "")); err != nil {
		t.Fatalf("AppendPending failed: %v", err)
	}
	drained, err := s.DrainPending()
	if err != nil {
		t.Fatalf("DrainPending failed: %v", err)
	}
	if len(drained) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(drained))
	}
	again, err := s.DrainPending()
	if err != nil {
		t.Fatalf("second DrainPending failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("queue should be empty after drain, got %d", len(again))
	}
}
