package bridge

import (
	"context"

	"github.com/google/uuid"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

// SweepReport summarizes what a reconciliation sweep repaired.
type SweepReport struct {
	DerivedCreated     int `json:"derived_created"`
	FutureBillsCreated int `json:"future_bills_created"`
	OrphansRemoved     int `json:"orphans_removed"`
	IncomeBucketed     int `json:"income_bucketed"`
}

// Clean reports whether the sweep found nothing to repair.
func (r SweepReport) Clean() bool {
	return r == SweepReport{}
}

// Reconcile is an idempotent full sweep over both stores. The event cascade
// is best-effort and can partially apply, leaving the collections divergent;
// this pass re-derives missing transactions, re-synthesizes missing future
// bills, drops derived transactions whose entry is gone, and buckets income
// transactions that never made it into the weekly budget. Running it twice in
// a row leaves the second run with nothing to do.
func (br *Bridge) Reconcile(ctx context.Context) SweepReport {
	var report SweepReport

	transactions := br.ledger.List(ctx)
	entries := br.weekly.Entries()

	entryByID := make(map[string]models.WeeklyBudgetEntry, len(entries))
	for _, e := range entries {
		entryByID[e.ID] = e
	}

	// Replay rules 2-3 for user entries whose derivations are missing.
	for _, entry := range entries {
		if entry.SystemCreated() || !entry.SyncToTransactions {
			continue
		}
		date, err := entry.Date()
		if err != nil {
			br.logger.Warn("sweep: entry has no mappable date", "entry_id", entry.ID, "err", err)
			continue
		}

		draft := derivedDraft(entry, date, false)
		if !br.isDuplicate(draft) {
			if _, _, err := br.ledger.Create(ctx, draft); err != nil {
				br.logger.Warn("sweep: derivation failed", "entry_id", entry.ID, "err", err)
			} else {
				report.DerivedCreated++
			}
		}

		if entry.Category != models.CategoryFixed {
			continue
		}
		for i := 1; i <= futureBillCount; i++ {
			billDraft := derivedDraft(entry, date.AddDate(0, i, 0), true)
			if br.isDuplicate(billDraft) {
				continue
			}
			if br.writeFutureBill(entry.ID, billDraft) {
				report.FutureBillsCreated++
			}
		}
	}

	// Replay the delete half of rule 5: drop derived transactions whose
	// source entry no longer exists. The entry set is hydrated from the
	// durable tier, so a fresh process sees the same entries the writer did
	// and future bills for live entries are never mistaken for orphans.
	orphanSources := map[string]bool{}
	for _, tx := range transactions {
		sourceID := tx.SourceEntryID()
		if sourceID == "" || orphanSources[sourceID] {
			continue
		}
		if _, ok := entryByID[sourceID]; !ok {
			orphanSources[sourceID] = true
		}
	}
	for sourceID := range orphanSources {
		report.OrphansRemoved += br.ledger.DeleteBySourceEntry(ctx, sourceID)
	}

	// Replay rule 1 for income transactions that never got bucketed.
	for _, tx := range transactions {
		if tx.Category != models.CategoryIncome && tx.Type != models.TypeIncome {
			continue
		}
		if tx.IsFutureBill() || tx.SourceEntryID() != "" {
			continue
		}
		description := tx.Description
		if description == "" {
			description = tx.Origin
		}
		entry := models.WeeklyBudgetEntry{
			ID:          uuid.NewString(),
			Source:      models.SourceSystem,
			Week:        models.WeekOfDate(tx.Date),
			Description: description,
			Amount:      tx.Amount,
			Category:    models.CategoryIncome,
			Month:       tx.Date.Month().String(),
			Year:        tx.Date.Year(),
		}
		if _, inserted := br.weekly.AddEntry(entry); inserted {
			report.IncomeBucketed++
		}
	}

	if !report.Clean() {
		br.logger.Info("reconcile sweep repaired divergence",
			"derived", report.DerivedCreated,
			"future_bills", report.FutureBillsCreated,
			"orphans", report.OrphansRemoved,
			"income_bucketed", report.IncomeBucketed)
	}
	return report
}
