package bridge

import (
	"context"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

// PlanItem is the dry-run view of one user entry: whether its derived
// transaction and future bills are already in place.
type PlanItem struct {
	Entry          models.WeeklyBudgetEntry
	Synced         bool
	MissingCurrent bool
	MissingBills   int
}

// Plan walks the user entries and reports what a Reconcile would create,
// without writing anything.
func (br *Bridge) Plan(ctx context.Context) []PlanItem {
	br.ledger.List(ctx)

	var items []PlanItem
	for _, entry := range br.weekly.Entries() {
		if entry.SystemCreated() || !entry.SyncToTransactions {
			continue
		}
		item := PlanItem{Entry: entry}
		date, err := entry.Date()
		if err != nil {
			items = append(items, item)
			continue
		}
		item.MissingCurrent = !br.isDuplicate(derivedDraft(entry, date, false))
		if entry.Category == models.CategoryFixed {
			for i := 1; i <= futureBillCount; i++ {
				if !br.isDuplicate(derivedDraft(entry, date.AddDate(0, i, 0), true)) {
					item.MissingBills++
				}
			}
		}
		item.Synced = !item.MissingCurrent && item.MissingBills == 0
		items = append(items, item)
	}
	return items
}
