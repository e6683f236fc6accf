// Package bridge keeps the ledger and the weekly budget entries convergent.
// It observes both stores through the bus and applies five numbered rules:
//
//  1. An income transaction buckets into a system-tagged weekly budget entry
//     for its (week, month, year).
//  2. A user-created entry derives exactly one matching transaction.
//  3. A Fixed entry additionally synthesizes two forward-dated bills, one and
//     two calendar months out, written to the durable local tier.
//  4. No derived insert lands when durable storage already holds a record
//     with the same duplicate key.
//  5. Updating or deleting an entry cascades to every transaction derived
//     from it; removing an entry's last trace removes its transactions.
//
// Reactions are best-effort writes: persistence failures are logged and
// swallowed, never surfaced to the triggering caller. Provenance tagging on
// entries breaks the feedback loop between the two directions.
package bridge

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/HelioWoi/liveplan3/pkg/bus"
	"github.com/HelioWoi/liveplan3/pkg/ledger"
	"github.com/HelioWoi/liveplan3/pkg/models"
	"github.com/HelioWoi/liveplan3/pkg/weekly"
)

// futureBillCount is how many forward-dated bills a Fixed entry synthesizes,
// one and two calendar months after the derived date.
const futureBillCount = 2

type Bridge struct {
	logger *log.Logger
	ledger *ledger.Store
	weekly *weekly.Store
}

// New wires the bridge as an observer of both stores.
func New(ledgerStore *ledger.Store, weeklyStore *weekly.Store, b *bus.Bus, logger *log.Logger) *Bridge {
	br := &Bridge{
		logger: logger,
		ledger: ledgerStore,
		weekly: weeklyStore,
	}
	b.OnIncomeCreated(br.onIncomeCreated)
	b.OnEntryAdded(br.onEntryAdded)
	b.OnEntryUpdated(br.onEntryUpdated)
	b.OnEntryDeleted(br.onEntryDeleted)
	return br
}

// onIncomeCreated implements rule 1: an income transaction buckets into a
// weekly budget entry. The inserted entry is system-tagged so it never
// re-triggers derivation, and the fingerprint check drops it when the bucket
// already holds a matching entry.
func (br *Bridge) onIncomeCreated(tx models.Transaction) {
	if tx.IsFutureBill() {
		return
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
		br.logger.Debug("income bucketed into weekly budget",
			"tx_id", tx.ID, "week", entry.Week.String(), "month", entry.Month, "year", entry.Year)
	}
}

// onEntryAdded implements rules 2-4: a user-created entry derives exactly one
// transaction, plus two forward-dated bills when the category is Fixed.
func (br *Bridge) onEntryAdded(entry models.WeeklyBudgetEntry) {
	if entry.SystemCreated() || !entry.SyncToTransactions {
		return
	}

	date, err := entry.Date()
	if err != nil {
		br.logger.Warn("entry has no mappable date, skipping derivation", "entry_id", entry.ID, "err", err)
		return
	}

	draft := derivedDraft(entry, date, false)
	if br.isDuplicate(draft) {
		br.logger.Debug("derived transaction already present", "entry_id", entry.ID)
	} else {
		ctx, cancel := br.opContext()
		_, result, err := br.ledger.Create(ctx, draft)
		cancel()
		if err != nil {
			br.logger.Warn("derivation failed", "entry_id", entry.ID, "err", err)
			return
		}
		br.logger.Debug("derived transaction created", "entry_id", entry.ID, "tier", result.String())
	}

	if entry.Category == models.CategoryFixed {
		br.synthesizeFutureBills(entry, date)
	}
}

// synthesizeFutureBills implements rule 3: two bills dated one and two months
// after the derived date, written straight to the durable local tier so they
// bypass derivation entirely.
func (br *Bridge) synthesizeFutureBills(entry models.WeeklyBudgetEntry, date time.Time) {
	for i := 1; i <= futureBillCount; i++ {
		draft := derivedDraft(entry, date.AddDate(0, i, 0), true)
		if br.isDuplicate(draft) {
			continue
		}
		br.writeFutureBill(entry.ID, draft)
	}
}

// writeFutureBill appends one synthesized bill to the durable local tier.
func (br *Bridge) writeFutureBill(entryID string, draft models.TransactionDraft) bool {
	tx := models.Transaction{
		ID:          uuid.NewString(),
		Origin:      draft.Origin,
		Description: draft.Description,
		Amount:      draft.Amount,
		Category:    draft.Category,
		Type:        draft.Type,
		Date:        draft.Date,
		Owner:       br.ledger.Owner(),
		Metadata:    draft.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := br.ledger.Local().Append(tx); err != nil {
		br.logger.Warn("future bill persist failed", "entry_id", entryID, "err", err)
		return false
	}
	br.logger.Debug("future bill synthesized", "entry_id", entryID, "date", tx.Date.Format("2006-01-02"))
	return true
}

// onEntryUpdated implements the update half of rule 5: description, amount
// and week changes propagate to every derived transaction. Week changes
// re-date the transactions while keeping each future bill's month offset.
func (br *Bridge) onEntryUpdated(id string, patch models.EntryPatch) {
	ctx, cancel := br.opContext()
	defer cancel()

	if patch.Description != nil || patch.Amount != nil {
		mirror := models.TransactionPatch{Description: patch.Description, Amount: patch.Amount}
		br.ledger.UpdateBySourceEntry(ctx, id, mirror)
	}

	if patch.Week == nil {
		return
	}
	entry, ok := br.weekly.Get(id)
	if !ok {
		return
	}
	base, err := entry.Date()
	if err != nil {
		br.logger.Warn("cannot re-date derived transactions", "entry_id", id, "err", err)
		return
	}

	for _, tx := range br.ledger.List(ctx) {
		if tx.SourceEntryID() != id {
			continue
		}
		offset := 0
		if tx.IsFutureBill() {
			offset = monthOffset(base, tx.Date)
		}
		newDate := base.AddDate(0, offset, 0)
		meta := *tx.Metadata
		meta.SourceWeek = entry.Week
		if _, err := br.ledger.Update(ctx, tx.ID, models.TransactionPatch{Date: &newDate, Metadata: &meta}); err != nil {
			br.logger.Warn("derived transaction re-date failed", "tx_id", tx.ID, "err", err)
		}
	}
}

// onEntryDeleted implements the delete half of rule 5: the entry's derived
// transactions go with it.
func (br *Bridge) onEntryDeleted(id string) {
	ctx, cancel := br.opContext()
	defer cancel()
	removed := br.ledger.DeleteBySourceEntry(ctx, id)
	br.logger.Debug("derived transactions removed with entry", "entry_id", id, "count", removed)
}

// isDuplicate implements rule 4: durable storage is checked for an existing
// record with identical description, amount, origin and source entry before
// any derived insert.
func (br *Bridge) isDuplicate(draft models.TransactionDraft) bool {
	key := draft.DedupKey()
	if br.ledger.Local().HasDedupKey(key) {
		return true
	}
	for _, tx := range br.ledger.Snapshot() {
		if tx.DedupKey() == key {
			return true
		}
	}
	return false
}

func (br *Bridge) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// derivedDraft maps an entry to the transaction it implies. Fixed entries are
// labelled with their category name; everything else carries the literal
// Weekly Budget origin.
func derivedDraft(entry models.WeeklyBudgetEntry, date time.Time, futureBill bool) models.TransactionDraft {
	typ := models.TypeExpense
	if entry.Category == models.CategoryIncome {
		typ = models.TypeIncome
	}
	origin := models.WeeklyBudgetOrigin
	if entry.Category == models.CategoryFixed {
		origin = string(entry.Category)
	}
	return models.TransactionDraft{
		Origin:      origin,
		Description: entry.Description,
		Amount:      entry.Amount,
		Category:    entry.Category,
		Type:        typ,
		Date:        date,
		Metadata: &models.Metadata{
			SourceEntryID: entry.ID,
			SourceWeek:    entry.Week,
			SourceMonth:   entry.Month,
			SourceYear:    entry.Year,
			IsFutureBill:  futureBill,
		},
	}
}

// monthOffset counts whole calendar months from base to d.
func monthOffset(base, d time.Time) int {
	return (d.Year()*12 + int(d.Month())) - (base.Year()*12 + int(base.Month()))
}
