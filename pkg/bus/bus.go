// Package bus is the in-process notification channel the stores and the
// reconciliation bridge fan out through. Delivery is synchronous, in
// subscription order, fire-and-forget: listeners get no ordering guarantee
// relative to each other and publishers get no delivery confirmation. A
// panicking listener is recovered and logged so one consumer cannot take the
// publisher down.
package bus

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

type Bus struct {
	mu     sync.RWMutex
	logger *log.Logger

	incomeCreated []func(models.Transaction)
	entryAdded    []func(models.WeeklyBudgetEntry)
	entryUpdated  []func(string, models.EntryPatch)
	entryDeleted  []func(string)
	ledgerChanged []func()
}

func New(logger *log.Logger) *Bus {
	return &Bus{logger: logger}
}

// OnIncomeCreated registers a listener for newly created income transactions.
func (b *Bus) OnIncomeCreated(fn func(models.Transaction)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.incomeCreated = append(b.incomeCreated, fn)
}

// OnEntryAdded registers a listener for weekly budget entry insertions.
func (b *Bus) OnEntryAdded(fn func(models.WeeklyBudgetEntry)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryAdded = append(b.entryAdded, fn)
}

// OnEntryUpdated registers a listener for entry patches.
func (b *Bus) OnEntryUpdated(fn func(string, models.EntryPatch)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryUpdated = append(b.entryUpdated, fn)
}

// OnEntryDeleted registers a listener for entry deletions.
func (b *Bus) OnEntryDeleted(fn func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryDeleted = append(b.entryDeleted, fn)
}

// OnLedgerChanged registers a listener for the broad invalidation signal.
func (b *Bus) OnLedgerChanged(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledgerChanged = append(b.ledgerChanged, fn)
}

func (b *Bus) PublishIncomeCreated(tx models.Transaction) {
	b.mu.RLock()
	listeners := b.incomeCreated
	b.mu.RUnlock()
	for _, fn := range listeners {
		b.deliver("income-transaction-created", func() { fn(tx) })
	}
}

func (b *Bus) PublishEntryAdded(entry models.WeeklyBudgetEntry) {
	b.mu.RLock()
	listeners := b.entryAdded
	b.mu.RUnlock()
	for _, fn := range listeners {
		b.deliver("allocation-entry-added", func() { fn(entry) })
	}
}

func (b *Bus) PublishEntryUpdated(id string, patch models.EntryPatch) {
	b.mu.RLock()
	listeners := b.entryUpdated
	b.mu.RUnlock()
	for _, fn := range listeners {
		b.deliver("allocation-entry-updated", func() { fn(id, patch) })
	}
}

func (b *Bus) PublishEntryDeleted(id string) {
	b.mu.RLock()
	listeners := b.entryDeleted
	b.mu.RUnlock()
	for _, fn := range listeners {
		b.deliver("allocation-entry-deleted", func() { fn(id) })
	}
}

func (b *Bus) PublishLedgerChanged() {
	b.mu.RLock()
	listeners := b.ledgerChanged
	b.mu.RUnlock()
	for _, fn := range listeners {
		b.deliver("ledger-changed", fn)
	}
}

// deliver runs a single listener, recovering panics so remaining listeners
// still get the event.
func (b *Bus) deliver(event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("listener panic recovered", "event", event, "panic", rec)
		}
	}()
	fn()
}
