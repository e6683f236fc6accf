// Package weekly owns the weekly budget entries: planned amounts keyed by
// (week, month, year, category). Uniqueness is logical, enforced by the
// entry fingerprint rather than by id; duplicate writes are silently dropped.
// The entry set lives in the same durable envelope as the local ledger tier,
// so entries and their derived transactions survive restarts together.
package weekly

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/HelioWoi/liveplan3/pkg/bus"
	"github.com/HelioWoi/liveplan3/pkg/localstore"
	"github.com/HelioWoi/liveplan3/pkg/models"
)

type Store struct {
	mu      sync.RWMutex
	logger  *log.Logger
	bus     *bus.Bus
	local   *localstore.Store
	entries []models.WeeklyBudgetEntry
}

// New hydrates the entry set from the durable tier.
func New(local *localstore.Store, b *bus.Bus, logger *log.Logger) *Store {
	return &Store{
		logger:  logger,
		bus:     b,
		local:   local,
		entries: local.WeeklyEntries(),
	}
}

// Entries returns a snapshot of all entries.
func (s *Store) Entries() []models.WeeklyBudgetEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WeeklyBudgetEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntriesFor returns the entries in a (week, month, year) bucket.
func (s *Store) EntriesFor(week models.Week, month string, year int) []models.WeeklyBudgetEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.WeeklyBudgetEntry
	for _, e := range s.entries {
		if e.Week == week && e.Month == month && e.Year == year {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (models.WeeklyBudgetEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.WeeklyBudgetEntry{}, false
}

// AddEntry inserts an entry unless one with the same fingerprint already
// exists, in which case the call is a silent no-op. User-created entries are
// announced on the bus so the bridge can derive a matching transaction;
// system-created entries never re-trigger derivation, which breaks the
// feedback cycle. The announcement is fire-and-forget: a failing listener
// does not roll back the insertion.
func (s *Store) AddEntry(entry models.WeeklyBudgetEntry) (models.WeeklyBudgetEntry, bool) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Source == "" {
		entry.Source = models.SourceUser
	}
	if entry.Source == models.SourceUser {
		entry.SyncToTransactions = true
	}

	s.mu.Lock()
	fingerprint := entry.Fingerprint()
	for i := range s.entries {
		if s.entries[i].Fingerprint() == fingerprint {
			s.mu.Unlock()
			s.logger.Debug("duplicate entry suppressed", "fingerprint", fingerprint)
			return s.entries[i], false
		}
	}
	s.entries = append(s.entries, entry)
	s.persistLocked()
	s.mu.Unlock()

	if !entry.SystemCreated() {
		s.bus.PublishEntryAdded(entry)
	}
	return entry, true
}

// UpdateEntry patches an entry and announces the change so derived
// transactions can mirror description/amount/week.
func (s *Store) UpdateEntry(id string, patch models.EntryPatch) (models.WeeklyBudgetEntry, bool) {
	s.mu.Lock()
	var updated models.WeeklyBudgetEntry
	found := false
	for i := range s.entries {
		if s.entries[i].ID == id {
			patch.Apply(&s.entries[i])
			updated = s.entries[i]
			found = true
			break
		}
	}
	if found {
		s.persistLocked()
	}
	s.mu.Unlock()

	if !found {
		return models.WeeklyBudgetEntry{}, false
	}
	s.bus.PublishEntryUpdated(id, patch)
	return updated, true
}

// DeleteEntry removes an entry and announces the deletion so every derived
// transaction goes with it.
func (s *Store) DeleteEntry(id string) bool {
	s.mu.Lock()
	found := false
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			found = true
			break
		}
	}
	if found {
		s.persistLocked()
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	s.bus.PublishEntryDeleted(id)
	return true
}

// MoveEntryToWeek changes only the entry's week; month and year stay put.
func (s *Store) MoveEntryToWeek(id string, target models.Week) (models.WeeklyBudgetEntry, bool) {
	if !target.Valid() {
		return models.WeeklyBudgetEntry{}, false
	}
	week := target
	return s.UpdateEntry(id, models.EntryPatch{Week: &week})
}

// AddRecurring inserts the base entry plus every future occurrence the policy
// implies. The policy is expanded before anything is stored, so an
// unrecognized policy inserts nothing. Each occurrence goes through AddEntry,
// so dedup and derivation apply uniformly.
func (s *Store) AddRecurring(entry models.WeeklyBudgetEntry, policy RepeatPolicy) (int, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	occurrences, err := Expand(entry, policy)
	if err != nil {
		s.logger.Warn("recurrence expansion failed closed", "policy", string(policy), "err", err)
		return 0, err
	}

	count := 0
	if _, inserted := s.AddEntry(entry); inserted {
		count++
	}
	for _, occ := range occurrences {
		if _, ok := s.AddEntry(occ); ok {
			count++
		}
	}
	return count, nil
}

// persistLocked flushes the entry set to the durable tier. The write is
// best-effort: a failed flush keeps the in-memory state serving reads.
func (s *Store) persistLocked() {
	snapshot := make([]models.WeeklyBudgetEntry, len(s.entries))
	copy(snapshot, s.entries)
	if err := s.local.SaveWeeklyEntries(snapshot); err != nil {
		s.logger.Warn("weekly entry persist failed", "err", err)
	}
}
