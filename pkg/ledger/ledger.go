// Package ledger owns the canonical transaction list. Writes try the hosted
// backend first and degrade to the durable local tier when no session is
// present or the remote write fails; reads see an optimistic in-memory view
// immediately.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/HelioWoi/liveplan3/pkg/bus"
	"github.com/HelioWoi/liveplan3/pkg/localstore"
	"github.com/HelioWoi/liveplan3/pkg/models"
	"github.com/HelioWoi/liveplan3/pkg/remote"
)

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrNotAuthenticated = remote.ErrNotAuthenticated
)

// PersistenceResult tells callers which tier actually stored a record.
type PersistenceResult int

const (
	PersistedRemote PersistenceResult = iota
	PersistedLocalFallback
	PersistFailed
)

func (r PersistenceResult) String() string {
	switch r {
	case PersistedRemote:
		return "remote"
	case PersistedLocalFallback:
		return "local-fallback"
	default:
		return "failed"
	}
}

type Store struct {
	mu      sync.RWMutex
	logger  *log.Logger
	bus     *bus.Bus
	remote  *remote.TransactionService
	local   *localstore.Store
	session *remote.Session
	cache   []models.Transaction
}

func New(client *remote.Client, local *localstore.Store, b *bus.Bus, logger *log.Logger) *Store {
	var txs *remote.TransactionService
	if client != nil {
		txs = client.Transactions()
	}
	return &Store{
		logger: logger,
		bus:    b,
		remote: txs,
		local:  local,
	}
}

// SetSession installs (or clears, with nil) the authenticated session.
func (s *Store) SetSession(session *remote.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *Store) currentSession() *remote.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Owner returns the identity new records are stamped with: the session owner
// when authenticated, the local sentinel otherwise. Collaborators writing to
// the local tier directly use it so their records stay inside the scope that
// Clear operates on.
func (s *Store) Owner() string {
	if session := s.currentSession(); session.Authenticated() {
		return session.Owner
	}
	return models.LocalOwner
}

// Local exposes the durable local tier for collaborators that write to it
// directly (the reconciliation bridge's future bills).
func (s *Store) Local() *localstore.Store {
	return s.local
}

// Snapshot returns the current in-memory view without touching either tier.
func (s *Store) Snapshot() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, len(s.cache))
	copy(out, s.cache)
	return out
}

// List refreshes the in-memory view from both tiers and returns it. The union
// is remote-first; when the same id exists in both tiers the remote row wins.
// A remote read failure degrades to the local tier only.
func (s *Store) List(ctx context.Context) []models.Transaction {
	session := s.currentSession()

	var merged []models.Transaction
	seen := map[string]bool{}

	if s.remote != nil && session.Authenticated() {
		rows, err := s.remote.List(ctx, session)
		if err != nil {
			s.logger.Warn("remote list failed, serving local tier only", "err", err)
		}
		for _, tx := range rows {
			merged = append(merged, tx)
			seen[tx.ID] = true
		}
	}

	for _, tx := range s.local.Transactions() {
		if seen[tx.ID] {
			continue
		}
		merged = append(merged, tx)
	}

	s.mu.Lock()
	s.cache = merged
	s.mu.Unlock()

	out := make([]models.Transaction, len(merged))
	copy(out, merged)
	return out
}

// Create persists a draft, preferring the remote tier. Any remote failure, or
// the absence of a session, falls back to durable local storage; the record
// is always appended to the in-memory view so readers observe it immediately.
func (s *Store) Create(ctx context.Context, draft models.TransactionDraft) (models.Transaction, PersistenceResult, error) {
	if err := draft.Validate(); err != nil {
		return models.Transaction{}, PersistFailed, err
	}

	tx := models.Transaction{
		ID:          uuid.NewString(),
		Origin:      draft.Origin,
		Description: draft.Description,
		Amount:      draft.Amount,
		Category:    draft.Category,
		Type:        draft.Type,
		Date:        draft.Date,
		Owner:       s.Owner(),
		Metadata:    draft.Metadata,
		CreatedAt:   time.Now().UTC(),
	}

	result := PersistedLocalFallback
	session := s.currentSession()
	if s.remote != nil && session.Authenticated() {
		if err := s.remote.Create(ctx, session, tx); err != nil {
			s.logger.Warn("remote create failed, falling back to local tier", "id", tx.ID, "err", err)
		} else {
			result = PersistedRemote
		}
	}

	if result == PersistedLocalFallback {
		if err := s.local.Append(tx); err != nil {
			return models.Transaction{}, PersistFailed, fmt.Errorf("local persist: %w", err)
		}
		// Queue for a later push so the record reaches the remote tier once
		// a session shows up.
		if err := s.local.AppendPending(tx); err != nil {
			s.logger.Warn("pending queue append failed", "id", tx.ID, "err", err)
		}
	}

	s.mu.Lock()
	s.cache = append(s.cache, tx)
	s.mu.Unlock()

	if tx.Category == models.CategoryIncome || tx.Type == models.TypeIncome {
		s.bus.PublishIncomeCreated(tx)
	}
	s.bus.PublishLedgerChanged()

	return tx, result, nil
}

// Update patches a transaction in place. Locally stored records are patched
// without a session; remote-only records require one.
func (s *Store) Update(ctx context.Context, id string, patch models.TransactionPatch) (models.Transaction, error) {
	updated, err := s.local.Update(id, patch)
	if err == nil {
		s.patchCache(id, patch)
		s.bus.PublishLedgerChanged()
		return updated, nil
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		return models.Transaction{}, err
	}

	session := s.currentSession()
	if s.remote == nil || !session.Authenticated() {
		return models.Transaction{}, ErrNotAuthenticated
	}
	if err := s.remote.Update(ctx, session, id, patch); err != nil {
		return models.Transaction{}, err
	}

	tx, ok := s.patchCache(id, patch)
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	s.bus.PublishLedgerChanged()
	return tx, nil
}

// Delete removes a transaction. Remote-backed records require a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.local.Delete(id)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return err
	}
	if errors.Is(err, localstore.ErrNotFound) {
		session := s.currentSession()
		if s.remote == nil || !session.Authenticated() {
			return ErrNotAuthenticated
		}
		if err := s.remote.Delete(ctx, session, id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	for i, tx := range s.cache {
		if tx.ID == id {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.bus.PublishLedgerChanged()
	return nil
}

// Clear removes every transaction for the current owner on both tiers. Used
// before a bulk import.
func (s *Store) Clear(ctx context.Context) error {
	session := s.currentSession()
	if s.remote != nil && session.Authenticated() {
		if err := s.remote.DeleteAll(ctx, session); err != nil {
			return err
		}
	}
	if err := s.local.Clear(s.Owner()); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()

	s.bus.PublishLedgerChanged()
	return nil
}

// BulkCreate persists drafts one by one. A failing record is reported but
// does not roll back earlier successes; callers must assume partial success.
func (s *Store) BulkCreate(ctx context.Context, drafts []models.TransactionDraft) ([]models.Transaction, error) {
	created := make([]models.Transaction, 0, len(drafts))
	var errs []error
	for i, draft := range drafts {
		tx, _, err := s.Create(ctx, draft)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		created = append(created, tx)
	}
	return created, errors.Join(errs...)
}

// MarkBillPaid rewrites a bill transaction's origin to the paid form. Calling
// it on an already-paid transaction is a no-op; the transition is one-way.
func (s *Store) MarkBillPaid(ctx context.Context, id string, paidAt time.Time) (models.Transaction, bool, error) {
	tx, ok := s.find(id)
	if !ok {
		return models.Transaction{}, false, ErrNotFound
	}
	if !tx.MarkPaid(paidAt) {
		return tx, false, nil
	}
	origin := tx.Origin
	updated, err := s.Update(ctx, id, models.TransactionPatch{Origin: &origin})
	if err != nil {
		return models.Transaction{}, false, err
	}
	return updated, true, nil
}

// DeleteBySourceEntry removes every transaction derived from the given weekly
// budget entry, on both tiers. Best-effort on the remote side.
func (s *Store) DeleteBySourceEntry(ctx context.Context, entryID string) int {
	removed, err := s.local.DeleteBySourceEntry(entryID)
	if err != nil {
		s.logger.Warn("local cascade delete failed", "entry_id", entryID, "err", err)
	}

	session := s.currentSession()
	if s.remote != nil && session.Authenticated() {
		rows, err := s.remote.List(ctx, session)
		if err != nil {
			s.logger.Warn("remote cascade list failed", "entry_id", entryID, "err", err)
		}
		for _, tx := range rows {
			if tx.SourceEntryID() != entryID {
				continue
			}
			if err := s.remote.Delete(ctx, session, tx.ID); err != nil {
				s.logger.Warn("remote cascade delete failed", "id", tx.ID, "err", err)
				continue
			}
			removed++
		}
	}

	s.mu.Lock()
	kept := s.cache[:0]
	for _, tx := range s.cache {
		if tx.SourceEntryID() == entryID {
			continue
		}
		kept = append(kept, tx)
	}
	s.cache = kept
	s.mu.Unlock()

	if removed > 0 {
		s.bus.PublishLedgerChanged()
	}
	return removed
}

// UpdateBySourceEntry propagates an entry patch to every derived transaction.
func (s *Store) UpdateBySourceEntry(ctx context.Context, entryID string, patch models.TransactionPatch) int {
	touched, err := s.local.UpdateBySourceEntry(entryID, patch)
	if err != nil {
		s.logger.Warn("local cascade update failed", "entry_id", entryID, "err", err)
	}

	session := s.currentSession()
	if s.remote != nil && session.Authenticated() {
		rows, err := s.remote.List(ctx, session)
		if err != nil {
			s.logger.Warn("remote cascade list failed", "entry_id", entryID, "err", err)
		}
		for _, tx := range rows {
			if tx.SourceEntryID() != entryID {
				continue
			}
			if err := s.remote.Update(ctx, session, tx.ID, patch); err != nil {
				s.logger.Warn("remote cascade update failed", "id", tx.ID, "err", err)
				continue
			}
			touched++
		}
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].SourceEntryID() == entryID {
			patch.Apply(&s.cache[i])
		}
	}
	s.mu.Unlock()

	if touched > 0 {
		s.bus.PublishLedgerChanged()
	}
	return touched
}

// SyncPending pushes queued local-fallback records to the remote tier. Each
// record that lands remotely is removed from the local tier; failures are
// re-queued so a later call can retry. Requires a session.
func (s *Store) SyncPending(ctx context.Context) (int, error) {
	session := s.currentSession()
	if s.remote == nil || !session.Authenticated() {
		return 0, ErrNotAuthenticated
	}

	queued, err := s.local.DrainPending()
	if err != nil {
		return 0, err
	}

	pushed := 0
	for _, tx := range queued {
		tx.Owner = session.Owner
		if err := s.remote.Create(ctx, session, tx); err != nil {
			s.logger.Warn("pending sync failed, re-queueing", "id", tx.ID, "err", err)
			if qerr := s.local.AppendPending(tx); qerr != nil {
				s.logger.Error("pending re-queue failed", "id", tx.ID, "err", qerr)
			}
			continue
		}
		if err := s.local.Delete(tx.ID); err != nil && !errors.Is(err, localstore.ErrNotFound) {
			s.logger.Warn("local cleanup after sync failed", "id", tx.ID, "err", err)
		}
		pushed++
	}

	if pushed > 0 {
		s.bus.PublishLedgerChanged()
	}
	return pushed, nil
}

func (s *Store) find(id string) (models.Transaction, bool) {
	s.mu.RLock()
	for _, tx := range s.cache {
		if tx.ID == id {
			s.mu.RUnlock()
			return tx, true
		}
	}
	s.mu.RUnlock()
	for _, tx := range s.local.Transactions() {
		if tx.ID == id {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

func (s *Store) patchCache(id string, patch models.TransactionPatch) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			patch.Apply(&s.cache[i])
			return s.cache[i], true
		}
	}
	return models.Transaction{}, false
}
