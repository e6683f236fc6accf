// Package localstore is the durable local persistence tier: the offline /
// unauthenticated home for ledger records. All mutations are serialized
// through a single mutex and flushed with a write-temp-then-rename so the
// file is never observed half-written.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

var ErrNotFound = errors.New("transaction not found")

const dataVersion = 1

type envelope struct {
	Version        int                        `json:"version"`
	Transactions   []models.Transaction       `json:"local_transactions"`
	Pending        []models.Transaction       `json:"pending_transactions"`
	Entries        []models.WeeklyBudgetEntry `json:"weekly_entries"`
	OpeningBalance float64                    `json:"opening_balance"`
}

type Store struct {
	mu       sync.Mutex
	filePath string
	data     envelope
}

// Open loads the store at path, creating an empty one when the file does not
// exist yet.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{filePath: path, data: envelope{Version: dataVersion}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, s.persistLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	return s, nil
}

// Transactions returns a copy of the locally persisted transactions.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.data.Transactions))
	copy(out, s.data.Transactions)
	return out
}

// Append stores one transaction.
func (s *Store) Append(tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Transactions = append(s.data.Transactions, tx)
	return s.persistLocked()
}

// Update applies a patch to the transaction with the given id.
func (s *Store) Update(id string, patch models.TransactionPatch) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Transactions {
		if s.data.Transactions[i].ID != id {
			continue
		}
		patch.Apply(&s.data.Transactions[i])
		if err := s.persistLocked(); err != nil {
			return models.Transaction{}, err
		}
		return s.data.Transactions[i], nil
	}
	return models.Transaction{}, ErrNotFound
}

// Delete removes the transaction with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.data.Transactions {
		if tx.ID != id {
			continue
		}
		s.data.Transactions = append(s.data.Transactions[:i], s.data.Transactions[i+1:]...)
		return s.persistLocked()
	}
	return ErrNotFound
}

// DeleteBySourceEntry removes every transaction derived from the given weekly
// budget entry and returns how many were dropped.
func (s *Store) DeleteBySourceEntry(entryID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.Transactions[:0]
	removed := 0
	for _, tx := range s.data.Transactions {
		if tx.SourceEntryID() == entryID {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	s.data.Transactions = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked()
}

// UpdateBySourceEntry patches every transaction derived from the given entry
// and returns how many were touched.
func (s *Store) UpdateBySourceEntry(entryID string, patch models.TransactionPatch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := 0
	for i := range s.data.Transactions {
		if s.data.Transactions[i].SourceEntryID() != entryID {
			continue
		}
		patch.Apply(&s.data.Transactions[i])
		touched++
	}
	if touched == 0 {
		return 0, nil
	}
	return touched, s.persistLocked()
}

// HasDedupKey reports whether any stored transaction matches the
// description/amount/origin/source-entry duplicate key.
func (s *Store) HasDedupKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Transactions {
		if s.data.Transactions[i].DedupKey() == key {
			return true
		}
	}
	return false
}

// Clear drops every locally stored transaction for the given owner.
func (s *Store) Clear(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.Transactions[:0]
	for _, tx := range s.data.Transactions {
		if tx.Owner == owner {
			continue
		}
		kept = append(kept, tx)
	}
	s.data.Transactions = kept
	return s.persistLocked()
}

// AppendPending queues a transaction for later remote sync.
func (s *Store) AppendPending(tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Pending = append(s.data.Pending, tx)
	return s.persistLocked()
}

// DrainPending returns the queued transactions and empties the queue.
func (s *Store) DrainPending() ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.data.Pending
	s.data.Pending = nil
	return out, s.persistLocked()
}

// WeeklyEntries returns a copy of the persisted weekly budget entries.
func (s *Store) WeeklyEntries() []models.WeeklyBudgetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WeeklyBudgetEntry, len(s.data.Entries))
	copy(out, s.data.Entries)
	return out
}

// SaveWeeklyEntries replaces the persisted weekly budget entry set.
func (s *Store) SaveWeeklyEntries(entries []models.WeeklyBudgetEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Entries = make([]models.WeeklyBudgetEntry, len(entries))
	copy(s.data.Entries, entries)
	return s.persistLocked()
}

// OpeningBalance returns the stored opening balance.
func (s *Store) OpeningBalance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.OpeningBalance
}

// SetOpeningBalance stores the opening balance.
func (s *Store) SetOpeningBalance(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.OpeningBalance = v
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	s.data.Version = dataVersion
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
