package models

import (
	"fmt"
	"time"
)

// Source tags who created a weekly budget entry. System-tagged entries were
// written by the reconciliation bridge reacting to an income transaction and
// must never trigger derivation themselves.
type Source string

const (
	SourceUser   Source = "user"
	SourceSystem Source = "system"
)

// WeeklyBudgetEntry is a planned amount assigned to a week of a month,
// independent of the ledger.
type WeeklyBudgetEntry struct {
	ID                 string   `json:"id"`
	Source             Source   `json:"source"`
	Week               Week     `json:"week"`
	Description        string   `json:"description"`
	Amount             float64  `json:"amount"`
	Category           Category `json:"category"`
	Month              string   `json:"month"`
	Year               int      `json:"year"`
	SyncToTransactions bool     `json:"sync_to_transactions,omitempty"`
}

// Fingerprint is the logical dedup key for entries. Two entries with the same
// fingerprint are duplicates regardless of id.
func (e *WeeklyBudgetEntry) Fingerprint() string {
	return fmt.Sprintf("%s|%.2f|%s|%s|%d", e.Description, e.Amount, e.Week, e.Month, e.Year)
}

// SystemCreated reports whether the entry was written by the bridge.
func (e *WeeklyBudgetEntry) SystemCreated() bool {
	return e.Source == SourceSystem
}

// Date maps the entry's bucket to the concrete date used for derived
// transactions.
func (e *WeeklyBudgetEntry) Date() (time.Time, error) {
	return BucketDate(e.Week, e.Month, e.Year)
}
