package models

import "time"

// TransactionPatch is a partial update for a ledger transaction. Nil fields
// are left untouched.
type TransactionPatch struct {
	Origin      *string    `json:"origin,omitempty"`
	Description *string    `json:"description,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Type        *TxType    `json:"type,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Metadata    *Metadata  `json:"metadata,omitempty"`
}

// Apply copies the set fields onto the transaction.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Origin != nil {
		t.Origin = *p.Origin
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Metadata != nil {
		t.Metadata = p.Metadata
	}
}

// EntryPatch is a partial update for a weekly budget entry.
type EntryPatch struct {
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Week        *Week    `json:"week,omitempty"`
}

// Apply copies the set fields onto the entry.
func (p EntryPatch) Apply(e *WeeklyBudgetEntry) {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Week != nil {
		e.Week = *p.Week
	}
}
