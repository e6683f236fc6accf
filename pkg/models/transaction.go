package models

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a transaction or a weekly budget entry.
type Category string

const (
	CategoryIncome       Category = "Income"
	CategoryInvestment   Category = "Investment"
	CategoryFixed        Category = "Fixed"
	CategoryVariable     Category = "Variable"
	CategoryExtra        Category = "Extra"
	CategoryAdditional   Category = "Additional"
	CategoryTax          Category = "Tax"
	CategoryInvoices     Category = "Invoices"
	CategoryContribution Category = "Contribution"
	CategoryGoal         Category = "Goal"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryIncome, CategoryInvestment, CategoryFixed, CategoryVariable,
	CategoryExtra, CategoryAdditional, CategoryTax, CategoryInvoices,
	CategoryContribution, CategoryGoal,
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// TxType carries the cash-effect direction. Amounts are always non-negative;
// the sign lives here, never on the amount.
type TxType string

const (
	TypeIncome  TxType = "income"
	TypeExpense TxType = "expense"
)

// ParseTxType resolves a transaction type case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return TypeIncome, nil
	case "expense":
		return TypeExpense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// LocalOwner is the sentinel owner for records written without a session.
const LocalOwner = "local"

// WeeklyBudgetOrigin is the origin label stamped on transactions derived from
// non-Fixed weekly budget entries.
const WeeklyBudgetOrigin = "Weekly Budget"

// paidPrefix marks a bill transaction as settled. The rewrite is one-way.
const paidPrefix = "PAID: "

// Metadata carries provenance for transactions synthesized from weekly budget
// entries.
type Metadata struct {
	SourceEntryID string `json:"source_entry_id,omitempty"`
	SourceWeek    Week   `json:"source_week,omitempty"`
	SourceMonth   string `json:"source_month,omitempty"`
	SourceYear    int    `json:"source_year,omitempty"`
	IsFutureBill  bool   `json:"is_future_bill,omitempty"`
}

// Transaction is a single ledger record.
type Transaction struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	Type        TxType    `json:"type"`
	Date        time.Time `json:"date"`
	Owner       string    `json:"owner"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionDraft is the caller-supplied portion of a transaction; the store
// fills in identity and ownership.
type TransactionDraft struct {
	Origin      string    `json:"origin"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	Type        TxType    `json:"type"`
	Date        time.Time `json:"date"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// Validate rejects drafts that would break ledger invariants.
func (d TransactionDraft) Validate() error {
	if d.Amount < 0 {
		return fmt.Errorf("amount must be non-negative, got %.2f", d.Amount)
	}
	if _, err := ParseCategory(string(d.Category)); err != nil {
		return err
	}
	if _, err := ParseTxType(string(d.Type)); err != nil {
		return err
	}
	return nil
}

// SourceEntryID returns the id of the weekly budget entry this transaction
// was derived from, or "" for directly-created transactions.
func (t *Transaction) SourceEntryID() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata.SourceEntryID
}

// IsFutureBill reports whether the transaction is a forward-dated bill
// synthesized for a Fixed entry.
func (t *Transaction) IsFutureBill() bool {
	return t.Metadata != nil && t.Metadata.IsFutureBill
}

// IsPaid reports whether the transaction has been marked paid.
func (t *Transaction) IsPaid() bool {
	return strings.HasPrefix(t.Origin, paidPrefix)
}

// MarkPaid rewrites the origin to the paid form. Once marked, further calls
// are no-ops so the transition is terminal.
func (t *Transaction) MarkPaid(paidAt time.Time) bool {
	if t.IsPaid() {
		return false
	}
	t.Origin = fmt.Sprintf("%s%s (%s)", paidPrefix, t.Origin, paidAt.Format("2006-01-02"))
	return true
}

// DedupKey is the duplicate-suppression key checked before inserting derived
// transactions: description, amount, origin, source entry and date. The date
// keeps a Fixed entry's forward-dated bills distinct from its current
// transaction, which shares the other four fields.
func (t *Transaction) DedupKey() string {
	return fmt.Sprintf("%s|%.2f|%s|%s|%s", t.Description, t.Amount, t.Origin, t.SourceEntryID(), t.Date.Format("2006-01-02"))
}

// DedupKey mirrors Transaction.DedupKey for a draft not stored yet.
func (d TransactionDraft) DedupKey() string {
	sourceID := ""
	if d.Metadata != nil {
		sourceID = d.Metadata.SourceEntryID
	}
	return fmt.Sprintf("%s|%.2f|%s|%s|%s", d.Description, d.Amount, d.Origin, sourceID, d.Date.Format("2006-01-02"))
}
