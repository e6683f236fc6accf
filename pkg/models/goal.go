package models

import "time"

// Goal is a savings target. Contributions only ever increase CurrentAmount.
type Goal struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	TargetDate    time.Time `json:"target_date"`
	Owner         string    `json:"owner"`
	CreatedAt     time.Time `json:"created_at"`
}

// Progress returns completion as a 0..1 fraction, clamped at 1.
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CurrentAmount / g.TargetAmount
	if p > 1 {
		return 1
	}
	return p
}

// TaxEntry is a tax-estimation record kept alongside the ledger.
type TaxEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Owner       string    `json:"owner"`
}
