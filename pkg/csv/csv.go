// Package csv renders ledger transactions as CSV for download and CLI export.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

// FilterFunc decides whether a transaction makes it into the output.
type FilterFunc func(models.Transaction) bool

var header = []string{"Date", "Origin", "Description", "Category", "Type", "Amount"}

// Create renders the transactions, applying the optional filter.
func Create(records []models.Transaction, filter FilterFunc) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for _, tx := range records {
		if filter != nil && !filter(tx) {
			continue
		}
		_ = w.Write([]string{
			tx.Date.Format("2006-01-02"),
			tx.Origin,
			tx.Description,
			string(tx.Category),
			string(tx.Type),
			fmt.Sprintf("%.2f", tx.Amount),
		})
	}
	w.Flush()
	return buf.Bytes()
}
