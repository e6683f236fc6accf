// Package importer turns spreadsheet exports into transaction drafts for the
// ledger's bulk create. The column contract is
// Date, Month, Type, Category, Description, Amount, Frequency; Month and
// Frequency are accepted but unused. A malformed row aborts the whole batch
// before any write.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

// ErrMalformedRow marks a row missing a required column or carrying a
// non-parseable amount or date.
var ErrMalformedRow = errors.New("malformed import row")

type Importer struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Importer {
	return &Importer{logger: logger}
}

// ProcessBytes parses a spreadsheet by filename extension. Supported formats:
// .csv and legacy .xls.
func (i *Importer) ProcessBytes(data []byte, filename string) ([]models.TransactionDraft, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		i.logger.Debug("parsing csv import", "filename", filename)
		return i.parseCSV(data)
	case strings.HasSuffix(lower, ".xls"):
		i.logger.Debug("parsing xls import", "filename", filename)
		return i.parseXLS(data)
	}
	return nil, fmt.Errorf("unsupported import format: %s", filename)
}

// columns resolves the header row into column indices. Date, Type, Category
// and Amount are required.
type columns struct {
	date        int
	typ         int
	category    int
	description int
	amount      int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{date: -1, typ: -1, category: -1, description: -1, amount: -1}
	for idx, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			cols.date = idx
		case "type":
			cols.typ = idx
		case "category":
			cols.category = idx
		case "description":
			cols.description = idx
		case "amount":
			cols.amount = idx
		}
	}
	if cols.date == -1 || cols.typ == -1 || cols.category == -1 || cols.amount == -1 {
		return cols, fmt.Errorf("%w: header must carry Date, Type, Category and Amount columns", ErrMalformedRow)
	}
	return cols, nil
}

// rowToDraft converts one data row. Any parse failure is fatal for the batch.
func (c columns) rowToDraft(record []string, rowNum int) (models.TransactionDraft, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := parseDate(cell(c.date))
	if err != nil {
		return models.TransactionDraft{}, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, rowNum, err)
	}
	txType, err := models.ParseTxType(cell(c.typ))
	if err != nil {
		return models.TransactionDraft{}, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, rowNum, err)
	}
	category, err := models.ParseCategory(cell(c.category))
	if err != nil {
		return models.TransactionDraft{}, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, rowNum, err)
	}
	amount, err := parseAmount(cell(c.amount))
	if err != nil {
		return models.TransactionDraft{}, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, rowNum, err)
	}

	description := cell(c.description)
	return models.TransactionDraft{
		Origin:      description,
		Description: description,
		Amount:      amount,
		Category:    category,
		Type:        txType,
		Date:        date,
	}, nil
}
