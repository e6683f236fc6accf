package importer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

func testImporter() *Importer {
	return New(log.New(io.Discard))
}

const validCSV = `Date,Month,Type,Category,Description,Amount,Frequency
2025-06-10,June,income,Income,Salary,"5000",Monthly
15/06/2025,June,expense,Variable,Groceries,$150.25,

2025-06-20,June,expense,Fixed,Rent,"R$1200",Monthly
`

func TestProcessBytesCSV(t *testing.T) {
	drafts, err := testImporter().ProcessBytes([]byte(validCSV), "statement.csv")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}

	salary := drafts[0]
	if salary.Type != models.TypeIncome || salary.Category != models.CategoryIncome {
		t.Errorf("unexpected salary draft: %+v", salary)
	}
	if salary.Amount != 5000 {
		t.Errorf("expected amount 5000, got %v", salary.Amount)
	}
	if !salary.Date.Equal(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", salary.Date)
	}
	if salary.Origin != "Salary" || salary.Description != "Salary" {
		t.Errorf("description cell should set both origin and description: %+v", salary)
	}

	groceries := drafts[1]
	if groceries.Amount != 150.25 {
		t.Errorf("currency symbol should be stripped, got %v", groceries.Amount)
	}
	if !groceries.Date.Equal(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day-first date should parse, got %v", groceries.Date)
	}

	if drafts[2].Amount != 1200 {
		t.Errorf("R$ amount should parse to 1200, got %v", drafts[2].Amount)
	}
}

func TestMalformedRowAbortsBatch(t *testing.T) {
	const csvData = `Date,Type,Category,Description,Amount
2025-06-10,income,Income,Salary,5000
2025-06-11,income,Income,Bonus,not-a-number
2025-06-12,expense,Variable,Fuel,80
`
	drafts, err := testImporter().ProcessBytes([]byte(csvData), "statement.csv")
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
	if drafts != nil {
		t.Errorf("no drafts may survive a malformed batch, got %d", len(drafts))
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error should name the offending row: %v", err)
	}
}

func TestMissingRequiredColumn(t *testing.T) {
	const csvData = `Date,Type,Description,Amount
2025-06-10,income,Salary,5000
`
	if _, err := testImporter().ProcessBytes([]byte(csvData), "statement.csv"); !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow for missing Category column, got %v", err)
	}
}

func TestNegativeAmountNormalized(t *testing.T) {
	const csvData = `Date,Type,Category,Description,Amount
2025-06-10,expense,Variable,Fuel,-80.50
`
	drafts, err := testImporter().ProcessBytes([]byte(csvData), "statement.csv")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if drafts[0].Amount != 80.50 {
		t.Errorf("sign belongs to the type, amount should be 80.50, got %v", drafts[0].Amount)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := testImporter().ProcessBytes([]byte("{}"), "statement.json"); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}

func TestEmptyFile(t *testing.T) {
	if _, err := testImporter().ProcessBytes(nil, "statement.csv"); !errors.Is(err, ErrMalformedRow) {
		t.Errorf("expected ErrMalformedRow for an empty file, got %v", err)
	}
}
