package importer

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

func (i *Importer) parseXLS(data []byte) ([]models.TransactionDraft, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}

	rows := workbook.ReadAllCells(5000)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data found in sheet", ErrMalformedRow)
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var drafts []models.TransactionDraft
	for idx, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		draft, err := cols.rowToDraft(row, idx+2)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}
