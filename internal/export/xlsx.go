package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"contas/internal/core"
)

const transactionsSheet = "Transactions"

// WriteTransactionsXLSX writes txs to a single-sheet workbook. Amounts are
// numeric cells so the sheet can sum them.
func WriteTransactionsXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet instead of adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(TransactionHeader))
	for i, h := range TransactionHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.Date.String(),
			t.AccountName,
			string(t.Kind),
			t.Amount.Units(),
			t.Description,
			t.Category,
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", t.ID, err)
		}
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 10, "D": 12, "E": 36, "F": 18}
	for col, width := range widths {
		if err := f.SetColWidth(transactionsSheet, col, col, width); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
