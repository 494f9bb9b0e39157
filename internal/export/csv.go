package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"contas/internal/core"
)

// TransactionHeader is the column order shared by the CSV and XLSX exports.
var TransactionHeader = []string{"Date", "Account", "Kind", "Amount", "Description", "Category"}

func transactionRecord(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.AccountName,
		string(t.Kind),
		t.Amount.String(),
		t.Description,
		t.Category,
	}
}

// WriteTransactionsCSV writes txs as UTF-8 CSV with a header row. Amounts are
// unsigned; the Kind column tells income from expense.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(transactionRecord(t)); err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
