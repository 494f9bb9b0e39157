package sheets

import (
	"context"

	"contas/internal/core"
)

// TransactionMirror copies committed transactions to an external sheet.
type TransactionMirror interface {
	// AppendTransactions appends one row per transaction, in order, and
	// returns a reference to the written range.
	AppendTransactions(ctx context.Context, txs []core.Transaction) (ref string, err error)
}

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "Date", "Account", "Kind", "Amount", "Description", "Category", "Tag", "Pair"}

// Row renders a transaction as mirror cells. Amount is signed: expenses are
// negative.
func Row(t core.Transaction) []any {
	var pair any = ""
	if t.PairID != 0 {
		pair = t.PairID
	}
	return []any{
		t.ID,
		t.Date.String(),
		t.AccountName,
		string(t.Kind),
		core.Money{Cents: t.Signed()}.String(),
		t.Description,
		t.Category,
		string(t.Tag),
		pair,
	}
}
