package storage

import (
	"context"

	"contas/internal/core"
)

const listUnmirrored = `SELECT ` + transactionColumns + `
FROM transactions t
JOIN accounts a ON a.id = t.account_id
LEFT JOIN transaction_mirror m ON m.transaction_id = t.id
WHERE m.transaction_id IS NULL
ORDER BY t.id
LIMIT ?
`

// ListUnmirrored returns the oldest transactions not yet copied to the
// spreadsheet mirror.
func (q *Queries) ListUnmirrored(ctx context.Context, limit int) ([]core.Transaction, error) {
	return q.queryTransactions(ctx, "list unmirrored", listUnmirrored, limit)
}

const listUnmirroredByIDs = `SELECT ` + transactionColumns + `
FROM transactions t
JOIN accounts a ON a.id = t.account_id
LEFT JOIN transaction_mirror m ON m.transaction_id = t.id
WHERE m.transaction_id IS NULL AND t.id IN (SELECT value FROM json_each(?))
ORDER BY t.id
`

// ListUnmirroredByIDs narrows ids to the transactions still missing from the mirror.
func (q *Queries) ListUnmirroredByIDs(ctx context.Context, ids []int64) ([]core.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return q.queryTransactions(ctx, "list unmirrored by ids", listUnmirroredByIDs, int64JSON(ids))
}

const markMirrored = `
INSERT INTO transaction_mirror (transaction_id, sheet_ref)
VALUES (?, ?)
ON CONFLICT (transaction_id) DO NOTHING
`

func (q *Queries) MarkMirrored(ctx context.Context, transactionID int64, ref string) error {
	_, err := q.db.ExecContext(ctx, markMirrored, transactionID, ref)
	return wrap("mark mirrored", err)
}

const countMirrored = `SELECT COUNT(*) FROM transaction_mirror`

func (q *Queries) CountMirrored(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countMirrored).Scan(&n)
	return n, wrap("count mirrored", err)
}
