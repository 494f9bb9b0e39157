package storage

import (
	"context"
	"database/sql"
	"strings"

	"contas/internal/core"
)

const insertTransaction = `
INSERT INTO transactions (user_id, account_id, date, kind, amount_cents, description, category, tag, pair_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertTransactionParams struct {
	UserID      int64
	AccountID   int64
	Date        core.Date
	Kind        core.TxKind
	Amount      core.Money
	Description string
	Category    string
	Tag         core.TxTag
	PairID      int64
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	tag := arg.Tag
	if tag == "" {
		tag = core.TagOrdinary
	}
	var id int64
	err := q.db.QueryRowContext(ctx, insertTransaction,
		arg.UserID,
		arg.AccountID,
		arg.Date.String(),
		string(arg.Kind),
		arg.Amount.Cents,
		nullString(arg.Description),
		nullString(arg.Category),
		string(tag),
		nullInt(arg.PairID),
	).Scan(&id)
	return id, wrap("insert transaction", err)
}

const setPairID = `UPDATE transactions SET pair_id = ? WHERE id = ? AND pair_id IS NULL`

// SetPairID attaches the pair reference to a transfer leg. It is the only
// update transactions accept.
func (q *Queries) SetPairID(ctx context.Context, id, pairID int64) error {
	res, err := q.db.ExecContext(ctx, setPairID, pairID, id)
	if err != nil {
		return wrap("set pair id", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("set pair id", err)
	}
	if n == 0 {
		return core.NotFound("transaction", id)
	}
	return nil
}

const transactionColumns = `
t.id, t.user_id, t.account_id, a.name, t.date, t.kind, t.amount_cents,
t.description, t.category, t.tag, t.pair_id
`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                core.Transaction
		date, kind, tag  string
		description, cat sql.NullString
		pairID           sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.AccountName, &date, &kind,
		&t.Amount.Cents, &description, &cat, &tag, &pairID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = parseNullDate(sql.NullString{String: date, Valid: true})
	t.Kind = core.TxKind(kind)
	t.Tag = core.TxTag(tag)
	t.Description = description.String
	t.Category = cat.String
	t.PairID = pairID.Int64
	return t, nil
}

func (q *Queries) queryTransactions(ctx context.Context, op, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	var items []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, wrap("scan transaction", err)
		}
		items = append(items, t)
	}
	return items, wrap(op, rows.Err())
}

// transactionWhere renders the filter as a WHERE clause over transactions t
// joined with accounts a.
func transactionWhere(userID int64, f core.TransactionFilter) (string, []any) {
	where := []string{"t.user_id = ?"}
	args := []any{userID}
	if !f.From.IsZero() {
		where = append(where, "t.date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "t.date <= ?")
		args = append(args, f.To.String())
	}
	if f.Kind != "" {
		where = append(where, "t.kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.AccountID != 0 {
		where = append(where, "t.account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Category != "" {
		where = append(where, "LOWER(COALESCE(t.category, '')) LIKE ?")
		args = append(args, likePattern(f.Category))
	}
	if f.Text != "" {
		where = append(where, "(LOWER(COALESCE(t.description, '')) LIKE ? OR LOWER(a.name) LIKE ?)")
		p := likePattern(f.Text)
		args = append(args, p, p)
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// ListTransactions returns the user's transactions matching f, newest first.
func (q *Queries) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	f = f.Normalized()
	where, args := transactionWhere(userID, f)
	query := `SELECT ` + transactionColumns + ` FROM transactions t JOIN accounts a ON a.id = t.account_id` +
		where + ` ORDER BY t.date DESC, t.id DESC LIMIT ?`
	args = append(args, f.Limit)
	return q.queryTransactions(ctx, "list transactions", query, args...)
}

const getTransactionsByIDs = `SELECT ` + transactionColumns + `
FROM transactions t JOIN accounts a ON a.id = t.account_id
WHERE t.id IN (SELECT value FROM json_each(?))
ORDER BY t.id
`

func (q *Queries) GetTransactionsByIDs(ctx context.Context, ids []int64) ([]core.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return q.queryTransactions(ctx, "get transactions by ids", getTransactionsByIDs, int64JSON(ids))
}

const getTransaction = `SELECT ` + transactionColumns + `
FROM transactions t JOIN accounts a ON a.id = t.account_id
WHERE t.id = ? AND t.user_id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id, userID))
	return t, notFound("transaction", id, "get transaction", err)
}

// SumTotals sums ordinary income and expense of the filtered set. Transfer
// legs never count.
func (q *Queries) SumTotals(ctx context.Context, userID int64, f core.TransactionFilter) (core.Totals, error) {
	where, args := transactionWhere(userID, f.Normalized())
	query := `
SELECT
    COALESCE(SUM(CASE WHEN t.kind = 'income' THEN t.amount_cents END), 0),
    COALESCE(SUM(CASE WHEN t.kind = 'expense' THEN t.amount_cents END), 0)
FROM transactions t JOIN accounts a ON a.id = t.account_id` + where + ` AND t.tag = 'ordinary'`
	var totals core.Totals
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&totals.Income.Cents, &totals.Expense.Cents)
	return totals, wrap("sum totals", err)
}

const dailySeries = `
SELECT date,
       COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents END), 0),
       COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents END), 0)
FROM transactions
WHERE user_id = ? AND tag = 'ordinary' AND date >= ? AND date <= ?
GROUP BY date
ORDER BY date
`

// DailySeries returns one point per date with ordinary activity in [from, to].
func (q *Queries) DailySeries(ctx context.Context, userID int64, from, to core.Date) ([]core.SeriesPoint, error) {
	rows, err := q.db.QueryContext(ctx, dailySeries, userID, from.String(), to.String())
	if err != nil {
		return nil, wrap("daily series", err)
	}
	defer rows.Close()
	var points []core.SeriesPoint
	for rows.Next() {
		var (
			p    core.SeriesPoint
			date string
		)
		if err := rows.Scan(&date, &p.Income.Cents, &p.Expense.Cents); err != nil {
			return nil, wrap("scan series point", err)
		}
		p.Date = parseNullDate(sql.NullString{String: date, Valid: true})
		points = append(points, p)
	}
	return points, wrap("daily series", rows.Err())
}

// UncategorizedLabel names expenses without a category in breakdowns.
const UncategorizedLabel = "(uncategorized)"

const expenseCategories = `
SELECT COALESCE(NULLIF(TRIM(category), ''), '` + UncategorizedLabel + `') AS cat,
       SUM(amount_cents) AS total
FROM transactions
WHERE user_id = ? AND kind = 'expense' AND tag = 'ordinary' AND date >= ?
GROUP BY cat
ORDER BY total DESC, cat
`

const expenseCategoriesFolded = `
SELECT LOWER(COALESCE(NULLIF(TRIM(category), ''), '` + UncategorizedLabel + `')) AS cat,
       SUM(amount_cents) AS total
FROM transactions
WHERE user_id = ? AND kind = 'expense' AND tag = 'ordinary' AND date >= ?
GROUP BY cat
ORDER BY total DESC, cat
`

// ExpenseCategories breaks down ordinary expenses dated on or after since by
// category, largest first. With fold set, labels are lower-cased and merged.
func (q *Queries) ExpenseCategories(ctx context.Context, userID int64, since core.Date, fold bool) ([]core.CategoryAmount, error) {
	query := expenseCategories
	if fold {
		query = expenseCategoriesFolded
	}
	rows, err := q.db.QueryContext(ctx, query, userID, since.String())
	if err != nil {
		return nil, wrap("expense categories", err)
	}
	defer rows.Close()
	var items []core.CategoryAmount
	for rows.Next() {
		var c core.CategoryAmount
		if err := rows.Scan(&c.Name, &c.Amount.Cents); err != nil {
			return nil, wrap("scan category", err)
		}
		items = append(items, c)
	}
	return items, wrap("expense categories", rows.Err())
}
