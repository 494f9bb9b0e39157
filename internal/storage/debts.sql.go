package storage

import (
	"context"
	"database/sql"

	"contas/internal/core"
)

const createDebt = `
INSERT INTO debts (user_id, name, total_cents, due_date, notes)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) CreateDebt(ctx context.Context, userID int64, in core.DebtInput) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createDebt,
		userID, in.Name, in.Total.Cents, nullDate(in.DueDate), nullString(in.Notes),
	).Scan(&id)
	return id, wrap("create debt", err)
}

const debtColumns = `id, user_id, name, total_cents, paid_cents, due_date, status, notes`

func scanDebt(row interface{ Scan(...any) error }) (core.Debt, error) {
	var (
		d          core.Debt
		due, notes sql.NullString
		status     string
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Total.Cents, &d.Paid.Cents, &due, &status, &notes); err != nil {
		return core.Debt{}, err
	}
	d.DueDate = parseNullDate(due)
	d.Status = core.DebtStatus(status)
	d.Notes = notes.String
	return d, nil
}

const getDebt = `SELECT ` + debtColumns + ` FROM debts WHERE id = ? AND user_id = ?`

func (q *Queries) GetDebt(ctx context.Context, userID, debtID int64) (core.Debt, error) {
	d, err := scanDebt(q.db.QueryRowContext(ctx, getDebt, debtID, userID))
	return d, notFound("debt", debtID, "get debt", err)
}

// listDebts puts pending debts first, then orders by due date with undated
// debts last.
const listDebts = `SELECT ` + debtColumns + `
FROM debts
WHERE user_id = ?
ORDER BY CASE status WHEN 'pending' THEN 0 ELSE 1 END,
         due_date IS NULL,
         due_date,
         id
`

func (q *Queries) ListDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	rows, err := q.db.QueryContext(ctx, listDebts, userID)
	if err != nil {
		return nil, wrap("list debts", err)
	}
	defer rows.Close()
	var items []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, wrap("scan debt", err)
		}
		items = append(items, d)
	}
	return items, wrap("list debts", rows.Err())
}

// applyDebtPayment only succeeds while the debt is pending and the payment
// fits in the open balance.
const applyDebtPayment = `
UPDATE debts
SET paid_cents = paid_cents + ?1
WHERE id = ?2 AND user_id = ?3 AND status = 'pending' AND paid_cents + ?1 <= total_cents
`

// ApplyDebtPayment increments the paid amount with a compare-and-swap. It
// reports false when the predicate did not hold.
func (q *Queries) ApplyDebtPayment(ctx context.Context, userID, debtID int64, amount core.Money) (bool, error) {
	res, err := q.db.ExecContext(ctx, applyDebtPayment, amount.Cents, debtID, userID)
	if err != nil {
		return false, wrap("apply debt payment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("apply debt payment", err)
	}
	return n == 1, nil
}

const markDebtPaid = `UPDATE debts SET status = 'paid' WHERE id = ? AND status = 'pending'`

func (q *Queries) MarkDebtPaid(ctx context.Context, debtID int64) error {
	_, err := q.db.ExecContext(ctx, markDebtPaid, debtID)
	return wrap("mark debt paid", err)
}

const openDebtTotal = `
SELECT COALESCE(SUM(total_cents - paid_cents), 0)
FROM debts
WHERE user_id = ? AND status = 'pending'
`

func (q *Queries) OpenDebtTotal(ctx context.Context, userID int64) (core.Money, error) {
	var m core.Money
	err := q.db.QueryRowContext(ctx, openDebtTotal, userID).Scan(&m.Cents)
	return m, wrap("open debt total", err)
}
