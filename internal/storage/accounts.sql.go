package storage

import (
	"context"

	"contas/internal/core"
)

const createAccount = `
INSERT INTO accounts (user_id, name, bank, category)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, category) DO NOTHING
`

// CreateAccount is a no-op when the user already owns an account of that category.
func (q *Queries) CreateAccount(ctx context.Context, userID int64, a core.Account) error {
	_, err := q.db.ExecContext(ctx, createAccount, userID, a.Name, a.Bank, string(a.Category))
	return wrap("create account", err)
}

const accountColumns = `id, user_id, name, bank, category, balance_cents`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a        core.Account
		category string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Bank, &category, &a.Balance.Cents); err != nil {
		return core.Account{}, err
	}
	a.Category = core.AccountCategory(category)
	return a, nil
}

const listAccounts = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? ORDER BY id`

func (q *Queries) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, wrap("list accounts", err)
	}
	defer rows.Close()
	var items []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, wrap("scan account", err)
		}
		items = append(items, a)
	}
	return items, wrap("list accounts", rows.Err())
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND user_id = ?`

// GetAccount returns NotFoundError when the account is missing or belongs to
// another user.
func (q *Queries) GetAccount(ctx context.Context, userID, accountID int64) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, getAccount, accountID, userID))
	return a, notFound("account", accountID, "get account", err)
}

const getAccountByCategory = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? AND category = ?`

func (q *Queries) GetAccountByCategory(ctx context.Context, userID int64, c core.AccountCategory) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, getAccountByCategory, userID, string(c)))
	return a, notFound("account", 0, "get account by category", err)
}

// recomputeBalances is the only statement that writes balance_cents.
const recomputeBalances = `
UPDATE accounts
SET balance_cents = (
    SELECT COALESCE(SUM(CASE t.kind WHEN 'income' THEN t.amount_cents ELSE -t.amount_cents END), 0)
    FROM transactions t
    WHERE t.account_id = accounts.id
)
WHERE user_id = ?
`

// RecomputeBalances re-aggregates every balance of the user from its
// transactions and returns how many accounts were written.
func (q *Queries) RecomputeBalances(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, recomputeBalances, userID)
	if err != nil {
		return 0, wrap("recompute balances", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("recompute balances", err)
}
