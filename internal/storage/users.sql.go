package storage

import (
	"context"
	"database/sql"
	"errors"

	"contas/internal/core"
)

const createUser = `
INSERT INTO users (name, email, password_hash, role, status)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         core.Role
	Status       core.UserStatus
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createUser,
		arg.Name, arg.Email, arg.PasswordHash, string(arg.Role), string(arg.Status),
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, core.Invalid("email", ErrEmailTaken)
	}
	return id, wrap("create user", err)
}

const userColumns = `id, name, email, password_hash, role, status`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u            core.User
		role, status string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &status); err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	u.Status = core.UserStatus(status)
	return u, nil
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUser, id))
	return u, notFound("user", id, "get user", err)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

// GetUserByEmail returns sql.ErrNoRows unwrapped when no user matches so
// callers can tell a miss from a failure.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, err
	}
	return u, wrap("get user by email", err)
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, wrap("list users", err)
	}
	defer rows.Close()
	var items []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("scan user", err)
		}
		items = append(items, u)
	}
	return items, wrap("list users", rows.Err())
}
