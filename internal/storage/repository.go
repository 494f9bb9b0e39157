package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"contas/internal/core"

	_ "modernc.org/sqlite"
)

// dsnPragmas enables foreign keys, waits on locks and takes the write lock
// at BEGIN so read-then-write transactions cannot deadlock.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens so every connection sees the schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Queries returns statements bound to the connection pool, for reads.
func (r *SQLiteRepository) Queries() *Queries {
	return r.queries
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return wrap("ping", r.db.PingContext(ctx))
}

// InTx runs fn inside one SQL transaction. Any error returned by fn, or a
// panic, rolls back every write fn made.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}

// ProvisionUser inserts a user and the default account pair. It must run
// inside InTx so a failure leaves no partial user behind.
func ProvisionUser(ctx context.Context, q *Queries, arg CreateUserParams) (core.User, error) {
	id, err := q.CreateUser(ctx, arg)
	if err != nil {
		return core.User{}, err
	}
	for _, a := range core.DefaultAccounts() {
		if err := q.CreateAccount(ctx, id, a); err != nil {
			return core.User{}, err
		}
	}
	return q.GetUser(ctx, id)
}

// EnsureUser creates the user with its accounts when no user has that email,
// and tops up missing default accounts otherwise. hash is called only when
// the user has to be created. Safe to run on every start.
func (r *SQLiteRepository) EnsureUser(ctx context.Context, arg CreateUserParams, hash func() (string, error)) (core.User, bool, error) {
	var (
		user    core.User
		created bool
	)
	err := r.InTx(ctx, func(q *Queries) error {
		existing, err := q.GetUserByEmail(ctx, arg.Email)
		switch {
		case err == nil:
			user = existing
			for _, a := range core.DefaultAccounts() {
				if err := q.CreateAccount(ctx, existing.ID, a); err != nil {
					return err
				}
			}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if arg.PasswordHash, err = hash(); err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user, err = ProvisionUser(ctx, q, arg)
		created = err == nil
		return err
	})
	return user, created, err
}
