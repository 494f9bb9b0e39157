package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/sheets/memory"
	"contas/internal/storage"
)

type fixture struct {
	repo    *storage.SQLiteRepository
	mirror  *memory.Mirror
	worker  *MirrorWorker
	userID  int64
	account int64
}

func newFixture(t *testing.T, batch int) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	var u core.User
	err = repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		u, err = storage.ProvisionUser(ctx, q, storage.CreateUserParams{
			Name:         "Ana",
			Email:        "ana@example.com",
			PasswordHash: "x",
			Role:         core.RoleUser,
			Status:       core.StatusActive,
		})
		return err
	})
	require.NoError(t, err)
	acc, err := repo.Queries().GetAccountByCategory(ctx, u.ID, core.CategoryExpenses)
	require.NoError(t, err)

	m := memory.New()
	return &fixture{repo: repo, mirror: m, worker: NewMirrorWorker(repo, m, batch), userID: u.ID, account: acc.ID}
}

func (f *fixture) insert(t *testing.T, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := f.repo.Queries().InsertTransaction(context.Background(), storage.InsertTransactionParams{
			UserID:      f.userID,
			AccountID:   f.account,
			Date:        core.NewDate(2025, 3, i%28+1),
			Kind:        core.Expense,
			Amount:      core.Money{Cents: int64(100 + i)},
			Description: "coffee",
			Category:    "food",
			Tag:         core.TagOrdinary,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestHandleLedgerEventIsIdempotent(t *testing.T) {
	f := newFixture(t, 10)
	ids := f.insert(t, 2)
	ctx := context.Background()

	ev := core.LedgerEvent{UserID: f.userID, TransactionIDs: ids, Reason: core.ReasonTransaction}
	require.NoError(t, f.worker.HandleLedgerEvent(ctx, ev))
	require.NoError(t, f.worker.HandleLedgerEvent(ctx, ev))

	require.Len(t, f.mirror.Rows(), 2)
	n, err := f.repo.Queries().CountMirrored(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestHandleMessage(t *testing.T) {
	f := newFixture(t, 10)
	ids := f.insert(t, 1)

	msg := amqp.NewLedgerEventMessage(core.LedgerEvent{UserID: f.userID, TransactionIDs: ids, Reason: core.ReasonTransaction})
	require.NoError(t, f.worker.HandleMessage(context.Background(), msg))
	require.Len(t, f.mirror.Rows(), 1)
}

func TestEventWithoutTransactions(t *testing.T) {
	f := newFixture(t, 10)
	require.NoError(t, f.worker.HandleLedgerEvent(context.Background(), core.LedgerEvent{UserID: f.userID, Reason: core.ReasonDebtCreated}))
	require.Empty(t, f.mirror.Rows())
}

func TestProcessPendingBatches(t *testing.T) {
	f := newFixture(t, 3)
	f.insert(t, 7)
	ctx := context.Background()

	n, err := f.worker.ProcessPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	total, err := f.worker.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, f.mirror.Rows(), 7)

	n, err = f.worker.ProcessPending(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMirrorFailureLeavesRowsPending(t *testing.T) {
	f := newFixture(t, 10)
	f.insert(t, 2)
	ctx := context.Background()

	f.mirror.Err = errors.New("quota exceeded")
	_, err := f.worker.ProcessPending(ctx)
	require.Error(t, err)

	f.mirror.Err = nil
	n, err := f.worker.ProcessPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, 10)
	f.insert(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return len(f.mirror.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
