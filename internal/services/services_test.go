package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"contas/internal/auth"
	"contas/internal/core"
	"contas/internal/storage"
)

type testEnv struct {
	repo     *storage.SQLiteRepository
	ledger   *LedgerService
	debts    *DebtService
	reports  *ReportService
	auth     *AuthService
	admin    core.User
	savings  core.Account
	expenses core.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	env := &testEnv{
		repo:    repo,
		ledger:  NewLedgerService(repo),
		debts:   NewDebtService(repo),
		reports: NewReportService(repo, time.Minute),
		auth:    NewAuthService(repo, auth.NewIssuer("test-secret", time.Hour)),
	}
	env.auth.cost = bcrypt.MinCost
	env.ledger.OnChange(env.reports.Invalidate)
	env.debts.OnChange(env.reports.Invalidate)

	ctx := context.Background()
	env.admin, err = env.auth.EnsureAdmin(ctx, "Admin", "admin@example.com", "1234")
	require.NoError(t, err)
	env.savings, env.expenses = env.accounts(t, env.admin.ID)
	return env
}

func (e *testEnv) accounts(t *testing.T, userID int64) (savings, expenses core.Account) {
	t.Helper()
	accounts, err := e.ledger.ListAccounts(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		switch a.Category {
		case core.CategorySavings:
			savings = a
		case core.CategoryExpenses:
			expenses = a
		}
	}
	return savings, expenses
}

func (e *testEnv) balances(t *testing.T) (savings, expenses int64) {
	t.Helper()
	s, x := e.accounts(t, e.admin.ID)
	return s.Balance.Cents, x.Balance.Cents
}

func (e *testEnv) record(t *testing.T, accountID int64, kind core.TxKind, cents int64, date core.Date, category string) core.Transaction {
	t.Helper()
	tx, err := e.ledger.RecordTransaction(context.Background(), e.admin.ID, core.TransactionInput{
		AccountID: accountID,
		Kind:      kind,
		Amount:    core.Money{Cents: cents},
		Date:      date,
		Category:  category,
	})
	require.NoError(t, err)
	return tx
}

// requireBalanceInvariant checks every balance equals income minus expense
// over the account's transactions.
func requireBalanceInvariant(t *testing.T, e *testEnv, userID int64) {
	t.Helper()
	ctx := context.Background()
	accounts, err := e.ledger.ListAccounts(ctx, userID)
	require.NoError(t, err)
	for _, a := range accounts {
		txs, err := e.ledger.ListTransactions(ctx, userID, core.TransactionFilter{AccountID: a.ID})
		require.NoError(t, err)
		var sum int64
		for _, tx := range txs {
			sum += tx.Signed()
		}
		require.Equal(t, sum, a.Balance.Cents, "account %s", a.Label())
	}
}

var day = core.NewDate(2025, 3, 15)

func TestSimpleIncome(t *testing.T) {
	env := newTestEnv(t)

	tx := env.record(t, env.expenses.ID, core.Income, 100000, day, "Freelance")
	require.Equal(t, core.TagOrdinary, tx.Tag)
	require.Zero(t, tx.PairID)

	savings, expenses := env.balances(t)
	require.EqualValues(t, 0, savings)
	require.EqualValues(t, 100000, expenses)
	requireBalanceInvariant(t, env, env.admin.ID)
}

func TestRecordTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.RecordTransaction(ctx, env.admin.ID, core.TransactionInput{
		AccountID: env.expenses.ID, Kind: core.Expense, Amount: core.Money{Cents: 100}, Date: day, Category: "transfer",
	})
	require.ErrorIs(t, err, core.ErrReservedCategory)

	_, err = env.ledger.RecordTransaction(ctx, env.admin.ID, core.TransactionInput{
		AccountID: env.expenses.ID, Kind: core.Expense, Amount: core.Money{Cents: -1}, Date: day,
	})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = env.ledger.RecordTransaction(ctx, env.admin.ID, core.TransactionInput{
		AccountID: 9999, Kind: core.Expense, Amount: core.Money{Cents: 100}, Date: day,
	})
	require.True(t, core.IsNotFound(err))

	txs, err := env.ledger.ListTransactions(ctx, env.admin.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestTransferConservesTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.record(t, env.expenses.ID, core.Income, 100000, day, "")

	res, err := env.ledger.Transfer(ctx, env.admin.ID, core.TransferInput{
		FromAccountID: env.expenses.ID,
		ToAccountID:   env.savings.ID,
		Amount:        core.Money{Cents: 30000},
		Date:          day,
	})
	require.NoError(t, err)

	require.Equal(t, core.Expense, res.Expense.Kind)
	require.Equal(t, core.Income, res.Income.Kind)
	require.Equal(t, res.Expense.ID, res.Expense.PairID)
	require.Equal(t, res.Expense.ID, res.Income.PairID)
	for _, leg := range []core.Transaction{res.Expense, res.Income} {
		require.True(t, leg.IsTransferLeg())
		require.Equal(t, core.TransferCategory, leg.Category)
		require.Equal(t, "Transfer", leg.Description)
		require.Equal(t, day.String(), leg.Date.String())
	}

	savings, expenses := env.balances(t)
	require.EqualValues(t, 30000, savings)
	require.EqualValues(t, 70000, expenses)
	require.EqualValues(t, 100000, savings+expenses)
	requireBalanceInvariant(t, env, env.admin.ID)

	sum, err := env.reports.SummarizeTransactions(ctx, env.admin.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 100000, sum.AllTime.Income.Cents)
	require.EqualValues(t, 0, sum.AllTime.Expense.Cents)
}

func TestTransferRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other, err := env.auth.CreateUser(ctx, auth.Identity{UserID: env.admin.ID, Role: core.RoleAdmin}, core.NewUser{
		Name: "Other", Email: "other@example.com", Password: "secret",
	})
	require.NoError(t, err)
	otherSavings, _ := env.accounts(t, other.ID)

	cases := []struct {
		name string
		in   core.TransferInput
		want func(error) bool
	}{
		{"same account", core.TransferInput{FromAccountID: env.expenses.ID, ToAccountID: env.expenses.ID, Amount: core.Money{Cents: 1}, Date: day}, core.IsValidation},
		{"zero amount", core.TransferInput{FromAccountID: env.expenses.ID, ToAccountID: env.savings.ID, Date: day}, core.IsValidation},
		{"foreign account", core.TransferInput{FromAccountID: env.expenses.ID, ToAccountID: otherSavings.ID, Amount: core.Money{Cents: 1}, Date: day}, core.IsNotFound},
	}
	for _, tc := range cases {
		_, err := env.ledger.Transfer(ctx, env.admin.ID, tc.in)
		require.Error(t, err, tc.name)
		require.True(t, tc.want(err), "%s: unexpected error %v", tc.name, err)
	}

	txs, err := env.ledger.ListTransactions(ctx, env.admin.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.Empty(t, txs, "failed transfers must leave no legs behind")
}

func TestSalarySplit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.ledger.SalarySplit(ctx, env.admin.ID, core.SalarySplitInput{
		Amount:  core.Money{Cents: 1000000},
		Percent: decimal.NewFromInt(20),
		Date:    day,
	})
	require.NoError(t, err)
	require.Equal(t, core.SalaryCategory, res.Salary.Category)
	require.Equal(t, "Monthly salary", res.Salary.Description)
	require.Equal(t, env.expenses.ID, res.Salary.AccountID)
	require.NotNil(t, res.Transfer)
	require.EqualValues(t, 200000, res.Transfer.Expense.Amount.Cents)

	savings, expenses := env.balances(t)
	require.EqualValues(t, 200000, savings)
	require.EqualValues(t, 800000, expenses)
	requireBalanceInvariant(t, env, env.admin.ID)

	sum, err := env.reports.SummarizeTransactions(ctx, env.admin.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1000000, sum.AllTime.Income.Cents)
	require.EqualValues(t, 0, sum.AllTime.Expense.Cents)
}

func TestSalarySplitWithoutShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.ledger.SalarySplit(ctx, env.admin.ID, core.SalarySplitInput{
		Amount: core.Money{Cents: 50000}, Percent: decimal.Zero, Date: day,
	})
	require.NoError(t, err)
	require.Nil(t, res.Transfer)

	_, err = env.ledger.SalarySplit(ctx, env.admin.ID, core.SalarySplitInput{
		Amount: core.Money{Cents: 50000}, Percent: decimal.NewFromInt(150), Date: day,
	})
	require.ErrorIs(t, err, core.ErrInvalidPercent)

	savings, expenses := env.balances(t)
	require.EqualValues(t, 0, savings)
	require.EqualValues(t, 50000, expenses)
}

func TestRecomputeBalancesIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.record(t, env.expenses.ID, core.Income, 5000, day, "")
	env.record(t, env.expenses.ID, core.Expense, 1250, day, "food")
	env.record(t, env.savings.ID, core.Income, 99, day, "")

	require.NoError(t, env.ledger.RecomputeBalances(ctx, env.admin.ID))
	s1, x1 := env.balances(t)
	require.NoError(t, env.ledger.RecomputeBalances(ctx, env.admin.ID))
	s2, x2 := env.balances(t)

	require.Equal(t, s1, s2)
	require.Equal(t, x1, x2)
	require.EqualValues(t, 99, s2)
	require.EqualValues(t, 3750, x2)
	requireBalanceInvariant(t, env, env.admin.ID)
}

func TestDebtOverpayRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.record(t, env.expenses.ID, core.Income, 100000, day, "")

	debt, err := env.debts.CreateDebt(ctx, env.admin.ID, core.DebtInput{Name: "Loan", Total: core.Money{Cents: 50000}})
	require.NoError(t, err)

	_, err = env.debts.PayDebt(ctx, env.admin.ID, core.PaymentInput{
		DebtID: debt.ID, AccountID: env.expenses.ID, Amount: core.Money{Cents: 60000}, Date: day,
	})
	require.ErrorIs(t, err, core.ErrOverpayment)
	require.True(t, core.IsValidation(err))

	got, err := env.debts.GetDebt(ctx, env.admin.ID, debt.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, got.Paid.Cents)
	require.Equal(t, core.DebtPending, got.Status)

	_, expenses := env.balances(t)
	require.EqualValues(t, 100000, expenses)
	txs, err := env.ledger.ListTransactions(ctx, env.admin.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestDebtFullyPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.record(t, env.expenses.ID, core.Income, 100000, day, "")

	debt, err := env.debts.CreateDebt(ctx, env.admin.ID, core.DebtInput{
		Name: "Car", Total: core.Money{Cents: 50000}, DueDate: core.NewDate(2025, 6, 1), Notes: "garage",
	})
	require.NoError(t, err)
	require.Equal(t, core.DebtPending, debt.Status)

	res, err := env.debts.PayDebt(ctx, env.admin.ID, core.PaymentInput{
		DebtID: debt.ID, AccountID: env.expenses.ID, Amount: core.Money{Cents: 20000}, Date: day,
	})
	require.NoError(t, err)
	require.Equal(t, core.DebtPending, res.Debt.Status)
	require.EqualValues(t, 20000, res.Debt.Paid.Cents)
	require.Equal(t, "Debt payment: Car", res.Transaction.Description)
	require.Equal(t, core.DebtPaymentCategory, res.Transaction.Category)
	require.Equal(t, core.Expense, res.Transaction.Kind)

	res, err = env.debts.PayDebt(ctx, env.admin.ID, core.PaymentInput{
		DebtID: debt.ID, AccountID: env.expenses.ID, Amount: core.Money{Cents: 30000}, Date: day,
	})
	require.NoError(t, err)
	require.Equal(t, core.DebtPaid, res.Debt.Status)
	require.EqualValues(t, 50000, res.Debt.Paid.Cents)

	_, err = env.debts.PayDebt(ctx, env.admin.ID, core.PaymentInput{
		DebtID: debt.ID, AccountID: env.expenses.ID, Amount: core.Money{Cents: 1}, Date: day,
	})
	require.ErrorIs(t, err, core.ErrDebtSettled)

	_, expenses := env.balances(t)
	require.EqualValues(t, 50000, expenses)
	requireBalanceInvariant(t, env, env.admin.ID)

	debts, err := env.debts.ListDebts(ctx, env.admin.ID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	require.Equal(t, "garage", debts[0].Notes)
}

func TestDebtPaymentsAreMonotonicUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	debt, err := env.debts.CreateDebt(ctx, env.admin.ID, core.DebtInput{Name: "Shared", Total: core.Money{Cents: 500}})
	require.NoError(t, err)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.debts.PayDebt(ctx, env.admin.ID, core.PaymentInput{
				DebtID: debt.ID, AccountID: env.expenses.ID, Amount: core.Money{Cents: 100}, Date: day,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 5, succeeded)
	for _, err := range failures {
		require.True(t, errors.Is(err, core.ErrDebtSettled) || errors.Is(err, core.ErrOverpayment), "unexpected error %v", err)
	}

	got, err := env.debts.GetDebt(ctx, env.admin.ID, debt.ID)
	require.NoError(t, err)
	require.EqualValues(t, 500, got.Paid.Cents)
	require.Equal(t, core.DebtPaid, got.Status)
	require.Zero(t, env.debts.locks.size())

	_, expenses := env.balances(t)
	require.EqualValues(t, -500, expenses)
	requireBalanceInvariant(t, env, env.admin.ID)
}

func TestCreateDebtValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.debts.CreateDebt(ctx, env.admin.ID, core.DebtInput{Name: " ", Total: core.Money{Cents: 100}})
	require.ErrorIs(t, err, core.ErrEmptyName)
	_, err = env.debts.CreateDebt(ctx, env.admin.ID, core.DebtInput{Name: "Loan"})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = env.debts.GetDebt(ctx, env.admin.ID, 12345)
	require.True(t, core.IsNotFound(err))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func TestLedgerEventsPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	env.ledger.SetPublisher(pub)

	// A publish failure must not fail the write.
	tx := env.record(t, env.expenses.ID, core.Income, 100, day, "")
	res, err := env.ledger.Transfer(ctx, env.admin.ID, core.TransferInput{
		FromAccountID: env.expenses.ID, ToAccountID: env.savings.ID, Amount: core.Money{Cents: 50}, Date: day,
	})
	require.NoError(t, err)

	require.Len(t, pub.events, 2)
	require.Equal(t, core.ReasonTransaction, pub.events[0].Reason)
	require.Equal(t, []int64{tx.ID}, pub.events[0].TransactionIDs)
	require.Equal(t, core.ReasonTransfer, pub.events[1].Reason)
	require.Equal(t, []int64{res.Expense.ID, res.Income.ID}, pub.events[1].TransactionIDs)
}
