package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"contas/internal/core"
	"contas/internal/storage"
)

const (
	defaultTransferDescription = "Transfer"
	salaryDescription          = "Monthly salary"
	salaryTransferDescription  = "Savings transfer"
)

// LedgerService records transactions and transfers. Every write recomputes
// the user's balances inside the same SQL transaction.
type LedgerService struct {
	notifier
	storage *storage.SQLiteRepository
}

func NewLedgerService(storage *storage.SQLiteRepository) *LedgerService {
	return &LedgerService{storage: storage}
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	Expense core.Transaction
	Income  core.Transaction
}

// SalarySplitResult is the booked salary and, when a share was moved, the
// transfer to savings.
type SalarySplitResult struct {
	Salary   core.Transaction
	Transfer *TransferResult
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	accounts, err := s.storage.Queries().ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	items, err := s.storage.Queries().ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

// RecordTransaction books an ordinary income or expense on one of the user's
// accounts.
func (s *LedgerService) RecordTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var tx core.Transaction
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, userID, in.AccountID); err != nil {
			return err
		}
		id, err := q.InsertTransaction(ctx, storage.InsertTransactionParams{
			UserID:      userID,
			AccountID:   in.AccountID,
			Date:        in.Date,
			Kind:        in.Kind,
			Amount:      in.Amount,
			Description: in.Description,
			Category:    in.Category,
			Tag:         core.TagOrdinary,
		})
		if err != nil {
			return err
		}
		if err := recomputeBalances(ctx, q, userID); err != nil {
			return err
		}
		tx, err = q.GetTransaction(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"user_id", userID,
		"transaction_id", tx.ID,
		"account_id", tx.AccountID,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents)

	s.notify(ctx, core.LedgerEvent{UserID: userID, TransactionIDs: []int64{tx.ID}, Reason: core.ReasonTransaction})
	return tx, nil
}

// Transfer moves money between two of the user's accounts as a linked pair
// of transactions.
func (s *LedgerService) Transfer(ctx context.Context, userID int64, in core.TransferInput) (TransferResult, error) {
	if err := in.Validate(); err != nil {
		return TransferResult{}, err
	}

	var res TransferResult
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		res, err = insertTransferPair(ctx, q, userID, in)
		if err != nil {
			return err
		}
		return recomputeBalances(ctx, q, userID)
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer recorded",
		"user_id", userID,
		"pair_id", res.Expense.ID,
		"from_account_id", in.FromAccountID,
		"to_account_id", in.ToAccountID,
		"amount_cents", in.Amount.Cents)

	s.notify(ctx, core.LedgerEvent{
		UserID:         userID,
		TransactionIDs: []int64{res.Expense.ID, res.Income.ID},
		Reason:         core.ReasonTransfer,
	})
	return res, nil
}

// SalarySplit books the salary as income on the expenses account and moves
// the requested percentage to savings, all in one SQL transaction.
func (s *LedgerService) SalarySplit(ctx context.Context, userID int64, in core.SalarySplitInput) (SalarySplitResult, error) {
	if err := in.Validate(); err != nil {
		return SalarySplitResult{}, err
	}
	share, err := core.PercentOf(in.Amount, in.Percent)
	if err != nil {
		return SalarySplitResult{}, core.Invalid("percent", err)
	}

	var res SalarySplitResult
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		expenses, err := q.GetAccountByCategory(ctx, userID, core.CategoryExpenses)
		if err != nil {
			return err
		}
		savings, err := q.GetAccountByCategory(ctx, userID, core.CategorySavings)
		if err != nil {
			return err
		}

		id, err := q.InsertTransaction(ctx, storage.InsertTransactionParams{
			UserID:      userID,
			AccountID:   expenses.ID,
			Date:        in.Date,
			Kind:        core.Income,
			Amount:      in.Amount,
			Description: salaryDescription,
			Category:    core.SalaryCategory,
			Tag:         core.TagOrdinary,
		})
		if err != nil {
			return err
		}
		if res.Salary, err = q.GetTransaction(ctx, userID, id); err != nil {
			return err
		}

		// A share that rounds to zero cents moves nothing.
		if share.Cents > 0 {
			pair, err := insertTransferPair(ctx, q, userID, core.TransferInput{
				FromAccountID: expenses.ID,
				ToAccountID:   savings.ID,
				Amount:        share,
				Date:          in.Date,
				Description:   salaryTransferDescription,
			})
			if err != nil {
				return err
			}
			res.Transfer = &pair
		}
		return recomputeBalances(ctx, q, userID)
	})
	if err != nil {
		return SalarySplitResult{}, fmt.Errorf("salary split: %w", err)
	}

	ids := []int64{res.Salary.ID}
	if res.Transfer != nil {
		ids = append(ids, res.Transfer.Expense.ID, res.Transfer.Income.ID)
	}
	slog.InfoContext(ctx, "Salary split recorded",
		"user_id", userID,
		"amount_cents", in.Amount.Cents,
		"percent", in.Percent.String(),
		"savings_cents", share.Cents)

	s.notify(ctx, core.LedgerEvent{UserID: userID, TransactionIDs: ids, Reason: core.ReasonSalarySplit})
	return res, nil
}

// RecomputeBalances rebuilds every balance of the user from its transactions.
// Running it again without new transactions changes nothing.
func (s *LedgerService) RecomputeBalances(ctx context.Context, userID int64) error {
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		return recomputeBalances(ctx, q, userID)
	})
	if err != nil {
		return fmt.Errorf("recompute balances: %w", err)
	}
	return nil
}

func recomputeBalances(ctx context.Context, q *storage.Queries, userID int64) error {
	n, err := q.RecomputeBalances(ctx, userID)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "Balances recomputed", "user_id", userID, "accounts", n)
	return nil
}

// insertTransferPair writes the expense leg, then the income leg pointing at
// it, then points the expense leg at itself. Both accounts must belong to
// userID. The caller owns the SQL transaction and the recompute.
func insertTransferPair(ctx context.Context, q *storage.Queries, userID int64, in core.TransferInput) (TransferResult, error) {
	if _, err := q.GetAccount(ctx, userID, in.FromAccountID); err != nil {
		return TransferResult{}, err
	}
	if _, err := q.GetAccount(ctx, userID, in.ToAccountID); err != nil {
		return TransferResult{}, err
	}

	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = defaultTransferDescription
	}
	leg := storage.InsertTransactionParams{
		UserID:      userID,
		AccountID:   in.FromAccountID,
		Date:        in.Date,
		Kind:        core.Expense,
		Amount:      in.Amount,
		Description: desc,
		Category:    core.TransferCategory,
		Tag:         core.TagTransfer,
	}
	expenseID, err := q.InsertTransaction(ctx, leg)
	if err != nil {
		return TransferResult{}, err
	}

	leg.AccountID = in.ToAccountID
	leg.Kind = core.Income
	leg.PairID = expenseID
	incomeID, err := q.InsertTransaction(ctx, leg)
	if err != nil {
		return TransferResult{}, err
	}
	if err := q.SetPairID(ctx, expenseID, expenseID); err != nil {
		return TransferResult{}, err
	}

	var res TransferResult
	if res.Expense, err = q.GetTransaction(ctx, userID, expenseID); err != nil {
		return TransferResult{}, err
	}
	if res.Income, err = q.GetTransaction(ctx, userID, incomeID); err != nil {
		return TransferResult{}, err
	}
	return res, nil
}
