package services

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/core"
	"contas/internal/storage"
)

const debtPaymentPrefix = "Debt payment: "

// DebtService manages debts and their payments.
type DebtService struct {
	notifier
	storage *storage.SQLiteRepository
	locks   *keyedMutex
}

func NewDebtService(storage *storage.SQLiteRepository) *DebtService {
	return &DebtService{storage: storage, locks: newKeyedMutex()}
}

// PaymentResult is the debt after a payment and the expense it booked.
type PaymentResult struct {
	Debt        core.Debt
	Transaction core.Transaction
}

func (s *DebtService) CreateDebt(ctx context.Context, userID int64, in core.DebtInput) (core.Debt, error) {
	if err := in.Validate(); err != nil {
		return core.Debt{}, err
	}

	var debt core.Debt
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		id, err := q.CreateDebt(ctx, userID, in)
		if err != nil {
			return err
		}
		debt, err = q.GetDebt(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt created",
		"user_id", userID,
		"debt_id", debt.ID,
		"total_cents", debt.Total.Cents)

	s.notify(ctx, core.LedgerEvent{UserID: userID, Reason: core.ReasonDebtCreated})
	return debt, nil
}

func (s *DebtService) GetDebt(ctx context.Context, userID, debtID int64) (core.Debt, error) {
	d, err := s.storage.Queries().GetDebt(ctx, userID, debtID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

// ListDebts returns pending debts before paid ones, each group by due date
// with undated debts last.
func (s *DebtService) ListDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	items, err := s.storage.Queries().ListDebts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return items, nil
}

// PayDebt books an expense on the chosen account and adds it to the debt's
// paid amount. Payments on one debt are serialized in-process and guarded by
// a compare-and-swap in SQL.
func (s *DebtService) PayDebt(ctx context.Context, userID int64, in core.PaymentInput) (PaymentResult, error) {
	if err := in.Validate(); err != nil {
		return PaymentResult{}, err
	}

	unlock := s.locks.Lock(in.DebtID)
	defer unlock()

	var res PaymentResult
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		debt, err := q.GetDebt(ctx, userID, in.DebtID)
		if err != nil {
			return err
		}
		if debt.Status == core.DebtPaid {
			return core.Invalid("debt", core.ErrDebtSettled)
		}
		if in.Amount.Cents > debt.Open().Cents {
			return core.Invalid("amount", core.ErrOverpayment)
		}
		if _, err := q.GetAccount(ctx, userID, in.AccountID); err != nil {
			return err
		}

		txID, err := q.InsertTransaction(ctx, storage.InsertTransactionParams{
			UserID:      userID,
			AccountID:   in.AccountID,
			Date:        in.Date,
			Kind:        core.Expense,
			Amount:      in.Amount,
			Description: debtPaymentPrefix + debt.Name,
			Category:    core.DebtPaymentCategory,
			Tag:         core.TagOrdinary,
		})
		if err != nil {
			return err
		}

		applied, err := q.ApplyDebtPayment(ctx, userID, debt.ID, in.Amount)
		if err != nil {
			return err
		}
		if !applied {
			// Another writer settled or paid down the debt since the read.
			return core.Invalid("amount", core.ErrOverpayment)
		}

		if debt, err = q.GetDebt(ctx, userID, debt.ID); err != nil {
			return err
		}
		if debt.Settled() {
			if err := q.MarkDebtPaid(ctx, debt.ID); err != nil {
				return err
			}
			debt.Status = core.DebtPaid
		}
		if err := recomputeBalances(ctx, q, userID); err != nil {
			return err
		}

		res.Debt = debt
		res.Transaction, err = q.GetTransaction(ctx, userID, txID)
		return err
	})
	if err != nil {
		return PaymentResult{}, fmt.Errorf("pay debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt payment recorded",
		"user_id", userID,
		"debt_id", res.Debt.ID,
		"account_id", in.AccountID,
		"amount_cents", in.Amount.Cents,
		"status", res.Debt.Status)

	s.notify(ctx, core.LedgerEvent{
		UserID:         userID,
		TransactionIDs: []int64{res.Transaction.ID},
		Reason:         core.ReasonDebtPayment,
	})
	return res, nil
}
