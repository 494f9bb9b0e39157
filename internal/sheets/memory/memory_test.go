package memory

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
)

func TestMirrorAppend(t *testing.T) {
	m := New()
	ref, err := m.AppendTransactions(context.Background(), []core.Transaction{
		{ID: 1, Kind: core.Income, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)},
		{ID: 2, Kind: core.Expense, Amount: core.Money{Cents: 50}, Date: core.NewDate(2025, 1, 2)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "mem:1-2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if rows := m.Rows(); len(rows) != 2 || rows[1][0] != int64(2) {
		t.Fatalf("unexpected rows %v", rows)
	}

	m.Err = errors.New("quota exceeded")
	if _, err := m.AppendTransactions(context.Background(), []core.Transaction{{ID: 3}}); err == nil {
		t.Fatalf("expected configured error")
	}
}
