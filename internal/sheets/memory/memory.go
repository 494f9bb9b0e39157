package memory

import (
	"context"
	"fmt"
	"sync"

	"contas/internal/core"
	"contas/internal/sheets"
)

var _ sheets.TransactionMirror = (*Mirror)(nil)

// Mirror keeps mirrored rows in memory. Used when no spreadsheet is
// configured and in tests.
type Mirror struct {
	mu   sync.Mutex
	rows [][]any
	// Err, when set, is returned by every append.
	Err error
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) AppendTransactions(_ context.Context, txs []core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if len(txs) == 0 {
		return "", nil
	}
	first := len(m.rows) + 1
	for _, t := range txs {
		m.rows = append(m.rows, sheets.Row(t))
	}
	return fmt.Sprintf("mem:%d-%d", first, len(m.rows)), nil
}

// Rows returns a copy of the appended rows.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.rows...)
}
