package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"contas/internal/core"
)

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{ID: 2, Date: core.NewDate(2025, 3, 2), AccountName: "Expenses", Kind: core.Expense, Amount: core.Money{Cents: 1250}, Description: "Groceries, market", Category: "food", Tag: core.TagOrdinary},
		{ID: 1, Date: core.NewDate(2025, 3, 1), AccountName: "Expenses", Kind: core.Income, Amount: core.Money{Cents: 100000}, Description: "Salário", Category: "salary", Tag: core.TagOrdinary},
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, sampleTransactions()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, TransactionHeader, records[0])
	require.Equal(t, []string{"2025-03-02", "Expenses", "expense", "12.50", "Groceries, market", "food"}, records[1])
	require.Equal(t, "1000.00", records[2][3])
	require.Equal(t, "Salário", records[2][4])
}

func TestWriteTransactionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, nil))
	require.Equal(t, "Date,Account,Kind,Amount,Description,Category\n", buf.String())
}

func TestWriteTransactionsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsXLSX(&buf, sampleTransactions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{transactionsSheet}, f.GetSheetList())
	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, TransactionHeader, rows[0])
	require.Equal(t, "2025-03-02", rows[1][0])
	require.Equal(t, "12.5", rows[1][3])
	require.Equal(t, "salary", rows[2][5])
}

func TestWriteReportPDF(t *testing.T) {
	r := core.Report{
		GeneratedAt: core.NewDate(2025, 3, 15),
		PeriodLabel: "01/03/2025 to 15/03/2025",
		Accounts: []core.Account{
			{ID: 1, Name: "Savings", Bank: "BCI", Category: core.CategorySavings, Balance: core.Money{Cents: 50000}},
			{ID: 2, Name: "Expenses", Bank: "BIM", Category: core.CategoryExpenses, Balance: core.Money{Cents: 20000}},
		},
		Balances:     core.Balances{Total: core.Money{Cents: 70000}, Savings: core.Money{Cents: 50000}, Expenses: core.Money{Cents: 20000}},
		OpenDebt:     core.Money{Cents: 10000},
		NetWorth:     core.Money{Cents: 60000},
		Categories:   []core.CategoryAmount{{Name: "food", Amount: core.Money{Cents: 1250}}},
		Transactions: sampleTransactions(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReportPDF(&buf, "Ana Sousa", r))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.Greater(t, buf.Len(), 500)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
