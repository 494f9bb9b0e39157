package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// SeriesPoint is the income and expense booked on one day.
type SeriesPoint struct {
	Date    Date
	Income  Money
	Expense Money
}

// Totals holds income and expense sums over ordinary transactions.
type Totals struct {
	Income  Money
	Expense Money
}

func (t Totals) Net() Money { return t.Income.Sub(t.Expense) }

// Balances are the per-category account balances of one user.
type Balances struct {
	Total    Money
	Savings  Money
	Expenses Money
}

// BalancesOf sums account balances by category.
func BalancesOf(accounts []Account) Balances {
	var b Balances
	for _, a := range accounts {
		b.Total = b.Total.Add(a.Balance)
		switch a.Category {
		case CategorySavings:
			b.Savings = b.Savings.Add(a.Balance)
		case CategoryExpenses:
			b.Expenses = b.Expenses.Add(a.Balance)
		}
	}
	return b
}

// Dashboard is the month-to-date overview.
type Dashboard struct {
	Today         Date
	Month         Totals
	SavingsRate   float64 // percent of income kept, 0 without income
	AvgDailySpend Money
	OpenDebt      Money
	Series        []SeriesPoint
	Categories    []CategoryAmount
	TopCategory   string
	Accounts      []Account
	Balances      Balances
}

// Report is the printable summary of a user's finances.
type Report struct {
	GeneratedAt  Date
	PeriodLabel  string
	Accounts     []Account
	Balances     Balances
	AllTime      Totals
	Month        Totals
	OpenDebt     Money
	NetWorth     Money
	Categories   []CategoryAmount
	Transactions []Transaction
}

// TransactionSummary backs the totals shown alongside a filtered list.
type TransactionSummary struct {
	Filtered Totals
	AllTime  Totals
	Balances Balances
}
