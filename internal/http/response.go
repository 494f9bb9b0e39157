package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/services"
)

type errorJSON struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

// writeError maps domain errors to status codes. Internal failures are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *core.ValidationError
		nf *core.NotFoundError
		ae *core.AuthError
	)
	switch {
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorJSON{Error: ve.Err.Error(), Field: ve.Field})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorJSON{Error: nf.Error()})
	case errors.As(err, &ae):
		if errors.Is(err, core.ErrForbidden) {
			writeJSON(w, http.StatusForbidden, errorJSON{Error: ae.Err.Error()})
			return
		}
		writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "unauthorized"})
	default:
		errorType := applog.ErrorTypeInternal
		if core.IsStorage(err) {
			errorType = applog.ErrorTypeDatabase
		}
		applog.LogError(r.Context(), "Request failed", err, errorType, r.Method+" "+r.URL.Path, nil)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal error"})
	}
}

type accountJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Bank     string `json:"bank"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Balance  string `json:"balance"`
}

func toAccounts(in []core.Account) []accountJSON {
	out := make([]accountJSON, 0, len(in))
	for _, a := range in {
		out = append(out, accountJSON{
			ID:       a.ID,
			Name:     a.Name,
			Bank:     a.Bank,
			Label:    a.Label(),
			Category: string(a.Category),
			Balance:  a.Balance.String(),
		})
	}
	return out
}

type transactionJSON struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	AccountName string `json:"account_name"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Tag         string `json:"tag"`
	PairID      int64  `json:"pair_id,omitempty"`
}

func toTransaction(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		AccountID:   t.AccountID,
		AccountName: t.AccountName,
		Date:        t.Date.String(),
		Kind:        string(t.Kind),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Category:    t.Category,
		Tag:         string(t.Tag),
		PairID:      t.PairID,
	}
}

func toTransactions(in []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(in))
	for _, t := range in {
		out = append(out, toTransaction(t))
	}
	return out
}

type transferJSON struct {
	PairID  int64           `json:"pair_id"`
	Expense transactionJSON `json:"expense"`
	Income  transactionJSON `json:"income"`
}

func toTransfer(t services.TransferResult) transferJSON {
	return transferJSON{PairID: t.Expense.PairID, Expense: toTransaction(t.Expense), Income: toTransaction(t.Income)}
}

type salarySplitJSON struct {
	Salary   transactionJSON `json:"salary"`
	Transfer *transferJSON   `json:"transfer,omitempty"`
}

type debtJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Total   string `json:"total"`
	Paid    string `json:"paid"`
	Open    string `json:"open"`
	DueDate string `json:"due_date,omitempty"`
	Status  string `json:"status"`
	Notes   string `json:"notes,omitempty"`
}

func toDebt(d core.Debt) debtJSON {
	return debtJSON{
		ID:      d.ID,
		Name:    d.Name,
		Total:   d.Total.String(),
		Paid:    d.Paid.String(),
		Open:    d.Open().String(),
		DueDate: d.DueDate.String(),
		Status:  string(d.Status),
		Notes:   d.Notes,
	}
}

func toDebts(in []core.Debt) []debtJSON {
	out := make([]debtJSON, 0, len(in))
	for _, d := range in {
		out = append(out, toDebt(d))
	}
	return out
}

type totalsJSON struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func toTotals(t core.Totals) totalsJSON {
	return totalsJSON{Income: t.Income.String(), Expense: t.Expense.String(), Net: t.Net().String()}
}

type balancesJSON struct {
	Total    string `json:"total"`
	Savings  string `json:"savings"`
	Expenses string `json:"expenses"`
}

func toBalances(b core.Balances) balancesJSON {
	return balancesJSON{Total: b.Total.String(), Savings: b.Savings.String(), Expenses: b.Expenses.String()}
}

type categoryJSON struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func toCategories(in []core.CategoryAmount) []categoryJSON {
	out := make([]categoryJSON, 0, len(in))
	for _, c := range in {
		out = append(out, categoryJSON{Name: c.Name, Amount: c.Amount.String()})
	}
	return out
}

type seriesPointJSON struct {
	Date    string `json:"date"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type dashboardJSON struct {
	Today         string            `json:"today"`
	Month         totalsJSON        `json:"month"`
	SavingsRate   float64           `json:"savings_rate"`
	AvgDailySpend string            `json:"avg_daily_spend"`
	OpenDebt      string            `json:"open_debt"`
	TopCategory   string            `json:"top_category"`
	Categories    []categoryJSON    `json:"categories"`
	Series        []seriesPointJSON `json:"series"`
	Accounts      []accountJSON     `json:"accounts"`
	Balances      balancesJSON      `json:"balances"`
}

func toDashboard(d core.Dashboard) dashboardJSON {
	series := make([]seriesPointJSON, 0, len(d.Series))
	for _, p := range d.Series {
		series = append(series, seriesPointJSON{Date: p.Date.String(), Income: p.Income.String(), Expense: p.Expense.String()})
	}
	return dashboardJSON{
		Today:         d.Today.String(),
		Month:         toTotals(d.Month),
		SavingsRate:   d.SavingsRate,
		AvgDailySpend: d.AvgDailySpend.String(),
		OpenDebt:      d.OpenDebt.String(),
		TopCategory:   d.TopCategory,
		Categories:    toCategories(d.Categories),
		Series:        series,
		Accounts:      toAccounts(d.Accounts),
		Balances:      toBalances(d.Balances),
	}
}

type reportJSON struct {
	GeneratedAt  string            `json:"generated_at"`
	Period       string            `json:"period"`
	Notice       string            `json:"notice,omitempty"`
	Accounts     []accountJSON     `json:"accounts"`
	Balances     balancesJSON      `json:"balances"`
	AllTime      totalsJSON        `json:"all_time"`
	Month        totalsJSON        `json:"month"`
	OpenDebt     string            `json:"open_debt"`
	NetWorth     string            `json:"net_worth"`
	Categories   []categoryJSON    `json:"categories"`
	Transactions []transactionJSON `json:"transactions"`
}

func toReport(r core.Report) reportJSON {
	return reportJSON{
		GeneratedAt:  r.GeneratedAt.String(),
		Period:       r.PeriodLabel,
		Accounts:     toAccounts(r.Accounts),
		Balances:     toBalances(r.Balances),
		AllTime:      toTotals(r.AllTime),
		Month:        toTotals(r.Month),
		OpenDebt:     r.OpenDebt.String(),
		NetWorth:     r.NetWorth.String(),
		Categories:   toCategories(r.Categories),
		Transactions: toTransactions(r.Transactions),
	}
}

type summaryJSON struct {
	Filtered totalsJSON   `json:"filtered"`
	AllTime  totalsJSON   `json:"all_time"`
	Balances balancesJSON `json:"balances"`
}

type userJSON struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func toUser(u core.User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role), Status: string(u.Status)}
}
