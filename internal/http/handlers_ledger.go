package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"contas/internal/auth"
	"contas/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	accounts, err := s.deps.Ledger.ListAccounts(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccounts(accounts))
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := s.deps.Ledger.RecomputeBalances(r.Context(), id.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	s.handleListAccounts(w, r, id)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.deps.Ledger.ListTransactions(r.Context(), id.UserID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(items))
}

func (s *Server) handleTransactionSummary(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.deps.Reports.SummarizeTransactions(r.Context(), id.UserID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryJSON{
		Filtered: toTotals(sum.Filtered),
		AllTime:  toTotals(sum.AllTime),
		Balances: toBalances(sum.Balances),
	})
}

type createTransactionRequest struct {
	AccountID   int64      `json:"account_id"`
	Kind        string     `json:"kind"`
	Amount      amountText `json:"amount"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.money("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := date("date", req.Date, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.deps.Ledger.RecordTransaction(r.Context(), id.UserID, core.TransactionInput{
		AccountID:   req.AccountID,
		Kind:        core.TxKind(req.Kind),
		Amount:      amount,
		Date:        day,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransaction(tx))
}

type transferRequest struct {
	FromAccountID int64      `json:"from_account_id"`
	ToAccountID   int64      `json:"to_account_id"`
	Amount        amountText `json:"amount"`
	Date          string     `json:"date"`
	Description   string     `json:"description"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.money("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := date("date", req.Date, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Ledger.Transfer(r.Context(), id.UserID, core.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Date:          day,
		Description:   sanitizeInput(req.Description),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransfer(res))
}

type salarySplitRequest struct {
	Amount  amountText       `json:"amount"`
	Percent *decimal.Decimal `json:"percent"`
	Date    string           `json:"date"`
}

func (s *Server) handleSalarySplit(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req salarySplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.money("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Percent == nil {
		writeError(w, r, core.Invalid("percent", core.ErrInvalidPercent))
		return
	}
	day, err := date("date", req.Date, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Ledger.SalarySplit(r.Context(), id.UserID, core.SalarySplitInput{
		Amount:  amount,
		Percent: *req.Percent,
		Date:    day,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := salarySplitJSON{Salary: toTransaction(res.Salary)}
	if res.Transfer != nil {
		t := toTransfer(*res.Transfer)
		out.Transfer = &t
	}
	writeJSON(w, http.StatusCreated, out)
}
