package http

import (
	"net/http"

	"contas/internal/auth"
	"contas/internal/core"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	debts, err := s.deps.Debts.ListDebts(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebts(debts))
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	debtID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.deps.Debts.GetDebt(r.Context(), id.UserID, debtID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebt(d))
}

type createDebtRequest struct {
	Name    string     `json:"name"`
	Total   amountText `json:"total"`
	DueDate string     `json:"due_date"`
	Notes   string     `json:"notes"`
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req createDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	total, err := req.Total.money("total")
	if err != nil {
		writeError(w, r, err)
		return
	}
	due, err := optionalDate("due_date", req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.deps.Debts.CreateDebt(r.Context(), id.UserID, core.DebtInput{
		Name:    sanitizeInput(req.Name),
		Total:   total,
		DueDate: due,
		Notes:   sanitizeInput(req.Notes),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebt(d))
}

type paymentRequest struct {
	AccountID int64      `json:"account_id"`
	Amount    amountText `json:"amount"`
	Date      string     `json:"date"`
}

type paymentJSON struct {
	Debt        debtJSON        `json:"debt"`
	Transaction transactionJSON `json:"transaction"`
}

func (s *Server) handlePayDebt(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	debtID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentRequest
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

	res, err := s.deps.Debts.PayDebt(r.Context(), id.UserID, core.PaymentInput{
		DebtID:    debtID,
		AccountID: req.AccountID,
		Amount:    amount,
		Date:      day,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentJSON{Debt: toDebt(res.Debt), Transaction: toTransaction(res.Transaction)})
}
