package core

// Ledger change reasons carried on LedgerEvent.
const (
	ReasonTransaction = "transaction"
	ReasonTransfer    = "transfer"
	ReasonSalarySplit = "salary_split"
	ReasonDebtPayment = "debt_payment"
	ReasonDebtCreated = "debt_created"
	ReasonUserCreated = "user_created"
)

// LedgerEvent describes a committed write. TransactionIDs lists the rows it
// inserted, empty when no transaction was written.
type LedgerEvent struct {
	UserID         int64
	TransactionIDs []int64
	Reason         string
}
