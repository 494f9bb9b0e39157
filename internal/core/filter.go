package core

import "strings"

// MaxListLimit caps every transaction listing.
const MaxListLimit = 2000

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	From      Date
	To        Date
	Kind      TxKind
	AccountID int64
	Category  string // case-insensitive substring
	Text      string // substring of description or account name
	Limit     int
}

func (f TransactionFilter) Validate() error {
	if f.Kind != "" && !f.Kind.Valid() {
		return Invalid("kind", ErrInvalidKind)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return Invalid("to", ErrInvalidDate)
	}
	return nil
}

// Normalized trims text fields and clamps Limit to (0, MaxListLimit].
func (f TransactionFilter) Normalized() TransactionFilter {
	f.Category = strings.TrimSpace(f.Category)
	f.Text = strings.TrimSpace(f.Text)
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
