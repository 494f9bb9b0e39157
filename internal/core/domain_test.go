package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-03-09 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("unexpected date %s", d)
	}
	for _, bad := range []string{"", "09/03/2025", "2025-13-01"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", bad, err)
		}
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2025, 3, 1)
	if got := d.AddDays(-1).String(); got != "2025-02-28" {
		t.Fatalf("AddDays: got %s", got)
	}
	if got := NewDate(2025, 3, 17).FirstOfMonth(); !got.Equal(d.Time) {
		t.Fatalf("FirstOfMonth: got %s", got)
	}
	if got := DateOf(time.Date(2025, 3, 17, 23, 59, 0, 0, time.UTC)).String(); got != "2025-03-17" {
		t.Fatalf("DateOf: got %s", got)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		AccountID:   1,
		Kind:        Expense,
		Amount:      Money{Cents: 100},
		Date:        NewDate(2025, 1, 1),
		Description: "groceries",
		Category:    "food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionInput)
		want   error
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"bad kind", func(in *TransactionInput) { in.Kind = "refund" }, ErrInvalidKind},
		{"zero date", func(in *TransactionInput) { in.Date = Date{} }, ErrInvalidDate},
		{"long description", func(in *TransactionInput) { in.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"reserved category", func(in *TransactionInput) { in.Category = " Transfer " }, ErrReservedCategory},
	}
	for _, tc := range cases {
		in := good
		tc.mutate(&in)
		err := in.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("%s: expected a ValidationError, got %T", tc.name, err)
		}
	}
}

func TestTransferInputValidate(t *testing.T) {
	in := TransferInput{FromAccountID: 1, ToAccountID: 1, Amount: Money{Cents: 10}, Date: NewDate(2025, 1, 1)}
	if err := in.Validate(); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
	in.ToAccountID = 2
	if err := in.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestDebtSettled(t *testing.T) {
	cases := []struct {
		total, paid int64
		settled     bool
	}{
		{10000, 0, false},
		{10000, 9999, false},
		{10000, 10000, true},
	}
	for _, tc := range cases {
		d := Debt{Total: Money{Cents: tc.total}, Paid: Money{Cents: tc.paid}}
		if d.Settled() != tc.settled {
			t.Fatalf("total=%d paid=%d: expected settled=%v", tc.total, tc.paid, tc.settled)
		}
	}
}

func TestNewUserValidate(t *testing.T) {
	good := NewUser{Name: "Ana", Email: "ana@example.com", Password: "secret", Role: RoleUser}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []NewUser{
		{Name: "", Email: "ana@example.com", Password: "secret"},
		{Name: "Ana", Email: "ana", Password: "secret"},
		{Name: "Ana", Email: "ana@example.com", Password: "123"},
		{Name: "Ana", Email: "ana@example.com", Password: "secret", Role: "root"},
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestErrorTypes(t *testing.T) {
	err := NotFound("account", 7)
	if !IsNotFound(err) || err.Error() != "account 7 not found" {
		t.Fatalf("unexpected not found error %v", err)
	}
	wrapped := Invalid("amount", Invalid("other", ErrInvalidAmount))
	var ve *ValidationError
	if !errors.As(wrapped, &ve) || ve.Field != "other" {
		t.Fatalf("Invalid should not double-wrap, got %v", wrapped)
	}
	if !errors.Is(&AuthError{Err: ErrInactiveUser}, ErrInactiveUser) {
		t.Fatalf("AuthError should unwrap")
	}
}

func TestSalarySplitInputValidate(t *testing.T) {
	base := SalarySplitInput{Amount: Money{Cents: 100000}, Date: NewDate(2025, 1, 31)}
	for _, pct := range []string{"0", "20", "100"} {
		in := base
		in.Percent = decimal.RequireFromString(pct)
		if err := in.Validate(); err != nil {
			t.Fatalf("pct %s: expected ok, got %v", pct, err)
		}
	}
	for _, pct := range []string{"-0.5", "100.5"} {
		in := base
		in.Percent = decimal.RequireFromString(pct)
		if err := in.Validate(); !errors.Is(err, ErrInvalidPercent) {
			t.Fatalf("pct %s: expected ErrInvalidPercent, got %v", pct, err)
		}
	}
}
