package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategorySavings  AccountCategory = "savings"
	CategoryExpenses AccountCategory = "expenses"
)

const (
	Income  TxKind = "income"
	Expense TxKind = "expense"
)

// Transactions are either ordinary ledger lines or one leg of an internal
// transfer. Reports only ever count ordinary transactions.
const (
	TagOrdinary TxTag = "ordinary"
	TagTransfer TxTag = "transfer"
)

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"

	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"

	DebtPending DebtStatus = "pending"
	DebtPaid    DebtStatus = "paid"
)

// Category labels written by the ledger itself.
const (
	TransferCategory    = "transfer"
	SalaryCategory      = "salary"
	DebtPaymentCategory = "debt-payment"
)

// SettleTolerance is the open balance (in currency units) under which a debt
// counts as fully paid.
const SettleTolerance = 0.005

const maxDescriptionLen = 200

type (
	AccountCategory string
	TxKind          string
	TxTag           string
	Role            string
	UserStatus      string
	DebtStatus      string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Role         Role
		Status       UserStatus
	}

	Account struct {
		ID       int64
		UserID   int64
		Name     string
		Bank     string
		Category AccountCategory
		Balance  Money // derived from the account's transactions
	}

	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		AccountName string
		Date        Date
		Kind        TxKind
		Amount      Money
		Description string
		Category    string
		Tag         TxTag
		PairID      int64 // zero for ordinary transactions
	}

	Debt struct {
		ID      int64
		UserID  int64
		Name    string
		Total   Money
		Paid    Money
		DueDate Date // zero when the debt has no due date
		Status  DebtStatus
		Notes   string
	}
)

// DefaultAccounts lists the two accounts every user is provisioned with.
func DefaultAccounts() []Account {
	return []Account{
		{Name: "Savings", Bank: "BCI", Category: CategorySavings},
		{Name: "Expenses", Bank: "BIM", Category: CategoryExpenses},
	}
}

func (c AccountCategory) Valid() bool {
	return c == CategorySavings || c == CategoryExpenses
}

func (k TxKind) Valid() bool {
	return k == Income || k == Expense
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (a Account) Label() string {
	if a.Bank == "" {
		return a.Name
	}
	return a.Name + " (" + a.Bank + ")"
}

// Signed returns the amount with the sign it contributes to its account balance.
func (t Transaction) Signed() int64 {
	if t.Kind == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (t Transaction) IsTransferLeg() bool {
	return t.Tag == TagTransfer
}

// Open returns the amount still owed.
func (d Debt) Open() Money {
	return Money{Cents: d.Total.Cents - d.Paid.Cents}
}

// Settled reports whether the open balance is within SettleTolerance of zero.
func (d Debt) Settled() bool {
	return d.Open().Units() <= SettleTolerance
}

func (d Debt) HasDueDate() bool {
	return !d.DueDate.IsZero()
}

// TransactionInput carries an ordinary income or expense entry.
type TransactionInput struct {
	AccountID   int64
	Kind        TxKind
	Amount      Money
	Date        Date
	Description string
	Category    string
}

func (in TransactionInput) Validate() error {
	if !in.Kind.Valid() {
		return Invalid("kind", ErrInvalidKind)
	}
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := in.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if len(in.Description) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionTooLong)
	}
	if IsReservedCategory(in.Category) {
		return Invalid("category", ErrReservedCategory)
	}
	return nil
}

// IsReservedCategory reports whether category is the transfer marker, which
// only the transfer engine may write.
func IsReservedCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), TransferCategory)
}

// TransferInput moves money between two accounts of the same user.
type TransferInput struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        Money
	Date          Date
	Description   string
}

func (in TransferInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if in.FromAccountID == in.ToAccountID {
		return Invalid("to_account", ErrSameAccount)
	}
	if err := in.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if len(in.Description) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionTooLong)
	}
	return nil
}

// SalarySplitInput books a salary on the expenses account and moves Percent
// of it to savings.
type SalarySplitInput struct {
	Amount  Money
	Percent decimal.Decimal
	Date    Date
}

func (in SalarySplitInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if in.Percent.IsNegative() || in.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return Invalid("percent", ErrInvalidPercent)
	}
	if err := in.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}

// DebtInput registers a new debt.
type DebtInput struct {
	Name    string
	Total   Money
	DueDate Date
	Notes   string
}

func (in DebtInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if err := in.Total.Validate(); err != nil {
		return Invalid("total", err)
	}
	return nil
}

// PaymentInput pays part or all of a debt from one account.
type PaymentInput struct {
	DebtID    int64
	AccountID int64
	Amount    Money
	Date      Date
}

func (in PaymentInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := in.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}

// NewUser is the input for provisioning a user.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

func (in NewUser) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if !strings.Contains(in.Email, "@") {
		return Invalid("email", ErrInvalidEmail)
	}
	if len(in.Password) < 4 {
		return Invalid("password", ErrWeakPassword)
	}
	if in.Role != "" && !in.Role.Valid() {
		return Invalid("role", ErrInvalidRole)
	}
	return nil
}
