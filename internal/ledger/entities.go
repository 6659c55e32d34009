package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/tinoosan/fintrack/internal/meta"
)

// AccountType enumerates the broad classification of an account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
	AccountTypeOther      AccountType = "other"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard,
		AccountTypeInvestment, AccountTypeCash, AccountTypeOther:
		return true
	}
	return false
}

// CategoryType classifies a spending/earning category.
type CategoryType string

const (
	CategoryTypeIncome     CategoryType = "income"
	CategoryTypeExpense    CategoryType = "expense"
	CategoryTypeSaving     CategoryType = "saving"
	CategoryTypeInvestment CategoryType = "investment"
)

// ValidCategoryType reports whether t is one of the known category types.
func ValidCategoryType(t CategoryType) bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeSaving, CategoryTypeInvestment:
		return true
	}
	return false
}

// TransactionType marks the direction of a transaction's effect on net worth.
type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "income"
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeSaving     TransactionType = "saving"
	TransactionTypeInvestment TransactionType = "investment"
)

// ValidTransactionType reports whether t is one of the known transaction types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeSaving, TransactionTypeInvestment:
		return true
	}
	return false
}

// CategoryTypeFor maps a transaction type to the category type inferred when a
// category has to be created on the fly: income stays income, saving and
// investment map to their counterparts, everything else is an expense.
func CategoryTypeFor(t TransactionType) CategoryType {
	switch t {
	case TransactionTypeIncome:
		return CategoryTypeIncome
	case TransactionTypeSaving:
		return CategoryTypeSaving
	case TransactionTypeInvestment:
		return CategoryTypeInvestment
	default:
		return CategoryTypeExpense
	}
}

// User captures the owner of ledger data.
type User struct {
	ID    uuid.UUID
	Email *string
}

// Account represents a financial account belonging to a user.
//
// Balance is a cached aggregate: it must equal the initial balance plus the
// sum of signed effects of every transaction ever applied to the account. It
// is denormalized for read performance and mutated only by the balance
// tracker; it is never recomputed from scratch in normal operation.
type Account struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Type        AccountType
	Balance     decimal.Decimal
	Institution string
	// Metadata holds additional key-value attributes for the account.
	Metadata meta.Metadata `json:"metadata,omitempty"`
	// Active indicates whether the account is active (soft-delete when false).
	Active bool
}

// Category labels transactions and anchors budgets. Unique per (user, name).
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      CategoryType
	IsDefault bool
}

// Budget caps spending for one category over one period, conventionally a
// calendar month. Spent is a cached aggregate over matching expense
// transactions, maintained incrementally and repaired by recalculation.
type Budget struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Spent       decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	AutoCreated bool
	Description string
}

// Contains reports whether date falls within the budget's period, inclusive.
func (b Budget) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(b.StartDate)) && !d.After(DateOnly(b.EndDate))
}

// Transaction is one ledger event. AccountID and CategoryID may be Nil when
// the transaction is not attached to an account or category.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	Vendor      string
	Purchaser   string
	Note        string
	Type        TransactionType
	// Date is a calendar date; the time component is always UTC midnight.
	Date time.Time
}

// SignedEffect returns the transaction's delta on its account balance:
// positive for income, negative for everything else.
func (t Transaction) SignedEffect() decimal.Decimal {
	if t.Type == TransactionTypeIncome {
		return t.Amount.Abs()
	}
	return t.Amount.Abs().Neg()
}

// Goal is a savings target. It accumulates contributions and has no
// interaction with balances or budgets.
type Goal struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time
	Metadata      meta.Metadata `json:"metadata,omitempty"`
}
