// Package dictionary holds curated presentation defaults. The engine treats
// category existence purely as data; this list only feeds the defaults
// endpoint so clients can offer sensible suggestions.
package dictionary

import "github.com/tinoosan/fintrack/internal/ledger"

type CategoryDef struct {
	Name string              `json:"name"`
	Type ledger.CategoryType `json:"type"`
}

var curated = map[ledger.CategoryType][]CategoryDef{
	ledger.CategoryTypeIncome: {
		{Name: "Salary", Type: ledger.CategoryTypeIncome},
		{Name: "Interest", Type: ledger.CategoryTypeIncome},
		{Name: "Refunds", Type: ledger.CategoryTypeIncome},
		{Name: "Other Income", Type: ledger.CategoryTypeIncome},
	},
	ledger.CategoryTypeExpense: {
		{Name: "Groceries", Type: ledger.CategoryTypeExpense},
		{Name: "Eating Out", Type: ledger.CategoryTypeExpense},
		{Name: "Rent", Type: ledger.CategoryTypeExpense},
		{Name: "Utilities", Type: ledger.CategoryTypeExpense},
		{Name: "Transport", Type: ledger.CategoryTypeExpense},
		{Name: "Shopping", Type: ledger.CategoryTypeExpense},
		{Name: "Entertainment", Type: ledger.CategoryTypeExpense},
		{Name: "General", Type: ledger.CategoryTypeExpense},
	},
	ledger.CategoryTypeSaving: {
		{Name: "Emergency Fund", Type: ledger.CategoryTypeSaving},
		{Name: "Savings", Type: ledger.CategoryTypeSaving},
	},
	ledger.CategoryTypeInvestment: {
		{Name: "Stocks", Type: ledger.CategoryTypeInvestment},
		{Name: "Pension", Type: ledger.CategoryTypeInvestment},
	},
}

// DefaultsFor returns the curated defaults for one type, or all when t is nil.
func DefaultsFor(t *ledger.CategoryType) []CategoryDef {
	if t == nil {
		out := make([]CategoryDef, 0)
		for _, ct := range []ledger.CategoryType{
			ledger.CategoryTypeIncome, ledger.CategoryTypeExpense,
			ledger.CategoryTypeSaving, ledger.CategoryTypeInvestment,
		} {
			out = append(out, curated[ct]...)
		}
		return out
	}
	return curated[*t]
}
