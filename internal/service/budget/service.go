// Package budget matches expense transactions to the budget governing their
// category and date, maintains the cached spent total, and auto-provisions a
// budget when an expense has none. All of it is best-effort bookkeeping
// relative to the owning ledger write; recalculation is the repair path.
package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Store defines the category, budget and transaction operations the matcher needs.
type Store interface {
	GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (ledger.Category, error)
	CategoryByName(ctx context.Context, userID uuid.UUID, name string) (ledger.Category, error)
	CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error)
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]ledger.Budget, error)
	BudgetsByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]ledger.Budget, error)
	CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error)
	UpdateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error)
	TransactionsInRange(ctx context.Context, userID, categoryID uuid.UUID, start, end time.Time) ([]ledger.Transaction, error)
}

// Service is the budget matcher.
type Service struct {
	store Store
	log   *slog.Logger

	// OnAutoCreate, when set, is invoked once per auto-provisioned budget.
	OnAutoCreate func()
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, log: logger}
}

// Create stores a user-defined budget. At most one budget may govern a
// category on any given day, so a period overlapping an existing budget for
// the same category is rejected.
func (s *Service) Create(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	if b.UserID == uuid.Nil || b.CategoryID == uuid.Nil {
		return ledger.Budget{}, errs.ErrInvalid
	}
	if b.Amount.Sign() <= 0 {
		return ledger.Budget{}, errs.ErrInvalid
	}
	b.StartDate = ledger.DateOnly(b.StartDate)
	b.EndDate = ledger.DateOnly(b.EndDate)
	if b.EndDate.Before(b.StartDate) {
		return ledger.Budget{}, errs.ErrInvalid
	}
	if _, err := s.store.GetCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return ledger.Budget{}, err
	}
	existing, err := s.store.BudgetsByCategory(ctx, b.UserID, b.CategoryID)
	if err != nil {
		return ledger.Budget{}, err
	}
	for _, e := range existing {
		if !b.EndDate.Before(e.StartDate) && !b.StartDate.After(e.EndDate) {
			return ledger.Budget{}, errs.ErrConflict
		}
	}
	b.ID = uuid.New()
	b.AutoCreated = false
	// Seed spent from expenses already recorded inside the period so the new
	// budget does not start blind to history.
	spent, err := s.sumExpenses(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return ledger.Budget{}, err
	}
	b.Spent = spent
	return s.store.CreateBudget(ctx, b)
}

// ResolveCategory resolves the category a transaction belongs to, in priority
// order: an explicit category ID wins; otherwise a non-empty name is resolved
// via find-or-create with the type inferred from the transaction type; with
// neither, ok is false and budget matching is skipped entirely.
func (s *Service) ResolveCategory(ctx context.Context, userID, categoryID uuid.UUID, name string, txType ledger.TransactionType) (ledger.Category, bool, error) {
	if categoryID != uuid.Nil {
		c, err := s.store.GetCategory(ctx, userID, categoryID)
		if err != nil {
			return ledger.Category{}, false, err
		}
		return c, true, nil
	}
	if name == "" {
		return ledger.Category{}, false, nil
	}
	c, err := s.store.CategoryByName(ctx, userID, name)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return ledger.Category{}, false, err
	}
	created, err := s.store.CreateCategory(ctx, ledger.Category{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Type:   ledger.CategoryTypeFor(txType),
	})
	if err != nil {
		return ledger.Category{}, false, err
	}
	return created, true, nil
}

// Apply adds an expense transaction's contribution to the budget covering its
// category and date, auto-creating a calendar-month budget when none exists.
// Non-expense transactions and transactions without a category are no-ops.
func (s *Service) Apply(ctx context.Context, tx ledger.Transaction) error {
	if tx.CategoryID == uuid.Nil || tx.Type != ledger.TransactionTypeExpense {
		return nil
	}
	b, found, err := s.matchBudget(ctx, tx.UserID, tx.CategoryID, tx.Date)
	if err != nil {
		return err
	}
	amount := tx.Amount.Abs()
	if found {
		spent, err := b.Spent.Add(amount)
		if err != nil {
			return err
		}
		b.Spent = spent
		// The cap is never raised here; overspend shows as spent > amount.
		_, err = s.store.UpdateBudget(ctx, b)
		return err
	}
	return s.autoCreate(ctx, tx.UserID, tx.CategoryID, tx.Date, amount, amount)
}

// Reverse removes a transaction's prior contribution from its budget, using
// the pre-change snapshot's date, category and amount. Missing budgets are a
// no-op: there is nothing to decrement.
func (s *Service) Reverse(ctx context.Context, tx ledger.Transaction) error {
	if tx.CategoryID == uuid.Nil || tx.Type != ledger.TransactionTypeExpense {
		return nil
	}
	b, found, err := s.matchBudget(ctx, tx.UserID, tx.CategoryID, tx.Date)
	if err != nil || !found {
		return err
	}
	spent, err := b.Spent.Sub(tx.Amount.Abs())
	if err != nil {
		return err
	}
	b.Spent = spent
	_, err = s.store.UpdateBudget(ctx, b)
	return err
}

// ApplyGroup credits a pre-aggregated expense group (bulk import) to its
// budget. Unlike Apply, an existing budget's cap is raised to maxSingle when a
// single imported transaction exceeds it: imports are historical data entry,
// not live overspending.
func (s *Service) ApplyGroup(ctx context.Context, userID, categoryID uuid.UUID, date time.Time, sum, maxSingle decimal.Decimal) error {
	b, found, err := s.matchBudget(ctx, userID, categoryID, date)
	if err != nil {
		return err
	}
	if !found {
		return s.autoCreate(ctx, userID, categoryID, date, sum, sum)
	}
	spent, err := b.Spent.Add(sum)
	if err != nil {
		return err
	}
	b.Spent = spent
	if maxSingle.Cmp(b.Amount) > 0 {
		b.Amount = maxSingle
	}
	_, err = s.store.UpdateBudget(ctx, b)
	return err
}

// ReverseGroup debits a pre-aggregated expense group from its budget, the
// bulk-delete counterpart of ApplyGroup.
func (s *Service) ReverseGroup(ctx context.Context, userID, categoryID uuid.UUID, date time.Time, sum decimal.Decimal) error {
	b, found, err := s.matchBudget(ctx, userID, categoryID, date)
	if err != nil || !found {
		return err
	}
	spent, err := b.Spent.Sub(sum)
	if err != nil {
		return err
	}
	b.Spent = spent
	_, err = s.store.UpdateBudget(ctx, b)
	return err
}

// Recalculate recomputes spent from scratch for every budget whose period
// overlaps the optional [start, end] filter, overwriting the cached value
// with the authoritative sum. Returns the number of budgets whose value
// changed; running it twice in a row changes nothing the second time.
func (s *Service) Recalculate(ctx context.Context, userID uuid.UUID, start, end *time.Time) (int, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, b := range budgets {
		if start != nil && b.EndDate.Before(ledger.DateOnly(*start)) {
			continue
		}
		if end != nil && b.StartDate.After(ledger.DateOnly(*end)) {
			continue
		}
		sum, err := s.sumExpenses(ctx, userID, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			return updated, err
		}
		if b.Spent.Cmp(sum) == 0 {
			continue
		}
		b.Spent = sum
		if _, err := s.store.UpdateBudget(ctx, b); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// sumExpenses is the authoritative spent figure for a category over a period.
func (s *Service) sumExpenses(ctx context.Context, userID, categoryID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	txs, err := s.store.TransactionsInRange(ctx, userID, categoryID, start, end)
	if err != nil {
		return decimal.Decimal{}, err
	}
	sum := decimal.Decimal{}
	for _, tx := range txs {
		if tx.Type != ledger.TransactionTypeExpense {
			continue
		}
		sum, err = sum.Add(tx.Amount.Abs())
		if err != nil {
			return decimal.Decimal{}, err
		}
	}
	return sum, nil
}

// matchBudget finds the budget for (user, category) whose period contains date.
func (s *Service) matchBudget(ctx context.Context, userID, categoryID uuid.UUID, date time.Time) (ledger.Budget, bool, error) {
	budgets, err := s.store.BudgetsByCategory(ctx, userID, categoryID)
	if err != nil {
		return ledger.Budget{}, false, err
	}
	for _, b := range budgets {
		if b.Contains(date) {
			return b, true, nil
		}
	}
	return ledger.Budget{}, false, nil
}

// autoCreate provisions a calendar-month budget for an expense with no match.
func (s *Service) autoCreate(ctx context.Context, userID, categoryID uuid.UUID, date time.Time, amount, spent decimal.Decimal) error {
	cat, err := s.store.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	start, end := ledger.MonthWindow(date)
	b := ledger.Budget{
		ID:          uuid.New(),
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		Spent:       spent,
		StartDate:   start,
		EndDate:     end,
		AutoCreated: true,
		Description: "Auto-created budget for " + cat.Name,
	}
	if _, err := s.store.CreateBudget(ctx, b); err != nil {
		return err
	}
	s.log.Info("auto-created budget", "category", cat.Name, "month", ledger.MonthKey(date), "amount", amount.String())
	if s.OnAutoCreate != nil {
		s.OnAutoCreate()
	}
	return nil
}
