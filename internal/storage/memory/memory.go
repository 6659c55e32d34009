package memory

// Package memory provides a simple in-memory implementation used for development and tests.
// It keeps code paths easy to follow while allowing us to plug in a real DB later.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/slug"
)

// txKey tracks ordering for transactions per user: sorted asc by (Date, ID)
type txKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of the repository+writer interfaces
// used by the services and the API. It is guarded by an RWMutex.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]struct{}
	accounts     map[uuid.UUID]ledger.Account
	categories   map[uuid.UUID]ledger.Category
	budgets      map[uuid.UUID]ledger.Budget
	transactions map[uuid.UUID]*ledger.Transaction
	goals        map[uuid.UUID]ledger.Goal
	// Per-user sorted index of transactions for efficient ordered scans
	txKeysByUser map[uuid.UUID][]txKey
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]struct{}),
		accounts:     make(map[uuid.UUID]ledger.Account),
		categories:   make(map[uuid.UUID]ledger.Category),
		budgets:      make(map[uuid.UUID]ledger.Budget),
		transactions: make(map[uuid.UUID]*ledger.Transaction),
		goals:        make(map[uuid.UUID]ledger.Goal),
		txKeysByUser: make(map[uuid.UUID][]txKey),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u ledger.User) { s.mu.Lock(); s.users[u.ID] = struct{}{}; s.mu.Unlock() }
func (s *Store) SeedAccount(a ledger.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}
func (s *Store) SeedCategory(c ledger.Category) {
	s.mu.Lock()
	s.categories[c.ID] = c
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]struct{}{}
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.categories = map[uuid.UUID]ledger.Category{}
	s.budgets = map[uuid.UUID]ledger.Budget{}
	s.transactions = map[uuid.UUID]*ledger.Transaction{}
	s.goals = map[uuid.UUID]ledger.Goal{}
	s.txKeysByUser = map[uuid.UUID][]txKey{}
	s.mu.Unlock()
}

// Ready reports the store as always available.
func (s *Store) Ready(_ context.Context) error { return nil }

// --- Accounts ---

func (s *Store) ListAccounts(_ context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// --- Categories ---

func (s *Store) ListCategories(_ context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, userID, categoryID uuid.UUID) (ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return ledger.Category{}, errs.ErrNotFound
	}
	return c, nil
}

// CategoryByName resolves a category by its normalized name key.
func (s *Store) CategoryByName(_ context.Context, userID uuid.UUID, name string) (ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := slug.Slugify(name)
	for _, c := range s.categories {
		if c.UserID == userID && slug.Slugify(c.Name) == key {
			return c, nil
		}
	}
	return ledger.Category{}, errs.ErrNotFound
}

func (s *Store) CreateCategory(_ context.Context, c ledger.Category) (ledger.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, categoryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return errs.ErrNotFound
	}
	delete(s.categories, categoryID)
	return nil
}

// --- Budgets ---

func (s *Store) ListBudgets(_ context.Context, userID uuid.UUID) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, userID, budgetID uuid.UUID) (ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return ledger.Budget{}, errs.ErrNotFound
	}
	return b, nil
}

// BudgetsByCategory returns all budgets for one category.
func (s *Store) BudgetsByCategory(_ context.Context, userID, categoryID uuid.UUID) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b ledger.Budget) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b ledger.Budget) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return ledger.Budget{}, errs.ErrNotFound
	}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, budgetID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return errs.ErrNotFound
	}
	delete(s.budgets, budgetID)
	return nil
}

// --- Transactions ---

func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.txKeysByUser[userID]
	out := make([]ledger.Transaction, 0, len(keys))
	for _, k := range keys {
		if tx, ok := s.transactions[k.ID]; ok && tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, txID uuid.UUID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[txID]
	if !ok || tx.UserID != userID {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return *tx, nil
}

// TransactionsInRange returns the user's transactions with start <= date <= end,
// optionally restricted to one category (pass uuid.Nil for all categories).
func (s *Store) TransactionsInRange(_ context.Context, userID, categoryID uuid.UUID, start, end time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start = ledger.DateOnly(start)
	end = ledger.DateOnly(end)
	out := make([]ledger.Transaction, 0)
	for _, k := range s.txKeysByUser[userID] {
		tx, ok := s.transactions[k.ID]
		if !ok || tx.UserID != userID {
			continue
		}
		if tx.Date.Before(start) {
			continue
		}
		if tx.Date.After(end) {
			break // index is date-ascending
		}
		if categoryID != uuid.Nil && tx.CategoryID != categoryID {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tx
	t.Date = ledger.DateOnly(t.Date)
	s.transactions[t.ID] = &t
	s.insertTxIndexLocked(t.UserID, txKey{Date: t.Date, ID: t.ID})
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[tx.ID]
	if !ok {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	t := tx
	t.Date = ledger.DateOnly(t.Date)
	if !old.Date.Equal(t.Date) {
		s.removeTxIndexLocked(old.UserID, txKey{Date: old.Date, ID: old.ID})
		s.insertTxIndexLocked(t.UserID, txKey{Date: t.Date, ID: t.ID})
	}
	s.transactions[t.ID] = &t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[txID]
	if !ok || tx.UserID != userID {
		return errs.ErrNotFound
	}
	s.removeTxIndexLocked(userID, txKey{Date: tx.Date, ID: tx.ID})
	delete(s.transactions, txID)
	return nil
}

// CountTransactionsByCategory reports how many live transactions reference a category.
func (s *Store) CountTransactionsByCategory(_ context.Context, userID, categoryID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// --- Goals ---

func (s *Store) ListGoals(_ context.Context, userID uuid.UUID) ([]ledger.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, userID, goalID uuid.UUID) (ledger.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return ledger.Goal{}, errs.ErrNotFound
	}
	return g, nil
}

func (s *Store) CreateGoal(_ context.Context, g ledger.Goal) (ledger.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g ledger.Goal) (ledger.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[g.ID]; !ok {
		return ledger.Goal{}, errs.ErrNotFound
	}
	s.goals[g.ID] = g
	return g, nil
}

// --- index maintenance ---

func (s *Store) insertTxIndexLocked(userID uuid.UUID, k txKey) {
	keys := s.txKeysByUser[userID]
	i := sort.Search(len(keys), func(i int) bool {
		if !keys[i].Date.Equal(k.Date) {
			return keys[i].Date.After(k.Date)
		}
		return keys[i].ID.String() >= k.ID.String()
	})
	keys = append(keys, txKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.txKeysByUser[userID] = keys
}

func (s *Store) removeTxIndexLocked(userID uuid.UUID, k txKey) {
	keys := s.txKeysByUser[userID]
	for i := range keys {
		if keys[i].ID == k.ID {
			s.txKeysByUser[userID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}
