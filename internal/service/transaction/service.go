// Package transaction is the single-record CRUD path of the ledger. The
// transaction write is the authoritative action; balance and budget upkeep
// are side effects whose failures come back as warnings, never as errors
// that undo the write.
package transaction

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/balance"
	"github.com/tinoosan/fintrack/internal/service/budget"
)

// Store defines the transaction operations the service needs.
type Store interface {
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error)
	CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	UpdateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID uuid.UUID) error
}

// Warning is a non-fatal side-effect failure attached to a successful write.
type Warning struct {
	Op  string `json:"op"`
	Err error  `json:"-"`
}

func (w Warning) Message() string { return w.Op + ": " + w.Err.Error() }

// Service orchestrates transaction writes with their aggregate side effects.
type Service struct {
	store    Store
	balances *balance.Tracker
	budgets  *budget.Service
	log      *slog.Logger
}

func New(store Store, balances *balance.Tracker, budgets *budget.Service, logger *slog.Logger) *Service {
	return &Service{store: store, balances: balances, budgets: budgets, log: logger}
}

func (s *Service) validate(tx ledger.Transaction) error {
	if tx.UserID == uuid.Nil {
		return errs.ErrInvalid
	}
	if !ledger.ValidTransactionType(tx.Type) {
		return errs.ErrInvalid
	}
	if tx.Date.IsZero() {
		return errs.ErrInvalid
	}
	return nil
}

// Create persists a new transaction and applies its side effects. When the
// transaction carries no category ID but categoryName is set, the category is
// resolved (find-or-create) before the write.
func (s *Service) Create(ctx context.Context, tx ledger.Transaction, categoryName string) (ledger.Transaction, []Warning, error) {
	if err := s.validate(tx); err != nil {
		return ledger.Transaction{}, nil, err
	}
	if tx.CategoryID == uuid.Nil && categoryName != "" {
		cat, ok, err := s.budgets.ResolveCategory(ctx, tx.UserID, uuid.Nil, categoryName, tx.Type)
		if err != nil {
			return ledger.Transaction{}, nil, err
		}
		if ok {
			tx.CategoryID = cat.ID
		}
	}
	tx.ID = uuid.New()
	tx.Date = ledger.DateOnly(tx.Date)
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return ledger.Transaction{}, nil, err
	}
	warnings := make([]Warning, 0)
	if err := s.balances.OnCreate(ctx, created); err != nil {
		s.log.Warn("balance update failed on create", "tx_id", created.ID, "err", err)
		warnings = append(warnings, Warning{Op: "balance", Err: err})
	}
	if err := s.budgets.Apply(ctx, created); err != nil {
		s.log.Warn("budget update failed on create", "tx_id", created.ID, "err", err)
		warnings = append(warnings, Warning{Op: "budget", Err: err})
	}
	return created, warnings, nil
}

// Update replaces a transaction's fields and reconciles aggregates from the
// explicit old/new snapshots: the pre-update record is read first and every
// reversal is computed from it, never from the mutated state.
func (s *Service) Update(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, []Warning, error) {
	if tx.ID == uuid.Nil {
		return ledger.Transaction{}, nil, errs.ErrInvalid
	}
	if err := s.validate(tx); err != nil {
		return ledger.Transaction{}, nil, err
	}
	old, err := s.store.GetTransaction(ctx, tx.UserID, tx.ID)
	if err != nil {
		return ledger.Transaction{}, nil, err
	}
	tx.UserID = old.UserID
	tx.Date = ledger.DateOnly(tx.Date)
	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return ledger.Transaction{}, nil, err
	}
	warnings := make([]Warning, 0)
	if err := s.balances.OnUpdate(ctx, old, updated); err != nil {
		s.log.Warn("balance update failed on update", "tx_id", updated.ID, "err", err)
		warnings = append(warnings, Warning{Op: "balance", Err: err})
	}
	if err := s.budgets.Reverse(ctx, old); err != nil {
		s.log.Warn("budget reversal failed on update", "tx_id", updated.ID, "err", err)
		warnings = append(warnings, Warning{Op: "budget", Err: err})
	}
	if err := s.budgets.Apply(ctx, updated); err != nil {
		s.log.Warn("budget update failed on update", "tx_id", updated.ID, "err", err)
		warnings = append(warnings, Warning{Op: "budget", Err: err})
	}
	return updated, warnings, nil
}

// Delete removes a transaction and reverses its effects.
func (s *Service) Delete(ctx context.Context, userID, txID uuid.UUID) ([]Warning, error) {
	if userID == uuid.Nil || txID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	old, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTransaction(ctx, userID, txID); err != nil {
		return nil, err
	}
	warnings := make([]Warning, 0)
	if err := s.balances.OnDelete(ctx, old); err != nil {
		s.log.Warn("balance reversal failed on delete", "tx_id", txID, "err", err)
		warnings = append(warnings, Warning{Op: "balance", Err: err})
	}
	if err := s.budgets.Reverse(ctx, old); err != nil {
		s.log.Warn("budget reversal failed on delete", "tx_id", txID, "err", err)
		warnings = append(warnings, Warning{Op: "budget", Err: err})
	}
	return warnings, nil
}

// BulkDelete removes every transaction of a user and reverses the aggregate
// effects with one write per account and one per budget, computed in memory
// first. Per-item failures are warnings; the deletes themselves stand.
func (s *Service) BulkDelete(ctx context.Context, userID uuid.UUID) (int, []Warning, error) {
	if userID == uuid.Nil {
		return 0, nil, errs.ErrInvalid
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	warnings := make([]Warning, 0)
	deleted := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if err := s.store.DeleteTransaction(ctx, userID, tx.ID); err != nil {
			s.log.Warn("bulk delete failed for transaction", "tx_id", tx.ID, "err", err)
			warnings = append(warnings, Warning{Op: "delete", Err: err})
			continue
		}
		deleted = append(deleted, tx)
	}
	for _, err := range s.balances.OnBulkDelete(ctx, deleted) {
		warnings = append(warnings, Warning{Op: "balance", Err: err})
	}
	warnings = append(warnings, s.reverseBudgets(ctx, userID, deleted)...)
	return len(deleted), warnings, nil
}

// reverseBudgets aggregates deleted expenses per (category, month) and issues
// one decrement per affected budget, mirroring the importer's consolidated
// apply pass.
func (s *Service) reverseBudgets(ctx context.Context, userID uuid.UUID, deleted []ledger.Transaction) []Warning {
	type key struct {
		categoryID uuid.UUID
		month      string
	}
	sums := make(map[key]ledger.Transaction) // representative tx carries the running sum
	order := make([]key, 0)
	for _, tx := range deleted {
		if tx.Type != ledger.TransactionTypeExpense || tx.CategoryID == uuid.Nil {
			continue
		}
		k := key{categoryID: tx.CategoryID, month: ledger.MonthKey(tx.Date)}
		agg, ok := sums[k]
		if !ok {
			agg = ledger.Transaction{CategoryID: tx.CategoryID, Date: ledger.FirstOfMonth(tx.Date)}
			order = append(order, k)
		}
		v, err := agg.Amount.Add(tx.Amount.Abs())
		if err != nil {
			s.log.Error("bulk delete budget sum overflow", "category_id", tx.CategoryID, "err", err)
			continue
		}
		agg.Amount = v
		sums[k] = agg
	}
	warnings := make([]Warning, 0)
	for _, k := range order {
		agg := sums[k]
		if err := s.budgets.ReverseGroup(ctx, userID, agg.CategoryID, agg.Date, agg.Amount); err != nil {
			s.log.Warn("bulk delete budget reversal failed", "category_id", agg.CategoryID, "month", k.month, "err", err)
			warnings = append(warnings, Warning{Op: "budget", Err: err})
		}
	}
	return warnings
}

// List returns the user's transactions ordered by date.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.store.ListTransactions(ctx, userID)
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error) {
	if userID == uuid.Nil || txID == uuid.Nil {
		return ledger.Transaction{}, errs.ErrInvalid
	}
	return s.store.GetTransaction(ctx, userID, txID)
}
