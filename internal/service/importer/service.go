// Package importer ingests batches of normalized transaction rows: each row
// becomes a transaction with its balance applied immediately, and budget
// bookkeeping runs once at the end as a consolidated pass per category/month.
package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/balance"
	"github.com/tinoosan/fintrack/internal/service/budget"
)

// Row is one already-normalized import row. Parsing the external format
// (CSV or otherwise) happens upstream.
type Row struct {
	Date        time.Time
	Amount      string
	Description string
	Vendor      string
	Type        ledger.TransactionType
	Category    string
	AccountID   uuid.UUID
}

// ItemError reports a per-row failure in a batch.
type ItemError struct {
	Index int
	Code  string
	Err   error
}

// Store defines the write operations the coordinator needs.
type Store interface {
	CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
}

// Coordinator orchestrates bulk ingestion.
type Coordinator struct {
	store    Store
	balances *balance.Tracker
	budgets  *budget.Service
	log      *slog.Logger
}

func New(store Store, balances *balance.Tracker, budgets *budget.Service, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, balances: balances, budgets: budgets, log: logger}
}

type groupKey struct {
	categoryID uuid.UUID
	month      time.Time
}

type groupAgg struct {
	sum decimal.Decimal
	max decimal.Decimal
}

// Import persists every valid row, applying balances per row and budgets once
// per (category, month) group afterwards. Rows that fail validation or
// category resolution are skipped with a warning; they never abort the batch.
// Side-effect failures are also warnings: the persisted rows stand.
func (c *Coordinator) Import(ctx context.Context, userID uuid.UUID, rows []Row) ([]ledger.Transaction, []ItemError, error) {
	created := make([]ledger.Transaction, 0, len(rows))
	warnings := make([]ItemError, 0)

	for i, row := range rows {
		amount, err := decimal.Parse(row.Amount)
		if err != nil {
			c.log.Warn("skipping import row with invalid amount", "index", i, "amount", row.Amount)
			warnings = append(warnings, ItemError{Index: i, Code: "invalid_amount", Err: err})
			continue
		}
		if !ledger.ValidTransactionType(row.Type) {
			row.Type = ledger.TransactionTypeExpense
		}
		var categoryID uuid.UUID
		if row.Category != "" {
			cat, ok, err := c.budgets.ResolveCategory(ctx, userID, uuid.Nil, row.Category, row.Type)
			if err != nil {
				c.log.Warn("skipping import row, category resolution failed", "index", i, "category", row.Category, "err", err)
				warnings = append(warnings, ItemError{Index: i, Code: "category_error", Err: err})
				continue
			}
			if ok {
				categoryID = cat.ID
			}
		}
		tx := ledger.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			AccountID:   row.AccountID,
			CategoryID:  categoryID,
			Amount:      amount.Abs(),
			Description: row.Description,
			Vendor:      row.Vendor,
			Type:        row.Type,
			Date:        ledger.DateOnly(row.Date),
		}
		persisted, err := c.store.CreateTransaction(ctx, tx)
		if err != nil {
			warnings = append(warnings, ItemError{Index: i, Code: "storage_error", Err: err})
			continue
		}
		if err := c.balances.OnCreate(ctx, persisted); err != nil {
			c.log.Warn("import balance adjustment failed", "index", i, "err", err)
			warnings = append(warnings, ItemError{Index: i, Code: "balance_error", Err: err})
		}
		created = append(created, persisted)
	}

	// Consolidated budget pass: one store round-trip per (category, month)
	// instead of one per row.
	groups := make(map[groupKey]groupAgg)
	order := make([]groupKey, 0)
	for _, tx := range created {
		if tx.Type != ledger.TransactionTypeExpense || tx.CategoryID == uuid.Nil {
			continue
		}
		k := groupKey{categoryID: tx.CategoryID, month: ledger.FirstOfMonth(tx.Date)}
		agg, ok := groups[k]
		if !ok {
			order = append(order, k)
		}
		sum, err := agg.sum.Add(tx.Amount.Abs())
		if err != nil {
			c.log.Error("import group sum overflow", "category_id", k.categoryID, "err", err)
			continue
		}
		agg.sum = sum
		if tx.Amount.Abs().Cmp(agg.max) > 0 {
			agg.max = tx.Amount.Abs()
		}
		groups[k] = agg
	}
	for _, k := range order {
		agg := groups[k]
		if err := c.budgets.ApplyGroup(ctx, userID, k.categoryID, k.month, agg.sum, agg.max); err != nil {
			c.log.Warn("import budget pass failed for group", "category_id", k.categoryID, "month", ledger.MonthKey(k.month), "err", err)
			warnings = append(warnings, ItemError{Index: -1, Code: "budget_error", Err: err})
		}
	}

	return created, warnings, nil
}
