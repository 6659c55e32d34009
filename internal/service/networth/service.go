// Package networth reconstructs a monthly net-worth series from current
// account balances and the transaction history, by walking the ledger
// backward and undoing each transaction's signed effect.
//
// Correctness depends on cached balances matching the ledger: if a balance
// has drifted from the sum of its transactions, the whole reconstructed
// series is off by the same amount. That is a documented precondition, not
// something this package detects.
package networth

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Store defines the read operations needed for reconstruction.
type Store interface {
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error)
}

// Point is one month of the reconstructed series.
type Point struct {
	Month    string // "yyyy-MM"
	NetWorth decimal.Decimal
}

// Service reconstructs net-worth trends.
type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewAt constructs a service with a fixed clock, for tests.
func NewAt(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// Trend returns the net worth for the most recent months, oldest first. The
// current month always reports the live sum of account balances; earlier
// months report the value as of the start of the following walkback.
func (s *Service) Trend(ctx context.Context, userID uuid.UUID, months int) ([]Point, error) {
	if userID == uuid.Nil || months < 1 {
		return nil, errs.ErrInvalid
	}

	monthKeys := make([]string, months)
	cursor := ledger.FirstOfMonth(s.now())
	for i := months - 1; i >= 0; i-- {
		monthKeys[i] = ledger.MonthKey(cursor)
		cursor = cursor.AddDate(0, -1, 0)
	}
	currentMonth := monthKeys[months-1]

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := decimal.Decimal{}
	for _, a := range accounts {
		v, err := current.Add(a.Balance)
		if err != nil {
			return nil, err
		}
		current = v
	}

	values := map[string]decimal.Decimal{currentMonth: current}
	if len(accounts) == 0 {
		// no accounts means no history to unwind; every month is zero
		return assemble(monthKeys, values, decimal.Decimal{}), nil
	}
	if months == 1 {
		return assemble(monthKeys, values, current), nil
	}

	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	walk := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.AccountID == uuid.Nil {
			continue
		}
		walk = append(walk, tx)
	}
	// Most recent first; equal dates break on descending ID so replays are
	// deterministic regardless of store iteration order.
	sort.Slice(walk, func(i, j int) bool {
		if !walk[i].Date.Equal(walk[j].Date) {
			return walk[i].Date.After(walk[j].Date)
		}
		return walk[i].ID.String() > walk[j].ID.String()
	})

	inWindow := make(map[string]struct{}, months)
	for _, m := range monthKeys {
		inWindow[m] = struct{}{}
	}

	running := current
	lastProcessed := currentMonth
	for _, tx := range walk {
		txMonth := ledger.MonthKey(tx.Date)
		if txMonth > currentMonth {
			// future-dated entries are not part of the current balance story
			continue
		}
		if txMonth != lastProcessed {
			// every month in the gap held the running value throughout
			for _, m := range monthKeys {
				if _, done := values[m]; done {
					continue
				}
				if m <= lastProcessed && m > txMonth {
					values[m] = running
				}
			}
			lastProcessed = txMonth
		}
		v, err := running.Sub(tx.SignedEffect())
		if err != nil {
			return nil, err
		}
		running = v
		if txMonth != currentMonth {
			if _, ok := inWindow[txMonth]; ok {
				// last write wins: once the month's earliest transaction is
				// undone this holds the value as of the month's start
				values[txMonth] = running
			}
		}
	}

	return assemble(monthKeys, values, running), nil
}

// assemble orders the series oldest-first, filling months with no recorded
// value with fallback (the net worth that held before the earliest
// transaction).
func assemble(monthKeys []string, values map[string]decimal.Decimal, fallback decimal.Decimal) []Point {
	out := make([]Point, 0, len(monthKeys))
	for _, m := range monthKeys {
		v, ok := values[m]
		if !ok {
			v = fallback
		}
		out = append(out, Point{Month: m, NetWorth: v})
	}
	return out
}
