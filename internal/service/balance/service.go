// Package balance keeps cached account balances consistent with transaction
// mutations. Balances are adjusted incrementally from explicit old/new
// snapshots; nothing here ever recomputes a balance from scratch.
package balance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Store defines the account read/write operations needed by the tracker.
type Store interface {
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
}

// Tracker applies signed balance deltas to accounts.
type Tracker struct {
	store Store
	log   *slog.Logger
}

func New(store Store, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, log: logger}
}

// OnCreate applies the transaction's signed effect to its account.
func (t *Tracker) OnCreate(ctx context.Context, tx ledger.Transaction) error {
	if tx.AccountID == uuid.Nil {
		return nil
	}
	return t.apply(ctx, tx.UserID, tx.AccountID, tx.SignedEffect())
}

// OnUpdate reverses the old transaction's effect and applies the new one.
// Both deltas are computed from the snapshots passed in, never from a
// partially-mutated record. When the account is unchanged the two writes
// collapse into a single net adjustment.
func (t *Tracker) OnUpdate(ctx context.Context, old, new ledger.Transaction) error {
	if old.AccountID == new.AccountID {
		if new.AccountID == uuid.Nil {
			return nil
		}
		delta, err := new.SignedEffect().Sub(old.SignedEffect())
		if err != nil {
			return err
		}
		return t.apply(ctx, new.UserID, new.AccountID, delta)
	}
	if old.AccountID != uuid.Nil {
		if err := t.apply(ctx, old.UserID, old.AccountID, old.SignedEffect().Neg()); err != nil {
			return err
		}
	}
	if new.AccountID != uuid.Nil {
		return t.apply(ctx, new.UserID, new.AccountID, new.SignedEffect())
	}
	return nil
}

// OnDelete reverses the transaction's effect on its account.
func (t *Tracker) OnDelete(ctx context.Context, tx ledger.Transaction) error {
	if tx.AccountID == uuid.Nil {
		return nil
	}
	return t.apply(ctx, tx.UserID, tx.AccountID, tx.SignedEffect().Neg())
}

// OnBulkDelete reverses a whole set of transactions with one balance write per
// affected account. Per-account failures are logged and returned as warnings;
// none of them aborts the rest of the pass.
func (t *Tracker) OnBulkDelete(ctx context.Context, txs []ledger.Transaction) []error {
	type acctKey struct{ userID, accountID uuid.UUID }
	deltas := make(map[acctKey]decimal.Decimal)
	order := make([]acctKey, 0)
	for _, tx := range txs {
		if tx.AccountID == uuid.Nil {
			continue
		}
		k := acctKey{tx.UserID, tx.AccountID}
		cur, ok := deltas[k]
		if !ok {
			order = append(order, k)
		}
		next, err := cur.Sub(tx.SignedEffect())
		if err != nil {
			t.log.Error("bulk delete delta overflow", "account_id", k.accountID, "err", err)
			continue
		}
		deltas[k] = next
	}
	warnings := make([]error, 0)
	for _, k := range order {
		if err := t.apply(ctx, k.userID, k.accountID, deltas[k]); err != nil {
			t.log.Warn("bulk delete balance adjustment failed", "account_id", k.accountID, "err", err)
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// apply adds delta to the account's balance. A missing account is skipped:
// the transaction write stays valid even when its account has since been
// removed.
func (t *Tracker) apply(ctx context.Context, userID, accountID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	acc, err := t.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			t.log.Warn("skipping balance adjustment for missing account", "account_id", accountID)
			return nil
		}
		return err
	}
	next, err := acc.Balance.Add(delta)
	if err != nil {
		return err
	}
	acc.Balance = next
	_, err = t.store.UpdateAccount(ctx, acc)
	return err
}
