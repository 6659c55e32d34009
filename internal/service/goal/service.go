// Package goal tracks savings goals. Goals accumulate explicit contributions
// and never interact with balances or budgets.
package goal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

type Store interface {
	ListGoals(ctx context.Context, userID uuid.UUID) ([]ledger.Goal, error)
	GetGoal(ctx context.Context, userID, goalID uuid.UUID) (ledger.Goal, error)
	CreateGoal(ctx context.Context, g ledger.Goal) (ledger.Goal, error)
	UpdateGoal(ctx context.Context, g ledger.Goal) (ledger.Goal, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service { return &Service{store: store} }

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]ledger.Goal, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.store.ListGoals(ctx, userID)
}

func (s *Service) Create(ctx context.Context, g ledger.Goal) (ledger.Goal, error) {
	if g.UserID == uuid.Nil {
		return ledger.Goal{}, errs.ErrInvalid
	}
	if g.Name == "" {
		return ledger.Goal{}, fmt.Errorf("name is required: %w", errs.ErrInvalid)
	}
	if g.TargetAmount.Sign() <= 0 {
		return ledger.Goal{}, fmt.Errorf("target amount must be positive: %w", errs.ErrInvalid)
	}
	g.ID = uuid.New()
	g.CurrentAmount = decimal.Decimal{}
	return s.store.CreateGoal(ctx, g)
}

// Contribute adds amount to the goal's running total.
func (s *Service) Contribute(ctx context.Context, userID, goalID uuid.UUID, amount decimal.Decimal) (ledger.Goal, error) {
	if userID == uuid.Nil || goalID == uuid.Nil {
		return ledger.Goal{}, errs.ErrInvalid
	}
	if amount.Sign() <= 0 {
		return ledger.Goal{}, fmt.Errorf("contribution must be positive: %w", errs.ErrInvalid)
	}
	g, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return ledger.Goal{}, err
	}
	next, err := g.CurrentAmount.Add(amount)
	if err != nil {
		return ledger.Goal{}, err
	}
	g.CurrentAmount = next
	return s.store.UpdateGoal(ctx, g)
}
