// Package category manages the per-user category namespace. Names are unique
// per user under slug normalization, and a category referenced by live
// transactions cannot be deleted.
package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

type Store interface {
	ListCategories(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error)
	GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (ledger.Category, error)
	CategoryByName(ctx context.Context, userID uuid.UUID, name string) (ledger.Category, error)
	CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
	CountTransactionsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (int, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service { return &Service{store: store} }

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.store.ListCategories(ctx, userID)
}

// Create adds a category, rejecting names that collide with an existing one
// for the user.
func (s *Service) Create(ctx context.Context, c ledger.Category) (ledger.Category, error) {
	if c.UserID == uuid.Nil {
		return ledger.Category{}, errs.ErrInvalid
	}
	if c.Name == "" {
		return ledger.Category{}, fmt.Errorf("name is required: %w", errs.ErrInvalid)
	}
	if !ledger.ValidCategoryType(c.Type) {
		return ledger.Category{}, fmt.Errorf("invalid category type %q: %w", c.Type, errs.ErrInvalid)
	}
	if _, err := s.store.CategoryByName(ctx, c.UserID, c.Name); err == nil {
		return ledger.Category{}, errs.ErrConflict
	} else if !errors.Is(err, errs.ErrNotFound) {
		return ledger.Category{}, err
	}
	c.ID = uuid.New()
	return s.store.CreateCategory(ctx, c)
}

// Delete removes a category unless transactions still reference it.
func (s *Service) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	if userID == uuid.Nil || categoryID == uuid.Nil {
		return errs.ErrInvalid
	}
	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	n, err := s.store.CountTransactionsByCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if n > 0 {
		return errs.ErrConflict
	}
	return s.store.DeleteCategory(ctx, userID, categoryID)
}
