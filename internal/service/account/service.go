// Package account implements the account service rules: immutable type,
// editable descriptive fields, soft-deletes. Balances are written here only
// at creation; after that they belong to the balance tracker.
package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

type Repo interface {
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
}

type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
}

type Service interface {
	ValidateCreate(a ledger.Account) error
	Create(ctx context.Context, a ledger.Account) (ledger.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	Update(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Deactivate(ctx context.Context, userID, accountID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) ValidateCreate(account ledger.Account) error {
	if account.UserID == uuid.Nil {
		return errs.ErrInvalid
	}
	if account.Name == "" {
		return fmt.Errorf("name is required: %w", errs.ErrInvalid)
	}
	if !ledger.ValidAccountType(account.Type) {
		return fmt.Errorf("invalid account type %q: %w", account.Type, errs.ErrInvalid)
	}
	return nil
}

// Create persists a new account. The supplied balance is the account's
// initial balance; every later balance change flows through the tracker.
func (s *service) Create(ctx context.Context, account ledger.Account) (ledger.Account, error) {
	if err := s.ValidateCreate(account); err != nil {
		return ledger.Account{}, err
	}
	accNew := ledger.Account{
		ID:          uuid.New(),
		UserID:      account.UserID,
		Name:        account.Name,
		Type:        account.Type,
		Balance:     account.Balance,
		Institution: account.Institution,
		Metadata:    account.Metadata,
		Active:      true,
	}
	return s.writer.CreateAccount(ctx, accNew)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListAccounts(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	return s.repo.GetAccount(ctx, userID, accountID)
}

// Update applies allowed changes to name/institution/metadata. Type and
// balance are immutable here: the type fixes the account's semantics and the
// balance is owned by the tracker.
func (s *service) Update(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if a.UserID == uuid.Nil || a.ID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	current, err := s.repo.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return ledger.Account{}, err
	}
	if current.UserID != a.UserID {
		return ledger.Account{}, errs.ErrForbidden
	}
	if a.Type != "" && a.Type != current.Type {
		return ledger.Account{}, errs.ErrUnprocessable
	}
	if a.Name != "" {
		current.Name = a.Name
	}
	current.Institution = a.Institution
	if a.Metadata != nil {
		current.Metadata = a.Metadata
	}
	return s.writer.UpdateAccount(ctx, current)
}

// Deactivate sets Active=false (soft delete). The balance and history stay
// queryable for reporting.
func (s *service) Deactivate(ctx context.Context, userID, accountID uuid.UUID) error {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return errs.ErrInvalid
	}
	acc, err := s.repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if acc.UserID != userID {
		return errs.ErrForbidden
	}
	acc.Active = false
	if _, err := s.writer.UpdateAccount(ctx, acc); err != nil {
		return err
	}
	return nil
}
