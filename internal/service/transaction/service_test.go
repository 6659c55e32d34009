package transaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/balance"
	"github.com/tinoosan/fintrack/internal/service/budget"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func dec(s string) decimal.Decimal { return decimal.MustParse(s) }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func setup(t *testing.T) (*memory.Store, *Service, uuid.UUID, ledger.Account) {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID})
	acc := ledger.Account{ID: uuid.New(), UserID: userID, Name: "Current", Type: ledger.AccountTypeChecking, Balance: dec("1000"), Active: true}
	store.SeedAccount(acc)
	svc := New(store, balance.New(store, testLogger()), budget.New(store, testLogger()), testLogger())
	return store, svc, userID, acc
}

func TestCreateAppliesBalanceAndAutoBudget(t *testing.T) {
	store, svc, userID, acc := setup(t)
	ctx := context.Background()

	created, warns, err := svc.Create(ctx, ledger.Transaction{
		UserID:      userID,
		AccountID:   acc.ID,
		Amount:      dec("900"),
		Description: "April rent",
		Type:        ledger.TransactionTypeExpense,
		Date:        date("2025-04-03"),
	}, "Rent")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("warnings: %+v", warns)
	}
	if created.CategoryID == uuid.Nil {
		t.Fatal("category should have been resolved from the name")
	}
	got, _ := store.GetAccount(ctx, userID, acc.ID)
	if got.Balance.String() != "100" {
		t.Fatalf("balance = %s, want 100", got.Balance)
	}
	budgets, _ := store.ListBudgets(ctx, userID)
	if len(budgets) != 1 {
		t.Fatalf("budgets = %d, want 1 auto-created", len(budgets))
	}
	b := budgets[0]
	if !b.AutoCreated || b.Amount.String() != "900" || b.Spent.String() != "900" {
		t.Fatalf("auto budget = %+v", b)
	}
	if b.StartDate.Format("2006-01-02") != "2025-04-01" || b.EndDate.Format("2006-01-02") != "2025-04-30" {
		t.Fatalf("period = %s..%s", b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"))
	}
}

func TestUpdateReconcilesFromSnapshots(t *testing.T) {
	store, svc, userID, acc := setup(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, ledger.Transaction{
		UserID: userID, AccountID: acc.ID, Amount: dec("50"),
		Type: ledger.TransactionTypeExpense, Date: date("2025-03-08"),
	}, "Food")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edited := created
	edited.Amount = dec("80")
	updated, warns, err := svc.Update(ctx, edited)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("warnings: %+v", warns)
	}
	if updated.Amount.String() != "80" {
		t.Fatalf("amount = %s", updated.Amount)
	}
	got, _ := store.GetAccount(ctx, userID, acc.ID)
	if got.Balance.String() != "920" {
		t.Fatalf("balance = %s, want 920 (1000 - 80)", got.Balance)
	}
	budgets, _ := store.ListBudgets(ctx, userID)
	if len(budgets) != 1 || budgets[0].Spent.String() != "80" {
		t.Fatalf("budget spent should follow the edit: %+v", budgets)
	}
}

func TestDeleteReversesEffects(t *testing.T) {
	store, svc, userID, acc := setup(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, ledger.Transaction{
		UserID: userID, AccountID: acc.ID, Amount: dec("50"),
		Type: ledger.TransactionTypeExpense, Date: date("2025-03-08"),
	}, "Food")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	warns, err := svc.Delete(ctx, userID, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("warnings: %+v", warns)
	}
	got, _ := store.GetAccount(ctx, userID, acc.ID)
	if got.Balance.String() != "1000" {
		t.Fatalf("balance = %s, want 1000", got.Balance)
	}
	budgets, _ := store.ListBudgets(ctx, userID)
	if len(budgets) != 1 || budgets[0].Spent.String() != "0" {
		t.Fatalf("budget spent should be reversed: %+v", budgets)
	}
	if _, err := svc.Get(ctx, userID, created.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteUnknownSurfacesNotFound(t *testing.T) {
	_, svc, userID, _ := setup(t)
	if _, err := svc.Delete(context.Background(), userID, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBulkDeleteAggregates(t *testing.T) {
	store, svc, userID, acc := setup(t)
	ctx := context.Background()
	other := ledger.Account{ID: uuid.New(), UserID: userID, Name: "Savings", Type: ledger.AccountTypeSavings, Balance: dec("200"), Active: true}
	store.SeedAccount(other)

	for _, seed := range []struct {
		account uuid.UUID
		amount  string
		typ     ledger.TransactionType
		day     string
		cat     string
	}{
		{acc.ID, "100", ledger.TransactionTypeExpense, "2025-03-02", "Food"},
		{acc.ID, "60", ledger.TransactionTypeExpense, "2025-03-12", "Food"},
		{other.ID, "500", ledger.TransactionTypeIncome, "2025-03-15", "Salary"},
	} {
		if _, _, err := svc.Create(ctx, ledger.Transaction{
			UserID: userID, AccountID: seed.account, Amount: dec(seed.amount),
			Type: seed.typ, Date: date(seed.day),
		}, seed.cat); err != nil {
			t.Fatalf("seed create: %v", err)
		}
	}

	count, warns, err := svc.BulkDelete(ctx, userID)
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if len(warns) != 0 {
		t.Fatalf("warnings: %+v", warns)
	}
	a, _ := store.GetAccount(ctx, userID, acc.ID)
	if a.Balance.String() != "1000" {
		t.Fatalf("checking balance = %s, want 1000", a.Balance)
	}
	b, _ := store.GetAccount(ctx, userID, other.ID)
	if b.Balance.String() != "200" {
		t.Fatalf("savings balance = %s, want 200", b.Balance)
	}
	budgets, _ := store.ListBudgets(ctx, userID)
	for _, bd := range budgets {
		if !bd.Spent.IsZero() {
			t.Fatalf("budget spent should be fully reversed: %+v", bd)
		}
	}
	if txs, _ := store.ListTransactions(ctx, userID); len(txs) != 0 {
		t.Fatalf("transactions remain: %d", len(txs))
	}
}

func TestCreateValidation(t *testing.T) {
	_, svc, userID, _ := setup(t)
	ctx := context.Background()
	if _, _, err := svc.Create(ctx, ledger.Transaction{UserID: uuid.Nil, Type: ledger.TransactionTypeExpense, Date: date("2025-01-01")}, ""); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected invalid for nil user, got %v", err)
	}
	if _, _, err := svc.Create(ctx, ledger.Transaction{UserID: userID, Type: "transfer", Date: date("2025-01-01")}, ""); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected invalid for bad type, got %v", err)
	}
	if _, _, err := svc.Create(ctx, ledger.Transaction{UserID: userID, Type: ledger.TransactionTypeExpense}, ""); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected invalid for zero date, got %v", err)
	}
}
