package balance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
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

func setup(t *testing.T) (*memory.Store, *Tracker, uuid.UUID, ledger.Account) {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID})
	acc := ledger.Account{ID: uuid.New(), UserID: userID, Name: "Current", Type: ledger.AccountTypeChecking, Balance: dec("1000"), Active: true}
	store.SeedAccount(acc)
	return store, New(store, testLogger()), userID, acc
}

func balanceOf(t *testing.T, store *memory.Store, userID, accountID uuid.UUID) decimal.Decimal {
	t.Helper()
	a, err := store.GetAccount(context.Background(), userID, accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Balance
}

func TestCreateThenDeleteRestoresBalance(t *testing.T) {
	store, tracker, userID, acc := setup(t)
	ctx := context.Background()

	tx := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: acc.ID, Amount: dec("50"), Type: ledger.TransactionTypeExpense, Date: date("2025-03-10")}
	if err := tracker.OnCreate(ctx, tx); err != nil {
		t.Fatalf("on create: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got.String() != "950" {
		t.Fatalf("after expense: balance = %s, want 950", got)
	}
	if err := tracker.OnDelete(ctx, tx); err != nil {
		t.Fatalf("on delete: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got.String() != "1000" {
		t.Fatalf("after delete: balance = %s, want 1000", got)
	}
}

func TestIncomeIncreasesBalance(t *testing.T) {
	store, tracker, userID, acc := setup(t)
	tx := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: acc.ID, Amount: dec("250.25"), Type: ledger.TransactionTypeIncome, Date: date("2025-03-01")}
	if err := tracker.OnCreate(context.Background(), tx); err != nil {
		t.Fatalf("on create: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got.String() != "1250.25" {
		t.Fatalf("balance = %s, want 1250.25", got)
	}
}

func TestUpdateSymmetry(t *testing.T) {
	store, tracker, userID, acc := setup(t)
	ctx := context.Background()

	old := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: acc.ID, Amount: dec("80"), Type: ledger.TransactionTypeExpense, Date: date("2025-03-05")}
	if err := tracker.OnCreate(ctx, old); err != nil {
		t.Fatalf("on create: %v", err)
	}
	updated := old
	updated.Amount = dec("120")
	updated.Type = ledger.TransactionTypeIncome
	if err := tracker.OnUpdate(ctx, old, updated); err != nil {
		t.Fatalf("on update: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got.String() != "1120" {
		t.Fatalf("after update: balance = %s, want 1120", got)
	}
	// applying the inverse update must restore the prior balance exactly
	if err := tracker.OnUpdate(ctx, updated, old); err != nil {
		t.Fatalf("inverse update: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got.String() != "920" {
		t.Fatalf("after inverse: balance = %s, want 920", got)
	}
}

func TestUpdateMovesBetweenAccounts(t *testing.T) {
	store, tracker, userID, from := setup(t)
	ctx := context.Background()
	to := ledger.Account{ID: uuid.New(), UserID: userID, Name: "Savings", Type: ledger.AccountTypeSavings, Balance: dec("500"), Active: true}
	store.SeedAccount(to)

	old := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: from.ID, Amount: dec("100"), Type: ledger.TransactionTypeExpense, Date: date("2025-02-14")}
	if err := tracker.OnCreate(ctx, old); err != nil {
		t.Fatalf("on create: %v", err)
	}
	moved := old
	moved.AccountID = to.ID
	if err := tracker.OnUpdate(ctx, old, moved); err != nil {
		t.Fatalf("on update: %v", err)
	}
	if got := balanceOf(t, store, userID, from.ID); got.String() != "1000" {
		t.Fatalf("old account = %s, want 1000", got)
	}
	if got := balanceOf(t, store, userID, to.ID); got.String() != "400" {
		t.Fatalf("new account = %s, want 400", got)
	}
}

func TestUpdateClearingAccountReversesOnly(t *testing.T) {
	store, tracker, userID, acc := setup(t)
	ctx := context.Background()

	old := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: acc.ID, Amount: dec("30"), Type: ledger.TransactionTypeExpense, Date: date("2025-01-02")}
	if err := tracker.OnCreate(ctx, old); err != nil {
		t.Fatalf("on create: %v", err)
	}
	cleared := old
	cleared.AccountID = uuid.Nil
	if err := tracker.OnUpdate(ctx, old, cleared); err != nil {
		t.Fatalf("on update: %v", err)
	}
	if got := balanceOf(t, store, userID, acc.ID); got.String() != "1000" {
		t.Fatalf("balance = %s, want 1000", got)
	}
	// neither side has an account: no-op
	if err := tracker.OnUpdate(ctx, cleared, cleared); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
}

func TestBulkDeleteEquivalentToSequential(t *testing.T) {
	ctx := context.Background()
	mk := func() (*memory.Store, *Tracker, uuid.UUID, ledger.Account, ledger.Account, []ledger.Transaction) {
		store := memory.New()
		userID := uuid.New()
		a := ledger.Account{ID: uuid.New(), UserID: userID, Name: "A", Type: ledger.AccountTypeChecking, Balance: dec("100"), Active: true}
		b := ledger.Account{ID: uuid.New(), UserID: userID, Name: "B", Type: ledger.AccountTypeSavings, Balance: dec("200"), Active: true}
		store.SeedAccount(a)
		store.SeedAccount(b)
		txs := []ledger.Transaction{
			{ID: uuid.New(), UserID: userID, AccountID: a.ID, Amount: dec("10"), Type: ledger.TransactionTypeExpense, Date: date("2025-01-01")},
			{ID: uuid.New(), UserID: userID, AccountID: a.ID, Amount: dec("40"), Type: ledger.TransactionTypeIncome, Date: date("2025-01-02")},
			{ID: uuid.New(), UserID: userID, AccountID: b.ID, Amount: dec("25"), Type: ledger.TransactionTypeExpense, Date: date("2025-01-03")},
			{ID: uuid.New(), UserID: userID, AccountID: uuid.Nil, Amount: dec("99"), Type: ledger.TransactionTypeExpense, Date: date("2025-01-04")},
		}
		return store, New(store, testLogger()), userID, a, b, txs
	}

	bulkStore, bulkTracker, userID, a, b, txs := mk()
	if warns := bulkTracker.OnBulkDelete(ctx, txs); len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	bulkA := balanceOf(t, bulkStore, userID, a.ID)
	bulkB := balanceOf(t, bulkStore, userID, b.ID)

	seqStore, seqTracker, userID2, a2, b2, txs2 := mk()
	for _, tx := range txs2 {
		if err := seqTracker.OnDelete(ctx, tx); err != nil {
			t.Fatalf("sequential delete: %v", err)
		}
	}
	if got := balanceOf(t, seqStore, userID2, a2.ID); got.Cmp(bulkA) != 0 {
		t.Fatalf("account A: bulk %s != sequential %s", bulkA, got)
	}
	if got := balanceOf(t, seqStore, userID2, b2.ID); got.Cmp(bulkB) != 0 {
		t.Fatalf("account B: bulk %s != sequential %s", bulkB, got)
	}
	if bulkA.String() != "70" || bulkB.String() != "225" {
		t.Fatalf("unexpected balances: A=%s B=%s", bulkA, bulkB)
	}
}

func TestMissingAccountIsSkipped(t *testing.T) {
	_, tracker, userID, _ := setup(t)
	tx := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: uuid.New(), Amount: dec("10"), Type: ledger.TransactionTypeExpense, Date: date("2025-01-01")}
	if err := tracker.OnCreate(context.Background(), tx); err != nil {
		t.Fatalf("expected missing account to be skipped, got %v", err)
	}
	if err := tracker.OnDelete(context.Background(), tx); err != nil {
		t.Fatalf("expected missing account to be skipped, got %v", err)
	}
}

func TestBalanceConservation(t *testing.T) {
	store, tracker, userID, acc := setup(t)
	ctx := context.Background()

	live := make([]ledger.Transaction, 0)
	mkTx := func(amount string, typ ledger.TransactionType, day string) ledger.Transaction {
		return ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: acc.ID, Amount: dec(amount), Type: typ, Date: date(day)}
	}
	t1 := mkTx("100", ledger.TransactionTypeIncome, "2025-01-05")
	t2 := mkTx("40", ledger.TransactionTypeExpense, "2025-01-08")
	t3 := mkTx("60", ledger.TransactionTypeExpense, "2025-01-09")
	for _, tx := range []ledger.Transaction{t1, t2, t3} {
		if err := tracker.OnCreate(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	// edit t2, delete t3
	t2b := t2
	t2b.Amount = dec("55")
	if err := tracker.OnUpdate(ctx, t2, t2b); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := tracker.OnDelete(ctx, t3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	live = append(live, t1, t2b)

	want := dec("1000")
	for _, tx := range live {
		v, err := want.Add(tx.SignedEffect())
		if err != nil {
			t.Fatalf("sum: %v", err)
		}
		want = v
	}
	if got := balanceOf(t, store, userID, acc.ID); got.Cmp(want) != 0 {
		t.Fatalf("balance = %s, want %s (initial + signed effects of live set)", got, want)
	}
}
