package networth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.MustParse(s) }

// fixed "now" keeps month arithmetic stable in tests
var now = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func svcAt(store *memory.Store) *Service {
	return NewAt(store, func() time.Time { return now })
}

func seedAccount(store *memory.Store, userID uuid.UUID, balance string) ledger.Account {
	a := ledger.Account{ID: uuid.New(), UserID: userID, Name: "A" + balance, Type: ledger.AccountTypeChecking, Balance: dec(balance), Active: true}
	store.SeedAccount(a)
	return a
}

func seedTx(t *testing.T, store *memory.Store, userID, accountID uuid.UUID, amount string, typ ledger.TransactionType, day string) ledger.Transaction {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatal(err)
	}
	tx := ledger.Transaction{ID: uuid.New(), UserID: userID, AccountID: accountID, Amount: dec(amount), Type: typ, Date: d}
	if _, err := store.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("seed tx: %v", err)
	}
	return tx
}

func TestTwoMonthTrendUndoesExpense(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a1 := seedAccount(store, userID, "100")
	seedAccount(store, userID, "200")
	seedTx(t, store, userID, a1.ID, "50", ledger.TransactionTypeExpense, "2025-05-10")

	points, err := svcAt(store).Trend(context.Background(), userID, 2)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Month != "2025-05" || points[0].NetWorth.String() != "350" {
		t.Fatalf("last month = %s %s, want 2025-05 350", points[0].Month, points[0].NetWorth)
	}
	if points[1].Month != "2025-06" || points[1].NetWorth.String() != "300" {
		t.Fatalf("this month = %s %s, want 2025-06 300", points[1].Month, points[1].NetWorth)
	}
}

func TestCurrentMonthAlwaysMatchesLiveBalances(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a := seedAccount(store, userID, "1000")
	// transactions inside the current month must not disturb the current point
	seedTx(t, store, userID, a.ID, "120", ledger.TransactionTypeExpense, "2025-06-02")
	seedTx(t, store, userID, a.ID, "80", ledger.TransactionTypeIncome, "2025-06-10")

	for _, n := range []int{1, 3, 12} {
		points, err := svcAt(store).Trend(context.Background(), userID, n)
		if err != nil {
			t.Fatalf("trend(%d): %v", n, err)
		}
		last := points[len(points)-1]
		if last.Month != "2025-06" || last.NetWorth.String() != "1000" {
			t.Fatalf("trend(%d) current = %s %s, want 2025-06 1000", n, last.Month, last.NetWorth)
		}
	}
}

func TestGapMonthsCarryRunningValue(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a := seedAccount(store, userID, "500")
	// only activity is a 200 income back in January
	seedTx(t, store, userID, a.ID, "200", ledger.TransactionTypeIncome, "2025-01-20")

	points, err := svcAt(store).Trend(context.Background(), userID, 6)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	want := map[string]string{
		"2025-01": "300", // before the January income
		"2025-02": "500",
		"2025-03": "500",
		"2025-04": "500",
		"2025-05": "500",
		"2025-06": "500",
	}
	for _, p := range points {
		if p.NetWorth.String() != want[p.Month] {
			t.Fatalf("%s = %s, want %s", p.Month, p.NetWorth, want[p.Month])
		}
	}
}

func TestMonthsOlderThanHistoryUseFinalValue(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a := seedAccount(store, userID, "100")
	seedTx(t, store, userID, a.ID, "40", ledger.TransactionTypeExpense, "2025-05-05")

	points, err := svcAt(store).Trend(context.Background(), userID, 4)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	// months before any transaction hold the fully-unwound value (140)
	if points[0].Month != "2025-03" || points[0].NetWorth.String() != "140" {
		t.Fatalf("oldest = %s %s, want 2025-03 140", points[0].Month, points[0].NetWorth)
	}
	if points[1].NetWorth.String() != "140" {
		t.Fatalf("2025-04 = %s, want 140", points[1].NetWorth)
	}
}

func TestAccountlessTransactionsIgnored(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	seedAccount(store, userID, "100")
	seedTx(t, store, userID, uuid.Nil, "9999", ledger.TransactionTypeExpense, "2025-05-01")

	points, err := svcAt(store).Trend(context.Background(), userID, 2)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if points[0].NetWorth.String() != "100" || points[1].NetWorth.String() != "100" {
		t.Fatalf("accountless tx leaked into the series: %+v", points)
	}
}

func TestZeroAccounts(t *testing.T) {
	store := memory.New()
	points, err := svcAt(store).Trend(context.Background(), uuid.New(), 3)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	for _, p := range points {
		if !p.NetWorth.IsZero() {
			t.Fatalf("%s = %s, want 0", p.Month, p.NetWorth)
		}
	}
}

func TestSameMonthMultipleTransactions(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a := seedAccount(store, userID, "1000")
	// two May transactions; month-start value must undo both
	seedTx(t, store, userID, a.ID, "100", ledger.TransactionTypeExpense, "2025-05-03")
	seedTx(t, store, userID, a.ID, "300", ledger.TransactionTypeIncome, "2025-05-28")

	points, err := svcAt(store).Trend(context.Background(), userID, 2)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	// 1000 - 300 (undo income) + 100 (undo expense) = 800 at May start
	if points[0].NetWorth.String() != "800" {
		t.Fatalf("May = %s, want 800", points[0].NetWorth)
	}
}

func TestEqualDateTransactionsReplayDeterministically(t *testing.T) {
	userID := uuid.New()
	// equal dates sort on descending ID string, so the undo order of these two
	// is fixed no matter how the store hands them back
	lo := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	hi := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

	build := func(ids ...uuid.UUID) *memory.Store {
		store := memory.New()
		a := seedAccount(store, userID, "1000")
		seedTx(t, store, userID, a.ID, "500", ledger.TransactionTypeIncome, "2025-06-05")
		seedTx(t, store, userID, a.ID, "10", ledger.TransactionTypeExpense, "2025-04-10")
		amounts := map[uuid.UUID]ledger.Transaction{
			hi: {ID: hi, UserID: userID, AccountID: a.ID, Amount: dec("100"), Type: ledger.TransactionTypeExpense},
			lo: {ID: lo, UserID: userID, AccountID: a.ID, Amount: dec("40"), Type: ledger.TransactionTypeIncome},
		}
		for _, id := range ids {
			tx := amounts[id]
			tx.Date = time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
			if _, err := store.CreateTransaction(context.Background(), tx); err != nil {
				t.Fatalf("seed tx: %v", err)
			}
		}
		return store
	}

	want := map[string]string{
		"2025-04": "570", // May start minus the April expense undone
		"2025-05": "560", // 500 after June, +100 and -40 undoing the May 31 pair
		"2025-06": "1000",
	}
	for _, order := range [][]uuid.UUID{{lo, hi}, {hi, lo}} {
		points, err := svcAt(build(order...)).Trend(context.Background(), userID, 3)
		if err != nil {
			t.Fatalf("trend: %v", err)
		}
		for _, p := range points {
			if p.NetWorth.String() != want[p.Month] {
				t.Fatalf("seed order %v: %s = %s, want %s", order, p.Month, p.NetWorth, want[p.Month])
			}
		}
	}
}

func TestFutureDatedTransactionsExcluded(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a := seedAccount(store, userID, "100")
	// dated after the current month; the walkback leaves it alone so past
	// months are not distorted by entries the balances do not yet reflect
	seedTx(t, store, userID, a.ID, "999", ledger.TransactionTypeIncome, "2025-07-20")
	seedTx(t, store, userID, a.ID, "25", ledger.TransactionTypeExpense, "2025-05-10")

	points, err := svcAt(store).Trend(context.Background(), userID, 3)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	want := map[string]string{"2025-04": "125", "2025-05": "125", "2025-06": "100"}
	for _, p := range points {
		if p.NetWorth.String() != want[p.Month] {
			t.Fatalf("%s = %s, want %s", p.Month, p.NetWorth, want[p.Month])
		}
	}
}

func TestReverseThenForwardReplayRoundTrips(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	a := seedAccount(store, userID, "750")
	txs := []ledger.Transaction{
		seedTx(t, store, userID, a.ID, "120", ledger.TransactionTypeExpense, "2025-02-14"),
		seedTx(t, store, userID, a.ID, "450", ledger.TransactionTypeIncome, "2025-03-01"),
		seedTx(t, store, userID, a.ID, "75", ledger.TransactionTypeExpense, "2025-04-30"),
	}
	points, err := svcAt(store).Trend(context.Background(), userID, 6)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	// replay forward from the oldest reconstructed value
	running := points[0].NetWorth
	for _, tx := range txs {
		v, err := running.Add(tx.SignedEffect())
		if err != nil {
			t.Fatal(err)
		}
		running = v
	}
	if running.String() != "750" {
		t.Fatalf("forward replay = %s, want 750", running)
	}
}

func TestInvalidArgs(t *testing.T) {
	store := memory.New()
	if _, err := svcAt(store).Trend(context.Background(), uuid.Nil, 3); err == nil {
		t.Fatal("expected error for nil user")
	}
	if _, err := svcAt(store).Trend(context.Background(), uuid.New(), 0); err == nil {
		t.Fatal("expected error for months < 1")
	}
}
