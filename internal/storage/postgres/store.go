// Package postgres provides a pgx-backed store that satisfies the repository
// and writer interfaces used by the services and the HTTP API.
//
// It is intentionally small and explicit: it maps between domain entities and
// SQL rows and nothing else. The schema lives in the embedded migrations.
// Monetary columns travel as text on the wire and are re-parsed as decimals
// to avoid float conversions.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
	"github.com/tinoosan/fintrack/internal/slug"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SeedDev inserts a user with a checking and a savings account for quick
// local testing.
func (s *Store) SeedDev(ctx context.Context) (ledger.User, []ledger.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.User{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	user := ledger.User{ID: uuid.New()}
	if _, err := tx.Exec(ctx, `insert into users (id) values ($1)`, user.ID); err != nil {
		return ledger.User{}, nil, err
	}
	checking := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Type: ledger.AccountTypeChecking, Balance: decimal.MustParse("1000"), Institution: "Demo Bank", Active: true}
	savings := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Savings", Type: ledger.AccountTypeSavings, Balance: decimal.MustParse("5000"), Institution: "Demo Bank", Active: true}
	accs := []ledger.Account{checking, savings}
	for _, a := range accs {
		md, _ := a.Metadata.MarshalStableJSON()
		if _, err := tx.Exec(ctx, `
			insert into accounts (id, user_id, name, type, balance, institution, metadata, active)
			values ($1,$2,$3,$4,$5,$6,$7,$8)
		`, a.ID, a.UserID, a.Name, a.Type, a.Balance.String(), a.Institution, md, a.Active); err != nil {
			return ledger.User{}, nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.User{}, nil, err
	}
	return user, accs, nil
}

// --- Accounts ---

const accountCols = `id, user_id, name, type, balance::text, institution, metadata, active`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	var balStr string
	var mdBytes []byte
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &balStr, &a.Institution, &mdBytes, &a.Active); err != nil {
		return ledger.Account{}, err
	}
	bal, err := decimal.Parse(balStr)
	if err != nil {
		return ledger.Account{}, err
	}
	a.Balance = bal
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			a.Metadata = m
		}
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
		select `+accountCols+` from accounts
		where user_id = $1
		order by name, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		select `+accountCols+` from accounts
		where id = $1 and user_id = $2
	`, accountID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, err
}

func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return ledger.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	_, err := s.pool.Exec(ctx, `
		insert into accounts (id, user_id, name, type, balance, institution, metadata, active)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ID, a.UserID, a.Name, a.Type, a.Balance.String(), a.Institution, md, a.Active)
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return ledger.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	ct, err := s.pool.Exec(ctx, `
		update accounts
		set name=$1, balance=$2, institution=$3, metadata=$4, active=$5
		where id=$6 and user_id=$7
	`, a.Name, a.Balance.String(), a.Institution, md, a.Active, a.ID, a.UserID)
	if err != nil {
		return ledger.Account{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// --- Categories ---

func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	rows, err := s.pool.Query(ctx, `
		select id, user_id, name, type, is_default from categories
		where user_id = $1
		order by name, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Category, 0)
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (ledger.Category, error) {
	var c ledger.Category
	err := s.pool.QueryRow(ctx, `
		select id, user_id, name, type, is_default from categories
		where id = $1 and user_id = $2
	`, categoryID, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Category{}, errs.ErrNotFound
	}
	return c, err
}

// CategoryByName resolves a category by normalized name, so "Eating Out" and
// "eating_out" land on the same row.
func (s *Store) CategoryByName(ctx context.Context, userID uuid.UUID, name string) (ledger.Category, error) {
	var c ledger.Category
	err := s.pool.QueryRow(ctx, `
		select id, user_id, name, type, is_default from categories
		where user_id = $1 and slug = $2
	`, userID, slug.Slugify(name)).Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Category{}, errs.ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error) {
	_, err := s.pool.Exec(ctx, `
		insert into categories (id, user_id, name, slug, type, is_default)
		values ($1,$2,$3,$4,$5,$6)
	`, c.ID, c.UserID, c.Name, slug.Slugify(c.Name), c.Type, c.IsDefault)
	if err != nil {
		return ledger.Category{}, err
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		delete from categories where id = $1 and user_id = $2
	`, categoryID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Budgets ---

const budgetCols = `id, user_id, category_id, amount::text, spent::text, start_date, end_date, auto_created, description`

func scanBudget(row pgx.Row) (ledger.Budget, error) {
	var b ledger.Budget
	var amountStr, spentStr string
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &amountStr, &spentStr, &b.StartDate, &b.EndDate, &b.AutoCreated, &b.Description); err != nil {
		return ledger.Budget{}, err
	}
	amount, err := decimal.Parse(amountStr)
	if err != nil {
		return ledger.Budget{}, err
	}
	spent, err := decimal.Parse(spentStr)
	if err != nil {
		return ledger.Budget{}, err
	}
	b.Amount = amount
	b.Spent = spent
	b.StartDate = ledger.DateOnly(b.StartDate)
	b.EndDate = ledger.DateOnly(b.EndDate)
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID uuid.UUID) ([]ledger.Budget, error) {
	rows, err := s.pool.Query(ctx, `
		select `+budgetCols+` from budgets
		where user_id = $1
		order by start_date, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBudget(ctx context.Context, userID, budgetID uuid.UUID) (ledger.Budget, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx, `
		select `+budgetCols+` from budgets
		where id = $1 and user_id = $2
	`, budgetID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Budget{}, errs.ErrNotFound
	}
	return b, err
}

func (s *Store) BudgetsByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]ledger.Budget, error) {
	rows, err := s.pool.Query(ctx, `
		select `+budgetCols+` from budgets
		where user_id = $1 and category_id = $2
		order by start_date, id
	`, userID, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	_, err := s.pool.Exec(ctx, `
		insert into budgets (id, user_id, category_id, amount, spent, start_date, end_date, auto_created, description)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, b.ID, b.UserID, b.CategoryID, b.Amount.String(), b.Spent.String(), b.StartDate, b.EndDate, b.AutoCreated, b.Description)
	if err != nil {
		return ledger.Budget{}, err
	}
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	ct, err := s.pool.Exec(ctx, `
		update budgets
		set amount=$1, spent=$2, start_date=$3, end_date=$4, description=$5
		where id=$6 and user_id=$7
	`, b.Amount.String(), b.Spent.String(), b.StartDate, b.EndDate, b.Description, b.ID, b.UserID)
	if err != nil {
		return ledger.Budget{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Budget{}, errs.ErrNotFound
	}
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, budgetID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		delete from budgets where id = $1 and user_id = $2
	`, budgetID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Transactions ---

const txCols = `id, user_id, account_id, category_id, amount::text, description, vendor, purchaser, note, type, date`

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var t ledger.Transaction
	var amountStr string
	var accountID, categoryID *uuid.UUID
	if err := row.Scan(&t.ID, &t.UserID, &accountID, &categoryID, &amountStr, &t.Description, &t.Vendor, &t.Purchaser, &t.Note, &t.Type, &t.Date); err != nil {
		return ledger.Transaction{}, err
	}
	amount, err := decimal.Parse(amountStr)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.Amount = amount
	if accountID != nil {
		t.AccountID = *accountID
	}
	if categoryID != nil {
		t.CategoryID = *categoryID
	}
	t.Date = ledger.DateOnly(t.Date)
	return t, nil
}

// nullUUID maps uuid.Nil onto SQL null for the optional reference columns.
func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select `+txCols+` from transactions
		where user_id = $1
		order by date asc, id asc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx, `
		select `+txCols+` from transactions
		where id = $1 and user_id = $2
	`, txID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return t, err
}

// TransactionsInRange returns the user's transactions with start <= date <= end,
// optionally restricted to one category (pass uuid.Nil for all categories).
func (s *Store) TransactionsInRange(ctx context.Context, userID, categoryID uuid.UUID, start, end time.Time) ([]ledger.Transaction, error) {
	q := `
		select ` + txCols + ` from transactions
		where user_id = $1 and date >= $2 and date <= $3
	`
	args := []any{userID, ledger.DateOnly(start), ledger.DateOnly(end)}
	if categoryID != uuid.Nil {
		q += ` and category_id = $4`
		args = append(args, categoryID)
	}
	q += ` order by date asc, id asc`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	tx.Date = ledger.DateOnly(tx.Date)
	_, err := s.pool.Exec(ctx, `
		insert into transactions (id, user_id, account_id, category_id, amount, description, vendor, purchaser, note, type, date)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, tx.ID, tx.UserID, nullUUID(tx.AccountID), nullUUID(tx.CategoryID), tx.Amount.String(), tx.Description, tx.Vendor, tx.Purchaser, tx.Note, tx.Type, tx.Date)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	tx.Date = ledger.DateOnly(tx.Date)
	ct, err := s.pool.Exec(ctx, `
		update transactions
		set account_id=$1, category_id=$2, amount=$3, description=$4, vendor=$5, purchaser=$6, note=$7, type=$8, date=$9
		where id=$10 and user_id=$11
	`, nullUUID(tx.AccountID), nullUUID(tx.CategoryID), tx.Amount.String(), tx.Description, tx.Vendor, tx.Purchaser, tx.Note, tx.Type, tx.Date, tx.ID, tx.UserID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, txID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		delete from transactions where id = $1 and user_id = $2
	`, txID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) CountTransactionsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		select count(*) from transactions where user_id = $1 and category_id = $2
	`, userID, categoryID).Scan(&n)
	return n, err
}

// --- Goals ---

const goalCols = `id, user_id, name, target_amount::text, current_amount::text, target_date, metadata`

func scanGoal(row pgx.Row) (ledger.Goal, error) {
	var g ledger.Goal
	var targetStr, currentStr string
	var mdBytes []byte
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &targetStr, &currentStr, &g.TargetDate, &mdBytes); err != nil {
		return ledger.Goal{}, err
	}
	target, err := decimal.Parse(targetStr)
	if err != nil {
		return ledger.Goal{}, err
	}
	current, err := decimal.Parse(currentStr)
	if err != nil {
		return ledger.Goal{}, err
	}
	g.TargetAmount = target
	g.CurrentAmount = current
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			g.Metadata = m
		}
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID uuid.UUID) ([]ledger.Goal, error) {
	rows, err := s.pool.Query(ctx, `
		select `+goalCols+` from goals
		where user_id = $1
		order by name, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID uuid.UUID) (ledger.Goal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx, `
		select `+goalCols+` from goals
		where id = $1 and user_id = $2
	`, goalID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Goal{}, errs.ErrNotFound
	}
	return g, err
}

func (s *Store) CreateGoal(ctx context.Context, g ledger.Goal) (ledger.Goal, error) {
	md, _ := g.Metadata.MarshalStableJSON()
	_, err := s.pool.Exec(ctx, `
		insert into goals (id, user_id, name, target_amount, current_amount, target_date, metadata)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, g.ID, g.UserID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate, md)
	if err != nil {
		return ledger.Goal{}, err
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g ledger.Goal) (ledger.Goal, error) {
	md, _ := g.Metadata.MarshalStableJSON()
	ct, err := s.pool.Exec(ctx, `
		update goals
		set name=$1, target_amount=$2, current_amount=$3, target_date=$4, metadata=$5
		where id=$6 and user_id=$7
	`, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate, md, g.ID, g.UserID)
	if err != nil {
		return ledger.Goal{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Goal{}, errs.ErrNotFound
	}
	return g, nil
}
