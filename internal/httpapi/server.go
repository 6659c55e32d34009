// Package httpapi wires the HTTP surface of the finance tracker.
// Handlers stay thin and delegate aggregation rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/balance"
	"github.com/tinoosan/fintrack/internal/service/budget"
	"github.com/tinoosan/fintrack/internal/service/category"
	"github.com/tinoosan/fintrack/internal/service/goal"
	"github.com/tinoosan/fintrack/internal/service/importer"
	"github.com/tinoosan/fintrack/internal/service/networth"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// Server wires handlers and middleware using Chi. All services share the one
// store so side effects land in the same place the primary write did.
type Server struct {
	accountSvc  account.Service
	categorySvc *category.Service
	budgetSvc   *budget.Service
	txSvc       *transaction.Service
	networthSvc *networth.Service
	importSvc   *importer.Coordinator
	goalSvc     *goal.Service
	store       Store
	log         *slog.Logger
	rt          *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(store Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	balances := balance.New(store, logger)
	budgets := budget.New(store, logger)
	budgets.OnAutoCreate = budgetsAutoCreatedTotal.Inc

	s := &Server{
		accountSvc:  account.New(store, store),
		categorySvc: category.New(store),
		budgetSvc:   budgets,
		txSvc:       transaction.New(store, balances, budgets, logger),
		networthSvc: networth.New(store),
		importSvc:   importer.New(store, balances, budgets, logger),
		goalSvc:     goal.New(store),
		store:       store,
		log:         logger,
		rt:          r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches per-route middleware.
func (s *Server) routes() {
	// Accounts
	s.rt.With(s.validatePostAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.With(s.validateUserQuery(ctxKeyListAccounts)).Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Patch("/v1/accounts/{id}", s.updateAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deactivateAccount)
	// Categories
	s.rt.With(s.validateUserQuery(ctxKeyListCategories)).Get("/v1/categories", s.listCategories)
	s.rt.Post("/v1/categories", s.postCategory)
	s.rt.Delete("/v1/categories/{id}", s.deleteCategory)
	s.rt.Get("/v1/categories/defaults", s.categoryDefaults)
	// Budgets
	s.rt.With(s.validateUserQuery(ctxKeyListBudgets)).Get("/v1/budgets", s.listBudgets)
	s.rt.With(s.validatePostBudget()).Post("/v1/budgets", s.postBudget)
	s.rt.With(s.validateRecalculate()).Post("/v1/budgets/recalculate", s.recalculateBudgets)
	// Transactions
	s.rt.With(s.validatePostTransaction()).Post("/v1/transactions", s.postTransaction)
	s.rt.With(s.validateUserQuery(ctxKeyListTransactions)).Get("/v1/transactions", s.listTransactions)
	s.rt.Get("/v1/transactions/{id}", s.getTransaction)
	s.rt.Patch("/v1/transactions/{id}", s.updateTransaction)
	s.rt.Delete("/v1/transactions/{id}", s.deleteTransaction)
	s.rt.With(s.validateUserQuery(ctxKeyBulkDelete)).Delete("/v1/transactions", s.bulkDeleteTransactions)
	s.rt.With(s.validateImport()).Post("/v1/transactions/import", s.importTransactions)
	// Reports
	s.rt.With(s.validateNetWorth()).Get("/v1/reports/net-worth", s.netWorthReport)
	// Goals
	s.rt.With(s.validateUserQuery(ctxKeyListGoals)).Get("/v1/goals", s.listGoals)
	s.rt.Post("/v1/goals", s.postGoal)
	s.rt.Post("/v1/goals/{id}/contribute", s.contributeGoal)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
