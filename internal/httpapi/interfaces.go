package httpapi

import (
	"context"

	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/budget"
	"github.com/tinoosan/fintrack/internal/service/category"
	"github.com/tinoosan/fintrack/internal/service/goal"
	"github.com/tinoosan/fintrack/internal/service/importer"
	"github.com/tinoosan/fintrack/internal/service/networth"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// Store is the union of the repository/writer method sets the services
// declare. Overlapping methods share identical signatures, so both the
// memory and postgres stores satisfy it with one implementation.
type Store interface {
	account.Repo
	account.Writer
	category.Store
	budget.Store
	goal.Store
	transaction.Store
	networth.Store
	importer.Store
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
