package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

type ctxKey string

const (
	ctxKeyListAccounts     ctxKey = "validatedListAccounts"
	ctxKeyListCategories   ctxKey = "validatedListCategories"
	ctxKeyListBudgets      ctxKey = "validatedListBudgets"
	ctxKeyListTransactions ctxKey = "validatedListTransactions"
	ctxKeyListGoals        ctxKey = "validatedListGoals"
	ctxKeyBulkDelete       ctxKey = "validatedBulkDelete"
	ctxKeyPostAccount      ctxKey = "validatedPostAccount"
	ctxKeyPostTransaction  ctxKey = "validatedPostTransaction"
	ctxKeyPostBudget       ctxKey = "validatedPostBudget"
	ctxKeyRecalculate      ctxKey = "validatedRecalculate"
	ctxKeyImport           ctxKey = "validatedImport"
	ctxKeyNetWorth         ctxKey = "validatedNetWorth"
)

// newTransactionInput pairs the parsed transaction with the free-form category
// name the create path resolves via find-or-create.
type newTransactionInput struct {
	Tx           ledger.Transaction
	CategoryName string
}

// validateUserQuery parses the user_id query param shared by the list-style
// endpoints and stores it under the given context key.
func (s *Server) validateUserQuery(key ctxKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("user_id")
			if raw == "" {
				badRequest(w, "user_id is required")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid user_id")
				return
			}
			ctx := context.WithValue(r.Context(), key, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostAccount parses and validates POST /v1/accounts and stores the
// domain account in the request context.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
					return
				}
			}
			a := ledger.Account{
				UserID:      req.UserID,
				Name:        req.Name,
				Type:        req.Type,
				Institution: req.Institution,
				Metadata:    meta.New(req.Metadata),
			}
			if req.Balance != "" {
				bal, err := decimal.Parse(req.Balance)
				if err != nil {
					badRequest(w, "invalid balance")
					return
				}
				a.Balance = bal
			}
			if err := s.accountSvc.ValidateCreate(a); err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostTransaction parses POST /v1/transactions into a domain
// transaction plus the optional category name.
func (s *Server) validatePostTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postTransactionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.UserID == uuid.Nil {
				badRequest(w, "user_id is required")
				return
			}
			amount, err := decimal.Parse(req.Amount)
			if err != nil {
				badRequest(w, "invalid amount")
				return
			}
			date, err := time.Parse(dateLayout, req.Date)
			if err != nil {
				badRequest(w, "invalid date, want yyyy-mm-dd")
				return
			}
			in := newTransactionInput{
				Tx: ledger.Transaction{
					UserID:      req.UserID,
					AccountID:   req.AccountID,
					CategoryID:  req.CategoryID,
					Amount:      amount.Abs(),
					Description: req.Description,
					Vendor:      req.Vendor,
					Purchaser:   req.Purchaser,
					Note:        req.Note,
					Type:        req.Type,
					Date:        date,
				},
				CategoryName: req.Category,
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostTransaction, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostBudget parses POST /v1/budgets.
func (s *Server) validatePostBudget() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postBudgetRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			amount, err := decimal.Parse(req.Amount)
			if err != nil {
				badRequest(w, "invalid amount")
				return
			}
			start, err := time.Parse(dateLayout, req.StartDate)
			if err != nil {
				badRequest(w, "invalid start_date, want yyyy-mm-dd")
				return
			}
			end, err := time.Parse(dateLayout, req.EndDate)
			if err != nil {
				badRequest(w, "invalid end_date, want yyyy-mm-dd")
				return
			}
			b := ledger.Budget{
				UserID:      req.UserID,
				CategoryID:  req.CategoryID,
				Amount:      amount,
				StartDate:   start,
				EndDate:     end,
				Description: req.Description,
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostBudget, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateRecalculate parses POST /v1/budgets/recalculate.
func (s *Server) validateRecalculate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req recalculateRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.UserID == uuid.Nil {
				badRequest(w, "user_id is required")
				return
			}
			q := recalculateQuery{UserID: req.UserID}
			if req.StartDate != "" {
				t, err := time.Parse(dateLayout, req.StartDate)
				if err != nil {
					badRequest(w, "invalid start_date, want yyyy-mm-dd")
					return
				}
				q.Start = &t
			}
			if req.EndDate != "" {
				t, err := time.Parse(dateLayout, req.EndDate)
				if err != nil {
					badRequest(w, "invalid end_date, want yyyy-mm-dd")
					return
				}
				q.End = &t
			}
			ctx := context.WithValue(r.Context(), ctxKeyRecalculate, q)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateImport parses POST /v1/transactions/import. Row-level problems are
// not rejected here; the coordinator reports them as per-row skips.
func (s *Server) validateImport() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req importRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.UserID == uuid.Nil {
				badRequest(w, "user_id is required")
				return
			}
			if len(req.Rows) == 0 {
				badRequest(w, "rows must not be empty")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyImport, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateNetWorth parses GET /v1/reports/net-worth query params.
func (s *Server) validateNetWorth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			raw := q.Get("user_id")
			if raw == "" {
				badRequest(w, "user_id is required")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid user_id")
				return
			}
			months := 12
			if m := q.Get("months"); m != "" {
				n, err := strconv.Atoi(m)
				if err != nil || n < 1 {
					badRequest(w, "invalid months")
					return
				}
				months = n
			}
			ctx := context.WithValue(r.Context(), ctxKeyNetWorth, netWorthQuery{UserID: userID, Months: months})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
