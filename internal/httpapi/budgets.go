package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxKeyListBudgets).(uuid.UUID)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	budgets, err := s.store.ListBudgets(r.Context(), userID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := r.Context().Value(ctxKeyPostBudget).(ledger.Budget)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	saved, err := s.budgetSvc.Create(r.Context(), b)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toBudgetResponse(saved))
}

func (s *Server) recalculateBudgets(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyRecalculate).(recalculateQuery)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	updated, err := s.budgetSvc.Recalculate(r.Context(), q.UserID, q.Start, q.End)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
