package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxKeyListGoals).(uuid.UUID)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	goals, err := s.goalSvc.List(r.Context(), userID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postGoal(w http.ResponseWriter, r *http.Request) {
	var req postGoalRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	target, err := decimal.Parse(req.TargetAmount)
	if err != nil {
		badRequest(w, "invalid target_amount")
		return
	}
	g := ledger.Goal{
		UserID:       req.UserID,
		Name:         req.Name,
		TargetAmount: target,
		Metadata:     meta.New(req.Metadata),
	}
	if req.TargetDate != "" {
		t, err := time.Parse(dateLayout, req.TargetDate)
		if err != nil {
			badRequest(w, "invalid target_date, want yyyy-mm-dd")
			return
		}
		g.TargetDate = &t
	}
	saved, err := s.goalSvc.Create(r.Context(), g)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toGoalResponse(saved))
}

func (s *Server) contributeGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid goal id")
		return
	}
	var req contributeRequest
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
	saved, err := s.goalSvc.Contribute(r.Context(), req.UserID, goalID, amount)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toGoalResponse(saved))
}
