package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := r.Context().Value(ctxKeyPostAccount).(ledger.Account)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	saved, err := s.accountSvc.Create(r.Context(), a)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(saved))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxKeyListAccounts).(uuid.UUID)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	accounts, err := s.accountSvc.List(r.Context(), userID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := s.userAndID(w, r)
	if !ok {
		return
	}
	a, err := s.accountSvc.Get(r.Context(), userID, accountID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	var req patchAccountRequest
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
	current, err := s.accountSvc.Get(r.Context(), req.UserID, accountID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Institution != nil {
		current.Institution = *req.Institution
	}
	if req.Metadata != nil {
		m := meta.New(req.Metadata)
		if err := m.Validate(); err != nil {
			writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
			return
		}
		current.Metadata = m
	}
	saved, err := s.accountSvc.Update(r.Context(), current)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(saved))
}

func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := s.userAndID(w, r)
	if !ok {
		return
	}
	if err := s.accountSvc.Deactivate(r.Context(), userID, accountID); err != nil {
		s.domainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userAndID reads the user_id query param and the {id} route param, the shape
// shared by the single-resource endpoints.
func (s *Server) userAndID(w http.ResponseWriter, r *http.Request) (userID, id uuid.UUID, ok bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		badRequest(w, "user_id is required")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid user_id")
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
