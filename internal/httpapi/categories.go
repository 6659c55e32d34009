package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/dictionary"
	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxKeyListCategories).(uuid.UUID)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	categories, err := s.categorySvc.List(r.Context(), userID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	var req postCategoryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	saved, err := s.categorySvc.Create(r.Context(), ledger.Category{
		UserID: req.UserID,
		Name:   req.Name,
		Type:   req.Type,
	})
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCategoryResponse(saved))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, ok := s.userAndID(w, r)
	if !ok {
		return
	}
	if err := s.categorySvc.Delete(r.Context(), userID, categoryID); err != nil {
		s.domainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// categoryDefaults serves the curated starter categories. It reads nothing
// per-user; the type filter is optional.
func (s *Server) categoryDefaults(w http.ResponseWriter, r *http.Request) {
	var filter *ledger.CategoryType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := ledger.CategoryType(raw)
		if !ledger.ValidCategoryType(t) {
			badRequest(w, "invalid type")
			return
		}
		filter = &t
	}
	toJSON(w, http.StatusOK, dictionary.DefaultsFor(filter))
}
