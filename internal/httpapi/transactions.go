package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/importer"
)

func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := r.Context().Value(ctxKeyPostTransaction).(newTransactionInput)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	saved, warns, err := s.txSvc.Create(r.Context(), in.Tx, in.CategoryName)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toWriteResponse(saved, warns))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxKeyListTransactions).(uuid.UUID)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	txs, err := s.txSvc.List(r.Context(), userID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	userID, txID, ok := s.userAndID(w, r)
	if !ok {
		return
	}
	tx, err := s.txSvc.Get(r.Context(), userID, txID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// updateTransaction replaces the mutable fields wholesale; reconciliation of
// balances and budgets happens inside the service against the old snapshot.
func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid transaction id")
		return
	}
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
	tx, err := s.txSvc.Get(r.Context(), req.UserID, txID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	tx.AccountID = req.AccountID
	tx.CategoryID = req.CategoryID
	tx.Amount = amount.Abs()
	tx.Description = req.Description
	tx.Vendor = req.Vendor
	tx.Purchaser = req.Purchaser
	tx.Note = req.Note
	tx.Type = req.Type
	tx.Date = date
	saved, warns, err := s.txSvc.Update(r.Context(), tx)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toWriteResponse(saved, warns))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, txID, ok := s.userAndID(w, r)
	if !ok {
		return
	}
	warns, err := s.txSvc.Delete(r.Context(), userID, txID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]any{"deleted": true, "warnings": warningMessages(warns)})
}

func (s *Server) bulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxKeyBulkDelete).(uuid.UUID)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	deleted, warns, err := s.txSvc.BulkDelete(r.Context(), userID)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, bulkDeleteResponse{Deleted: deleted, Warnings: warningMessages(warns)})
}

func (s *Server) importTransactions(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyImport).(importRequest)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	rows := make([]importer.Row, 0, len(req.Rows))
	skipped := make([]importSkip, 0)
	// Row indices in the response refer to the client's original ordering,
	// so date parse failures are recorded here rather than silently dropped.
	indexMap := make([]int, 0, len(req.Rows))
	for i, row := range req.Rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			skipped = append(skipped, importSkip{Index: i, Code: "invalid_date", Error: "invalid date, want yyyy-mm-dd"})
			continue
		}
		rows = append(rows, importer.Row{
			Date:        date,
			Amount:      row.Amount,
			Description: row.Description,
			Vendor:      row.Vendor,
			Type:        ledger.TransactionType(row.Type),
			Category:    row.Category,
			AccountID:   row.AccountID,
		})
		indexMap = append(indexMap, i)
	}
	created, itemErrs, err := s.importSvc.Import(r.Context(), req.UserID, rows)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	for _, ie := range itemErrs {
		idx := ie.Index
		if idx >= 0 && idx < len(indexMap) {
			idx = indexMap[idx]
		}
		skipped = append(skipped, importSkip{Index: idx, Code: ie.Code, Error: ie.Err.Error()})
	}
	importRowsTotal.Add(float64(len(created)))
	importRowsSkippedTotal.Add(float64(len(skipped)))
	out := importResponse{Created: make([]transactionResponse, 0, len(created)), Skipped: skipped}
	for _, tx := range created {
		out.Created = append(out.Created, toTransactionResponse(tx))
	}
	toJSON(w, http.StatusOK, out)
}
