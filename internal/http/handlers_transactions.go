package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/storage"
)

// transactionJSON is the wire form of a stored transaction. Amounts travel as
// strings so no precision is lost to float encoding.
type transactionJSON struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Manual      bool   `json:"manual"`
}

func toTransactionJSON(tx storage.StoredTransaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		Source:      tx.Source,
		Amount:      tx.Amount.String(),
		Category:    string(tx.Category),
		Manual:      tx.Manual,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{
		Source:        strings.TrimSpace(q.Get("source")),
		Category:      strings.TrimSpace(q.Get("category")),
		Uncategorized: q.Get("uncategorized") == "true",
	}
	for name, dst := range map[string]*int{
		"year":   &filter.Year,
		"limit":  &filter.Limit,
		"offset": &filter.Offset,
	} {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = n
		}
	}

	txs, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "get transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleAssignCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = s.transactions.AssignCategory(r.Context(), id, core.Category(strings.TrimSpace(body.Category)))
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	case errors.Is(err, core.ErrInvalidCategory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		s.logger.ErrorContext(r.Context(), "assign category failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to assign category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "category": body.Category, "manual": true})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	// An empty body is fine; the reason is informational.
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Reason == "" {
		body.Reason = "manual trigger"
	}

	if err := s.transactions.RequestRebuild(r.Context(), body.Reason); err != nil {
		s.logger.ErrorContext(r.Context(), "rebuild request failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "failed to schedule rebuild")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}
