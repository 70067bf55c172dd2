package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/rules"
	"github.com/CohortInsights/financials/internal/storage"
)

// ruleJSON is the wire form of an assignment rule. Amount bounds travel as
// strings, null when unset.
type ruleJSON struct {
	ID          int64   `json:"id"`
	Priority    int     `json:"priority"`
	Assignment  string  `json:"assignment"`
	Source      string  `json:"source,omitempty"`
	Description string  `json:"description,omitempty"`
	MinAmount   *string `json:"min_amount,omitempty"`
	MaxAmount   *string `json:"max_amount,omitempty"`
}

func toRuleJSON(r rules.Rule) ruleJSON {
	out := ruleJSON{
		ID:          r.ID,
		Priority:    r.Priority,
		Assignment:  string(r.Assignment),
		Source:      r.Source,
		Description: r.Description,
	}
	if r.MinAmount != nil {
		s := r.MinAmount.String()
		out.MinAmount = &s
	}
	if r.MaxAmount != nil {
		s := r.MaxAmount.String()
		out.MaxAmount = &s
	}
	return out
}

func (j ruleJSON) toRule() (rules.Rule, error) {
	rule := rules.Rule{
		ID:          j.ID,
		Priority:    j.Priority,
		Assignment:  core.Category(strings.TrimSpace(j.Assignment)),
		Source:      strings.TrimSpace(j.Source),
		Description: strings.TrimSpace(j.Description),
	}
	var err error
	if rule.MinAmount, err = parseBound(j.MinAmount); err != nil {
		return rules.Rule{}, errors.New("invalid min_amount")
	}
	if rule.MaxAmount, err = parseBound(j.MaxAmount); err != nil {
		return rules.Rule{}, errors.New("invalid max_amount")
	}
	return rule, nil
}

func parseBound(s *string) (*decimal.Decimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rs, err := s.transactions.ListRules(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list rules failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}
	out := make([]ruleJSON, 0, len(rs))
	for _, rule := range rs {
		out = append(out, toRuleJSON(rule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": out})
}

// handleSaveRule creates a rule (id absent or zero) or updates an existing one.
func (s *Server) handleSaveRule(w http.ResponseWriter, r *http.Request) {
	var body ruleJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule, err := body.toRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.transactions.SaveRule(r.Context(), rule)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "rule not found")
		return
	case errors.Is(err, rules.ErrEmptyAssignment),
		errors.Is(err, rules.ErrAmountBounds),
		errors.Is(err, core.ErrInvalidCategory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		s.logger.ErrorContext(r.Context(), "save rule failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save rule")
		return
	}

	status := http.StatusOK
	if rule.ID == 0 {
		status = http.StatusCreated
	}
	rule.ID = id
	writeJSON(w, status, toRuleJSON(rule))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "delete rule failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
