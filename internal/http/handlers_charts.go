package http

import (
	"net/http"
	"strings"

	"github.com/CohortInsights/financials/internal/chart"
	"github.com/CohortInsights/financials/internal/services"
)

func (s *Server) handleChartTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": s.charts.Types()})
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.charts.Years(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list years failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list years")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"years": years})
}

func (s *Server) handleChartEligibility(w http.ResponseWriter, r *http.Request) {
	req, err := parseChartRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	elig, err := s.charts.Eligibility(r.Context(), req)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "eligibility evaluation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to evaluate eligibility")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"eligibility": elig})
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	req, err := parseChartRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Type, err = chart.ParseType(strings.TrimSpace(r.URL.Query().Get("type")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.charts.ChartData(r.Context(), req)
	if err != nil {
		// An ineligible request is a client problem; hand back every violated
		// requirement so the UI can explain itself.
		if na, ok := services.IsNotAllowed(err); ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      na.Error(),
				"chart_type": na.Eligibility.ChartType,
				"reasons":    na.Eligibility.Reasons,
				"rule_keys":  na.Eligibility.RuleKeys,
			})
			return
		}
		s.logger.ErrorContext(r.Context(), "chart computation failed", "type", req.Type, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute chart")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
