package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CohortInsights/financials/internal/chart"
	"github.com/CohortInsights/financials/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseChartRequest reads the selection scope shared by the chart endpoints.
// The chart type itself is parsed separately; eligibility has none.
func parseChartRequest(r *http.Request) (services.ChartRequest, error) {
	q := r.URL.Query()
	req := services.ChartRequest{Filter: strings.TrimSpace(q.Get("filter"))}

	if v := strings.TrimSpace(q.Get("level")); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil || level < 1 {
			return req, fmt.Errorf("invalid level %q", v)
		}
		req.Level = level
	}

	years, err := parseYears(q.Get("years"))
	if err != nil {
		return req, err
	}
	req.Years = years

	switch g := chart.Granularity(strings.TrimSpace(q.Get("granularity"))); g {
	case "", chart.GranularityAnnual, chart.GranularityQuarterly, chart.GranularityMonthly:
		req.Granularity = g
	default:
		return req, fmt.Errorf("invalid granularity %q", g)
	}

	return req, nil
}

// parseYears parses a comma-separated year list, e.g. "2023,2024".
func parseYears(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		y, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || y < 1000 || y > 9999 {
			return nil, fmt.Errorf("invalid year %q", p)
		}
		out = append(out, y)
	}
	return out, nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
