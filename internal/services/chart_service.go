package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/CohortInsights/financials/internal/cache"
	"github.com/CohortInsights/financials/internal/chart"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/storage"
)

// RowSource supplies the aggregated, filtered rows the chart pipeline
// consumes. *storage.Repository satisfies it.
type RowSource interface {
	FilteredRows(ctx context.Context, q storage.RowQuery) ([]chart.FilteredRow, error)
	DistinctYears(ctx context.Context) ([]int, error)
}

// ChartRequest describes one chart computation: which type to compile and the
// selection scope the rows are aggregated over.
type ChartRequest struct {
	Type        chart.Type
	Filter      string
	Level       int
	Years       []int
	Granularity chart.Granularity
}

// cacheKey encodes the full request; two requests collide only when they
// would compute the same result.
func (r ChartRequest) cacheKey() string {
	years := make([]string, len(r.Years))
	for i, y := range r.Years {
		years[i] = strconv.Itoa(y)
	}
	return strings.Join([]string{
		string(r.Type), r.Filter, strconv.Itoa(r.Level),
		strings.Join(years, ","), string(r.Granularity),
	}, "|")
}

// ChartService computes chart results from stored transactions, caching
// successful computations until the underlying data changes.
type ChartService struct {
	rows    RowSource
	configs *chart.ConfigLoader
	cache   *cache.LRUCache[*chart.Result]
	logger  *log.Logger
}

func NewChartService(rows RowSource, configs *chart.ConfigLoader, cacheSize int, cacheTTL time.Duration, logger *log.Logger) *ChartService {
	return &ChartService{
		rows:    rows,
		configs: configs,
		cache:   cache.NewLRUCache[*chart.Result](cacheSize, cacheTTL),
		logger:  logger.WithComponent("charts"),
	}
}

// Cache exposes the result cache so a manager can register it for cleanup.
func (s *ChartService) Cache() *cache.LRUCache[*chart.Result] { return s.cache }

// InvalidateCache drops every cached result. Called whenever transactions or
// rules change.
func (s *ChartService) InvalidateCache() {
	s.cache.Purge()
}

// ChartData computes the requested chart. Ineligible requests return a
// *chart.NotAllowedError; only successful computations are cached.
func (s *ChartService) ChartData(ctx context.Context, req ChartRequest) (*chart.Result, error) {
	req = normalizeRequest(req)

	key := req.cacheKey()
	if res, ok := s.cache.Get(key); ok {
		return res, nil
	}

	// A failed config load degrades to "configuration not found"
	// ineligibility (Evaluate treats a nil Config that way) instead of
	// failing the request; the next request retries the load.
	cfg, err := s.configs.Load()
	if err != nil {
		s.logger.ErrorContext(ctx, "chart config load failed", "error", err)
		cfg = nil
	}

	rows, err := s.rows.FilteredRows(ctx, storage.RowQuery{
		Filter:      req.Filter,
		Level:       req.Level,
		Expand:      req.Type == chart.TypeStackedBar,
		Years:       req.Years,
		Granularity: req.Granularity,
	})
	if err != nil {
		return nil, fmt.Errorf("load filtered rows: %w", err)
	}

	scope := chart.Scope{
		Filter:      req.Filter,
		Level:       req.Level,
		Years:       req.Years,
		Granularity: req.Granularity,
	}
	res, err := chart.Compute(rows, req.Type, scope, cfg)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, res)
	s.logger.DebugContext(ctx, "computed chart",
		"type", req.Type,
		"rows", len(rows),
		"figures", len(res.Summaries))
	return res, nil
}

// Eligibility evaluates every chart type against the current selection so the
// UI can enable and disable chart pickers with full reason lists. The chart
// type of the request is ignored.
func (s *ChartService) Eligibility(ctx context.Context, req ChartRequest) ([]chart.Eligibility, error) {
	req = normalizeRequest(req)

	cfg, err := s.configs.Load()
	if err != nil {
		s.logger.ErrorContext(ctx, "chart config load failed", "error", err)
		cfg = nil
	}

	// Stacked bars see the expanded row set, everything else the plain one.
	// Both metas are extracted once and reused across types.
	plain, err := s.rows.FilteredRows(ctx, storage.RowQuery{
		Filter:      req.Filter,
		Level:       req.Level,
		Years:       req.Years,
		Granularity: req.Granularity,
	})
	if err != nil {
		return nil, fmt.Errorf("load filtered rows: %w", err)
	}
	expanded, err := s.rows.FilteredRows(ctx, storage.RowQuery{
		Filter:      req.Filter,
		Level:       req.Level,
		Expand:      true,
		Years:       req.Years,
		Granularity: req.Granularity,
	})
	if err != nil {
		return nil, fmt.Errorf("load expanded rows: %w", err)
	}

	plainMeta := chart.ExtractMeta(plain)
	expandedMeta := chart.ExtractMeta(expanded)

	out := make([]chart.Eligibility, 0, len(chart.Types()))
	for _, t := range chart.Types() {
		meta := plainMeta
		if t == chart.TypeStackedBar {
			meta = expandedMeta
		}
		out = append(out, chart.Evaluate(t, meta, cfg))
	}
	return out, nil
}

// TypeInfo describes one selectable chart type.
type TypeInfo struct {
	Type        chart.Type `json:"type"`
	Description string     `json:"description"`
}

// Types lists the supported chart types in stable order.
func (s *ChartService) Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(chart.Types()))
	for _, t := range chart.Types() {
		out = append(out, TypeInfo{Type: t, Description: t.Description()})
	}
	return out
}

// Years lists the years with data, newest first, for scope pickers.
func (s *ChartService) Years(ctx context.Context) ([]int, error) {
	return s.rows.DistinctYears(ctx)
}

func normalizeRequest(req ChartRequest) ChartRequest {
	if req.Level < 1 {
		req.Level = 1
	}
	if req.Granularity == "" {
		req.Granularity = chart.GranularityAnnual
	}
	return req
}

// IsNotAllowed unwraps the eligibility failure from a ChartData error, if
// that is what it is.
func IsNotAllowed(err error) (*chart.NotAllowedError, bool) {
	var na *chart.NotAllowedError
	if errors.As(err, &na) {
		return na, true
	}
	return nil, false
}
