package chart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Compute runs the full pipeline for one chart request: meta extraction,
// eligibility gate, per-type compilation, figure specs. An ineligible
// request returns a *NotAllowedError carrying every violated requirement.
//
// Input row order is authoritative: color assignment, legend order and stack
// bottom-to-top order all follow first appearance in rows, and output order
// is monotonic with input order except for the controlled re-grouping each
// chart type defines.
func Compute(rows []FilteredRow, t Type, scope Scope, cfg *Config) (*Result, error) {
	meta := ExtractMeta(rows)
	elig := Evaluate(t, meta, cfg)
	if !elig.Eligible {
		return nil, &NotAllowedError{Eligibility: elig}
	}
	tc, _ := cfg.Type(t) // present, or Evaluate would have failed

	c := &compilation{
		scope:  scope,
		params: tc.Parameters,
		meta:   meta,
		colors: make(map[string]int),
	}

	var (
		elements  []ElementRow
		summaries []FigureSummary
	)
	switch t {
	case TypePie:
		elements, summaries = c.compilePie(rows)
	case TypeBar:
		elements, summaries = c.compileBar(rows)
	case TypeStackedBar:
		elements, summaries = c.compileStackedBar(rows)
	case TypeStackedArea:
		elements, summaries = c.compileArea(rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChartType, t)
	}

	res := &Result{
		ChartType: t,
		Elements:  elements,
		Summaries: summaries,
		Specs:     buildFigureSpecs(t, meta, summaries),
	}
	if len(summaries) > tc.Parameters.MaxChartCount {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d figures exceed the configured maximum of %d",
			len(summaries), tc.Parameters.MaxChartCount))
	}
	return res, nil
}

// compilation is the per-invocation state shared by the per-type compilers.
// Nothing here outlives one Compute call.
type compilation struct {
	scope  Scope
	params Parameters
	meta   Meta
	colors map[string]int
}

// colorIndex assigns palette slots in first-seen order. Indices are stable
// for a given category within one invocation; there is no cross-invocation
// guarantee.
func (c *compilation) colorIndex(key string) int {
	if idx, ok := c.colors[key]; ok {
		return idx
	}
	idx := len(c.colors)
	c.colors[key] = idx
	return idx
}

// title derives a figure title from the active filter description plus
// scope. periodLabel narrows the title for per-period figures; figures
// spanning the whole scope pass "".
func (c *compilation) title(periodLabel string) string {
	var parts []string
	if c.scope.Filter != "" {
		parts = append(parts, c.scope.Filter)
	}
	if c.scope.Level > 0 {
		parts = append(parts, fmt.Sprintf("level %d", c.scope.Level))
	}
	switch {
	case periodLabel != "":
		parts = append(parts, periodLabel)
	case c.scope.yearsLabel() != "":
		parts = append(parts, c.scope.yearsLabel())
	}
	if len(parts) == 0 {
		return "All transactions"
	}
	return strings.Join(parts, " · ")
}

// percentOf converts value/sum into a percentage. A zero sum yields zero.
func percentOf(value, sum decimal.Decimal) float64 {
	if sum.IsZero() {
		return 0
	}
	return value.Div(sum).InexactFloat64() * 100
}

// barPeriodAxis reports the bar-family special case: exactly one primary
// category over multiple periods charts periods on the bar axis instead of
// categories.
func barPeriodAxis(meta Meta) bool {
	return meta.MajorCategoryCount <= 1 && meta.MultiplePeriods()
}

// categoryPrefix truncates a dot-delimited path to the given depth. Paths
// shallower than depth are returned unchanged.
func categoryPrefix(category string, depth int) string {
	parts := strings.Split(category, ".")
	if len(parts) <= depth {
		return category
	}
	return strings.Join(parts[:depth], ".")
}
