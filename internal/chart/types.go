// Package chart computes ready-to-render chart specifications from a
// filtered, hierarchical table of categorized financial transactions.
//
// The package is a pure, synchronous computation: given identical inputs
// (filtered rows, chart type, configuration) it produces identical output.
// It decides which chart types are legal for the current data shape, compiles
// the exact drawable elements for each legal chart, and emits per-figure
// layout metadata. Rendering happens elsewhere and performs no computation.
package chart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Type identifies one of the supported chart types. The set is closed:
// every compiler switch over Type handles all four values explicitly.
type Type string

const (
	TypePie         Type = "pie"
	TypeBar         Type = "bar"
	TypeStackedBar  Type = "stacked_bar"
	TypeStackedArea Type = "stacked_area"
)

// Types returns the supported chart types in stable order.
func Types() []Type {
	return []Type{TypePie, TypeBar, TypeStackedBar, TypeStackedArea}
}

// ParseType validates a chart type name coming from a caller.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypePie, TypeBar, TypeStackedBar, TypeStackedArea:
		return Type(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChartType, s)
}

// Description returns the user-facing description of a chart type.
func (t Type) Description() string {
	switch t {
	case TypePie:
		return "Compare relative percentages of categories for a single period"
	case TypeBar:
		return "Simple bar chart of category amounts, including mixed-sign data"
	case TypeStackedBar:
		return "Stacked bar chart overlaying subcategory segments on parent bars"
	case TypeStackedArea:
		return "Evolution of category amounts over time with stacked areas"
	}
	return ""
}

// FilteredRow is one row of the upstream filtered table. It is produced
// entirely by the caller (category substring and level selection already
// applied) and treated as read-only input.
type FilteredRow struct {
	Period     string          `json:"period"`
	SortYear   int             `json:"sort_year"`
	SortPeriod int             `json:"sort_period"`
	Category   string          `json:"category"` // dot-delimited path, depth == Level
	Level      int             `json:"level"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

// ElementRow is one drawable unit. Rows sharing (ChartIndex, Period, Cluster)
// stack together; rows sharing ChartIndex belong to exactly one figure.
type ElementRow struct {
	ChartIndex int             `json:"chart_index"`
	Cluster    string          `json:"cluster"`
	Period     string          `json:"period"`
	Label      string          `json:"label"`
	Value      decimal.Decimal `json:"value"`
	Percent    float64         `json:"percent"` // meaningful for pie only
	ColorIndex int             `json:"color_index"`
	IsMerged   bool            `json:"is_merged"`
}

// FigureSummary carries per-figure aggregates for diagnostics and the UI.
// Threshold is MinFraction*Max within the figure's scope; it is zero for the
// bar family, which never merges.
type FigureSummary struct {
	ChartIndex  int             `json:"chart_index"`
	Title       string          `json:"title"`
	Sum         decimal.Decimal `json:"sum"`
	AbsoluteSum decimal.Decimal `json:"absolute_sum"`
	Max         decimal.Decimal `json:"max"`
	Threshold   decimal.Decimal `json:"threshold"`
}

// FigureSpec is the per-figure layout contract: singletons and rule-based
// layout only. Per-element data never appears here; it belongs in ElementRow.
type FigureSpec struct {
	ChartType    Type              `json:"chart_type"`
	Title        string            `json:"title"`
	AxisBindings map[string]string `json:"axis_bindings"`
	TickRules    map[string]string `json:"tick_rules"`
	Orientation  string            `json:"orientation"`
	PaletteSize  int               `json:"palette_size"`
}

// Result is the full output contract handed to the renderer: an ordered
// element sequence, one summary per figure, and one spec per chart index.
type Result struct {
	ChartType Type                `json:"chart_type"`
	Elements  []ElementRow        `json:"elements"`
	Summaries []FigureSummary     `json:"summaries"`
	Specs     map[int]FigureSpec  `json:"figures"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Granularity is the period granularity of the requested scope.
type Granularity string

const (
	GranularityAnnual    Granularity = "annual"
	GranularityQuarterly Granularity = "quarterly"
	GranularityMonthly   Granularity = "monthly"
)

// Period pairs a display label with its chronological sort keys.
type Period struct {
	Label      string
	SortYear   int
	SortPeriod int
}

// Scope describes the active selection: it parameterizes figure titles and
// the period range stacked-area charts zero-fill over.
type Scope struct {
	Filter      string // active category filter description
	Level       int    // selected hierarchy level, 0 when unset
	Years       []int
	Granularity Granularity
}

// Periods enumerates every period label the scope covers, in chronological
// order. An empty scope yields nil; callers then fall back to the periods
// observed in the input.
func (s Scope) Periods() []Period {
	if len(s.Years) == 0 {
		return nil
	}
	var out []Period
	for _, y := range s.Years {
		switch s.Granularity {
		case GranularityQuarterly:
			for q := 1; q <= 4; q++ {
				out = append(out, Period{Label: fmt.Sprintf("%d-Q%d", y, q), SortYear: y, SortPeriod: q})
			}
		case GranularityMonthly:
			for m := 1; m <= 12; m++ {
				out = append(out, Period{Label: fmt.Sprintf("%d-%02d", y, m), SortYear: y, SortPeriod: m})
			}
		default:
			out = append(out, Period{Label: fmt.Sprintf("%d", y), SortYear: y, SortPeriod: 1})
		}
	}
	return out
}

// PeriodLabel formats one period label for the scope's granularity.
func (s Scope) PeriodLabel(year, sortPeriod int) string {
	switch s.Granularity {
	case GranularityQuarterly:
		return fmt.Sprintf("%d-Q%d", year, sortPeriod)
	case GranularityMonthly:
		return fmt.Sprintf("%d-%02d", year, sortPeriod)
	default:
		return fmt.Sprintf("%d", year)
	}
}

// yearsLabel renders the scope's year selection for titles.
func (s Scope) yearsLabel() string {
	switch len(s.Years) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%d", s.Years[0])
	default:
		return fmt.Sprintf("%d-%d", s.Years[0], s.Years[len(s.Years)-1])
	}
}
