package chart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// compileArea builds the single stacked-area figure. Only major-level rows
// participate; minor-level rows are ignored entirely, not an error. The
// x-axis is the chronological period range of the scope, zero-filled for
// periods absent from the input (a missing period is a zero amount, not
// absent data). Each distinct major-level category is one layer, stacked
// bottom-up in input order; layer points below the figure threshold merge
// into a synthetic "Other" layer emitted last.
func (c *compilation) compileArea(rows []FilteredRow) ([]ElementRow, []FigureSummary) {
	major := c.meta.MajorLevel

	periods := c.scope.Periods()
	if len(periods) == 0 {
		periods = observedPeriods(rows)
	}

	var layers []string
	points := make(map[string]map[string]decimal.Decimal)
	sum := decimal.Zero
	for _, r := range rows {
		if r.Level != major {
			continue
		}
		layer, ok := points[r.Category]
		if !ok {
			layer = make(map[string]decimal.Decimal)
			points[r.Category] = layer
			layers = append(layers, r.Category)
		}
		layer[r.Period] = layer[r.Period].Add(r.Amount.Abs())
		sum = sum.Add(r.Amount)
	}

	absSum, max := decimal.Zero, decimal.Zero
	for _, layer := range points {
		for _, v := range layer {
			absSum = absSum.Add(v)
			if v.Cmp(max) > 0 {
				max = v
			}
		}
	}
	threshold := decimal.NewFromFloat(c.params.MinFraction).Mul(max)

	// Merge small points into a per-period Other bucket. Only source points
	// merge; zero-filled points are synthetic and never move.
	other := make(map[string]decimal.Decimal)
	mergedAny := false
	for _, cat := range layers {
		layer := points[cat]
		for period, v := range layer {
			if v.Cmp(threshold) < 0 {
				other[period] = other[period].Add(v)
				delete(layer, period)
				mergedAny = true
			}
		}
	}

	// Layers with no surviving points disappear into Other entirely.
	surviving := layers[:0]
	for _, cat := range layers {
		if len(points[cat]) > 0 {
			surviving = append(surviving, cat)
		}
	}
	labels := ResolveLabels(surviving)

	var elements []ElementRow
	for _, cat := range surviving {
		color := c.colorIndex(cat)
		for _, p := range periods {
			elements = append(elements, ElementRow{
				ChartIndex: 1,
				Cluster:    cat,
				Period:     p.Label,
				Label:      labels[cat],
				Value:      points[cat][p.Label],
				ColorIndex: color,
			})
		}
	}
	if mergedAny {
		color := c.colorIndex("Other")
		for _, p := range periods {
			elements = append(elements, ElementRow{
				ChartIndex: 1,
				Cluster:    "other",
				Period:     p.Label,
				Label:      "Other",
				Value:      other[p.Label],
				ColorIndex: color,
				IsMerged:   true,
			})
		}
	}

	summary := FigureSummary{
		ChartIndex:  1,
		Title:       c.title(""),
		Sum:         sum,
		AbsoluteSum: absSum,
		Max:         max,
		Threshold:   threshold,
	}
	return elements, []FigureSummary{summary}
}

// observedPeriods derives the chronological period axis from the input when
// the caller supplied no scope. Gaps cannot be synthesized without a
// granularity, so only observed periods appear.
func observedPeriods(rows []FilteredRow) []Period {
	seen := make(map[string]struct{})
	var out []Period
	for _, r := range rows {
		if _, ok := seen[r.Period]; ok {
			continue
		}
		seen[r.Period] = struct{}{}
		out = append(out, Period{Label: r.Period, SortYear: r.SortYear, SortPeriod: r.SortPeriod})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortYear != out[j].SortYear {
			return out[i].SortYear < out[j].SortYear
		}
		return out[i].SortPeriod < out[j].SortPeriod
	})
	return out
}
