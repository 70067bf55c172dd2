package chart

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// compileBar builds the single simple-bar figure. Values pass through
// signed: mixed-sign data renders from a shared zero baseline with positive
// and negative bars extending opposite directions. Bars never merge, so the
// figure threshold is zero.
//
// Clustering: every element's cluster is its year, one cluster per year.
// Under uniform sign with multiple years the elements are re-grouped by
// category (first seen) so like categories sit adjacently across years;
// under mixed sign elements keep input order so same-period positive and
// negative bars stay in one cluster. With exactly one primary category over
// multiple periods the bar axis carries periods and elements are ordered
// chronologically.
func (c *compilation) compileBar(rows []FilteredRow) ([]ElementRow, []FigureSummary) {
	primary := c.meta.PrimaryLevel()

	bars := make([]FilteredRow, 0, len(rows))
	for _, r := range rows {
		if r.Level == primary {
			bars = append(bars, r)
		}
	}

	// Color assignment follows input order, before any re-grouping.
	yearColor := make(map[int]int)
	for _, r := range bars {
		if _, ok := yearColor[r.SortYear]; !ok {
			yearColor[r.SortYear] = len(yearColor)
		}
	}

	switch {
	case barPeriodAxis(c.meta):
		sort.SliceStable(bars, func(i, j int) bool {
			if bars[i].SortYear != bars[j].SortYear {
				return bars[i].SortYear < bars[j].SortYear
			}
			return bars[i].SortPeriod < bars[j].SortPeriod
		})
	case c.meta.Sign != SignMixed && c.meta.SortYearCount > 1:
		rank := make(map[string]int)
		for _, r := range bars {
			if _, ok := rank[r.Category]; !ok {
				rank[r.Category] = len(rank)
			}
		}
		sort.SliceStable(bars, func(i, j int) bool {
			return rank[bars[i].Category] < rank[bars[j].Category]
		})
	}

	cats := make([]string, 0, len(bars))
	seen := make(map[string]struct{})
	for _, r := range bars {
		if _, ok := seen[r.Category]; !ok {
			seen[r.Category] = struct{}{}
			cats = append(cats, r.Category)
		}
	}
	labels := ResolveLabels(cats)

	sum, absSum, max := decimal.Zero, decimal.Zero, decimal.Zero
	elements := make([]ElementRow, 0, len(bars))
	for _, r := range bars {
		elements = append(elements, ElementRow{
			ChartIndex: 1,
			Cluster:    strconv.Itoa(r.SortYear),
			Period:     r.Period,
			Label:      labels[r.Category],
			Value:      r.Amount,
			ColorIndex: yearColor[r.SortYear],
		})
		sum = sum.Add(r.Amount)
		absSum = absSum.Add(r.Amount.Abs())
		if abs := r.Amount.Abs(); abs.Cmp(max) > 0 {
			max = abs
		}
	}

	summary := FigureSummary{
		ChartIndex:  1,
		Title:       c.title(""),
		Sum:         sum,
		AbsoluteSum: absSum,
		Max:         max,
		Threshold:   decimal.Zero,
	}
	return elements, []FigureSummary{summary}
}

// compileStackedBar builds the single stacked-bar figure. Bars are the
// primary-level rows; each bar's rendered height is the primary row's own
// amount. Minor-level rows overlay their parent bar as opaque bottom
// segments sharing the parent's cluster, so incomplete child coverage leaves
// the uncovered top in the parent's color. Stacked bars never merge.
func (c *compilation) compileStackedBar(rows []FilteredRow) ([]ElementRow, []FigureSummary) {
	primary := c.meta.PrimaryLevel()

	type barKey struct{ category, period string }
	parents := make([]FilteredRow, 0, len(rows))
	childrenOf := make(map[barKey][]FilteredRow)
	var parentCats, childCats []string
	seenParent := make(map[string]struct{})
	seenChild := make(map[string]struct{})

	for _, r := range rows {
		if r.Level == primary {
			parents = append(parents, r)
			if _, ok := seenParent[r.Category]; !ok {
				seenParent[r.Category] = struct{}{}
				parentCats = append(parentCats, r.Category)
			}
			continue
		}
		if r.Level < primary {
			continue // shallower than the charting level, ignored
		}
		key := barKey{category: categoryPrefix(r.Category, primary), period: r.Period}
		childrenOf[key] = append(childrenOf[key], r)
		if _, ok := seenChild[r.Category]; !ok {
			seenChild[r.Category] = struct{}{}
			childCats = append(childCats, r.Category)
		}
	}

	// Parent and child labels resolve over disjoint sets.
	parentLabels := ResolveLabels(parentCats)
	childLabels := ResolveLabels(childCats)

	if barPeriodAxis(c.meta) {
		sort.SliceStable(parents, func(i, j int) bool {
			if parents[i].SortYear != parents[j].SortYear {
				return parents[i].SortYear < parents[j].SortYear
			}
			return parents[i].SortPeriod < parents[j].SortPeriod
		})
	}

	sum, absSum, max := decimal.Zero, decimal.Zero, decimal.Zero
	var elements []ElementRow
	for _, p := range parents {
		elements = append(elements, ElementRow{
			ChartIndex: 1,
			Cluster:    p.Category,
			Period:     p.Period,
			Label:      parentLabels[p.Category],
			Value:      p.Amount,
			ColorIndex: c.colorIndex(p.Category),
		})
		for _, ch := range childrenOf[barKey{category: p.Category, period: p.Period}] {
			elements = append(elements, ElementRow{
				ChartIndex: 1,
				Cluster:    p.Category,
				Period:     ch.Period,
				Label:      childLabels[ch.Category],
				Value:      ch.Amount,
				ColorIndex: c.colorIndex(ch.Category),
			})
		}
		sum = sum.Add(p.Amount)
		absSum = absSum.Add(p.Amount.Abs())
		if abs := p.Amount.Abs(); abs.Cmp(max) > 0 {
			max = abs
		}
	}

	summary := FigureSummary{
		ChartIndex:  1,
		Title:       c.title(""),
		Sum:         sum,
		AbsoluteSum: absSum,
		Max:         max,
		Threshold:   decimal.Zero,
	}
	return elements, []FigureSummary{summary}
}
