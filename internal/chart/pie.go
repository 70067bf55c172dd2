package chart

import "github.com/shopspring/decimal"

// compilePie builds one figure per distinct period, in first-seen order:
// a pie cannot show time evolution, so each period becomes its own chart
// index. Within a figure there is one slice per primary-level category,
// valued at the absolute magnitude of the category's summed amount
// (uniform sign is guaranteed by eligibility). Slices below the figure's
// merge threshold collapse into a single synthetic "Other" slice placed
// after all surviving slices.
func (c *compilation) compilePie(rows []FilteredRow) ([]ElementRow, []FigureSummary) {
	primary := c.meta.PrimaryLevel()

	type slice struct {
		category string
		value    decimal.Decimal
	}
	type figure struct {
		period    string
		order     []*slice
		byCat     map[string]*slice
		signedSum decimal.Decimal
	}

	var figures []*figure
	byPeriod := make(map[string]*figure)
	for _, r := range rows {
		if r.Level != primary {
			continue // minor levels never participate in a pie
		}
		f := byPeriod[r.Period]
		if f == nil {
			f = &figure{period: r.Period, byCat: make(map[string]*slice)}
			byPeriod[r.Period] = f
			figures = append(figures, f)
		}
		s := f.byCat[r.Category]
		if s == nil {
			s = &slice{category: r.Category}
			f.byCat[r.Category] = s
			f.order = append(f.order, s)
		}
		s.value = s.value.Add(r.Amount.Abs())
		f.signedSum = f.signedSum.Add(r.Amount)
	}

	minFrac := decimal.NewFromFloat(c.params.MinFraction)
	var elements []ElementRow
	var summaries []FigureSummary
	for fi, f := range figures {
		chartIndex := fi + 1

		// Labels resolve over this figure's slice set only.
		cats := make([]string, 0, len(f.order))
		sum, max := decimal.Zero, decimal.Zero
		for _, s := range f.order {
			cats = append(cats, s.category)
			sum = sum.Add(s.value)
			if s.value.Cmp(max) > 0 {
				max = s.value
			}
		}
		labels := ResolveLabels(cats)
		threshold := minFrac.Mul(max)

		merged := decimal.Zero
		mergedAny := false
		for _, s := range f.order {
			if s.value.Cmp(threshold) < 0 {
				merged = merged.Add(s.value)
				mergedAny = true
				continue
			}
			elements = append(elements, ElementRow{
				ChartIndex: chartIndex,
				Cluster:    s.category,
				Period:     f.period,
				Label:      labels[s.category],
				Value:      s.value,
				Percent:    percentOf(s.value, sum),
				ColorIndex: c.colorIndex(s.category),
			})
		}
		if mergedAny {
			elements = append(elements, ElementRow{
				ChartIndex: chartIndex,
				Cluster:    "other",
				Period:     f.period,
				Label:      "Other",
				Value:      merged,
				Percent:    percentOf(merged, sum),
				ColorIndex: c.colorIndex("Other"),
				IsMerged:   true,
			})
		}

		summaries = append(summaries, FigureSummary{
			ChartIndex:  chartIndex,
			Title:       c.title(f.period),
			Sum:         f.signedSum,
			AbsoluteSum: sum,
			Max:         max,
			Threshold:   threshold,
		})
	}
	return elements, summaries
}
