package chart

// buildFigureSpecs produces the per-figure layout metadata for every chart
// index the compiler established: chart type, title, axis bindings, tick
// rules, orientation and palette size. Only singletons and regular-interval
// rules live here; anything per-element belongs in ElementRow.
func buildFigureSpecs(t Type, meta Meta, summaries []FigureSummary) map[int]FigureSpec {
	specs := make(map[int]FigureSpec, len(summaries))
	for _, s := range summaries {
		spec := FigureSpec{ChartType: t, Title: s.Title}
		switch t {
		case TypePie:
			spec.AxisBindings = map[string]string{"angle": "value", "slice": "label"}
			spec.TickRules = map[string]string{}
			spec.Orientation = "radial"
			spec.PaletteSize = categoricalPaletteSize
		case TypeBar:
			axis := barAxis(meta)
			spec.AxisBindings = map[string]string{"x": axis, "y": "value"}
			spec.TickRules = map[string]string{
				"x": "one major tick per " + axis,
				"y": "regular value intervals",
			}
			spec.Orientation = "vertical"
			// One color per year: clusters are years.
			spec.PaletteSize = max(1, meta.SortYearCount)
		case TypeStackedBar:
			axis := barAxis(meta)
			spec.AxisBindings = map[string]string{"x": axis, "y": "value"}
			spec.TickRules = map[string]string{
				"x": "one major tick per " + axis,
				"y": "regular value intervals",
			}
			spec.Orientation = "vertical"
			// Segments are colored per category, so the stacked variant
			// uses the categorical palette.
			spec.PaletteSize = categoricalPaletteSize
		case TypeStackedArea:
			spec.AxisBindings = map[string]string{"x": "period", "y": "value"}
			spec.TickRules = map[string]string{
				"x": "one major tick per period",
				"y": "regular value intervals",
			}
			spec.Orientation = "vertical"
			spec.PaletteSize = categoricalPaletteSize
		}
		specs[s.ChartIndex] = spec
	}
	return specs
}

const categoricalPaletteSize = 16

func barAxis(meta Meta) string {
	if barPeriodAxis(meta) {
		return "period"
	}
	return "category"
}
