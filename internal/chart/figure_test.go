package chart

import "testing"

func TestBuildFigureSpecs(t *testing.T) {
	summaries := []FigureSummary{
		{ChartIndex: 1, Title: "Expense · 2023"},
		{ChartIndex: 2, Title: "Expense · 2024"},
	}
	categoricalMeta := Meta{MajorLevel: 2, MajorCategoryCount: 5, SortYearCount: 2, SortPeriodCount: 1}
	periodMeta := Meta{MajorCategoryCount: 1, SortYearCount: 1, SortPeriodCount: 4}

	tests := []struct {
		name        string
		chartType   Type
		meta        Meta
		wantX       string
		wantOrient  string
		wantPalette int
	}{
		{"pie", TypePie, categoricalMeta, "", "radial", categoricalPaletteSize},
		{"bar over categories", TypeBar, categoricalMeta, "category", "vertical", 2},
		{"bar over periods", TypeBar, periodMeta, "period", "vertical", 1},
		{"stacked bar", TypeStackedBar, categoricalMeta, "category", "vertical", categoricalPaletteSize},
		{"stacked area", TypeStackedArea, periodMeta, "period", "vertical", categoricalPaletteSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := buildFigureSpecs(tt.chartType, tt.meta, summaries)
			if len(specs) != 2 {
				t.Fatalf("specs = %d, want one per summary", len(specs))
			}
			spec := specs[1]
			if spec.ChartType != tt.chartType {
				t.Errorf("ChartType = %s", spec.ChartType)
			}
			if spec.Title != "Expense · 2023" {
				t.Errorf("Title = %q", spec.Title)
			}
			if got := spec.AxisBindings["x"]; got != tt.wantX {
				t.Errorf("x binding = %q, want %q", got, tt.wantX)
			}
			if spec.Orientation != tt.wantOrient {
				t.Errorf("Orientation = %q, want %q", spec.Orientation, tt.wantOrient)
			}
			if spec.PaletteSize != tt.wantPalette {
				t.Errorf("PaletteSize = %d, want %d", spec.PaletteSize, tt.wantPalette)
			}
			if tt.chartType == TypePie {
				if spec.AxisBindings["angle"] != "value" || spec.AxisBindings["slice"] != "label" {
					t.Errorf("pie bindings = %v", spec.AxisBindings)
				}
			} else if spec.TickRules["y"] != "regular value intervals" {
				t.Errorf("y tick rule = %q", spec.TickRules["y"])
			}
		})
	}
}
