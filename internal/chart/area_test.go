package chart

import (
	"testing"
)

func quarterlyScope() Scope {
	return Scope{
		Filter:      "Expense.Food",
		Level:       3,
		Years:       []int{2024, 2025},
		Granularity: GranularityQuarterly,
	}
}

func quarterlyFoodRows() []FilteredRow {
	restaurant := []string{"-300", "-320", "-310", "-305", "-315", "-325", "-330", "-340"}
	groceries := []string{"-600", "-620", "-610", "-605", "-615", "-625", "-630", "-640"}
	var rows []FilteredRow
	for i := 0; i < 8; i++ {
		year, quarter := 2024+i/4, i%4+1
		label := quarterlyScope().PeriodLabel(year, quarter)
		rows = append(rows,
			row(label, year, quarter, "Expense.Food.Restaurant", 3, restaurant[i]),
			row(label, year, quarter, "Expense.Food.Groceries", 3, groceries[i]),
		)
	}
	return rows
}

func TestComputeAreaLayersOverPeriods(t *testing.T) {
	res, err := Compute(quarterlyFoodRows(), TypeStackedArea, quarterlyScope(), defaultConfig(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Two layers times eight periods, layer-major, stacked in input order.
	if len(res.Elements) != 16 {
		t.Fatalf("elements = %d, want 16", len(res.Elements))
	}
	wantPeriods := []string{
		"2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4",
		"2025-Q1", "2025-Q2", "2025-Q3", "2025-Q4",
	}
	for i, e := range res.Elements {
		wantLabel, wantColor := "Restaurant", 0
		if i >= 8 {
			wantLabel, wantColor = "Groceries", 1
		}
		if e.Label != wantLabel || e.ColorIndex != wantColor {
			t.Errorf("element %d = %s/%d, want %s/%d", i, e.Label, e.ColorIndex, wantLabel, wantColor)
		}
		if e.Period != wantPeriods[i%8] {
			t.Errorf("element %d Period = %s, want %s", i, e.Period, wantPeriods[i%8])
		}
		if e.Value.Sign() < 0 {
			t.Errorf("element %d Value = %s, want magnitude", i, e.Value)
		}
	}

	s := res.Summaries[0]
	if !s.Sum.Equal(dec("-7490")) {
		t.Errorf("Sum = %s, want -7490", s.Sum)
	}
	if !s.AbsoluteSum.Equal(dec("7490")) {
		t.Errorf("AbsoluteSum = %s, want 7490", s.AbsoluteSum)
	}
	if !s.Max.Equal(dec("640")) {
		t.Errorf("Max = %s, want 640", s.Max)
	}
	if !s.Threshold.Equal(dec("32")) {
		t.Errorf("Threshold = %s, want 32", s.Threshold)
	}
	if s.Title != "Expense.Food · level 3 · 2024-2025" {
		t.Errorf("Title = %q", s.Title)
	}

	spec := res.Specs[1]
	if spec.AxisBindings["x"] != "period" || spec.AxisBindings["y"] != "value" {
		t.Errorf("axis bindings = %v", spec.AxisBindings)
	}
}

func TestComputeAreaZeroFillsMissingPeriods(t *testing.T) {
	rows := quarterlyFoodRows()
	// Drop the restaurant point for 2025-Q4: it must come back as a zero,
	// not vanish and not merge.
	trimmed := rows[:0]
	for _, r := range rows {
		if r.Category == "Expense.Food.Restaurant" && r.Period == "2025-Q4" {
			continue
		}
		trimmed = append(trimmed, r)
	}

	res, err := Compute(trimmed, TypeStackedArea, quarterlyScope(), defaultConfig(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Elements) != 16 {
		t.Fatalf("elements = %d, want 16 with the gap zero-filled", len(res.Elements))
	}
	var found bool
	for _, e := range res.Elements {
		if e.Label == "Restaurant" && e.Period == "2025-Q4" {
			found = true
			if !e.Value.IsZero() {
				t.Errorf("zero-filled Value = %s", e.Value)
			}
			if e.IsMerged {
				t.Error("synthetic zero point must never merge")
			}
		}
	}
	if !found {
		t.Fatal("missing zero-filled element for 2025-Q4")
	}
}

func TestComputeAreaMergesSmallLayers(t *testing.T) {
	rows := quarterlyFoodRows()
	for i := 0; i < 8; i++ {
		year, quarter := 2024+i/4, i%4+1
		rows = append(rows, row(
			quarterlyScope().PeriodLabel(year, quarter),
			year, quarter, "Expense.Food.Snacks", 3, "-5",
		))
	}

	res, err := Compute(rows, TypeStackedArea, quarterlyScope(), defaultConfig(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// Snacks sits below the 32 threshold everywhere, so the whole layer
	// folds into Other, emitted last.
	if len(res.Elements) != 24 {
		t.Fatalf("elements = %d, want 24", len(res.Elements))
	}
	for _, e := range res.Elements {
		if e.Label == "Snacks" {
			t.Fatal("merged layer still emitted under its own label")
		}
	}
	for i := 16; i < 24; i++ {
		e := res.Elements[i]
		if e.Cluster != "other" || e.Label != "Other" || !e.IsMerged {
			t.Errorf("element %d = %+v, want Other layer", i, e)
		}
		if !e.Value.Equal(dec("5")) {
			t.Errorf("Other value = %s, want 5", e.Value)
		}
	}
}

func TestComputeAreaWithoutScopeUsesObservedPeriods(t *testing.T) {
	rows := []FilteredRow{
		row("2024-Q2", 2024, 2, "Expense.Food.Restaurant", 3, "-300"),
		row("2024-Q2", 2024, 2, "Expense.Food.Groceries", 3, "-600"),
		row("2024-Q1", 2024, 1, "Expense.Food.Restaurant", 3, "-310"),
		row("2024-Q1", 2024, 1, "Expense.Food.Groceries", 3, "-590"),
	}
	res, err := Compute(rows, TypeStackedArea, Scope{}, defaultConfig(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Elements) != 4 {
		t.Fatalf("elements = %d, want 4", len(res.Elements))
	}
	// Observed periods sort chronologically even when the input does not.
	if res.Elements[0].Period != "2024-Q1" || res.Elements[1].Period != "2024-Q2" {
		t.Errorf("periods = %s, %s", res.Elements[0].Period, res.Elements[1].Period)
	}
	if res.Summaries[0].Title != "All transactions" {
		t.Errorf("Title = %q", res.Summaries[0].Title)
	}
}

func TestComputeAreaIgnoresMinorRows(t *testing.T) {
	rows := append(quarterlyFoodRows(),
		row("2024-Q1", 2024, 1, "Expense.Food.Restaurant.Lunch", 4, "-100"),
		row("2024-Q1", 2024, 1, "Expense.Food.Restaurant.Dinner", 4, "-200"),
	)
	res, err := Compute(rows, TypeStackedArea, quarterlyScope(), defaultConfig(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Elements) != 16 {
		t.Errorf("elements = %d, want 16 with minor rows ignored", len(res.Elements))
	}
}
