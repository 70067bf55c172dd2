package chart

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func row(period string, year, sortPeriod int, category string, level int, amount string) FilteredRow {
	return FilteredRow{
		Period:     period,
		SortYear:   year,
		SortPeriod: sortPeriod,
		Category:   category,
		Level:      level,
		Amount:     decimal.RequireFromString(amount),
		Count:      1,
	}
}

func TestExtractMetaMajorMinor(t *testing.T) {
	tests := []struct {
		name       string
		rows       []FilteredRow
		wantMajor  int
		wantMinors []int
	}{
		{
			name: "single multi-item level",
			rows: []FilteredRow{
				row("2024", 2024, 1, "Expense.Food", 2, "-10"),
				row("2024", 2024, 1, "Expense.Rent", 2, "-20"),
			},
			wantMajor: 2,
		},
		{
			name: "major with deeper minors",
			rows: []FilteredRow{
				row("2024", 2024, 1, "Expense.Food", 2, "-30"),
				row("2024", 2024, 1, "Expense.Rent", 2, "-20"),
				row("2024", 2024, 1, "Expense.Food.Restaurant", 3, "-10"),
				row("2024", 2024, 1, "Expense.Food.Groceries", 3, "-15"),
			},
			wantMajor:  2,
			wantMinors: []int{3},
		},
		{
			name: "three multi-item levels keep the deepest two",
			rows: []FilteredRow{
				row("2024", 2024, 1, "Expense", 1, "-50"),
				row("2024", 2024, 1, "Income", 1, "60"),
				row("2024", 2024, 1, "Expense.Food", 2, "-30"),
				row("2024", 2024, 1, "Expense.Rent", 2, "-20"),
				row("2024", 2024, 1, "Expense.Food.Restaurant", 3, "-10"),
				row("2024", 2024, 1, "Expense.Food.Groceries", 3, "-15"),
			},
			wantMajor:  2,
			wantMinors: []int{3},
		},
		{
			name: "no multi-item level",
			rows: []FilteredRow{
				row("2024", 2024, 1, "Expense", 1, "-50"),
				row("2024", 2024, 1, "Expense.Food", 2, "-30"),
			},
			wantMajor:  0,
			wantMinors: []int{2},
		},
		{
			name:      "empty input",
			rows:      nil,
			wantMajor: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ExtractMeta(tt.rows)
			if m.MajorLevel != tt.wantMajor {
				t.Errorf("MajorLevel = %d, want %d", m.MajorLevel, tt.wantMajor)
			}
			if !reflect.DeepEqual(m.MinorLevels, tt.wantMinors) {
				t.Errorf("MinorLevels = %v, want %v", m.MinorLevels, tt.wantMinors)
			}
			for _, l := range m.MinorLevels {
				if m.MajorLevel > 0 && l <= m.MajorLevel {
					t.Errorf("minor level %d not deeper than major %d", l, m.MajorLevel)
				}
			}
		})
	}
}

func TestExtractMetaSign(t *testing.T) {
	tests := []struct {
		name string
		rows []FilteredRow
		want Sign
	}{
		{"positive only", []FilteredRow{row("2024", 2024, 1, "Income", 1, "10")}, SignPositive},
		{"negative only", []FilteredRow{row("2024", 2024, 1, "Expense", 1, "-10")}, SignNegative},
		{"mixed", []FilteredRow{
			row("2024", 2024, 1, "Income", 1, "10"),
			row("2024", 2024, 1, "Expense", 1, "-10"),
		}, SignMixed},
		{"all zero classifies positive", []FilteredRow{row("2024", 2024, 1, "Expense", 1, "0")}, SignPositive},
		{"empty classifies positive", nil, SignPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMeta(tt.rows).Sign; got != tt.want {
				t.Errorf("Sign = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractMetaCardinality(t *testing.T) {
	rows := []FilteredRow{
		row("2024-Q1", 2024, 1, "Expense.Food", 2, "-10"),
		row("2024-Q2", 2024, 2, "Expense.Food", 2, "-10"),
		row("2025-Q1", 2025, 1, "Expense.Rent", 2, "-10"),
	}
	m := ExtractMeta(rows)
	if m.SortYearCount != 2 {
		t.Errorf("SortYearCount = %d, want 2", m.SortYearCount)
	}
	if m.SortPeriodCount != 2 {
		t.Errorf("SortPeriodCount = %d, want 2", m.SortPeriodCount)
	}
	if !m.MultiplePeriods() {
		t.Errorf("expected MultiplePeriods")
	}
}

func TestExtractMetaDeterministic(t *testing.T) {
	rows := []FilteredRow{
		row("2024", 2024, 1, "Expense.Food", 2, "-30"),
		row("2024", 2024, 1, "Expense.Rent", 2, "-20"),
		row("2024", 2024, 1, "Expense.Food.Restaurant", 3, "-10"),
	}
	a, b := ExtractMeta(rows), ExtractMeta(rows)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("ExtractMeta not deterministic: %+v vs %+v", a, b)
	}
}
