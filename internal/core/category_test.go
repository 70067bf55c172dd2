package core

import (
	"reflect"
	"testing"
)

func TestCategoryDepth(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{"", 0},
		{"Expense", 1},
		{"Expense.Food", 2},
		{"Expense.Food.Restaurant", 3},
	}
	for _, tt := range tests {
		if got := tt.category.Depth(); got != tt.want {
			t.Errorf("%q.Depth() = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestCategoryTruncate(t *testing.T) {
	tests := []struct {
		category Category
		depth    int
		want     Category
	}{
		{"Expense.Food.Restaurant", 1, "Expense"},
		{"Expense.Food.Restaurant", 2, "Expense.Food"},
		{"Expense.Food.Restaurant", 5, "Expense.Food.Restaurant"},
		{"Expense", 1, "Expense"},
	}
	for _, tt := range tests {
		if got := tt.category.Truncate(tt.depth); got != tt.want {
			t.Errorf("%q.Truncate(%d) = %q, want %q", tt.category, tt.depth, got, tt.want)
		}
	}
}

func TestCategoryComponents(t *testing.T) {
	got := Category("Expense.Food").Components()
	if !reflect.DeepEqual(got, []string{"Expense", "Food"}) {
		t.Errorf("Components() = %v", got)
	}
	if c := Category(""); c.Components() != nil {
		t.Errorf("empty Components() = %v, want nil", c.Components())
	}
	if leaf := Category("Expense.Food.Restaurant").Leaf(); leaf != "Restaurant" {
		t.Errorf("Leaf() = %q", leaf)
	}
}

func TestCategoryValidate(t *testing.T) {
	tests := []struct {
		category Category
		wantErr  bool
	}{
		{"Expense.Food", false},
		{"Expense", false},
		{"", true},
		{"Expense..Food", true},
		{"Expense. .Food", true},
	}
	for _, tt := range tests {
		err := tt.category.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%q.Validate() = %v, wantErr %v", tt.category, err, tt.wantErr)
		}
	}
}
