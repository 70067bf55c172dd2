package chart

import (
	"reflect"
	"testing"
)

func TestResolveLabels(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		want       map[string]string
	}{
		{
			name:       "distinct tails stay short",
			categories: []string{"Expense.Food", "Expense.Rent", "Income.Salary"},
			want: map[string]string{
				"Expense.Food":  "Food",
				"Expense.Rent":  "Rent",
				"Income.Salary": "Salary",
			},
		},
		{
			name:       "collision extends both members",
			categories: []string{"Expense.Other", "Income.Other"},
			want: map[string]string{
				"Expense.Other": "Expense.Other",
				"Income.Other":  "Income.Other",
			},
		},
		{
			name:       "extension stops at the first distinguishing component",
			categories: []string{"A.B.Fees", "C.D.Fees"},
			want: map[string]string{
				"A.B.Fees": "B.Fees",
				"C.D.Fees": "D.Fees",
			},
		},
		{
			name:       "collision persisting after one extension keeps widening",
			categories: []string{"A.B.X", "C.B.X"},
			want: map[string]string{
				"A.B.X": "A.B.X",
				"C.B.X": "C.B.X",
			},
		},
		{
			name:       "exhausted path stays put while the other extends",
			categories: []string{"Other", "Expense.Other"},
			want: map[string]string{
				"Other":         "Other",
				"Expense.Other": "Expense.Other",
			},
		},
		{
			name:       "duplicates dedupe instead of colliding with themselves",
			categories: []string{"Expense.Food", "Expense.Food"},
			want: map[string]string{
				"Expense.Food": "Food",
			},
		},
		{
			name:       "empty set",
			categories: nil,
			want:       map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLabels(tt.categories)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveLabels(%v) = %v, want %v", tt.categories, got, tt.want)
			}
		})
	}
}

func TestResolveLabelsIndependentContexts(t *testing.T) {
	// The same category resolves differently depending on what it shares a
	// context with. Contexts never leak into each other.
	alone := ResolveLabels([]string{"Expense.Other"})
	crowded := ResolveLabels([]string{"Expense.Other", "Income.Other"})
	if alone["Expense.Other"] != "Other" {
		t.Errorf("alone = %q, want %q", alone["Expense.Other"], "Other")
	}
	if crowded["Expense.Other"] != "Expense.Other" {
		t.Errorf("crowded = %q, want %q", crowded["Expense.Other"], "Expense.Other")
	}
}
