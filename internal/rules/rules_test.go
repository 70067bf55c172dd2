package rules

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/CohortInsights/financials/internal/core"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func tx(source, description, amount string) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2024, 5, 1),
		Description: description,
		Source:      source,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		tx   core.Transaction
		want bool
	}{
		{
			name: "empty rule matches everything",
			rule: Rule{Assignment: "Expense.Other"},
			tx:   tx("checking", "anything", "-10"),
			want: true,
		},
		{
			name: "source list is case-insensitive",
			rule: Rule{Assignment: "X", Source: "Checking, Visa"},
			tx:   tx("visa", "POS PURCHASE", "-10"),
			want: true,
		},
		{
			name: "source not in list",
			rule: Rule{Assignment: "X", Source: "checking,visa"},
			tx:   tx("paypal", "POS PURCHASE", "-10"),
			want: false,
		},
		{
			name: "plain substring",
			rule: Rule{Assignment: "X", Description: "grocery"},
			tx:   tx("checking", "LOCAL GROCERY STORE", "-10"),
			want: true,
		},
		{
			name: "comma requires every term",
			rule: Rule{Assignment: "X", Description: "grocery, store"},
			tx:   tx("checking", "LOCAL GROCERY MARKET", "-10"),
			want: false,
		},
		{
			name: "comma with all terms present",
			rule: Rule{Assignment: "X", Description: "grocery, store"},
			tx:   tx("checking", "LOCAL GROCERY STORE", "-10"),
			want: true,
		},
		{
			name: "pipe requires any term",
			rule: Rule{Assignment: "X", Description: "uber|lyft|taxi"},
			tx:   tx("visa", "LYFT RIDE 123", "-23.50"),
			want: true,
		},
		{
			name: "pipe with no term present",
			rule: Rule{Assignment: "X", Description: "uber|lyft|taxi"},
			tx:   tx("visa", "BUS TICKET", "-3.50"),
			want: false,
		},
		{
			name: "comma wins over pipe in a mixed pattern",
			rule: Rule{Assignment: "X", Description: "uber|lyft, ride"},
			tx:   tx("visa", "LYFT RIDE", "-23.50"),
			want: false, // "uber|lyft" as one AND term matches nothing
		},
		{
			name: "amount bounds are signed",
			rule: Rule{Assignment: "X", MaxAmount: dec("-100")},
			tx:   tx("checking", "RENT", "-1500"),
			want: true,
		},
		{
			name: "amount above signed max",
			rule: Rule{Assignment: "X", MaxAmount: dec("-100")},
			tx:   tx("checking", "COFFEE", "-4.50"),
			want: false,
		},
		{
			name: "amount below min",
			rule: Rule{Assignment: "X", MinAmount: dec("0")},
			tx:   tx("checking", "REFUND", "-5"),
			want: false,
		},
		{
			name: "all criteria conjunctive",
			rule: Rule{Assignment: "X", Source: "visa", Description: "coffee", MinAmount: dec("-10"), MaxAmount: dec("0")},
			tx:   tx("visa", "COFFEE SHOP", "-4.50"),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Matches(tt.tx); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignPicksHighestPriority(t *testing.T) {
	rs := []Rule{
		{ID: 1, Priority: 1, Assignment: "Expense.Transport", Description: "uber|lyft"},
		{ID: 2, Priority: 10, Assignment: "Expense.Travel", Description: "lyft, airport"},
		{ID: 3, Priority: 5, Assignment: "Expense.Transport.Rideshare", Description: "lyft"},
	}
	SortByPriority(rs)
	if rs[0].ID != 2 || rs[1].ID != 3 || rs[2].ID != 1 {
		t.Fatalf("sort order = %d, %d, %d", rs[0].ID, rs[1].ID, rs[2].ID)
	}

	got := Assign(tx("visa", "LYFT RIDE TO AIRPORT", "-45"), rs)
	if got != "Expense.Travel" {
		t.Errorf("Assign = %s, want the priority-10 rule", got)
	}

	got = Assign(tx("visa", "LYFT RIDE DOWNTOWN", "-12"), rs)
	if got != "Expense.Transport.Rideshare" {
		t.Errorf("Assign = %s, want the priority-5 rule", got)
	}

	got = Assign(tx("visa", "BUS TICKET", "-3"), rs)
	if got != core.Unspecified {
		t.Errorf("Assign = %s, want Unspecified fallback", got)
	}
}

func TestSortByPriorityStableOnTies(t *testing.T) {
	rs := []Rule{
		{ID: 1, Priority: 5, Assignment: "A", Description: "x"},
		{ID: 2, Priority: 5, Assignment: "B", Description: "x"},
	}
	SortByPriority(rs)
	if rs[0].ID != 1 {
		t.Errorf("tie broke input order: first = %d", rs[0].ID)
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid", Rule{Assignment: "Expense.Food", MinAmount: dec("-100"), MaxAmount: dec("0")}, false},
		{"missing assignment", Rule{}, true},
		{"bad category path", Rule{Assignment: "Expense..Food"}, true},
		{"inverted bounds", Rule{Assignment: "X", MinAmount: dec("0"), MaxAmount: dec("-100")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
