package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		Date:        NewDate(2024, 3, 15),
		Description: "GROCERY STORE PURCHASE",
		Source:      "checking",
		Amount:      decimal.RequireFromString("-54.20"),
		Category:    "Expense.Groceries",
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, nil},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"empty source", func(tx *Transaction) { tx.Source = "" }, ErrEmptySource},
		{"bad category", func(tx *Transaction) { tx.Category = "Expense..Food" }, ErrInvalidCategory},
		{"uncategorized is fine", func(tx *Transaction) { tx.Category = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			switch {
			case tt.name == "zero date":
				if err == nil {
					t.Fatal("expected error for zero date")
				}
			case tt.wantErr == nil:
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate = %v, want %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestTransactionValidateLongDescription(t *testing.T) {
	tx := validTransaction()
	tx.Description = strings.Repeat("x", 501)
	if err := tx.Validate(); err == nil {
		t.Fatal("expected error for oversized description")
	}
}

func TestTransactionCategorized(t *testing.T) {
	tx := validTransaction()
	if !tx.Categorized() {
		t.Error("expected categorized")
	}
	tx.Category = Unspecified
	if tx.Categorized() {
		t.Error("Unspecified must not count as categorized")
	}
	tx.Category = ""
	if tx.Categorized() {
		t.Error("empty category must not count as categorized")
	}
}

func TestDateQuarter(t *testing.T) {
	tests := []struct {
		month, want int
	}{
		{1, 1}, {3, 1}, {4, 2}, {6, 2}, {7, 3}, {9, 3}, {10, 4}, {12, 4},
	}
	for _, tt := range tests {
		if got := NewDate(2024, tt.month, 1).Quarter(); got != tt.want {
			t.Errorf("month %d Quarter() = %d, want %d", tt.month, got, tt.want)
		}
	}
}
