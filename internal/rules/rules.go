// Package rules implements automatic category assignment: declarative
// matching rules evaluated against transactions in priority order.
package rules

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/CohortInsights/financials/internal/core"
)

var (
	ErrEmptyAssignment = errors.New("rule has no assignment category")
	ErrAmountBounds    = errors.New("rule min_amount exceeds max_amount")
)

// Rule assigns a category to every transaction it matches. All three
// criteria are conjunctive; an empty criterion matches everything.
type Rule struct {
	ID         int64
	Priority   int // higher wins
	Assignment core.Category

	// Source is a comma-separated list of allowed source identifiers,
	// matched case-insensitively. Empty allows any source.
	Source string

	// Description matches against the transaction description,
	// case-insensitively. A comma-separated pattern requires every term
	// (AND); otherwise a pipe-separated pattern requires any term (OR);
	// otherwise the whole pattern is a single substring.
	Description string

	// MinAmount and MaxAmount bound the signed amount when set, so a rule
	// can target only expenses (max -100) or only income (min 0).
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

func (r Rule) Validate() error {
	if r.Assignment == "" {
		return ErrEmptyAssignment
	}
	if err := r.Assignment.Validate(); err != nil {
		return err
	}
	if r.MinAmount != nil && r.MaxAmount != nil && r.MinAmount.Cmp(*r.MaxAmount) > 0 {
		return ErrAmountBounds
	}
	return nil
}

// Matches reports whether the rule applies to the transaction.
func (r Rule) Matches(tx core.Transaction) bool {
	if r.Source != "" {
		src := strings.ToLower(tx.Source)
		allowed := false
		for _, s := range strings.Split(r.Source, ",") {
			if s = strings.TrimSpace(strings.ToLower(s)); s != "" && s == src {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if r.Description != "" {
		desc := strings.ToLower(tx.Description)
		pattern := strings.ToLower(r.Description)
		switch {
		case strings.Contains(pattern, ","): // every term must appear
			for _, term := range strings.Split(pattern, ",") {
				if !strings.Contains(desc, strings.TrimSpace(term)) {
					return false
				}
			}
		case strings.Contains(pattern, "|"): // any term suffices
			any := false
			for _, term := range strings.Split(pattern, "|") {
				if strings.Contains(desc, strings.TrimSpace(term)) {
					any = true
					break
				}
			}
			if !any {
				return false
			}
		default:
			if !strings.Contains(desc, strings.TrimSpace(pattern)) {
				return false
			}
		}
	}

	if r.MinAmount != nil && tx.Amount.Cmp(*r.MinAmount) < 0 {
		return false
	}
	if r.MaxAmount != nil && tx.Amount.Cmp(*r.MaxAmount) > 0 {
		return false
	}
	return true
}

// SortByPriority orders rules highest priority first, the evaluation order
// FindBest expects. Ties keep their relative order.
func SortByPriority(rs []Rule) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Priority > rs[j].Priority })
}

// FindBest returns the highest-priority rule matching the transaction.
// Rules must already be sorted by SortByPriority.
func FindBest(tx core.Transaction, rs []Rule) (Rule, bool) {
	for _, r := range rs {
		if r.Matches(tx) {
			return r, true
		}
	}
	return Rule{}, false
}

// Assign resolves the category for a transaction: the best matching rule's
// assignment, or Unspecified when nothing matches.
func Assign(tx core.Transaction, rs []Rule) core.Category {
	if r, ok := FindBest(tx, rs); ok {
		return r.Assignment
	}
	return core.Unspecified
}
