// Package core holds the domain model shared by ingestion, storage and the
// chart pipeline: categorized transactions and their hierarchical categories.
package core

import (
	"errors"
	"strings"
)

// Unspecified is the category assigned to transactions no rule matched.
const Unspecified Category = "Unspecified"

// Category is a dot-delimited hierarchy path such as "Expense.Food.Restaurant".
// Depth 1 is the root level; each component narrows the classification.
type Category string

var ErrInvalidCategory = errors.New("invalid category path")

// Depth returns the number of path components. The empty category has depth 0.
func (c Category) Depth() int {
	if c == "" {
		return 0
	}
	return strings.Count(string(c), ".") + 1
}

// Components splits the path. The empty category yields nil.
func (c Category) Components() []string {
	if c == "" {
		return nil
	}
	return strings.Split(string(c), ".")
}

// Truncate returns the path cut to the given depth. Paths shallower than
// depth are returned unchanged.
func (c Category) Truncate(depth int) Category {
	parts := c.Components()
	if len(parts) <= depth {
		return c
	}
	return Category(strings.Join(parts[:depth], "."))
}

// Leaf returns the last path component.
func (c Category) Leaf() string {
	parts := c.Components()
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Contains reports whether the path contains the given substring, the
// matching rule category filters use.
func (c Category) Contains(substr string) bool {
	return strings.Contains(string(c), substr)
}

func (c Category) Validate() error {
	if c == "" {
		return ErrInvalidCategory
	}
	for _, part := range c.Components() {
		if strings.TrimSpace(part) == "" {
			return ErrInvalidCategory
		}
	}
	return nil
}
