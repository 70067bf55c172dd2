package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Quarter returns the calendar quarter, 1-4.
func (d Date) Quarter() int {
	return (d.Month()-1)/3 + 1
}

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptySource      = errors.New("empty source")
)

// Transaction is one categorized bank or card movement. Amount keeps the
// statement's sign convention: expenses negative, income positive. Category
// is empty until assignment; storage and charting treat an empty category as
// Unspecified.
type Transaction struct {
	ID          int64
	Date        Date
	Description string
	Source      string // originating account or card identifier
	Amount      decimal.Decimal
	Category    Category
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if strings.TrimSpace(t.Source) == "" {
		return ErrEmptySource
	}
	if t.Category != "" {
		if err := t.Category.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Categorized reports whether a rule (or a manual edit) assigned a category.
func (t Transaction) Categorized() bool {
	return t.Category != "" && t.Category != Unspecified
}
