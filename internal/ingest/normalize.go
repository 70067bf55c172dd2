// Package ingest turns raw bank statement CSV exports into the common
// transaction schema. Each supported source has its own column layout; the
// normalizers map them all onto (date, source, description, amount, type).
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CohortInsights/financials/internal/core"
)

var ErrUnknownSource = errors.New("no normalizer implemented for source")

// Record is one normalized statement line. Type carries whatever the source
// reports (Credit/Debit or a card category); it is informational only and
// plays no part in category assignment.
type Record struct {
	Date        core.Date
	Source      string
	Description string
	Amount      decimal.Decimal
	Type        string
}

// SourceFromFilename extracts the statement source from a file name like
// "bmo-2024.csv": the prefix before the first dash. Non-CSV files report ok
// false and are skipped by the loader.
func SourceFromFilename(name string) (string, bool) {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return "", false
	}
	base := strings.TrimSuffix(name, ".csv")
	if i := strings.Index(base, "-"); i > 0 {
		base = base[:i]
	}
	return base, true
}

// NormalizeCSV parses one statement export and normalizes it according to
// the source's layout. Rows whose date or amount cannot be parsed are
// dropped, mirroring lenient statement exports that include footer lines.
func NormalizeCSV(r io.Reader, source string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // statement exports have ragged rows
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv for %s: %w", source, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	switch strings.ToLower(source) {
	case "bmo":
		return normalizeBMO(rows, source), nil
	case "citi":
		return normalizeCiti(rows, source), nil
	case "discover", "capitalone":
		return normalizeGenericCard(rows, source), nil
	case "paypal":
		return normalizePayPal(rows, source), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
}

func normalizeBMO(rows [][]string, source string) []Record {
	header := rows[0]
	dateCol := columnIndex(header, "POSTED DATE", 0)
	descCol := columnIndex(header, "DESCRIPTION", 1)
	amountCol := columnIndex(header, "AMOUNT", 2)
	typeCol := columnIndex(header, "TYPE", -1)

	var out []Record
	for _, row := range rows[1:] {
		date, ok := parseDate(field(row, dateCol))
		if !ok {
			continue
		}
		amount, ok := parseAmount(field(row, amountCol))
		if !ok {
			continue
		}
		out = append(out, Record{
			Date:        date,
			Source:      source,
			Description: field(row, descCol),
			Amount:      amount,
			Type:        field(row, typeCol),
		})
	}
	return out
}

// normalizeCiti maps the split Debit/Credit columns onto one signed amount:
// credit minus debit, so charges come out negative.
func normalizeCiti(rows [][]string, source string) []Record {
	header := rows[0]
	dateCol := columnIndex(header, "Date", 0)
	descCol := columnIndex(header, "Description", 1)
	debitCol := columnIndex(header, "Debit", -1)
	creditCol := columnIndex(header, "Credit", -1)

	var out []Record
	for _, row := range rows[1:] {
		date, ok := parseDate(field(row, dateCol))
		if !ok {
			continue
		}
		debit, hasDebit := parseAmount(field(row, debitCol))
		credit, hasCredit := parseAmount(field(row, creditCol))
		if !hasDebit {
			debit = decimal.Zero
		}
		if !hasCredit {
			credit = decimal.Zero
		}
		kind := ""
		switch {
		case credit.Sign() > 0:
			kind = "Credit"
		case debit.Sign() > 0:
			kind = "Debit"
		}
		out = append(out, Record{
			Date:        date,
			Source:      source,
			Description: field(row, descCol),
			Amount:      credit.Sub(debit),
			Type:        kind,
		})
	}
	return out
}

func normalizeGenericCard(rows [][]string, source string) []Record {
	header := rows[0]
	dateCol := columnIndex(header, "Post Date", 0)
	descCol := columnIndex(header, "Description", 1)
	amountCol := columnIndex(header, "Amount", 2)
	typeCol := columnIndex(header, "Category", -1)

	var out []Record
	for _, row := range rows[1:] {
		date, ok := parseDate(field(row, dateCol))
		if !ok {
			continue
		}
		amount, ok := parseAmount(field(row, amountCol))
		if !ok {
			continue
		}
		out = append(out, Record{
			Date:        date,
			Source:      source,
			Description: field(row, descCol),
			Amount:      amount,
			Type:        field(row, typeCol),
		})
	}
	return out
}

// normalizePayPal handles both exports with a header row and raw headerless
// dumps (date, ..., name, ..., status, ..., gross at fixed positions). Only
// Completed rows survive; pending and reversed activity is noise.
func normalizePayPal(rows [][]string, source string) []Record {
	dateCol, descCol, statusCol, amountCol := 0, 3, 5, 7
	body := rows
	if header := rows[0]; !isDataRow(header) {
		dateCol = columnIndex(header, "Date", 0)
		if i := columnIndex(header, "Name", -1); i >= 0 {
			descCol = i
		} else {
			descCol = columnIndex(header, "Description", 3)
		}
		statusCol = columnIndex(header, "Status", 5)
		if i := columnIndex(header, "Gross", -1); i >= 0 {
			amountCol = i
		} else {
			amountCol = columnIndex(header, "Amount", 7)
		}
		body = rows[1:]
	}

	var out []Record
	for _, row := range body {
		if !strings.EqualFold(strings.TrimSpace(field(row, statusCol)), "completed") {
			continue
		}
		date, ok := parseDate(field(row, dateCol))
		if !ok {
			continue
		}
		amount, ok := parseAmount(field(row, amountCol))
		if !ok {
			continue
		}
		kind := "Debit"
		if amount.Sign() > 0 {
			kind = "Credit"
		}
		out = append(out, Record{
			Date:        date,
			Source:      source,
			Description: field(row, descCol),
			Amount:      amount,
			Type:        kind,
		})
	}
	return out
}

// NormalizeDescription collapses whitespace and lowercases, the canonical
// form used for dedup keys and rule matching.
func NormalizeDescription(desc string) string {
	return strings.ToLower(strings.Join(strings.Fields(desc), " "))
}

func columnIndex(header []string, name string, fallback int) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	if fallback >= len(header) {
		return -1
	}
	return fallback
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// isDataRow reports whether a first CSV row is data rather than a header:
// headerless PayPal dumps start directly with a date.
func isDataRow(row []string) bool {
	_, ok := parseDate(field(row, 0))
	return ok
}

var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02"}

func parseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, true
		}
	}
	return core.Date{}, false
}

// parseAmount reads statement amount notation: currency symbols, thousands
// separators and parenthesized negatives.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
