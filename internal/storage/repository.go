// Package storage persists transactions and assignment rules in SQLite and
// serves the aggregated, filtered rows the chart pipeline consumes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/CohortInsights/financials/internal/chart"
	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/ingest"
	"github.com/CohortInsights/financials/internal/rules"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable, for readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// StoredTransaction is a transaction plus its persistence bookkeeping: the
// dedup key and whether its category was assigned manually.
type StoredTransaction struct {
	core.Transaction
	Key    string
	Manual bool
}

// InsertTransactions inserts normalized records, skipping duplicates via the
// dedup key. Returns how many rows were actually inserted; re-ingesting the
// same statements inserts nothing.
func (r *Repository) InsertTransactions(ctx context.Context, records []ingest.Record) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions
			(key, date, year, month, description, normalized_description, source, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			ingest.Key(rec),
			rec.Date.Format("2006-01-02"),
			rec.Date.Year(),
			rec.Date.Month(),
			rec.Description,
			ingest.NormalizeDescription(rec.Description),
			rec.Source,
			rec.Amount.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	Year          int
	Source        string
	Category      string // substring match on the category path
	Uncategorized bool
	Limit         int
	Offset        int
}

func (r *Repository) ListTransactions(ctx context.Context, f TransactionFilter) ([]StoredTransaction, error) {
	query := `SELECT id, key, date, description, source, amount, category, manual
		FROM transactions WHERE 1=1`
	var args []any
	if f.Year != 0 {
		query += " AND year = ?"
		args = append(args, f.Year)
	}
	if f.Source != "" {
		query += " AND LOWER(source) = LOWER(?)"
		args = append(args, f.Source)
	}
	if f.Category != "" {
		query += ` AND category LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.Category)+"%")
	}
	if f.Uncategorized {
		query += " AND category = ?"
		args = append(args, string(core.Unspecified))
	}
	query += " ORDER BY date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		st, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (StoredTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, key, date, description, source, amount, category, manual
		FROM transactions WHERE id = ?`, id)
	st, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredTransaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return st, err
}

// SetCategory assigns a category to one transaction. Manual assignments are
// sticky: rule rebuilds never overwrite them.
func (r *Repository) SetCategory(ctx context.Context, id int64, category core.Category, manual bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category = ?, manual = ? WHERE id = ?`,
		string(category), boolToInt(manual), id)
	if err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

// DistinctYears lists the years with data, newest first.
func (r *Repository) DistinctYears(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT year FROM transactions ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("distinct years: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// ListRules loads every assignment rule, highest priority first.
func (r *Repository) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, priority, assignment, source, description, min_amount, max_amount
		FROM assignment_rules ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var (
			rule     rules.Rule
			category string
			minStr   sql.NullString
			maxStr   sql.NullString
		)
		if err := rows.Scan(&rule.ID, &rule.Priority, &category, &rule.Source, &rule.Description, &minStr, &maxStr); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Assignment = core.Category(category)
		if rule.MinAmount, err = nullDecimal(minStr); err != nil {
			return nil, fmt.Errorf("rule %d min_amount: %w", rule.ID, err)
		}
		if rule.MaxAmount, err = nullDecimal(maxStr); err != nil {
			return nil, fmt.Errorf("rule %d max_amount: %w", rule.ID, err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// SaveRule inserts a new rule (ID zero) or updates an existing one.
func (r *Repository) SaveRule(ctx context.Context, rule rules.Rule) (int64, error) {
	if err := rule.Validate(); err != nil {
		return 0, err
	}
	minStr, maxStr := decimalNull(rule.MinAmount), decimalNull(rule.MaxAmount)

	if rule.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO assignment_rules
			(priority, assignment, source, description, min_amount, max_amount)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rule.Priority, string(rule.Assignment), rule.Source, rule.Description, minStr, maxStr)
		if err != nil {
			return 0, fmt.Errorf("insert rule: %w", err)
		}
		return res.LastInsertId()
	}

	res, err := r.db.ExecContext(ctx, `UPDATE assignment_rules
		SET priority = ?, assignment = ?, source = ?, description = ?, min_amount = ?, max_amount = ?
		WHERE id = ?`,
		rule.Priority, string(rule.Assignment), rule.Source, rule.Description, minStr, maxStr, rule.ID)
	if err != nil {
		return 0, fmt.Errorf("update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("rule %d: %w", rule.ID, ErrNotFound)
	}
	return rule.ID, nil
}

func (r *Repository) DeleteRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignment_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	return nil
}

// ReassignAll reapplies the rule set to every non-manual transaction.
// Transactions nothing matches fall back to Unspecified. Returns how many
// rows changed category.
func (r *Repository) ReassignAll(ctx context.Context, ruleSet []rules.Rule) (int64, error) {
	rules.SortByPriority(ruleSet)

	rows, err := r.db.QueryContext(ctx, `SELECT id, key, date, description, source, amount, category, manual
		FROM transactions WHERE manual = 0`)
	if err != nil {
		return 0, fmt.Errorf("load transactions for reassignment: %w", err)
	}
	type change struct {
		id       int64
		category core.Category
	}
	var changes []change
	for rows.Next() {
		st, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		next := rules.Assign(st.Transaction, ruleSet)
		if next != st.Category {
			changes = append(changes, change{id: st.ID, category: next})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(changes) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reassignment: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `UPDATE transactions SET category = ? WHERE id = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare reassignment: %w", err)
	}
	defer stmt.Close()
	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, string(c.category), c.id); err != nil {
			return 0, fmt.Errorf("update transaction %d: %w", c.id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reassignment: %w", err)
	}
	return int64(len(changes)), nil
}

// RowQuery selects and shapes the aggregated rows for one chart request.
type RowQuery struct {
	Filter      string // substring match on the category path
	Level       int    // hierarchy depth of the primary rows, >= 1
	Expand      bool   // also emit level+1 rows, for stacked charts
	Years       []int
	Granularity chart.Granularity
}

// FilteredRows aggregates transactions into the chart input table: one row
// per (period, category, level), chronological, with deeper-level rollups
// when Expand is set. A transaction contributes to a level only when its
// category path is at least that deep, so child rows never exceed their
// parent row.
func (r *Repository) FilteredRows(ctx context.Context, q RowQuery) ([]chart.FilteredRow, error) {
	if q.Level < 1 {
		q.Level = 1
	}

	query := `SELECT year, month, category, amount FROM transactions WHERE category != ''`
	var args []any
	if len(q.Years) > 0 {
		query += " AND year IN (?" + strings.Repeat(", ?", len(q.Years)-1) + ")"
		for _, y := range q.Years {
			args = append(args, y)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	defer rows.Close()

	levels := []int{q.Level}
	if q.Expand {
		levels = append(levels, q.Level+1)
	}

	type aggKey struct {
		year, sortPeriod, level int
		category                string
	}
	type agg struct {
		amount decimal.Decimal
		count  int
	}
	sums := make(map[aggKey]*agg)

	for rows.Next() {
		var (
			year, month int
			category    string
			amountStr   string
		)
		if err := rows.Scan(&year, &month, &category, &amountStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if q.Filter != "" && !strings.Contains(category, q.Filter) {
			continue
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
		}

		cat := core.Category(category)
		sortPeriod := periodOf(q.Granularity, month)
		for _, lvl := range levels {
			if cat.Depth() < lvl {
				continue
			}
			key := aggKey{year: year, sortPeriod: sortPeriod, level: lvl, category: string(cat.Truncate(lvl))}
			a := sums[key]
			if a == nil {
				a = &agg{}
				sums[key] = a
			}
			a.amount = a.amount.Add(amount)
			a.count++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scope := chart.Scope{Granularity: q.Granularity}
	out := make([]chart.FilteredRow, 0, len(sums))
	for key, a := range sums {
		out = append(out, chart.FilteredRow{
			Period:     scope.PeriodLabel(key.year, key.sortPeriod),
			SortYear:   key.year,
			SortPeriod: key.sortPeriod,
			Category:   key.category,
			Level:      key.level,
			Amount:     a.amount,
			Count:      a.count,
		})
	}

	// Chronological, shallow before deep, biggest magnitudes first within a
	// level so downstream first-seen ordering is deterministic and readable.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SortYear != b.SortYear {
			return a.SortYear < b.SortYear
		}
		if a.SortPeriod != b.SortPeriod {
			return a.SortPeriod < b.SortPeriod
		}
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if c := a.Amount.Abs().Cmp(b.Amount.Abs()); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return out, nil
}

func periodOf(g chart.Granularity, month int) int {
	switch g {
	case chart.GranularityQuarterly:
		return (month-1)/3 + 1
	case chart.GranularityMonthly:
		return month
	default:
		return 1
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (StoredTransaction, error) {
	var (
		st        StoredTransaction
		dateStr   string
		amountStr string
		category  string
		manual    int
	)
	if err := row.Scan(&st.ID, &st.Key, &dateStr, &st.Description, &st.Source, &amountStr, &category, &manual); err != nil {
		return StoredTransaction{}, err
	}
	date, ok := parseStoredDate(dateStr)
	if !ok {
		return StoredTransaction{}, fmt.Errorf("transaction %d: bad stored date %q", st.ID, dateStr)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("transaction %d: parse amount: %w", st.ID, err)
	}
	st.Date = date
	st.Amount = amount
	st.Category = core.Category(category)
	st.Manual = manual != 0
	return st, nil
}

func parseStoredDate(s string) (core.Date, bool) {
	var y, m, d int
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil {
		return core.Date{}, false
	}
	return core.NewDate(y, m, d), true
}

func nullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalNull(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike escapes LIKE wildcards in user input; the query must carry a
// matching ESCAPE '\' clause.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
