package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/log"
)

// Loader walks the statement store and normalizes everything it finds.
// Files that fail to normalize are skipped with a warning; one broken export
// must not sink a whole ingestion run.
type Loader struct {
	store  StatementStore
	logger *log.Logger
}

func NewLoader(store StatementStore, logger *log.Logger) *Loader {
	return &Loader{store: store, logger: logger.WithComponent("ingest")}
}

// LoadYear downloads and normalizes every CSV in one year folder.
func (l *Loader) LoadYear(ctx context.Context, year string) ([]Record, error) {
	files, err := l.store.Files(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list statements for %s: %w", year, err)
	}

	var out []Record
	for _, f := range files {
		source, ok := SourceFromFilename(f.Name)
		if !ok {
			continue
		}
		body, err := l.store.Download(ctx, f.ID)
		if err != nil {
			l.logger.WarnContext(ctx, "skipping statement", "file", f.Name, "error", err)
			continue
		}
		records, err := NormalizeCSV(body, source)
		body.Close()
		if err != nil {
			l.logger.WarnContext(ctx, "skipping statement", "file", f.Name, "error", err)
			continue
		}
		l.logger.DebugContext(ctx, "normalized statement", "file", f.Name, "records", len(records))
		out = append(out, records...)
	}
	return out, nil
}

// LoadAll runs LoadYear over every year folder, newest first.
func (l *Loader) LoadAll(ctx context.Context) ([]Record, error) {
	years, err := l.store.Years(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statement years: %w", err)
	}
	l.logger.InfoContext(ctx, "discovered statement folders", "years", years)

	var out []Record
	for _, year := range years {
		records, err := l.LoadYear(ctx, year)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			l.logger.InfoContext(ctx, "no data for year", "year", year)
			continue
		}
		out = append(out, records...)
	}
	return out, nil
}

// Key derives the stable dedup identifier for a record. Re-ingesting the
// same statements must produce the same keys so inserts are idempotent.
func Key(r Record) string {
	canonical := strings.Join([]string{
		strings.ToLower(r.Source),
		r.Date.Format("2006-01-02"),
		NormalizeDescription(r.Description),
		r.Amount.String(),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}

// Transaction converts a normalized record into the domain type. Category
// assignment happens later, against the rule set.
func (r Record) Transaction() core.Transaction {
	return core.Transaction{
		Date:        r.Date,
		Description: r.Description,
		Source:      r.Source,
		Amount:      r.Amount,
	}
}
