package services

import (
	"context"
	"fmt"

	"github.com/CohortInsights/financials/internal/ingest"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/rules"
)

// RecordLoader produces normalized statement records. *ingest.Loader
// satisfies it.
type RecordLoader interface {
	LoadAll(ctx context.Context) ([]ingest.Record, error)
}

// IngestStore is the persistence surface an ingestion run needs.
type IngestStore interface {
	InsertTransactions(ctx context.Context, records []ingest.Record) (int64, error)
	ListRules(ctx context.Context) ([]rules.Rule, error)
	ReassignAll(ctx context.Context, ruleSet []rules.Rule) (int64, error)
}

// RebuildStats summarizes one ingestion run.
type RebuildStats struct {
	Loaded     int   `json:"loaded"`
	Inserted   int64 `json:"inserted"`
	Reassigned int64 `json:"reassigned"`
}

// IngestService runs full rebuilds: pull every statement, insert what is new,
// then re-run rule assignment over the non-manual rows. Inserts are
// idempotent, so a rebuild is always safe to repeat.
type IngestService struct {
	loader RecordLoader
	store  IngestStore
	charts Invalidator
	logger *log.Logger
}

func NewIngestService(loader RecordLoader, store IngestStore, charts Invalidator, logger *log.Logger) *IngestService {
	return &IngestService{
		loader: loader,
		store:  store,
		charts: charts,
		logger: logger.WithComponent("rebuild"),
	}
}

// Rebuild ingests every statement and reassigns categories.
func (s *IngestService) Rebuild(ctx context.Context) (RebuildStats, error) {
	var stats RebuildStats

	records, err := s.loader.LoadAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("load statements: %w", err)
	}
	stats.Loaded = len(records)

	if len(records) > 0 {
		stats.Inserted, err = s.store.InsertTransactions(ctx, records)
		if err != nil {
			return stats, fmt.Errorf("insert transactions: %w", err)
		}
	}

	stats.Reassigned, err = s.Reassign(ctx)
	if err != nil {
		return stats, err
	}

	s.logger.InfoContext(ctx, "rebuild complete",
		"loaded", stats.Loaded,
		"inserted", stats.Inserted,
		"reassigned", stats.Reassigned)
	return stats, nil
}

// Reassign reapplies the current rule set to every non-manual transaction.
func (s *IngestService) Reassign(ctx context.Context) (int64, error) {
	ruleSet, err := s.store.ListRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rules: %w", err)
	}
	changed, err := s.store.ReassignAll(ctx, ruleSet)
	if err != nil {
		return 0, fmt.Errorf("reassign transactions: %w", err)
	}
	if changed > 0 && s.charts != nil {
		s.charts.InvalidateCache()
	}
	return changed, nil
}
