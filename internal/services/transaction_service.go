package services

import (
	"context"
	"fmt"

	"github.com/CohortInsights/financials/internal/amqp"
	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/rules"
	"github.com/CohortInsights/financials/internal/storage"
)

// TransactionStore is the persistence surface the transaction service needs.
// *storage.Repository satisfies it.
type TransactionStore interface {
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]storage.StoredTransaction, error)
	GetTransaction(ctx context.Context, id int64) (storage.StoredTransaction, error)
	SetCategory(ctx context.Context, id int64, category core.Category, manual bool) error
	ListRules(ctx context.Context) ([]rules.Rule, error)
	SaveRule(ctx context.Context, rule rules.Rule) (int64, error)
	DeleteRule(ctx context.Context, id int64) error
}

// Publisher enqueues background jobs for the worker. *amqp.Client satisfies it.
type Publisher interface {
	PublishRebuild(ctx context.Context, job amqp.Job, reason string) error
}

// Invalidator drops cached chart results after a data change. *ChartService
// satisfies it.
type Invalidator interface {
	InvalidateCache()
}

// TransactionService orchestrates transaction browsing, manual category
// assignment and the rule set behind automatic assignment. Every mutation
// invalidates the chart cache; rule mutations additionally schedule a
// reassignment job so existing transactions catch up.
type TransactionService struct {
	store     TransactionStore
	publisher Publisher
	charts    Invalidator
	logger    *log.Logger
}

func NewTransactionService(store TransactionStore, publisher Publisher, charts Invalidator, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		charts:    charts,
		logger:    logger.WithComponent("transactions"),
	}
}

func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) ([]storage.StoredTransaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (storage.StoredTransaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// AssignCategory records a manual category assignment. Manual assignments
// are sticky: no rule rebuild ever overwrites them.
func (s *TransactionService) AssignCategory(ctx context.Context, id int64, category core.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.store.SetCategory(ctx, id, category, true); err != nil {
		return fmt.Errorf("assign category: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *TransactionService) ListRules(ctx context.Context) ([]rules.Rule, error) {
	return s.store.ListRules(ctx)
}

// SaveRule persists a rule and schedules a reassignment so non-manual
// transactions pick up the change. A failed publish is logged, not returned:
// the rule is saved either way and the next rebuild applies it.
func (s *TransactionService) SaveRule(ctx context.Context, rule rules.Rule) (int64, error) {
	id, err := s.store.SaveRule(ctx, rule)
	if err != nil {
		return 0, fmt.Errorf("save rule: %w", err)
	}
	s.invalidate()
	s.requestReassign(ctx, fmt.Sprintf("rule %d saved", id))
	return id, nil
}

func (s *TransactionService) DeleteRule(ctx context.Context, id int64) error {
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	s.invalidate()
	s.requestReassign(ctx, fmt.Sprintf("rule %d deleted", id))
	return nil
}

// RequestRebuild asks the worker to pull fresh statements and re-run
// assignment. Fails only when the publish itself fails.
func (s *TransactionService) RequestRebuild(ctx context.Context, reason string) error {
	if s.publisher == nil {
		return fmt.Errorf("no job queue configured")
	}
	if err := s.publisher.PublishRebuild(ctx, amqp.JobIngest, reason); err != nil {
		return fmt.Errorf("publish rebuild: %w", err)
	}
	return nil
}

func (s *TransactionService) requestReassign(ctx context.Context, reason string) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "no job queue configured, skipping reassign job", "reason", reason)
		return
	}
	if err := s.publisher.PublishRebuild(ctx, amqp.JobReassign, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish reassign job", "reason", reason, "error", err)
	}
}

func (s *TransactionService) invalidate() {
	if s.charts != nil {
		s.charts.InvalidateCache()
	}
}
