// Package worker runs background rebuilds: statement ingestion and rule
// reassignment, triggered by queue messages or a periodic schedule.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/CohortInsights/financials/internal/amqp"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/services"
)

// Rebuilder runs the ingestion pipeline. *services.IngestService satisfies it.
type Rebuilder interface {
	Rebuild(ctx context.Context) (services.RebuildStats, error)
	Reassign(ctx context.Context) (int64, error)
}

// RebuildWorker consumes rebuild messages and runs a periodic full ingestion
// as a backstop for lost messages.
type RebuildWorker struct {
	ingest   Rebuilder
	interval time.Duration
	logger   *log.Logger
}

func NewRebuildWorker(ingest Rebuilder, interval time.Duration, logger *log.Logger) *RebuildWorker {
	return &RebuildWorker{
		ingest:   ingest,
		interval: interval,
		logger:   logger.WithComponent("worker"),
	}
}

// HandleMessage processes one rebuild message. A returned error requeues the
// message, so only transient failures should propagate; both job handlers
// are idempotent and safe to retry.
func (w *RebuildWorker) HandleMessage(ctx context.Context, msg *amqp.RebuildMessage) error {
	w.logger.InfoContext(ctx, "processing rebuild message",
		"job", msg.Job,
		"reason", msg.Reason,
		"queued_at", msg.Timestamp.Format(time.RFC3339))

	switch msg.Job {
	case amqp.JobIngest:
		stats, err := w.ingest.Rebuild(ctx)
		if err != nil {
			return fmt.Errorf("run ingest job: %w", err)
		}
		w.logger.InfoContext(ctx, "ingest job complete",
			"loaded", stats.Loaded,
			"inserted", stats.Inserted,
			"reassigned", stats.Reassigned)
	case amqp.JobReassign:
		changed, err := w.ingest.Reassign(ctx)
		if err != nil {
			return fmt.Errorf("run reassign job: %w", err)
		}
		w.logger.InfoContext(ctx, "reassign job complete", "changed", changed)
	default:
		// Unknown jobs are malformed input; requeueing them would loop.
		w.logger.ErrorContext(ctx, "dropping unknown job", "job", msg.Job)
	}
	return nil
}

// RunPeriodic rebuilds on the configured interval until the context ends.
// The first run happens immediately so a fresh deployment has data without
// waiting a full interval.
func (w *RebuildWorker) RunPeriodic(ctx context.Context) error {
	w.logger.InfoContext(ctx, "starting periodic ingestion", "interval", w.interval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "stopping periodic ingestion", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RebuildWorker) runOnce(ctx context.Context) {
	stats, err := w.ingest.Rebuild(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "periodic rebuild failed", "error", err)
		return
	}
	w.logger.InfoContext(ctx, "periodic rebuild complete",
		"loaded", stats.Loaded,
		"inserted", stats.Inserted,
		"reassigned", stats.Reassigned)
}
