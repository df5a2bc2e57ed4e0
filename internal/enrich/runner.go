package enrich

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discflight/discimg/internal/metrics"
	"github.com/discflight/discimg/internal/storage/local"
)

// Config controls a run.
type Config struct {
	Concurrency int
}

// Runner wires the schema guard, selector, dispatcher and sink into one
// batch run.
type Runner struct {
	catalog    Catalog
	backup     BackupStore
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewRunner builds a Runner over the given collaborators.
func NewRunner(
	cat Catalog,
	backup BackupStore,
	extractor PageExtractor,
	fetcher ImageFetcher,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		catalog:    cat,
		backup:     backup,
		dispatcher: NewDispatcher(extractor, fetcher, cfg.Concurrency, logger),
		logger:     logger,
	}
}

// Run executes one enrichment batch: schema guard, candidate snapshot,
// bounded fan-out, serialized persistence. It blocks until every task has
// been accounted for, so the summary is exact. Schema and selector errors
// are fatal; per-task failures are not.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.catalog.EnsureSchema(ctx); err != nil {
		return Summary{}, fmt.Errorf("ensure schema: %w", err)
	}

	discs, err := r.catalog.PendingDiscs(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("select pending discs: %w", err)
	}
	metrics.RecordsSelected.Add(float64(len(discs)))

	runID := uuid.NewString()
	r.logger.Info("starting enrichment run",
		zap.String("run_id", runID),
		zap.Int("eligible", len(discs)),
	)

	summary := Summary{Eligible: len(discs)}
	if len(discs) == 0 {
		return summary, nil
	}

	tasks := make([]Task, 0, len(discs))
	for _, d := range discs {
		tasks = append(tasks, Task{
			DiscID:       d.ID,
			Manufacturer: d.Manufacturer,
			Model:        d.Model,
			PageURL:      d.Weblink,
			Filename:     local.BackupFilename(d.Manufacturer, d.Model),
		})
	}

	sink := NewSink(r.catalog, r.backup, runID, r.logger)
	for outcome := range r.dispatcher.Run(ctx, tasks) {
		if sink.Apply(ctx, outcome) {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	r.logger.Info("enrichment run finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
