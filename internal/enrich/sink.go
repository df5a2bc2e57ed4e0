package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/discflight/discimg/internal/catalog"
	"github.com/discflight/discimg/internal/metrics"
)

// Sink applies outcomes to the catalog, the backup store and the attempt
// ledger. It is driven from a single goroutine, so catalog writes are
// serialized; each write is its own short transaction.
type Sink struct {
	catalog Catalog
	backup  BackupStore
	runID   string
	logger  *zap.Logger
}

// NewSink builds a Sink stamping runID on every ledger row.
func NewSink(cat Catalog, backup BackupStore, runID string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{catalog: cat, backup: backup, runID: runID, logger: logger}
}

// Apply persists one outcome and reports whether it counts as a success.
// Non-success outcomes leave the catalog row untouched, so the disc stays
// eligible for a future run.
func (s *Sink) Apply(ctx context.Context, o Outcome) bool {
	kind := o.Kind
	detail := ""
	if o.Err != nil {
		detail = o.Err.Error()
	}

	if kind == Success {
		kind, detail = s.persist(ctx, o)
	} else {
		s.logger.Warn("disc skipped",
			zap.Int64("disc_id", o.Task.DiscID),
			zap.String("url", o.Task.PageURL),
			zap.String("stage", kind.Stage()),
			zap.Error(o.Err),
		)
	}

	if kind == Success {
		metrics.Successes.Inc()
	} else {
		metrics.Failures.WithLabelValues(kind.Stage()).Inc()
	}

	attempt := catalog.Attempt{
		RunID:   s.runID,
		DiscID:  o.Task.DiscID,
		Stage:   kind.Stage(),
		Outcome: kind.String(),
		Detail:  detail,
		At:      time.Now(),
	}
	if err := s.catalog.RecordAttempt(ctx, attempt); err != nil {
		s.logger.Error("attempt ledger write failed",
			zap.Int64("disc_id", o.Task.DiscID),
			zap.Error(err),
		)
	}

	return kind == Success
}

// persist performs the two success writes. The catalog update lands first
// because a populated image column is the authoritative completion marker;
// a backup failure after that point is surfaced as a persist failure in
// the counts and ledger while the row stays populated.
func (s *Sink) persist(ctx context.Context, o Outcome) (Kind, string) {
	if err := s.catalog.SetImage(ctx, o.Task.DiscID, o.PNG); err != nil {
		s.logger.Error("catalog write failed",
			zap.Int64("disc_id", o.Task.DiscID),
			zap.Error(err),
		)
		return PersistFailed, err.Error()
	}

	if _, err := s.backup.Put(o.Task.Filename, o.PNG); err != nil {
		s.logger.Error("backup write failed",
			zap.Int64("disc_id", o.Task.DiscID),
			zap.String("file", o.Task.Filename),
			zap.Error(err),
		)
		return PersistFailed, err.Error()
	}

	metrics.BackupBytes.Add(float64(len(o.PNG)))
	s.logger.Info("disc enriched",
		zap.Int64("disc_id", o.Task.DiscID),
		zap.String("file", o.Task.Filename),
		zap.Int("bytes", len(o.PNG)),
	)
	return Success, ""
}
