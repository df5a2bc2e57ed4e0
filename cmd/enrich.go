package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discflight/discimg/internal/catalog"
	"github.com/discflight/discimg/internal/config"
	"github.com/discflight/discimg/internal/enrich"
	"github.com/discflight/discimg/internal/extract"
	"github.com/discflight/discimg/internal/imaging"
	"github.com/discflight/discimg/internal/logging"
	"github.com/discflight/discimg/internal/metrics"
	"github.com/discflight/discimg/internal/storage/local"
)

// newEnrichCmd creates and configures the 'enrich' subcommand.
func newEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Download and store images for discs that are missing one",
		Long: `Selects every disc with a weblink and no stored image, scrapes the
product page for the image reference, downloads and converts the image
to PNG, and writes it to the catalog and the backup directory. Discs
that already carry an image are skipped, so the command is idempotent
across runs.`,
		RunE: runEnrichCommand,
	}
}

func runEnrichCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(cfg.Catalog.Path, cfg.Catalog.Table)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("close catalog failed", zap.Error(cerr))
		}
	}()

	backup, err := local.New(local.Config{BaseDir: cfg.Backup.Dir})
	if err != nil {
		return fmt.Errorf("init backup store: %w", err)
	}

	extractor := extract.New(extract.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
		Rule: extract.Rule{
			Container: cfg.Selector.Container,
			Image:     cfg.Selector.Image,
		},
	})
	fetcher := imaging.NewFetcher(imaging.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})

	if cfg.Metrics.Addr != "" {
		shutdown := serveMetrics(cfg.Metrics.Addr, logger)
		defer shutdown()
	}

	runner := enrich.NewRunner(store, backup, extractor, fetcher, enrich.Config{
		Concurrency: cfg.Enrich.Concurrency,
	}, logger)

	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("enrichment run: %w", err)
	}

	// Partial failure is still a normal completion; failed discs stay
	// eligible and are retried on the next run.
	fmt.Fprintf(cmd.OutOrStdout(), "eligible: %d, succeeded: %d, failed: %d\n",
		summary.Eligible, summary.Succeeded, summary.Failed)
	return nil
}

// serveMetrics exposes /metrics and /healthz for the duration of the run.
func serveMetrics(addr string, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics listener shutdown failed", zap.Error(err))
		}
	}
}
