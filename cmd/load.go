package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discflight/discimg/internal/catalog"
	"github.com/discflight/discimg/internal/config"
	"github.com/discflight/discimg/internal/loader"
	"github.com/discflight/discimg/internal/logging"
)

// newLoadCmd creates and configures the 'load' subcommand.
func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <csv-file>",
		Short: "Import the PDGA approved-disc CSV sheet into the catalog",
		Long: `Creates the disc table if needed and imports one row per disc from the
given CSV sheet. Duplicate (manufacturer, model) pairs are skipped, so
repeated imports of the same sheet are harmless.`,
		Args: cobra.ExactArgs(1),
		RunE: runLoadCommand,
	}
	cmd.Flags().Bool("fresh", false, "remove an existing catalog file before importing")
	return cmd
}

func runLoadCommand(cmd *cobra.Command, args []string) error {
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

	fresh, err := cmd.Flags().GetBool("fresh")
	if err != nil {
		return fmt.Errorf("read fresh flag: %w", err)
	}
	if fresh {
		if rmErr := os.Remove(cfg.Catalog.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("remove existing catalog: %w", rmErr)
		}
		logger.Info("starting from a fresh catalog", zap.String("path", cfg.Catalog.Path))
	}

	db, err := catalog.OpenDB(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("close catalog failed", zap.Error(cerr))
		}
	}()

	ctx := cmd.Context()
	if err := loader.EnsureTable(ctx, db, cfg.Catalog.Table); err != nil {
		return fmt.Errorf("ensure disc table: %w", err)
	}

	report, err := loader.ImportCSV(ctx, db, cfg.Catalog.Table, args[0])
	if err != nil {
		return fmt.Errorf("import csv: %w", err)
	}

	logger.Info("import finished",
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
		zap.Int("rows", report.Total),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d, skipped: %d (of %d rows)\n",
		report.Inserted, report.Skipped, report.Total)
	return nil
}
