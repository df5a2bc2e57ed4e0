// Package cmd defines and implements the CLI commands for the discimg executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discimg",
		Short: "Maintains the image column of the disc catalog.",
		Long: `discimg enriches a SQLite catalog of disc golf discs with product images.

The enrich command scrapes each disc's product page for its image,
converts it to PNG, and stores it in the catalog and a backup directory.
The load command imports the PDGA approved-disc CSV sheet into the
catalog. Both commands are safe to re-run.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default uses built-in defaults and DISCIMG_* env vars)")

	cmd.AddCommand(newEnrichCmd())
	cmd.AddCommand(newLoadCmd())
	return cmd
}

// Execute runs the root command. It is the single entry point used by main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
