// Package cli wires the command-line interface using Cobra.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "etlpipe",
		Short: "etlpipe - a small ETL utility for tabular data",
		Long: `etlpipe reads tabular data from CSV/JSON files or an HTTP API, applies a
fixed set of cleaning operations, and writes the result to CSV, JSON,
Parquet, or a relational table.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewQueryCmd())

	return rootCmd
}
