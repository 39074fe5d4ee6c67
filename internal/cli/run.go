package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/config"
	"github.com/ricferal/mvpPucEngenhariaDados/internal/etl"
)

type RunOptions struct {
	Source     string
	Output     string
	ConfigFile string
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL pipeline on a CSV source",
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "Path to the source CSV file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Path for the output CSV file")
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to the pipeline YAML config")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runPipeline(opts *RunOptions) error {
	var cfg *config.PipelineConfig
	if opts.ConfigFile != "" {
		loaded, err := config.LoadPipelineConfig(opts.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	pipeline := etl.NewPipeline(cfg)

	var tc *etl.TransformConfig
	if cfg != nil {
		tc = etl.TransformConfigFromMap(cfg.Transform)
	}

	result, err := pipeline.Run(opts.Source, opts.Output, tc)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d rows (%d extracted) in %.2fs. Output: %s\n",
		result.RowsLoaded, result.RowsExtracted, result.Duration.Seconds(), result.OutputPath)
	return nil
}
