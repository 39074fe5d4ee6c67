package etl

import (
	"time"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/config"
	"github.com/ricferal/mvpPucEngenhariaDados/pkg/logger"
)

// Pipeline owns one Extractor, Transformer and Loader and sequences the
// extract, transform and load stages. Stages run strictly one after the
// other; the first failure aborts the run with no cleanup.
type Pipeline struct {
	Extractor   *Extractor
	Transformer *Transformer
	Loader      *Loader
}

// NewPipeline builds a pipeline from a loaded configuration. A nil config
// means all components run with defaults.
func NewPipeline(cfg *config.PipelineConfig) *Pipeline {
	if cfg == nil {
		cfg = &config.PipelineConfig{}
	}
	return &Pipeline{
		Extractor:   NewExtractor(cfg.Extract),
		Transformer: NewTransformer(cfg.Transform),
		Loader:      NewLoader(cfg.Load),
	}
}

// TransformConfig holds the optional transform stage settings for a run.
type TransformConfig struct {
	MissingValues *MissingValuesConfig
}

// MissingValuesConfig selects a missing-value strategy and, for the fill
// strategy, the replacement value.
type MissingValuesConfig struct {
	Strategy  string
	FillValue any
}

// TransformConfigFromMap reads the `transform` config section. Returns nil
// when the section is absent.
func TransformConfigFromMap(m map[string]any) *TransformConfig {
	if m == nil {
		return nil
	}
	tc := &TransformConfig{}
	mv, ok := m["missing_values"].(map[string]any)
	if !ok {
		return tc
	}
	tc.MissingValues = &MissingValuesConfig{Strategy: string(StrategyDrop)}
	if s, ok := mv["strategy"].(string); ok {
		tc.MissingValues.Strategy = s
	}
	tc.MissingValues.FillValue = mv["fill_value"]
	return tc
}

// RunResult reports what a pipeline run did.
type RunResult struct {
	RowsExtracted int
	RowsLoaded    int
	OutputPath    string
	Duration      time.Duration
}

// Run executes the full pipeline: extract sourcePath as CSV, remove
// duplicate rows, optionally apply a missing-value strategy, and write the
// result to outputPath as CSV. Fail-fast: each stage error is logged and
// returned immediately.
func (p *Pipeline) Run(sourcePath, outputPath string, tc *TransformConfig) (*RunResult, error) {
	start := time.Now()
	logger.Info("Starting ETL pipeline")

	logger.Info("Step 1: Extracting data")
	ds, err := p.Extractor.FromCSV(sourcePath)
	if err != nil {
		logger.Errorf("Pipeline failed: %v", err)
		return nil, err
	}
	extracted := ds.NumRows()
	logger.Infof("Extracted %d rows, %d columns", extracted, ds.NumColumns())

	logger.Info("Step 2: Transforming data")
	ds, err = p.Transformer.RemoveDuplicates(ds, nil)
	if err != nil {
		logger.Errorf("Pipeline failed: %v", err)
		return nil, err
	}
	if tc != nil && tc.MissingValues != nil {
		strategy, err := ParseMissingStrategy(tc.MissingValues.Strategy)
		if err != nil {
			logger.Errorf("Pipeline failed: %v", err)
			return nil, err
		}
		ds, err = p.Transformer.HandleMissingValues(ds, strategy, tc.MissingValues.FillValue)
		if err != nil {
			logger.Errorf("Pipeline failed: %v", err)
			return nil, err
		}
	}
	logger.Infof("Transformation complete: %d rows remaining", ds.NumRows())

	logger.Info("Step 3: Loading data")
	if _, err := p.Loader.ToCSV(ds, outputPath, ModeWrite); err != nil {
		logger.Errorf("Pipeline failed: %v", err)
		return nil, err
	}

	result := &RunResult{
		RowsExtracted: extracted,
		RowsLoaded:    ds.NumRows(),
		OutputPath:    outputPath,
		Duration:      time.Since(start),
	}
	logger.Infof("ETL pipeline completed successfully in %.2f seconds", result.Duration.Seconds())
	logger.Infof("Output saved to: %s", outputPath)
	return result, nil
}
