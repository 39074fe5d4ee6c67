package etl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/etl"
)

func TestRunPipeline(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.csv")
	output := filepath.Join(dir, "out", "processed.csv")
	require.NoError(t, os.WriteFile(source, []byte("id,val\n1,5\n1,5\n2,\n"), 0644))

	p := etl.NewPipeline(nil)
	tc := &etl.TransformConfig{
		MissingValues: &etl.MissingValuesConfig{Strategy: "drop"},
	}

	result, err := p.Run(source, output, tc)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowsExtracted)
	assert.Equal(t, 1, result.RowsLoaded)
	assert.Equal(t, output, result.OutputPath)
	assert.Greater(t, result.Duration.Nanoseconds(), int64(0))

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "id,val\n1,5\n", string(raw))
}

func TestRunPipelineWithoutTransformConfig(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.csv")
	output := filepath.Join(dir, "processed.csv")
	require.NoError(t, os.WriteFile(source, []byte("id,val\n1,5\n1,5\n2,\n"), 0644))

	p := etl.NewPipeline(nil)
	result, err := p.Run(source, output, nil)
	require.NoError(t, err)
	// Dedup always runs; the null row survives without a strategy.
	assert.Equal(t, 2, result.RowsLoaded)
}

func TestRunPipelineMissingSource(t *testing.T) {
	dir := t.TempDir()
	p := etl.NewPipeline(nil)

	_, err := p.Run(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out.csv"), nil)
	require.ErrorIs(t, err, etl.ErrIO)

	// Fail-fast: no partial output.
	_, statErr := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunPipelineUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.csv")
	require.NoError(t, os.WriteFile(source, []byte("id\n1\n"), 0644))

	p := etl.NewPipeline(nil)
	tc := &etl.TransformConfig{
		MissingValues: &etl.MissingValuesConfig{Strategy: "interpolate"},
	}

	_, err := p.Run(source, filepath.Join(dir, "out.csv"), tc)
	require.ErrorIs(t, err, etl.ErrConfig)
}

func TestTransformConfigFromMap(t *testing.T) {
	assert.Nil(t, etl.TransformConfigFromMap(nil))

	tc := etl.TransformConfigFromMap(map[string]any{})
	require.NotNil(t, tc)
	assert.Nil(t, tc.MissingValues)

	tc = etl.TransformConfigFromMap(map[string]any{
		"missing_values": map[string]any{"strategy": "fill", "fill_value": 0},
	})
	require.NotNil(t, tc.MissingValues)
	assert.Equal(t, "fill", tc.MissingValues.Strategy)
	assert.Equal(t, 0, tc.MissingValues.FillValue)

	// Strategy defaults to drop when the section is present but empty.
	tc = etl.TransformConfigFromMap(map[string]any{
		"missing_values": map[string]any{},
	})
	require.NotNil(t, tc.MissingValues)
	assert.Equal(t, "drop", tc.MissingValues.Strategy)
}
