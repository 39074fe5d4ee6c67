package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/config"
)

func TestLoadPipelineConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := `
extract:
  source: csv
transform:
  missing_values:
    strategy: fill
    fill_value: 0
load:
  orient: records
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.LoadPipelineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Extract["source"])
	assert.Equal(t, "records", cfg.Load["orient"])

	mv, ok := cfg.Transform["missing_values"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fill", mv["strategy"])
	assert.Equal(t, 0, mv["fill_value"])
}

func TestLoadPipelineConfigMissingFile(t *testing.T) {
	_, err := config.LoadPipelineConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPipelineConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extract: [unclosed"), 0644))

	_, err := config.LoadPipelineConfig(path)
	require.Error(t, err)
}
