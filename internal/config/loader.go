package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig is the parsed pipeline configuration file. Each section is
// an arbitrary option map handed straight to the matching component's
// constructor. It is loaded once and never mutated.
type PipelineConfig struct {
	Extract   map[string]any `yaml:"extract"`
	Transform map[string]any `yaml:"transform"`
	Load      map[string]any `yaml:"load"`
}

// LoadPipelineConfig reads and parses a YAML pipeline configuration file.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg PipelineConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	return &cfg, nil
}
