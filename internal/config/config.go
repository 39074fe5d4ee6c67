// Package config handles application settings: environment-backed
// connection configuration and the YAML pipeline configuration file.
package config

import (
	"errors"
	"os"
)

// Config holds settings loaded from environment variables (populated by the
// .env file in main).
type Config struct {
	DatabaseURL string
}

// LoadConfig reads the database connection string from the environment.
func LoadConfig() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	return &Config{DatabaseURL: dbURL}, nil
}
