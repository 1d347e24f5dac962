// Package config loads tool configuration from an optional YAML file and
// the environment. Broker credentials only ever come from the environment
// (or a .env file next to the working directory), never from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete tool configuration.
type Config struct {
	Download   DownloadConfig   `yaml:"download"`
	Activities ActivitiesConfig `yaml:"activities"`
	Output     OutputConfig     `yaml:"output"`

	Credentials Credentials `yaml:"-"`
}

// DownloadConfig controls the bar and snapshot downloaders.
type DownloadConfig struct {
	// Provider is the market data vendor: alpaca, polygon or binance.
	Provider string `yaml:"provider"`
	// Writer is the output format: json, csv or parquet.
	Writer string `yaml:"writer"`
	// ChunkSize is how many symbols are downloaded concurrently per batch.
	ChunkSize int `yaml:"chunk_size"`
	// ChunkPauseMillis is the pause between batches, protecting the vendor
	// rate limit.
	ChunkPauseMillis int `yaml:"chunk_pause_millis"`
	// Limit is the maximum number of bars fetched per symbol.
	Limit int `yaml:"limit"`
}

// ActivitiesConfig controls account activity paging.
type ActivitiesConfig struct {
	// PageSize is the number of activities requested per page.
	PageSize int `yaml:"page_size"`
	// MaxActivities caps the total number of activities fetched per run.
	MaxActivities int `yaml:"max_activities"`
}

// OutputConfig controls where files are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Credentials holds broker API keys, loaded from the environment.
type Credentials struct {
	AlpacaKeyID     string
	AlpacaSecretKey string
	AlpacaBaseURL   string
	PolygonAPIKey   string
}

// Load reads the YAML config at path (skipped when path is empty or the
// file does not exist), loads .env if present, applies environment
// credentials and fills in defaults.
func Load(path string) (*Config, error) {
	// Load .env if present; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}

		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	cfg.Credentials = credentialsFromEnv()
	setDefaults(&cfg)

	return &cfg, nil
}

// ChunkPause returns the pause between download batches as a Duration.
func (c *Config) ChunkPause() time.Duration {
	return time.Duration(c.Download.ChunkPauseMillis) * time.Millisecond
}

// credentialsFromEnv reads broker keys from the environment. The legacy
// KEY_ID/SECRET_KEY names from the original scripts are accepted as
// fallbacks for the standard APCA_* names.
func credentialsFromEnv() Credentials {
	return Credentials{
		AlpacaKeyID:     firstEnv("APCA_API_KEY_ID", "KEY_ID"),
		AlpacaSecretKey: firstEnv("APCA_API_SECRET_KEY", "SECRET_KEY"),
		AlpacaBaseURL:   os.Getenv("APCA_API_BASE_URL"),
		PolygonAPIKey:   os.Getenv("POLYGON_API_KEY"),
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}

	return ""
}

func setDefaults(cfg *Config) {
	if cfg.Download.Provider == "" {
		cfg.Download.Provider = "alpaca"
	}
	if cfg.Download.Writer == "" {
		cfg.Download.Writer = "json"
	}
	if cfg.Download.ChunkSize <= 0 {
		cfg.Download.ChunkSize = 100
	}
	if cfg.Download.ChunkPauseMillis <= 0 {
		cfg.Download.ChunkPauseMillis = 100
	}
	if cfg.Download.Limit <= 0 {
		cfg.Download.Limit = 1000
	}
	if cfg.Activities.PageSize <= 0 {
		cfg.Activities.PageSize = 100
	}
	if cfg.Activities.MaxActivities <= 0 {
		cfg.Activities.MaxActivities = 500
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
}
