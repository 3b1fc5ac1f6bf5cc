package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Dir is the per-workspace directory holding config, logs and the cache.
const Dir = ".repetend"

// Config holds all repetend configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Extraction ExtractionConfig `yaml:"extraction"`
	Survey     SurveyConfig     `yaml:"survey"`
	Store      StoreConfig      `yaml:"store"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ExtractionConfig configures the period extractor defaults.
type ExtractionConfig struct {
	DefaultBase int `yaml:"default_base"`
	// MaxDigits bounds every extraction; 0 lets the extractor choose a bound
	// that always resolves for the denominator.
	MaxDigits int `yaml:"max_digits"`
}

// SurveyConfig configures range scans.
type SurveyConfig struct {
	Workers   int    `yaml:"workers"`
	ChunkSize int    `yaml:"chunk_size"`
	Timeout   string `yaml:"timeout"`
	// DefaultMax is the upper end of the scanned range when none is given.
	DefaultMax int64 `yaml:"default_max"`
	// SlowThreshold triggers a warning log for long scans.
	SlowThreshold string `yaml:"slow_threshold"`
}

// StoreConfig configures the SQLite cache.
type StoreConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// CatalogConfig locates a user catalog merged over the embedded default.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "repetend",
		Version: "0.3.0",

		Extraction: ExtractionConfig{
			DefaultBase: 10,
			MaxDigits:   0,
		},

		Survey: SurveyConfig{
			Workers:       4,
			ChunkSize:     256,
			Timeout:       "5m",
			DefaultMax:    1000,
			SlowThreshold: "10s",
		},

		Store: StoreConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(Dir, "repetend.db"),
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file location for a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, Dir, "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("REPETEND_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if v := os.Getenv("REPETEND_NO_CACHE"); v != "" {
		if off, err := strconv.ParseBool(v); err == nil {
			c.Store.Enabled = !off
		}
	}
	if v := os.Getenv("REPETEND_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Survey.Workers = n
		}
	}
	if level := os.Getenv("REPETEND_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("REPETEND_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
}

// ResolvePath anchors a relative path at the workspace.
func ResolvePath(workspace, path string) string {
	if path == "" || filepath.IsAbs(path) || workspace == "" {
		return path
	}
	return filepath.Join(workspace, path)
}

// GetSurveyTimeout returns the survey timeout as a duration.
func (c *Config) GetSurveyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Survey.Timeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetSlowThreshold returns the slow-scan warning threshold.
func (c *Config) GetSlowThreshold() time.Duration {
	d, err := time.ParseDuration(c.Survey.SlowThreshold)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Extraction.DefaultBase < 2 {
		return fmt.Errorf("extraction.default_base must be >= 2, got %d", c.Extraction.DefaultBase)
	}
	if c.Extraction.MaxDigits < 0 {
		return fmt.Errorf("extraction.max_digits must be >= 0, got %d", c.Extraction.MaxDigits)
	}
	if c.Survey.Workers < 1 {
		return fmt.Errorf("survey.workers must be >= 1, got %d", c.Survey.Workers)
	}
	if c.Survey.ChunkSize < 1 {
		return fmt.Errorf("survey.chunk_size must be >= 1, got %d", c.Survey.ChunkSize)
	}
	if c.Survey.DefaultMax < 2 {
		return fmt.Errorf("survey.default_max must be >= 2, got %d", c.Survey.DefaultMax)
	}
	if c.Survey.Timeout != "" {
		if _, err := time.ParseDuration(c.Survey.Timeout); err != nil {
			return fmt.Errorf("survey.timeout: %w", err)
		}
	}
	if c.Store.Enabled && c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path required when store is enabled")
	}
	return c.Logging.Validate()
}
