package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all groundtruth configuration.
type Config struct {
	// Decision engine
	Engine EngineConfig `yaml:"engine"`

	// Rule sources
	Rules RulesConfig `yaml:"rules"`

	// Submission pipeline
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Decision journal
	Journal JournalConfig `yaml:"journal"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the Mangle decision engine.
type EngineConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Timeout  string `yaml:"timeout"`
	MaxFacts int    `yaml:"max_facts"`
}

// RulesConfig configures where decision rules come from.
type RulesConfig struct {
	// Dir overrides the embedded rule files when set.
	Dir string `yaml:"dir"`
}

// PipelineConfig configures the submission pipeline.
type PipelineConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// JournalConfig configures the decision journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Enabled:  true,
			Timeout:  "5s",
			MaxFacts: 100000,
		},
		Pipeline: PipelineConfig{
			Workers:   2,
			QueueSize: 64,
		},
		Journal: JournalConfig{
			Path: "data/groundtruth.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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
	if v := os.Getenv("GROUNDTRUTH_ENGINE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Engine.Enabled = enabled
		}
	}
	if v := os.Getenv("GROUNDTRUTH_ENGINE_TIMEOUT"); v != "" {
		c.Engine.Timeout = v
	}
	if v := os.Getenv("GROUNDTRUTH_RULES_DIR"); v != "" {
		c.Rules.Dir = v
	}
	if v := os.Getenv("GROUNDTRUTH_DB"); v != "" {
		c.Journal.Path = v
	}
	if v := os.Getenv("GROUNDTRUTH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("GROUNDTRUTH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetEngineTimeout returns the engine evaluation timeout as a duration.
func (c *Config) GetEngineTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ValidLogLevels lists all supported logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.Timeout != "" {
		if _, err := time.ParseDuration(c.Engine.Timeout); err != nil {
			return fmt.Errorf("invalid engine timeout %q: %w", c.Engine.Timeout, err)
		}
	}
	if c.Engine.MaxFacts < 0 {
		return fmt.Errorf("engine max_facts must not be negative, got %d", c.Engine.MaxFacts)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("pipeline queue_size must be at least 1, got %d", c.Pipeline.QueueSize)
	}
	if c.Logging.Level != "" {
		validLevel := false
		for _, l := range ValidLogLevels {
			if c.Logging.Level == l {
				validLevel = true
				break
			}
		}
		if !validLevel {
			return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
		}
	}
	return nil
}
