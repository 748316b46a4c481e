package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Ingestion   IngestionConfig `toml:"ingestion"`
	Canonical   CanonicalConfig `toml:"canonical"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Files  FilesConfig  `toml:"files"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FilesConfig controls where ingested files are moved after processing
type FilesConfig struct {
	Root string `toml:"root"` // Root directory for processed file storage
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// IngestionConfig holds the similarity thresholds consumed by the
// duplicate detector, version manager and ingestion orchestrator.
// All thresholds are combined-similarity values in [0,1].
type IngestionConfig struct {
	NearDuplicateThreshold      float64 `toml:"near_duplicate_threshold" validate:"gte=0,lte=1"`      // Minimum combined similarity to classify as near-duplicate
	FuzzyMatchThreshold         float64 `toml:"fuzzy_match_threshold" validate:"gte=0,lte=1"`         // Looser advisory match flag, never triggers versioning
	PotentialVersionThreshold   float64 `toml:"potential_version_threshold" validate:"gte=0,lte=1"`   // Minimum similarity for version-parent candidacy
	FilenameSimilarityThreshold float64 `toml:"filename_similarity_threshold" validate:"gte=0,lte=1"` // Minimum filename-stem similarity for version linking
	MinCompareLength            int     `toml:"min_compare_length"`                                   // Texts shorter than this are never compared
	MaxCompareLength            int     `toml:"max_compare_length"`                                   // Texts are truncated to this length before alignment
	LengthProfileThreshold      int     `toml:"length_profile_threshold"`                             // Switch point between short/long weighting profiles
}

// CanonicalConfig holds canonical-selection scoring weights. Weights are
// re-normalized to sum to 1 before use, so partial overrides are safe.
type CanonicalConfig struct {
	QualityWeight      float64 `toml:"quality_weight" validate:"gte=0"`
	RecencyWeight      float64 `toml:"recency_weight" validate:"gte=0"`
	CompletenessWeight float64 `toml:"completeness_weight" validate:"gte=0"`
	PreferLatest       bool    `toml:"prefer_latest"` // When false, recency scoring returns neutral 0.5
	PreferLarger       bool    `toml:"prefer_larger"` // When false, completeness scoring returns neutral 0.5
}

// SchedulerConfig controls the periodic canonical-selection sweep
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format, e.g. "0 2 * * *"
}

// NewDefaultConfig returns a config populated with documented defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8190,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/lexhold",
				ResetOnStartup: false,
			},
			Files: FilesConfig{
				Root: "./data/files",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Ingestion: IngestionConfig{
			NearDuplicateThreshold:      0.95,
			FuzzyMatchThreshold:         0.85,
			PotentialVersionThreshold:   0.95,
			FilenameSimilarityThreshold: 0.8,
			MinCompareLength:            100,
			MaxCompareLength:            50000,
			LengthProfileThreshold:      1000,
		},
		Canonical: CanonicalConfig{
			QualityWeight:      0.4,
			RecencyWeight:      0.3,
			CompletenessWeight: 0.3,
			PreferLatest:       true,
			PreferLarger:       true,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 2 * * *",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks threshold ranges and weight sanity
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	total := c.Canonical.QualityWeight + c.Canonical.RecencyWeight + c.Canonical.CompletenessWeight
	if total <= 0 {
		return fmt.Errorf("invalid configuration: canonical weights must not all be zero")
	}

	if c.Ingestion.FuzzyMatchThreshold > c.Ingestion.NearDuplicateThreshold {
		return fmt.Errorf("invalid configuration: fuzzy_match_threshold %.2f exceeds near_duplicate_threshold %.2f",
			c.Ingestion.FuzzyMatchThreshold, c.Ingestion.NearDuplicateThreshold)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LEXHOLD_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("LEXHOLD_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LEXHOLD_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("LEXHOLD_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if root := os.Getenv("LEXHOLD_FILES_ROOT"); root != "" {
		config.Storage.Files.Root = root
	}

	if level := os.Getenv("LEXHOLD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if threshold := os.Getenv("LEXHOLD_NEAR_DUPLICATE_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Ingestion.NearDuplicateThreshold = v
		}
	}
	if threshold := os.Getenv("LEXHOLD_FUZZY_MATCH_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Ingestion.FuzzyMatchThreshold = v
		}
	}
}
