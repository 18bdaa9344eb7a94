// Package config provides configuration management for hktransit.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Paths: staged_dir, output_dir, work_dir
//   - HeadwayMode, JobsNumber
//   - Validate: min_pattern_stops, max_pattern_stops, sample_limit, fail_fast
//   - Serve: bundle_version
//   - Mirror: host, port, user, password, database, ssl_mode, batch_size
//   - Log: level, format, destination
//
// Runtime-only fields (CLI flags only):
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use HKTRANSIT_ prefix with underscores for nesting:
//
//	HKTRANSIT_STAGED_DIR=/data/staged
//	HKTRANSIT_HEADWAY_MODE=partial
//	HKTRANSIT_LOG_LEVEL=debug
//	HKTRANSIT_JOBS_NUMBER=8
package config

import (
	"runtime"
	"time"
)

// HeadwayMode determines which headway tables survive into the artifacts.
type HeadwayMode string

const (
	// HeadwayFull keeps every headway table.
	HeadwayFull HeadwayMode = "full"
	// HeadwayPartial keeps only pattern_headways and service_exceptions.
	HeadwayPartial HeadwayMode = "partial"
	// HeadwayNone drops all headway tables.
	HeadwayNone HeadwayMode = "none"
)

// SchemaVersion is the version of both database schemas.
const SchemaVersion = 1

// Config represents the complete hktransit configuration.
type Config struct {
	// StagedDir contains manifest.yaml and the staged batch files
	// produced by the Parse stage.
	StagedDir string `mapstructure:"staged_dir" yaml:"staged_dir"`

	// OutputDir receives transport.sqlite, app.sqlite and metrics.prom.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// WorkDir keeps intermediate stage outputs (graph snapshot, reports)
	// and the key registry. Empty means CacheDir(HomeDir)/work.
	WorkDir string `mapstructure:"work_dir" yaml:"work_dir"`

	// HeadwayMode is 'full', 'partial' or 'none'. It is applied to both
	// the truth and the serving databases.
	HeadwayMode HeadwayMode `mapstructure:"headway_mode" yaml:"headway_mode"`

	// Validate contains thresholds of the integrity checks.
	Validate ValidateConfig `mapstructure:"validate" yaml:"validate"`

	// Serve contains settings of the serving database.
	Serve ServeConfig `mapstructure:"serve" yaml:"serve"`

	// Mirror contains PostgreSQL connection settings for the optional
	// mirror of the truth database.
	Mirror DatabaseConfig `mapstructure:"mirror" yaml:"mirror"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for parallel operations.
	// Default value is set according to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// ValidateConfig contains settings for the Validate stage.
type ValidateConfig struct {
	// MinPatternStops is the smallest number of stops a pattern can have
	// before a warning is issued.
	MinPatternStops int `mapstructure:"min_pattern_stops" yaml:"min_pattern_stops"`

	// MaxPatternStops is the largest number of stops a pattern can have
	// before a warning is issued.
	MaxPatternStops int `mapstructure:"max_pattern_stops" yaml:"max_pattern_stops"`

	// SampleLimit caps how many findings of the same code are kept in
	// the artifact notes.
	SampleLimit int `mapstructure:"sample_limit" yaml:"sample_limit"`

	// FailFast stops remaining checks after the first fatal finding.
	FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast"`
}

// ServeConfig contains settings for the serving database.
type ServeConfig struct {
	// BundleVersion is written to the meta table of both artifacts.
	BundleVersion string `mapstructure:"bundle_version" yaml:"bundle_version"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize defines the number of rows sent per CopyFrom call.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		StagedDir:   "staged",
		OutputDir:   "dist",
		HeadwayMode: HeadwayFull,
		Validate: ValidateConfig{
			MinPatternStops: 2,
			MaxPatternStops: 200,
			SampleLimit:     20,
		},
		Serve: ServeConfig{
			BundleVersion: time.Now().UTC().Format("2006.01.02"),
		},
		Mirror: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "hktransit",
			SSLMode:   "disable",
			BatchSize: 50_000,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}

	return res
}

// StageDir returns the directory for intermediate stage outputs.
func (c *Config) StageDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return WorkDir(c.HomeDir)
}
