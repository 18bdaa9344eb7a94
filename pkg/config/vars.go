package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "hktransit"
)

// File names of stage outputs.
const (
	TruthDBFile      = "transport.sqlite"
	AppDBFile        = "app.sqlite"
	MetricsFile      = "metrics.prom"
	SnapshotFile     = "canonical.gob"
	UnresolvedFile   = "unresolved.json"
	ValidationFile   = "validation.json"
	RegistryFile     = "registry.bolt"
	ManifestFile     = "manifest.yaml"
	PrecedenceFile   = "precedence.yaml"
	HeadwayStatsFile = "headway_stats.json"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/hktransit by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/hktransit by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// WorkDir returns the default directory for intermediate stage outputs.
// Returns ~/.cache/hktransit/work by default.
func WorkDir(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "work")
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/hktransit/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/hktransit/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// PrecedenceFilePath returns the full path to the precedence.yaml file.
// Returns ~/.config/hktransit/precedence.yaml by default.
func PrecedenceFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), PrecedenceFile)
}
