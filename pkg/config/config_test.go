package config_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gnames/hktransit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	tempHome := t.TempDir()

	tests := []struct {
		msg string
		fn  func(string) string
		res string
	}{
		{
			msg: "config dir",
			fn:  config.ConfigDir,
			res: filepath.Join(tempHome, ".config", "hktransit"),
		},
		{
			msg: "cache dir",
			fn:  config.CacheDir,
			res: filepath.Join(tempHome, ".cache", "hktransit"),
		},
		{
			msg: "work dir",
			fn:  config.WorkDir,
			res: filepath.Join(tempHome, ".cache", "hktransit", "work"),
		},
		{
			msg: "log dir",
			fn:  config.LogDir,
			res: filepath.Join(tempHome, ".local", "share", "hktransit", "logs"),
		},
		{
			msg: "precedence file",
			fn:  config.PrecedenceFilePath,
			res: filepath.Join(tempHome, ".config", "hktransit", "precedence.yaml"),
		},
	}

	for _, v := range tests {
		res := v.fn(tempHome)
		assert.Equal(t, v.res, res, v.msg)
	}
}

func TestNew(t *testing.T) {
	cfg := config.New()

	t.Run("creates valid default config", func(t *testing.T) {
		require.NotNil(t, cfg)

		assert.Equal(t, config.HeadwayFull, cfg.HeadwayMode)
		assert.Equal(t, 2, cfg.Validate.MinPatternStops)
		assert.Equal(t, 200, cfg.Validate.MaxPatternStops)
		assert.Equal(t, 20, cfg.Validate.SampleLimit)
		assert.False(t, cfg.Validate.FailFast)
		assert.NotEmpty(t, cfg.Serve.BundleVersion)

		// Mirror defaults
		assert.Equal(t, "localhost", cfg.Mirror.Host)
		assert.Equal(t, 5432, cfg.Mirror.Port)
		assert.Equal(t, "disable", cfg.Mirror.SSLMode)
		assert.Equal(t, 50_000, cfg.Mirror.BatchSize)

		// Log defaults
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "file", cfg.Log.Destination)

		// JobsNumber defaults to CPU count
		assert.Equal(t, runtime.NumCPU(), cfg.JobsNumber)
	})

	t.Run("stage dir falls back to cache", func(t *testing.T) {
		c := config.New()
		c.Update([]config.Option{config.OptHomeDir("/home/test")})
		assert.Equal(t, config.WorkDir("/home/test"), c.StageDir())

		c.Update([]config.Option{config.OptWorkDir("/tmp/work")})
		assert.Equal(t, "/tmp/work", c.StageDir())
	})
}

func TestOptionHeadwayMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected config.HeadwayMode
	}{
		{
			name:     "sets partial",
			input:    "partial",
			expected: config.HeadwayPartial,
		},
		{
			name:     "sets none",
			input:    "none",
			expected: config.HeadwayNone,
		},
		{
			name:     "normalizes to lowercase",
			input:    " NONE ",
			expected: config.HeadwayNone,
		},
		{
			name:     "ignores invalid value",
			input:    "some",
			expected: config.HeadwayFull, // Should keep default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			opt := config.OptHeadwayMode(tt.input)
			cfg.Update([]config.Option{opt})
			assert.Equal(t, tt.expected, cfg.HeadwayMode)
		})
	}
}

func TestOptionStagedDir(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sets valid dir",
			input:    "/data/staged",
			expected: "/data/staged",
		},
		{
			name:     "trims whitespace",
			input:    "  /data/staged  ",
			expected: "/data/staged",
		},
		{
			name:     "ignores whitespace-only",
			input:    "   ",
			expected: "staged", // Should keep default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			opt := config.OptStagedDir(tt.input)
			cfg.Update([]config.Option{opt})
			assert.Equal(t, tt.expected, cfg.StagedDir)
		})
	}
}

func TestOptionPatternStops(t *testing.T) {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptMinPatternStops(3),
		config.OptMaxPatternStops(0),
		config.OptSampleLimit(-1),
	})
	assert.Equal(t, 3, cfg.Validate.MinPatternStops)
	assert.Equal(t, 200, cfg.Validate.MaxPatternStops)
	assert.Equal(t, 20, cfg.Validate.SampleLimit)
}

func TestOptionMirrorSSLMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sets valid ssl mode - require",
			input:    "require",
			expected: "require",
		},
		{
			name:     "normalizes to lowercase",
			input:    "VERIFY-FULL",
			expected: "verify-full",
		},
		{
			name:     "ignores invalid value",
			input:    "invalid",
			expected: "disable", // Should keep default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			opt := config.OptMirrorSSLMode(tt.input)
			cfg.Update([]config.Option{opt})
			assert.Equal(t, tt.expected, cfg.Mirror.SSLMode)
		})
	}
}

func TestOptionLogDestination(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sets stdout",
			input:    "stdout",
			expected: "stdout",
		},
		{
			name:     "sets stderr",
			input:    "STDERR",
			expected: "stderr",
		},
		{
			name:     "ignores invalid value",
			input:    "syslog",
			expected: "file", // Should keep default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			opt := config.OptLogDestination(tt.input)
			cfg.Update([]config.Option{opt})
			assert.Equal(t, tt.expected, cfg.Log.Destination)
		})
	}
}

func TestOptionJobsNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{
			name:     "sets valid jobs number",
			input:    8,
			expected: 8,
		},
		{
			name:     "ignores zero",
			input:    0,
			expected: runtime.NumCPU(), // Should keep default
		},
		{
			name:     "ignores negative",
			input:    -5,
			expected: runtime.NumCPU(), // Should keep default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			opt := config.OptJobsNumber(tt.input)
			cfg.Update([]config.Option{opt})
			assert.Equal(t, tt.expected, cfg.JobsNumber)
		})
	}
}

func TestToOptionsRoundTrip(t *testing.T) {
	src := config.New()
	src.Update([]config.Option{
		config.OptStagedDir("/data/staged"),
		config.OptOutputDir("/data/dist"),
		config.OptHeadwayMode("partial"),
		config.OptFailFast(true),
		config.OptBundleVersion("2026.10.01"),
		config.OptMirrorHost("pg.example.org"),
		config.OptLogLevel("debug"),
		config.OptJobsNumber(3),
		config.OptHomeDir("/home/test"),
	})

	dst := config.New()
	dst.Update(src.ToOptions())

	assert.Equal(t, "/data/staged", dst.StagedDir)
	assert.Equal(t, "/data/dist", dst.OutputDir)
	assert.Equal(t, config.HeadwayPartial, dst.HeadwayMode)
	assert.True(t, dst.Validate.FailFast)
	assert.Equal(t, "2026.10.01", dst.Serve.BundleVersion)
	assert.Equal(t, "pg.example.org", dst.Mirror.Host)
	assert.Equal(t, "debug", dst.Log.Level)
	assert.Equal(t, 3, dst.JobsNumber)
	assert.Empty(t, dst.HomeDir, "HomeDir is runtime-only")
}
