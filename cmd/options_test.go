package cmd

import (
	"testing"

	"github.com/gnames/hktransit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		msg  string
		args []string
		test func(*testing.T, *config.Config)
	}{
		{"no flags", nil, func(t *testing.T, c *config.Config) {
			assert.Equal(t, config.New().Validate, c.Validate)
		}},
		{"fail fast", []string{"--fail-fast"}, func(t *testing.T, c *config.Config) {
			assert.True(t, c.Validate.FailFast)
		}},
		{"stops", []string{"--min-stops", "3", "--max-stops", "90"},
			func(t *testing.T, c *config.Config) {
				assert.Equal(t, 3, c.Validate.MinPatternStops)
				assert.Equal(t, 90, c.Validate.MaxPatternStops)
			}},
		{"samples", []string{"--sample-limit", "5"}, func(t *testing.T, c *config.Config) {
			assert.Equal(t, 5, c.Validate.SampleLimit)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			cmd := getValidateCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))
			c := config.New()
			c.Update(validateOptions(cmd))
			tt.test(t, c)
		})
	}
}

func TestBundleOptions(t *testing.T) {
	cmd := getCommitCmd()
	assert.Empty(t, bundleOptions(cmd))

	require.NoError(t, cmd.ParseFlags([]string{"-b", "2025.06.01"}))
	c := config.New()
	c.Update(bundleOptions(cmd))
	assert.Equal(t, "2025.06.01", c.Serve.BundleVersion)
}

func TestMirrorOptions(t *testing.T) {
	cmd := getMirrorCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--host", "db.local",
		"--port", "5433",
		"--database", "transit",
		"--batch-size", "100",
	}))

	c := config.New()
	c.Update(mirrorOptions(cmd))
	assert.Equal(t, "db.local", c.Mirror.Host)
	assert.Equal(t, 5433, c.Mirror.Port)
	assert.Equal(t, "transit", c.Mirror.Database)
	assert.Equal(t, 100, c.Mirror.BatchSize)
	assert.Equal(t, config.New().Mirror.User, c.Mirror.User)
}

func TestBuildFlags(t *testing.T) {
	cmd := getBuildCmd()
	for _, name := range []string{
		"precedence", "fail-fast", "min-stops", "max-stops", "sample-limit", "bundle-version",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
