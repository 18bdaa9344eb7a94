package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptStagedDir sets the directory with manifest.yaml and staged batches.
func OptStagedDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Staged Dir", s) {
			c.StagedDir = s
		}
	}
}

// OptOutputDir sets the directory where artifacts are published.
func OptOutputDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Output Dir", s) {
			c.OutputDir = s
		}
	}
}

// OptWorkDir sets the directory for intermediate stage outputs.
func OptWorkDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Work Dir", s) {
			c.WorkDir = s
		}
	}
}

// OptHeadwayMode sets headway handling.
// Valid values: "full", "partial", "none".
func OptHeadwayMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("HeadwayMode", s) {
			c.HeadwayMode = HeadwayMode(s)
		}
	}
}

// OptMinPatternStops sets the pattern length below which a warning
// is issued.
func OptMinPatternStops(i int) Option {
	return func(c *Config) {
		if isValidInt("Min Pattern Stops", i) {
			c.Validate.MinPatternStops = i
		}
	}
}

// OptMaxPatternStops sets the pattern length above which a warning
// is issued.
func OptMaxPatternStops(i int) Option {
	return func(c *Config) {
		if isValidInt("Max Pattern Stops", i) {
			c.Validate.MaxPatternStops = i
		}
	}
}

// OptSampleLimit caps the number of findings per code kept in notes.
func OptSampleLimit(i int) Option {
	return func(c *Config) {
		if isValidInt("Sample Limit", i) {
			c.Validate.SampleLimit = i
		}
	}
}

// OptFailFast stops validation at the first fatal finding.
func OptFailFast(b bool) Option {
	return func(c *Config) {
		c.Validate.FailFast = b
	}
}

// OptBundleVersion sets the bundle version recorded in meta tables.
func OptBundleVersion(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Bundle Version", s) {
			c.Serve.BundleVersion = s
		}
	}
}

// OptMirrorHost sets the PostgreSQL server hostname or IP address.
func OptMirrorHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Mirror Host", s) {
			c.Mirror.Host = s
		}
	}
}

// OptMirrorPort sets the PostgreSQL server port number.
func OptMirrorPort(i int) Option {
	return func(c *Config) {
		if isValidInt("Mirror Port", i) {
			c.Mirror.Port = i
		}
	}
}

// OptMirrorUser sets the PostgreSQL database username.
func OptMirrorUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Mirror User", s) {
			c.Mirror.User = s
		}
	}
}

// OptMirrorPassword sets the PostgreSQL database password.
func OptMirrorPassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Mirror Password", s) {
			c.Mirror.Password = s
		}
	}
}

// OptMirrorDatabase sets the PostgreSQL database name to connect to.
func OptMirrorDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Mirror Database", s) {
			c.Mirror.Database = s
		}
	}
}

// OptMirrorSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptMirrorSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Mirror.SSLMode", s) {
			c.Mirror.SSLMode = s
		}
	}
}

// OptMirrorBatchSize sets the number of rows per CopyFrom call.
func OptMirrorBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Mirror Batch Size", i) {
			c.Mirror.BatchSize = i
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for parallel operations.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
