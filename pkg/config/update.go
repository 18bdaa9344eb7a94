package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only HomeDir.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int

	s = c.StagedDir
	if s != "" {
		res = append(res, OptStagedDir(s))
	}
	s = c.OutputDir
	if s != "" {
		res = append(res, OptOutputDir(s))
	}
	s = c.WorkDir
	if s != "" {
		res = append(res, OptWorkDir(s))
	}
	s = string(c.HeadwayMode)
	if s != "" {
		res = append(res, OptHeadwayMode(s))
	}

	i = c.Validate.MinPatternStops
	if i > 0 {
		res = append(res, OptMinPatternStops(i))
	}
	i = c.Validate.MaxPatternStops
	if i > 0 {
		res = append(res, OptMaxPatternStops(i))
	}
	i = c.Validate.SampleLimit
	if i > 0 {
		res = append(res, OptSampleLimit(i))
	}
	if c.Validate.FailFast {
		res = append(res, OptFailFast(true))
	}

	s = c.Serve.BundleVersion
	if s != "" {
		res = append(res, OptBundleVersion(s))
	}

	s = c.Mirror.Host
	if s != "" {
		res = append(res, OptMirrorHost(s))
	}
	i = c.Mirror.Port
	if i > 0 {
		res = append(res, OptMirrorPort(i))
	}
	s = c.Mirror.User
	if s != "" {
		res = append(res, OptMirrorUser(s))
	}
	s = c.Mirror.Password
	if s != "" {
		res = append(res, OptMirrorPassword(s))
	}
	s = c.Mirror.Database
	if s != "" {
		res = append(res, OptMirrorDatabase(s))
	}
	s = c.Mirror.SSLMode
	if s != "" {
		res = append(res, OptMirrorSSLMode(s))
	}
	i = c.Mirror.BatchSize
	if i > 0 {
		res = append(res, OptMirrorBatchSize(i))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"HeadwayMode": {"full": s, "partial": s, "none": s},
		"Mirror.SSLMode": {"disable": s, "require": s,
			"verify-ca": s, "verify-full": s},
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s, "tint": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
	}
	if _, ok := data[name][val]; ok {
		return true
	}

	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
